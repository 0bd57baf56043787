package service

import (
	"context"
	"fmt"
	"time"

	hclog "github.com/hashicorp/go-hclog"

	"statusrelay/internal/modules/sink/domain"
	sinkout "statusrelay/internal/modules/sink/port/out"
)

const deliverTimeout = 5 * time.Second

type SinkService struct {
	manifests sinkout.ManifestStore
	host      sinkout.Host
	logger    hclog.Logger
}

func NewSinkService(manifests sinkout.ManifestStore, host sinkout.Host, logger hclog.Logger) *SinkService {
	return &SinkService{manifests: manifests, host: host, logger: logger}
}

// Broadcast pushes the payload to every subscribed sink. A sink failure is a
// log line, not an error: sinks are side channels and must never hold up or
// fail the event that produced the frame.
func (s *SinkService) Broadcast(ctx context.Context, payload domain.Payload) error {
	manifests, err := s.manifests.Load(ctx)
	if err != nil {
		s.logger.Warn("load sink manifests", "error", err)
		return nil
	}
	for _, manifest := range manifests {
		if err := manifest.Validate(); err != nil {
			s.logger.Warn("skipping invalid sink manifest", "sink", manifest.Name, "error", err)
			continue
		}
		if !manifest.Wants(payload.State) {
			continue
		}
		callCtx, cancel := context.WithTimeout(ctx, deliverTimeout)
		err := s.host.Deliver(callCtx, manifest, payload)
		cancel()
		if err != nil {
			s.logger.Warn("sink delivery failed", "sink", manifest.Name, "error", err)
		}
	}
	return nil
}

func (s *SinkService) List(ctx context.Context) ([]domain.Manifest, error) {
	return s.manifests.Load(ctx)
}

// Check starts the named sink and asks it for metadata, verifying the binary
// is runnable and speaks the contract.
func (s *SinkService) Check(ctx context.Context, name string) (domain.Manifest, domain.Metadata, error) {
	manifests, err := s.manifests.Load(ctx)
	if err != nil {
		return domain.Manifest{}, domain.Metadata{}, err
	}
	for _, manifest := range manifests {
		if manifest.Name != name {
			continue
		}
		meta, err := s.host.Probe(ctx, manifest)
		if err != nil {
			return domain.Manifest{}, domain.Metadata{}, fmt.Errorf("probe sink %s: %w", name, err)
		}
		return manifest, meta, nil
	}
	return domain.Manifest{}, domain.Metadata{}, fmt.Errorf("%w: %s", domain.ErrSinkNotFound, name)
}
