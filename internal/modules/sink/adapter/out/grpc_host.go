package out

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"time"

	hclog "github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"

	"statusrelay/internal/modules/sink/adapter/out/rpc"
	"statusrelay/internal/modules/sink/domain"
	sinkout "statusrelay/internal/modules/sink/port/out"
)

const sinkStartTimeout = 3 * time.Second

// GRPCHost launches a sink binary per call and tears it down again; sinks
// see at most one frame per process, which keeps them trivially stateless.
type GRPCHost struct{}

func NewGRPCHost() sinkout.Host {
	return &GRPCHost{}
}

func (h *GRPCHost) Probe(ctx context.Context, manifest domain.Manifest) (domain.Metadata, error) {
	client, closeFn, err := h.connect(manifest)
	if err != nil {
		return domain.Metadata{}, err
	}
	defer closeFn()

	meta, err := client.GetMetadata(ctx)
	if err != nil {
		return domain.Metadata{}, fmt.Errorf("get sink metadata: %w", err)
	}
	return domain.Metadata{Name: meta.Name, Version: meta.Version}, nil
}

func (h *GRPCHost) Deliver(ctx context.Context, manifest domain.Manifest, payload domain.Payload) error {
	client, closeFn, err := h.connect(manifest)
	if err != nil {
		return err
	}
	defer closeFn()

	fields := make([]rpc.Field, 0, len(payload.Fields))
	for _, f := range payload.Fields {
		fields = append(fields, rpc.Field{Name: f.Name, Value: f.Value})
	}
	_, err = client.Deliver(ctx, &rpc.DeliverRequest{
		Project:     payload.Project,
		State:       payload.State,
		Title:       payload.Title,
		Description: payload.Description,
		Color:       payload.Color,
		Stale:       payload.Stale,
		Fields:      fields,
		Timestamp:   payload.Timestamp.UTC().Format(time.RFC3339),
	})
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("%w: %s", domain.ErrSinkTimeout, manifest.Name)
		}
		return fmt.Errorf("deliver to sink: %w", err)
	}
	return nil
}

func (h *GRPCHost) connect(manifest domain.Manifest) (rpc.StatusSinkClient, func(), error) {
	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig:  rpc.HandshakeConfig,
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolGRPC},
		Plugins:          rpc.SinkMap(nil),
		Cmd:              exec.Command(manifest.Binary),
		Managed:          true,
		StartTimeout:     sinkStartTimeout,
		Logger:           hclog.New(&hclog.LoggerOptions{Output: io.Discard, Level: hclog.NoLevel}),
	})
	closeFn := func() { client.Kill() }

	rpcClient, err := client.Client()
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("start sink client: %w", err)
	}
	raw, err := rpcClient.Dispense(rpc.SinkMapKey)
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("dispense sink: %w", err)
	}
	typed, ok := raw.(rpc.StatusSinkClient)
	if !ok {
		closeFn()
		return nil, nil, fmt.Errorf("sink rpc client type mismatch")
	}
	return typed, closeFn, nil
}
