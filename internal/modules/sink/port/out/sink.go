package out

import (
	"context"

	"statusrelay/internal/modules/sink/domain"
)

type ManifestStore interface {
	Load(ctx context.Context) ([]domain.Manifest, error)
}

// Host runs sink binaries and speaks the sink RPC contract to them.
type Host interface {
	Probe(ctx context.Context, manifest domain.Manifest) (domain.Metadata, error)
	Deliver(ctx context.Context, manifest domain.Manifest, payload domain.Payload) error
}
