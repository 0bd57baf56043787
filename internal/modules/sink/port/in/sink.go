package in

import (
	"context"

	"statusrelay/internal/modules/sink/dto"
)

// Usecase fans delivered frames out to configured sinks. Broadcast is
// best-effort: individual sink failures are logged, never propagated.
type Usecase interface {
	Broadcast(ctx context.Context, input dto.FrameInput) error
	List(ctx context.Context) ([]dto.SinkInfo, error)
	Check(ctx context.Context, name string) (dto.SinkInfo, error)
}
