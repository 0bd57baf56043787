package in

import (
	"context"

	"statusrelay/internal/modules/status/dto"
)

// Usecase is the status engine's inbound surface. HandleEvent returned
// errors are diagnostic only: the hook entrypoint logs them and still exits
// zero, since a non-zero hook exit blocks the upstream action.
type Usecase interface {
	HandleEvent(ctx context.Context, input dto.EventInput) error
	RunHeartbeat(ctx context.Context, project string) error
	ListProjects(ctx context.Context) ([]dto.ProjectStatus, error)
	History(ctx context.Context, project string, limit int) ([]dto.TransitionOutput, error)
	Clear(ctx context.Context, project string, preserveHandle bool) error
}
