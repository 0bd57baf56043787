package in

import (
	"context"
	"fmt"

	statusdto "statusrelay/internal/modules/status/dto"
	statusin "statusrelay/internal/modules/status/port/in"
	apperrors "statusrelay/internal/platform/errors"
)

type CLIHandler struct {
	usecase statusin.Usecase
}

func NewCLIHandler(usecase statusin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) ListProjects(ctx context.Context) ([]statusdto.ProjectStatus, error) {
	return h.usecase.ListProjects(ctx)
}

func (h CLIHandler) History(ctx context.Context, project string, limit int) ([]statusdto.TransitionOutput, error) {
	return h.usecase.History(ctx, project, limit)
}

func (h CLIHandler) Clear(ctx context.Context, project string, preserveHandle bool) error {
	if project == "" {
		return fmt.Errorf("%w: project is required", apperrors.ErrInvalidInput)
	}
	return h.usecase.Clear(ctx, project, preserveHandle)
}

func (h CLIHandler) RunHeartbeat(ctx context.Context, project string) error {
	if project == "" {
		return fmt.Errorf("%w: project is required", apperrors.ErrInvalidInput)
	}
	return h.usecase.RunHeartbeat(ctx, project)
}
