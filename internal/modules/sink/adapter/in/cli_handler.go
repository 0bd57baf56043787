package in

import (
	"context"

	sinkdto "statusrelay/internal/modules/sink/dto"
	sinkin "statusrelay/internal/modules/sink/port/in"
)

type CLIHandler struct {
	usecase sinkin.Usecase
}

func NewCLIHandler(usecase sinkin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) List(ctx context.Context) ([]sinkdto.SinkInfo, error) {
	return h.usecase.List(ctx)
}

func (h CLIHandler) Check(ctx context.Context, name string) (sinkdto.SinkInfo, error) {
	return h.usecase.Check(ctx, name)
}
