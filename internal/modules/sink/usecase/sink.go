package usecase

import (
	"context"

	"statusrelay/internal/modules/sink/domain"
	sinkdto "statusrelay/internal/modules/sink/dto"
	sinkin "statusrelay/internal/modules/sink/port/in"
	"statusrelay/internal/modules/sink/service"
)

type Interactor struct {
	svc *service.SinkService
}

func NewInteractor(svc *service.SinkService) sinkin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) Broadcast(ctx context.Context, input sinkdto.FrameInput) error {
	fields := make([]domain.PayloadField, 0, len(input.Fields))
	for _, f := range input.Fields {
		fields = append(fields, domain.PayloadField{Name: f.Name, Value: f.Value})
	}
	return i.svc.Broadcast(ctx, domain.Payload{
		Project:     input.Project,
		State:       input.State,
		Title:       input.Title,
		Description: input.Description,
		Color:       input.Color,
		Stale:       input.Stale,
		Fields:      fields,
		Timestamp:   input.Timestamp,
	})
}

func (i *Interactor) List(ctx context.Context) ([]sinkdto.SinkInfo, error) {
	manifests, err := i.svc.List(ctx)
	if err != nil {
		return nil, err
	}
	infos := make([]sinkdto.SinkInfo, 0, len(manifests))
	for _, manifest := range manifests {
		infos = append(infos, sinkdto.SinkInfo{
			Name:   manifest.Name,
			Binary: manifest.Binary,
			States: manifest.States,
		})
	}
	return infos, nil
}

func (i *Interactor) Check(ctx context.Context, name string) (sinkdto.SinkInfo, error) {
	manifest, meta, err := i.svc.Check(ctx, name)
	if err != nil {
		return sinkdto.SinkInfo{}, err
	}
	return sinkdto.SinkInfo{
		Name:    manifest.Name,
		Binary:  manifest.Binary,
		Version: meta.Version,
		States:  manifest.States,
	}, nil
}
