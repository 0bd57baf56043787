package bootstrap

import (
	tea "github.com/charmbracelet/bubbletea"
	hclog "github.com/hashicorp/go-hclog"

	sinkinadapter "statusrelay/internal/modules/sink/adapter/in"
	sinkoutadapter "statusrelay/internal/modules/sink/adapter/out"
	sinkservice "statusrelay/internal/modules/sink/service"
	sinkusecase "statusrelay/internal/modules/sink/usecase"
	statusinadapter "statusrelay/internal/modules/status/adapter/in"
	statusoutadapter "statusrelay/internal/modules/status/adapter/out"
	statusport "statusrelay/internal/modules/status/port/out"
	statusservice "statusrelay/internal/modules/status/service"
	statususecase "statusrelay/internal/modules/status/usecase"
	"statusrelay/internal/platform/clock"
	"statusrelay/internal/platform/config"
	"statusrelay/internal/platform/logging"
	"statusrelay/internal/ui/watch"
)

type App struct {
	Hook      statusinadapter.HookHandler
	StatusCLI statusinadapter.CLIHandler
	SinkCLI   sinkinadapter.CLIHandler
	Logger    hclog.Logger
}

func New(cfg config.Config) (*App, error) {
	logger := logging.New("statusrelay", cfg.LogLevel, cfg.LogPath())
	clk := clock.SystemClock{}

	store := statusoutadapter.NewFileStateStore(cfg.StatePath(), clk)
	counters := statusoutadapter.NewDirCounterStore(cfg.StatePath())

	var messenger statusport.Messenger
	if cfg.WebhookURL != "" {
		messenger = statusoutadapter.NewWebhookMessenger(cfg.WebhookURL, logger.Named("webhook"))
	} else {
		messenger = statusoutadapter.NewNoopMessenger(logger.Named("webhook"))
	}

	transitions, err := statusoutadapter.NewSQLiteTransitionLog(cfg.DBPath())
	if err != nil {
		return nil, err
	}
	heartbeats := statusoutadapter.NewProcessHeartbeatRunner(cfg.Home, store, logger.Named("heartbeat"))

	sinkUC := sinkusecase.NewInteractor(sinkservice.NewSinkService(
		sinkoutadapter.NewDirManifestStore(cfg.SinkDir),
		sinkoutadapter.NewGRPCHost(),
		logger.Named("sink"),
	))

	statusSvc := statusservice.NewStatusService(
		clk, cfg, store, counters, messenger, transitions, heartbeats, logger.Named("status"),
	)
	statusUC := statususecase.NewInteractor(
		statusSvc, sinkUC, store, transitions, clk, cfg.StaleAfter.Std(), logger.Named("status"),
	)

	return &App{
		Hook:      statusinadapter.NewHookHandler(statusUC, logger.Named("hook")),
		StatusCLI: statusinadapter.NewCLIHandler(statusUC),
		SinkCLI:   sinkinadapter.NewCLIHandler(sinkUC),
		Logger:    logger,
	}, nil
}

func RunWatch(app *App) error {
	model := watch.NewModel(app.StatusCLI)
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err := program.Run()
	return err
}
