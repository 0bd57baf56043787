package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"statusrelay/internal/bootstrap"
	"statusrelay/internal/platform/config"
	"statusrelay/internal/ui/theme"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var home string

	root := &cobra.Command{
		Use:           "statusrelay",
		Short:         "Mirror a coding-agent session into one chat status message",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&home, "home", "", "state directory (default ~/.statusrelay)")

	root.AddCommand(newHookCmd(&home))
	root.AddCommand(newHeartbeatCmd(&home))
	root.AddCommand(newStatusCmd(&home))
	root.AddCommand(newWatchCmd(&home))
	root.AddCommand(newHistoryCmd(&home))
	root.AddCommand(newClearCmd(&home))
	root.AddCommand(newSinkCmd(&home))
	return root
}

func loadApp(home string) (*bootstrap.App, error) {
	cfg, err := config.Load(home)
	if err != nil {
		return nil, err
	}
	return bootstrap.New(cfg)
}

func newHookCmd(home *string) *cobra.Command {
	return &cobra.Command{
		Use:   "hook",
		Short: "Handle one hook event from stdin",
		Long: "Reads a single JSON hook payload from stdin and updates the " +
			"session status. Always exits zero: a failing notification must " +
			"never block the action that triggered it.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*home)
			if err != nil {
				_, _ = fmt.Fprintln(os.Stderr, err)
				return nil
			}
			if err := app.Hook.Handle(cmd.Context(), os.Stdin); err != nil {
				app.Logger.Warn("hook event failed", "error", err)
			}
			return nil
		},
	}
}

func newHeartbeatCmd(home *string) *cobra.Command {
	var project string

	cmd := &cobra.Command{
		Use:    "heartbeat",
		Short:  "Run the background status refresher for one project",
		Hidden: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*home)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return app.StatusCLI.RunHeartbeat(ctx, project)
		},
	}
	cmd.Flags().StringVar(&project, "project", "", "project name")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func newStatusCmd(home *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "List tracked projects and their states",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*home)
			if err != nil {
				return err
			}
			statuses, err := app.StatusCLI.ListProjects(cmd.Context())
			if err != nil {
				return err
			}
			if len(statuses) == 0 {
				fmt.Println(theme.Muted.Render("no tracked projects"))
				return nil
			}
			for _, s := range statuses {
				line := theme.StateStyle(s.State).Render(fmt.Sprintf("%-11s", s.State)) +
					" " + s.Project
				if s.Stale {
					line += " " + theme.Stale.Render("stale")
				}
				fmt.Println(line)
			}
			return nil
		},
	}
}

func newWatchCmd(home *string) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Live dashboard of tracked projects",
		RunE: func(_ *cobra.Command, _ []string) error {
			app, err := loadApp(*home)
			if err != nil {
				return err
			}
			return bootstrap.RunWatch(app)
		},
	}
}

func newHistoryCmd(home *string) *cobra.Command {
	var project string
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent state transitions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*home)
			if err != nil {
				return err
			}
			records, err := app.StatusCLI.History(cmd.Context(), project, limit)
			if err != nil {
				return err
			}
			for _, r := range records {
				fmt.Printf("%s  %-20s %s -> %s  (%s)\n",
					r.At.Local().Format("2006-01-02 15:04:05"), r.Project, r.From, r.To, r.Event)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&project, "project", "", "filter by project")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum rows")
	return cmd
}

func newClearCmd(home *string) *cobra.Command {
	var project string
	var keepHandle bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Drop a project's tracked state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*home)
			if err != nil {
				return err
			}
			return app.StatusCLI.Clear(cmd.Context(), project, keepHandle)
		},
	}
	cmd.Flags().StringVar(&project, "project", "", "project name")
	cmd.Flags().BoolVar(&keepHandle, "keep-handle", false, "retain the message handle")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func newSinkCmd(home *string) *cobra.Command {
	sink := &cobra.Command{Use: "sink", Short: "Manage notification sinks"}

	sink.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List configured sinks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*home)
			if err != nil {
				return err
			}
			sinks, err := app.SinkCLI.List(cmd.Context())
			if err != nil {
				return err
			}
			for _, s := range sinks {
				fmt.Printf("%-16s %s\n", s.Name, s.Binary)
			}
			return nil
		},
	})

	sink.AddCommand(&cobra.Command{
		Use:   "check <name>",
		Short: "Probe a sink binary for liveness and metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(*home)
			if err != nil {
				return err
			}
			info, err := app.SinkCLI.Check(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s %s ok\n", info.Name, info.Version)
			return nil
		},
	})
	return sink
}
