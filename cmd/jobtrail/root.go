package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"jobtrail/internal/config"
	"jobtrail/internal/ingest"
	"jobtrail/internal/logging"
	"jobtrail/internal/mailbox/gmail"
	"jobtrail/internal/tui"
)

// logToStderr marks commands that log to stderr instead of the log file.
const logToStderr = "log-stderr"

var (
	verbose bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "jobtrail",
	Short: "Track job-application emails from Gmail",
	Long: `jobtrail pulls recent Gmail messages, keeps the ones about job applications,
labels each with a stage (application, interview, offer, rejection, other)
and stores them locally.

Run without a subcommand to open the terminal UI.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		level := cfg.Log.Level
		if verbose {
			level = "debug"
		}
		file := cfg.Log.File
		if _, ok := cmd.Annotations[logToStderr]; ok {
			file = ""
		}
		logger, err = logging.New(level, file)
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		fetch := func(ctx context.Context, p gmail.Prompter) (ingest.Report, error) {
			runner, err := a.runner(ctx, p, nil)
			if err != nil {
				return ingest.Report{}, err
			}
			return runner.Run(ctx, cfg.Gmail.Lookback())
		}

		appModel := tui.NewAppModel(a.tracker, fetch, gmail.OpenBrowser, logger)
		p := tea.NewProgram(&appModel, tea.WithAltScreen(), tea.WithContext(ctx))
		finalModel, err := p.Run()
		if err != nil {
			return fmt.Errorf("run terminal UI: %w", err)
		}
		if m, ok := finalModel.(*tui.AppModel); ok && m.Err != nil {
			return m.Err
		}
		return nil
	},
}

// Execute runs the root command. Called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}
