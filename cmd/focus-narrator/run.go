package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/focus-narrator/internal/config"
	"github.com/ironsheep/focus-narrator/internal/engine"
	"github.com/ironsheep/focus-narrator/internal/logging"
	"github.com/ironsheep/focus-narrator/internal/server"
)

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the polling loop and read commands from stdin",
		Long: `Run starts the narrator. Commands such as {"jsonrpc":"2.0","id":1,
"method":"command","params":{"name":"tab_pressed"}} are read from stdin, one
per line. The narrator stops when stdin closes or on SIGINT/SIGTERM.

Settings are read from --config (default $XDG_CONFIG_HOME/focus-narrator/config.yaml)
and FOCUS_NARRATOR_* environment variables, optionally seeded from --env-file.`,
		Args: cobra.NoArgs,
		RunE: runRunCmd,
	}
	cmd.Flags().StringP("config", "c", "", "Configuration file")
	cmd.Flags().String("env-file", ".env", "File with FOCUS_NARRATOR_* variables")
	cmd.Flags().String("screen", "", "Screenshot file used as the screen")
	cmd.Flags().String("tree", "", "Accessibility tree snapshot (JSON)")
	return cmd
}

// loadConfig resolves the configuration from flags, files and environment.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	if err := config.LoadEnvFiles(envFile); err != nil {
		return nil, err
	}
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if screen, _ := cmd.Flags().GetString("screen"); screen != "" {
		cfg.General.ScreenFile = screen
	}
	if tree, _ := cmd.Flags().GetString("tree"); tree != "" {
		cfg.General.TreeFile = tree
	}
	return cfg, nil
}

func runRunCmd(cmd *cobra.Command, _ []string) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	logger, err := logging.NewLogger("focus-narrator", verbose)
	if err != nil {
		return errors.Wrap(err, "failed to create logger")
	}
	defer logger.Sync() //nolint:errcheck

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	eng, err := engine.New(cfg, engine.Deps{}, logger)
	if err != nil {
		return err
	}
	defer eng.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	logger.Infow("focus-narrator started", "version", Version, "commit", GitCommit, "built", BuildTime)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return eng.Run(gctx)
	})

	// stdin reads cannot be interrupted; the reader goroutine only ends the
	// session when the client closes its end.
	srv := server.New(eng, Version, logger.Named("server"))
	go func() {
		if err := srv.Run(gctx, cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
			logger.Warnw("command server stopped", "error", err)
		}
		cancel()
	}()

	if err := g.Wait(); err != nil {
		return err
	}
	return eng.Close()
}
