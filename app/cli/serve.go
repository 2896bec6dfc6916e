package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"example/chessgpt-api/app"
	"example/chessgpt-api/app/config"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// chessgpt serve
func Serve() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		Long: heredoc.Doc(`serve starts the engine, completes the UCI handshake and
			listens for analysis requests until interrupted.

			The engine binary, listen address and search budget come
			from the config file and the environment (PORT, HOST,
			ENGINE_PATH, ENGINE_MOVE_TIME, ...). A .env file in the
			working directory is loaded automatically.`),
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd)
		},
	}
}

// loadConfig reads the config named by --config and applies its log settings.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	if err := app.ConfigureLogging(cfg.Logs); err != nil {
		return nil, err
	}
	if cmd.Flag("trace").Changed {
		logrus.SetLevel(logrus.TraceLevel)
	}
	return cfg, nil
}

func serve(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	engine, err := app.NewUCIEngine(cfg.Engine)
	if err != nil {
		return err
	}
	defer func() {
		if err := engine.Close(); err != nil {
			logrus.WithError(err).Warn("engine did not exit cleanly")
		}
	}()

	if !logrus.IsLevelEnabled(logrus.DebugLevel) {
		gin.SetMode(gin.ReleaseMode)
	}
	analyzer := app.NewAnalyzerFromConfig(engine, cfg.Engine)
	router := app.NewRouter(analyzer, cfg, engine.Name())

	srv := &http.Server{
		Addr:    cfg.Server.Addr(),
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logrus.WithField("addr", srv.Addr).Info("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logrus.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}
}
