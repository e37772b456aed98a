package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/darmiel/callsign/internal/api"
	"github.com/darmiel/callsign/internal/tasks"
)

const shutdownTimeout = 10 * time.Second

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Callsign server",
	Long: `Starts the HTTP server answering credential requests on /v1/usersig.

The signing key is read from the environment on every request. A server
without a key still starts but answers credential requests with an error
until the key is provided.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("listen")

		cfg, err := f.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		components, err := f.BuildComponents(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := components.Auditor.Close(); err != nil {
				log.Warn().Err(err).Msg("Failed to close auditor")
			}
		}()

		if key, err := cfg.Signing.SigningKey(ctx); err != nil {
			log.Warn().Err(err).Msg("Signing key is not configured, credential requests will fail")
		} else {
			log.Info().Int64("sdk_app_id", key.AppID).Msg("Signing key loaded")
		}

		adminKey := cfg.Admin.Key()
		if len(adminKey) == 0 {
			log.Info().Msg("No admin signing key configured, admin API is disabled")
		}

		taskManager := tasks.NewManager()
		if err := taskManager.Register(
			tasks.PruneCredentialsTask,
			cfg.Tasks.PruneIntervalOrDefault(),
			tasks.PruneCredentials(components.Store),
		); err != nil {
			return fmt.Errorf("registering tasks: %w", err)
		}
		taskManager.Start(ctx)

		srv := api.NewServer(components.Credentials, taskManager, components.Auditor, components.Store, cfg.CORS)
		server := &http.Server{
			Addr:              addr,
			Handler:           srv.Routes(adminKey),
			ReadHeaderTimeout: 10 * time.Second,
		}

		serveErr := make(chan error, 1)
		go func() {
			log.Info().Msgf("Starting server on %s...", addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serveErr <- err
			}
			close(serveErr)
		}()

		select {
		case err := <-serveErr:
			stop()
			taskManager.Wait()
			if err != nil {
				return fmt.Errorf("server crashed: %w", err)
			}
			return nil
		case <-ctx.Done():
		}
		log.Info().Msg("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		taskManager.Wait()

		log.Info().Msg("Server exited")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("listen", ":8080", "address to listen on")
}
