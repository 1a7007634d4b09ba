package commands

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"deediq/internal/account"
	"deediq/internal/auth"
	"deediq/internal/chat"
	"deediq/internal/config"
	"deediq/internal/database"
	"deediq/internal/forum"
	"deediq/internal/httpapi"
)

const shutdownTimeout = 8 * time.Second

func ServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if cfg.JWTSecret == "" {
				return fmt.Errorf("JWT_SECRET must be set")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			db, err := getDB(ctx, cfg)
			if err != nil {
				return err
			}
			defer database.Close(db)
			if err := database.Migrate(ctx, db); err != nil {
				return fmt.Errorf("failed to migrate: %v", err)
			}

			markets, closeCache, err := getMarkets(ctx, db, cfg)
			if err != nil {
				return err
			}
			defer closeCache()

			events, err := getEvents(cfg)
			if err != nil {
				return err
			}
			var publisher forum.Publisher
			if events != nil {
				defer events.Close()
				publisher = events
			}

			if cfg.GeminiAPIKey == "" {
				log.Println("GEMINI_API_KEY not set, chat requests will be rejected")
			}

			api := httpapi.New(httpapi.Deps{
				Markets:   markets,
				Forum:     forum.NewService(db, publisher),
				Accounts:  account.NewService(db),
				Assistant: chat.New(cfg.GeminiAPIKey, cfg.GeminiModel),
				Tokens:    auth.NewIssuer(cfg.JWTSecret),
			})

			srv := &http.Server{
				Addr:         ":" + cfg.HTTPPort,
				Handler:      api.Handler(),
				ReadTimeout:  15 * time.Second,
				WriteTimeout: 60 * time.Second,
				IdleTimeout:  120 * time.Second,
			}

			serveErr := make(chan error, 1)
			go func() {
				log.Printf("HTTP server starting on port %s", cfg.HTTPPort)
				if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					serveErr <- err
				}
				close(serveErr)
			}()

			select {
			case err := <-serveErr:
				return fmt.Errorf("failed to serve: %v", err)
			case <-ctx.Done():
			}

			log.Println("Shutting down HTTP server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}
