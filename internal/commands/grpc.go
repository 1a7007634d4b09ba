package commands

import (
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"deediq/internal/auth"
	"deediq/internal/config"
	"deediq/internal/database"
	"deediq/internal/forum"
	grpcService "deediq/internal/grpc"
)

func GRPCCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "grpc",
		Short: "Run the forum gRPC service",
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

			events, err := getEvents(cfg)
			if err != nil {
				return err
			}
			var (
				publisher forum.Publisher
				source    grpcService.EventSource
			)
			if events != nil {
				defer events.Close()
				publisher, source = events, events
			}

			svc := grpcService.NewForumService(forum.NewService(db, publisher), auth.NewIssuer(cfg.JWTSecret), source)
			server := grpcService.NewServer(svc)

			lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
			if err != nil {
				return fmt.Errorf("failed to listen: %v", err)
			}

			go func() {
				<-ctx.Done()
				log.Println("Shutting down gRPC server")
				server.GracefulStop()
			}()

			log.Printf("gRPC server starting on port %s", cfg.GRPCPort)
			if err := server.Serve(lis); err != nil {
				return fmt.Errorf("failed to serve: %v", err)
			}
			return nil
		},
	}
}
