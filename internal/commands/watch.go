package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"deediq/internal/config"
	grpcService "deediq/internal/grpc"
	"deediq/internal/messaging"
)

// WatchCmd tails forum events from a running gRPC service.
func WatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream forum events from the gRPC service",
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			subject, _ := cmd.Flags().GetString("subject")
			if addr == "" {
				addr = "localhost:" + config.Load().GRPCPort
			}

			client, err := grpcService.Dial(addr)
			if err != nil {
				return err
			}
			defer client.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			err = client.StreamEvents(ctx, subject, func(ev *grpcService.Event) error {
				_, err := fmt.Fprintf(out, "%s %s\n", ev.Subject, ev.Data)
				return err
			})
			if ctx.Err() != nil {
				return nil
			}
			return err
		},
	}

	cmd.Flags().String("addr", "", "gRPC address (default localhost:$GRPC_PORT)")
	cmd.Flags().String("subject", messaging.SubjectForumAll, "Subject filter under forum.")
	return cmd
}
