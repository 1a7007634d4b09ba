package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"deediq/internal/config"
	"deediq/internal/database"
	"deediq/internal/forum"
)

// LockThreadCmd toggles moderation flags on a thread. The forum API never
// exposes them to members.
func LockThreadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lock-thread <thread-id>",
		Short: "Lock, unlock, pin or unpin a forum thread",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			unlock, _ := cmd.Flags().GetBool("unlock")
			threadID := args[0]

			ctx := cmd.Context()
			db, err := getDB(ctx, config.Load())
			if err != nil {
				return err
			}
			defer database.Close(db)

			svc := forum.NewService(db, nil)
			if err := svc.SetLocked(ctx, threadID, !unlock); err != nil {
				return err
			}
			if unlock {
				fmt.Printf("Thread %s unlocked.\n", threadID)
			} else {
				fmt.Printf("Thread %s locked.\n", threadID)
			}

			if cmd.Flags().Changed("pin") {
				pin, _ := cmd.Flags().GetBool("pin")
				if err := svc.SetPinned(ctx, threadID, pin); err != nil {
					return err
				}
				fmt.Printf("Thread %s pinned=%t.\n", threadID, pin)
			}
			return nil
		},
	}

	cmd.Flags().Bool("unlock", false, "Unlock the thread instead of locking it")
	cmd.Flags().Bool("pin", false, "Also set the pinned flag (--pin=false unpins)")
	return cmd
}
