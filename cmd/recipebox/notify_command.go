package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"recipebox/internal/notifications"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.app(cmd.Context())
			if err != nil {
				return err
			}
			if err := rt.notices.Publish(cmd.Context(), notifications.EventTest, nil); err != nil {
				return fmt.Errorf("test notification failed: %w", err)
			}
			if rt.cfg.Notifications.NtfyTopic == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "Notification recorded; no ntfy topic configured")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Test notification sent")
			return nil
		},
	}
}
