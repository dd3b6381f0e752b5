package main

import (
	"context"
	"fmt"
	"html"

	"github.com/urfave/cli/v3"
)

// NotifyTest sends one message to check the bot token and chat id.
func (r *Runner) NotifyTest(ctx context.Context, cmd *cli.Command) error {
	notifier, err := r.telegram()
	if err != nil {
		return err
	}

	id, err := notifier.SendMessage(ctx, html.EscapeString(cmd.String("message")))
	if err != nil {
		return fmt.Errorf("failed to send test message via %s: %w", notifier.Name(), err)
	}

	r.writePlain("✓ Message %d sent via %s\n", id, notifier.Name())
	return nil
}
