// package services defines clients for the HTTP APIs the tracker talks to
//
// Google Sheets (tracking store) and Telegram (daily summary)
package services

import (
	"context"
)

// Notifier delivers the daily summary to the team chat.
type Notifier interface {
	// SendMessage posts an HTML-formatted message and returns its id for a later pin.
	SendMessage(ctx context.Context, html string) (int64, error)

	// PinMessage pins a previously sent message.
	PinMessage(ctx context.Context, messageID int64) error

	// SendDocument uploads a file with an optional caption.
	SendDocument(ctx context.Context, filename string, content []byte, caption string) error

	// Name returns the name of the channel (e.g. "Telegram")
	Name() string
}

// NoopNotifier drops every message. Used when no chat is configured.
type NoopNotifier struct{}

func (NoopNotifier) SendMessage(context.Context, string) (int64, error)        { return 0, nil }
func (NoopNotifier) PinMessage(context.Context, int64) error                   { return nil }
func (NoopNotifier) SendDocument(context.Context, string, []byte, string) error { return nil }
func (NoopNotifier) Name() string                                              { return "none" }
