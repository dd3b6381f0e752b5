package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/merchtrack/internal/shared"
)

// TelegramNotifier posts to one chat through the Bot API.
type TelegramNotifier struct {
	api    *APIService
	chatID string
	logger *log.Logger
}

var _ Notifier = (*TelegramNotifier)(nil)

// NewTelegramNotifier requires a bot token and a chat id. client may be nil.
func NewTelegramNotifier(cfg shared.TelegramConfig, client *http.Client, logger *log.Logger) (*TelegramNotifier, error) {
	if cfg.BotToken == "" || cfg.ChatID == "" {
		return nil, fmt.Errorf("%w: telegram bot_token and chat_id are required", shared.ErrMissingCredentials)
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = "https://api.telegram.org"
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &TelegramNotifier{
		api:    NewAPIService(base+"/bot"+cfg.BotToken, NewHTTPClient(client, 3, logger)),
		chatID: cfg.ChatID,
		logger: logger,
	}, nil
}

func (t *TelegramNotifier) Name() string { return "Telegram" }

// check unwraps the Bot API envelope: {"ok": true, "result": ...} or {"ok": false, "description": ...}.
func (t *TelegramNotifier) check(method string, resp *APIResponse) error {
	body := resp.JSON()
	if resp.OK() && body.Get("ok").Bool() {
		return nil
	}
	desc := body.Get("description").String()
	if desc == "" {
		desc = http.StatusText(resp.StatusCode)
	}
	return fmt.Errorf("%w: telegram %s: %d %s", shared.ErrAPIRequest, method, resp.StatusCode, desc)
}

func (t *TelegramNotifier) post(ctx context.Context, method string, payload map[string]any) (*APIResponse, error) {
	payload["chat_id"] = t.chatID
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s request: %w", method, err)
	}
	resp, err := t.api.Post(ctx, "/"+method, data)
	if err != nil {
		return nil, fmt.Errorf("%w: telegram %s: %v", shared.ErrAPIRequest, method, err)
	}
	if err := t.check(method, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// SendMessage posts HTML text and returns the message id.
func (t *TelegramNotifier) SendMessage(ctx context.Context, html string) (int64, error) {
	resp, err := t.post(ctx, "sendMessage", map[string]any{
		"text":                     html,
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
	})
	if err != nil {
		return 0, err
	}
	id := resp.JSON().Get("result.message_id").Int()
	t.logger.Debug("telegram message sent", "message_id", id)
	return id, nil
}

// PinMessage pins without notifying members.
func (t *TelegramNotifier) PinMessage(ctx context.Context, messageID int64) error {
	_, err := t.post(ctx, "pinChatMessage", map[string]any{
		"message_id":           messageID,
		"disable_notification": true,
	})
	return err
}

// SendDocument uploads content as a file.
func (t *TelegramNotifier) SendDocument(ctx context.Context, filename string, content []byte, caption string) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fields := map[string]string{"chat_id": t.chatID}
	if caption != "" {
		fields["caption"] = caption
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return fmt.Errorf("failed to write %s field: %w", k, err)
		}
	}

	part, err := mw.CreateFormFile("document", filename)
	if err != nil {
		return fmt.Errorf("failed to create document part: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("failed to close multipart body: %w", err)
	}

	resp, err := t.api.Do(ctx, http.MethodPost, "/sendDocument", mw.FormDataContentType(), &buf)
	if err != nil {
		return fmt.Errorf("%w: telegram sendDocument: %v", shared.ErrAPIRequest, err)
	}
	return t.check("sendDocument", resp)
}
