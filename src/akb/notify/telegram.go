package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// DefaultTelegramAPI is the Telegram Bot API endpoint
const DefaultTelegramAPI = "https://api.telegram.org"

type telegram struct {
	api    string
	token  string
	chatID string
	client *http.Client
}

func (t *telegram) send(ctx context.Context, m Message) error {
	body, err := json.Marshal(map[string]interface{}{
		"chat_id":                  t.chatID,
		"text":                     m.Text(),
		"disable_web_page_preview": true,
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.api, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return do(t.client, req)
}
