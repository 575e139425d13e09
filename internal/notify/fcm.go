package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"peelojuice/internal/config"
)

// FCMClient pushes notifications through Firebase Cloud Messaging's legacy
// HTTP endpoint.
type FCMClient struct {
	cfg        config.FCMConfig
	httpClient *http.Client
}

func NewFCMClient(cfg config.FCMConfig) *FCMClient {
	return &FCMClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type fcmMessage struct {
	To           string          `json:"to"`
	Notification fcmNotification `json:"notification"`
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// SendPush delivers one notification to one device token.
func (f *FCMClient) SendPush(ctx context.Context, token, title, body string) error {
	payload, err := json.Marshal(fcmMessage{
		To:           token,
		Notification: fcmNotification{Title: title, Body: body},
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+f.cfg.ServerKey)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("fcm send returned status %d", resp.StatusCode)
	}
	return nil
}
