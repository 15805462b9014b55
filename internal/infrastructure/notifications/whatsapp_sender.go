package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/gymscheduler/internal/domain/providers"
	"github.com/zatekoja/gymscheduler/pkg/config"
	apperrors "github.com/zatekoja/gymscheduler/pkg/errors"
)

// WhatsAppCloudSender sends messages via WhatsApp Cloud API
type WhatsAppCloudSender struct {
	accessToken   string
	phoneNumberID string
	testTarget    string
	httpClient    *http.Client
	baseURL       string
}

// NewWhatsAppCloudSender creates a new WhatsApp sender
func NewWhatsAppCloudSender(cfg config.WhatsAppConfig) (*WhatsAppCloudSender, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("WHATSAPP_ACCESS_TOKEN and WHATSAPP_PHONE_NUMBER_ID must be set")
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://graph.facebook.com/v18.0"
	}

	return &WhatsAppCloudSender{
		accessToken:   cfg.AccessToken,
		phoneNumberID: cfg.PhoneNumberID,
		testTarget:    cfg.TestTarget,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: baseURL,
	}, nil
}

// NewMessenger returns the Cloud API sender when credentials are configured and a logging mock otherwise.
func NewMessenger(cfg config.WhatsAppConfig) providers.Messenger {
	sender, err := NewWhatsAppCloudSender(cfg)
	if err != nil {
		log.Info().Msg("WhatsApp credentials not set, confirmations are logged only")
		return &MockSender{testTarget: cfg.TestTarget}
	}
	return sender
}

// WhatsAppTextMessage represents a text message
type WhatsAppTextMessage struct {
	MessagingProduct string `json:"messaging_product"`
	RecipientType    string `json:"recipient_type"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Text             struct {
		PreviewURL bool   `json:"preview_url"`
		Body       string `json:"body"`
	} `json:"text"`
}

// WhatsAppResponse represents the API response
type WhatsAppResponse struct {
	MessagingProduct string `json:"messaging_product"`
	Contacts         []struct {
		Input string `json:"input"`
		WaID  string `json:"wa_id"`
	} `json:"contacts"`
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

// SendText sends a text message. A configured test target receives every message instead of to.
func (w *WhatsAppCloudSender) SendText(ctx context.Context, to, body string) (string, error) {
	message := WhatsAppTextMessage{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               recipient(to, w.testTarget),
		Type:             "text",
	}
	message.Text.Body = body

	return w.sendMessage(ctx, message)
}

// sendMessage sends a message to WhatsApp Cloud API
func (w *WhatsAppCloudSender) sendMessage(ctx context.Context, message interface{}) (string, error) {
	url := fmt.Sprintf("%s/%s/messages", w.baseURL, w.phoneNumberID)

	jsonData, err := json.Marshal(message)
	if err != nil {
		return "", fmt.Errorf("failed to marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+w.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return "", apperrors.NewExternalError("failed to send WhatsApp request", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", apperrors.NewExternalError(
			fmt.Sprintf("WhatsApp API error (status %d)", resp.StatusCode),
			fmt.Errorf("%s", string(body)),
		)
	}

	var whatsappResp WhatsAppResponse
	if err := json.Unmarshal(body, &whatsappResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if len(whatsappResp.Messages) > 0 {
		return whatsappResp.Messages[0].ID, nil
	}

	return "", fmt.Errorf("no message ID in response")
}

// MockSender logs messages instead of sending them
type MockSender struct {
	testTarget string
}

// SendText logs the message and returns an empty message ID
func (m *MockSender) SendText(ctx context.Context, to, body string) (string, error) {
	log.Info().
		Str("to", recipient(to, m.testTarget)).
		Str("body", body).
		Msg("[MOCK WHATSAPP] message not sent")
	return "", nil
}

func recipient(to, testTarget string) string {
	if testTarget != "" {
		return testTarget
	}
	return to
}

var (
	_ providers.Messenger = (*WhatsAppCloudSender)(nil)
	_ providers.Messenger = (*MockSender)(nil)
)
