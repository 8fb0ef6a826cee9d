package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"rentdesk/server/internal/models"
)

const telegramAPIURL = "https://api.telegram.org"

// TelegramNotifier posts new leads to a Telegram chat
type TelegramNotifier struct {
	logger       *logrus.Logger
	client       *http.Client
	apiURL       string
	botToken     string
	chatID       string
	adminBaseURL string
}

func NewTelegramNotifier(botToken, chatID, adminBaseURL string, logger *logrus.Logger) *TelegramNotifier {
	return &TelegramNotifier{
		logger: logger,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		apiURL:       telegramAPIURL,
		botToken:     botToken,
		chatID:       chatID,
		adminBaseURL: adminBaseURL,
	}
}

// SendMessage sends an HTML message to the configured chat
func (s *TelegramNotifier) SendMessage(ctx context.Context, message string) error {
	if s.botToken == "" {
		return errors.New("Telegram bot token is not configured")
	}
	if s.chatID == "" {
		return errors.New("Telegram chat ID is not configured")
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.apiURL, s.botToken)
	payload := map[string]interface{}{
		"chat_id":    s.chatID,
		"text":       message,
		"parse_mode": "HTML",
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal message payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send message to Telegram API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		switch resp.StatusCode {
		case http.StatusUnauthorized:
			return errors.New("invalid bot token - please check your token from @BotFather")
		case http.StatusBadRequest:
			return fmt.Errorf("invalid chat ID or message format: %s", string(body))
		case http.StatusForbidden:
			return errors.New("bot was blocked by the user or chat")
		case http.StatusNotFound:
			return errors.New("bot not found - please check your token from @BotFather")
		default:
			return fmt.Errorf("Telegram API error (status %d): %s", resp.StatusCode, string(body))
		}
	}

	return nil
}

func (s *TelegramNotifier) NotifyLead(ctx context.Context, lead models.Lead) error {
	return s.SendMessage(ctx, TelegramLeadMessage(lead, s.adminBaseURL))
}

// TelegramLeadMessage renders a lead as a Telegram HTML message
func TelegramLeadMessage(lead models.Lead, adminBaseURL string) string {
	title := "<b>New lead!</b>"
	if lead.Source == models.SourceCalculator {
		title = "<b>🏠 New rental calculator lead!</b>"
	}

	var sb strings.Builder
	sb.WriteString(title)
	sb.WriteString("\n\n")
	for _, f := range leadFields(lead) {
		fmt.Fprintf(&sb, "%s: %s\n", f[0], html.EscapeString(f[1]))
	}
	fmt.Fprintf(&sb, "\n🔗 <a href=\"%s\">Open in CRM</a>", LeadURL(adminBaseURL, lead))
	return sb.String()
}
