package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// TelegramService handles sending notifications to Telegram.
type TelegramService struct {
	botToken    string
	adminChatID string
	apiBase     string
	httpClient  *http.Client
}

// NewTelegramService creates a new TelegramService.
func NewTelegramService(botToken, adminChatID string) *TelegramService {
	return &TelegramService{
		botToken:    botToken,
		adminChatID: adminChatID,
		apiBase:     "https://api.telegram.org",
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// SendMessage sends a message to specified chat.
func (s *TelegramService) SendMessage(ctx context.Context, chatID, text string) error {
	if s.botToken == "" {
		logrus.Debug("[Telegram] bot token not configured")
		return nil
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.apiBase, s.botToken)

	body, err := json.Marshal(telegramMessage{
		ChatID:    chatID,
		Text:      text,
		ParseMode: "HTML",
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}

	return nil
}

// SendToAdmin sends a message to the admin chat.
func (s *TelegramService) SendToAdmin(ctx context.Context, text string) error {
	if s.adminChatID == "" {
		return nil
	}
	return s.SendMessage(ctx, s.adminChatID, text)
}

// ReceiptNotification describes an order whose payment receipt just arrived.
type ReceiptNotification struct {
	OrderID       string
	ProductName   string
	PriceMRU      float64
	UserName      string
	UserPhone     string
	PaymentMethod string
	PaymentNumber string
}

// FormatPrice formats an amount with thousand separators and a currency suffix.
func FormatPrice(amount float64, currency string) string {
	if currency == "" {
		currency = "MRU"
	}
	str := fmt.Sprintf("%d", int64(amount))

	var result strings.Builder
	length := len(str)
	for i, digit := range str {
		if i > 0 && (length-i)%3 == 0 {
			result.WriteString(",")
		}
		result.WriteRune(digit)
	}

	return result.String() + " " + currency
}

// NotifyReceiptUploaded tells the admin chat that an order is waiting for review.
func (s *TelegramService) NotifyReceiptUploaded(ctx context.Context, n ReceiptNotification) error {
	if s.adminChatID == "" {
		return nil
	}

	message := fmt.Sprintf(`<b>🧾 إيصال دفع جديد</b>
<b>📋 الطلب:</b> %s
<b>📦 المنتج:</b> %s
<b>💰 المبلغ:</b> %s
<b>👤 العميل:</b> %s
<b>📞 الهاتف:</b> %s
<b>💳 الدفع:</b> %s (%s)
━━━━━━━━━━━━━━━━━━`,
		n.OrderID,
		html.EscapeString(n.ProductName),
		FormatPrice(n.PriceMRU, "MRU"),
		html.EscapeString(n.UserName),
		n.UserPhone,
		html.EscapeString(n.PaymentMethod),
		html.EscapeString(n.PaymentNumber),
	)

	return s.SendToAdmin(ctx, strings.TrimSpace(message))
}
