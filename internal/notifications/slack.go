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

	"github.com/Gwonyeong/doll-backend/internal/domain/reports"
)

// Notifier posts plain text messages to an operator channel.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// SlackNotifier posts to a Slack incoming webhook. An empty webhook URL
// turns every call into a no-op.
type SlackNotifier struct {
	webhookURL string
	httpClient *http.Client
}

func NewSlackNotifier(webhookURL string) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: strings.TrimSpace(webhookURL),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *SlackNotifier) Enabled() bool {
	return s != nil && s.webhookURL != ""
}

func (s *SlackNotifier) Notify(ctx context.Context, text string) error {
	if !s.Enabled() {
		return nil
	}

	body, _ := json.Marshal(map[string]string{"text": text})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("slack webhook request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("slack webhook failed: http=%d body=%s", resp.StatusCode, string(raw))
	}
	return nil
}

func NewReviewMessage(storeName string, rating int, author string) string {
	return fmt.Sprintf(":star: New review for *%s* by %s (%d/5)", storeName, author, rating)
}

func NewStoreMessage(storeName, address string) string {
	return fmt.Sprintf(":round_pushpin: Store added: *%s* (%s)", storeName, address)
}

func PaymentMessage(orderID string, amount int64, storeName string) string {
	return fmt.Sprintf(":moneybag: Ad payment confirmed: %s, %s won for *%s*", orderID, formatWon(amount), storeName)
}

func DailyReportMessage(s reports.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, ":bar_chart: Daily report %s\n", s.From.Format("2006-01-02"))
	fmt.Fprintf(&b, "New users: %d\n", s.NewUsers)
	fmt.Fprintf(&b, "New stores: %d (total %d)\n", s.NewStores, s.TotalStores)
	fmt.Fprintf(&b, "New reviews: %d (total %d, avg %.2f)\n", s.NewReviews, s.TotalReviews, s.AverageRating)
	fmt.Fprintf(&b, "Review unlocks: %d\n", s.NewUnlocks)
	fmt.Fprintf(&b, "Paid ads: %d (%s won)", s.PaidPayments, formatWon(s.Revenue))
	return b.String()
}

// formatWon renders 1234567 as "1,234,567".
func formatWon(amount int64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	digits := fmt.Sprintf("%d", amount)
	var b strings.Builder
	for i, c := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
