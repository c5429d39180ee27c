package alert

import (
	"context"
	"fmt"
	"strings"
	"time"

	"MomentumPulse/internal/domain/models"
	drepo "MomentumPulse/internal/domain/repository"
	phttp "MomentumPulse/pkg/http"
	"MomentumPulse/pkg/logger"
)

// TelegramNotifier delivers signal alerts through the Telegram Bot API.
type TelegramNotifier struct {
	botToken string
	chatID   string
	client   *phttp.Client
}

func NewTelegramNotifier(botToken, chatID string) drepo.Notifier {
	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		client:   phttp.NewClient(phttp.WithTimeout(10 * time.Second)),
	}
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func (n *TelegramNotifier) Notify(ctx context.Context, sig *models.FinalSignal) error {
	var resp sendMessageResponse
	err := n.client.SendAndParse(ctx, &phttp.RequestOptions{
		Method: phttp.MethodPost,
		URL:    fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", n.botToken),
		Body: sendMessageRequest{
			ChatID:    n.chatID,
			Text:      formatAlert(sig),
			ParseMode: "MarkdownV2",
		},
	}, &resp)
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	if !resp.OK {
		return fmt.Errorf("telegram send: %s", resp.Description)
	}
	return nil
}

// formatAlert renders one signal as a MarkdownV2 message.
func formatAlert(sig *models.FinalSignal) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s Momentum Signal*\n", escapeMarkdown(string(sig.Tier)))
	fmt.Fprintf(&b, "Symbol: *%s*\n", escapeMarkdown(sig.Symbol))
	fmt.Fprintf(&b, "Score: %s/100\n", escapeMarkdown(fmt.Sprintf("%.1f", sig.Score)))
	fmt.Fprintf(&b, "Action: %s\n", escapeMarkdown(string(sig.Recommendation)))
	fmt.Fprintf(&b, "Probability: %s%%\n", escapeMarkdown(fmt.Sprintf("%.0f", sig.TargetProbability*100)))
	fmt.Fprintf(&b, "Price: %s\n", escapeMarkdown(fmt.Sprintf("%g", sig.Price)))
	fmt.Fprintf(&b, "Valid until: %s", escapeMarkdown(sig.ValidUntil.UTC().Format("15:04 MST")))
	return b.String()
}

// escapeMarkdown escapes the characters MarkdownV2 reserves.
func escapeMarkdown(s string) string {
	r := strings.NewReplacer(
		"_", "\\_", "*", "\\*", "[", "\\[", "]", "\\]", "(", "\\(",
		")", "\\)", "~", "\\~", "`", "\\`", ">", "\\>", "#", "\\#",
		"+", "\\+", "-", "\\-", "=", "\\=", "|", "\\|", "{", "\\{",
		"}", "\\}", ".", "\\.", "!", "\\!",
	)
	return r.Replace(s)
}

// LogNotifier is the fallback transport when no chat delivery is
// configured.
type LogNotifier struct {
	log *logger.Logger
}

func NewLogNotifier(log *logger.Logger) drepo.Notifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(_ context.Context, sig *models.FinalSignal) error {
	n.log.Info("signal alert",
		logger.String("symbol", sig.Symbol),
		logger.Float64("score", sig.Score),
		logger.String("tier", string(sig.Tier)),
		logger.String("recommendation", string(sig.Recommendation)))
	return nil
}
