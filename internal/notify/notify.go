// Package notify delivers trade outcomes to the operator.
package notify

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"

	"github.com/vadiminshakov/krakendca/internal/domain"
)

// Notifier sends a trade outcome somewhere a human will read it.
type Notifier interface {
	NotifyTrade(ctx context.Context, event *domain.TradeEvent) error
	NotifyError(ctx context.Context, err error) error
}

var (
	_ Notifier = (*Telegram)(nil)
	_ Notifier = Nop{}
)

// Nop discards notifications.
type Nop struct{}

func (Nop) NotifyTrade(context.Context, *domain.TradeEvent) error { return nil }
func (Nop) NotifyError(context.Context, error) error             { return nil }

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram posts messages to a single chat through the Bot API.
type Telegram struct {
	api    sender
	chatID int64
}

// NewTelegram authorizes the bot token against the Bot API.
func NewTelegram(token string, chatID int64) (*Telegram, error) {
	if token == "" {
		return nil, errors.New("telegram token is empty")
	}
	if chatID == 0 {
		return nil, errors.New("telegram chat id is not set")
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create telegram bot")
	}

	return &Telegram{api: api, chatID: chatID}, nil
}

func (t *Telegram) NotifyTrade(ctx context.Context, event *domain.TradeEvent) error {
	if event == nil {
		return nil
	}
	return t.send(ctx, FormatTrade(event))
}

func (t *Telegram) NotifyError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	return t.send(ctx, "DCA trade failed: "+err.Error())
}

func (t *Telegram) send(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := t.api.Send(msg); err != nil {
		return errors.Wrap(err, "failed to send telegram message")
	}
	return nil
}

// FormatTrade renders a trade event as a short plain-text message.
func FormatTrade(event *domain.TradeEvent) string {
	var b strings.Builder

	status := "unknown"
	if event.Result != nil {
		status = string(event.Result.Status)
	}
	fmt.Fprintf(&b, "DCA %s %s: %s\n", event.Side.String(), event.Pair.String(), status)
	fmt.Fprintf(&b, "volume: %s\nprice: %s\n", event.Volume.String(), event.Price.String())
	fmt.Fprintf(&b, "nonce: %d\n", event.Nonce)

	if event.Result != nil {
		if event.Result.Description != "" {
			fmt.Fprintf(&b, "order: %s\n", event.Result.Description)
		}
		if len(event.Result.TxIDs) > 0 {
			fmt.Fprintf(&b, "txid: %s\n", strings.Join(event.Result.TxIDs, ", "))
		}
		if len(event.Result.Errors) > 0 {
			fmt.Fprintf(&b, "errors: %s\n", strings.Join(event.Result.Errors, "; "))
		}
	}

	return strings.TrimRight(b.String(), "\n")
}
