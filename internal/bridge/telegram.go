// Package bridge mirrors ring events to Telegram and routes the inline
// Stop/Snooze buttons back into the schedule.
package bridge

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/ringdown/chimed/internal/item"
)

// Actions is the slice of the coordinator the bridge drives.
type Actions interface {
	Stop(id string, expectKind item.Kind) (item.Item, error)
	Snooze(id string, minutes int, expectKind item.Kind) (item.Item, error)
}

// Telegram sends a message with Stop/Snooze buttons when an item rings and
// clears it when the ring ends.
type Telegram struct {
	api           *tgbotapi.BotAPI
	chatID        int64
	actions       Actions
	snoozeMinutes int
	log           *logrus.Logger

	// mu guards tags, the map from item id to the message announcing its
	// ring. Stopping edits the message instead of leaving a stale one.
	mu   sync.Mutex
	tags map[string]int
}

// NewTelegram creates the bridge. It fails if the token is rejected.
func NewTelegram(token string, chatID int64, actions Actions, snoozeMinutes int, log *logrus.Logger) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	log.WithField("bot", api.Self.UserName).Info("telegram bridge authorized")

	if snoozeMinutes <= 0 {
		snoozeMinutes = 9
	}
	return &Telegram{
		api:           api,
		chatID:        chatID,
		actions:       actions,
		snoozeMinutes: snoozeMinutes,
		log:           log,
		tags:          make(map[string]int),
	}, nil
}

// Run consumes button callbacks until ctx is done.
func (t *Telegram) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := t.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			t.api.StopReceivingUpdates()
			return
		case update := <-updates:
			if update.CallbackQuery != nil {
				go t.handleCallback(update.CallbackQuery)
			}
		}
	}
}

// ItemTriggered announces the ring with Stop and Snooze buttons.
func (t *Telegram) ItemTriggered(it item.Item) {
	text := fmt.Sprintf("🔔 %s is ringing (%s)", it.DisplayName, it.ScheduledTime.Format("15:04"))
	if it.Message != "" {
		text += "\n" + it.Message
	}

	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ReplyMarkup = ringKeyboard(it.ID, t.snoozeMinutes)

	sent, err := t.api.Send(msg)
	if err != nil {
		t.log.WithError(err).Warn("failed to send ring notification")
		return
	}

	t.mu.Lock()
	t.tags[it.ID] = sent.MessageID
	t.mu.Unlock()
}

// ItemStopped replaces the ring message with a quiet confirmation.
func (t *Telegram) ItemStopped(it item.Item) {
	t.mu.Lock()
	msgID, ok := t.tags[it.ID]
	delete(t.tags, it.ID)
	t.mu.Unlock()
	if !ok {
		return
	}

	edit := tgbotapi.NewEditMessageText(t.chatID, msgID, fmt.Sprintf("✅ %s stopped", it.DisplayName))
	if _, err := t.api.Send(edit); err != nil {
		t.log.WithError(err).Debug("failed to edit ring notification")
	}
}

func (t *Telegram) handleCallback(cb *tgbotapi.CallbackQuery) {
	// Always answer, even on failure, or the client shows a spinner.
	defer func() {
		if _, err := t.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
			t.log.WithError(err).Debug("failed to answer callback")
		}
	}()

	parts := strings.Split(cb.Data, ":")
	switch {
	case len(parts) == 2 && parts[0] == "stop":
		if _, err := t.actions.Stop(parts[1], ""); err != nil {
			t.log.WithError(err).WithField("id", parts[1]).Warn("stop from telegram failed")
		}

	case len(parts) == 3 && parts[0] == "snooze":
		minutes, err := strconv.Atoi(parts[2])
		if err != nil {
			t.log.WithField("data", cb.Data).Warn("malformed snooze callback")
			return
		}
		if _, err := t.actions.Snooze(parts[1], minutes, ""); err != nil {
			t.log.WithError(err).WithField("id", parts[1]).Warn("snooze from telegram failed")
		}

	default:
		// Buttons from messages sent before a restart, or junk.
		t.log.WithField("data", cb.Data).Debug("dropping unknown callback")
	}
}

func ringKeyboard(id string, snoozeMinutes int) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔕 Stop", "stop:"+id),
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("😴 +%d min", snoozeMinutes),
				fmt.Sprintf("snooze:%s:%d", id, snoozeMinutes),
			),
		),
	)
}
