package telegram

import (
	"fmt"
	"strconv"

	"gopkg.in/telebot.v3"
)

// messageSender is the part of *telebot.Bot the adapter needs.
type messageSender interface {
	Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error)
}

// chatID addresses a private chat by the user's Telegram ID.
type chatID int64

func (id chatID) Recipient() string {
	return strconv.FormatInt(int64(id), 10)
}

// TelebotAdapter sends lesson questions and notices through telebot.
type TelebotAdapter struct {
	bot messageSender
}

func NewTelebotAdapter(b *telebot.Bot) *TelebotAdapter {
	return &TelebotAdapter{bot: b}
}

// SendMessage sends text to the private chat of recipientChatID.
func (tba *TelebotAdapter) SendMessage(recipientChatID int64, text string, options *telebot.SendOptions) error {
	if options == nil {
		options = &telebot.SendOptions{}
	}
	if _, err := tba.bot.Send(chatID(recipientChatID), text, options); err != nil {
		return fmt.Errorf("telegram send to %d: %w", recipientChatID, err)
	}
	return nil
}
