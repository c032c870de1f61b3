package telegram

import "gopkg.in/telebot.v3"

// Client sends messages to teachers and the admin. Services depend on it
// rather than on *telebot.Bot so they can be exercised without Telegram.
type Client interface {
	SendMessage(recipientChatID int64, text string, options *telebot.SendOptions) error
}
