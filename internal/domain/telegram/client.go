package telegram

import "gopkg.in/telebot.v3"

// Client defines an interface for sending messages via a Telegram bot.
// chatID is either a numeric chat id or a public @username.
type Client interface {
	SendMessage(chatID string, text string, options *telebot.SendOptions) error
}
