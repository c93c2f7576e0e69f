// internal/infra/telegram/client.go
package telegram

import (
	"fmt"
	"net/http"
	"time"

	"gopkg.in/telebot.v3"
)

// TelebotAdapter implements the Client interface using the gopkg.in/telebot.v3 library.
type TelebotAdapter struct {
	bot *telebot.Bot
}

func NewTelebotAdapter(b *telebot.Bot) *TelebotAdapter {
	return &TelebotAdapter{bot: b}
}

// NewBot creates a send-only bot. No updates are polled.
// apiURL may be empty for the public Bot API.
func NewBot(token, apiURL string, timeout time.Duration) (*telebot.Bot, error) {
	pref := telebot.Settings{
		Token:   token,
		URL:     apiURL,
		Offline: true, // no getMe round trip, the loop only sends
		Client:  &http.Client{Timeout: timeout},
	}
	bot, err := telebot.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return bot, nil
}

// chat addresses a chat by numeric id or @username.
type chat string

func (c chat) Recipient() string {
	return string(c)
}

// SendMessage sends a text message to the specified chat.
func (tba *TelebotAdapter) SendMessage(chatID string, text string, options *telebot.SendOptions) error {
	if options == nil {
		options = &telebot.SendOptions{}
	}

	_, err := tba.bot.Send(chat(chatID), text, options)
	return err
}
