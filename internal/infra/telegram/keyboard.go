package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Anujpy12345/Scam-exposer-bot/internal/domain/model"
)

// BuildInlineKeyboard maps rows of buttons to Telegram's inline markup. A
// button with a URL opens the link; otherwise Data is sent back as callback
// data.
func BuildInlineKeyboard(rows [][]model.Button) tgbotapi.InlineKeyboardMarkup {
	keyboardRows := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, button := range row {
			if button.URL != "" {
				buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonURL(button.Text, button.URL))
				continue
			}
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.Data))
		}
		if len(buttons) > 0 {
			keyboardRows = append(keyboardRows, buttons)
		}
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboardRows...)
}
