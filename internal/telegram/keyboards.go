package telegram

import (
	"fmt"

	"github.com/go-telegram/bot/models"

	"github.com/suspectuso/ton-mintgate/internal/controls"
)

const callbackPhases = "phases:"

// PhasesKeyboard offers a refresh of the phase list and a link to the collection
func PhasesKeyboard(collection controls.Address) *models.InlineKeyboardMarkup {
	friendly := collection.Friendly()
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "🔄 Refresh", CallbackData: callbackPhases + friendly},
				{Text: "🔎 Tonviewer", URL: fmt.Sprintf("https://tonviewer.com/%s", friendly)},
			},
		},
	}
}

// ReceiptKeyboard links the minter and the collection of a committed mint
func ReceiptKeyboard(r *controls.Receipt) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "👛 Minter", URL: fmt.Sprintf("https://tonviewer.com/%s", r.Minter.Friendly())},
				{Text: "📊 Phases", CallbackData: callbackPhases + r.Collection.Friendly()},
			},
		},
	}
}
