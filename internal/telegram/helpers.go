package telegram

import (
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func sendMessage(bot MessageSender, msg tgbotapi.Chattable) {
	if _, err := bot.Send(msg); err != nil {
		log.Printf("Failed to send message: %v", err)
	}
}

// Кнопки главного меню.
const (
	btnPlay    = "🎮 Играть"
	btnBalance = "💰 Баланс"
	btnDeposit = "💳 Пополнить"
)

// Данные callback-кнопок меню игр.
const (
	cbGameLessMore = "game_lessmore"
	cbGameSoon     = "game_soon"
)

var mainKeyboard = tgbotapi.NewReplyKeyboard(
	tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton(btnPlay),
	),
	tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton(btnBalance),
		tgbotapi.NewKeyboardButton(btnDeposit),
	),
)

var gamesKeyboard = tgbotapi.NewInlineKeyboardMarkup(
	tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🎲 Меньше или больше", cbGameLessMore),
	),
	tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🎰 Слоты (скоро)", cbGameSoon),
	),
)

var guessKeyboard = tgbotapi.NewReplyKeyboard(
	tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton("меньше"),
		tgbotapi.NewKeyboardButton("больше"),
		tgbotapi.NewKeyboardButton("равно"),
	),
)
