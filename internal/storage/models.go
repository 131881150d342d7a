package storage

import (
	"time"

	"github.com/ivrude/tg-gambl/internal/game"
)

// Пользователь и его баланс
type User struct {
	TelegramID int64
	Balance    float64
}

// Карта для пополнений (одна на весь сервис)
type BankCard struct {
	CardNumber string
}

// WagerRecord - журнальная запись одной сыгранной ставки.
type WagerRecord struct {
	Ref        string // uuid
	TelegramID int64
	Guess      game.Relation
	First      int
	Second     int
	Stake      float64
	Payout     float64
	Won        bool
	Date       time.Time
}
