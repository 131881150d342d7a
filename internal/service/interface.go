package service

import (
	"github.com/ivrude/tg-gambl/internal/session"
	"github.com/ivrude/tg-gambl/internal/storage"
)

// CasinoServiceInterface - контракт сервиса для телеграм-хендлеров.
type CasinoServiceInterface interface {
	Register(tgID int64) (float64, error)
	Balance(tgID int64) (float64, error)
	SessionState(tgID int64) session.State
	StartWager(tgID int64) (int, error)
	SubmitGuess(tgID int64, text string) error
	PlaceStake(tgID int64, text string) (*WagerResult, error)
	CardNumber() (string, error)
	SetCard(cardNumber string) error
	FindUser(tgID int64) (storage.User, error)
	AdjustBalance(tgID int64, delta float64) (float64, error)
	Approve(caption, amountText string) (*AdjustResult, error)
}
