package service

import (
	"context"
	"errors"
	"log"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/ivrude/tg-gambl/internal/game"
	"github.com/ivrude/tg-gambl/internal/session"
	"github.com/ivrude/tg-gambl/internal/storage"
)

var (
	ErrNoWager           = errors.New("no wager in progress")
	ErrBadRelation       = errors.New("invalid relation")
	ErrBadStake          = errors.New("invalid stake")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrBadCaption        = errors.New("telegram id not found in caption")
	ErrBadAmount         = errors.New("invalid amount")
)

// ID в подписи квитанции, с тегом <code> или без него.
var captionIDRe = regexp.MustCompile(`Telegram ID: ?(?:<code>)?(\d+)(?:</code>)?`)

// StorageInterface - то, что сервису нужно от хранилища.
type StorageInterface interface {
	GetOrCreateUser(ctx context.Context, tgID int64) (storage.User, error)
	GetUser(ctx context.Context, tgID int64) (storage.User, error)
	SettleWager(ctx context.Context, tgID int64, stake, net float64) (float64, bool, error)
	AdminAdjust(ctx context.Context, tgID int64, delta float64) (float64, error)
	RecordWager(ctx context.Context, w storage.WagerRecord) error
	GetBankCard(ctx context.Context) (storage.BankCard, error)
	UpsertBankCard(ctx context.Context, cardNumber string) error
}

// WagerResult - итог одной доигранной ставки.
type WagerResult struct {
	First   int
	Second  int
	Guess   game.Relation
	Stake   float64
	Won     bool
	Payout  float64
	Balance float64
}

// AdjustResult - итог правки баланса по квитанции.
type AdjustResult struct {
	TelegramID int64
	Amount     float64
	Balance    float64
}

type CasinoService struct {
	storage  StorageInterface
	drawer   game.Drawer
	sessions *session.Registry
	ctx      context.Context
}

func New(storage StorageInterface, drawer game.Drawer) *CasinoService {
	return &CasinoService{
		storage:  storage,
		drawer:   drawer,
		sessions: session.NewRegistry(),
		ctx:      context.Background(),
	}
}

// Register - создаем пользователя при первом /start, возвращаем баланс.
func (c *CasinoService) Register(tgID int64) (float64, error) {
	_, unlock := c.sessions.Lock(tgID)
	defer unlock()

	u, err := c.storage.GetOrCreateUser(c.ctx, tgID)
	if err != nil {
		return 0, err
	}
	return u.Balance, nil
}

// Balance - текущий баланс; storage.ErrUserNotFound если пользователя нет.
func (c *CasinoService) Balance(tgID int64) (float64, error) {
	u, err := c.storage.GetUser(c.ctx, tgID)
	if err != nil {
		return 0, err
	}
	return u.Balance, nil
}

// SessionState - на каком шаге ставки пользователь сейчас.
func (c *CasinoService) SessionState(tgID int64) session.State {
	return c.sessions.Snapshot(tgID).State
}

// StartWager - генерируем первое число и ждем вариант ставки.
// Недоигранная предыдущая ставка молча перезаписывается.
func (c *CasinoService) StartWager(tgID int64) (int, error) {
	sess, unlock := c.sessions.Lock(tgID)
	defer unlock()

	first := c.drawer.Draw()
	sess.Begin(first)
	return first, nil
}

// SubmitGuess - принимаем вариант (меньше/больше/равно).
// Нераспознанный текст оставляет сессию на месте.
func (c *CasinoService) SubmitGuess(tgID int64, text string) error {
	sess, unlock := c.sessions.Lock(tgID)
	defer unlock()

	if sess.State != session.AwaitingGuess {
		return ErrNoWager
	}
	rel, ok := game.ParseRelation(text)
	if !ok {
		return ErrBadRelation
	}
	sess.SetGuess(rel)
	return nil
}

// PlaceStake - принимаем сумму и доигрываем ставку: второе число,
// исход, единое атомарное изменение баланса. При нехватке средств
// сессия сбрасывается без изменения баланса; кривая сумма оставляет
// сессию на месте для повторного ввода.
func (c *CasinoService) PlaceStake(tgID int64, text string) (*WagerResult, error) {
	sess, unlock := c.sessions.Lock(tgID)
	defer unlock()

	if sess.State != session.AwaitingBet {
		return nil, ErrNoWager
	}
	stake, err := parseStake(text)
	if err != nil {
		return nil, err
	}

	first, guess := sess.FirstDraw, sess.Guess
	second := c.drawer.Draw()
	won, multiplier := game.Resolve(guess, first, second)

	var payout, net float64
	if won {
		payout = game.Payout(stake, multiplier)
		net = payout - stake
	} else {
		net = -stake
	}

	balance, ok, err := c.storage.SettleWager(c.ctx, tgID, stake, net)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			sess.Clear()
		}
		return nil, err
	}
	sess.Clear()
	if !ok {
		return nil, ErrInsufficientFunds
	}

	if err := c.storage.RecordWager(c.ctx, storage.WagerRecord{
		TelegramID: tgID,
		Guess:      guess,
		First:      first,
		Second:     second,
		Stake:      stake,
		Payout:     payout,
		Won:        won,
	}); err != nil {
		log.Printf("failed to record wager for %d: %v", tgID, err)
	}

	return &WagerResult{
		First:   first,
		Second:  second,
		Guess:   guess,
		Stake:   stake,
		Won:     won,
		Payout:  payout,
		Balance: balance,
	}, nil
}

// CardNumber - карта для пополнений; storage.ErrNoCard если не настроена.
func (c *CasinoService) CardNumber() (string, error) {
	card, err := c.storage.GetBankCard(c.ctx)
	if err != nil {
		return "", err
	}
	return card.CardNumber, nil
}

// SetCard - админ задает или обновляет карту для пополнений.
func (c *CasinoService) SetCard(cardNumber string) error {
	return c.storage.UpsertBankCard(c.ctx, cardNumber)
}

// FindUser - админ смотрит пользователя по ID.
func (c *CasinoService) FindUser(tgID int64) (storage.User, error) {
	return c.storage.GetUser(c.ctx, tgID)
}

// AdjustBalance - безусловная правка баланса, дельта любая.
// Держим блокировку пользователя, чтобы не вклиниться в его ставку.
func (c *CasinoService) AdjustBalance(tgID int64, delta float64) (float64, error) {
	_, unlock := c.sessions.Lock(tgID)
	defer unlock()

	return c.storage.AdminAdjust(c.ctx, tgID, delta)
}

// Approve - зачисление по квитанции: ID берем из подписи пересланного
// фото, сумму из аргумента команды.
func (c *CasinoService) Approve(caption, amountText string) (*AdjustResult, error) {
	m := captionIDRe.FindStringSubmatch(caption)
	if m == nil {
		return nil, ErrBadCaption
	}
	tgID, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return nil, ErrBadCaption
	}

	amount, err := strconv.ParseFloat(strings.TrimSpace(amountText), 64)
	if err != nil || amount <= 0 || math.IsInf(amount, 0) {
		return nil, ErrBadAmount
	}

	balance, err := c.AdjustBalance(tgID, amount)
	if err != nil {
		return nil, err
	}
	return &AdjustResult{TelegramID: tgID, Amount: amount, Balance: balance}, nil
}

func parseStake(text string) (float64, error) {
	stake, err := strconv.ParseFloat(strings.Replace(strings.TrimSpace(text), ",", ".", 1), 64)
	if err != nil || stake <= 0 || math.IsNaN(stake) || math.IsInf(stake, 0) {
		return 0, ErrBadStake
	}
	return stake, nil
}
