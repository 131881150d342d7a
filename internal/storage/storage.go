package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Стартовый баланс нового пользователя.
const StartingBalance = 100

var (
	ErrUserNotFound = errors.New("user not found")
	ErrNoCard       = errors.New("bank card is not set")
)

type Storage struct {
	db *pgxpool.Pool
}

// New - Создание подключения
func New(dsn string) (*Storage, error) {
	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to db: %w", err)
	}
	return &Storage{db: pool}, nil
}

// Ping - проверка подключения к DB
func (s *Storage) Ping() error {
	return s.db.Ping(context.Background())
}

// CreateSchema - создаем таблицы при старте, повторный запуск безопасен.
func (s *Storage) CreateSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			telegram_id BIGINT PRIMARY KEY,
			balance DOUBLE PRECISION NOT NULL DEFAULT 0
		);
		CREATE TABLE IF NOT EXISTS bank_card (
			id SMALLINT PRIMARY KEY,
			card_number TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS wagers (
			ref UUID PRIMARY KEY,
			telegram_id BIGINT NOT NULL REFERENCES users(telegram_id),
			guess TEXT NOT NULL,
			first_draw INT NOT NULL,
			second_draw INT NOT NULL,
			stake DOUBLE PRECISION NOT NULL,
			payout DOUBLE PRECISION NOT NULL,
			won BOOLEAN NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`)
	return err
}

// GetOrCreateUser - читаем пользователя, создавая его при первом
// обращении со стартовым балансом.
func (s *Storage) GetOrCreateUser(ctx context.Context, tgID int64) (User, error) {
	_, err := s.db.Exec(ctx,
		"INSERT INTO users (telegram_id, balance) VALUES ($1, $2) ON CONFLICT (telegram_id) DO NOTHING",
		tgID, StartingBalance)
	if err != nil {
		return User{}, err
	}
	return s.GetUser(ctx, tgID)
}

// GetUser - смотрим пользователя по tgID
func (s *Storage) GetUser(ctx context.Context, tgID int64) (User, error) {
	var u User
	err := s.db.QueryRow(ctx,
		"SELECT telegram_id, balance FROM users WHERE telegram_id=$1", tgID).
		Scan(&u.TelegramID, &u.Balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	return u, err
}

// SettleWager - применяем итог ставки одним запросом: списание и
// выигрыш как единая дельта, с проверкой баланса в том же запросе.
// ok=false - средств не хватило, баланс не тронут.
func (s *Storage) SettleWager(ctx context.Context, tgID int64, stake, net float64) (float64, bool, error) {
	var balance float64
	err := s.db.QueryRow(ctx,
		`UPDATE users SET balance = balance + $1
		 WHERE telegram_id = $2 AND balance >= $3
		 RETURNING balance`,
		net, tgID, stake,
	).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		// Строки нет и при нехватке средств, и при отсутствии
		// пользователя - различаем эти случаи.
		if _, err := s.GetUser(ctx, tgID); err != nil {
			return 0, false, err
		}
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return balance, true, nil
}

// AdminAdjust - безусловная правка баланса админом, дельта может быть
// отрицательной и может увести баланс в минус.
func (s *Storage) AdminAdjust(ctx context.Context, tgID int64, delta float64) (float64, error) {
	var balance float64
	err := s.db.QueryRow(ctx,
		"UPDATE users SET balance = balance + $1 WHERE telegram_id = $2 RETURNING balance",
		delta, tgID,
	).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrUserNotFound
	}
	return balance, err
}

// RecordWager - пишем сыгранную ставку в журнал.
func (s *Storage) RecordWager(ctx context.Context, w WagerRecord) error {
	if w.Ref == "" {
		w.Ref = uuid.New().String()
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO wagers (ref, telegram_id, guess, first_draw, second_draw, stake, payout, won)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		w.Ref, w.TelegramID, string(w.Guess), w.First, w.Second, w.Stake, w.Payout, w.Won,
	)
	return err
}

// GetBankCard - карта для пополнений.
func (s *Storage) GetBankCard(ctx context.Context) (BankCard, error) {
	var c BankCard
	err := s.db.QueryRow(ctx,
		"SELECT card_number FROM bank_card WHERE id = 1").Scan(&c.CardNumber)
	if errors.Is(err, pgx.ErrNoRows) {
		return BankCard{}, ErrNoCard
	}
	return c, err
}

// UpsertBankCard - запись одна: повторный set_card обновляет ее,
// а не добавляет вторую.
func (s *Storage) UpsertBankCard(ctx context.Context, cardNumber string) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO bank_card (id, card_number) VALUES (1, $1)
		 ON CONFLICT (id) DO UPDATE SET card_number = EXCLUDED.card_number`,
		cardNumber,
	)
	return err
}
