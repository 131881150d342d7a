package session

import (
	"sync"

	"github.com/ivrude/tg-gambl/internal/game"
)

// State - шаг игрока в сценарии ставки.
type State int

const (
	// Idle - ставки нет, обычные команды работают.
	Idle State = iota
	// AwaitingGuess - первое число сгенерировано, ждем вариант ставки.
	AwaitingGuess
	// AwaitingBet - вариант выбран, ждем сумму.
	AwaitingBet
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingGuess:
		return "awaiting_guess"
	case AwaitingBet:
		return "awaiting_bet"
	}
	return "unknown"
}

// InWager - сообщения пользователя в этих состояниях
// перехватывает игровой сценарий, а не общие команды.
func (s State) InWager() bool {
	return s == AwaitingGuess || s == AwaitingBet
}

// Session - текущая ставка одного пользователя.
// Поля заполнены только в том состоянии, которому они нужны:
// FirstDraw начиная с AwaitingGuess, Guess начиная с AwaitingBet.
type Session struct {
	State     State
	FirstDraw int
	Guess     game.Relation
}

// Begin - начинаем новую ставку. Если предыдущая не была доиграна,
// она молча перезаписывается.
func (s *Session) Begin(firstDraw int) {
	s.State = AwaitingGuess
	s.FirstDraw = firstDraw
	s.Guess = ""
}

// SetGuess - запоминаем вариант и переходим к вводу суммы.
func (s *Session) SetGuess(rel game.Relation) {
	s.State = AwaitingBet
	s.Guess = rel
}

// Clear - возвращаем пользователя в Idle и чистим данные ставки.
func (s *Session) Clear() {
	s.State = Idle
	s.FirstDraw = 0
	s.Guess = ""
}

type entry struct {
	mu      sync.Mutex
	session Session
}

// Registry владеет сессиями всех пользователей и их блокировками.
// Только через Lock можно читать и менять сессию; под той же
// блокировкой выполняются и операции с балансом пользователя, чтобы
// проверка и списание не разъезжались между конкурентными сообщениями.
type Registry struct {
	mu      sync.Mutex
	entries map[int64]*entry
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[int64]*entry)}
}

// Lock - захватываем пользователя и получаем его сессию.
// Возвращенный unlock обязателен; пока он не вызван, другие сообщения
// этого пользователя ждут. Разные пользователи друг друга не ждут.
func (r *Registry) Lock(userID int64) (*Session, func()) {
	r.mu.Lock()
	e, ok := r.entries[userID]
	if !ok {
		e = &entry{}
		r.entries[userID] = e
	}
	r.mu.Unlock()

	e.mu.Lock()
	return &e.session, e.mu.Unlock
}

// Snapshot - копия сессии для чтения без удержания блокировки.
func (r *Registry) Snapshot(userID int64) Session {
	s, unlock := r.Lock(userID)
	defer unlock()
	return *s
}
