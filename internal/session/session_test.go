package session

import (
	"sync"
	"testing"

	"github.com/ivrude/tg-gambl/internal/game"
)

func TestSessionLifecycle(t *testing.T) {
	var s Session
	if s.State != Idle {
		t.Fatalf("новая сессия должна быть Idle, получено %v", s.State)
	}

	s.Begin(40)
	if s.State != AwaitingGuess || s.FirstDraw != 40 || s.Guess != "" {
		t.Errorf("после Begin: %+v", s)
	}

	s.SetGuess(game.Less)
	if s.State != AwaitingBet || s.FirstDraw != 40 || s.Guess != game.Less {
		t.Errorf("после SetGuess: %+v", s)
	}

	s.Clear()
	if s.State != Idle || s.FirstDraw != 0 || s.Guess != "" {
		t.Errorf("после Clear данные ставки должны быть очищены: %+v", s)
	}
}

func TestBeginOverwritesStaleWager(t *testing.T) {
	var s Session
	s.Begin(40)
	s.SetGuess(game.Equal)

	// Новая ставка поверх недоигранной: last-start-wins.
	s.Begin(77)
	if s.State != AwaitingGuess || s.FirstDraw != 77 || s.Guess != "" {
		t.Errorf("Begin должен перезаписывать старую ставку: %+v", s)
	}
}

func TestStateInWager(t *testing.T) {
	if Idle.InWager() {
		t.Error("Idle не должен считаться игровым состоянием")
	}
	if !AwaitingGuess.InWager() || !AwaitingBet.InWager() {
		t.Error("AwaitingGuess и AwaitingBet - игровые состояния")
	}
}

func TestRegistryLockReturnsSameSession(t *testing.T) {
	r := NewRegistry()

	s, unlock := r.Lock(1)
	s.Begin(13)
	unlock()

	got := r.Snapshot(1)
	if got.State != AwaitingGuess || got.FirstDraw != 13 {
		t.Errorf("Snapshot вернул не ту сессию: %+v", got)
	}
}

func TestRegistryIsolatesUsers(t *testing.T) {
	r := NewRegistry()

	s, unlock := r.Lock(1)
	s.Begin(99)
	unlock()

	if got := r.Snapshot(2); got.State != Idle {
		t.Errorf("сессия другого пользователя должна быть Idle: %+v", got)
	}
}

func TestRegistrySerializesSameUser(t *testing.T) {
	r := NewRegistry()
	const workers = 100

	// FirstDraw используем как счетчик: инкремент под блокировкой
	// не должен терять обновления.
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, unlock := r.Lock(7)
			s.FirstDraw++
			unlock()
		}()
	}
	wg.Wait()

	if got := r.Snapshot(7).FirstDraw; got != workers {
		t.Errorf("потеряны обновления под блокировкой: %d из %d", got, workers)
	}
}
