package game

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"
)

// Диапазон чисел в игре "меньше/больше".
const (
	DrawMin = 1
	DrawMax = 100
)

// Relation - вариант ставки игрока: каким будет второе число
// относительно первого.
type Relation string

const (
	Less    Relation = "меньше"
	Greater Relation = "больше"
	Equal   Relation = "равно"
)

// Множители выплат.
const (
	compareMultiplier = 2
	exactMultiplier   = 10
)

// ParseRelation - разбираем текст пользователя в Relation.
// Регистр и лишние пробелы не важны.
func ParseRelation(text string) (Relation, bool) {
	switch Relation(strings.ToLower(strings.TrimSpace(text))) {
	case Less:
		return Less, true
	case Greater:
		return Greater, true
	case Equal:
		return Equal, true
	}
	return "", false
}

// Drawer выдает случайное число для одного розыгрыша.
type Drawer interface {
	Draw() int
}

// Source - источник случайных чисел, равномерных на [DrawMin, DrawMax].
// Один Source обслуживает ставки всех пользователей, поэтому доступ
// к rng под блокировкой.
type Source struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewSource() *Source {
	return &Source{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewSeededSource - детерминированный источник для тестов.
func NewSeededSource(seed int64) *Source {
	return &Source{rng: rand.New(rand.NewSource(seed))}
}

func (s *Source) Draw() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return DrawMin + s.rng.Intn(DrawMax-DrawMin+1)
}

// Resolve - определяем исход ставки по двум числам.
// Неизвестный relation - ошибка в коде вызывающего, не пользовательский ввод.
func Resolve(rel Relation, first, second int) (won bool, multiplier float64) {
	switch rel {
	case Less:
		return second < first, compareMultiplier
	case Greater:
		return second > first, compareMultiplier
	case Equal:
		return second == first, exactMultiplier
	}
	panic(fmt.Sprintf("game: unknown relation %q", rel))
}

// Payout - выигрыш по ставке: stake * multiplier.
func Payout(stake, multiplier float64) float64 {
	return stake * multiplier
}
