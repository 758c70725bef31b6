package ratelimiter

import (
	"context"
	"sync"
	"time"
)

const (
	// DefaultMaxRequests лимит запросов MAX API по умолчанию
	DefaultMaxRequests = 30

	// DefaultWindow окно лимита по умолчанию
	DefaultWindow = time.Second
)

// Clock абстракция над временем для тестов
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// SlidingWindow ограничитель частоты запросов со скользящим окном.
// В любом окне длительностью window допускается не более maxRequests запросов.
type SlidingWindow struct {
	maxRequests int
	window      time.Duration
	clock       Clock

	mu         sync.Mutex
	admissions []time.Time // отсортированы по возрастанию
}

// Option настройка ограничителя
type Option func(*SlidingWindow)

// WithClock подменяет источник времени
func WithClock(clock Clock) Option {
	return func(l *SlidingWindow) {
		l.clock = clock
	}
}

// New создает ограничитель на maxRequests запросов за window.
// Неположительные значения заменяются значениями по умолчанию.
func New(maxRequests int, window time.Duration, opts ...Option) *SlidingWindow {
	if maxRequests <= 0 {
		maxRequests = DefaultMaxRequests
	}
	if window <= 0 {
		window = DefaultWindow
	}

	l := &SlidingWindow{
		maxRequests: maxRequests,
		window:      window,
		clock:       realClock{},
		admissions:  make([]time.Time, 0, maxRequests),
	}
	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Acquire блокирует вызывающего, пока допуск нового запроса не превысит лимит окна,
// и записывает допуск. Возвращает ошибку только при отмене контекста во время ожидания,
// в этом случае допуск не записывается.
func (l *SlidingWindow) Acquire(ctx context.Context) error {
	for {
		wait, admitted := l.tryAdmit()
		if admitted {
			return nil
		}

		select {
		case <-l.clock.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// tryAdmit атомарно проверяет окно и записывает допуск.
// Если окно заполнено, возвращает время до освобождения самого старого слота.
func (l *SlidingWindow) tryAdmit() (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	l.prune(now)

	if len(l.admissions) < l.maxRequests {
		l.admissions = append(l.admissions, now)
		return 0, true
	}

	// После prune самый старый допуск моложе окна, поэтому wait > 0
	return l.window - now.Sub(l.admissions[0]), false
}

// prune удаляет допуски старше окна
func (l *SlidingWindow) prune(now time.Time) {
	cutoff := 0
	for cutoff < len(l.admissions) && now.Sub(l.admissions[cutoff]) >= l.window {
		cutoff++
	}
	if cutoff > 0 {
		l.admissions = append(l.admissions[:0], l.admissions[cutoff:]...)
	}
}

// InWindow возвращает количество допусков в текущем окне
func (l *SlidingWindow) InWindow() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.prune(l.clock.Now())
	return len(l.admissions)
}

// MaxRequests возвращает лимит окна
func (l *SlidingWindow) MaxRequests() int {
	return l.maxRequests
}

// Window возвращает длительность окна
func (l *SlidingWindow) Window() time.Duration {
	return l.window
}
