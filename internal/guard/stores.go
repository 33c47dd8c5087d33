package guard

import (
	"sync"
	"time"
)

// CounterStore хранит счетчики фиксированных окон лимитера.
// Ключ - "class:caller", значение - счетчик с началом окна.
type CounterStore interface {
	Get(key string) (WindowCounter, bool)
	Set(key string, counter WindowCounter)
	Sweep(now time.Time, maxWindow time.Duration)
}

// ResultStore кэширует ответы уже обработанных callback-запросов,
// чтобы повторная доставка того же нажатия не выполняла мутацию заново.
type ResultStore interface {
	Get(key string) (Result, bool)
	Set(key string, result Result, now time.Time)
	Sweep(now time.Time, ttl time.Duration)
}

// WindowCounter - счетчик одного фиксированного окна.
type WindowCounter struct {
	WindowStart time.Time
	Count       int
}

// Result - сохраненный ответ на callback: текст и способ показа.
type Result struct {
	Text     string
	Alert    bool
	StoredAt time.Time
}

type memCounterStore struct {
	mu       sync.RWMutex
	counters map[string]WindowCounter
}

// NewMemCounterStore создает потокобезопасное хранилище счетчиков в памяти.
func NewMemCounterStore() CounterStore {
	return &memCounterStore{counters: make(map[string]WindowCounter)}
}

func (s *memCounterStore) Get(key string) (WindowCounter, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.counters[key]
	return c, ok
}

func (s *memCounterStore) Set(key string, counter WindowCounter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[key] = counter
}

func (s *memCounterStore) Sweep(now time.Time, maxWindow time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, c := range s.counters {
		if now.Sub(c.WindowStart) > maxWindow {
			delete(s.counters, key)
		}
	}
}

type memResultStore struct {
	mu      sync.RWMutex
	results map[string]Result
}

// NewMemResultStore создает потокобезопасный кэш результатов в памяти.
func NewMemResultStore() ResultStore {
	return &memResultStore{results: make(map[string]Result)}
}

func (s *memResultStore) Get(key string) (Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.results[key]
	return r, ok
}

func (s *memResultStore) Set(key string, result Result, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result.StoredAt = now
	s.results[key] = result
}

func (s *memResultStore) Sweep(now time.Time, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, r := range s.results {
		if now.Sub(r.StoredAt) > ttl {
			delete(s.results, key)
		}
	}
}
