package guard

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"
)

// ErrRateLimited возвращается, когда вызывающий исчерпал лимит окна.
var ErrRateLimited = errors.New("превышен лимит запросов, попробуйте позже")

// Limit - параметры фиксированного окна для одного класса действий.
type Limit struct {
	Window time.Duration
	Max    int
}

// RequestGuard объединяет лимитер запросов и кэш идемпотентности.
// Лимитер считает нажатия по классу действия (мутация/навигация) на
// каждого оператора; кэш хранит готовые ответы по ID callback-запроса,
// чтобы повторная доставка не выполнила мутацию дважды.
type RequestGuard struct {
	counters CounterStore
	results  ResultStore
	limits   map[string]Limit
	ttl      time.Duration

	// mu сериализует последовательности чтение-изменение поверх
	// хранилищ: каждый вызов хранилища атомарен сам по себе, но
	// проверка потолка с инкрементом и проверка кэша с захватом ключа
	// должны быть одним неделимым шагом, иначе два параллельных
	// нажатия проходят оба.
	mu       sync.Mutex
	inflight map[string]time.Time
}

// NewRequestGuard собирает guard с переданными хранилищами и лимитами.
func NewRequestGuard(counters CounterStore, results ResultStore, limits map[string]Limit, ttl time.Duration) *RequestGuard {
	return &RequestGuard{
		counters: counters,
		results:  results,
		limits:   limits,
		ttl:      ttl,
		inflight: make(map[string]time.Time),
	}
}

// Allow проверяет лимит для пары (класс действия, вызывающий).
// Для класса без настроенного лимита запрос пропускается.
func (g *RequestGuard) Allow(class string, callerChatID int64, now time.Time) error {
	limit, ok := g.limits[class]
	if !ok || limit.Max <= 0 {
		return nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	key := fmt.Sprintf("%s:%d", class, callerChatID)
	counter, found := g.counters.Get(key)
	if !found || now.Sub(counter.WindowStart) >= limit.Window {
		g.counters.Set(key, WindowCounter{WindowStart: now, Count: 1})
		return nil
	}
	if counter.Count >= limit.Max {
		return ErrRateLimited
	}
	counter.Count++
	g.counters.Set(key, counter)
	return nil
}

// Claim атомарно проверяет кэш и закрепляет ключ за текущим обработчиком.
// done=true означает, что выполнять действие не нужно: либо ответ уже
// готов (повторная доставка), либо первый обработчик этого же нажатия
// еще работает. done=false делает вызывающего владельцем ключа: он обязан
// выполнить действие и завершить его через StoreResult.
func (g *RequestGuard) Claim(key string, now time.Time) (Result, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if r, ok := g.results.Get(key); ok && now.Sub(r.StoredAt) <= g.ttl {
		return r, true
	}
	if _, busy := g.inflight[key]; busy {
		return Result{Text: "Запрос уже обрабатывается"}, true
	}
	g.inflight[key] = now
	return Result{}, false
}

// CachedResult возвращает сохраненный ответ по ключу идемпотентности,
// если он еще не протух по TTL.
func (g *RequestGuard) CachedResult(key string, now time.Time) (Result, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	r, ok := g.results.Get(key)
	if !ok {
		return Result{}, false
	}
	if now.Sub(r.StoredAt) > g.ttl {
		return Result{}, false
	}
	return r, true
}

// StoreResult запоминает ответ на обработанный callback и освобождает
// ключ, закрепленный через Claim.
func (g *RequestGuard) StoreResult(key string, result Result, now time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.results.Set(key, result, now)
	delete(g.inflight, key)
}

// Sweep удаляет протухшие счетчики и результаты. Вызывается
// фоновой горутиной по таймеру.
func (g *RequestGuard) Sweep(now time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()

	maxWindow := time.Duration(0)
	for _, l := range g.limits {
		if l.Window > maxWindow {
			maxWindow = l.Window
		}
	}
	g.counters.Sweep(now, maxWindow)
	g.results.Sweep(now, g.ttl)

	// Ключ, зависший в работе дольше TTL, освобождаем: обработчик мог
	// упасть до StoreResult, и повторные доставки не должны вечно
	// получать "уже обрабатывается".
	for key, started := range g.inflight {
		if now.Sub(started) > g.ttl {
			delete(g.inflight, key)
		}
	}
	log.Printf("[GUARD] Очистка завершена")
}
