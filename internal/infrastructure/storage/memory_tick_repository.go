package storage

import (
	"context"
	"sync"

	"nn-client/internal/domain/entity"
	"nn-client/internal/domain/port"
)

// MemoryTickRepository in-memory хранилище последнего результата сессии
type MemoryTickRepository struct {
	mu      sync.RWMutex
	info    entity.ModelInfo
	hasInfo bool
	latest  entity.Tick
	hasTick bool
	stats   port.TickStats
}

// NewMemoryTickRepository создаёт новое in-memory хранилище
func NewMemoryTickRepository() *MemoryTickRepository {
	return &MemoryTickRepository{}
}

// Save сохраняет результат обмена и обновляет счётчики
func (r *MemoryTickRepository) Save(ctx context.Context, info entity.ModelInfo, tick entity.Tick) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.info, r.hasInfo = info, true
	r.latest, r.hasTick = tick, true
	r.stats.Ticks++
	if tick.Result == nil {
		r.stats.Undecodable++
	}
	r.stats.Annotations += uint64(len(tick.Annotations))

	return nil
}

// Latest возвращает последний сохранённый результат
func (r *MemoryTickRepository) Latest(ctx context.Context) (entity.Tick, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.latest, r.hasTick, nil
}

// Model возвращает описание модели
func (r *MemoryTickRepository) Model(ctx context.Context) (entity.ModelInfo, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.info, r.hasInfo, nil
}

// SetModel запоминает описание модели до первого обмена
func (r *MemoryTickRepository) SetModel(info entity.ModelInfo) {
	r.mu.Lock()
	r.info, r.hasInfo = info, true
	r.mu.Unlock()
}

// Stats возвращает счётчики сессии
func (r *MemoryTickRepository) Stats(ctx context.Context) (port.TickStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.stats, nil
}

// Observe сохраняет каждый обмен, кадр не нужен
func (r *MemoryTickRepository) Observe(ctx context.Context, info entity.ModelInfo, tick entity.Tick, frame port.Frame) error {
	return r.Save(ctx, info, tick)
}

// Проверка реализации интерфейса
var (
	_ port.TickRepository = (*MemoryTickRepository)(nil)
	_ port.TickObserver   = (*MemoryTickRepository)(nil)
)
