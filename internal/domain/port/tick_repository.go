package port

import (
	"context"

	"nn-client/internal/domain/entity"
)

// TickStats счётчики сессии
type TickStats struct {
	Ticks       uint64 `json:"ticks"`
	Undecodable uint64 `json:"undecodable"`
	Annotations uint64 `json:"annotations"`
}

// TickRepository интерфейс хранилища последних результатов
type TickRepository interface {
	// Save сохраняет результат обмена
	Save(ctx context.Context, info entity.ModelInfo, tick entity.Tick) error

	// Latest возвращает последний результат, ok=false если обменов ещё не было
	Latest(ctx context.Context) (tick entity.Tick, ok bool, err error)

	// Model возвращает описание модели текущей сессии
	Model(ctx context.Context) (info entity.ModelInfo, ok bool, err error)

	// Stats возвращает счётчики
	Stats(ctx context.Context) (TickStats, error)
}
