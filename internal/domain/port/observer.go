package port

import (
	"context"

	"nn-client/internal/domain/entity"
)

// TickObserver получает каждый завершённый обмен.
// Кадр валиден только во время вызова, данные из него нужно копировать.
type TickObserver interface {
	Observe(ctx context.Context, info entity.ModelInfo, tick entity.Tick, frame Frame) error
}
