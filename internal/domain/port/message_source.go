package port

import (
	"context"
	"encoding/json"
)

// MessageSource последовательность JSON-сообщений от сервера
type MessageSource interface {
	// Next блокируется до получения очередного целого JSON-значения.
	// io.EOF означает, что сервер закрыл соединение и сообщений больше не будет.
	Next(ctx context.Context) (json.RawMessage, error)
}
