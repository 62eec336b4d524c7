package port

import "time"

// Transport одно двунаправленное TCP-соединение с inference-сервером
type Transport interface {
	// Read ждёт данные не дольше timeout. По таймауту возвращает пустой срез без ошибки,
	// после закрытия соединения сервером всегда возвращает io.EOF.
	Read(timeout time.Duration) ([]byte, error)

	// Write отправляет буфер целиком
	Write(p []byte) error

	// Close закрывает соединение
	Close() error
}
