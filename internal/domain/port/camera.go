package port

import (
	"errors"

	"nn-client/internal/domain/entity"
)

// ErrCaptureFailed камера не отдала кадр
var ErrCaptureFailed = errors.New("capture failed")

// Camera источник кадров
type Camera interface {
	// Read захватывает очередной кадр. ErrCaptureFailed завершает сессию.
	Read() (Frame, error)

	// Size фактический размер кадра
	Size() (width, height int)

	// Close освобождает устройство
	Close() error
}

// Frame захваченный кадр. Валиден до вызова Close.
type Frame interface {
	// Payload готовит кадр для сервера: resize до width x height, BGR->RGB, int8 на канал
	Payload(width, height int) ([]byte, error)

	// Draw рисует аннотации поверх кадра
	Draw(annotations []entity.Annotation) error

	// JPEG кодирует текущее содержимое кадра
	JPEG() ([]byte, error)

	// Close освобождает память кадра
	Close() error
}
