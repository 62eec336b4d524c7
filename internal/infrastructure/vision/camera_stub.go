//go:build !gocv
// +build !gocv

package vision

import (
	"errors"

	"nn-client/internal/domain/entity"
	"nn-client/internal/domain/port"
)

var errNoGoCV = errors.New("gocv build tag is not enabled")

// Camera заглушка камеры (без OpenCV)
type Camera struct{}

// OpenCamera возвращает ошибку, если сборка без тега gocv.
func OpenCamera(index, width, height int) (*Camera, error) {
	_ = index
	_ = width
	_ = height
	return nil, errNoGoCV
}

// Read возвращает ошибку, если сборка без тега gocv.
func (c *Camera) Read() (port.Frame, error) {
	return nil, errNoGoCV
}

// Size возвращает нулевой размер.
func (c *Camera) Size() (int, int) {
	return 0, 0
}

// Close ничего не делает.
func (c *Camera) Close() error {
	return nil
}

// Frame заглушка кадра (без OpenCV)
type Frame struct{}

// Payload возвращает ошибку, если сборка без тега gocv.
func (f *Frame) Payload(width, height int) ([]byte, error) {
	return nil, errNoGoCV
}

// Draw возвращает ошибку, если сборка без тега gocv.
func (f *Frame) Draw(annotations []entity.Annotation) error {
	_ = annotations
	return errNoGoCV
}

// JPEG возвращает ошибку, если сборка без тега gocv.
func (f *Frame) JPEG() ([]byte, error) {
	return nil, errNoGoCV
}

// Close ничего не делает.
func (f *Frame) Close() error {
	return nil
}

// Window заглушка окна (без OpenCV)
type Window struct{}

// NewWindow возвращает окно-заглушку.
func NewWindow(title string, quitKey rune) *Window {
	_ = title
	_ = quitKey
	return &Window{}
}

// Show возвращает ошибку, если сборка без тега gocv.
func (w *Window) Show(frame port.Frame) (bool, error) {
	_ = frame
	return false, errNoGoCV
}

// Close ничего не делает.
func (w *Window) Close() error {
	return nil
}

var (
	_ port.Camera  = (*Camera)(nil)
	_ port.Frame   = (*Frame)(nil)
	_ port.Display = (*Window)(nil)
)
