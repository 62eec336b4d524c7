//go:build gocv
// +build gocv

package vision

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"

	"gocv.io/x/gocv"

	"nn-client/internal/domain/entity"
	"nn-client/internal/domain/port"
)

// Camera захват кадров через OpenCV VideoCapture
type Camera struct {
	capture *gocv.VideoCapture
	width   int
	height  int
}

// OpenCamera открывает устройство и запрашивает размер кадра.
// Камера может выбрать другой размер, фактический возвращает Size.
func OpenCamera(index, width, height int) (*Camera, error) {
	capture, err := gocv.OpenVideoCapture(index)
	if err != nil {
		return nil, fmt.Errorf("open camera %d: %w", index, err)
	}
	capture.Set(gocv.VideoCaptureFrameWidth, float64(width))
	capture.Set(gocv.VideoCaptureFrameHeight, float64(height))

	return &Camera{
		capture: capture,
		width:   int(capture.Get(gocv.VideoCaptureFrameWidth)),
		height:  int(capture.Get(gocv.VideoCaptureFrameHeight)),
	}, nil
}

// Read захватывает кадр в BGR
func (c *Camera) Read() (port.Frame, error) {
	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok || mat.Empty() {
		mat.Close()
		return nil, port.ErrCaptureFailed
	}
	return &Frame{mat: mat}, nil
}

// Size фактический размер кадра камеры
func (c *Camera) Size() (int, int) {
	return c.width, c.height
}

// Close освобождает устройство
func (c *Camera) Close() error {
	return c.capture.Close()
}

// Frame кадр камеры в BGR
type Frame struct {
	mat gocv.Mat
}

// Payload сжимает кадр до входа модели, переводит в RGB и отдаёт байты.
// Каналы передаются как int8 с тем же битовым представлением, что и uint8,
// поэтому байты отдаются без преобразования (ConvertTo в CV_8S насыщал бы значения).
func (f *Frame) Payload(width, height int) ([]byte, error) {
	if f.mat.Empty() {
		return nil, errors.New("empty frame")
	}

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(f.mat, &resized, image.Pt(width, height), 0, 0, gocv.InterpolationArea)

	rgb := gocv.NewMat()
	defer rgb.Close()
	gocv.CvtColor(resized, &rgb, gocv.ColorBGRToRGB)

	return rgb.ToBytes(), nil
}

// Draw рисует рамки и подписи поверх кадра
func (f *Frame) Draw(annotations []entity.Annotation) error {
	for _, a := range annotations {
		switch a.Kind {
		case entity.AnnotationRect:
			gocv.Rectangle(&f.mat, a.Rect, a.Color.RGBA(), a.Thickness)
		case entity.AnnotationText:
			gocv.PutText(&f.mat, a.Label, a.Origin, gocv.FontHersheySimplex, a.Scale, a.Color.RGBA(), a.Thickness)
		default:
			return fmt.Errorf("unknown annotation kind %q", a.Kind)
		}
	}
	return nil
}

// JPEG кодирует кадр вместе с нарисованной разметкой
func (f *Frame) JPEG() ([]byte, error) {
	img, err := f.mat.ToImage()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Close освобождает память кадра
func (f *Frame) Close() error {
	return f.mat.Close()
}

// Window окно OpenCV с результатом
type Window struct {
	window  *gocv.Window
	quitKey int
}

// NewWindow создаёт окно; нажатие quitKey завершает сессию
func NewWindow(title string, quitKey rune) *Window {
	return &Window{
		window:  gocv.NewWindow(title),
		quitKey: int(quitKey),
	}
}

// Show показывает кадр и опрашивает клавиатуру 1 мс
func (w *Window) Show(frame port.Frame) (bool, error) {
	f, ok := frame.(*Frame)
	if !ok {
		return false, fmt.Errorf("unsupported frame type %T", frame)
	}
	w.window.IMShow(f.mat)
	key := w.window.WaitKey(1)
	return key >= 0 && key&0xFF == w.quitKey, nil
}

// Close закрывает окно
func (w *Window) Close() error {
	return w.window.Close()
}

// Проверка реализации интерфейсов
var (
	_ port.Camera  = (*Camera)(nil)
	_ port.Frame   = (*Frame)(nil)
	_ port.Display = (*Window)(nil)
)
