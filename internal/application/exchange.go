package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"nn-client/internal/domain/entity"
	"nn-client/internal/domain/port"
)

// State состояние цикла обмена
type State string

const (
	StateInit       State = "init"       // ждём описание модели
	StateRunning    State = "running"    // обмен кадр/результат
	StateTerminated State = "terminated" // камера и соединение освобождены
)

// ErrPayloadSize кадр подготовлен не под размер входа модели
var ErrPayloadSize = errors.New("payload size mismatch")

// ExchangeStats счётчики обменов
type ExchangeStats struct {
	Sent     uint64 `json:"sent"`
	Received uint64 `json:"received"`
}

// ExchangeDeps зависимости цикла обмена
type ExchangeDeps struct {
	Camera    port.Camera
	Transport port.Transport
	Messages  port.MessageSource
	Display   port.Display // nil в headless-режиме
	Observers []port.TickObserver
	Labels    entity.Labels
	Palette   entity.Palette
	Logger    *slog.Logger
}

// ExchangeLoop строго чередует отправку кадра и чтение одного результата.
// Камера и соединение принадлежат циклу до его завершения.
type ExchangeLoop struct {
	deps   ExchangeDeps
	logger *slog.Logger
	now    func() time.Time

	state    State
	info     entity.ModelInfo
	renderer Renderer
	stats    ExchangeStats
}

// NewExchangeLoop создаёт цикл в состоянии init
func NewExchangeLoop(deps ExchangeDeps) *ExchangeLoop {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ExchangeLoop{
		deps:   deps,
		logger: logger,
		now:    time.Now,
		state:  StateInit,
	}
}

// Init читает описание модели и выбирает отрисовку
func (l *ExchangeLoop) Init(ctx context.Context) (entity.ModelInfo, error) {
	if l.state != StateInit {
		return l.info, fmt.Errorf("init in state %s", l.state)
	}

	raw, err := l.deps.Messages.Next(ctx)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return entity.ModelInfo{}, fmt.Errorf("model info: server closed connection")
		}
		return entity.ModelInfo{}, fmt.Errorf("model info: %w", err)
	}

	info, err := entity.ParseModelInfo(raw)
	if err != nil {
		return entity.ModelInfo{}, err
	}

	width, height := l.deps.Camera.Size()
	l.info = info.WithFrame(width, height)
	l.renderer = NewRenderer(l.info, l.deps.Labels, l.deps.Palette)
	l.state = StateRunning

	l.logger.Info("model info received",
		"type", l.info.Type,
		"input", fmt.Sprintf("%dx%d", l.info.InputWidth, l.info.InputHeight),
		"frame", fmt.Sprintf("%dx%d", l.info.FrameWidth, l.info.FrameHeight))
	return l.info, nil
}

// Run выполняет обмены до выхода пользователя, сбоя камеры или закрытия соединения.
// Эти три причины считаются штатным завершением.
func (l *ExchangeLoop) Run(ctx context.Context) (err error) {
	defer func() {
		if cerr := l.Close(); err == nil {
			err = cerr
		}
	}()

	if l.state == StateInit {
		if _, err := l.Init(ctx); err != nil {
			return err
		}
	}

	for l.state == StateRunning {
		done, reason, err := l.Tick(ctx)
		if err != nil {
			return err
		}
		if done {
			l.logger.Info("exchange finished", "reason", reason, "sent", l.stats.Sent, "received", l.stats.Received)
			return nil
		}
	}
	return nil
}

// Tick выполняет один обмен: кадр -> сервер -> результат -> отрисовка.
// done=true означает штатное завершение сессии.
func (l *ExchangeLoop) Tick(ctx context.Context) (done bool, reason string, err error) {
	if l.state != StateRunning {
		return true, string(l.state), nil
	}

	frame, err := l.deps.Camera.Read()
	if err != nil {
		if errors.Is(err, port.ErrCaptureFailed) {
			return true, "capture failed", nil
		}
		return false, "", fmt.Errorf("read frame: %w", err)
	}
	defer frame.Close()

	payload, err := frame.Payload(l.info.InputWidth, l.info.InputHeight)
	if err != nil {
		return false, "", fmt.Errorf("prepare payload: %w", err)
	}
	if len(payload) != l.info.PayloadSize() {
		return false, "", fmt.Errorf("%w: got %d bytes, want %d", ErrPayloadSize, len(payload), l.info.PayloadSize())
	}

	if err := l.deps.Transport.Write(payload); err != nil {
		return false, "", fmt.Errorf("send frame: %w", err)
	}
	l.stats.Sent++

	raw, err := l.deps.Messages.Next(ctx)
	switch {
	case errors.Is(err, io.EOF):
		return true, "server closed connection", nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return true, "interrupted", nil
	case err != nil:
		return false, "", fmt.Errorf("receive result: %w", err)
	}
	l.stats.Received++

	tick := entity.Tick{
		Seq:  l.stats.Received,
		Time: l.now(),
		Raw:  raw,
	}

	// несоответствие формы не ошибка протокола: кадр просто остаётся без разметки
	result, err := entity.DecodeResult(l.info.Type, raw)
	if err != nil {
		l.logger.Warn("unexpected result", "seq", tick.Seq, "error", err)
	} else {
		tick.Result = result
		tick.Annotations = l.renderer.Render(result)
	}

	if err := frame.Draw(tick.Annotations); err != nil {
		l.logger.Warn("draw annotations", "seq", tick.Seq, "error", err)
	}
	l.logger.Debug("tick", "seq", tick.Seq, "result", string(raw), "annotations", len(tick.Annotations))

	for _, observer := range l.deps.Observers {
		if err := observer.Observe(ctx, l.info, tick, frame); err != nil {
			l.logger.Warn("observer failed", "seq", tick.Seq, "error", err)
		}
	}

	if l.deps.Display != nil {
		quit, err := l.deps.Display.Show(frame)
		if err != nil {
			return false, "", fmt.Errorf("show frame: %w", err)
		}
		if quit {
			return true, "quit requested", nil
		}
	}

	if ctx.Err() != nil {
		return true, "interrupted", nil
	}
	return false, "", nil
}

// Close освобождает камеру, соединение и окно. Повторный вызов ничего не делает.
func (l *ExchangeLoop) Close() error {
	if l.state == StateTerminated {
		return nil
	}
	l.state = StateTerminated

	var errs []error
	if err := l.deps.Camera.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close camera: %w", err))
	}
	if err := l.deps.Transport.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close transport: %w", err))
	}
	if l.deps.Display != nil {
		if err := l.deps.Display.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close display: %w", err))
		}
	}
	return errors.Join(errs...)
}

// State текущее состояние цикла
func (l *ExchangeLoop) State() State {
	return l.state
}

// Model описание модели, известное после Init
func (l *ExchangeLoop) Model() entity.ModelInfo {
	return l.info
}

// Stats количество отправленных кадров и полученных результатов
func (l *ExchangeLoop) Stats() ExchangeStats {
	return l.stats
}
