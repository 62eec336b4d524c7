package container

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"nn-client/config"
	"nn-client/internal/api/monitor"
	"nn-client/internal/api/telegram"
	app "nn-client/internal/application"
	"nn-client/internal/domain/entity"
	"nn-client/internal/domain/port"
	"nn-client/internal/infrastructure/decoder"
	"nn-client/internal/infrastructure/storage"
	"nn-client/internal/infrastructure/transport"
	"nn-client/internal/infrastructure/vision"
)

// windowTitle заголовок окна с результатом
const windowTitle = "Result"

// quitKey клавиша выхода в окне
const quitKey = 'q'

// Адаптеры OpenCV, в тестах подменяются
var (
	openCamera = func(index, width, height int) (port.Camera, error) {
		camera, err := vision.OpenCamera(index, width, height)
		if err != nil {
			return nil, err
		}
		return camera, nil
	}
	newDisplay = func(title string) port.Display {
		return vision.NewWindow(title, quitKey)
	}
)

type Container struct {
	Session  string
	Logger   *slog.Logger
	Loop     *app.ExchangeLoop
	Ticks    *storage.MemoryTickRepository
	Monitor  *monitor.Server
	Notifier *telegram.Notifier
	Recorder *storage.SessionRecorder

	monitorAddr string
}

// New собирает сессию: метки, палитра, камера, соединение и наблюдатели.
// При ошибке уже открытые ресурсы освобождаются.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (c *Container, err error) {
	session := uuid.NewString()
	logger = logger.With("session", session)

	labels, err := loadLabels(cfg.LabelPath)
	if err != nil {
		return nil, err
	}
	palette := entity.GeneratePalette(max(cfg.MaxColors, len(labels)))
	logger.Debug("palette generated", "labels", len(labels), "colors", len(palette))

	c = &Container{
		Session:     session,
		Logger:      logger,
		Ticks:       storage.NewMemoryTickRepository(),
		monitorAddr: cfg.MonitorAddr,
	}
	var closers []func() error
	defer func() {
		if err != nil {
			for i := len(closers) - 1; i >= 0; i-- {
				_ = closers[i]()
			}
		}
	}()

	camera, err := openCamera(cfg.CameraIndex, cfg.Width, cfg.Height)
	if err != nil {
		return nil, err
	}
	closers = append(closers, camera.Close)
	width, height := camera.Size()
	logger.Info("camera opened", "index", cfg.CameraIndex, "width", width, "height", height)

	conn, err := transport.Dial(ctx, cfg.Target())
	if err != nil {
		return nil, err
	}
	closers = append(closers, conn.Close)
	logger.Info("connected", "server", conn.RemoteAddr())

	observers := []port.TickObserver{c.Ticks}

	if cfg.RecordDir != "" {
		c.Recorder, err = storage.NewSessionRecorder(cfg.RecordDir, session)
		if err != nil {
			return nil, err
		}
		closers = append(closers, c.Recorder.Close)
		observers = append(observers, c.Recorder)
		logger.Info("recording session", "path", c.Recorder.Path())
	}

	if cfg.MonitorAddr != "" {
		c.Monitor = monitor.New(c.Ticks, session, logger)
		observers = append(observers, c.Monitor)
	}

	if cfg.TelegramToken != "" {
		c.Notifier, err = telegram.NewNotifier(cfg.TelegramToken, cfg.TelegramChatID, session,
			cfg.NotifyLabels, cfg.NotifyInterval, logger)
		if err != nil {
			return nil, err
		}
		observers = append(observers, c.Notifier)
	}

	var display port.Display
	if !cfg.Headless {
		display = newDisplay(windowTitle)
	}

	c.Loop = app.NewExchangeLoop(app.ExchangeDeps{
		Camera:    camera,
		Transport: conn,
		Messages:  decoder.New(conn, cfg.ReadTimeout, cfg.MaxMessageBytes),
		Display:   display,
		Observers: observers,
		Labels:    labels,
		Palette:   palette,
		Logger:    logger,
	})
	return c, nil
}

// Start запускает фоновые части: монитор и отправку в Telegram
func (c *Container) Start(ctx context.Context) {
	if c.Monitor != nil {
		go func() {
			if err := c.Monitor.Run(ctx, c.monitorAddr); err != nil {
				c.Logger.Error("monitor stopped", "error", err)
			}
		}()
	}
	if c.Notifier != nil {
		go c.Notifier.Run(ctx)
	}
}

// Run получает описание модели и крутит обмен до штатного завершения
func (c *Container) Run(ctx context.Context) error {
	info, err := c.Loop.Init(ctx)
	if err != nil {
		return errors.Join(err, c.Loop.Close())
	}
	c.Ticks.SetModel(info)

	return c.Loop.Run(ctx)
}

// Close закрывает запись сессии
func (c *Container) Close() error {
	if c.Recorder == nil {
		return nil
	}
	return c.Recorder.Close()
}

func loadLabels(path string) (entity.Labels, error) {
	if path == "" {
		return nil, nil
	}
	labels, err := storage.LoadLabels(path)
	if err != nil {
		return nil, fmt.Errorf("load labels: %w", err)
	}
	return labels, nil
}
