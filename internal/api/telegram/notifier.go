package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"nn-client/internal/domain/entity"
	"nn-client/internal/domain/port"
)

const (
	msgSessionStarted = "📷 Сессия %s запущена\nМодель: %s, вход %dx%d, кадр %dx%d"
	msgDetected       = "🔎 Кадр #%d: %s"

	// outboxSize сколько сообщений ждут отправки
	outboxSize = 8
)

// sender часть BotAPI, которая нужна уведомителю
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier отправляет в чат кадры с нужными классами
type Notifier struct {
	api      sender
	chatID   int64
	session  string
	watch    map[string]struct{}
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time

	mu        sync.Mutex
	last      time.Time
	announced bool
	outbox    chan tgbotapi.Chattable
}

// NewNotifier авторизуется в Telegram и создаёт уведомитель.
// Пустой watch означает любой размеченный кадр.
func NewNotifier(token string, chatID int64, session string, watch []string, interval time.Duration, logger *slog.Logger) (*Notifier, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("telegram authorized", "account", api.Self.UserName, "chat", chatID)

	return newNotifier(api, chatID, session, watch, interval, logger), nil
}

func newNotifier(api sender, chatID int64, session string, watch []string, interval time.Duration, logger *slog.Logger) *Notifier {
	set := make(map[string]struct{}, len(watch))
	for _, label := range watch {
		set[label] = struct{}{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		api:      api,
		chatID:   chatID,
		session:  session,
		watch:    set,
		interval: interval,
		logger:   logger,
		now:      time.Now,
		outbox:   make(chan tgbotapi.Chattable, outboxSize),
	}
}

// Run отправляет накопленные сообщения до отмены ctx
func (n *Notifier) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-n.outbox:
			if _, err := n.api.Send(msg); err != nil {
				n.logger.Warn("telegram send failed", "error", err)
			}
		}
	}
}

// Observe решает, нужно ли уведомление, и ставит его в очередь.
// Кадр кодируется сразу: после возврата он будет освобождён.
func (n *Notifier) Observe(ctx context.Context, info entity.ModelInfo, tick entity.Tick, frame port.Frame) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.announced {
		n.announced = true
		n.enqueue(tgbotapi.NewMessage(n.chatID, fmt.Sprintf(msgSessionStarted,
			n.session, info.Type, info.InputWidth, info.InputHeight, info.FrameWidth, info.FrameHeight)))
	}

	if !n.matches(tick) {
		return nil
	}
	now := n.now()
	if !n.last.IsZero() && now.Sub(n.last) < n.interval {
		return nil
	}

	image, err := frame.JPEG()
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	photo := tgbotapi.NewPhoto(n.chatID, tgbotapi.FileBytes{
		Name:  fmt.Sprintf("frame_%d.jpg", tick.Seq),
		Bytes: image,
	})
	photo.Caption = fmt.Sprintf(msgDetected, tick.Seq, tick.Summary())
	if n.enqueue(photo) {
		n.last = now
	}
	return nil
}

// matches есть ли на кадре хотя бы один интересующий класс
func (n *Notifier) matches(tick entity.Tick) bool {
	if len(tick.Annotations) == 0 {
		return false
	}
	if len(n.watch) == 0 {
		return true
	}
	for _, label := range tick.Labels() {
		if _, ok := n.watch[label]; ok {
			return true
		}
	}
	return false
}

func (n *Notifier) enqueue(msg tgbotapi.Chattable) bool {
	select {
	case n.outbox <- msg:
		return true
	default:
		n.logger.Warn("telegram outbox is full, message dropped")
		return false
	}
}

// Проверка реализации интерфейса
var _ port.TickObserver = (*Notifier)(nil)
