package telegram

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"

	"nn-client/internal/domain/entity"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []tgbotapi.Chattable
}

func (s *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, c)
	return tgbotapi.Message{}, nil
}

func (s *fakeSender) messages() []tgbotapi.Chattable {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]tgbotapi.Chattable(nil), s.sent...)
}

type jpegFrame struct{ encoded int }

func (f *jpegFrame) Payload(int, int) ([]byte, error) { return nil, nil }
func (f *jpegFrame) Draw([]entity.Annotation) error   { return nil }
func (f *jpegFrame) Close() error                     { return nil }
func (f *jpegFrame) JPEG() ([]byte, error) {
	f.encoded++
	return []byte{0xff, 0xd8, 0xff}, nil
}

func tickWith(seq uint64, labels ...string) entity.Tick {
	tick := entity.Tick{Seq: seq}
	for _, l := range labels {
		tick.Annotations = append(tick.Annotations,
			entity.Annotation{Kind: entity.AnnotationRect, Label: l},
			entity.Annotation{Kind: entity.AnnotationText, Label: l})
	}
	return tick
}

func TestNotifier_SendsWatchedLabelsWithThrottle(t *testing.T) {
	api := &fakeSender{}
	n := newNotifier(api, 42, "s1", []string{"car"}, 30*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
	now := time.Unix(1000, 0)
	n.now = func() time.Time { return now }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go n.Run(ctx)

	info := entity.ModelInfo{Type: entity.ModelDetector, InputWidth: 300, InputHeight: 300}
	frame := &jpegFrame{}

	require.NoError(t, n.Observe(ctx, info, tickWith(1, "dog"), frame))
	require.NoError(t, n.Observe(ctx, info, tickWith(2, "car", "dog"), frame))
	now = now.Add(10 * time.Second)
	require.NoError(t, n.Observe(ctx, info, tickWith(3, "car"), frame))
	now = now.Add(25 * time.Second)
	require.NoError(t, n.Observe(ctx, info, tickWith(4, "car"), frame))

	require.Eventually(t, func() bool { return len(api.messages()) == 3 }, time.Second, 5*time.Millisecond)
	require.Equal(t, 2, frame.encoded)

	msgs := api.messages()
	text, ok := msgs[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	require.Contains(t, text.Text, "s1")

	photo, ok := msgs[1].(tgbotapi.PhotoConfig)
	require.True(t, ok)
	require.Equal(t, int64(42), photo.ChatID)
	require.Contains(t, photo.Caption, "#2")
	require.Contains(t, photo.Caption, "car, dog")

	photo, ok = msgs[2].(tgbotapi.PhotoConfig)
	require.True(t, ok)
	require.Contains(t, photo.Caption, "#4")
}

func TestNotifier_EmptyWatchMatchesAnyAnnotation(t *testing.T) {
	n := newNotifier(&fakeSender{}, 1, "s", nil, time.Second, nil)
	require.True(t, n.matches(tickWith(1, "#3")))
	require.False(t, n.matches(entity.Tick{Seq: 2}))
}
