package decoder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"nn-client/internal/domain/port"
)

const (
	DefaultReadTimeout     = time.Second
	DefaultMaxMessageBytes = 16 << 20
)

var (
	// ErrMalformedMessage в потоке встретился фрагмент, который никогда не станет валидным JSON
	ErrMalformedMessage = errors.New("malformed json message")
	// ErrMessageTooLarge незавершённое сообщение превысило лимит буфера
	ErrMessageTooLarge = errors.New("json message exceeds buffer limit")
)

// Source то, из чего декодер читает байты
type Source interface {
	Read(timeout time.Duration) ([]byte, error)
}

// StreamDecoder собирает целые JSON-значения из произвольно нарезанного потока байт.
// Один json.Decoder живёт всю сессию, поэтому уже просмотренные байты не сканируются повторно.
// Не перезапускается: после io.EOF или ошибки все вызовы Next возвращают её же.
type StreamDecoder struct {
	in  *sourceReader
	dec *json.Decoder

	base int64 // смещение начала текущего json.Decoder в потоке
	err  error
}

// New создаёт декодер поверх src
func New(src Source, readTimeout time.Duration, maxMessageBytes int) *StreamDecoder {
	if readTimeout <= 0 {
		readTimeout = DefaultReadTimeout
	}
	if maxMessageBytes <= 0 {
		maxMessageBytes = DefaultMaxMessageBytes
	}
	d := &StreamDecoder{}
	d.in = &sourceReader{
		src:      src,
		timeout:  readTimeout,
		maxBytes: int64(maxMessageBytes),
		pending:  d.pending,
	}
	d.dec = json.NewDecoder(d.in)
	return d
}

// Next возвращает следующее целое JSON-значение.
// Если в буфере уже лежит готовое значение, чтения из сокета не происходит.
func (d *StreamDecoder) Next(ctx context.Context) (json.RawMessage, error) {
	if d.err != nil {
		return nil, d.err
	}

	d.in.ctx = ctx
	defer func() { d.in.ctx = nil }()

	var raw json.RawMessage
	err := d.dec.Decode(&raw)
	if err == nil {
		// число, оборванное закрытием соединения, могло быть не дописано
		if d.in.closed && isNumberStart(raw[0]) {
			d.err = io.EOF
			return nil, d.err
		}
		return raw, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		d.restart()
		return nil, err
	}

	var syntaxErr *json.SyntaxError
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		d.err = io.EOF
	case errors.As(err, &syntaxErr):
		d.err = fmt.Errorf("%w: %s at byte %d", ErrMalformedMessage, syntaxErr.Error(), d.base+syntaxErr.Offset)
	case errors.Is(err, ErrMessageTooLarge), errors.Is(err, errRead):
		d.err = err
	default:
		d.err = fmt.Errorf("%w: %s", ErrMalformedMessage, err.Error())
	}
	return nil, d.err
}

// Buffered количество байт, ожидающих продолжения
func (d *StreamDecoder) Buffered() int {
	if d.err != nil {
		return 0
	}
	return int(d.pending()) + len(d.in.buf)
}

// pending сколько байт json.Decoder получил, но ещё не отдал значением
func (d *StreamDecoder) pending() int64 {
	return d.in.delivered - (d.base + d.dec.InputOffset())
}

// restart заменяет json.Decoder после отмены контекста: его ошибка залипает,
// а недочитанное значение возвращается в начало входа.
func (d *StreamDecoder) restart() {
	rest, _ := io.ReadAll(d.dec.Buffered())
	d.base += d.dec.InputOffset()
	d.in.delivered -= int64(len(rest))
	d.in.buf = append(rest, d.in.buf...)
	d.dec = json.NewDecoder(d.in)
}

// errRead ошибка чтения из источника
var errRead = errors.New("read message")

// sourceReader отдаёт json.Decoder байты Source, повторяя чтение после таймаутов.
// Перед каждым чтением проверяются лимит буфера и контекст.
type sourceReader struct {
	src      Source
	timeout  time.Duration
	maxBytes int64
	pending  func() int64
	ctx      context.Context

	buf       []byte // прочитано из src, но ещё не отдано
	delivered int64
	closed    bool
}

func (r *sourceReader) Read(p []byte) (int, error) {
	for len(r.buf) == 0 {
		if r.closed {
			return 0, io.EOF
		}
		if pending := r.pending(); pending > r.maxBytes {
			return 0, fmt.Errorf("%w: %d bytes pending, limit %d", ErrMessageTooLarge, pending, r.maxBytes)
		}
		// контекст проверяем только между чтениями
		if r.ctx != nil {
			if err := r.ctx.Err(); err != nil {
				return 0, err
			}
		}

		data, err := r.src.Read(r.timeout)
		if err != nil {
			if errors.Is(err, io.EOF) {
				r.closed = true
				return 0, io.EOF
			}
			return 0, fmt.Errorf("%w: %w", errRead, err)
		}
		r.buf = data
	}

	n := copy(p, r.buf)
	r.buf = r.buf[n:]
	r.delivered += int64(n)
	return n, nil
}

func isNumberStart(c byte) bool {
	return c == '-' || (c >= '0' && c <= '9')
}

// Проверка реализации интерфейса
var _ port.MessageSource = (*StreamDecoder)(nil)
