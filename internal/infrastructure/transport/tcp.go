package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"nn-client/internal/domain/port"
)

// DefaultReadSize размер одного чтения из сокета
const DefaultReadSize = 4096

// TCPTransport соединение с inference-сервером.
// Используется из одной горутины: чтение и запись чередуются циклом обмена.
type TCPTransport struct {
	conn   net.Conn
	buf    []byte
	closed bool // сервер закрыл соединение
}

// Dial подключается к серверу. Ошибка подключения фатальна, повторов нет.
func Dial(ctx context.Context, address string) (*TCPTransport, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", address, err)
	}
	return NewTCPTransport(conn, DefaultReadSize), nil
}

// NewTCPTransport оборачивает уже установленное соединение
func NewTCPTransport(conn net.Conn, readSize int) *TCPTransport {
	if readSize <= 0 {
		readSize = DefaultReadSize
	}
	return &TCPTransport{
		conn: conn,
		buf:  make([]byte, readSize),
	}
}

// Read возвращает то, что уже пришло, ожидая не дольше timeout.
// Возвращённый срез принадлежит вызывающему.
func (t *TCPTransport) Read(timeout time.Duration) ([]byte, error) {
	if t.closed {
		return nil, io.EOF
	}

	if err := t.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		// net.Pipe сообщает о закрытии второй стороны уже здесь
		if errors.Is(err, io.ErrClosedPipe) {
			t.closed = true
			return nil, io.EOF
		}
		return nil, fmt.Errorf("set read deadline: %w", err)
	}

	n, err := t.conn.Read(t.buf)
	if n > 0 {
		// данные отдаём сразу, ошибку (если была) вернёт следующий Read
		out := make([]byte, n)
		copy(out, t.buf[:n])
		return out, nil
	}

	switch {
	case err == nil:
		return nil, nil
	case isTimeout(err):
		return nil, nil
	case errors.Is(err, io.EOF):
		t.closed = true
		return nil, io.EOF
	default:
		return nil, fmt.Errorf("read: %w", err)
	}
}

// Write отправляет буфер целиком
func (t *TCPTransport) Write(p []byte) error {
	if err := t.conn.SetWriteDeadline(time.Time{}); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	for len(p) > 0 {
		n, err := t.conn.Write(p)
		if err != nil {
			return fmt.Errorf("write: %w", err)
		}
		p = p[n:]
	}
	return nil
}

// Close закрывает соединение
func (t *TCPTransport) Close() error {
	return t.conn.Close()
}

// RemoteAddr адрес сервера
func (t *TCPTransport) RemoteAddr() string {
	return t.conn.RemoteAddr().String()
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// Проверка реализации интерфейса
var _ port.Transport = (*TCPTransport)(nil)
