package storage

import (
	"bufio"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"

	"nn-client/internal/domain/entity"
	"nn-client/internal/domain/port"
)

const (
	recordMagic      = "NNCLREC1"
	recordHeaderSize = 12
	// maxRecordSize защищает от чтения битого файла
	maxRecordSize = 64 << 20
)

// Record одна запись сессии
type Record struct {
	Seq         uint64           `cbor:"seq" json:"seq"`
	Model       entity.ModelInfo `cbor:"model" json:"model"`
	Raw         json.RawMessage  `cbor:"raw" json:"result"`
	Annotations int              `cbor:"annotations" json:"annotations"`
	Summary     string           `cbor:"summary" json:"summary"`
}

// SessionRecorder пишет ответы сервера в файл: magic, затем записи
// [unix nanos u64 LE][длина u32 LE][CBOR].
type SessionRecorder struct {
	mu   sync.Mutex
	f    *os.File
	w    *bufio.Writer
	path string
}

// NewSessionRecorder создаёт файл записи сессии в каталоге dir.
// Существующий файл не перезаписывается.
func NewSessionRecorder(dir, session string) (*SessionRecorder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	timestamp := time.Now().Format("20060102_150405")
	path := filepath.Join(dir, fmt.Sprintf("%s_%s_session.bin", timestamp, session))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create recording: %w", err)
	}
	w := bufio.NewWriterSize(f, 256*1024)
	if _, err := w.WriteString(recordMagic); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return nil, err
	}
	return &SessionRecorder{
		f:    f,
		w:    w,
		path: path,
	}, nil
}

// Path путь к файлу записи
func (r *SessionRecorder) Path() string {
	return r.path
}

// Record дописывает запись в файл
func (r *SessionRecorder) Record(ts time.Time, rec Record) error {
	payload, err := cbor.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.w == nil {
		return errors.New("session recorder is closed")
	}
	var header [recordHeaderSize]byte
	binary.LittleEndian.PutUint64(header[:8], uint64(ts.UnixNano()))
	binary.LittleEndian.PutUint32(header[8:12], uint32(len(payload)))
	if _, err := r.w.Write(header[:]); err != nil {
		return err
	}
	if _, err := r.w.Write(payload); err != nil {
		return err
	}
	return r.w.Flush()
}

// Observe записывает каждый обмен
func (r *SessionRecorder) Observe(ctx context.Context, info entity.ModelInfo, tick entity.Tick, frame port.Frame) error {
	return r.Record(tick.Time, Record{
		Seq:         tick.Seq,
		Model:       info,
		Raw:         tick.Raw,
		Annotations: len(tick.Annotations),
		Summary:     tick.Summary(),
	})
}

// Close сбрасывает буфер и закрывает файл
func (r *SessionRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.w == nil {
		return nil
	}
	if err := r.w.Flush(); err != nil {
		_ = r.f.Close()
		r.w = nil
		return err
	}
	err := r.f.Close()
	r.w = nil
	return err
}

// ReadRecords читает записи сессии и передаёт их в fn по порядку
func ReadRecords(src io.Reader, fn func(ts time.Time, rec Record) error) error {
	magic := make([]byte, len(recordMagic))
	if _, err := io.ReadFull(src, magic); err != nil {
		return fmt.Errorf("read magic: %w", err)
	}
	if string(magic) != recordMagic {
		return fmt.Errorf("unexpected record magic %q", string(magic))
	}

	for {
		var header [recordHeaderSize]byte
		if _, err := io.ReadFull(src, header[:]); err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("read record header: %w", err)
		}
		ts := int64(binary.LittleEndian.Uint64(header[:8]))
		size := binary.LittleEndian.Uint32(header[8:12])
		if size > maxRecordSize {
			return fmt.Errorf("record too large: %d bytes", size)
		}

		payload := make([]byte, size)
		if _, err := io.ReadFull(src, payload); err != nil {
			return fmt.Errorf("read record payload: %w", err)
		}

		var rec Record
		if err := cbor.Unmarshal(payload, &rec); err != nil {
			return fmt.Errorf("decode record: %w", err)
		}
		if err := fn(time.Unix(0, ts), rec); err != nil {
			return err
		}
	}
}

// Проверка реализации интерфейса
var _ port.TickObserver = (*SessionRecorder)(nil)
