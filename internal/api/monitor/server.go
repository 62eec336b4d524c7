package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"nn-client/internal/domain/entity"
	"nn-client/internal/domain/port"
)

const (
	writeWait = 10 * time.Second
	pongWait  = 60 * time.Second
	pingEvery = (pongWait * 9) / 10

	// queueSize сколько тиков ждут рассылки; лишние отбрасываются
	queueSize = 64
)

// Message сообщение для websocket-клиентов
type Message struct {
	Type        string              `json:"type"`
	Session     string              `json:"session"`
	Model       *entity.ModelInfo   `json:"model,omitempty"`
	Seq         uint64              `json:"seq,omitempty"`
	Time        time.Time           `json:"time,omitempty"`
	Result      json.RawMessage     `json:"result,omitempty"`
	Annotations []entity.Annotation `json:"annotations,omitempty"`
	Summary     string              `json:"summary,omitempty"`
}

// Server отдаёт результаты сессии по HTTP и websocket
type Server struct {
	upgrader websocket.Upgrader
	clients  map[*websocket.Conn]*sync.Mutex
	mu       sync.Mutex
	repo     port.TickRepository
	session  string
	logger   *slog.Logger
	queue    chan []byte
	dropped  atomic.Uint64
}

// New создаёт сервер мониторинга поверх хранилища результатов
func New(repo port.TickRepository, session string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]*sync.Mutex),
		repo:    repo,
		session: session,
		logger:  logger,
		queue:   make(chan []byte, queueSize),
	}
}

// Handler маршруты сервера
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/status", s.handleStatus)
	return mux
}

// Run слушает addr до отмены ctx
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	go s.Broadcast(ctx)

	s.logger.Info("monitor listening", "addr", addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Observe ставит тик в очередь рассылки, не блокируя цикл обмена
func (s *Server) Observe(ctx context.Context, info entity.ModelInfo, tick entity.Tick, frame port.Frame) error {
	payload, err := json.Marshal(Message{
		Type:        "tick",
		Session:     s.session,
		Seq:         tick.Seq,
		Time:        tick.Time,
		Result:      tick.Raw,
		Annotations: tick.Annotations,
		Summary:     tick.Summary(),
	})
	if err != nil {
		return err
	}

	select {
	case s.queue <- payload:
	default:
		s.dropped.Add(1)
	}
	return nil
}

// Broadcast рассылает тики всем подключённым клиентам
func (s *Server) Broadcast(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case payload := <-s.queue:
			// запись идёт по копии списка, без s.mu
			for conn, writeMu := range s.snapshot() {
				if err := s.writeMessage(conn, writeMu, websocket.TextMessage, payload); err != nil {
					s.removeClient(conn)
				}
			}
		}
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	conn.SetReadLimit(1 << 16)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	writeMu := &sync.Mutex{}
	s.mu.Lock()
	s.clients[conn] = writeMu
	s.mu.Unlock()

	if info, ok, err := s.repo.Model(r.Context()); err == nil && ok {
		_ = s.writeJSON(conn, writeMu, Message{Type: "model", Session: s.session, Model: &info})
	}

	go func() {
		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(pingEvery)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					if err := s.writeMessage(conn, writeMu, websocket.PingMessage, nil); err != nil {
						_ = conn.Close()
						return
					}
				}
			}
		}()
		defer close(done)
		defer s.removeClient(conn)
		// клиенту писать нечего, читаем только ради pong и закрытия
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	payload := map[string]any{
		"session":    s.session,
		"ws_clients": s.clientCount(),
		"dropped":    s.dropped.Load(),
	}
	if info, ok, err := s.repo.Model(ctx); err == nil && ok {
		payload["model"] = info
	}
	if stats, err := s.repo.Stats(ctx); err == nil {
		payload["stats"] = stats
	}
	if tick, ok, err := s.repo.Latest(ctx); err == nil && ok {
		payload["latest"] = tick
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

func (s *Server) removeClient(conn *websocket.Conn) {
	s.mu.Lock()
	delete(s.clients, conn)
	s.mu.Unlock()
	conn.Close()
}

func (s *Server) snapshot() map[*websocket.Conn]*sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	clients := make(map[*websocket.Conn]*sync.Mutex, len(s.clients))
	for conn, writeMu := range s.clients {
		clients[conn] = writeMu
	}
	return clients
}

func (s *Server) clientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) writeJSON(conn *websocket.Conn, writeMu *sync.Mutex, payload any) error {
	writeMu.Lock()
	defer writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(payload)
}

func (s *Server) writeMessage(conn *websocket.Conn, writeMu *sync.Mutex, messageType int, payload []byte) error {
	writeMu.Lock()
	defer writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(messageType, payload)
}

// Проверка реализации интерфейса
var _ port.TickObserver = (*Server)(nil)
