package channels

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hearthmind/hearthmind/internal/agent"
	"github.com/hearthmind/hearthmind/internal/config/channel"
	"github.com/hearthmind/hearthmind/internal/schema"
	"github.com/hearthmind/hearthmind/internal/session"
)

// WebSocketChannel accepts WebSocket connections and serves each one through
// its own session coordinator, so a connected client gets the same streaming
// and mid-turn-input behaviour as the terminal.
type WebSocketChannel struct {
	Base
	cfg      *channel.WebSocketConfig
	upgrader websocket.Upgrader
}

func NewWebSocketChannel(cfg *channel.WebSocketConfig, respond Responder) *WebSocketChannel {
	return &WebSocketChannel{
		Base: NewBase("websocket", respond, schema.TextOnly(), cfg.AllowFrom),
		cfg:  cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

func (w *WebSocketChannel) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc(w.cfg.Path, func(rw http.ResponseWriter, r *http.Request) {
		w.handleConn(ctx, rw, r)
	})

	srv := &http.Server{Addr: w.cfg.Listen, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("websocket: listening", "addr", w.cfg.Listen, "path", w.cfg.Path)
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return ctx.Err()
	}
	return err
}

func (w *WebSocketChannel) handleConn(ctx context.Context, rw http.ResponseWriter, r *http.Request) {
	conn, err := w.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		slog.Warn("websocket: upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	// The client identity: ?client=<id> when present, remote address otherwise.
	client := r.URL.Query().Get("client")
	if client == "" {
		client = conn.RemoteAddr().String()
	}
	slog.Info("websocket: client connected", "client", client)

	stream := &wsStream{conn: conn}
	coord := session.NewCoordinator(stream, stream,
		func(ctx context.Context, text string, source agent.MessageSource, onDelta agent.DeltaFunc) (string, error) {
			answer, _, err := w.Dispatch(ctx, Request{
				SenderID: client,
				ChatID:   client,
				Text:     text,
				Source:   source,
				OnDelta:  onDelta,
			})
			return answer, err
		})

	if err := coord.Run(ctx); err != nil && ctx.Err() == nil {
		slog.Debug("websocket: session ended", "client", client, "err", err)
	}
}

// wsStream adapts one WebSocket connection to the byte-stream contract of
// the coordinator. Each inbound message becomes a newline-terminated chunk;
// writes go out as text frames. The coordinator is the only writer.
type wsStream struct {
	conn *websocket.Conn
	buf  []byte
}

func (s *wsStream) Read(p []byte) (int, error) {
	for len(s.buf) == 0 {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return 0, io.EOF
		}
		s.buf = append(data, '\n')
	}
	n := copy(p, s.buf)
	s.buf = s.buf[n:]
	return n, nil
}

func (s *wsStream) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if err := s.conn.WriteMessage(websocket.TextMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}
