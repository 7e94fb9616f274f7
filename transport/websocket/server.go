package websocket

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/YoonKyungHan/baseball/internal/protocol"
)

type engine interface {
	Submit(conn protocol.Sender, intent protocol.Intent)
	Disconnect(conn protocol.Sender)
}

type Server struct {
	logger   *slog.Logger
	engine   engine
	upgrader websocket.Upgrader
}

func New(logger *slog.Logger, engine engine) *Server {
	return &Server{
		logger: logger.With("component", "websocket"),
		engine: engine,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(_ *http.Request) bool {
				return true
			},
		},
	}
}

// Start serves the websocket endpoint until the listener fails.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.serveConnection(ctx, w, r)
	})

	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     mux,
		ReadTimeout: 0, // connections are long lived
		IdleTimeout: 30 * time.Second,
	}

	if err := srv.ListenAndServe(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

func (that *Server) serveConnection(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "serveConnection")

	conn, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	client := newClient(that.logger, conn)
	go client.writeLoop()

	log.Info("connection established", "remote", conn.RemoteAddr().String())

	that.readLoop(ctx, client)

	that.engine.Disconnect(client)
	client.close()

	log.Info("connection closed", "remote", conn.RemoteAddr().String())
}

func (that *Server) readLoop(ctx context.Context, client *Client) {
	log := that.logger.With("method", "readLoop")

	for {
		if ctx.Err() != nil {
			return
		}

		_, message, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error("unexpected close", "error", err)
			}
			return
		}

		intent, err := protocol.ParseIntent(message)
		if err != nil {
			log.Warn("ignoring malformed message", "error", err)
			continue
		}

		that.engine.Submit(client, intent)
	}
}
