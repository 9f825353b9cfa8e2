// Package listener exposes the game over websocket endpoints: one for
// players, one for read-only dashboard observers.
package listener

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pixil98/go-geoquest/internal/game"
	"github.com/pixil98/go-geoquest/internal/message"
)

// Connection-establishment metadata travels in headers, not as an
// application message.
const (
	headerName      = "geo-name"
	headerPassword  = "geo-password"
	headerLatitude  = "geo-latitude"
	headerLongitude = "geo-longitude"
	headerVersion   = "geo-version"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Game is the coordinator surface the transport needs.
type Game interface {
	Login(name, password string, pos game.Position, sink message.Sink) bool
	Logout(name string)
	ReceiveFrom(name string) message.ServerHandler
	AddObserver(id string, sink message.Sink)
	RemoveObserver(id string)
}

type WsListener struct {
	port uint16
	game Game

	// buildVersion is the server build timestamp clients are checked
	// against on connect.
	buildVersion int64
	now          func() time.Time
}

func NewWsListener(port uint16, g Game, opts ...WsListenerOpt) *WsListener {
	l := &WsListener{
		port: port,
		game: g,
		now:  time.Now,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

func (l *WsListener) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/game", l.handleGame)
	mux.HandleFunc("/ws/dashboard", l.handleDashboard)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	svr := &http.Server{
		Addr:    fmt.Sprintf(":%d", l.port),
		Handler: mux,
	}

	// done signals that Start is returning (either success or failure)
	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := svr.Shutdown(shutdownCtx); err != nil {
				slog.Warn("shutting down websocket listener", "error", err)
			}
		case <-done:
		}
	}()

	slog.InfoContext(ctx, "websocket listener starting", "port", l.port)

	err := svr.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	if errors.Is(err, syscall.EADDRINUSE) {
		return fmt.Errorf("port %d is already in use (another server running?)", l.port)
	}
	return fmt.Errorf("serving websocket on port %d: %w", l.port, err)
}

func (l *WsListener) handleGame(w http.ResponseWriter, r *http.Request) {
	name := r.Header.Get(headerName)
	password := r.Header.Get(headerPassword)
	pos := parsePosition(r.Header.Get(headerLatitude), r.Header.Get(headerLongitude))
	version, _ := strconv.ParseInt(r.Header.Get(headerVersion), 10, 64)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("upgrading game connection", "error", err)
		return
	}

	c := newConnection(conn, l.now)
	c.handler = l.game.ReceiveFrom(name)
	c.onClose = func() { l.game.Logout(name) }
	go c.drainLoop()
	go c.readLoop()

	// Login reports its own failure to the sink; the sentinel makes
	// sure the error is transmitted before the socket closes.
	if !l.game.Login(name, password, pos, c) {
		c.Send(message.Disconnect{})
		return
	}
	if version < l.buildVersion {
		c.Send(message.Error{Text: "your client is out of date, please update"})
	}
}

// parsePosition returns the zero position on any parse failure; login
// rejects the zero position as missing data.
func parsePosition(lat, lng string) game.Position {
	latitude, errLat := strconv.ParseFloat(lat, 64)
	longitude, errLng := strconv.ParseFloat(lng, 64)
	if errLat != nil || errLng != nil {
		return game.Position{}
	}
	return game.Position{Latitude: latitude, Longitude: longitude}
}
