package listener

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/pixil98/go-geoquest/internal/game"
	"github.com/pixil98/go-geoquest/internal/message"
)

func (l *WsListener) handleDashboard(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("upgrading dashboard connection", "error", err)
		return
	}

	id := uuid.NewString()
	c := newConnection(conn, l.now)
	c.handler = observerHandler{c}
	c.onClose = func() { l.game.RemoveObserver(id) }

	// Registration must precede the pumps: once the read loop runs, a
	// client close triggers RemoveObserver, which requires the id to be
	// known already.
	l.game.AddObserver(id, c)
	go c.drainLoop()
	go c.readLoop()
}

// observerHandler answers heartbeats and drops everything else, since
// observers hold no session to mutate.
type observerHandler struct {
	c *Connection
}

func (h observerHandler) AttackEnemy(game.EnemyID) {}

func (h observerHandler) EquipItem(game.ItemID) {}

func (h observerHandler) UnequipItem(game.ItemID) {}

func (h observerHandler) UpdateLookingPosition(game.Position) {}

func (h observerHandler) UpdateRealPosition(game.Position) {}

func (h observerHandler) Ping() { h.c.Send(message.Pong{}) }

func (h observerHandler) Pong() {}
