package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"validator-explorer/internal/observability"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

type eraMessage struct {
	Chain     string `json:"chain"`
	ActiveEra uint32 `json:"activeEra"`
}

// Origins are checked by the CORS middleware of the API routes.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// eraFeed upgrades to a websocket that receives the active era on connect
// and on every change.
func (s *Server) eraFeed(c *gin.Context) {
	chain := chainOf(c)
	ctx := c.Request.Context()

	current, err := chain.Validators.CurrentEra(ctx)
	if err != nil {
		s.abort(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.WithError(err).Debug("era feed upgrade failed")
		return
	}
	defer conn.Close()

	updates, cancel := s.feed.Subscribe(chain.Alias)
	defer cancel()
	observability.AddWSClients(chain.Alias, 1)
	defer observability.AddWSClients(chain.Alias, -1)

	// The reader only drains control frames and notices the peer leaving.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func(era uint32) error {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(eraMessage{Chain: chain.Alias, ActiveEra: era})
	}
	if err := send(current); err != nil {
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case era := <-updates:
			if err := send(era); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-closed:
			return
		case <-ctx.Done():
			return
		}
	}
}
