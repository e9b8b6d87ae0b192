package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/loftwing/cinesync/config"
	"github.com/loftwing/cinesync/internal/hub"
	"github.com/loftwing/cinesync/internal/signal"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin checking is handled by middleware.
		return true
	},
}

// HandleSignaling upgrades the connection, assigns it an id, wires the
// pumps to the dispatcher and greets the client with its id.
func HandleSignaling(cfg *config.Config, h *hub.Hub, d *signal.Dispatcher, ids signal.IDGenerator) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Error().Err(err).Str("module", "handlers").Msg("websocket upgrade")
			return
		}

		connID := ids.NewID()
		client := h.Register(connID, ws)
		sess := &signal.Session{ID: connID}

		d.Connected(sess)
		log.Info().Str("module", "handlers").Str("conn", connID).Int("connections", h.ConnectionCount()).Msg("client connected")

		go client.WritePump(cfg.PingPeriod)
		go client.ReadPump(cfg.ReadLimit,
			func(raw []byte) { d.Dispatch(sess, raw) },
			func() {
				d.Disconnected(sess)
				h.Unregister(connID)
				log.Info().Str("module", "handlers").Str("conn", connID).Msg("client disconnected")
			})
	}
}
