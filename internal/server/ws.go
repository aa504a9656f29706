package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/ayusman/stylecam/internal/app"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// EventsHandler pushes pipeline notifications to websocket clients.
type EventsHandler struct {
	app *app.App
	log logrus.FieldLogger
}

// NewEventsHandler creates a new EventsHandler for a.
func NewEventsHandler(a *app.App, logger logrus.FieldLogger) *EventsHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &EventsHandler{app: a, log: logger.WithField("handler", "events")}
}

// ServeHTTP upgrades the connection and relays events until the client
// goes away.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Subscribed before the handshake completes so no event is missed.
	events := h.app.Subscribe()
	defer h.app.Unsubscribe(events)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	// Clients only send close frames; reading detects the disconnect.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-gone:
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(e); err != nil {
				h.log.WithError(err).Debug("Event client dropped")
				return
			}
		}
	}
}
