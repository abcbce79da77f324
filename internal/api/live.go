package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

const livePushInterval = 200 * time.Millisecond

// LiveHandler streams the published snapshot over a websocket until the client
// goes away.
func (app *App) LiveHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	closed := make(chan struct{})
	go func() {
		// the client sends nothing meaningful; reads just detect the close
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(livePushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if err := conn.WriteJSON(app.Controller.Snapshot()); err != nil {
				app.Log.Debug("live feed client dropped", zap.Error(err))
				return
			}
		}
	}
}
