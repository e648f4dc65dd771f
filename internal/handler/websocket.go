package handler

import (
	"net/http"

	"gowa-pairing/internal/ws"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// origin sudah dibatasi oleh middleware CORS
		return true
	},
}

// WebSocketHandler meng-handle koneksi WS di route /ws.
// ?session=<id> membatasi stream ke satu session.
func WebSocketHandler(hub *ws.Hub) echo.HandlerFunc {
	return func(c echo.Context) error {
		conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			c.Logger().Errorf("ws upgrade error: %v", err)
			return err
		}

		client := ws.NewClient(hub, conn, c.QueryParam("session"))
		hub.Register(client)

		go client.WritePump()
		go client.ReadPump()

		return nil
	}
}
