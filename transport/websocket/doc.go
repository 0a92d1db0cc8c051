// Package websocket streams board changes to renderers.
//
// A central Hub keeps the connected clients of each play session. Every
// client gets a snapshot of the board when it connects and afterwards one
// JSON message per frame:
//
//	snapshot    the whole grid with targets
//	transition  the move outcome plus the cells it changed
//	solved      sent once when the last box lands on a target
//	reset       the restored grid after a reset
//
// Renderers redraw only the cells listed in a transition message. The feed is
// one-way; anything a client sends is read and discarded.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run()
//
//	svc := service.NewGameService(sessions, catalogue, bounds, service.WithPublisher(hub))
//
//	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, sessionID, state)
//	})
package websocket
