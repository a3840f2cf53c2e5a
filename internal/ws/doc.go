// Package ws streams popup cards to viewers over WebSocket.
//
// Hub implements display.Publisher. Each client gets a buffered send queue
// drained by its own write pump; Publish never blocks, and a client whose
// queue is full is disconnected.
//
// Message Types (Client → Server):
//   - ping: Keep-alive ping
//
// Message Types (Server → Client):
//   - system: Connection greeting
//   - popup: A card was shown (the latest card is replayed on connect)
//   - pong: Reply to ping
//   - error: Unknown message type
//
// Example Usage:
//
//	hub := ws.NewHub(cfg.Display.ClientBuffer, logger.Component("ws"))
//	popup := display.NewPopup(hub, logger.Component("display"))
//	router.GET("/stream", hub.HandleConnection)
package ws
