// Package ws streams the live dashboard to browsers over WebSocket.
//
// Every frame has the shape
//
//	{"event": "dashboard", "data": {"snapshot": {...}, "health": {...}, "generated_at": "RFC3339"}}
//
// A client gets one frame on connect and one per broadcast interval after
// that. The collector mounts the hub at /ws/stream.
package ws
