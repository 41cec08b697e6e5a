// Package realtime hosts the presence and chat-broadcast service: a
// WebSocket endpoint authorized against pre-existing HTTP sessions, a
// process-wide presence counter, and best-effort fan-out of chat and
// presence events to every connected peer.
package realtime
