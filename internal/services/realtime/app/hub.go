package server

import (
	"encoding/json"
	"log"
	"sync"
)

// wsFrame is the typed JSON envelope exchanged over a websocket.
type wsFrame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type presencePayload struct {
	Username     string `json:"username"`
	CurrentUsers int    `json:"current_users"`
	Connected    bool   `json:"connected"`
}

type chatMessagePayload struct {
	Username string `json:"username"`
	Message  string `json:"message"`
}

type inboundChatPayload struct {
	Message string `json:"message"`
}

type wsErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// wsPeer serializes writes to one websocket so interleaved broadcasts never
// corrupt a frame.
type wsPeer struct {
	mu      sync.Mutex
	encoder *json.Encoder
}

func newWSPeer(encoder *json.Encoder) *wsPeer {
	return &wsPeer{encoder: encoder}
}

func (p *wsPeer) writeFrame(frame wsFrame) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.encoder.Encode(frame)
}

// hub fans events out to every subscribed peer.
//
// Delivery is at-most-once and best-effort: a write failure to one peer is
// ignored and never affects the others, and a peer that is not subscribed
// at broadcast time never sees the event. Broadcasts issued sequentially by
// one goroutine reach every common recipient in issue order because the
// fan-out loop runs on the issuing goroutine and each peer write is
// serialized by the peer mutex.
type hub struct {
	mu    sync.Mutex
	peers map[*wsPeer]struct{}
}

func newHub() *hub {
	return &hub{peers: make(map[*wsPeer]struct{})}
}

func (h *hub) join(peer *wsPeer) {
	h.mu.Lock()
	h.peers[peer] = struct{}{}
	h.mu.Unlock()
}

func (h *hub) leave(peer *wsPeer) {
	h.mu.Lock()
	delete(h.peers, peer)
	h.mu.Unlock()
}

func (h *hub) size() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.peers)
}

// broadcast delivers the frame to a snapshot of the current subscribers.
func (h *hub) broadcast(frame wsFrame) {
	h.mu.Lock()
	peers := make([]*wsPeer, 0, len(h.peers))
	for peer := range h.peers {
		peers = append(peers, peer)
	}
	h.mu.Unlock()

	for _, peer := range peers {
		_ = peer.writeFrame(frame)
	}
}

func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		log.Printf("failed to marshal websocket frame payload: %v", err)
		return nil
	}
	return b
}

func presenceFrame(username string, currentUsers int, connected bool) wsFrame {
	return wsFrame{
		Type: "presence",
		Payload: mustJSON(presencePayload{
			Username:     username,
			CurrentUsers: currentUsers,
			Connected:    connected,
		}),
	}
}

func chatMessageFrame(username string, message string) wsFrame {
	return wsFrame{
		Type: "chat.message",
		Payload: mustJSON(chatMessagePayload{
			Username: username,
			Message:  message,
		}),
	}
}

func writeWSError(peer *wsPeer, code string, message string) error {
	return peer.writeFrame(wsFrame{
		Type: "chat.error",
		Payload: mustJSON(wsErrorPayload{
			Code:    code,
			Message: message,
		}),
	})
}
