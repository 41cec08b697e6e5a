package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/websocket"

	"github.com/huddleworks/huddle/internal/id"
	"github.com/huddleworks/huddle/internal/platform/timeouts"
	"github.com/huddleworks/huddle/internal/session"
	"github.com/huddleworks/huddle/internal/session/redisstore"
	"github.com/huddleworks/huddle/internal/session/sqlitestore"
)

const maxDecodeErrorsPerConn = 3

// Config defines the inputs for the realtime transport boundary.
//
// CookieName and CookieSecret must match the HTTP layer that issues session
// cookies; the realtime layer authorizes connections against those sessions
// instead of running a second login.
type Config struct {
	HTTPAddr          string
	CookieName        string
	CookieSecret      string
	RedisAddr         string
	SQLitePath        string
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
}

// Server hosts the realtime HTTP/WebSocket process.
type Server struct {
	httpAddr        string
	shutdownTimeout time.Duration
	httpServer      *http.Server
	store           io.Closer
}

type wsUsernameContextKey struct{}

// NewHandler creates the realtime routes around an authorizer.
//
// Each handler owns its own presence counter and subscriber set, so
// constructing a fresh handler is also the reset hook used by tests.
func NewHandler(authorizer connAuthorizer) http.Handler {
	hub := newHub()
	presence := newPresenceTracker()

	mux := http.NewServeMux()
	mux.HandleFunc("/up", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	wsHandler := websocket.Handler(func(conn *websocket.Conn) {
		handleWSConn(conn, hub, presence)
	})

	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		if authorizer == nil {
			http.Error(w, "websocket auth is not configured", http.StatusServiceUnavailable)
			return
		}

		// If the client disconnects while the store lookup is in flight the
		// request context ends, Authorize returns, and no connection state
		// is ever created.
		username, err := authorizer.Authorize(r.Context(), r)
		if err != nil {
			if errors.Is(err, session.ErrUnavailable) {
				log.Printf("realtime: websocket rejected, session store unavailable: remote=%s err=%v", r.RemoteAddr, err)
			} else {
				log.Printf("realtime: websocket unauthorized: remote=%s err=%v", r.RemoteAddr, err)
			}
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), wsUsernameContextKey{}, username)
		wsHandler.ServeHTTP(w, r.WithContext(ctx))
	})

	return mux
}

func handleWSConn(conn *websocket.Conn, hub *hub, presence *presenceTracker) {
	defer func() {
		_ = conn.Close()
	}()

	request := conn.Request()
	username, _ := request.Context().Value(wsUsernameContextKey{}).(string)
	if strings.TrimSpace(username) == "" {
		// The authorizer accepted the handshake, so a missing identity here
		// means the success path itself is broken. Dying beats letting the
		// presence count drift.
		panic("realtime: websocket session started without an authorized identity")
	}

	connID, err := id.NewID()
	if err != nil {
		panic(fmt.Sprintf("realtime: generate connection id: %v", err))
	}

	peer := newWSPeer(json.NewEncoder(conn))
	c := newConnection(connID, hub, presence, peer)
	defer c.close()

	c.authorize(username)

	decoder := json.NewDecoder(conn)
	decodeErrors := 0
	for {
		var frame wsFrame
		if err := decoder.Decode(&frame); err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			decodeErrors++
			_ = writeWSError(peer, "INVALID_ARGUMENT", "invalid frame payload")
			if decodeErrors >= maxDecodeErrorsPerConn {
				return
			}
			continue
		}
		decodeErrors = 0

		switch frame.Type {
		case "chat.message":
			var payload inboundChatPayload
			if err := json.Unmarshal(frame.Payload, &payload); err != nil {
				_ = writeWSError(peer, "INVALID_ARGUMENT", "invalid chat payload")
				continue
			}
			// Message content is deliberately relayed as-is; empty and
			// whitespace-only messages broadcast like any other.
			c.relayChat(payload.Message)
		default:
			_ = writeWSError(peer, "INVALID_ARGUMENT", "unsupported frame type")
		}
	}
}

// NewServer builds a configured realtime server.
func NewServer(ctx context.Context, config Config) (*Server, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	httpAddr := strings.TrimSpace(config.HTTPAddr)
	if httpAddr == "" {
		return nil, errors.New("http address is required")
	}
	if strings.TrimSpace(config.CookieSecret) == "" {
		return nil, errors.New("session cookie secret is required")
	}
	if config.ReadHeaderTimeout <= 0 {
		config.ReadHeaderTimeout = timeouts.ReadHeader
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = timeouts.Shutdown
	}

	store, closer, err := openSessionStore(ctx, config)
	if err != nil {
		return nil, err
	}

	authorizer := newSessionAuthorizer(strings.TrimSpace(config.CookieName), []byte(config.CookieSecret), store)
	httpServer := &http.Server{
		Addr:              httpAddr,
		Handler:           NewHandler(authorizer),
		ReadHeaderTimeout: config.ReadHeaderTimeout,
	}

	return &Server{
		httpAddr:        httpAddr,
		shutdownTimeout: config.ShutdownTimeout,
		httpServer:      httpServer,
		store:           closer,
	}, nil
}

// Run creates and serves a realtime server until the context ends.
func Run(ctx context.Context, config Config) error {
	server, err := NewServer(ctx, config)
	if err != nil {
		return fmt.Errorf("init realtime server: %w", err)
	}
	defer server.Close()

	if err := server.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("serve realtime: %w", err)
	}
	return nil
}

// ListenAndServe runs the HTTP server until the context ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("realtime server is nil")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	serveErr := make(chan error, 1)
	log.Printf("realtime server listening on %s", s.httpAddr)
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

// Close releases server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.Printf("close session store: %v", err)
		}
	}
}

func openSessionStore(ctx context.Context, config Config) (session.Store, io.Closer, error) {
	if addr := strings.TrimSpace(config.RedisAddr); addr != "" {
		store, err := redisstore.Open(ctx, addr)
		if err != nil {
			return nil, nil, fmt.Errorf("open redis session store: %w", err)
		}
		return store, store, nil
	}
	if path := strings.TrimSpace(config.SQLitePath); path != "" {
		store, err := sqlitestore.Open(path)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite session store: %w", err)
		}
		return store, store, nil
	}
	return nil, nil, errors.New("session store is required: set a redis address or a sqlite path")
}
