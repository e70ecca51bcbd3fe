package devserver

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/naveenspark/hackforge/internal/events"
)

const writeTimeout = 3 * time.Second

// sockets tracks open websocket connections by user.
type sockets struct {
	logger *zap.Logger

	mu    sync.Mutex
	conns map[*websocket.Conn]string
}

func newSockets(logger *zap.Logger) *sockets {
	return &sockets{logger: logger, conns: make(map[*websocket.Conn]string)}
}

func (ss *sockets) add(c *websocket.Conn, userID string) {
	ss.mu.Lock()
	ss.conns[c] = userID
	ss.mu.Unlock()
}

func (ss *sockets) remove(c *websocket.Conn) {
	ss.mu.Lock()
	delete(ss.conns, c)
	ss.mu.Unlock()
}

func (ss *sockets) count() int {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return len(ss.conns)
}

// send writes an event to the connections of userID, or to all when userID is "".
func (ss *sockets) send(userID string, kind events.Kind, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		ss.logger.Error("marshal event", zap.String("event", string(kind)), zap.Error(err))
		return
	}
	frame, err := json.Marshal(events.Event{Kind: kind, Payload: payload})
	if err != nil {
		ss.logger.Error("marshal frame", zap.Error(err))
		return
	}

	ss.mu.Lock()
	targets := make([]*websocket.Conn, 0, len(ss.conns))
	for c, owner := range ss.conns {
		if userID == "" || owner == userID {
			targets = append(targets, c)
		}
	}
	ss.mu.Unlock()

	for _, c := range targets {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		if err := c.Write(ctx, websocket.MessageText, frame); err != nil {
			ss.logger.Debug("push failed", zap.String("event", string(kind)), zap.Error(err))
		}
		cancel()
	}
}

func (ss *sockets) closeAll() {
	ss.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(ss.conns))
	for c := range ss.conns {
		conns = append(conns, c)
	}
	ss.mu.Unlock()
	for _, c := range conns {
		_ = c.Close(websocket.StatusGoingAway, "server shutting down") //nolint:errcheck
	}
}

// handleSocket upgrades /ws?userId=&token= for the token's owner.
func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID, tok := q.Get("userId"), q.Get("token")
	if userID == "" {
		http.Error(w, "missing userId", http.StatusBadRequest)
		return
	}
	s.mu.RLock()
	owner, ok := s.tokens[tok]
	s.mu.RUnlock()
	if !ok || owner != userID {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// Local development only: terminals and browsers on any port.
		InsecureSkipVerify: true,
	})
	if err != nil {
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye") //nolint:errcheck

	s.sockets.add(conn, userID)
	defer s.sockets.remove(conn)
	s.logger.Info("socket connected", zap.String("user_id", userID))

	// Clients only listen; drain until they leave.
	for {
		if _, _, err := conn.Read(r.Context()); err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			default:
				s.logger.Debug("socket read", zap.Error(err))
			}
			s.logger.Info("socket disconnected", zap.String("user_id", userID))
			return
		}
	}
}
