package chat

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/Belphemur/BangumiBridge/internal/config"
	"github.com/Belphemur/BangumiBridge/internal/interaction"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	maxFrameSize   = 64 << 10
	incomingBuffer = 16
)

// wsSession is one websocket conversation. It implements interaction.Channel.
// A single goroutine reads frames; replies are handed out in arrival order.
type wsSession struct {
	conn     *websocket.Conn
	userID   int64
	writeMu  sync.Mutex
	incoming chan interaction.Reply
	done     chan struct{}
	closeErr error
	once     sync.Once
}

func newSession(conn *websocket.Conn, userID int64) *wsSession {
	conn.SetReadLimit(maxFrameSize)
	return &wsSession{
		conn:     conn,
		userID:   userID,
		incoming: make(chan interaction.Reply, incomingBuffer),
		done:     make(chan struct{}),
	}
}

// readLoop decodes inbound frames until the connection fails.
func (s *wsSession) readLoop() {
	logger := config.GetLogger()
	defer s.close()

	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug().Err(err).Int64("userID", s.userID).Msg("Websocket read failed")
			}
			return
		}

		reply, ok := decodeReply(payload)
		if !ok {
			logger.Debug().Int64("userID", s.userID).Msg("Dropping malformed frame")
			continue
		}
		select {
		case s.incoming <- reply:
		case <-s.done:
			return
		}
	}
}

// decodeReply accepts JSON frames and falls back to treating raw payloads as text.
func decodeReply(payload []byte) (interaction.Reply, bool) {
	var reply interaction.Reply
	if err := json.Unmarshal(payload, &reply); err != nil {
		text := strings.TrimSpace(string(payload))
		if text == "" {
			return interaction.Reply{}, false
		}
		return interaction.Reply{Kind: interaction.ReplyText, Content: text}, true
	}
	switch reply.Kind {
	case interaction.ReplyText:
		return reply, true
	case interaction.ReplyAction:
		return reply, reply.GroupID != "" && reply.ActionID != ""
	}
	return interaction.Reply{}, false
}

func (s *wsSession) close() {
	s.once.Do(func() {
		close(s.done)
		s.closeErr = s.conn.Close()
	})
}

// Send writes every message as its own frame.
func (s *wsSession) Send(_ context.Context, messages ...interaction.Message) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	for _, m := range messages {
		select {
		case <-s.done:
			return interaction.ErrChannelClosed
		default:
		}
		_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := s.conn.WriteJSON(m); err != nil {
			s.close()
			return err
		}
	}
	return nil
}

func (s *wsSession) Receive(ctx context.Context, timeout time.Duration) (interaction.Reply, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case reply := <-s.incoming:
		return reply, nil
	case <-s.done:
		return interaction.Reply{}, interaction.ErrChannelClosed
	case <-timer.C:
		return interaction.Reply{}, interaction.ErrReceiveTimeout
	case <-ctx.Done():
		return interaction.Reply{}, ctx.Err()
	}
}

// next blocks until a reply arrives or the session ends.
func (s *wsSession) next(ctx context.Context) (interaction.Reply, error) {
	select {
	case reply := <-s.incoming:
		return reply, nil
	case <-s.done:
		return interaction.Reply{}, interaction.ErrChannelClosed
	case <-ctx.Done():
		return interaction.Reply{}, ctx.Err()
	}
}
