// Package chat exposes the Bangumi commands over a websocket chat.
//
// Clients send frames {"type":"text","content":"bgm calendar"} or
// {"type":"action","group_id":"...","action_id":"yes"} and receive the typed
// interaction messages back, one per frame.
package chat

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/Belphemur/BangumiBridge/internal/command"
	"github.com/Belphemur/BangumiBridge/internal/config"
	"github.com/Belphemur/BangumiBridge/internal/interaction"
	"github.com/Belphemur/BangumiBridge/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Dispatcher runs one chat line as a command.
type Dispatcher interface {
	Dispatch(ctx context.Context, s command.Session, line string) bool
}

// Server serves the chat websocket and a health probe.
type Server struct {
	dispatcher Dispatcher
	upgrader   websocket.Upgrader
	engine     *gin.Engine
	baseCtx    context.Context
}

// NewServer builds the gin engine. baseCtx bounds every session; cancel it to end them all.
func NewServer(baseCtx context.Context, dispatcher Dispatcher) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		dispatcher: dispatcher,
		baseCtx:    baseCtx,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())
	router.GET("/ws", s.handleWebsocket)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.engine = router
	return s
}

// Handler returns the HTTP handler to mount.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// NewHTTPServer wraps the chat handler in an *http.Server listening on address:port.
func (s *Server) NewHTTPServer(address string, port int) *http.Server {
	return &http.Server{
		Addr:              address + ":" + strconv.Itoa(port),
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger := config.GetLogger()
		logger.Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	}
}

func (s *Server) handleWebsocket(c *gin.Context) {
	logger := config.GetLogger()

	var userID int64
	if raw := c.Query("user_id"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user_id must be a non-negative integer"})
			return
		}
		userID = parsed
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}

	session := newSession(conn, userID)
	defer session.close()
	metrics.ActiveSessions.Inc()
	defer metrics.ActiveSessions.Dec()
	logger.Info().Int64("userID", userID).Str("remote", c.Request.RemoteAddr).Msg("Chat session opened")

	defer func() {
		logger.Info().Int64("userID", userID).Msg("Chat session closed")
	}()

	go session.readLoop()
	s.serve(session)
}

// serve runs commands one at a time so a pending confirmation owns the inbound replies.
func (s *Server) serve(session *wsSession) {
	logger := config.GetLogger()
	ctx, cancel := context.WithCancel(s.baseCtx)
	defer cancel()

	for {
		reply, err := session.next(ctx)
		if err != nil {
			return
		}
		if reply.Kind != interaction.ReplyText {
			logger.Debug().Str("groupID", reply.GroupID).Msg("Ignoring action outside of a confirmation")
			continue
		}
		if !command.IsCommand(reply.Content) {
			continue
		}
		s.dispatcher.Dispatch(ctx, command.Session{Channel: session, UserID: session.userID}, reply.Content)
	}
}
