package vehicle

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"smartcar/logger"
	"smartcar/protocol"
)

// Server exposes the command surface: discrete named-field requests and the
// persistent websocket channel carrying decimal command codes.
type Server struct {
	exec     *Executor
	router   *gin.Engine
	upgrader websocket.Upgrader
}

func NewServer(exec *Executor) *Server {
	s := &Server{
		exec:   exec,
		router: gin.Default(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "smart car ready")
	})
	s.router.GET("/health", func(c *gin.Context) {
		cur := s.exec.Current()
		motors := make(map[string]string, NumMotors)
		for i, name := range motorNames {
			motors[name] = cur[i].String()
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "motors": motors})
	})
	s.router.POST("/hand-gesture", s.handleGesture)
	s.router.POST("/person-tracking", s.handleTracking)
	s.router.GET("/ws", s.handleChannel)
}

func (s *Server) handleGesture(c *gin.Context) {
	gesture := c.PostForm("gesture")
	if gesture == "" {
		c.String(http.StatusBadRequest, "Missing gesture parameter")
		return
	}
	// Unknown names resolve to Stop inside the code table; never ignored.
	s.exec.Apply(protocol.GestureCode(gesture))
	c.String(http.StatusOK, "OK")
}

func (s *Server) handleTracking(c *gin.Context) {
	action := c.PostForm("action")
	if action == "" {
		c.String(http.StatusBadRequest, "Missing action parameter")
		return
	}
	s.exec.Apply(protocol.ActionCode(action))
	c.String(http.StatusOK, "OK")
}

func (s *Server) handleChannel(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	client := uuid.New().String()
	logger.S().Infow("command channel connected", "client", client, "remote", conn.RemoteAddr().String())

	defer func() {
		_ = conn.Close()
		// Losing the channel is itself a stop event.
		s.exec.Stop()
		logger.S().Warnw("command channel closed, motors stopped", "client", client)
	}()

	for {
		mt, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if mt != websocket.TextMessage {
			// Anything but a decimal text code is malformed input.
			s.exec.Stop()
			continue
		}
		s.exec.Apply(protocol.ParseCode(string(msg)))
	}
}

// Handler exposes the route table for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves the command surface until the listener fails.
func (s *Server) Run(port int) error {
	return s.router.Run(fmt.Sprintf(":%d", port))
}
