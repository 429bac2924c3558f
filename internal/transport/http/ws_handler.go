package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"pathway-quiz-service/internal/app"
	"pathway-quiz-service/internal/domain"
	"pathway-quiz-service/internal/metrics"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	maxMessageSize    = 8192
	sendBuffer        = 16
	disconnectTimeout = 5 * time.Second

	// CloseNotFound is the application close code used when a quiz, question,
	// option or sentence does not exist.
	CloseNotFound = 4404
)

type WSHandler struct {
	service  *app.QuizService
	log      *zap.Logger
	upgrader websocket.Upgrader
	limit    rate.Limit
	burst    int
}

// NewWSHandler serves the quiz protocol. perSecond and burst throttle inbound
// messages on each connection.
func NewWSHandler(service *app.QuizService, log *zap.Logger, perSecond float64, burst int) *WSHandler {
	if log == nil {
		log = zap.NewNop()
	}
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &WSHandler{
		service: service,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		limit: limit,
		burst: burst,
	}
}

type outFrame struct {
	msg       serverMessage
	closeCode int
	closeText string
}

// quizConn is the per-connection state shared by the read loop and the writer.
// Only the writer goroutine touches the socket for writing.
type quizConn struct {
	conn     *websocket.Conn
	session  *app.Session
	log      *zap.Logger
	out      chan outFrame
	finished bool
}

func (c *quizConn) send(msg serverMessage) {
	c.out <- outFrame{msg: msg}
}

func (c *quizConn) closeWith(code int, text string) {
	c.out <- outFrame{closeCode: code, closeText: text}
}

func (c *quizConn) fault(err error) {
	code, text := closeCodeFor(err)
	c.log.Warn("quiz session fault",
		zap.Int("close_code", code),
		zap.String("state", c.session.State().String()),
		zap.Error(err))
	c.closeWith(code, text)
}

func closeCodeFor(err error) (int, string) {
	switch {
	case domain.IsNotFound(err):
		return CloseNotFound, "not found"
	case domain.IsProtocolViolation(err), errors.Is(err, errBadMessage):
		return websocket.ClosePolicyViolation, "protocol violation"
	}
	return websocket.CloseInternalServerErr, "internal error"
}

func (c *quizConn) writePump(done chan<- struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		close(done)
	}()

	for {
		select {
		case f, ok := <-c.out:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if f.closeCode != 0 {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(f.closeCode, f.closeText))
				c.drain()
				return
			}
			if err := c.conn.WriteJSON(f.msg); err != nil {
				c.log.Debug("ws write failed", zap.Error(err))
				_ = c.conn.Close()
				c.drain()
				return
			}
			metrics.QuizMessages.WithLabelValues(f.msg.messageType(), "out").Inc()
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = c.conn.Close()
				c.drain()
				return
			}
		}
	}
}

// drain discards frames until the read loop closes out.
func (c *quizConn) drain() {
	for range c.out {
	}
}

// ServeWS upgrades the request and drives one quiz session over it. The user
// comes from the userId query parameter; without it the session is anonymous.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	var userID int64
	if raw := r.URL.Query().Get("userId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id < 0 {
			http.Error(w, "invalid userId", http.StatusBadRequest)
			return
		}
		userID = id
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx := r.Context()
	qc := &quizConn{
		conn:    conn,
		session: h.service.NewSession(userID),
		log: h.log.With(
			zap.String("conn", uuid.NewString()),
			zap.Int64("user", userID)),
		out: make(chan outFrame, sendBuffer),
	}

	metrics.ActiveSessions.Inc()
	defer metrics.ActiveSessions.Dec()

	writerDone := make(chan struct{})
	go qc.writePump(writerDone)

	defer func() {
		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), disconnectTimeout)
		defer cancel()
		if err := qc.session.Disconnect(dctx); err != nil {
			qc.log.Error("record disconnect", zap.Error(err))
		}
		close(qc.out)
		<-writerDone
	}()

	qc.log.Debug("quiz connection opened")
	qc.send(typeMessage{Type: "connected"})
	h.readLoop(ctx, qc)
	qc.log.Debug("quiz connection closed", zap.String("state", qc.session.State().String()))
}

func (h *WSHandler) readLoop(ctx context.Context, qc *quizConn) {
	qc.conn.SetReadLimit(maxMessageSize)
	_ = qc.conn.SetReadDeadline(time.Now().Add(pongWait))
	qc.conn.SetPongHandler(func(string) error {
		return qc.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	limiter := rate.NewLimiter(h.limit, h.burst)
	for {
		_, data, err := qc.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				qc.log.Debug("ws read failed", zap.Error(err))
			}
			return
		}
		if err := limiter.Wait(ctx); err != nil {
			return
		}

		msg, err := decodeClientMessage(data)
		if err == nil {
			metrics.QuizMessages.WithLabelValues(msg.kind(), "in").Inc()
			err = msg.dispatch(ctx, qc)
		}
		if err != nil {
			qc.fault(err)
			return
		}
		if qc.finished {
			qc.closeWith(websocket.CloseNormalClosure, "quiz complete")
			return
		}
	}
}
