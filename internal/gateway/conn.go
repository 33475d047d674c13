package gateway

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/park285/tap-racer/internal/obslog"
	"github.com/park285/tap-racer/pkg/racedto"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const writeTimeout = 3 * time.Second

// wsConn is one accepted client stream. Frames go through a single writer
// goroutine; send blocks while the queue is full and gives up once the
// connection is done.
type wsConn struct {
	id     string
	stream string
	conn   *websocket.Conn
	out    chan racedto.ServerMessage

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

func (s *Server) accept(w http.ResponseWriter, r *http.Request, stream string) (*wsConn, error) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:  s.originPatterns,
		CompressionMode: websocket.CompressionNoContextTakeover,
	})
	if err != nil {
		obslog.L().Warn("ws_accept_error", zap.String("stream", stream), zap.Error(err))
		return nil, err
	}
	c := &wsConn{
		id:     uuid.NewString(),
		stream: stream,
		conn:   conn,
		out:    make(chan racedto.ServerMessage, 16),
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.wg.Add(2)
	go c.writeLoop()
	go c.pingLoop(s.d.PingInterval)
	obslog.L().Info("ws_open", zap.String("conn_id", c.id), zap.String("stream", stream))
	return c, nil
}

func (c *wsConn) send(msg racedto.ServerMessage) bool {
	select {
	case c.out <- msg:
		return true
	case <-c.ctx.Done():
		return false
	}
}

func (c *wsConn) writeLoop() {
	defer c.wg.Done()
	for {
		select {
		case <-c.ctx.Done():
			return
		case msg := <-c.out:
			ctx, cancel := context.WithTimeout(c.ctx, writeTimeout)
			err := wsjson.Write(ctx, c.conn, msg)
			cancel()
			if err != nil {
				if c.ctx.Err() == nil {
					obslog.L().Debug("ws_write_error", zap.String("conn_id", c.id), zap.Error(err))
				}
				c.cancel()
				return
			}
		}
	}
}

// pingLoop drops the connection after two missed pongs in a row. Pongs are
// only processed while something reads from the connection.
func (c *wsConn) pingLoop(every time.Duration) {
	defer c.wg.Done()
	t := time.NewTicker(every)
	defer t.Stop()
	failures := 0
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-t.C:
			ctx, cancel := context.WithTimeout(c.ctx, writeTimeout)
			err := c.conn.Ping(ctx)
			cancel()
			if err == nil {
				failures = 0
				continue
			}
			failures++
			if failures >= 2 {
				obslog.L().Info("ws_ping_timeout", zap.String("conn_id", c.id))
				c.cancel()
				return
			}
		}
	}
}

// drain waits briefly for queued frames, used before a deliberate close.
func (c *wsConn) drain() {
	deadline := time.After(writeTimeout)
	for len(c.out) > 0 {
		select {
		case <-c.ctx.Done():
			return
		case <-deadline:
			return
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func (c *wsConn) close(code websocket.StatusCode, reason string) {
	c.once.Do(func() {
		c.cancel()
		c.wg.Wait()
		_ = c.conn.Close(code, reason)
		obslog.L().Info("ws_close", zap.String("conn_id", c.id), zap.String("stream", c.stream))
	})
}
