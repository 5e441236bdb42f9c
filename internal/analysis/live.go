package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"net/http"
	"sync"
	"time"

	"github.com/eleven-am/moodlens/internal/capture"
	"github.com/eleven-am/moodlens/internal/dto"
	"github.com/eleven-am/moodlens/internal/shared"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 8 * 1024 * 1024
	outboxSize     = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// outbox serializes writes to the socket through one goroutine.
type outbox struct {
	mu     sync.Mutex
	closed bool
	ch     chan any
}

func (o *outbox) send(msg any) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return false
	}
	select {
	case o.ch <- msg:
		return true
	default:
		return false
	}
}

// sendFinal blocks until msg is queued, then closes the outbox.
func (o *outbox) sendFinal(msg any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	o.ch <- msg
	o.closed = true
	close(o.ch)
}

// Live godoc
// @Summary      Live webcam session
// @Description  Websocket. Clients send binary JPEG frames and JSON commands ({"command":"burst|snapshot|toggle|quit"}); the server streams JSON events and a final result message.
// @Tags         analysis
// @Param        mode  query  string  false  "Initial mode"  Enums(manual, continuous)
// @Success      101   "Switching Protocols"
// @Failure      400   {object}  shared.APIError
// @Router       /analyze/webcam/live [get]
func (h *Handler) Live(c echo.Context) error {
	mode, err := capture.ParseMode(c.QueryParam("mode"))
	if err != nil {
		return shared.BadRequest("invalid_mode", err.Error())
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return err
	}
	defer ws.Close()

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	out := &outbox{ch: make(chan any, outboxSize)}
	frames := make(chan image.Image)

	live, err := h.service.NewLive(c.Request().Context(), capture.NewChanSource(frames), LiveOptions{
		Mode: mode,
		OnEvent: func(e capture.Event) {
			if !out.send(e) {
				h.logger.Debug("live outbox full, dropping event", "type", e.Kind)
			}
		},
	})
	if err != nil {
		_ = ws.WriteJSON(dto.LiveResultMessage{Type: "result", Error: err.Error()})
		return nil
	}
	logger := h.logger.With("session_id", live.ID())

	var writers sync.WaitGroup
	writers.Add(1)
	go func() {
		defer writers.Done()
		for msg := range out.ch {
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteJSON(msg); err != nil {
				logger.Debug("websocket write failed", "error", err)
				cancel()
				for range out.ch {
				}
				return
			}
		}
	}()

	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		defer close(frames)
		h.readLive(ctx, ws, live, frames, out)
	}()

	resp, err := live.Run(ctx)
	final := dto.LiveResultMessage{Type: "result", SessionID: live.ID(), Result: resp}
	if err != nil {
		logger.Warn("live session failed", "error", err)
		final.Error = err.Error()
	}
	out.sendFinal(final)
	writers.Wait()

	cancel()
	_ = ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
	ws.Close()
	<-readerDone
	return nil
}

// readLive feeds binary frames into the session and forwards text commands.
// It returns when the client disconnects or ctx ends.
func (h *Handler) readLive(ctx context.Context, ws *websocket.Conn, live *Live, frames chan<- image.Image, out *outbox) {
	ws.SetReadLimit(maxMessageSize)
	for {
		kind, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket read error", "error", err)
			}
			return
		}

		switch kind {
		case websocket.BinaryMessage:
			img, _, err := image.Decode(bytes.NewReader(data))
			if err != nil {
				out.send(capture.Event{Kind: capture.EventError, Error: "undecodable frame: " + err.Error()})
				continue
			}
			select {
			case frames <- img:
			case <-ctx.Done():
				return
			}

		case websocket.TextMessage:
			var msg dto.LiveCommand
			if err := json.Unmarshal(data, &msg); err != nil {
				out.send(capture.Event{Kind: capture.EventError, Error: "invalid command message"})
				continue
			}
			cmd, err := capture.ParseCommand(msg.Command)
			if err != nil {
				out.send(capture.Event{Kind: capture.EventError, Error: err.Error()})
				continue
			}
			if err := live.Send(ctx, cmd); err != nil {
				return
			}
		}
	}
}
