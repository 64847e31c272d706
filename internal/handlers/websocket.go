package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"closeenough/internal/events"
	"closeenough/internal/game"
)

const (
	socketWriteWait   = 10 * time.Second
	socketMaxMessage  = 4096
	socketSendBuffer  = 32
	socketRateLimited = "RateLimited"
)

// Overridden in tests
var (
	socketPongWait   = time.Minute
	socketPingPeriod = 54 * time.Second
)

// Client to server event names
const (
	wsJoinRoom    = "joinRoom"
	wsGetRoomInfo = "getRoomInfo"
	wsStartGame   = "startGame"
	wsPickCard    = "pickCard"
	wsSubmitGuess = "submitGuess"
	wsNextRound   = "nextRound"
	wsLeaveRoom   = "leaveRoom"
)

// Server to client events that are not room broadcasts
const (
	wsRoomInfo = "roomInfo"
	wsErrorMsg = "errorMsg"
)

// inboundMessage is a client event
type inboundMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// outboundMessage is a server event
type outboundMessage struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// socketClient is one websocket connection. Its room binding is only
// touched from the read goroutine.
type socketClient struct {
	h       *Handler
	conn    *websocket.Conn
	id      string
	limiter *rate.Limiter
	logger  zerolog.Logger

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once

	code string
	name string
	sub  chan events.Event
}

// ServeWS upgrades the request and serves the room protocol over it
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	id := uuid.NewString()
	c := &socketClient{
		h:       h,
		conn:    conn,
		id:      id,
		limiter: rate.NewLimiter(rate.Limit(h.cfg.Server.SocketRate), h.cfg.Server.SocketBurst),
		logger:  log.With().Str("conn", id).Logger(),
		send:    make(chan []byte, socketSendBuffer),
		done:    make(chan struct{}),
	}
	c.logger.Debug().Str("remote", r.RemoteAddr).Msg("websocket connected")

	go c.writeLoop()
	c.readLoop()

	c.unbind(true)
	c.close()
	c.logger.Debug().Msg("websocket disconnected")
}

func (c *socketClient) readLoop() {
	c.conn.SetReadLimit(socketMaxMessage)
	c.conn.SetReadDeadline(time.Now().Add(socketPongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(socketPongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug().Err(err).Msg("websocket read failed")
			}
			return
		}

		if !c.limiter.Allow() {
			c.emit(wsErrorMsg, events.ErrorMsg{Code: socketRateLimited, Message: "too many events"})
			continue
		}

		var msg inboundMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.fail(fmt.Errorf("%w: %v", game.ErrInvalidInput, err))
			continue
		}
		if err := c.dispatch(msg); err != nil {
			c.fail(err)
		}
	}
}

func (c *socketClient) writeLoop() {
	ticker := time.NewTicker(socketPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(socketWriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(socketWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(socketWriteWait))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (c *socketClient) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// emit queues a message for the write loop. A client that cannot keep up
// is disconnected.
func (c *socketClient) emit(event string, data any) {
	payload, err := json.Marshal(outboundMessage{Event: event, Data: data})
	if err != nil {
		c.logger.Error().Err(err).Str("event", event).Msg("failed to encode websocket message")
		return
	}

	select {
	case <-c.done:
	case c.send <- payload:
	default:
		c.logger.Warn().Str("event", event).Msg("websocket send buffer full, closing")
		c.close()
	}
}

func (c *socketClient) fail(err error) {
	c.logger.Debug().Err(err).Str("room", c.code).Msg("websocket event rejected")
	c.emit(wsErrorMsg, toErrorMsg(err))
}

func (c *socketClient) dispatch(msg inboundMessage) error {
	switch msg.Event {
	case wsJoinRoom:
		var req joinRequest
		if err := decodeData(msg.Data, &req); err != nil {
			return err
		}
		return c.join(req.Pin, req.Name)

	case wsGetRoomInfo:
		var req pinRequest
		if err := decodeData(msg.Data, &req); err != nil {
			return err
		}
		info, err := c.h.engine.RoomInfo(req.Pin)
		if err != nil {
			return err
		}
		c.emit(wsRoomInfo, info)
		return nil

	case wsStartGame:
		var req pinRequest
		if err := decodeData(msg.Data, &req); err != nil {
			return err
		}
		name, err := c.boundTo(req.Pin)
		if err != nil {
			return err
		}
		return c.h.engine.StartGame(req.Pin, name)

	case wsPickCard:
		var req pickRequest
		if err := decodeData(msg.Data, &req); err != nil {
			return err
		}
		name, err := c.boundTo(req.Pin)
		if err != nil {
			return err
		}
		return c.h.engine.PickCard(req.Pin, name, req.Card)

	case wsSubmitGuess:
		var req guessRequest
		if err := decodeData(msg.Data, &req); err != nil {
			return err
		}
		name, err := c.boundTo(req.Pin)
		if err != nil {
			return err
		}
		return c.h.engine.SubmitGuess(req.Pin, name, req.Guess)

	case wsNextRound:
		var req pinRequest
		if err := decodeData(msg.Data, &req); err != nil {
			return err
		}
		name, err := c.boundTo(req.Pin)
		if err != nil {
			return err
		}
		return c.h.engine.NextRound(req.Pin, name)

	case wsLeaveRoom:
		var req pinRequest
		if err := decodeData(msg.Data, &req); err != nil {
			return err
		}
		name, err := c.boundTo(req.Pin)
		if err != nil {
			return err
		}
		if err := c.h.engine.Leave(req.Pin, name); err != nil {
			return err
		}
		c.unbind(false)
		return nil

	default:
		return fmt.Errorf("%w: unknown event %q", game.ErrInvalidInput, msg.Event)
	}
}

// join binds the connection to a player, adding the player to the room
// first when the name is new
func (c *socketClient) join(code, name string) error {
	if c.code == code && c.name == name {
		return c.h.engine.Attach(code, name, c.id)
	}
	c.unbind(true)

	// Subscribe first so this client sees its own roomUpdate
	sub := c.h.bus.Subscribe(code)

	var err error
	if c.h.engine.HasPlayer(code, name) {
		err = c.h.engine.Attach(code, name, c.id)
	} else {
		_, err = c.h.engine.JoinRoom(code, name)
		if err == nil {
			err = c.h.engine.Attach(code, name, c.id)
		}
	}
	if err != nil {
		c.h.bus.Unsubscribe(code, sub)
		return err
	}

	c.code, c.name, c.sub = code, name, sub
	go c.forward(sub)

	c.logger.Info().Str("room", code).Str("player", name).Msg("websocket joined room")
	return nil
}

// forward relays room broadcasts until the subscription is closed
func (c *socketClient) forward(sub chan events.Event) {
	for event := range sub {
		c.emit(event.Type, event.Data)
	}
}

// unbind drops the room binding. detach is false when the player has
// already left the room.
func (c *socketClient) unbind(detach bool) {
	if c.code == "" {
		return
	}
	if detach {
		c.h.engine.Detach(c.code, c.name, c.id)
	}
	c.h.bus.Unsubscribe(c.code, c.sub)
	c.code, c.name, c.sub = "", "", nil
}

// boundTo returns the player this connection speaks for in code
func (c *socketClient) boundTo(code string) (string, error) {
	if c.code == "" || c.code != code {
		return "", fmt.Errorf("%w: join room %s first", game.ErrPlayerNotFound, code)
	}
	return c.name, nil
}
