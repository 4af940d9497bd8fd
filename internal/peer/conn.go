package peer

import (
	"fmt"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/mossy-p/arshare/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	handshakeWait  = 10 * time.Second
	sendBufferSize = 256

	// maxFrameSize bounds one sealed websocket message.
	maxFrameSize = 64<<20 + 4096
)

// conn is one authenticated, encrypted connection to a remote peer.
// writePump is the only writer after the handshake and the only closer of ws.
type conn struct {
	session *Session
	remote  models.PeerID
	ws      *websocket.Conn
	send    chan []byte
	done    chan struct{}
	once    sync.Once
	seal    *sealer
	open    *opener
	log     zerolog.Logger
}

func newConn(s *Session, remote models.PeerID, ws *websocket.Conn, seal *sealer, open *opener) *conn {
	return &conn{
		session: s,
		remote:  remote,
		ws:      ws,
		send:    make(chan []byte, sendBufferSize),
		done:    make(chan struct{}),
		seal:    seal,
		open:    open,
		log:     s.log.With().Str("remote", remote.DisplayName).Logger(),
	}
}

func (c *conn) start() {
	go c.writePump()
	go c.readPump()
}

func (c *conn) close() {
	c.once.Do(func() { close(c.done) })
}

// handshake exchanges clear-text hello frames and derives the session
// ciphers. The initiator speaks first. check validates the remote hello
// before this side answers or completes.
func handshake(ws *websocket.Conn, local models.PeerID, serviceType string, initiator bool,
	check func(models.Hello) error) (models.Hello, *sealer, *opener, error) {
	kp, err := newKeyPair()
	if err != nil {
		return models.Hello{}, nil, nil, fmt.Errorf("%w: %v", ErrHandshake, err)
	}
	hello := models.Hello{Peer: local, ServiceType: serviceType, Key: kp.pub[:]}

	deadline := time.Now().Add(handshakeWait)
	ws.SetReadDeadline(deadline)
	ws.SetWriteDeadline(deadline)
	defer func() {
		ws.SetReadDeadline(time.Time{})
		ws.SetWriteDeadline(time.Time{})
	}()

	var remote models.Hello
	if initiator {
		if err := writeHello(ws, hello); err != nil {
			return remote, nil, nil, err
		}
		if remote, err = readHello(ws); err != nil {
			return remote, nil, nil, err
		}
		if err := check(remote); err != nil {
			return remote, nil, nil, err
		}
	} else {
		if remote, err = readHello(ws); err != nil {
			return remote, nil, nil, err
		}
		if err := check(remote); err != nil {
			return remote, nil, nil, err
		}
		if err := writeHello(ws, hello); err != nil {
			return remote, nil, nil, err
		}
	}

	seal, open, err := deriveCiphers(kp, remote.Key, initiator, serviceType)
	if err != nil {
		return remote, nil, nil, fmt.Errorf("%w: %v", ErrHandshake, err)
	}
	return remote, seal, open, nil
}

func writeHello(ws *websocket.Conn, h models.Hello) error {
	data, err := cbor.Marshal(h)
	if err != nil {
		return fmt.Errorf("%w: encode hello: %v", ErrHandshake, err)
	}
	if err := ws.WriteMessage(websocket.BinaryMessage, data); err != nil {
		return fmt.Errorf("%w: send hello: %v", ErrHandshake, err)
	}
	return nil
}

func readHello(ws *websocket.Conn) (models.Hello, error) {
	var h models.Hello
	mt, data, err := ws.ReadMessage()
	if err != nil {
		return h, fmt.Errorf("%w: read hello: %v", ErrHandshake, err)
	}
	if mt != websocket.BinaryMessage {
		return h, fmt.Errorf("%w: hello is not binary", ErrHandshake)
	}
	if err := cbor.Unmarshal(data, &h); err != nil {
		return h, fmt.Errorf("%w: decode hello: %v", ErrHandshake, err)
	}
	if h.Peer.IsZero() {
		return h, fmt.Errorf("%w: hello has no peer", ErrHandshake)
	}
	return h, nil
}

func (c *conn) readPump() {
	defer func() {
		c.session.remove(c)
		c.close()
		c.session.stateChanged(c.remote, models.PeerStateNotConnected)
	}()

	c.ws.SetReadLimit(maxFrameSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		mt, message, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn().Err(err).Msg("WebSocket error")
			}
			return
		}
		if mt != websocket.BinaryMessage {
			c.log.Warn().Int("type", mt).Msg("Ignoring non-binary message")
			continue
		}

		plain, err := c.open.open(message)
		if err != nil {
			c.log.Error().Err(err).Msg("Rejecting sealed frame, closing connection")
			return
		}

		var f models.Frame
		if err := cbor.Unmarshal(plain, &f); err != nil {
			c.log.Warn().Err(err).Msg("Failed to parse frame")
			continue
		}

		c.session.dispatch(f, c.remote)
	}
}

func (c *conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case data := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.BinaryMessage, c.seal.seal(data)); err != nil {
				c.log.Warn().Err(err).Msg("Failed to write message")
				c.close()
				return
			}

		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}

		case <-c.done:
			c.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}
