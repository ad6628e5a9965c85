package ws

import (
	"bufio"
	"crypto/sha1"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	opText   = 0x1
	opBinary = 0x2
	opClose  = 0x8
	opPing   = 0x9
	opPong   = 0xA
)

// maxPayload caps a single frame; the protocol only carries small JSON
// envelopes and handshake blobs.
const maxPayload = 1 << 20

// ErrClosed reports an orderly close frame from the peer.
var ErrClosed = errors.New("websocket closed")

const writeTimeout = 10 * time.Second

// Conn is a server-side WebSocket connection. Reads are single-consumer;
// writes are serialized by a mutex so handler replies and control frames
// never interleave.
type Conn struct {
	conn net.Conn
	r    *bufio.Reader
	w    *bufio.Writer
	wmu  sync.Mutex
}

func newConn(c net.Conn) *Conn {
	return &Conn{conn: c, r: bufio.NewReader(c), w: bufio.NewWriter(c)}
}

// Accept upgrades an HTTP request to a WebSocket connection via hijacking.
func Accept(w http.ResponseWriter, r *http.Request) (*Conn, error) {
	if !strings.Contains(strings.ToLower(r.Header.Get("Connection")), "upgrade") {
		http.Error(w, "bad request", http.StatusBadRequest)
		return nil, fmt.Errorf("missing upgrade header")
	}
	if !strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		http.Error(w, "bad request", http.StatusBadRequest)
		return nil, fmt.Errorf("invalid upgrade value")
	}
	key := strings.TrimSpace(r.Header.Get("Sec-WebSocket-Key"))
	if key == "" {
		http.Error(w, "bad request", http.StatusBadRequest)
		return nil, fmt.Errorf("missing websocket key")
	}
	accept := computeAccept(key)
	hj, ok := w.(http.Hijacker)
	if !ok {
		http.Error(w, "upgrade not supported", http.StatusInternalServerError)
		return nil, fmt.Errorf("hijacking not supported")
	}
	conn, rw, err := hj.Hijack()
	if err != nil {
		return nil, err
	}
	response := fmt.Sprintf("HTTP/1.1 101 Switching Protocols\r\nUpgrade: websocket\r\nConnection: Upgrade\r\nSec-WebSocket-Accept: %s\r\n\r\n", accept)
	if _, err := rw.WriteString(response); err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := rw.Flush(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return newConn(conn), nil
}

// ReadMessage blocks for the next data frame. Ping frames are answered and
// pongs skipped transparently; a close frame or transport error ends the
// connection.
func (c *Conn) ReadMessage() (byte, []byte, error) {
	for {
		opcode, payload, err := c.readFrame()
		if err != nil {
			return 0, nil, err
		}
		switch opcode {
		case opClose:
			return 0, nil, ErrClosed
		case opPing:
			if err := c.WriteMessage(opPong, payload); err != nil {
				return 0, nil, err
			}
		case opPong:
			// unsolicited pong, ignore
		case opText, opBinary:
			return opcode, payload, nil
		default:
			return 0, nil, fmt.Errorf("unsupported opcode %#x", opcode)
		}
	}
}

func (c *Conn) readFrame() (byte, []byte, error) {
	first, err := c.r.ReadByte()
	if err != nil {
		return 0, nil, err
	}
	fin := first&0x80 != 0
	opcode := first & 0x0F
	second, err := c.r.ReadByte()
	if err != nil {
		return 0, nil, err
	}
	masked := second&0x80 != 0
	length := int(second & 0x7F)
	switch length {
	case 126:
		var n uint16
		if err := binary.Read(c.r, binary.BigEndian, &n); err != nil {
			return 0, nil, err
		}
		length = int(n)
	case 127:
		var n uint64
		if err := binary.Read(c.r, binary.BigEndian, &n); err != nil {
			return 0, nil, err
		}
		if n > maxPayload {
			return 0, nil, fmt.Errorf("frame too large: %d bytes", n)
		}
		length = int(n)
	}
	if length > maxPayload {
		return 0, nil, fmt.Errorf("frame too large: %d bytes", length)
	}

	var maskKey [4]byte
	if masked {
		if _, err := io.ReadFull(c.r, maskKey[:]); err != nil {
			return 0, nil, err
		}
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(c.r, payload); err != nil {
		return 0, nil, err
	}
	if masked {
		for i := range payload {
			payload[i] ^= maskKey[i%4]
		}
	}
	if !fin {
		return 0, nil, fmt.Errorf("fragmented frames not supported")
	}
	return opcode, payload, nil
}

func (c *Conn) WriteMessage(opcode byte, payload []byte) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	if err := c.w.WriteByte(0x80 | opcode); err != nil {
		return err
	}
	length := len(payload)
	switch {
	case length <= 125:
		if err := c.w.WriteByte(byte(length)); err != nil {
			return err
		}
	case length < 65536:
		if err := c.w.WriteByte(126); err != nil {
			return err
		}
		if err := binary.Write(c.w, binary.BigEndian, uint16(length)); err != nil {
			return err
		}
	default:
		if err := c.w.WriteByte(127); err != nil {
			return err
		}
		if err := binary.Write(c.w, binary.BigEndian, uint64(length)); err != nil {
			return err
		}
	}
	if _, err := c.w.Write(payload); err != nil {
		return err
	}
	return c.w.Flush()
}

func (c *Conn) WriteJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.WriteMessage(opText, data)
}

func (c *Conn) Close() error {
	_ = c.WriteMessage(opClose, nil)
	return c.conn.Close()
}

func computeAccept(key string) string {
	const wsGUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"
	sum := sha1.Sum([]byte(key + wsGUID))
	return base64.StdEncoding.EncodeToString(sum[:])
}
