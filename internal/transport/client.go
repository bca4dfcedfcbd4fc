package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// responseTerminator lets the bridge end a response without closing the
// connection. Absent the marker, the client reads until peer close.
const responseTerminator = byte(0x04)

// Descriptor tells the client where the bridge listens. Hosts is an ordered
// preference list and must be non-empty before any send.
type Descriptor struct {
	Hosts   []string
	Port    int
	Timeout time.Duration
}

// Validate checks the descriptor invariants.
func (d Descriptor) Validate() error {
	if len(d.Hosts) == 0 {
		return errors.New("transport: hosts list is empty")
	}
	if d.Port <= 0 || d.Port > 65535 {
		return fmt.Errorf("transport: invalid port %d", d.Port)
	}
	if d.Timeout <= 0 {
		return fmt.Errorf("transport: invalid timeout %v", d.Timeout)
	}
	return nil
}

// Error wraps a connect or round-trip failure with the address involved.
type Error struct {
	Addr    string
	Timeout bool
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Timeout {
		return fmt.Sprintf("transport timeout talking to %s: %v", e.Addr, e.Err)
	}
	return fmt.Sprintf("transport error talking to %s: %v", e.Addr, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error { return e.Err }

// Client performs one request-response exchange per call against the bridge.
// There is no connection reuse: the bridge treats each connection as one
// command, which keeps partial-failure recovery in the orchestrator simple.
type Client struct {
	desc Descriptor
	log  zerolog.Logger
}

// New creates a client for the given descriptor.
func New(desc Descriptor, log zerolog.Logger) (*Client, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	return &Client{desc: desc, log: log}, nil
}

// Send writes a newline-terminated line request and returns the raw response
// string. The whole exchange is bounded by the descriptor timeout.
func (c *Client) Send(ctx context.Context, line string) (string, error) {
	return c.exchange(ctx, line+"\n")
}

// SendJSON serializes the payload as one JSON value per line. If
// serialization fails the raw string form is sent verbatim; that fallback is
// logged, never silent.
func (c *Client) SendJSON(ctx context.Context, payload any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		raw := rawString(payload)
		c.log.Warn().Err(err).Str("raw", raw).Msg("json marshal failed, sending raw string verbatim")
		return c.exchange(ctx, raw+"\n")
	}
	return c.exchange(ctx, string(data)+"\n")
}

// rawString recovers the verbatim text of a payload whose JSON encoding
// failed. Byte-backed payloads must come out as their text, not as a
// formatted byte slice.
func rawString(payload any) string {
	switch v := payload.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case json.RawMessage:
		return string(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// exchange dials the first reachable host in preference order, writes the
// request and reads the response. Hosts are only tried until one connects;
// once a request has been written there is no retry on another host.
func (c *Client) exchange(ctx context.Context, payload string) (string, error) {
	deadline := time.Now().Add(c.desc.Timeout)

	conn, addr, err := c.dial(ctx, deadline)
	if err != nil {
		return "", err
	}
	defer conn.Close()

	if err := conn.SetDeadline(deadline); err != nil {
		return "", &Error{Addr: addr, Err: err}
	}

	c.log.Trace().Str("addr", addr).Str("request", strings.TrimRight(payload, "\n")).Msg("sending request")

	if _, err := io.WriteString(conn, payload); err != nil {
		return "", wrapConnErr(addr, err)
	}

	resp, err := readResponse(conn)
	if err != nil {
		return "", wrapConnErr(addr, err)
	}

	c.log.Trace().Str("addr", addr).Str("response", resp).Msg("received response")
	return resp, nil
}

func (c *Client) dial(ctx context.Context, deadline time.Time) (net.Conn, string, error) {
	dialer := net.Dialer{Deadline: deadline}
	var lastErr error
	var lastAddr string
	for _, host := range c.desc.Hosts {
		addr := net.JoinHostPort(host, strconv.Itoa(c.desc.Port))
		conn, err := dialer.DialContext(ctx, "tcp", addr)
		if err == nil {
			return conn, addr, nil
		}
		c.log.Debug().Str("addr", addr).Err(err).Msg("dial failed, trying next host")
		lastErr = err
		lastAddr = addr
	}
	return nil, "", wrapConnErr(lastAddr, fmt.Errorf("no reachable bridge host: %w", lastErr))
}

// readResponse reads until the peer closes or the terminating marker is
// observed. The marker and any trailing newline are stripped.
func readResponse(conn net.Conn) (string, error) {
	var buf bytes.Buffer
	chunk := make([]byte, 4096)
	for {
		n, err := conn.Read(chunk)
		if n > 0 {
			if i := bytes.IndexByte(chunk[:n], responseTerminator); i >= 0 {
				buf.Write(chunk[:i])
				return trimResponse(buf.String()), nil
			}
			buf.Write(chunk[:n])
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return trimResponse(buf.String()), nil
			}
			return "", err
		}
	}
}

func trimResponse(s string) string {
	return strings.TrimRight(s, "\r\n")
}

func wrapConnErr(addr string, err error) error {
	terr := &Error{Addr: addr, Err: err}
	if errors.Is(err, os.ErrDeadlineExceeded) {
		terr.Timeout = true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		terr.Timeout = true
	}
	return terr
}
