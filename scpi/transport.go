package scpi

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"
)

// Transport is a blocking bidirectional text channel to an instrument.
//
// Write sends one command line; Query sends one command line and returns
// the instrument's reply line with the terminator stripped. Both block the
// calling goroutine until completion or timeout; a timeout surfaces as an
// error matching ErrTimeout. The transport performs no retries; retry
// policy lives in the caller.
type Transport interface {
	Write(cmd string) error
	Query(cmd string) (string, error)
	Close() error
}

// Conn is the TCP implementation of Transport, speaking newline-terminated
// ASCII lines (SCPI raw socket, conventionally port 5025).
type Conn struct {
	mu      sync.Mutex
	conn    net.Conn
	reader  *bufio.Reader
	timeout time.Duration
	closed  bool
}

var _ Transport = (*Conn)(nil)

// Dial opens a TCP transport to the given "host:port" address. The timeout
// bounds the dial and every subsequent Write/Query round trip.
func Dial(address string, timeout time.Duration) (*Conn, error) {
	conn, err := net.DialTimeout("tcp", address, timeout)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConnectFailed, address, err)
	}

	return &Conn{
		conn:    conn,
		reader:  bufio.NewReader(conn),
		timeout: timeout,
	}, nil
}

// Write sends a single command line. A '\n' terminator is appended when
// the command does not already carry one.
func (c *Conn) Write(cmd string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.writeLocked(cmd)
}

func (c *Conn) writeLocked(cmd string) error {
	if c.closed {
		return ErrConnClosed
	}

	if !strings.HasSuffix(cmd, "\n") {
		cmd += "\n"
	}

	if err := c.conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
		return fmt.Errorf("scpi: set write deadline: %w", err)
	}
	if _, err := c.conn.Write([]byte(cmd)); err != nil {
		return wrapNetErr("write", err)
	}

	return nil
}

// Query sends a command line and reads one reply line. Trailing CR/LF and
// surrounding whitespace are stripped from the reply.
func (c *Conn) Query(cmd string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.writeLocked(cmd); err != nil {
		return "", err
	}

	if err := c.conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return "", fmt.Errorf("scpi: set read deadline: %w", err)
	}

	line, err := c.reader.ReadString('\n')
	if err != nil {
		// A reply without a trailing newline before EOF is still a reply.
		if line == "" {
			return "", wrapNetErr("read", err)
		}
	}

	return strings.TrimSpace(line), nil
}

// Close closes the underlying TCP connection. Closing twice is a no-op.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	return c.conn.Close()
}

func wrapNetErr(op string, err error) error {
	if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
		return fmt.Errorf("scpi: %s: %w", op, ErrTimeout)
	}

	return fmt.Errorf("scpi: %s: %w", op, err)
}
