package adapters

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	defaultConnectTimeout = 10 * time.Second
	defaultReadTimeout    = 5 * time.Second
	defaultWriteTimeout   = 5 * time.Second
)

// TCPConfig configures a TCP (or Unix socket) adapter.
type TCPConfig struct {
	// Connection URL: "tcp://192.168.1.50:5025" or "unix:///run/inst.sock".
	Connection string

	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration

	// WriteTerminator is appended to every command. Default "\n".
	WriteTerminator string
	// ReadTerminator ends every reply and is stripped from it. Must end
	// in a single byte delimiter. Default "\n".
	ReadTerminator string

	Logger Logger
}

func (c *TCPConfig) applyDefaults() {
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = defaultConnectTimeout
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = defaultReadTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = defaultWriteTimeout
	}
	if c.WriteTerminator == "" {
		c.WriteTerminator = "\n"
	}
	if c.ReadTerminator == "" {
		c.ReadTerminator = "\n"
	}
	if c.Logger == nil {
		c.Logger = noopLogger{}
	}
}

// TCP is a socket adapter for LAN instruments speaking newline-framed text
// (raw SCPI over TCP, LXI-style port 5025 services, serial bridges).
//
// All methods are safe for concurrent use; a mutex serializes command and
// reply so interleaved callers cannot steal each other's replies.
type TCP struct {
	cfg    TCPConfig
	logger Logger

	mu     sync.Mutex
	conn   net.Conn
	reader *bufio.Reader
	closed bool
}

// DialTCP connects a socket adapter. The connection URL scheme selects the
// network, mirroring the daemon clients elsewhere in this codebase.
func DialTCP(ctx context.Context, cfg TCPConfig) (*TCP, error) {
	cfg.applyDefaults()

	network, address, err := parseConnectionURL(cfg.Connection)
	if err != nil {
		return nil, err
	}

	dialCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	var dialer net.Dialer
	conn, err := dialer.DialContext(dialCtx, network, address)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.Connection, err)
	}

	cfg.Logger.Info("adapter connected", "address", cfg.Connection)
	return &TCP{
		cfg:    cfg,
		logger: cfg.Logger,
		conn:   conn,
		reader: bufio.NewReader(conn),
	}, nil
}

func parseConnectionURL(connURL string) (network, address string, err error) {
	u, err := url.Parse(connURL)
	if err != nil {
		return "", "", fmt.Errorf("invalid connection URL: %w", err)
	}
	switch u.Scheme {
	case "tcp":
		if u.Host == "" {
			return "", "", fmt.Errorf("invalid connection URL %q: missing host", connURL)
		}
		return "tcp", u.Host, nil
	case "unix":
		if u.Path == "" {
			return "", "", fmt.Errorf("invalid connection URL %q: missing socket path", connURL)
		}
		return "unix", u.Path, nil
	default:
		return "", "", fmt.Errorf("invalid connection URL %q: unsupported scheme", connURL)
	}
}

// Write sends one command, framed with the write terminator.
func (t *TCP) Write(command string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.writeLocked(command)
}

func (t *TCP) writeLocked(command string) error {
	if t.closed {
		return ErrClosed
	}
	if err := t.conn.SetWriteDeadline(time.Now().Add(t.cfg.WriteTimeout)); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	if _, err := t.conn.Write([]byte(command + t.cfg.WriteTerminator)); err != nil {
		return fmt.Errorf("write %q: %w", command, err)
	}
	t.logger.Debug("tcp write", "command", command)
	return nil
}

// Read receives one reply, stripped of the read terminator.
func (t *TCP) Read() (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.readLocked()
}

func (t *TCP) readLocked() (string, error) {
	if t.closed {
		return "", ErrClosed
	}
	if err := t.conn.SetReadDeadline(time.Now().Add(t.cfg.ReadTimeout)); err != nil {
		return "", fmt.Errorf("set read deadline: %w", err)
	}
	delim := t.cfg.ReadTerminator[len(t.cfg.ReadTerminator)-1]
	line, err := t.reader.ReadString(delim)
	if err != nil {
		return "", fmt.Errorf("read: %w", err)
	}
	reply := strings.TrimSuffix(line, t.cfg.ReadTerminator)
	t.logger.Debug("tcp read", "reply", reply)
	return reply, nil
}

// ReadBinaryValues sends a query and decodes the IEEE 488.2 definite-length
// block it returns.
func (t *TCP) ReadBinaryValues(command string) ([]float64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.writeLocked(command); err != nil {
		return nil, err
	}
	if err := t.conn.SetReadDeadline(time.Now().Add(t.cfg.ReadTimeout)); err != nil {
		return nil, fmt.Errorf("set read deadline: %w", err)
	}

	header := make([]byte, 2)
	if _, err := io.ReadFull(t.reader, header); err != nil {
		return nil, fmt.Errorf("read block header: %w", err)
	}
	if header[0] != '#' || header[1] < '1' || header[1] > '9' {
		return nil, fmt.Errorf("%w: header %q", ErrBadBinaryBlock, header)
	}
	nDigits := int(header[1] - '0')
	lenField := make([]byte, nDigits)
	if _, err := io.ReadFull(t.reader, lenField); err != nil {
		return nil, fmt.Errorf("read block length: %w", err)
	}
	length := 0
	for _, c := range lenField {
		if c < '0' || c > '9' {
			return nil, fmt.Errorf("%w: length field %q", ErrBadBinaryBlock, lenField)
		}
		length = length*10 + int(c-'0')
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(t.reader, payload); err != nil {
		return nil, fmt.Errorf("read block payload: %w", err)
	}
	// Consume the trailing terminator, if the device sends one.
	t.reader.ReadString(t.cfg.ReadTerminator[len(t.cfg.ReadTerminator)-1])

	block := append(append(header, lenField...), payload...)
	return decodeBinaryBlock(block)
}

// Close shuts the socket down. Further traffic fails with ErrClosed.
func (t *TCP) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	t.logger.Info("adapter closed", "address", t.cfg.Connection)
	return t.conn.Close()
}
