// Package client provides a client SDK for the not-redis server.
//
// The client maintains a pool of TCP connections to a single server,
// frames requests with the length-prefixed protocol, and retries
// transparently on transport failures. Because the server processes one
// request per connection at a time, each pooled connection carries at most
// one in-flight request; the pool provides concurrency across goroutines.
//
// Basic usage:
//
//	c, err := client.New("localhost:6791")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer c.Close()
//
//	if _, _, err := c.Set("user:123", "john_doe"); err != nil {
//		log.Fatal(err)
//	}
//	value, found, err := c.Get("user:123")
//
// All methods are safe for concurrent use.
package client

import (
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/imagine-hussain/not-redis/pkg/config"
	"github.com/imagine-hussain/not-redis/pkg/protocol"
)

// Client is a pooled connection to one not-redis server.
//
// Example:
//
//	c, err := client.New("localhost:6791")
//	defer c.Close()
type Client struct {
	config *config.ClientConfig
	pool   *connPool
}

// connPool manages reusable connections to the server. Connections are
// created on demand up to MaxConns and parked in a buffered channel between
// uses; a broken connection is discarded so a fresh one can replace it.
type connPool struct {
	connections chan net.Conn // Idle connections
	address     string        // Server address (host:port)
	connTimeout time.Duration // Dial timeout
	mu          sync.Mutex    // Protects created
	maxConns    int           // Pool capacity
	created     int           // Live connections (idle + checked out)
}

// New creates a Client for the given server address using default
// configuration.
//
// Parameters:
//   - addr: Server address in "host:port" form
//
// Returns:
//   - A ready Client
//   - Error if the configuration is invalid
func New(addr string) (*Client, error) {
	cfg := config.LoadClientConfig()
	cfg.Addr = addr

	return NewWithConfig(cfg)
}

// NewWithConfig creates a Client using the provided configuration, allowing
// pool size, timeouts and retry behavior to be tuned.
//
// Returns:
//   - A ready Client
//   - Error if the configuration is invalid
func NewWithConfig(cfg *config.ClientConfig) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid client config: %w", err)
	}

	return &Client{
		config: cfg,
		pool: &connPool{
			address:     cfg.Addr,
			connections: make(chan net.Conn, cfg.MaxConns),
			maxConns:    cfg.MaxConns,
			connTimeout: time.Duration(cfg.ConnTimeout) * time.Second,
		},
	}, nil
}

// Ping checks connectivity with the server.
//
// Returns:
//   - nil if the server answered PONG
//   - Error otherwise
func (c *Client) Ping() error {
	_, err := c.roundTrip("PING", protocol.TagPong)
	return err
}

// Echo sends text to the server and returns what it echoes back.
// The text must not contain spaces; the grammar has no quoting.
func (c *Client) Echo(text string) (string, error) {
	return c.roundTrip("ECHO "+text, protocol.TagEcho)
}

// Get retrieves the value stored under key.
//
// Returns:
//   - The value, if the key was present
//   - Boolean indicating if the key was present
//   - Error on transport or server failure
func (c *Client) Get(key string) (string, bool, error) {
	value, err := c.roundTrip("GET "+key, protocol.TagGet)
	if err != nil {
		return "", false, err
	}
	return splitNil(value)
}

// Set stores value under key.
//
// Returns:
//   - The previous value, if the key was already present
//   - Boolean indicating if a previous value existed
//   - Error on transport or server failure
func (c *Client) Set(key, value string) (string, bool, error) {
	prev, err := c.roundTrip(fmt.Sprintf("SET %s %s", key, value), protocol.TagSet)
	if err != nil {
		return "", false, err
	}
	return splitNil(prev)
}

// Del removes key from the store.
//
// Returns:
//   - The removed value, if the key was present
//   - Boolean indicating if anything was removed
//   - Error on transport or server failure
func (c *Client) Del(key string) (string, bool, error) {
	removed, err := c.roundTrip("DEL "+key, protocol.TagDel)
	if err != nil {
		return "", false, err
	}
	return splitNil(removed)
}

// Clear removes every entry from the store.
func (c *Client) Clear() error {
	_, err := c.roundTrip("CLR", protocol.TagClr)
	return err
}

// Close releases every pooled connection. The client must not be used
// after Close.
func (c *Client) Close() {
	c.pool.Close()
}

// roundTrip sends one framed request and reads one framed response,
// validating the response tag. Transport failures discard the connection
// and retry up to the configured attempt count; server-side ERR responses
// are returned immediately without retry.
func (c *Client) roundTrip(request, wantTag string) (string, error) {
	var lastErr error

	for attempt := 0; attempt <= c.config.RetryAttempts; attempt++ {
		conn, err := c.pool.Get()
		if err != nil {
			lastErr = err
			continue
		}

		payload, err := c.exchange(conn, request)
		if err != nil {
			c.pool.Discard(conn)
			lastErr = err
			continue
		}
		c.pool.Put(conn)

		return parseTagged(payload, wantTag)
	}

	return "", fmt.Errorf("request failed after %d attempts: %w", c.config.RetryAttempts+1, lastErr)
}

// exchange performs the write-then-read for one request on conn, applying
// the configured deadlines.
func (c *Client) exchange(conn net.Conn, request string) (string, error) {
	writeDeadline := time.Now().Add(time.Duration(c.config.WriteTimeout) * time.Second)
	if err := conn.SetWriteDeadline(writeDeadline); err != nil {
		return "", err
	}
	if err := protocol.WriteFrame(conn, []byte(request)); err != nil {
		return "", err
	}

	readDeadline := time.Now().Add(time.Duration(c.config.ReadTimeout) * time.Second)
	if err := conn.SetReadDeadline(readDeadline); err != nil {
		return "", err
	}
	payload, err := protocol.ReadFrame(conn, protocol.DefaultMaxFrameSize)
	if err != nil {
		return "", err
	}

	return string(payload), nil
}

// parseTagged validates a response payload against the expected tag and
// strips it. Bare responses (PONG, CLR) yield an empty value. An ERR
// response is surfaced as an error.
func parseTagged(payload, wantTag string) (string, error) {
	if payload == wantTag {
		return "", nil
	}
	if value, ok := strings.CutPrefix(payload, wantTag+" "); ok {
		return value, nil
	}
	if reason, ok := strings.CutPrefix(payload, protocol.TagErr+" "); ok {
		return "", fmt.Errorf("server error: %s", reason)
	}
	return "", fmt.Errorf("unexpected response: %q", payload)
}

// splitNil maps the textual (nil) marker onto the value-plus-presence pair
// used by Get, Set and Del.
func splitNil(value string) (string, bool, error) {
	if value == protocol.NilValue {
		return "", false, nil
	}
	return value, true, nil
}

// Get obtains a connection from the pool, dialing a new one if the pool is
// below capacity, and blocking for an idle connection otherwise.
func (p *connPool) Get() (net.Conn, error) {
	select {
	case conn := <-p.connections:
		return conn, nil
	default:
	}

	p.mu.Lock()
	if p.created < p.maxConns {
		p.created++
		p.mu.Unlock()

		conn, err := net.DialTimeout("tcp", p.address, p.connTimeout)
		if err != nil {
			p.mu.Lock()
			p.created--
			p.mu.Unlock()
			return nil, err
		}
		return conn, nil
	}
	p.mu.Unlock()

	return <-p.connections, nil
}

// Put returns a healthy connection to the pool for reuse.
func (p *connPool) Put(conn net.Conn) {
	select {
	case p.connections <- conn:
	default:
		p.Discard(conn)
	}
}

// Discard closes a connection and frees its pool slot.
func (p *connPool) Discard(conn net.Conn) {
	conn.Close()

	p.mu.Lock()
	p.created--
	p.mu.Unlock()
}

// Close drains and closes every idle connection.
func (p *connPool) Close() {
	for {
		select {
		case conn := <-p.connections:
			p.Discard(conn)
		default:
			return
		}
	}
}
