// Package server implements the not-redis TCP server: a connection manager
// that accepts clients and a per-connection handler that runs the
// read-decode-execute-encode-write loop against the shared store.
//
// Architecture:
//   - One goroutine per accepted connection; connections share nothing but
//     the store handle.
//   - Frames are read and written with the length-prefixed codec from
//     pkg/protocol.
//   - Per-frame read and per-response write deadlines bound how long a peer
//     may stall the connection's goroutine.
//
// Error policy per connection:
//   - Transport failures and disconnects close the connection.
//   - An oversized declared frame length or a non-UTF-8 payload closes the
//     connection without a response; the byte stream cannot be
//     resynchronized after either.
//   - Grammar errors (unknown command, missing arguments, empty payload)
//     are answered with an ERR response and the session continues.
//
// No per-connection error ever propagates to the accept loop or to other
// connections.
package server

import (
	"context"
	"errors"
	"io"
	"log"
	"net"
	"time"

	"github.com/imagine-hussain/not-redis/pkg/config"
	"github.com/imagine-hussain/not-redis/pkg/protocol"
	"github.com/imagine-hussain/not-redis/pkg/store"
)

// Server accepts client connections and serves the command loop for each.
// The store is injected at construction and shared by every connection;
// the server never owns it exclusively.
//
// Example:
//
//	srv := server.New(cfg, store.New())
//	go func() {
//		if err := srv.Start(); err != nil {
//			log.Printf("server error: %v", err)
//		}
//	}()
//	// later
//	srv.Stop()
type Server struct {
	store        *store.Store // Shared key-value store
	listener     net.Listener // TCP listener for incoming connections
	addr         string       // Address to bind to
	maxFrame     int          // Receive-buffer capacity in bytes
	readTimeout  time.Duration
	writeTimeout time.Duration
}

// New creates a Server that will bind to cfg.Address() and serve commands
// against st. The server is not started until Start or Serve is called.
func New(cfg *config.ServerConfig, st *store.Store) *Server {
	return &Server{
		store:        st,
		addr:         cfg.Address(),
		maxFrame:     cfg.MaxFrameSize,
		readTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		writeTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
	}
}

// Start binds the configured address and serves until Stop is called or a
// fatal listener error occurs. A bind failure is returned immediately; it is
// the only startup-abort condition.
//
// Returns:
//   - Error if binding fails or the listener breaks
func (s *Server) Start() error {
	lc := net.ListenConfig{}
	listener, err := lc.Listen(context.Background(), "tcp", s.addr)
	if err != nil {
		return err
	}

	return s.Serve(listener)
}

// Serve accepts connections on listener until Stop is called. The listener
// may be constructed by the caller; this keeps socket binding out of the
// serving core and makes the server testable on an ephemeral port.
//
// Each accepted connection gets its own goroutine holding a handle to the
// shared store. Accept errors are logged and the loop continues; only a
// closed listener ends it.
func (s *Server) Serve(listener net.Listener) error {
	s.listener = listener
	log.Printf("not-redis listening on %s", listener.Addr())

	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			log.Printf("Failed to accept connection: %v", err)
			continue
		}

		go s.handleConnection(conn)
	}
}

// Stop closes the listener, causing Start/Serve to return. Connections
// already being served run until their peers disconnect.
func (s *Server) Stop() error {
	if s.listener != nil {
		return s.listener.Close()
	}
	return nil
}

// handleConnection runs one client's request/response loop. It owns the
// socket for its whole lifetime and holds no state visible to other
// connections except the shared store.
//
// The loop reads exactly one frame, executes it, writes exactly one
// response, and repeats; a connection never has more than one request in
// flight. Any exit path closes the socket.
func (s *Server) handleConnection(conn net.Conn) {
	remote := conn.RemoteAddr()
	log.Printf("Client connected: %s", remote)

	defer func() {
		if err := conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			log.Printf("Error closing connection %s: %v", remote, err)
		}
	}()

	for {
		if err := conn.SetReadDeadline(time.Now().Add(s.readTimeout)); err != nil {
			log.Printf("Error setting read deadline for %s: %v", remote, err)
			return
		}

		payload, err := protocol.ReadFrame(conn, s.maxFrame)
		if err != nil {
			logReadFailure(remote, err)
			return
		}

		resp := s.execute(string(payload))

		if err := conn.SetWriteDeadline(time.Now().Add(s.writeTimeout)); err != nil {
			log.Printf("Error setting write deadline for %s: %v", remote, err)
			return
		}
		if err := protocol.WriteFrame(conn, []byte(resp.Encode())); err != nil {
			log.Printf("Failed to write response to %s: %v", remote, err)
			return
		}
	}
}

// logReadFailure records why a connection's read loop ended. A clean close
// at a frame boundary is a normal end of session, not an error.
func logReadFailure(remote net.Addr, err error) {
	switch {
	case errors.Is(err, io.EOF):
		log.Printf("Client disconnected: %s", remote)
	case errors.Is(err, io.ErrUnexpectedEOF):
		log.Printf("Client %s disconnected mid-frame", remote)
	case errors.Is(err, protocol.ErrFrameTooLarge):
		log.Printf("Closing %s: %v", remote, err)
	case errors.Is(err, protocol.ErrInvalidUTF8):
		log.Printf("Closing %s: %v", remote, err)
	default:
		log.Printf("Failed to read frame from %s: %v", remote, err)
	}
}

// execute parses one frame payload and dispatches it to the store. Grammar
// errors are turned into ERR responses here so the caller's loop only ever
// sees transport-level failures.
func (s *Server) execute(payload string) protocol.Response {
	cmd, err := protocol.ParseCommand(payload)
	if err != nil {
		return protocol.ErrResponse(err.Error())
	}

	switch cmd.Type {
	case protocol.CmdPing:
		return protocol.Response{Tag: protocol.TagPong, Bare: true}
	case protocol.CmdEcho:
		return protocol.Response{Tag: protocol.TagEcho, Value: cmd.Key}
	case protocol.CmdGet:
		value, ok := s.store.Get(cmd.Key)
		return protocol.Response{Tag: protocol.TagGet, Value: protocol.Optional(value, ok)}
	case protocol.CmdSet:
		prev, existed := s.store.Set(cmd.Key, cmd.Value)
		return protocol.Response{Tag: protocol.TagSet, Value: protocol.Optional(prev, existed)}
	case protocol.CmdDel:
		removed, existed := s.store.Del(cmd.Key)
		return protocol.Response{Tag: protocol.TagDel, Value: protocol.Optional(removed, existed)}
	case protocol.CmdClear:
		s.store.Clear()
		return protocol.Response{Tag: protocol.TagClr, Bare: true}
	default:
		return protocol.ErrResponse("unknown command")
	}
}
