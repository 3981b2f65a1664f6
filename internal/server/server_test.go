package server

import (
	"encoding/binary"
	"fmt"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/imagine-hussain/not-redis/pkg/config"
	"github.com/imagine-hussain/not-redis/pkg/protocol"
	"github.com/imagine-hussain/not-redis/pkg/store"
)

// startTestServer binds an ephemeral port and serves on it until the test ends.
func startTestServer(t *testing.T) (string, *store.Store) {
	t.Helper()

	cfg := &config.ServerConfig{
		Host:         "127.0.0.1",
		Port:         0,
		MaxFrameSize: protocol.DefaultMaxFrameSize,
		ReadTimeout:  5,
		WriteTimeout: 5,
	}

	st := store.New()
	srv := New(cfg, st)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to bind test listener: %v", err)
	}

	go func() {
		if serveErr := srv.Serve(listener); serveErr != nil {
			t.Errorf("Serve returned error: %v", serveErr)
		}
	}()
	t.Cleanup(func() {
		if stopErr := srv.Stop(); stopErr != nil {
			t.Errorf("Stop returned error: %v", stopErr)
		}
	})

	return listener.Addr().String(), st
}

func dialTestServer(t *testing.T, addr string) net.Conn {
	t.Helper()

	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	if err != nil {
		t.Fatalf("Failed to dial test server: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// roundTrip sends one framed request and returns the framed response payload.
func roundTrip(t *testing.T, conn net.Conn, request string) string {
	t.Helper()

	if err := protocol.WriteFrame(conn, []byte(request)); err != nil {
		t.Fatalf("Failed to send %q: %v", request, err)
	}
	payload, err := protocol.ReadFrame(conn, protocol.DefaultMaxFrameSize)
	if err != nil {
		t.Fatalf("Failed to read response to %q: %v", request, err)
	}
	return string(payload)
}

func TestPingAndEcho(t *testing.T) {
	addr, _ := startTestServer(t)
	conn := dialTestServer(t, addr)

	if got := roundTrip(t, conn, "PING"); got != "PONG" {
		t.Errorf("PING: expected PONG, got %q", got)
	}
	if got := roundTrip(t, conn, "ECHO hello"); got != "ECHO hello" {
		t.Errorf("ECHO: expected ECHO hello, got %q", got)
	}
}

func TestSetThenGet(t *testing.T) {
	addr, _ := startTestServer(t)
	conn := dialTestServer(t, addr)

	if got := roundTrip(t, conn, "SET foo bar"); got != "SET (nil)" {
		t.Errorf("Expected SET (nil), got %q", got)
	}
	if got := roundTrip(t, conn, "GET foo"); got != "GET bar" {
		t.Errorf("Expected GET bar, got %q", got)
	}
}

func TestSetReportsPreviousValue(t *testing.T) {
	addr, _ := startTestServer(t)
	conn := dialTestServer(t, addr)

	roundTrip(t, conn, "SET foo v1")
	if got := roundTrip(t, conn, "SET foo v2"); got != "SET v1" {
		t.Errorf("Expected SET v1, got %q", got)
	}
	if got := roundTrip(t, conn, "GET foo"); got != "GET v2" {
		t.Errorf("Expected GET v2, got %q", got)
	}
}

func TestDelThenGet(t *testing.T) {
	addr, _ := startTestServer(t)
	conn := dialTestServer(t, addr)

	roundTrip(t, conn, "SET foo bar")
	if got := roundTrip(t, conn, "DEL foo"); got != "DEL bar" {
		t.Errorf("Expected DEL bar, got %q", got)
	}
	if got := roundTrip(t, conn, "GET foo"); got != "GET (nil)" {
		t.Errorf("Expected GET (nil), got %q", got)
	}
	// DEL is idempotent: repeating it reports absence.
	if got := roundTrip(t, conn, "DEL foo"); got != "DEL (nil)" {
		t.Errorf("Expected DEL (nil), got %q", got)
	}
}

func TestClearEmptiesStore(t *testing.T) {
	addr, st := startTestServer(t)
	conn := dialTestServer(t, addr)

	keys := []string{"a", "b", "c"}
	for _, k := range keys {
		roundTrip(t, conn, fmt.Sprintf("SET %s value_%s", k, k))
	}
	if st.Len() != 3 {
		t.Fatalf("Expected 3 keys before CLR, got %d", st.Len())
	}

	if got := roundTrip(t, conn, "CLR"); got != "CLR" {
		t.Errorf("Expected CLR, got %q", got)
	}
	for _, k := range keys {
		if got := roundTrip(t, conn, "GET "+k); got != "GET (nil)" {
			t.Errorf("GET %s after CLR: expected GET (nil), got %q", k, got)
		}
	}
}

func TestGrammarErrorsKeepSessionAlive(t *testing.T) {
	addr, _ := startTestServer(t)
	conn := dialTestServer(t, addr)

	tests := []string{"FLUSH all", "GET", "SET onlykey", ""}
	for _, request := range tests {
		got := roundTrip(t, conn, request)
		if !strings.HasPrefix(got, "ERR ") {
			t.Errorf("Request %q: expected ERR response, got %q", request, got)
		}
	}

	// The session survived every malformed request.
	if got := roundTrip(t, conn, "PING"); got != "PONG" {
		t.Errorf("Expected PONG after grammar errors, got %q", got)
	}
}

func TestOversizedFrameClosesConnection(t *testing.T) {
	addr, _ := startTestServer(t)
	conn := dialTestServer(t, addr)

	header := make([]byte, protocol.HeaderSize)
	binary.BigEndian.PutUint32(header, protocol.DefaultMaxFrameSize+1)
	if _, err := conn.Write(header); err != nil {
		t.Fatalf("Failed to write oversized header: %v", err)
	}

	// The server must close without sending any response.
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 1)
	if n, err := conn.Read(buf); err == nil {
		t.Errorf("Expected closed connection, read %d bytes", n)
	}
}

func TestInvalidUTF8ClosesConnection(t *testing.T) {
	addr, _ := startTestServer(t)
	conn := dialTestServer(t, addr)

	header := make([]byte, protocol.HeaderSize)
	binary.BigEndian.PutUint32(header, 2)
	if _, err := conn.Write(append(header, 0xff, 0xfe)); err != nil {
		t.Fatalf("Failed to write frame: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 1)
	if n, err := conn.Read(buf); err == nil {
		t.Errorf("Expected closed connection, read %d bytes", n)
	}
}

func TestConnectionErrorDoesNotAffectOthers(t *testing.T) {
	addr, _ := startTestServer(t)
	healthy := dialTestServer(t, addr)
	doomed := dialTestServer(t, addr)

	roundTrip(t, healthy, "SET stable value")

	// Kill one connection with an unrecoverable framing error.
	header := make([]byte, protocol.HeaderSize)
	binary.BigEndian.PutUint32(header, protocol.DefaultMaxFrameSize+1)
	doomed.Write(header)

	// The other connection keeps working.
	if got := roundTrip(t, healthy, "GET stable"); got != "GET value" {
		t.Errorf("Expected GET value, got %q", got)
	}
}

func TestConcurrentConnections(t *testing.T) {
	addr, _ := startTestServer(t)

	const conns = 8
	const opsPerConn = 50
	var wg sync.WaitGroup

	errs := make(chan error, conns)
	for i := 0; i < conns; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()

			conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
			if err != nil {
				errs <- fmt.Errorf("conn %d: dial: %w", id, err)
				return
			}
			defer conn.Close()

			for op := 0; op < opsPerConn; op++ {
				key := fmt.Sprintf("conn%d_key%d", id, op)
				value := fmt.Sprintf("value%d", op)

				if err := protocol.WriteFrame(conn, []byte(fmt.Sprintf("SET %s %s", key, value))); err != nil {
					errs <- fmt.Errorf("conn %d: write: %w", id, err)
					return
				}
				payload, err := protocol.ReadFrame(conn, protocol.DefaultMaxFrameSize)
				if err != nil {
					errs <- fmt.Errorf("conn %d: read: %w", id, err)
					return
				}
				if string(payload) != "SET (nil)" {
					errs <- fmt.Errorf("conn %d: expected SET (nil), got %q", id, payload)
					return
				}

				if err := protocol.WriteFrame(conn, []byte("GET "+key)); err != nil {
					errs <- fmt.Errorf("conn %d: write: %w", id, err)
					return
				}
				payload, err = protocol.ReadFrame(conn, protocol.DefaultMaxFrameSize)
				if err != nil {
					errs <- fmt.Errorf("conn %d: read: %w", id, err)
					return
				}
				if string(payload) != "GET "+value {
					errs <- fmt.Errorf("conn %d: expected GET %s, got %q", id, value, payload)
					return
				}
			}
		}(i)
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}
