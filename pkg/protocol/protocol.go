// Package protocol implements the wire protocol spoken between not-redis
// clients and servers: length-prefixed framing plus a small space-separated
// text grammar for commands and responses.
//
// Protocol Format:
//   - Every message (request or response) is a frame: a 4-byte unsigned
//     big-endian length field followed by exactly that many bytes of
//     UTF-8 text payload.
//   - There is no in-band terminator; message boundaries are determined
//     solely by the length prefix, so values may contain any byte
//     sequence that is valid UTF-8, including "\r\n".
//
// Request grammar (fields separated by a single space, no quoting):
//
//	PING
//	ECHO <text>
//	GET <key>
//	SET <key> <value>
//	DEL <key>
//	CLR
//
// Response grammar: a tag, optionally followed by a space and a value:
//
//	PONG
//	ECHO <text>
//	GET <value>   | GET (nil)
//	SET <prev>    | SET (nil)
//	DEL <removed> | DEL (nil)
//	CLR
//	ERR <reason>
//
// Example usage:
//
//	cmd, err := protocol.ParseCommand("SET user:123 john_doe")
//	if err != nil {
//		// grammar error: reply protocol.ErrResponse(err.Error())
//	}
//
//	resp := protocol.Response{Tag: protocol.TagSet, Value: protocol.NilValue}
//	err = protocol.WriteFrame(conn, []byte(resp.Encode()))
package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// Framing constants.
const (
	// HeaderSize is the size in bytes of the big-endian length prefix.
	HeaderSize = 4

	// DefaultMaxFrameSize is the default receive-buffer capacity. A frame
	// whose declared length exceeds the configured capacity cannot be
	// resynchronized and costs the connection.
	DefaultMaxFrameSize = 1024
)

// Framing and decode errors. These abandon the byte stream: once a peer has
// declared a frame the receiver cannot hold, or sent bytes that are not
// UTF-8, there is no protocol-level way to find the next frame boundary, so
// the connection must be closed.
var (
	// ErrFrameTooLarge reports a declared length beyond the receive-buffer capacity.
	ErrFrameTooLarge = errors.New("frame exceeds maximum size")

	// ErrInvalidUTF8 reports a frame payload that is not valid UTF-8 text.
	ErrInvalidUTF8 = errors.New("frame payload is not valid UTF-8")
)

// Grammar errors. These are request-level: the frame itself was sound, so the
// server reports them back to the client as an ERR response and keeps the
// connection open.
var (
	// ErrUnknownCommand reports an unrecognized first token.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrNotEnoughArgs reports a command with fewer tokens than its arity requires.
	ErrNotEnoughArgs = errors.New("not enough arguments")

	// ErrEmptyCommand reports an empty payload.
	ErrEmptyCommand = errors.New("empty command")
)

// CommandType identifies the operation a parsed command requests.
type CommandType uint8

// Command type constants, one per grammar production.
const (
	CmdPing  CommandType = iota // PING - connectivity test
	CmdEcho                     // ECHO <text> - echo the argument back
	CmdGet                      // GET <key> - read a value
	CmdSet                      // SET <key> <value> - insert or overwrite
	CmdDel                      // DEL <key> - remove a key
	CmdClear                    // CLR - remove all keys
)

// Command is a parsed client request.
// Key holds the first argument (the key for GET/SET/DEL, the text for ECHO)
// and Value holds the second (SET only); unused fields are empty.
type Command struct {
	Key   string      // First positional argument
	Value string      // Second positional argument (SET only)
	Type  CommandType // The operation to perform
}

// Response tags as they appear on the wire.
const (
	TagPong = "PONG"
	TagEcho = "ECHO"
	TagGet  = "GET"
	TagSet  = "SET"
	TagDel  = "DEL"
	TagClr  = "CLR"
	TagErr  = "ERR"
)

// NilValue is the textual marker for an absent value in GET/SET/DEL responses.
const NilValue = "(nil)"

// Response is a server reply: a tag, optionally followed by a value.
// Bare responses (PONG, CLR) carry the tag alone.
type Response struct {
	Tag   string // Response tag (TagPong, TagGet, ...)
	Value string // Optional value; ignored when Bare is set
	Bare  bool   // True for tag-only responses
}

// Encode renders the response payload as wire text, without framing.
//
// Example:
//
//	Response{Tag: TagGet, Value: "bar"}.Encode() // "GET bar"
//	Response{Tag: TagClr, Bare: true}.Encode()   // "CLR"
func (r Response) Encode() string {
	if r.Bare {
		return r.Tag
	}
	return r.Tag + " " + r.Value
}

// ErrResponse builds the error reply for a request-level failure.
func ErrResponse(reason string) Response {
	return Response{Tag: TagErr, Value: reason}
}

// Optional renders a store result as response text, substituting NilValue
// for absence.
func Optional(value string, ok bool) string {
	if !ok {
		return NilValue
	}
	return value
}

// ParseCommand parses a frame payload into a Command.
//
// The payload is split on single spaces; the first token selects the command
// (exact match) and the remaining tokens are consumed positionally as
// required arguments. Tokens beyond a command's arity are not consumed and
// not an error.
//
// Example:
//
//	cmd, err := protocol.ParseCommand("GET foo")
//	// cmd.Type == CmdGet, cmd.Key == "foo"
//
// Returns:
//   - The parsed Command
//   - ErrEmptyCommand, ErrUnknownCommand or ErrNotEnoughArgs (wrapped) on
//     grammar failures
func ParseCommand(payload string) (Command, error) {
	if payload == "" {
		return Command{}, ErrEmptyCommand
	}

	tokens := strings.Split(payload, " ")

	arg := func(i int) (string, error) {
		if i >= len(tokens) {
			return "", fmt.Errorf("%w: %s requires %d", ErrNotEnoughArgs, tokens[0], i)
		}
		return tokens[i], nil
	}

	switch tokens[0] {
	case "PING":
		return Command{Type: CmdPing}, nil
	case "ECHO":
		text, err := arg(1)
		if err != nil {
			return Command{}, err
		}
		return Command{Type: CmdEcho, Key: text}, nil
	case "GET":
		key, err := arg(1)
		if err != nil {
			return Command{}, err
		}
		return Command{Type: CmdGet, Key: key}, nil
	case "SET":
		key, err := arg(1)
		if err != nil {
			return Command{}, err
		}
		value, err := arg(2)
		if err != nil {
			return Command{}, err
		}
		return Command{Type: CmdSet, Key: key, Value: value}, nil
	case "DEL":
		key, err := arg(1)
		if err != nil {
			return Command{}, err
		}
		return Command{Type: CmdDel, Key: key}, nil
	case "CLR":
		return Command{Type: CmdClear}, nil
	default:
		return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, tokens[0])
	}
}

// WriteFrame writes one frame to w: the 4-byte big-endian length prefix
// followed by the payload. The write is unbuffered, so the frame reaches
// the socket before WriteFrame returns.
//
// Parameters:
//   - w: Writer to send the frame to (typically a network connection)
//   - payload: Frame payload bytes
//
// Returns:
//   - Error if the payload exceeds the uint32 range or the write fails
func WriteFrame(w io.Writer, payload []byte) error {
	if uint64(len(payload)) > uint64(^uint32(0)) {
		return fmt.Errorf("payload too large: %d bytes", len(payload))
	}

	header := make([]byte, HeaderSize)
	binary.BigEndian.PutUint32(header, uint32(len(payload)))

	if _, err := w.Write(header); err != nil {
		return err
	}

	_, err := w.Write(payload)
	return err
}

// ReadFrame reads one frame from r and validates it as UTF-8 text.
//
// It reads the 4-byte length prefix with io.ReadFull, so a peer that closes
// cleanly between frames yields io.EOF, while a close mid-header or
// mid-payload yields io.ErrUnexpectedEOF. A declared length greater than
// maxLen yields ErrFrameTooLarge without consuming the payload; the caller
// cannot resynchronize after that and should close the connection.
//
// Parameters:
//   - r: Reader to read from (typically a network connection)
//   - maxLen: Receive-buffer capacity in bytes
//
// Returns:
//   - The frame payload
//   - Error if reading fails, the frame is oversized, or the payload is not UTF-8
func ReadFrame(r io.Reader, maxLen int) ([]byte, error) {
	header := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}

	length := binary.BigEndian.Uint32(header)
	if uint64(length) > uint64(maxLen) {
		return nil, fmt.Errorf("%w: declared %d, capacity %d", ErrFrameTooLarge, length, maxLen)
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}

	if !utf8.Valid(payload) {
		return nil, ErrInvalidUTF8
	}

	return payload, nil
}
