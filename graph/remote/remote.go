// Package remote is a client for the out-of-process graph storage engine
// reached over a Unix-domain socket. It speaks a
// length-delimited JSON request/response protocol over net.Conn.
//
// No example in the retrieval pack ships a protobuf, cap'n'proto, or
// flatbuffers dependency, so this client frames on stdlib encoding/json and
// encoding/binary rather than inventing a wire schema no library here
// grounds. See DESIGN.md for the justification.
package remote

import (
	"bufio"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/grafema-go/grafema/graph"
)

// request is one call against the remote backend: the operation name plus
// a JSON-encodable argument payload specific to that operation.
type request struct {
	Op   string          `json:"op"`
	Args json.RawMessage `json:"args"`
}

type response struct {
	OK    bool            `json:"ok"`
	Error string          `json:"error,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Client is a graph.Backend that forwards every call to an out-of-process
// backend over a single persistent Unix-domain-socket connection.
type Client struct {
	mu   sync.Mutex
	conn net.Conn
	rd   *bufio.Reader
}

// Dial connects to the backend listening on the given Unix socket path.
func Dial(ctx context.Context, socketPath string) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("remote: dial %s: %w", socketPath, err)
	}
	return &Client{conn: conn, rd: bufio.NewReader(conn)}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

var _ graph.Backend = (*Client)(nil)

// call sends op+args and decodes the JSON response payload into out.
func (c *Client) call(op string, args any, out any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	argBytes, err := json.Marshal(args)
	if err != nil {
		return err
	}
	reqBytes, err := json.Marshal(request{Op: op, Args: argBytes})
	if err != nil {
		return err
	}

	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(reqBytes)))
	if _, err := c.conn.Write(lenBuf[:]); err != nil {
		return fmt.Errorf("remote: write length frame: %w", err)
	}
	if _, err := c.conn.Write(reqBytes); err != nil {
		return fmt.Errorf("remote: write request: %w", err)
	}

	if _, err := io.ReadFull(c.rd, lenBuf[:]); err != nil {
		return fmt.Errorf("remote: read length frame: %w", err)
	}
	size := binary.BigEndian.Uint32(lenBuf[:])
	body := make([]byte, size)
	if _, err := io.ReadFull(c.rd, body); err != nil {
		return fmt.Errorf("remote: read response: %w", err)
	}

	var resp response
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("remote: decode response: %w", err)
	}
	if !resp.OK {
		return fmt.Errorf("remote: %s: %s", op, resp.Error)
	}
	if out == nil || len(resp.Data) == 0 {
		return nil
	}
	return json.Unmarshal(resp.Data, out)
}
