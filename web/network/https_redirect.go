// Package network holds listener helpers for the nasweb server.
package network

import (
	"bufio"
	"bytes"
	"fmt"
	"net"
	"net/http"
	"sync"
)

// plainPeekSize is how much of the first read is inspected for a plain HTTP request.
const plainPeekSize = 2048

// RedirectingListener accepts connections on a TLS port and answers plain HTTP
// requests on them with a redirect to the https:// URL. TLS handshakes pass through.
type RedirectingListener struct {
	net.Listener
}

// NewRedirectingListener wraps listener. Wrap it before tls.NewListener.
func NewRedirectingListener(listener net.Listener) net.Listener {
	return &RedirectingListener{Listener: listener}
}

func (l *RedirectingListener) Accept() (net.Conn, error) {
	conn, err := l.Listener.Accept()
	if err != nil {
		return nil, err
	}
	return &redirectingConn{Conn: conn}, nil
}

type redirectingConn struct {
	net.Conn

	peeked []byte
	offset int
	once   sync.Once
}

// sniff reads the first chunk. If it parses as an HTTP request the client gets
// a 308 and the connection is closed; otherwise the bytes are replayed.
func (c *redirectingConn) sniff() {
	buf := make([]byte, plainPeekSize)
	n, err := c.Conn.Read(buf)
	c.peeked = buf[:n]
	if err != nil {
		return
	}

	req, err := http.ReadRequest(bufio.NewReader(bytes.NewReader(c.peeked)))
	if err != nil {
		return
	}
	resp := http.Response{
		StatusCode: http.StatusPermanentRedirect,
		ProtoMajor: 1,
		ProtoMinor: 1,
		Header:     http.Header{},
	}
	resp.Header.Set("Location", fmt.Sprintf("https://%s%s", req.Host, req.RequestURI))
	resp.Header.Set("Connection", "close")
	_ = resp.Write(c.Conn)
	_ = c.Conn.Close()
	c.peeked = nil
}

func (c *redirectingConn) Read(buf []byte) (int, error) {
	c.once.Do(c.sniff)

	if c.peeked != nil {
		n := copy(buf, c.peeked[c.offset:])
		c.offset += n
		if c.offset >= len(c.peeked) {
			c.peeked = nil
		}
		return n, nil
	}
	return c.Conn.Read(buf)
}
