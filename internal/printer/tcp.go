// internal/printer/tcp.go
package printer

import (
	"errors"
	"io"
	"net"
	"time"

	"github.com/google/uuid"
)

const defaultTCPTimeout = 3 * time.Second

// TCPTransport sends raw jobs to a socket printer (port 9100).
// One connection per job; nothing is read back.
type TCPTransport struct {
	Timeout time.Duration
}

// Open dials addr.
func (t *TCPTransport) Open(addr string) (Conn, error) {
	timeout := t.Timeout
	if timeout <= 0 {
		timeout = defaultTCPTimeout
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = net.JoinHostPort(addr, "9100")
	}

	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, stepErr("dial", addr, err)
	}
	return &tcpConn{conn: conn, addr: addr, timeout: timeout}, nil
}

type tcpConn struct {
	conn    net.Conn
	addr    string
	timeout time.Duration
	job     string
}

func (c *tcpConn) BeginJob(name string) (string, error) {
	if c.job != "" {
		return "", stepErr("begin", c.addr, errors.New("job already open"))
	}
	c.job = uuid.NewString()
	return c.job, nil
}

func (c *tcpConn) Write(p []byte) error {
	if c.job == "" {
		return stepErr("write", c.addr, errors.New("no open job"))
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.timeout))
	if err := writeAll(c.conn, p); err != nil {
		return stepErr("write", c.addr, err)
	}
	return nil
}

func (c *tcpConn) EndJob() error {
	if c.job == "" {
		return stepErr("end", c.addr, errors.New("no open job"))
	}
	c.job = ""
	return nil
}

func (c *tcpConn) Close() error {
	if err := c.conn.Close(); err != nil {
		return stepErr("close", c.addr, err)
	}
	return nil
}

func writeAll(w io.Writer, b []byte) error {
	for len(b) > 0 {
		n, err := w.Write(b)
		if err != nil {
			return err
		}
		if n == 0 {
			return io.ErrShortWrite
		}
		b = b[n:]
	}
	return nil
}
