// internal/printer/device.go
package printer

import (
	"errors"
	"os"

	"github.com/google/uuid"
)

// DeviceTransport writes raw jobs to a character device such as /dev/usb/lp0.
// Plain files work too, which makes it useful as a capture sink.
type DeviceTransport struct{}

// Open opens path for appending. The file must already exist for device
// nodes; plain files are created.
func (DeviceTransport) Open(path string) (Conn, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return nil, stepErr("open", path, err)
	}
	return &deviceConn{f: f, path: path}, nil
}

type deviceConn struct {
	f    *os.File
	path string
	job  string
}

func (c *deviceConn) BeginJob(string) (string, error) {
	if c.job != "" {
		return "", stepErr("begin", c.path, errors.New("job already open"))
	}
	c.job = uuid.NewString()
	return c.job, nil
}

func (c *deviceConn) Write(p []byte) error {
	if c.job == "" {
		return stepErr("write", c.path, errors.New("no open job"))
	}
	if err := writeAll(c.f, p); err != nil {
		return stepErr("write", c.path, err)
	}
	return nil
}

func (c *deviceConn) EndJob() error {
	if c.job == "" {
		return stepErr("end", c.path, errors.New("no open job"))
	}
	c.job = ""
	// character devices commonly reject fsync
	_ = c.f.Sync()
	return nil
}

func (c *deviceConn) Close() error {
	if err := c.f.Close(); err != nil {
		return stepErr("close", c.path, err)
	}
	return nil
}
