// internal/printer/spool.go
package printer

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"

	"github.com/google/uuid"
)

// SpoolTransport submits raw jobs to a local print queue through lp(1).
// The job body is buffered and handed to the spooler on EndJob.
type SpoolTransport struct {
	// Command defaults to "lp".
	Command string
}

// Open checks that the spooler command is available.
func (s *SpoolTransport) Open(queue string) (Conn, error) {
	cmd := s.Command
	if cmd == "" {
		cmd = "lp"
	}
	path, err := exec.LookPath(cmd)
	if err != nil {
		return nil, stepErr("open", queue, err)
	}
	return &spoolConn{cmd: path, queue: queue}, nil
}

type spoolConn struct {
	cmd   string
	queue string
	job   string
	title string
	buf   bytes.Buffer
}

func (c *spoolConn) BeginJob(name string) (string, error) {
	if c.job != "" {
		return "", stepErr("begin", c.queue, errors.New("job already open"))
	}
	c.job = uuid.NewString()
	c.title = name
	if c.title == "" {
		c.title = "raw-" + c.job
	}
	c.buf.Reset()
	return c.job, nil
}

func (c *spoolConn) Write(p []byte) error {
	if c.job == "" {
		return stepErr("write", c.queue, errors.New("no open job"))
	}
	c.buf.Write(p)
	return nil
}

func (c *spoolConn) EndJob() error {
	if c.job == "" {
		return stepErr("end", c.queue, errors.New("no open job"))
	}
	defer func() {
		c.job = ""
		c.buf.Reset()
	}()

	cmd := exec.Command(c.cmd, "-d", c.queue, "-o", "raw", "-t", c.title)
	cmd.Stdin = bytes.NewReader(c.buf.Bytes())
	out, err := cmd.CombinedOutput()
	if err != nil {
		return stepErr("end", c.queue, fmt.Errorf("%v: %s", err, bytes.TrimSpace(out)))
	}
	return nil
}

func (c *spoolConn) Close() error {
	c.buf.Reset()
	return nil
}
