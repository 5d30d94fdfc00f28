package logger

import (
	"bufio"
	"fmt"
	"os"
)

// Channel is one of the append-only record streams of a tracked problem. Its
// value is the file extension.
type Channel string

const (
	Complete    Channel = "cdat"
	Interval    Channel = "idat"
	Improvement Channel = "dat"
	Time        Channel = "tdat"
)

// Channels lists every channel in file order.
var Channels = []Channel{Complete, Interval, Improvement, Time}

// DefaultBufferSize is the number of bytes a channel accumulates before it
// writes through to its file.
const DefaultBufferSize = 64 << 10

// channelWriter buffers lines for one channel file.
type channelWriter struct {
	kind    Channel
	path    string
	file    *os.File
	w       *bufio.Writer
	written uint64
}

func openChannel(kind Channel, path string, size int) (*channelWriter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening %s channel %q: %w", kind, path, err)
	}
	return &channelWriter{kind: kind, path: path, file: f, w: bufio.NewWriterSize(f, size)}, nil
}

func (c *channelWriter) write(line string) error {
	n, err := c.w.WriteString(line)
	c.written += uint64(n)
	if err != nil {
		return fmt.Errorf("writing %q: %w", c.path, err)
	}
	return nil
}

func (c *channelWriter) flush() error {
	if err := c.w.Flush(); err != nil {
		return fmt.Errorf("flushing %q: %w", c.path, err)
	}
	return nil
}

func (c *channelWriter) close() error {
	flushErr := c.flush()
	if err := c.file.Close(); err != nil && flushErr == nil {
		return fmt.Errorf("closing %q: %w", c.path, err)
	}
	return flushErr
}
