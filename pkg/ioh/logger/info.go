package logger

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/mihai-snyk/iohbench/pkg/ioh/framework"
)

// infoMeta is everything written into the metadata line of an info block.
type infoMeta struct {
	suite         string
	problem       framework.ProblemInfo
	algorithmName string
	algorithmInfo string
	attributes    []attribute
	dynamic       []string
}

type attribute struct {
	name  string
	value string
}

// infoFile is the summary file of one problem. A block (metadata line and
// data path line) is opened per (problem, dimension) pair and a segment is
// appended to it per finished run.
type infoFile struct {
	path      string
	file      *os.File
	w         *bufio.Writer
	blockOpen bool
}

func openInfo(path string) (*infoFile, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening info file %q: %w", path, err)
	}
	return &infoFile{path: path, file: f, w: bufio.NewWriter(f)}, nil
}

func (f *infoFile) openBlock(m infoMeta) error {
	if err := f.endBlock(); err != nil {
		return err
	}
	var b strings.Builder
	fmt.Fprintf(&b, `suite = "%s", funcId = %d, funcName = "%s", DIM = %d, maximization = "%s", algId = "%s", algInfo = "%s"`,
		m.suite, m.problem.ID, m.problem.Name, m.problem.Dimension,
		maximizationFlag(m.problem.Type), m.algorithmName, m.algorithmInfo)
	for _, a := range m.attributes {
		fmt.Fprintf(&b, `, %s = "%s"`, a.name, a.value)
	}
	if len(m.dynamic) > 0 {
		fmt.Fprintf(&b, `, dynamicAttribute = "%s"`, strings.Join(m.dynamic, "|"))
	}
	b.WriteByte('\n')
	b.WriteString(dataPath(m.problem.ID, m.problem.Name, m.problem.Dimension, Improvement))

	f.blockOpen = true
	return f.write(b.String())
}

// segment appends the summary of one run to the open block.
func (f *infoFile) segment(instanceID, evaluations int, bestY float64, dynamic []float64) error {
	if !f.blockOpen {
		return fmt.Errorf("%w: writing run summary to %q without an open block", ErrNotTracking, f.path)
	}
	var b strings.Builder
	b.WriteString(", ")
	b.WriteString(strconv.Itoa(instanceID))
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(evaluations))
	b.WriteByte('|')
	b.WriteString(formatFloat(bestY))
	for i, v := range dynamic {
		if i == 0 {
			b.WriteByte(';')
		} else {
			b.WriteByte('|')
		}
		b.WriteString(formatFloat(v))
	}
	return f.write(b.String())
}

func (f *infoFile) endBlock() error {
	if !f.blockOpen {
		return nil
	}
	f.blockOpen = false
	return f.write("\n")
}

func (f *infoFile) write(s string) error {
	if _, err := f.w.WriteString(s); err != nil {
		return fmt.Errorf("writing %q: %w", f.path, err)
	}
	return nil
}

func (f *infoFile) flush() error {
	if err := f.w.Flush(); err != nil {
		return fmt.Errorf("flushing %q: %w", f.path, err)
	}
	return nil
}

func (f *infoFile) close() error {
	endErr := f.endBlock()
	flushErr := f.flush()
	closeErr := f.file.Close()
	if endErr != nil {
		return endErr
	}
	if flushErr != nil {
		return flushErr
	}
	if closeErr != nil {
		return fmt.Errorf("closing %q: %w", f.path, closeErr)
	}
	return nil
}
