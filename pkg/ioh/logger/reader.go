package logger

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrMalformed is returned by the readers for input that was not produced by
// a Logger.
var ErrMalformed = errors.New("malformed IOHprofiler data")

// Record is one parsed channel line.
type Record struct {
	Evaluations      int
	Y                float64
	BestY            float64
	TransformedY     float64
	BestTransformedY float64
	Parameters       []float64
}

// Run is the sequence of records following one header line.
type Run struct {
	Parameters []string
	Records    []Record
}

// ReadDat parses a channel file into runs.
func ReadDat(r io.Reader) ([]Run, error) {
	var runs []Run
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), 16<<20)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, `"`):
			names, err := parseHeader(line)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", n, err)
			}
			runs = append(runs, Run{Parameters: names[len(columns):]})
		default:
			if len(runs) == 0 {
				return nil, fmt.Errorf("%w: line %d: record before header", ErrMalformed, n)
			}
			run := &runs[len(runs)-1]
			rec, err := parseRecord(line, len(run.Parameters))
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", n, err)
			}
			run.Records = append(run.Records, rec)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

func parseHeader(line string) ([]string, error) {
	var names []string
	rest := line
	for rest != "" {
		q, err := strconv.QuotedPrefix(rest)
		if err != nil {
			return nil, fmt.Errorf("%w: header %q", ErrMalformed, line)
		}
		name, _ := strconv.Unquote(q)
		names = append(names, name)
		rest = strings.TrimLeft(rest[len(q):], " ")
	}
	if len(names) < len(columns) {
		return nil, fmt.Errorf("%w: header has %d columns", ErrMalformed, len(names))
	}
	return names, nil
}

func parseRecord(line string, params int) (Record, error) {
	fields := strings.Fields(line)
	if len(fields) != len(columns)+params {
		return Record{}, fmt.Errorf("%w: %d fields, want %d", ErrMalformed, len(fields), len(columns)+params)
	}
	evals, err := strconv.Atoi(fields[0])
	if err != nil {
		return Record{}, fmt.Errorf("%w: evaluations %q", ErrMalformed, fields[0])
	}
	values := make([]float64, len(fields)-1)
	for i, f := range fields[1:] {
		if values[i], err = strconv.ParseFloat(f, 64); err != nil {
			return Record{}, fmt.Errorf("%w: value %q", ErrMalformed, f)
		}
	}
	rec := Record{
		Evaluations:      evals,
		Y:                values[0],
		BestY:            values[1],
		TransformedY:     values[2],
		BestTransformedY: values[3],
	}
	if params > 0 {
		rec.Parameters = values[4:]
	}
	return rec, nil
}

// InfoBlock is one (problem, dimension) block of an info file.
type InfoBlock struct {
	Suite             string
	FunctionID        int
	FunctionName      string
	Dimension         int
	Maximization      bool
	AlgorithmID       string
	AlgorithmInfo     string
	Attributes        map[string]string
	DynamicAttributes []string
	DataFile          string
	Runs              []InfoRun
}

// InfoRun is the summary of one run: the evaluation at which the best value
// was found, and the dynamic attribute values at the end of the run.
type InfoRun struct {
	InstanceID    int
	Evaluations   int
	BestY         float64
	DynamicValues []float64
}

// ReadInfo parses an info file into its blocks.
func ReadInfo(r io.Reader) ([]InfoBlock, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), 16<<20)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(lines)%2 != 0 {
		return nil, fmt.Errorf("%w: info block without data line", ErrMalformed)
	}

	blocks := make([]InfoBlock, 0, len(lines)/2)
	for i := 0; i < len(lines); i += 2 {
		b, err := parseMeta(lines[i])
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", i/2+1, err)
		}
		path, segments, _ := strings.Cut(lines[i+1], ", ")
		b.DataFile = path
		if segments != "" {
			for _, s := range strings.Split(segments, ", ") {
				run, err := parseSegment(s, len(b.DynamicAttributes))
				if err != nil {
					return nil, fmt.Errorf("block %d: %w", i/2+1, err)
				}
				b.Runs = append(b.Runs, run)
			}
		}
		blocks = append(blocks, b)
	}
	return blocks, nil
}

func parseMeta(line string) (InfoBlock, error) {
	b := InfoBlock{Attributes: map[string]string{}}
	rest := line
	for rest != "" {
		key, after, ok := strings.Cut(rest, " = ")
		if !ok {
			return b, fmt.Errorf("%w: metadata %q", ErrMalformed, line)
		}
		var value string
		if strings.HasPrefix(after, `"`) {
			end := strings.IndexByte(after[1:], '"')
			if end < 0 {
				return b, fmt.Errorf("%w: unterminated value in %q", ErrMalformed, line)
			}
			value, rest = after[1:end+1], after[end+2:]
		} else {
			value, rest, _ = strings.Cut(after, ",")
		}
		rest = strings.TrimPrefix(strings.TrimPrefix(rest, ","), " ")

		var err error
		switch key {
		case "suite":
			b.Suite = value
		case "funcId":
			b.FunctionID, err = strconv.Atoi(value)
		case "funcName":
			b.FunctionName = value
		case "DIM":
			b.Dimension, err = strconv.Atoi(value)
		case "maximization":
			b.Maximization = value == "T"
		case "algId":
			b.AlgorithmID = value
		case "algInfo":
			b.AlgorithmInfo = value
		case "dynamicAttribute":
			b.DynamicAttributes = strings.Split(value, "|")
		default:
			b.Attributes[key] = value
		}
		if err != nil {
			return b, fmt.Errorf("%w: %s = %q", ErrMalformed, key, value)
		}
	}
	return b, nil
}

func parseSegment(s string, dynamic int) (InfoRun, error) {
	var run InfoRun
	inst, rest, ok := strings.Cut(s, ":")
	if !ok {
		return run, fmt.Errorf("%w: run summary %q", ErrMalformed, s)
	}
	evals, rest, ok := strings.Cut(rest, "|")
	if !ok {
		return run, fmt.Errorf("%w: run summary %q", ErrMalformed, s)
	}
	best, attrs, _ := strings.Cut(rest, ";")

	var err error
	if run.InstanceID, err = strconv.Atoi(inst); err != nil {
		return run, fmt.Errorf("%w: instance %q", ErrMalformed, inst)
	}
	if run.Evaluations, err = strconv.Atoi(evals); err != nil {
		return run, fmt.Errorf("%w: evaluations %q", ErrMalformed, evals)
	}
	if run.BestY, err = strconv.ParseFloat(best, 64); err != nil {
		return run, fmt.Errorf("%w: best value %q", ErrMalformed, best)
	}
	if attrs != "" {
		for _, v := range strings.Split(attrs, "|") {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return run, fmt.Errorf("%w: attribute value %q", ErrMalformed, v)
			}
			run.DynamicValues = append(run.DynamicValues, f)
		}
	}
	if len(run.DynamicValues) != dynamic {
		return run, fmt.Errorf("%w: %d attribute values, want %d", ErrMalformed, len(run.DynamicValues), dynamic)
	}
	return run, nil
}
