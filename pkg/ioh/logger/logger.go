// Package logger persists evaluation records in the IOHprofiler format. A
// Logger tracks one problem context at a time, decides per record which
// channels receive it and keeps the per-run summaries of the info files.
package logger

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/go-logr/logr"
	"k8s.io/klog/v2"

	"github.com/mihai-snyk/iohbench/pkg/ioh/framework"
)

var (
	// ErrConfiguration reports invalid options, parameters or attributes.
	ErrConfiguration = errors.New("invalid logger configuration")

	// ErrNotTracking is returned when records arrive before a problem is tracked.
	ErrNotTracking = errors.New("no problem is tracked")

	ErrClosed = errors.New("logger is closed")
)

const (
	DefaultOutputDirectory = "."
	DefaultFolderName      = "ioh_data"
)

// Options configures a Logger.
type Options struct {
	OutputDirectory string
	// FolderName is suffixed with -1, -2, ... if the folder already exists.
	FolderName    string
	AlgorithmName string
	AlgorithmInfo string
	Triggers      Triggers

	// BufferSize is the per-channel write buffer in bytes.
	BufferSize int

	Logger  logr.Logger
	Metrics Metrics
}

// Metrics receives write and run counters from a Logger.
type Metrics interface {
	RecordWritten(ch Channel)
	RunFinished(problem framework.ProblemInfo, evaluations int)
}

// Tracker is anything that can describe the problem it evaluates.
type Tracker interface {
	Info() framework.ProblemInfo
}

// Logger writes evaluation records of tracked problems to disk. A Logger is
// not safe for concurrent use; parallel experiments need one Logger each.
type Logger struct {
	opts     Options
	dir      string
	log      logr.Logger
	triggers *triggerSet
	suite    string

	tracking bool
	ctx      framework.ProblemInfo
	info     *infoFile
	channels map[Channel]*channelWriter
	header   map[Channel]bool
	written  map[Channel]int
	bytes    uint64

	logged           bool
	last             framework.LogInfo
	lastLine         string
	bestY            float64
	bestTransformedY float64
	bestEvaluation   int

	paramNames []string
	params     map[string]float64
	attributes map[string]string
	dynNames   []string
	dynamic    map[string]float64
	dynChanged bool

	closed bool
}

// New creates the output folder and returns a Logger writing into it.
func New(opts Options) (*Logger, error) {
	if opts.OutputDirectory == "" {
		opts.OutputDirectory = DefaultOutputDirectory
	}
	if opts.FolderName == "" {
		opts.FolderName = DefaultFolderName
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = DefaultBufferSize
	}
	if err := opts.Triggers.Validate(); err != nil {
		return nil, err
	}
	log := opts.Logger
	if log.GetSink() == nil {
		log = klog.Background()
	}

	dir, err := resolveDir(opts.OutputDirectory, opts.FolderName)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory %q: %w", dir, err)
	}
	log.V(4).Info("Created logger", "directory", dir, "algorithm", opts.AlgorithmName)

	return &Logger{
		opts:       opts,
		dir:        dir,
		log:        log,
		triggers:   newTriggerSet(opts.Triggers),
		channels:   map[Channel]*channelWriter{},
		params:     map[string]float64{},
		attributes: map[string]string{},
		dynamic:    map[string]float64{},
	}, nil
}

// With creates a Logger, hands it to fn and closes it on every exit path of
// fn, including panics.
func With(opts Options, fn func(*Logger) error) (err error) {
	l, err := New(opts)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, l.Close())
	}()
	return fn(l)
}

// resolveDir returns parent/name, or the first parent/name-N that does not
// exist yet.
func resolveDir(parent, name string) (string, error) {
	path := filepath.Join(parent, name)
	for i := 1; ; i++ {
		_, err := os.Stat(path)
		if errors.Is(err, fs.ErrNotExist) {
			return path, nil
		}
		if err != nil {
			return "", fmt.Errorf("checking output directory %q: %w", path, err)
		}
		path = filepath.Join(parent, fmt.Sprintf("%s-%d", name, i))
	}
}

// Dir is the resolved output folder.
func (l *Logger) Dir() string { return l.dir }

func (l *Logger) TrackSuite(name string) { l.suite = name }

func (l *Logger) Track(t Tracker) error { return l.TrackProblem(t.Info()) }

// TrackProblem finalizes the current context, if any, and starts tracking p.
// A new info block is opened when the problem or dimension changes.
func (l *Logger) TrackProblem(p framework.ProblemInfo) error {
	if l.closed {
		return ErrClosed
	}
	if l.tracking {
		if err := l.finalize(); err != nil {
			return err
		}
	}

	sameProblem := l.info != nil && p.ID == l.ctx.ID && p.Name == l.ctx.Name
	if !sameProblem || p.Dimension != l.ctx.Dimension {
		if err := l.closeChannels(); err != nil {
			return err
		}
		if !sameProblem {
			if err := l.closeInfo(); err != nil {
				return err
			}
			info, err := openInfo(filepath.Join(l.dir, infoName(p.ID, p.Name)))
			if err != nil {
				return err
			}
			l.info = info
		}
		if err := l.info.openBlock(l.meta(p)); err != nil {
			return err
		}
	}

	l.ctx = p
	l.tracking = true
	l.logged = false
	l.last = framework.LogInfo{}
	l.lastLine = ""
	l.bestY = framework.Worst(p.Type)
	l.bestTransformedY = framework.Worst(p.Type)
	l.bestEvaluation = 0
	l.header = map[Channel]bool{}
	l.written = map[Channel]int{}
	l.dynChanged = false
	l.triggers.reset(p.Type, p.Dimension)

	l.log.V(4).Info("Tracking problem", "suite", l.suite, "problem", p.Name,
		"id", p.ID, "dimension", p.Dimension, "instance", p.InstanceID)
	return nil
}

func (l *Logger) meta(p framework.ProblemInfo) infoMeta {
	m := infoMeta{
		suite:         l.suite,
		problem:       p,
		algorithmName: l.opts.AlgorithmName,
		algorithmInfo: l.opts.AlgorithmInfo,
		dynamic:       slices.Clone(l.dynNames),
	}
	for _, name := range sortedKeys(l.attributes) {
		m.attributes = append(m.attributes, attribute{name: name, value: l.attributes[name]})
	}
	return m
}

// Log runs the triggers against info and writes it to every channel that
// fired.
func (l *Logger) Log(info framework.LogInfo) error {
	if l.closed {
		return ErrClosed
	}
	if !l.tracking {
		return ErrNotTracking
	}

	fired := l.triggers.fire(info, l.dynChanged)
	l.dynChanged = false
	line := record(info, l.paramValues())
	for _, ch := range fired {
		if err := l.write(ch, line, info.Evaluations); err != nil {
			return err
		}
	}

	l.logged = true
	l.last = info
	l.lastLine = line
	if framework.Better(info.TransformedY, l.bestTransformedY, l.ctx.Type) {
		l.bestY = info.Y
		l.bestTransformedY = info.TransformedY
		l.bestEvaluation = info.Evaluations
	}
	return nil
}

func (l *Logger) write(ch Channel, line string, evaluations int) error {
	c, err := l.channel(ch)
	if err != nil {
		return err
	}
	if !l.header[ch] {
		if err := c.write(header(l.paramNames)); err != nil {
			return err
		}
		l.header[ch] = true
	}
	if err := c.write(line); err != nil {
		return err
	}
	l.written[ch] = evaluations
	if l.opts.Metrics != nil {
		l.opts.Metrics.RecordWritten(ch)
	}
	return nil
}

// channel returns the writer of ch, creating the data folder and file on
// first use.
func (l *Logger) channel(ch Channel) (*channelWriter, error) {
	if c, ok := l.channels[ch]; ok {
		return c, nil
	}
	dir := filepath.Join(l.dir, dataDir(l.ctx.ID, l.ctx.Name))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory %q: %w", dir, err)
	}
	c, err := openChannel(ch, filepath.Join(l.dir, dataPath(l.ctx.ID, l.ctx.Name, l.ctx.Dimension, ch)), l.opts.BufferSize)
	if err != nil {
		return nil, err
	}
	l.channels[ch] = c
	return c, nil
}

// finalize completes the tracked run: every enabled channel that missed the
// last record receives it, and the run summary is appended to the info file.
func (l *Logger) finalize() error {
	l.tracking = false
	if !l.logged {
		return nil
	}
	for _, ch := range l.triggers.enabled() {
		if n, ok := l.written[ch]; ok && n == l.last.Evaluations {
			continue
		}
		if err := l.write(ch, l.lastLine, l.last.Evaluations); err != nil {
			return err
		}
	}
	if err := l.info.segment(l.ctx.InstanceID, l.bestEvaluation, l.bestY, l.dynamicValues()); err != nil {
		return err
	}
	if l.opts.Metrics != nil {
		l.opts.Metrics.RunFinished(l.ctx, l.last.Evaluations)
	}
	l.log.V(5).Info("Finalized run", "problem", l.ctx.Name, "instance", l.ctx.InstanceID,
		"evaluations", l.last.Evaluations, "best", l.bestY)
	return nil
}

func (l *Logger) closeChannels() error {
	var errs []error
	for _, ch := range Channels {
		c, ok := l.channels[ch]
		if !ok {
			continue
		}
		errs = append(errs, c.close())
		l.bytes += c.written
		delete(l.channels, ch)
	}
	return errors.Join(errs...)
}

func (l *Logger) closeInfo() error {
	if l.info == nil {
		return nil
	}
	err := l.info.close()
	l.info = nil
	return err
}

// Flush writes every buffered line through to its file.
func (l *Logger) Flush() error {
	var errs []error
	for _, ch := range Channels {
		if c, ok := l.channels[ch]; ok {
			errs = append(errs, c.flush())
		}
	}
	if l.info != nil {
		errs = append(errs, l.info.flush())
	}
	return errors.Join(errs...)
}

// Close finalizes the tracked run and closes every file. Calling Close more
// than once is a no-op.
func (l *Logger) Close() error {
	if l.closed {
		return nil
	}
	var errs []error
	if l.tracking {
		errs = append(errs, l.finalize())
	}
	errs = append(errs, l.closeChannels(), l.closeInfo())
	l.closed = true
	l.log.V(4).Info("Closed logger", "directory", l.dir, "written", humanize.Bytes(l.bytes))
	return errors.Join(errs...)
}

// SetParameterNames replaces the logged parameters. Values are written after
// the record columns in name order. initial may be nil, leaving every value
// at zero.
func (l *Logger) SetParameterNames(names []string, initial []float64) error {
	if initial != nil && len(initial) != len(names) {
		return fmt.Errorf("%w: %d parameter names and %d values", ErrConfiguration, len(names), len(initial))
	}
	params := make(map[string]float64, len(names))
	for i, name := range names {
		if err := validName(name); err != nil {
			return err
		}
		if _, dup := params[name]; dup {
			return fmt.Errorf("%w: duplicate parameter %q", ErrConfiguration, name)
		}
		params[name] = 0
		if initial != nil {
			params[name] = initial[i]
		}
	}
	l.params = params
	l.paramNames = sortedKeys(params)
	return nil
}

// SetParameters updates existing parameters by name.
func (l *Logger) SetParameters(names []string, values []float64) error {
	if len(names) != len(values) {
		return fmt.Errorf("%w: %d parameter names and %d values", ErrConfiguration, len(names), len(values))
	}
	for _, name := range names {
		if _, ok := l.params[name]; !ok {
			return fmt.Errorf("%w: unknown parameter %q", ErrConfiguration, name)
		}
	}
	for i, name := range names {
		l.params[name] = values[i]
	}
	return nil
}

func (l *Logger) SetParameter(name string, value float64) error {
	return l.SetParameters([]string{name}, []float64{value})
}

func (l *Logger) paramValues() []float64 {
	values := make([]float64, len(l.paramNames))
	for i, name := range l.paramNames {
		values[i] = l.params[name]
	}
	return values
}

// AddAttribute sets a constant attribute written into every info block
// opened from now on.
func (l *Logger) AddAttribute(name, value string) error {
	if err := validName(name); err != nil {
		return err
	}
	if strings.Contains(value, `"`) {
		return fmt.Errorf("%w: attribute value %q contains a quote", ErrConfiguration, value)
	}
	l.attributes[name] = value
	return nil
}

func (l *Logger) DeleteAttribute(name string) {
	delete(l.attributes, name)
}

// SetDynamicAttributeNames replaces the per-run attributes. Their values are
// appended to every run summary, and a change of value fires the update
// trigger.
func (l *Logger) SetDynamicAttributeNames(names []string, initial []float64) error {
	if initial != nil && len(initial) != len(names) {
		return fmt.Errorf("%w: %d attribute names and %d values", ErrConfiguration, len(names), len(initial))
	}
	dynamic := make(map[string]float64, len(names))
	for i, name := range names {
		if err := validName(name); err != nil {
			return err
		}
		if strings.Contains(name, "|") {
			return fmt.Errorf("%w: dynamic attribute %q contains '|'", ErrConfiguration, name)
		}
		dynamic[name] = 0
		if initial != nil {
			dynamic[name] = initial[i]
		}
	}
	l.dynamic = dynamic
	l.dynNames = sortedKeys(dynamic)
	return nil
}

func (l *Logger) SetDynamicAttribute(name string, value float64) error {
	old, ok := l.dynamic[name]
	if !ok {
		return fmt.Errorf("%w: unknown dynamic attribute %q", ErrConfiguration, name)
	}
	if old != value {
		l.dynamic[name] = value
		l.dynChanged = true
	}
	return nil
}

func (l *Logger) dynamicValues() []float64 {
	values := make([]float64, len(l.dynNames))
	for i, name := range l.dynNames {
		values[i] = l.dynamic[name]
	}
	return values
}

func validName(name string) error {
	if name == "" || strings.ContainsAny(name, "\",= \n") {
		return fmt.Errorf("%w: invalid name %q", ErrConfiguration, name)
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
