// Package runner fans per-script lint work out to a worker pool and
// serializes the finished reports onto one writer.
package runner

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"regexp"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/jiangxin/chainlint/parser"
)

var anyAnnotation = regexp.MustCompile(`\?![^?]+\?!`)

// Stats counts one worker's share of the run.
type Stats struct {
	Worker  int
	Scripts int
	Tests   int
	Errs    int
}

// Summary aggregates a whole run.
type Summary struct {
	Scripts int
	Tests   int
	Errs    int
	Workers []Stats
	Wall    time.Duration
	User    time.Duration
}

// Format renders the stats line printed for --stats.
func (s Summary) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "chainlint: %d scripts, %d tests, %d errors, %.2fs/%.2fs (wall/user)",
		s.Scripts, s.Tests, s.Errs, s.Wall.Seconds(), s.User.Seconds())
	for _, w := range s.Workers {
		fmt.Fprintf(&b, " %d:%d/%d/%d", w.Worker, w.Scripts, w.Tests, w.Errs)
	}
	b.WriteByte('\n')
	return b.String()
}

// Pool checks scripts with a fixed number of workers. Each worker owns a
// private lexer/parser stack per script; only the monitor loop touches
// the output writer.
type Pool struct {
	jobs     int
	emitAll  bool
	out      io.Writer
	decorate func(string) string
	logger   *slog.Logger
}

// Option configures a Pool.
type Option func(*Pool)

// WithJobs sets the worker count; n < 1 selects the CPU count.
func WithJobs(n int) Option {
	return func(p *Pool) {
		if n < 1 {
			n = runtime.NumCPU()
		}
		p.jobs = n
	}
}

// WithEmitAll reports every test, flagged or not.
func WithEmitAll(emitAll bool) Option {
	return func(p *Pool) { p.emitAll = emitAll }
}

// WithOutput sets the report destination (default os.Stdout).
func WithOutput(w io.Writer) Option {
	return func(p *Pool) { p.out = w }
}

// WithDecorator sets the transform applied to each report at emit time.
func WithDecorator(fn func(string) string) Option {
	return func(p *Pool) { p.decorate = fn }
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pool) { p.logger = logger }
}

// New returns a Pool with one worker per CPU unless configured otherwise.
func New(opts ...Option) *Pool {
	p := &Pool{
		jobs:     runtime.NumCPU(),
		out:      os.Stdout,
		decorate: func(s string) string { return s },
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type result struct {
	path   string
	report string
	tests  int
	errs   int
}

// Check lints every path and returns the run summary. Reports for
// different files may interleave in any order, but each file's block is
// written whole.
func (p *Pool) Check(paths []string) Summary {
	start := time.Now()

	jobs := p.jobs
	if jobs > len(paths) && len(paths) > 0 {
		jobs = len(paths)
	}
	if jobs < 1 {
		jobs = 1
	}

	queue := make(chan string, len(paths))
	for _, path := range paths {
		queue <- path
	}
	close(queue)

	results := make(chan result)
	stats := make([]Stats, jobs)
	var wg sync.WaitGroup
	for i := range stats {
		stats[i].Worker = i
		wg.Add(1)
		go func(st *Stats) {
			defer wg.Done()
			for path := range queue {
				r := p.checkScript(path)
				st.Scripts++
				st.Tests += r.tests
				st.Errs += r.errs
				results <- r
			}
		}(&stats[i])
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	for r := range results {
		if r.report != "" {
			if _, err := io.WriteString(p.out, p.decorate(r.report)); err != nil {
				p.logger.Warn("write report", "path", r.path, "error", err)
			}
		}
	}

	summary := Summary{Workers: stats}
	for _, st := range stats {
		summary.Scripts += st.Scripts
		summary.Tests += st.Tests
		summary.Errs += st.Errs
	}
	summary.Wall = time.Since(start)
	summary.User = userTime()
	return summary
}

// checkScript lints one file. An unreadable file yields a single ?!ERR?!
// line; it never aborts the run.
func (p *Pool) checkScript(path string) result {
	data, err := os.ReadFile(path)
	if err != nil {
		p.logger.Debug("read script", "path", path, "error", err)
		return result{
			path:   path,
			report: fmt.Sprintf("?!ERR?! %s: %s\n", path, reason(err)),
			errs:   1,
		}
	}

	sp := parser.NewScriptParser(string(data), p.emitAll)
	sp.Check()

	r := result{path: path, tests: sp.Tests()}
	if reports := sp.Reports(); len(reports) > 0 {
		var b strings.Builder
		b.WriteString("# chainlint: " + path + "\n")
		for _, rep := range reports {
			b.WriteString(rep)
		}
		r.report = b.String()
		r.errs = len(anyAnnotation.FindAllString(r.report, -1))
	}
	return r
}

// reason strips the path prefix an *fs.PathError carries, leaving the
// bare cause for the ?!ERR?! line.
func reason(err error) string {
	var perr *fs.PathError
	if errors.As(err, &perr) {
		return perr.Err.Error()
	}
	return err.Error()
}
