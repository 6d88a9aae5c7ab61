package builder

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// diagLog is the `pfff.log` diagnostic writer (spec §7): every duplicate,
// typedef conflict, and lookup failure is one line, flushed immediately so
// a crash mid-build doesn't lose the tail of the log. No ready-made
// structured logger appears anywhere in the example pack for this kind of
// plain append-only run log, so this stays a small bufio.Writer over
// *os.File rather than reaching for a logging library the corpus never
// wires for this purpose (see DESIGN.md).
type diagLog struct {
	w       *bufio.Writer
	closer  io.Closer // non-nil only when diagLog opened the file itself
	verbose bool
}

// newDiagLog opens path (truncating any previous run's log) unless w is
// already supplied by the caller (tests passing WithLogWriter).
func newDiagLog(path string, w io.Writer, verbose bool) (*diagLog, error) {
	if w != nil {
		return &diagLog{w: bufio.NewWriter(w), verbose: verbose}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("builder: open log %s: %w", path, err)
	}
	return &diagLog{w: bufio.NewWriter(f), closer: f, verbose: verbose}, nil
}

// Logf implements symtab.Logger.
func (d *diagLog) Logf(format string, args ...interface{}) {
	line := fmt.Sprintf(format, args...)
	fmt.Fprintln(d.w, line)
	d.w.Flush()
	if d.verbose {
		fmt.Fprintln(os.Stderr, line)
	}
}

// Close flushes and, if diagLog opened the file itself, closes it.
func (d *diagLog) Close() error {
	if d == nil {
		return nil
	}
	d.w.Flush()
	if d.closer != nil {
		return d.closer.Close()
	}
	return nil
}
