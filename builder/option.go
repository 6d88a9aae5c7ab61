package builder

import (
	"io"

	"github.com/viant/cxref/resolve"
)

// Option configures a Builder, mirroring the source tool's
// analyzer.Option/WithX pattern (analyzer/option.go) rather than a wide
// constructor.
type Option func(*Builder)

// WithConfig overrides the default Config.
func WithConfig(cfg Config) Option {
	return func(b *Builder) { b.cfg = cfg }
}

// WithHook installs the single use-edge observer (spec §4.7).
func WithHook(h resolve.Hook) Option {
	return func(b *Builder) { b.hook = h }
}

// WithLogWriter redirects the diagnostic log away from the default
// `pfff.log` file, e.g. to a bytes.Buffer in tests.
func WithLogWriter(w io.Writer) Option {
	return func(b *Builder) { b.logOverride = w }
}

// WithVerbose also echoes every diagnostic line to standard error in
// addition to recording it in the diagnostic log.
func WithVerbose(v bool) Option {
	return func(b *Builder) { b.verbose = v }
}
