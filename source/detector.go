package source

import (
	"os"
	"path/filepath"
	"regexp"

	"golang.org/x/mod/modfile"
)

// Project is the cgo-module metadata DetectModule reports for a C tree
// rooted inside a Go module. It is non-semantic, and nothing in this module
// attaches it to the graph or its Root node. It is grounded
// on the source tool's repository.Project (inspector/repository/detector.go),
// trimmed to the one marker this domain cares about: go.mod.
type Project struct {
	ModulePath string // e.g. "github.com/viant/cxref"
	Root       string // absolute path to the directory holding go.mod
}

// Detector walks up from a starting directory looking for a go.mod, the
// way the source tool's repository.Detector.findProjectRoot does, but
// scoped to the single marker a cgo repository actually has.
type Detector struct{}

// NewDetector creates a Detector.
func NewDetector() *Detector { return &Detector{} }

// DetectModule finds the nearest go.mod at or above dir and parses its
// module path. It returns (nil, nil) — not an error — when no go.mod is
// found, since plenty of C trees this engine analyses are not rooted in a
// Go module at all.
func (d *Detector) DetectModule(dir string) (*Project, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	for cur := abs; ; {
		modPath := filepath.Join(cur, "go.mod")
		if data, err := os.ReadFile(modPath); err == nil {
			if mod, err := modfile.Parse(modPath, data, nil); err == nil && mod.Module != nil {
				return &Project{ModulePath: mod.Module.Mod.Path, Root: cur}, nil
			}
			return &Project{ModulePath: fallbackModuleName(data), Root: cur}, nil
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return nil, nil
		}
		cur = parent
	}
}

var moduleLineRe = regexp.MustCompile(`module\s+(\S+)`)

// fallbackModuleName is used when modfile.Parse rejects a malformed go.mod
// or finds no module directive: it returns the first `module <path>` match
// found by a regular expression, or "" when there is none.
func fallbackModuleName(data []byte) string {
	if m := moduleLineRe.FindSubmatch(data); len(m) == 2 {
		return string(m[1])
	}
	return ""
}
