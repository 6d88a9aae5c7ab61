// Package source loads the translation units a build walks: a thin afs.Service
// wrapper over the tree (spec §1/§6 "file discovery is out of scope for the
// core engine, but a complete build still needs one"), plus a cgo-module
// detector that reports non-semantic project metadata; the builder does not
// attach that metadata to the graph.
package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/storage"
)

// File is one loaded translation unit's raw material: a repository-relative
// path (spec §3 invariant 4) and its byte content, ready for tsc.Parse.
type File struct {
	Path    string
	Content []byte
}

// Matcher decides whether a walked file belongs in the build.
type Matcher func(name string) bool

// DefaultMatcher accepts the two extensions spec §6 classifies: ".c"
// sources and ".h" headers.
func DefaultMatcher(name string) bool {
	return strings.HasSuffix(name, ".c") || strings.HasSuffix(name, ".h")
}

// Loader walks a directory tree through afs (spec §2 domain stack), the
// same abstraction the source tool's analyzer.Analyzer uses for
// AnalyzeDir/analyzePackages (analyzer/package.go) so a build can run
// against local disk, S3, GCS, or any other afs-backed scheme unchanged.
type Loader struct {
	fs      afs.Service
	matcher Matcher
}

// NewLoader creates a Loader. fs may be nil, defaulting to afs.New()
// (local + the schemes afs registers); matcher may be nil, defaulting to
// DefaultMatcher.
func NewLoader(fs afs.Service, matcher Matcher) *Loader {
	if fs == nil {
		fs = afs.New()
	}
	if matcher == nil {
		matcher = DefaultMatcher
	}
	return &Loader{fs: fs, matcher: matcher}
}

// Load walks root and downloads every matching file, returning them with
// paths relative to root (repository-relative, spec §3 invariant 4).
func (l *Loader) Load(ctx context.Context, root string) ([]File, error) {
	var rel []string
	var visitor storage.OnVisit = func(ctx context.Context, baseURL, parent string, info os.FileInfo, reader io.Reader) (bool, error) {
		if info.IsDir() {
			return true, nil
		}
		if !l.matcher(info.Name()) {
			return true, nil
		}
		rel = append(rel, path.Join(parent, info.Name()))
		return true, nil
	}
	if err := l.fs.Walk(ctx, root, visitor); err != nil {
		return nil, fmt.Errorf("source: walk %s: %w", root, err)
	}
	files := make([]File, 0, len(rel))
	for _, p := range rel {
		content, err := l.fs.DownloadWithURL(ctx, path.Join(root, p))
		if err != nil {
			return nil, fmt.Errorf("source: download %s: %w", p, err)
		}
		files = append(files, File{Path: p, Content: content})
	}
	return files, nil
}
