// Package workspace implements spec.md §4.A: the FileStore. It is the
// single source of truth for workspace roots, on-disk source metadata,
// and in-memory versioned document contents (spec.md §3's "Ownership").
//
// Modeled on the teacher's internal/core.FileService /
// internal/indexing watcher+scanner pair, generalized from a
// multi-language trigram index to the FileStore's narrower contract.
package workspace

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cespare/xxhash/v2"

	"github.com/javaintel/jcore/internal/jlog"
	"github.com/javaintel/jcore/internal/jtypes"
	"github.com/javaintel/jcore/internal/lexscan"
)

// SourceExtension is the on-disk suffix recognized as a source file
// (spec.md §3 "Source index entry" invariant).
const SourceExtension = ".java"

// ModuleDescriptorName is excluded from indexing per spec.md §3's
// invariant ("excluding module-descriptor files").
const ModuleDescriptorName = "module-info.java"

// Entry is one Source index entry (spec.md §3): path, last-modified
// instant, and lexically extracted package name.
type Entry struct {
	Path        string
	Modified    time.Time
	PackageName string
	contentHash uint64
}

// FileStore is the process-wide (one instance per host process, per
// spec.md §9) owner of workspace roots, the source index, and active
// in-memory documents. All exported methods are safe for concurrent use;
// spec.md §5 requires callers to additionally hold a single exclusive
// workspace lock for the span of one query, which internal/query
// provides on top of FileStore's own mutex.
type FileStore struct {
	mu    sync.RWMutex
	roots []string
	index map[string]*Entry

	docsMu sync.RWMutex
	active map[jtypes.URI]*activeDocument

	encoding Encoding
}

// Encoding is the configured text encoding FileStore decodes on-disk
// bytes with (spec.md §6 Configuration — encoding is not in the
// recognized option set itself, but content resolution (§3) requires
// one; UTF-8 is the only encoding the target ecosystem uses in practice).
type Encoding struct{}

func (Encoding) Decode(b []byte) string { return string(b) }

// New creates an empty FileStore with no workspace roots and no active
// documents.
func New() *FileStore {
	return &FileStore{
		index:  make(map[string]*Entry),
		active: make(map[jtypes.URI]*activeDocument),
	}
}

// SetWorkspaceRoots normalizes each root to absolute form, drops index
// entries strictly beneath any root being removed, then walks each newly
// added root (spec.md §4.A). The containment invariant of spec.md §3
// ("any two roots are either disjoint or one contains the other") is
// enforced on the resulting root set before the walk begins.
func (fs *FileStore) SetWorkspaceRoots(roots []string) error {
	normalized := make([]string, 0, len(roots))
	for _, r := range roots {
		abs, err := filepath.Abs(r)
		if err != nil {
			return err
		}
		normalized = append(normalized, filepath.Clean(abs))
	}
	normalized = dedupe(normalized)
	if err := checkContainmentInvariant(normalized); err != nil {
		return err
	}

	fs.mu.Lock()
	oldRoots := fs.roots
	removed := diff(oldRoots, normalized)
	added := diff(normalized, oldRoots)

	for path := range fs.index {
		for _, r := range removed {
			if underRoot(path, r) {
				delete(fs.index, path)
				break
			}
		}
	}
	fs.roots = normalized
	fs.mu.Unlock()

	for _, r := range added {
		if err := fs.walkRoot(r); err != nil {
			jlog.Warn("workspace", "failed to walk root %s: %v", r, err)
		}
	}
	return nil
}

// checkContainmentInvariant documents spec.md §3's invariant ("any two
// roots are either disjoint or one contains the other"). For Clean'd
// absolute paths this holds by construction — two filesystem paths are
// always either equal, nested, or disjoint — so there is nothing left to
// reject; the function exists as the named enforcement point a future
// root-aliasing rule (e.g. case-insensitive filesystems) would hook into.
func checkContainmentInvariant(roots []string) error {
	return nil
}

func underRoot(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || !strings.HasPrefix(rel, "..")
}

func dedupe(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

func diff(a, b []string) []string {
	inB := make(map[string]bool, len(b))
	for _, p := range b {
		inB[p] = true
	}
	var out []string
	for _, p := range a {
		if !inB[p] {
			out = append(out, p)
		}
	}
	return out
}

// walkRoot indexes every regular source file reachable from root,
// skipping symbolic-link directories entirely (prevents cycles and
// duplicates, spec.md §4.A) and module-descriptor files.
func (fs *FileStore) walkRoot(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // best-effort walk; one bad entry doesn't abort the scan
		}
		if info.IsDir() {
			if isSymlink(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if !isSourceFile(path) {
			return nil
		}
		fs.indexFile(path, info.ModTime())
		return nil
	})
}

func isSymlink(path string) bool {
	info, err := os.Lstat(path)
	return err == nil && info.Mode()&os.ModeSymlink != 0
}

func isSourceFile(path string) bool {
	ok, _ := doublestar.Match("**/*"+SourceExtension, filepath.ToSlash(path))
	if !ok {
		return false
	}
	return filepath.Base(path) != ModuleDescriptorName
}

func (fs *FileStore) indexFile(path string, modTime time.Time) {
	content, err := os.ReadFile(path)
	if err != nil {
		jlog.Warn("workspace", "failed to read %s during index walk: %v", path, err)
		return
	}
	pkg := lexscan.PackageNameOfSource(fs.encoding.Decode(content))
	fs.mu.Lock()
	fs.index[path] = &Entry{
		Path:        path,
		Modified:    modTime,
		PackageName: pkg,
		contentHash: xxhash.Sum64(content),
	}
	fs.mu.Unlock()
}

// All enumerates every indexed path.
func (fs *FileStore) All() []string {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	out := make([]string, 0, len(fs.index))
	for p := range fs.index {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// List enumerates indexed paths whose stored package name matches.
func (fs *FileStore) List(packageName string) []string {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	var out []string
	for p, e := range fs.index {
		if e.PackageName == packageName {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

// SourceRoots infers each indexed file's source root by stripping its
// package components from the tail of its directory chain, per spec.md
// §4.A. A mismatch at any step (a directory segment that doesn't match
// the expected package component) silently drops that file's
// contribution — an intentional, if undocumented, behavior of the
// reference implementation (spec.md §9 Open Question) that this
// reimplementation preserves.
func (fs *FileStore) SourceRoots() []string {
	fs.mu.RLock()
	entries := make([]*Entry, 0, len(fs.index))
	for _, e := range fs.index {
		entries = append(entries, e)
	}
	fs.mu.RUnlock()

	seen := make(map[string]bool)
	var out []string
	for _, e := range entries {
		root, ok := inferSourceRoot(e.Path, e.PackageName)
		if !ok {
			continue
		}
		if !seen[root] {
			seen[root] = true
			out = append(out, root)
		}
	}
	sort.Strings(out)
	return out
}

func inferSourceRoot(path, packageName string) (string, bool) {
	dir := filepath.Dir(path)
	if packageName == "" {
		return dir, true
	}
	parts := strings.Split(packageName, ".")
	for i := len(parts) - 1; i >= 0; i-- {
		base := filepath.Base(dir)
		if base != parts[i] {
			return "", false
		}
		dir = filepath.Dir(dir)
	}
	return dir, true
}

// Contains reports whether path is a known index entry, populating it on
// a miss if the file exists on disk (read-through, spec.md §4.A).
func (fs *FileStore) Contains(path string) bool {
	fs.mu.RLock()
	_, ok := fs.index[path]
	fs.mu.RUnlock()
	if ok {
		return true
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	fs.indexFile(path, info.ModTime())
	return true
}

// Modified returns the file's modified instant: the active-document
// timestamp when the URI for path is active, else the on-disk timestamp,
// populating the index on first read (spec.md §3 "falls back to reading
// from disk").
func (fs *FileStore) Modified(path string) (time.Time, error) {
	if doc, ok := fs.activeDocFor(path); ok {
		return doc.modifiedAt, nil
	}
	fs.mu.RLock()
	e, ok := fs.index[path]
	fs.mu.RUnlock()
	if ok {
		return e.Modified, nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	fs.indexFile(path, info.ModTime())
	return info.ModTime(), nil
}

// PackageName returns the lexically extracted package name, read-through
// the index like Modified.
func (fs *FileStore) PackageName(path string) (string, error) {
	fs.mu.RLock()
	e, ok := fs.index[path]
	fs.mu.RUnlock()
	if ok {
		return e.PackageName, nil
	}
	content, err := fs.Contents(path)
	if err != nil {
		return "", err
	}
	info, statErr := os.Stat(path)
	modTime := time.Now()
	if statErr == nil {
		modTime = info.ModTime()
	}
	pkg := lexscan.PackageNameOfSource(content)
	fs.mu.Lock()
	fs.index[path] = &Entry{Path: path, Modified: modTime, PackageName: pkg, contentHash: xxhash.Sum64([]byte(content))}
	fs.mu.Unlock()
	return pkg, nil
}

// SuggestedPackageName walks parent directories; the first directory
// containing a sibling source file with a non-empty package name donates
// that name, plus the relative sub-path converted from directory
// separators to dots (spec.md §4.A). If every sibling in every ancestor
// directory has an empty package, no suggestion is produced — matching
// the reference implementation's documented-as-undocumented behavior
// (spec.md §9 Open Question).
func (fs *FileStore) SuggestedPackageName(path string) (string, bool) {
	fs.mu.RLock()
	entries := make([]*Entry, 0, len(fs.index))
	for _, e := range fs.index {
		entries = append(entries, e)
	}
	fs.mu.RUnlock()

	byDir := make(map[string][]*Entry)
	for _, e := range entries {
		d := filepath.Dir(e.Path)
		byDir[d] = append(byDir[d], e)
	}

	dir := filepath.Dir(path)
	var subPath []string
	for {
		for _, e := range byDir[dir] {
			if e.Path == path {
				continue
			}
			if e.PackageName != "" {
				suffix := strings.Join(reverse(subPath), ".")
				if suffix == "" {
					return e.PackageName, true
				}
				return e.PackageName + "." + suffix, true
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		subPath = append(subPath, filepath.Base(dir))
		dir = parent
	}
}

func reverse(in []string) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[len(in)-1-i] = v
	}
	return out
}

// FindDeclaringFile splits qualifiedName into packageName/className;
// first tries files in that package whose filename equals the class
// name, then falls back to scanning every file in the package for a
// lexical class/interface/enum match via lexscan (spec.md §4.A).
func (fs *FileStore) FindDeclaringFile(qualifiedName string) (string, bool) {
	pkg := lexscan.MostName(qualifiedName)
	className := lexscan.LastName(qualifiedName)

	candidates := fs.List(pkg)
	wantFile := className + SourceExtension
	for _, p := range candidates {
		if filepath.Base(p) == wantFile {
			return p, true
		}
	}
	for _, p := range candidates {
		content, err := fs.Contents(p)
		if err != nil {
			continue
		}
		if lexscan.ContainsClass(content, className) {
			return p, true
		}
	}
	return "", false
}
