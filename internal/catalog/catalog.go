// Package catalog implements spec.md §6's "Class catalogs": the JDK and
// classpath class-name sets an external indexer populates, plus the
// sourcepath scan the Completion engine (internal/completion) needs for
// same-package / public-class visibility rules (§4.E.5.c).
//
// Modeled on the teacher's internal/config KDL-manifest loading pattern,
// generalized from "project config" to "one TOML manifest an external
// process writes, reloaded on demand".
package catalog

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/javaintel/jcore/internal/jlog"
	"github.com/javaintel/jcore/internal/lexscan"
)

// Manifest is the on-disk shape an external indexer writes (spec.md §6:
// "jdkClasses: set<string> and classPathClasses: set<string>... populated
// by an external indexer at startup"). jcore never builds this file
// itself — it is a consumed, not produced, format.
type Manifest struct {
	JDKClasses       []string `toml:"jdk_classes"`
	ClassPathClasses []string `toml:"classpath_classes"`
}

// Catalog holds the loaded JDK/classpath class-name sets; the sourcepath
// scan lives in the separate SourcepathIndex. All exported methods are
// safe for concurrent use.
type Catalog struct {
	manifestPath string

	mu       sync.RWMutex
	jdk      []string
	cp       []string
	loadOnce sync.Once

	group singleflight.Group
}

// New creates a Catalog backed by the TOML manifest at manifestPath. The
// manifest is not read until the first Load call (or first accessor
// call, which triggers a lazy Load).
func New(manifestPath string) *Catalog {
	return &Catalog{manifestPath: manifestPath}
}

// Load (re)reads the manifest from disk. Concurrent Load calls collapse
// into one actual read via singleflight, so two queries racing at
// startup share a single scan (SPEC_FULL.md §2 domain-stack rationale
// for golang.org/x/sync).
func (c *Catalog) Load(ctx context.Context) error {
	_, err, _ := c.group.Do("load", func() (any, error) {
		content, err := os.ReadFile(c.manifestPath)
		if err != nil {
			if os.IsNotExist(err) {
				jlog.Warn("catalog", "no manifest at %s, JDK/classpath lists empty", c.manifestPath)
				c.mu.Lock()
				c.jdk, c.cp = nil, nil
				c.mu.Unlock()
				return nil, nil
			}
			return nil, err
		}
		var m Manifest
		if err := toml.Unmarshal(content, &m); err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.jdk = m.JDKClasses
		c.cp = m.ClassPathClasses
		c.mu.Unlock()
		return nil, nil
	})
	return err
}

func (c *Catalog) ensureLoaded() {
	c.loadOnce.Do(func() {
		if err := c.Load(context.Background()); err != nil {
			jlog.Warn("catalog", "initial manifest load failed: %v", err)
		}
	})
}

// JDKClasses returns the fully qualified JDK class names (spec.md §6).
func (c *Catalog) JDKClasses() []string {
	c.ensureLoaded()
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.jdk
}

// ClassPathClasses returns the fully qualified classpath class names
// (spec.md §6).
func (c *Catalog) ClassPathClasses() []string {
	c.ensureLoaded()
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cp
}

// SourcepathIndex scans a set of source roots for top-level class/
// interface/enum declarations, supporting the same-package / public-class
// visibility rule of §4.E.5.c ("from JDK list, classpath list, and
// sourcepath (only public classes except from the same package)").
type SourcepathIndex struct {
	mu      sync.RWMutex
	classes map[string]sourceClass // qualifiedName -> metadata
}

type sourceClass struct {
	qualified string
	pkg       string
	public    bool
}

// NewSourcepathIndex returns an empty index; call Scan to populate it.
func NewSourcepathIndex() *SourcepathIndex {
	return &SourcepathIndex{classes: make(map[string]sourceClass)}
}

// Scan walks every root concurrently (errgroup, per SPEC_FULL.md §2) and
// lexically extracts each file's package declaration and top-level type
// declarations via internal/lexscan, replacing the index's prior
// contents. A single bad root does not abort the scan for the others
// (spec.md §7 "the engine never aborts a multi-source assembly because
// one source failed").
func (s *SourcepathIndex) Scan(ctx context.Context, roots []string) error {
	var mu sync.Mutex
	found := make(map[string]sourceClass)

	g, gctx := errgroup.WithContext(ctx)
	for _, root := range roots {
		root := root
		g.Go(func() error {
			matches, err := doublestar.Glob(os.DirFS(root), "**/*.java")
			if err != nil {
				jlog.Warn("catalog", "sourcepath scan failed for %s: %v", root, err)
				return nil
			}
			for _, rel := range matches {
				if gctx.Err() != nil {
					return nil
				}
				content, err := os.ReadFile(filepath.Join(root, rel))
				if err != nil {
					continue
				}
				src := string(content)
				pkg := lexscan.PackageNameOfSource(src)
				for _, name := range topLevelTypeNames(src) {
					qualified := name
					if pkg != "" {
						qualified = pkg + "." + name
					}
					mu.Lock()
					found[qualified] = sourceClass{qualified: qualified, pkg: pkg, public: isPublicDecl(src, name)}
					mu.Unlock()
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	s.mu.Lock()
	s.classes = found
	s.mu.Unlock()
	return nil
}

// PublicClasses returns every scanned class's qualified name, excluding
// those in excludePackage, restricted to classes declared public (spec.md
// §4.E.5.c "only public classes except from the same package").
func (s *SourcepathIndex) PublicClasses(excludePackage string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for _, c := range s.classes {
		if c.pkg == excludePackage {
			continue
		}
		if !c.public {
			continue
		}
		out = append(out, c.qualified)
	}
	sort.Strings(out)
	return out
}

// SamePackageClasses returns every scanned class in pkg, public or not:
// same-package visibility is unrestricted.
func (s *SourcepathIndex) SamePackageClasses(pkg string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for _, c := range s.classes {
		if c.pkg == pkg {
			out = append(out, c.qualified)
		}
	}
	sort.Strings(out)
	return out
}

var typeDeclKeywords = []string{"class", "interface", "enum"}

// topLevelTypeNames lexically extracts identifiers immediately following
// a class/interface/enum keyword. It intentionally does not distinguish
// nesting depth — a cheap, good-enough heuristic in the spirit of the
// rest of internal/lexscan's "cheap, compiler-free" helpers (§4.B);
// internal/facade/tsfacade's real parse tree is the authority when
// precision matters.
func topLevelTypeNames(src string) []string {
	var out []string
	for _, kw := range typeDeclKeywords {
		offset := 0
		for {
			pos := strings.Index(src[offset:], kw+" ")
			if pos < 0 {
				break
			}
			nameStart := offset + pos + len(kw) + 1
			for nameStart < len(src) && src[nameStart] == ' ' {
				nameStart++
			}
			nameEnd := nameStart
			for nameEnd < len(src) && isNameByte(src[nameEnd]) {
				nameEnd++
			}
			if nameEnd > nameStart {
				out = append(out, src[nameStart:nameEnd])
			}
			offset += pos + len(kw) + 1
		}
	}
	return out
}

func isNameByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

func isPublicDecl(src, name string) bool {
	for _, kw := range typeDeclKeywords {
		if i := strings.Index(src, kw+" "+name); i >= 0 {
			prefix := src[:i]
			return strings.HasSuffix(strings.TrimRight(prefix, " \t"), "public")
		}
	}
	return false
}
