package workspace

import (
	"bufio"
	"io"
	"os"
	"strings"
	"time"

	"github.com/javaintel/jcore/internal/jlog"
	"github.com/javaintel/jcore/internal/jtypes"
)

// activeDocument is an open-in-editor document (spec.md §3 "Active
// document"): URI -> (text, version, in-memory modified instant).
type activeDocument struct {
	uri        jtypes.URI
	text       string
	version    jtypes.Version
	modifiedAt time.Time
}

// Open registers a newly opened document, making it the authoritative
// content source for its URI until Close (spec.md §3 "Content resolution
// rule").
func (fs *FileStore) Open(uri jtypes.URI, text string, version jtypes.Version) {
	fs.docsMu.Lock()
	fs.active[uri] = &activeDocument{uri: uri, text: text, version: version, modifiedAt: time.Now()}
	fs.docsMu.Unlock()
}

// Close removes a document from the active set. Its on-disk contents
// (if any) become authoritative again.
func (fs *FileStore) Close(uri jtypes.URI) {
	fs.docsMu.Lock()
	delete(fs.active, uri)
	fs.docsMu.Unlock()
}

// Change applies an ordered list of edits to an active document. Each
// edit is either a full replacement (Range == nil) or a range patch
// (spec.md §4.A). An edit whose version is not strictly greater than the
// currently stored version is a stale change event: it is logged and
// discarded, never applied (spec.md §3, §7 "Version conflict").
func (fs *FileStore) Change(uri jtypes.URI, version jtypes.Version, changes []jtypes.ContentChange) {
	fs.docsMu.Lock()
	defer fs.docsMu.Unlock()

	doc, ok := fs.active[uri]
	if !ok {
		// A change for a document never opened is treated the same as a
		// stale event: there is no authoritative version to compare
		// against, so it cannot be safely applied.
		jlog.Warn("workspace", "change for unopened document %s dropped", uri)
		return
	}
	if version <= doc.version {
		jlog.Warn("workspace", "stale change for %s (version %d <= %d) dropped", uri, version, doc.version)
		return
	}

	text := doc.text
	for _, ch := range changes {
		text = applyChange(text, ch)
	}
	doc.text = text
	doc.version = version
	doc.modifiedAt = time.Now()
}

// applyChange applies one ContentChange, treating the document as
// newline-separated lines the way spec.md §4.A's range-patch rule
// requires.
func applyChange(text string, ch jtypes.ContentChange) string {
	if ch.Range == nil {
		return ch.Text
	}
	start := offsetOfPosition(text, ch.Range.Start)
	end := start + ch.RangeLength
	if end > len(text) {
		end = len(text)
	}
	if start > end {
		start = end
	}
	return text[:start] + ch.Text + text[end:]
}

// offsetOfPosition converts a (line, character) position into a byte
// offset, walking the document as newline-separated lines.
func offsetOfPosition(text string, pos jtypes.Position) int {
	lineStart := 0
	line := 0
	for line < pos.Line {
		idx := strings.IndexByte(text[lineStart:], '\n')
		if idx < 0 {
			return len(text)
		}
		lineStart += idx + 1
		line++
	}
	offset := lineStart + pos.Character
	if offset > len(text) {
		offset = len(text)
	}
	return offset
}

func (fs *FileStore) activeDocFor(path string) (*activeDocument, bool) {
	uri := jtypes.URI("file://" + path)
	fs.docsMu.RLock()
	doc, ok := fs.active[uri]
	fs.docsMu.RUnlock()
	return doc, ok
}

// Contents resolves the authoritative text for a file or document: the
// active-document text if present, else the on-disk bytes decoded as the
// configured encoding (spec.md §3 "Content resolution rule").
func (fs *FileStore) Contents(path string) (string, error) {
	if doc, ok := fs.activeDocFor(path); ok {
		return doc.text, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return fs.encoding.Decode(b), nil
}

// ContentsByURI is Contents keyed directly by URI, for callers that
// already have one (e.g. an open document that hasn't been written to
// disk at all yet).
func (fs *FileStore) ContentsByURI(uri jtypes.URI) (string, error) {
	fs.docsMu.RLock()
	doc, ok := fs.active[uri]
	fs.docsMu.RUnlock()
	if ok {
		return doc.text, nil
	}
	return fs.Contents(uri.Path())
}

// InputStream opens a reader over the authoritative contents of path.
func (fs *FileStore) InputStream(path string) (io.ReadCloser, error) {
	content, err := fs.Contents(path)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(strings.NewReader(content)), nil
}

// BufferedReader is InputStream wrapped in a *bufio.Reader, mirroring
// the reference implementation's convenience accessor of the same name.
func (fs *FileStore) BufferedReader(path string) (*bufio.Reader, error) {
	r, err := fs.InputStream(path)
	if err != nil {
		return nil, err
	}
	return bufio.NewReader(r), nil
}
