// Package config loads jcore's workspace configuration from a .jcore.kdl
// file, modeled on the teacher's internal/config KDL loader. The
// recognized options are exactly those spec.md §6 names — quiet and the
// workspace roots — plus one internal tuning knob the Completion engine
// needs for its bounding rule (§4.E).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"
)

// DefaultMaxCandidates bounds a single completion result assembly when a
// workspace does not override it (§4.E "Bounding").
const DefaultMaxCandidates = 200

// Config is jcore's recognized option set (spec.md §6: "quiet; workspace
// roots").
type Config struct {
	Quiet         bool
	WorkspaceRoots []string
	MaxCandidates int
}

func defaults() *Config {
	return &Config{
		Quiet:         false,
		WorkspaceRoots: nil,
		MaxCandidates: DefaultMaxCandidates,
	}
}

// Load reads projectRoot/.jcore.kdl. A missing file is not an error: it
// yields the defaults, matching the teacher's LoadKDL returning (nil, nil)
// on ENOENT.
func Load(projectRoot string) (*Config, error) {
	kdlPath := filepath.Join(projectRoot, ".jcore.kdl")

	content, err := os.ReadFile(kdlPath)
	if err != nil {
		if os.IsNotExist(err) {
			return defaults(), nil
		}
		return nil, fmt.Errorf("failed to read .jcore.kdl: %w", err)
	}

	cfg, err := parse(string(content))
	if err != nil {
		return nil, err
	}

	for i, root := range cfg.WorkspaceRoots {
		if !filepath.IsAbs(root) {
			cfg.WorkspaceRoots[i] = filepath.Clean(filepath.Join(projectRoot, root))
		} else {
			cfg.WorkspaceRoots[i] = filepath.Clean(root)
		}
	}

	return cfg, nil
}

func parse(content string) (*Config, error) {
	cfg := defaults()

	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse .jcore.kdl: %w", err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "quiet":
			if b, ok := firstBoolArg(n); ok {
				cfg.Quiet = b
			}
		case "max-candidates":
			if v, ok := firstIntArg(n); ok && v > 0 {
				cfg.MaxCandidates = v
			}
		case "workspace-roots":
			cfg.WorkspaceRoots = append(cfg.WorkspaceRoots, collectStringArgs(n)...)
		case "root":
			// A bare top-level "root" node is a single-workspace shorthand.
			if s, ok := firstStringArg(n); ok {
				cfg.WorkspaceRoots = append(cfg.WorkspaceRoots, s)
			}
		}
	}

	return cfg, nil
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	if b, ok := n.Arguments[0].Value.(bool); ok {
		return b, true
	}
	return false, false
}

func collectStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}
	if len(out) == 0 && len(n.Children) > 0 {
		out = make([]string, 0, len(n.Children))
		for _, child := range n.Children {
			if s, ok := firstStringArg(child); ok {
				out = append(out, s)
			} else if child.Name != nil {
				if s, ok := child.Name.Value.(string); ok {
					out = append(out, s)
				}
			}
		}
	}
	return out
}
