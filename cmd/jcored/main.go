// Command jcored is a CLI harness that drives internal/query directly
// against on-disk fixtures (SPEC_FULL.md §5 Non-goals: no LSP/JSON-RPC
// wire framing anywhere in this module — jcored is for demonstration and
// the §8 scenarios, not an editor-facing server).
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/javaintel/jcore/internal/catalog"
	"github.com/javaintel/jcore/internal/config"
	"github.com/javaintel/jcore/internal/facade/tsfacade"
	"github.com/javaintel/jcore/internal/jlog"
	"github.com/javaintel/jcore/internal/jtypes"
	"github.com/javaintel/jcore/internal/query"
	"github.com/javaintel/jcore/internal/version"
	"github.com/javaintel/jcore/internal/workspace"
)

func main() {
	app := &cli.App{
		Name:    "jcored",
		Usage:   "incremental analysis core for a Java-like language service",
		Version: version.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "root", Aliases: []string{"r"}, Usage: "workspace root directory", Value: "."},
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "config file name within root (not read: .jcore.kdl in root is always loaded)", Value: ".jcore.kdl"},
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "suppress jlog output"},
			&cli.StringFlag{Name: "manifest", Usage: "JDK/classpath TOML manifest path"},
		},
		Commands: []*cli.Command{
			completeCommand,
			checkCommand,
			fixImportsCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var completeCommand = &cli.Command{
	Name:      "complete",
	Usage:     "run the Completion engine at one cursor position",
	ArgsUsage: "<file> <line> <character>",
	Action: func(c *cli.Context) error {
		sess, err := buildSession(c)
		if err != nil {
			return err
		}
		uri, pos, err := fileArgs(c)
		if err != nil {
			return err
		}
		candidates, err := sess.Complete(context.Background(), uri, pos)
		if err != nil {
			return err
		}
		return printJSON(candidates)
	},
}

var checkCommand = &cli.Command{
	Name:      "check",
	Usage:     "run the partial expression checker at one cursor position",
	ArgsUsage: "<file> <line> <character>",
	Action: func(c *cli.Context) error {
		sess, err := buildSession(c)
		if err != nil {
			return err
		}
		uri, pos, err := fileArgs(c)
		if err != nil {
			return err
		}
		typ, err := sess.CheckExpression(context.Background(), uri, pos)
		if err != nil {
			return err
		}
		return printJSON(map[string]any{"type": typ.Name(), "void": typ.IsVoid()})
	},
}

var fixImportsCommand = &cli.Command{
	Name:      "fiximports",
	Usage:     "suggest fully-qualified imports for a file's unresolved identifiers",
	ArgsUsage: "<file>",
	Action: func(c *cli.Context) error {
		sess, err := buildSession(c)
		if err != nil {
			return err
		}
		if c.Args().Len() < 1 {
			return fmt.Errorf("usage: %s <file>", c.Command.ArgsUsage)
		}
		uri := jtypes.URI("file://" + c.Args().Get(0))
		source, err := sess.Store.ContentsByURI(uri)
		if err != nil {
			return err
		}
		batch, err := sess.Facade.CompileBatch(context.Background(), map[jtypes.URI]string{uri: source})
		if err != nil {
			return err
		}
		defer batch.Close()
		suggestions, err := batch.FixImports(uri)
		if err != nil {
			return err
		}
		return printJSON(suggestions)
	},
}

func buildSession(c *cli.Context) (*query.Session, error) {
	jlog.SetQuiet(c.Bool("quiet"))

	root := c.String("root")
	cfg, err := config.Load(root)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	jlog.SetQuiet(cfg.Quiet || c.Bool("quiet"))

	roots := cfg.WorkspaceRoots
	if len(roots) == 0 {
		roots = []string{root}
	}

	store := workspace.New()
	if err := store.SetWorkspaceRoots(roots); err != nil {
		return nil, fmt.Errorf("set workspace roots: %w", err)
	}

	fac, err := tsfacade.New()
	if err != nil {
		return nil, fmt.Errorf("tsfacade: %w", err)
	}

	manifestPath := c.String("manifest")
	if manifestPath == "" {
		manifestPath = root + "/.jcore-catalog.toml"
	}
	classes := catalog.New(manifestPath)
	sourcepath := catalog.NewSourcepathIndex()
	fac.SetCatalogs(classes, sourcepath)

	return query.New(store, fac, cfg, classes, sourcepath), nil
}

func fileArgs(c *cli.Context) (jtypes.URI, jtypes.Position, error) {
	if c.Args().Len() < 3 {
		return "", jtypes.Position{}, fmt.Errorf("usage: %s <file> <line> <character>", c.Command.ArgsUsage)
	}
	file := c.Args().Get(0)
	line, err := strconv.Atoi(c.Args().Get(1))
	if err != nil {
		return "", jtypes.Position{}, fmt.Errorf("invalid line: %w", err)
	}
	character, err := strconv.Atoi(c.Args().Get(2))
	if err != nil {
		return "", jtypes.Position{}, fmt.Errorf("invalid character: %w", err)
	}
	return jtypes.URI("file://" + file), jtypes.Position{Line: line, Character: character}, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
