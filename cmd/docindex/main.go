// Command docindex builds and checks the metadata index of documentation versions.
//
//	docindex --root docs build main --order "Getting Started,Guides"
//	docindex --root docs check
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"github.com/ancientlore/docserve/content"
	"github.com/ancientlore/docserve/logattr"
)

// Global holds state shared by the commands.
type Global struct {
	Logger *slog.Logger
}

// CLI defines the command line.
type CLI struct {
	Root    string `short:"r" help:"Content folder holding one folder per version." default:"docs" type:"existingdir"`
	Verbose bool   `short:"v" help:"Enable verbose logging."`

	Build BuildCmd `cmd:"" help:"Build the metadata index of a version from article front matter."`
	Check CheckCmd `cmd:"" help:"Check metadata indexes against the articles."`
}

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Version string   `arg:"" help:"Version folder to index."`
	Order   []string `help:"Section names in sidebar order." sep:","`
	Output  string   `short:"o" help:"Output file; - writes to standard output. Defaults to the index file of the version."`
}

// Run builds and writes the index.
func (c *BuildCmd) Run(g *Global, root *CLI) error {
	fsys := os.DirFS(root.Root)
	ix, problems, err := build(fsys, c.Version, c.Order)
	if err != nil {
		return err
	}
	for _, p := range problems {
		g.Logger.Warn("Skipped article", logattr.Version(c.Version), logattr.Error(p))
	}
	b, err := ix.Encode()
	if err != nil {
		return err
	}
	if c.Output == "-" {
		_, err = os.Stdout.Write(b)
		return err
	}
	if c.Output == "" {
		c.Output = filepath.Join(root.Root, c.Version, content.IndexFile)
	}
	if err := os.WriteFile(c.Output, b, 0o644); err != nil {
		return fmt.Errorf("build: %w", err)
	}
	g.Logger.Info("Wrote index", logattr.Path(c.Output), logattr.Count(ix.Len()))
	return nil
}

// CheckCmd implements the 'check' command.
type CheckCmd struct {
	Versions []string `arg:"" optional:"" help:"Versions to check. Defaults to every version."`
}

// errProblems is returned when a check finds problems.
var errProblems = errors.New("problems found")

// Run checks the requested versions.
func (c *CheckCmd) Run(g *Global, root *CLI) error {
	ctx := context.Background()
	fsys := os.DirFS(root.Root)
	versions := c.Versions
	if len(versions) == 0 {
		v, err := content.NewDir(fsys).Versions(ctx)
		if err != nil {
			return err
		}
		versions = v
	}
	total := 0
	for _, version := range versions {
		problems, err := check(fsys, version)
		if err != nil {
			return err
		}
		for _, p := range problems {
			g.Logger.Error("Problem", logattr.Version(version), slog.String("problem", p))
		}
		g.Logger.Debug("Checked version", logattr.Version(version), logattr.Count(len(problems)))
		total += len(problems)
	}
	if total > 0 {
		return fmt.Errorf("check: %d %w", total, errProblems)
	}
	g.Logger.Info("No problems found", slog.Int("versions", len(versions)))
	return nil
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("docindex"),
		kong.Description("Build and check documentation metadata indexes."),
		kong.UsageOnError(),
	)

	level := slog.LevelInfo
	if cli.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	err := ctx.Run(&Global{Logger: logger}, &cli)
	ctx.FatalIfErrorf(err)
}
