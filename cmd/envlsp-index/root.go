// Package main wires the Workspace Indexer into a small operator-facing
// CLI, modeled on cue's cmd/cue root command shape: a *cobra.Command built
// by New, flags registered on its PersistentFlags, Execute run from main.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/binding-graph/envlsp/internal/config"
	"github.com/binding-graph/envlsp/internal/indexer"
	"github.com/binding-graph/envlsp/internal/lang"
	"github.com/binding-graph/envlsp/internal/workspace"
)

// Command wraps the root *cobra.Command, giving tests a handle without
// leaking cobra across package boundaries any further than this file.
type Command struct {
	*cobra.Command
}

// New builds the root "envlsp-index" command: run the indexer once over a
// workspace root and print the reverse env-var index it produces.
func New() *Command {
	var (
		workspaceRoot string
		watch         bool
		asJSON        bool
		verbose       bool
	)

	cmd := &cobra.Command{
		Use:   "envlsp-index",
		Short: "Index a workspace's env-var usage and print the reverse index",

		SilenceErrors: true,
		SilenceUsage:  true,

		RunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelInfo
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

			cfg, err := config.LoadFromWorkspace(workspaceRoot)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			idx := workspace.New()
			registry := lang.NewRegistry()
			ix := indexer.New(idx, registry, workspaceRoot, cfg, logger)

			if err := ix.IndexWorkspace(cmd.Context()); err != nil {
				return fmt.Errorf("indexing workspace: %w", err)
			}

			if err := printIndex(cmd.OutOrStdout(), idx, asJSON); err != nil {
				return err
			}

			if !watch {
				return nil
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "watching for changes, press Ctrl+C to stop")
			return ix.Watch(cmd.Context())
		},
	}

	addIndexFlags(cmd.PersistentFlags(), &workspaceRoot, &watch, &asJSON, &verbose)

	return &Command{Command: cmd}
}

// addIndexFlags registers envlsp-index's flags on f, split out from New the
// way cue's cmd/cue/cmd/flags.go keeps its flag-group functions separate
// from command construction.
func addIndexFlags(f *pflag.FlagSet, workspaceRoot *string, watch, asJSON, verbose *bool) {
	f.StringVarP(workspaceRoot, "workspace", "w", ".", "workspace root to index")
	f.BoolVar(watch, "watch", false, "keep watching the workspace after the initial index")
	f.BoolVar(asJSON, "json", false, "print the reverse env-var index as JSON")
	f.BoolVarP(verbose, "verbose", "v", false, "log indexing progress")
}

// envVarSummary is the reverse-index row printed for one env var: its name
// and every file known to reference or export it.
type envVarSummary struct {
	Name  string   `json:"name"`
	Files []string `json:"files"`
}

func printIndex(w io.Writer, idx *workspace.Index, asJSON bool) error {
	names := idx.AllEnvVars()
	sort.Strings(names)

	summaries := make([]envVarSummary, 0, len(names))
	for _, name := range names {
		files := make([]string, 0)
		seen := make(map[string]struct{})
		for _, uri := range idx.FilesForEnvVar(name) {
			if _, ok := seen[string(uri)]; !ok {
				seen[string(uri)] = struct{}{}
				files = append(files, string(uri))
			}
		}
		sort.Strings(files)
		summaries = append(summaries, envVarSummary{Name: name, Files: files})
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(summaries)
	}

	for _, s := range summaries {
		fmt.Fprintf(w, "%s\n", s.Name)
		for _, f := range s.Files {
			fmt.Fprintf(w, "  %s\n", f)
		}
	}
	return nil
}
