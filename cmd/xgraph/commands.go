// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/nlpodyssey/xgraph"
	"github.com/spf13/cobra"
)

func (e *env) load(path string) (*xgraph.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open graph %q", path)
	}
	defer f.Close()

	g, err := xgraph.Deserialize(f, e.options()...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load graph %q", path)
	}
	return g, nil
}

// writeOutput calls write with stdout, or with the named file when path is
// neither empty nor "-".
func writeOutput(cmd *cobra.Command, path string, write func(io.Writer) error) (err error) {
	if path == "" || path == "-" {
		return write(cmd.OutOrStdout())
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %q", path)
	}
	defer func() {
		if e := f.Close(); e != nil && err == nil {
			err = errors.Wrapf(e, "failed to close %q", path)
		}
	}()
	return write(f)
}

func saveGraph(cmd *cobra.Command, path string, g *xgraph.Graph) error {
	return writeOutput(cmd, path, func(w io.Writer) error {
		return xgraph.Serialize(w, g)
	})
}

func infoCommand(e *env) *cobra.Command {
	var layers bool

	cmd := &cobra.Command{
		Use:   "info graph.json",
		Short: "Print a summary of a graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := e.load(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "name:    %s\n", g.Name)
			fmt.Fprintf(out, "layers:  %d\n", g.Len())
			fmt.Fprintf(out, "blobs:   %d\n", len(g.Blobs()))
			fmt.Fprintf(out, "inputs:  %v\n", g.InputBlobs())
			fmt.Fprintf(out, "outputs: %v\n", g.OutputBlobs())

			counts := g.TypeCounts()
			types := make([]string, 0, len(counts))
			byName := make(map[string]int, len(counts))
			for t, n := range counts {
				types = append(types, t.String())
				byName[t.String()] = n
			}
			sort.Strings(types)
			for _, t := range types {
				fmt.Fprintf(out, "  %-14s %d\n", t, byName[t])
			}
			if missing := g.MissingThresholds(); len(missing) > 0 {
				fmt.Fprintf(out, "missing thresholds: %v\n", missing)
			}
			if layers {
				fmt.Fprint(out, g.Describe(e.config.UseUserNames))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&layers, "layers", false, "Also print every layer")
	return cmd
}

func inferCommand(e *env) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "infer graph.json [--output file]",
		Short: "Infer the shape of every blob and write the updated graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := e.load(args[0])
			if err != nil {
				return err
			}
			if err := g.InferShapes(); err != nil {
				return err
			}
			return saveGraph(cmd, output, g)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "-", "The file to write the graph to or - for stdout")
	return cmd
}

func pruneCommand(e *env) *cobra.Command {
	var (
		output     string
		start, end string
		clearBlobs bool
	)

	cmd := &cobra.Command{
		Use:   "prune graph.json [--start layer] [--end layer] [--output file]",
		Short: "Keep only the layers between two boundary layers, both included",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := e.load(args[0])
			if err != nil {
				return err
			}
			if err := g.Prune(start, end); err != nil {
				return err
			}
			if clearBlobs {
				g.ClearNodes()
			}
			return saveGraph(cmd, output, g)
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "First layer to keep (default: every source layer)")
	cmd.Flags().StringVar(&end, "end", "", "Last layer to keep (default: every sink layer)")
	cmd.Flags().BoolVar(&clearBlobs, "clear", false, "Also drop blobs no remaining layer refers to")
	cmd.Flags().StringVarP(&output, "output", "o", "-", "The file to write the graph to or - for stdout")
	return cmd
}

func dotCommand(e *env) *cobra.Command {
	var (
		output  string
		rankdir string
		infer   bool
	)

	cmd := &cobra.Command{
		Use:   "dot graph.json [--output file.dot]",
		Short: "Render a graph in Graphviz DOT format",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := e.load(args[0])
			if err != nil {
				return err
			}
			if infer {
				if err := g.InferShapes(); err != nil {
					return err
				}
			}
			if rankdir == "" {
				rankdir = e.config.RankDir
			}
			if output != "" && output != "-" {
				return g.DrawGraph(output, rankdir)
			}
			return g.WriteDot(cmd.OutOrStdout(), xgraph.DotOptions{
				RankDir:      rankdir,
				UseUserNames: e.config.UseUserNames,
			})
		},
	}
	cmd.Flags().StringVar(&rankdir, "rankdir", "", "Layout direction (default: from configuration)")
	cmd.Flags().BoolVar(&infer, "infer", false, "Infer shapes before rendering")
	cmd.Flags().StringVarP(&output, "output", "o", "-", "The file to write to or - for stdout")
	return cmd
}
