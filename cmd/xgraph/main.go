// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command xgraph inspects and edits serialized xgraph documents.
package main

import (
	"fmt"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/nlpodyssey/xgraph"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// env is the state shared by all sub-commands, set up before any of them
// runs.
type env struct {
	configPath string
	verbosity  int

	config xgraph.Config
	logger logr.Logger
	sync   func() error
}

func (e *env) setup(*cobra.Command, []string) error {
	e.config = xgraph.DefaultConfig()
	if e.configPath != "" {
		cfg, err := xgraph.LoadConfig(e.configPath)
		if err != nil {
			return err
		}
		e.config = cfg
	}

	zc := zap.NewDevelopmentConfig()
	zc.Level = zap.NewAtomicLevelAt(zapcore.Level(-e.verbosity))
	zc.DisableStacktrace = true
	zl, err := zc.Build()
	if err != nil {
		return err
	}
	e.logger = zapr.NewLogger(zl)
	e.sync = zl.Sync
	return nil
}

func (e *env) teardown(*cobra.Command, []string) error {
	if e.sync != nil {
		// stderr cannot always be synced; that is not an error
		_ = e.sync()
	}
	return nil
}

// options returns the graph options derived from the configuration.
func (e *env) options() []xgraph.Option {
	return []xgraph.Option{xgraph.WithConfig(e.config), xgraph.WithLogger(e.logger)}
}

func rootCommand() *cobra.Command {
	e := &env{}
	cmd := &cobra.Command{
		Use:                "xgraph",
		Short:              "Inspect, prune, infer and render serialized network graphs",
		SilenceUsage:       true,
		SilenceErrors:      true,
		PersistentPreRunE:  e.setup,
		PersistentPostRunE: e.teardown,
	}
	cmd.PersistentFlags().StringVar(&e.configPath, "config", "", "YAML configuration file")
	cmd.PersistentFlags().CountVarP(&e.verbosity, "verbose", "v", "Increase log verbosity (repeatable)")

	cmd.AddCommand(
		infoCommand(e),
		inferCommand(e),
		pruneCommand(e),
		dotCommand(e),
	)
	return cmd
}

func main() {
	if err := rootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(1)
	}
}
