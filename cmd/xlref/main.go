package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-zglob"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yamitzky/xlref-go/internal/errors"
	"github.com/yamitzky/xlref-go/xlref"
)

var version = "dev"

var errorColor = color.New(color.FgRed, color.Bold)

type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	logger *logrus.Logger

	verbosity  string
	configPath string
	config     *xlref.Config
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr, logger: logrus.New()}
	a.logger.SetOutput(stderr)

	root := a.rootCmd()
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		errorColor.Fprint(stderr, "error: ")
		if a.logger.IsLevelEnabled(logrus.DebugLevel) {
			fmt.Fprintln(stderr, errors.ErrorWithStackTrace(err))
		} else {
			fmt.Fprintln(stderr, err)
		}
		return 1
	}
	return 0
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "xlref",
		Short:         "xlref command line tool",
		Long:          "Resolve xl-ref references into the values of spreadsheet regions.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.configure(cmd)
		},
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	flags := root.PersistentFlags()
	flags.StringVarP(&a.verbosity, "verbosity", "v", "info", "log level: panic, fatal, error, warning, info, debug or trace")
	flags.StringVar(&a.configPath, "config", "", "TOML configuration file")

	root.AddCommand(a.readCmd())
	return root
}

func (a *app) configure(cmd *cobra.Command) error {
	level := a.verbosity
	if a.configPath != "" {
		cfg, err := xlref.LoadConfig(a.configPath)
		if err != nil {
			return err
		}
		if cfg.LogLevel != "" && !cmd.Flags().Changed("verbosity") {
			level = cfg.LogLevel
		}
		a.config = cfg
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	a.logger.SetLevel(lvl)
	return nil
}

func (a *app) readCmd() *cobra.Command {
	var inputFiles []string
	cmd := &cobra.Command{
		Use:   "read OUTPUT_FILE [REFERENCE...]",
		Short: "Read xl-ref references",
		Long: `Read recursively the references given on the command line and in JSON
files, and write the values to OUTPUT_FILE (.json, or .msgpack/.mp).`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return a.read(args[0], args[1:], inputFiles)
		},
	}
	cmd.Flags().StringArrayVarP(&inputFiles, "input-file", "F", nil,
		"JSON file of references, glob patterns allowed; '-' reads standard input")
	return cmd
}

func (a *app) read(output string, refs, patterns []string) error {
	opts := &xlref.Options{Logger: a.logger}
	if a.config != nil {
		opts = a.config.Options(a.logger)
	}

	files, err := a.loadInputs(patterns)
	if err != nil {
		return err
	}
	sources := xlref.MergeReferences(refs, files)
	a.logger.WithField("sources", len(sources)).Debug("reading references")

	data, err := xlref.ReadReferences(sources, opts)
	if err != nil {
		return err
	}
	if err := xlref.Save(output, data); err != nil {
		return err
	}
	a.logger.WithField("output", output).Info("references written")
	return nil
}

func (a *app) loadInputs(patterns []string) ([]xlref.Source, error) {
	var sources []xlref.Source
	for _, pattern := range patterns {
		if pattern == "-" {
			var v any
			if err := json.NewDecoder(a.stdin).Decode(&v); err != nil {
				return nil, errors.WithStackTraceAndPrefix(err, "decoding standard input")
			}
			sources = append(sources, xlref.Source{Value: v})
			continue
		}
		paths, err := expandPattern(pattern)
		if err != nil {
			return nil, err
		}
		loaded, err := xlref.LoadJSON(paths...)
		if err != nil {
			return nil, err
		}
		sources = append(sources, loaded...)
	}
	return sources, nil
}

func expandPattern(pattern string) ([]string, error) {
	if !strings.ContainsAny(pattern, "*?[{") {
		return []string{pattern}, nil
	}
	paths, err := zglob.Glob(pattern)
	if err != nil {
		return nil, errors.WithStackTraceAndPrefix(err, "expanding %s", pattern)
	}
	if len(paths) == 0 {
		return nil, errors.Errorf("no input file matches %s", pattern)
	}
	sort.Strings(paths)
	return paths, nil
}
