package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"mapcheck/internal/config"
	"mapcheck/internal/csharp"
	"mapcheck/internal/rules"
	"mapcheck/internal/telemetry/logging"
	"mapcheck/internal/telemetry/metrics"
)

const filePerm = 0o644

// session holds the sources and services of one command run.
type session struct {
	// root is the directory document paths are relative to, "" for file lists.
	root    string
	sources []csharp.Source

	cfg        *config.Config
	logger     *slog.Logger
	metrics    *metrics.Collector
	dispatcher *rules.Dispatcher

	metricsPath string
}

// openSession reads the target sources and loads the configuration. With no
// arguments the current directory is analysed; a single directory argument
// is walked; anything else is a list of C# files.
func openSession(flags *globalFlags, args []string, stderr io.Writer) (*session, error) {
	s := &session{metricsPath: flags.metrics}

	if err := s.readSources(args); err != nil {
		return nil, err
	}

	cfg, err := loadConfig(flags, s.configDir(args))
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Writer: stderr})
	if err != nil {
		return nil, err
	}

	s.cfg = cfg
	s.logger = logger

	if flags.metrics != "" {
		s.metrics = metrics.NewCollector(prometheus.NewRegistry())
	}

	s.dispatcher = rules.NewDispatcher(rules.Options{Config: cfg, Logger: logger, Metrics: s.metrics})

	return s, nil
}

func (s *session) readSources(args []string) error {
	if len(args) == 0 {
		args = []string{"."}
	}

	if len(args) == 1 {
		info, err := os.Stat(args[0])
		if err != nil {
			return err
		}

		if info.IsDir() {
			s.root = args[0]

			s.sources, err = csharp.ReadDir(args[0])

			return err
		}
	}

	for _, a := range args {
		if !strings.EqualFold(filepath.Ext(a), csharp.Extension) {
			return fmt.Errorf("%s is not a %s file", a, csharp.Extension)
		}
	}

	var err error

	s.sources, err = csharp.ReadFiles(args...)

	return err
}

func (s *session) configDir(args []string) string {
	switch {
	case s.root != "":
		return s.root
	case len(args) > 0:
		return filepath.Dir(args[0])
	default:
		return "."
	}
}

// loadConfig reads the explicit config file or looks one up in dir, then
// applies flag overrides.
func loadConfig(flags *globalFlags, dir string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)

	if flags.config != "" {
		cfg, err = config.LoadFile(flags.config)
	} else {
		cfg, _, err = config.Find(dir)
	}

	if err != nil {
		return nil, err
	}

	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}

	if flags.logFormat != "" {
		cfg.Log.Format = flags.logFormat
	}

	if flags.workers != 0 {
		cfg.Workers = flags.workers
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// analyze parses the current sources and runs every rule.
func (s *session) analyze(ctx context.Context) (*rules.Report, error) {
	comp, err := csharp.Parse(ctx, s.sources...)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("parsed sources", "documents", len(comp.Documents), "types", comp.Graph.Len())

	return s.dispatcher.RunAll(ctx, comp)
}

// documents returns the current text of every source by path.
func (s *session) documents() map[string]string {
	docs := make(map[string]string, len(s.sources))
	for _, src := range s.sources {
		docs[src.Path] = src.Text
	}

	return docs
}

// update replaces source texts and returns the paths that changed.
func (s *session) update(docs map[string]string) []string {
	var changed []string

	for i, src := range s.sources {
		text, ok := docs[src.Path]
		if !ok || text == src.Text {
			continue
		}

		s.sources[i].Text = text
		changed = append(changed, src.Path)
	}

	return changed
}

// write stores the given documents on disk.
func (s *session) write(paths []string) error {
	docs := s.documents()

	for _, p := range paths {
		if err := os.WriteFile(s.diskPath(p), []byte(docs[p]), filePerm); err != nil {
			return fmt.Errorf("writing file %s: %w", p, err)
		}
	}

	return nil
}

func (s *session) diskPath(p string) string {
	if s.root == "" {
		return p
	}

	return filepath.Join(s.root, filepath.FromSlash(p))
}

// flushMetrics writes the collected metrics when a metrics file was asked for.
func (s *session) flushMetrics() error {
	if s.metricsPath == "" {
		return nil
	}

	if err := prometheus.WriteToTextfile(s.metricsPath, s.metrics.Registry()); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}

	return nil
}
