package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/soypat/lattice"
	"github.com/soypat/lattice/batch"
	"github.com/soypat/lattice/internal/config"
	"github.com/soypat/lattice/meshio"
	"github.com/soypat/lattice/render"
	"github.com/soypat/lattice/seed"
	"gonum.org/v1/gonum/spatial/r3"
)

func run(ctx context.Context, f *flags, stderr io.Writer) error {
	cfg, err := loadConfig(f)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, stderr)
	if err != nil {
		return err
	}
	batch.Setup(logger)
	jobs, err := makeJobs(f, cfg, logger)
	if err != nil {
		return err
	}
	_, err = batch.Run(ctx, jobs, batch.Options{
		Workers:  cfg.Workers,
		FailFast: cfg.FailFast,
		Logger:   logger,
	})
	return err
}

// loadConfig reads the configuration file, if any, and applies the flags
// given on the command line over it.
func loadConfig(f *flags) (config.Config, error) {
	cfg := config.Default()
	if f.configPath != "" {
		var err error
		cfg, err = config.Load(f.configPath)
		if err != nil {
			return cfg, err
		}
	}
	for name := range f.set {
		switch name {
		case "workers":
			cfg.Workers = f.workers
		case "fail-fast":
			cfg.FailFast = f.failFast
		case "repeat":
			cfg.Repeat = f.repeat
		case "log-level":
			cfg.LogLevel = f.logLevel
		case "log-format":
			cfg.LogFormat = f.logFormat
		case "format":
			cfg.OutputFormat = f.format
		case "sample":
			cfg.Sample.Shape = f.sample
		case "n":
			cfg.Sample.Count = f.count
		case "seed":
			cfg.Sample.Seed = f.seed
		case "size":
			cfg.Sample.Size = f.size
		}
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg config.Config, w io.Writer) (*batch.Logger, error) {
	lvl, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	if cfg.LogFormat == "json" {
		return batch.NewJSONLogger(w, lvl), nil
	}
	return batch.NewTextLogger(w, lvl), nil
}

// source describes where a job reads its points and writes its lattice.
type source struct {
	name   string
	load   func(ctx context.Context) ([]r3.Vec, error)
	output string
}

func makeJobs(f *flags, cfg config.Config, logger *batch.Logger) ([]batch.Job, error) {
	sources, err := makeSources(f, cfg)
	if err != nil {
		return nil, err
	}
	if f.preview != "" && len(sources) > 1 {
		return nil, errors.New("-preview requires a single input")
	}
	opts := render.DefaultOptions()
	opts.Width, opts.Height = cfg.Preview.Width, cfg.Preview.Height
	opts.Supersample = cfg.Preview.Supersample
	opts.StrutRadius = cfg.Preview.StrutRadius

	var jobs []batch.Job
	for _, src := range sources {
		for rep := 0; rep < cfg.Repeat; rep++ {
			job := batch.Job{Name: src.name, Load: src.load}
			if cfg.Repeat > 1 {
				job.Name = fmt.Sprintf("%s#%d", src.name, rep)
			}
			if rep == 0 {
				job.Save = saver(src.output, f.preview, opts, logger)
			}
			jobs = append(jobs, job)
		}
	}
	return jobs, nil
}

func makeSources(f *flags, cfg config.Config) ([]source, error) {
	if f.set["sample"] {
		if len(f.inputs) > 0 {
			return nil, errors.New("-sample cannot be combined with input files")
		}
		shape, err := seed.Shape(cfg.Sample.Shape, cfg.Sample.Size)
		if err != nil {
			return nil, err
		}
		s := cfg.Sample
		return []source{{
			name: fmt.Sprintf("%s(n=%d,seed=%d)", s.Shape, s.Count, s.Seed),
			load: func(context.Context) ([]r3.Vec, error) {
				return seed.Sample(shape, s.Count, s.Seed)
			},
			output: outputPath(f.output, cfg.OutputFormat),
		}}, nil
	}
	inputs := f.inputs
	if len(inputs) == 0 {
		inputs = []string{defaultInput}
	}
	if len(inputs) > 1 && f.output != "" {
		return nil, errors.New("an output path cannot be given with multiple inputs")
	}
	sources := make([]source, 0, len(inputs))
	for _, in := range inputs {
		if _, err := os.Stat(in); err != nil {
			return nil, fmt.Errorf("input: %w", err)
		}
		output := outputPath(f.output, cfg.OutputFormat)
		if len(inputs) > 1 {
			output = siblingOutput(in, cfg.OutputFormat)
		}
		path := in
		sources = append(sources, source{
			name: in,
			load: func(context.Context) ([]r3.Vec, error) {
				return meshio.ReadPoints(path)
			},
			output: output,
		})
	}
	return sources, nil
}

func outputPath(output, format string) string {
	if output != "" {
		return output
	}
	return defaultOutput + "." + format
}

// siblingOutput returns the lattice path written next to input, for
// instance "dir/cloud.xyz.zst" becomes "dir/cloud.lattice.obj".
func siblingOutput(input, format string) string {
	base := input
	for i := 0; i < 2 && filepath.Ext(base) != ""; i++ {
		ext := strings.ToLower(filepath.Ext(base))
		base = strings.TrimSuffix(base, filepath.Ext(base))
		if ext != ".zst" && ext != ".lz4" {
			break
		}
	}
	return base + ".lattice." + format
}

func saver(output, preview string, opts render.Options, logger *batch.Logger) func(context.Context, lattice.Lattice) error {
	return func(ctx context.Context, l lattice.Lattice) error {
		if err := meshio.WriteLattice(output, l); err != nil {
			return err
		}
		if info, err := os.Stat(output); err == nil {
			logger.InfoContext(ctx, "lattice saved", "path", output, "size", humanize.Bytes(uint64(info.Size())))
		}
		if preview == "" {
			return nil
		}
		if err := render.SavePNG(preview, l, opts); err != nil {
			return fmt.Errorf("preview: %w", err)
		}
		logger.InfoContext(ctx, "preview saved", "path", preview)
		return nil
	}
}
