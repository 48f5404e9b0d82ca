// Package devicedata generates the device data tree consumed by the
// hardware abstraction layer at build time.
//
// The generator runs the following steps, in order:
//
//   - Flatten "device/<vendor>/<platform>" into "<output>/<platform>".
//   - Stamp the target platform into the virtual switch platform.
//   - Mark SAI profiles of simulated Mellanox hardware (mellanox only).
//   - Synthesize a virtual switch SKU for every hardware SKU.
//
// Re-running the generator over a populated output directory is safe:
// virtual switch SKUs that already exist only get their profiles refreshed.
package devicedata

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/blorente/sonic-buildimage/internal/fsutil"
	"github.com/blorente/sonic-buildimage/internal/hwsku"
	"github.com/blorente/sonic-buildimage/internal/profile"
	"github.com/blorente/sonic-buildimage/internal/simx"
	"github.com/blorente/sonic-buildimage/internal/walker"
)

type options struct {
	Log *zap.SugaredLogger
}

func newOptions() *options {
	return &options{
		Log: zap.NewNop().Sugar(),
	}
}

// GeneratorOption is a function that configures the generator.
type GeneratorOption func(*options)

// WithLog sets the logger for the generator.
func WithLog(log *zap.SugaredLogger) GeneratorOption {
	return func(o *options) {
		o.Log = log
	}
}

// Generator generates the device data tree.
type Generator struct {
	cfg    *Config
	walker *walker.Walker
	log    *zap.SugaredLogger
}

// NewGenerator creates a new generator using the provided configuration.
func NewGenerator(cfg *Config, options ...GeneratorOption) (*Generator, error) {
	opts := newOptions()
	for _, o := range options {
		o(opts)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	w, err := walker.NewWalker(cfg.DeviceDir, cfg.Exclude)
	if err != nil {
		return nil, fmt.Errorf("failed to create device walker: %w", err)
	}

	return &Generator{
		cfg:    cfg,
		walker: w,
		log:    opts.Log,
	}, nil
}

// Run generates the device data tree.
//
// Cancelling the context stops the run between steps and between hardware
// SKUs; the partially generated tree must not be consumed then.
func (m *Generator) Run(ctx context.Context) (*Report, error) {
	m.log.Infow("generating device data",
		zap.String("device_dir", m.cfg.DeviceDir),
		zap.String("output_dir", m.cfg.OutputDir),
		zap.String("platform", m.cfg.Platform),
	)

	report := &Report{}

	if err := os.MkdirAll(m.cfg.OutputDir, 0o755); err != nil {
		return report, fmt.Errorf("failed to create output directory: %w", err)
	}

	steps := []struct {
		name string
		fn   func(context.Context, *Report) error
	}{
		{"flatten", m.flatten},
		{"stamp platform", m.stampPlatform},
		{"mark simx profiles", m.markSimx},
		{"synthesize hwskus", m.synthesize},
	}

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		m.log.Debugw("running step", zap.String("step", step.name))
		if err := step.fn(ctx, report); err != nil {
			return report, fmt.Errorf("failed to %s: %w", step.name, err)
		}
	}

	m.log.Infow("generated device data", report.Fields()...)

	return report, nil
}

// flatten copies every "<vendor>/<platform>" onto "<output>/<platform>".
func (m *Generator) flatten(ctx context.Context, report *Report) error {
	platforms, err := m.walker.Platforms()
	if err != nil {
		return err
	}

	for _, platform := range platforms {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := fsutil.CopyTree(platform.Path, filepath.Join(m.cfg.OutputDir, platform.Name))
		report.addCopied(n)
		if err != nil {
			return fmt.Errorf("platform %s/%s: %w", platform.Vendor, platform.Name, err)
		}
		report.Platforms++
	}

	m.log.Infow("flattened vendor directories", zap.Int("platforms", report.Platforms))

	return nil
}

func (m *Generator) stampPlatform(_ context.Context, _ *Report) error {
	dir := m.cfg.VSDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create virtual switch platform: %w", err)
	}

	return fsutil.WriteLines(filepath.Join(dir, PlatformAsicFile), []string{m.cfg.Platform})
}

func (m *Generator) markSimx(_ context.Context, report *Report) error {
	if m.cfg.Platform != simx.Platform {
		return nil
	}

	marked, err := simx.Mark(m.cfg.OutputDir, m.log)
	report.Marked = append(report.Marked, marked...)
	if err != nil {
		return err
	}

	m.log.Infow("marked simx SAI profiles", zap.Int("count", len(marked)))

	return nil
}

func (m *Generator) synthesize(ctx context.Context, report *Report) error {
	hwskus, err := m.walker.HwSkus()
	if err != nil {
		return err
	}
	report.HwSkus = len(hwskus)

	profiles := profile.NewMaterializer(m.cfg.TemplatesDir, m.log)
	synthesizer, err := hwsku.NewSynthesizer(m.cfg.VSDir(), profiles, hwsku.WithLog(m.log))
	if err != nil {
		return err
	}

	for _, sku := range hwskus {
		if err := ctx.Err(); err != nil {
			return err
		}

		result, err := synthesizer.Synthesize(sku)
		if err != nil {
			return err
		}

		report.addCopied(result.BytesCopied)
		if result.Refreshed {
			report.Refreshed++
		} else {
			report.Synthesized++
		}
	}

	m.log.Infow("synthesized virtual switch hwskus",
		zap.Int("synthesized", report.Synthesized),
		zap.Int("refreshed", report.Refreshed),
	)

	return nil
}
