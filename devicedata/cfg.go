package devicedata

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/blorente/sonic-buildimage/internal/logging"
	"github.com/blorente/sonic-buildimage/internal/walker"
)

const (
	// VSPlatform is the virtual switch platform directory.
	VSPlatform = "x86_64-kvm_x86_64-r0"
	// PlatformAsicFile is the file in the virtual switch platform directory
	// naming the target platform.
	PlatformAsicFile = "platform_asic"

	outputDirName = "device_output"
)

// Config is the generator configuration.
type Config struct {
	// Logging configuration.
	Logging logging.Config `yaml:"logging"`
	// DeviceDir is the device tree organized as "<vendor>/<platform>/<hwsku>".
	DeviceDir string `yaml:"device_dir"`
	// OutputDir is the flattened "<platform>/<hwsku>" output tree.
	OutputDir string `yaml:"output_dir"`
	// TemplatesDir holds the virtual switch profile templates.
	TemplatesDir string `yaml:"templates_dir"`
	// Platform is the target platform, stamped into "platform_asic".
	Platform string `yaml:"platform"`
	// Exclude lists name markers of entries at the hardware SKU level that
	// are not hardware SKUs.
	Exclude []string `yaml:"exclude"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Logging:      logging.DefaultConfig(),
		DeviceDir:    "device",
		OutputDir:    outputDirName,
		TemplatesDir: filepath.Join("src", "sonic-device-data", "src"),
		Platform:     "vs",
		Exclude:      append([]string(nil), walker.DefaultExclude...),
	}
}

// LoadConfig loads the configuration from the given path on top of the
// defaults.
func LoadConfig(path string) (*Config, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(buf, cfg); err != nil {
		return nil, fmt.Errorf("failed to deserialize config: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overrides the configuration from the build environment.
//
// RULEDIR relocates the output tree to "$RULEDIR/device_output", PLATFORM
// selects the target platform. Empty variables are ignored.
func (m *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if dir, ok := lookup("RULEDIR"); ok && dir != "" {
		m.OutputDir = filepath.Join(dir, outputDirName)
	}
	if platform, ok := lookup("PLATFORM"); ok && platform != "" {
		m.Platform = platform
	}
}

// Validate checks the configuration.
func (m *Config) Validate() error {
	errs := []error{}
	if m.DeviceDir == "" {
		errs = append(errs, errors.New("device_dir is required"))
	}
	if m.OutputDir == "" {
		errs = append(errs, errors.New("output_dir is required"))
	}
	if m.TemplatesDir == "" {
		errs = append(errs, errors.New("templates_dir is required"))
	}
	if m.Platform == "" {
		errs = append(errs, errors.New("platform is required"))
	}
	for _, marker := range m.Exclude {
		if marker == "" {
			errs = append(errs, errors.New("exclude markers must not be empty"))
			break
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	return nil
}

// VSDir returns the virtual switch platform directory in the output tree.
func (m *Config) VSDir() string {
	return filepath.Join(m.OutputDir, VSPlatform)
}
