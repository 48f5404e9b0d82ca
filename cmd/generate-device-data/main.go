package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/blorente/sonic-buildimage/devicedata"
	"github.com/blorente/sonic-buildimage/internal/logging"
	"github.com/blorente/sonic-buildimage/internal/version"
)

var cmd Cmd

var waitInterrupted = WaitInterrupted

// Cmd is the command line arguments.
type Cmd struct {
	// ConfigPath is the path to the configuration file.
	ConfigPath string
	// DeviceDir overrides the device tree directory.
	DeviceDir string
	// OutputDir overrides the output directory.
	OutputDir string
	// TemplatesDir overrides the profile templates directory.
	TemplatesDir string
	// Platform overrides the target platform.
	Platform string
	// LogLevel overrides the logging level.
	LogLevel string
}

var rootCmd = &cobra.Command{
	Use:     "generate-device-data",
	Short:   "Generate the device data tree, virtual switch hwskus included",
	Version: version.Version(),
	Args:    cobra.NoArgs,
	Run: func(rawCmd *cobra.Command, _ []string) {
		if err := run(rawCmd, cmd); err != nil {
			fmt.Printf("ERROR: %v\n", err)
			os.Exit(exitCode(err))
		}
	},
}

func init() {
	bindFlags(rootCmd, &cmd)
}

func bindFlags(rawCmd *cobra.Command, cmd *Cmd) {
	flags := rawCmd.Flags()
	flags.StringVarP(&cmd.ConfigPath, "config", "c", "", "Path to the configuration file")
	flags.StringVar(&cmd.DeviceDir, "device-dir", "", "Device tree organized as <vendor>/<platform>/<hwsku>")
	flags.StringVarP(&cmd.OutputDir, "output-dir", "o", "", "Output directory")
	flags.StringVar(&cmd.TemplatesDir, "templates-dir", "", "Directory with the virtual switch profile templates")
	flags.StringVarP(&cmd.Platform, "platform", "p", "", "Target platform stamped into platform_asic")
	flags.StringVar(&cmd.LogLevel, "log-level", "", "Logging level (debug, info, warn, error)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Printf("ERROR: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig builds the configuration: defaults, then the configuration
// file, then the environment, then explicit flags.
func loadConfig(rawCmd *cobra.Command, cmd Cmd) (*devicedata.Config, error) {
	cfg := devicedata.DefaultConfig()
	if cmd.ConfigPath != "" {
		var err error
		cfg, err = devicedata.LoadConfig(cmd.ConfigPath)
		if err != nil {
			return nil, err
		}
	}

	cfg.ApplyEnv(os.LookupEnv)

	flags := rawCmd.Flags()
	if flags.Changed("device-dir") {
		cfg.DeviceDir = cmd.DeviceDir
	}
	if flags.Changed("output-dir") {
		cfg.OutputDir = cmd.OutputDir
	}
	if flags.Changed("templates-dir") {
		cfg.TemplatesDir = cmd.TemplatesDir
	}
	if flags.Changed("platform") {
		cfg.Platform = cmd.Platform
	}
	if flags.Changed("log-level") {
		if err := cfg.Logging.SetLevel(cmd.LogLevel); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func run(rawCmd *cobra.Command, cmd Cmd) error {
	cfg, err := loadConfig(rawCmd, cmd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, _, err := logging.Init(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer log.Sync()

	gen, err := devicedata.NewGenerator(cfg, devicedata.WithLog(log))
	if err != nil {
		return fmt.Errorf("failed to create generator: %w", err)
	}

	if err := generate(context.Background(), gen, waitInterrupted, log); err != nil {
		if errors.Is(err, Interrupted{}) {
			return fmt.Errorf("output directory %q is incomplete: %w", cfg.OutputDir, err)
		}
		return err
	}

	return nil
}

// Runner runs the generation.
type Runner interface {
	Run(ctx context.Context) (*devicedata.Report, error)
}

// generate runs the generation until it is done or wait returns an error.
func generate(
	ctx context.Context,
	runner Runner,
	wait func(context.Context) error,
	log *zap.SugaredLogger,
) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	wg, ctx := errgroup.WithContext(ctx)
	wg.Go(func() error {
		// Stop waiting for signals once the generator is done.
		defer cancel()

		_, err := runner.Run(ctx)
		return err
	})
	wg.Go(func() error {
		err := wait(ctx)
		if errors.Is(err, Interrupted{}) {
			log.Warnf("caught signal, stopping: %v", err)
			return err
		}
		return nil
	})

	return wg.Wait()
}

// exitCode returns the process exit code for the error: 128 plus the signal
// number for interrupts, 1 otherwise.
func exitCode(err error) int {
	var interrupted Interrupted
	if errors.As(err, &interrupted) {
		if sig, ok := interrupted.Signal.(syscall.Signal); ok {
			return 128 + int(sig)
		}
	}

	return 1
}

type Interrupted struct {
	os.Signal
}

func (m Interrupted) Error() string {
	return m.String()
}

// Is matches any Interrupted error regardless of the signal.
func (m Interrupted) Is(target error) bool {
	_, ok := target.(Interrupted)
	return ok
}

// WaitInterrupted blocks until either SIGINT or SIGTERM signal is received or
// the provided context is canceled.
func WaitInterrupted(ctx context.Context) error {
	ch := make(chan os.Signal, 1)

	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(ch)

	select {
	case v := <-ch:
		return Interrupted{Signal: v}
	case <-ctx.Done():
		return ctx.Err()
	}
}
