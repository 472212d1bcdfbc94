// Package commands holds the partplan command line interface.
package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/kairos-io/kairos-partitioner/scan"
	"github.com/kairos-io/kairos-partitioner/types"
)

type config struct {
	source scan.Source
	logger *types.Logger
}

type Option func(*config)

// WithSource makes every command use src instead of the one picked by the flags.
func WithSource(src scan.Source) Option {
	return func(c *config) { c.source = src }
}

// WithLogger replaces the logger built from --log-level.
func WithLogger(l *types.Logger) Option {
	return func(c *config) { c.logger = l }
}

// NewApp returns the partplan application.
func NewApp(opts ...Option) *cli.App {
	cfg := &config{}
	for _, o := range opts {
		o(cfg)
	}
	fixedLogger := cfg.logger != nil

	return &cli.App{
		Name:  "partplan",
		Usage: "inspect disks and plan partition layouts",
		Flags: globalFlags,
		Before: func(c *cli.Context) error {
			if err := loadEnvFile(c); err != nil {
				return err
			}
			if !fixedLogger {
				l := types.NewLogger("partplan", c.String(logLevelFlag.Name), false)
				cfg.logger = &l
			}
			return nil
		},
		Commands: cliCommands(cfg),
	}
}

// loadEnvFile loads the env file and re-applies the global flags that were not set,
// so values from the file behave like real environment variables.
// A missing default file is fine, a missing explicit one is not.
func loadEnvFile(c *cli.Context) error {
	file := c.String(envFileFlag.Name)
	if file == "" {
		return nil
	}
	if err := godotenv.Load(file); err != nil {
		if errors.Is(err, fs.ErrNotExist) && !c.IsSet(envFileFlag.Name) {
			return nil
		}
		return fmt.Errorf("loading env file %s: %w", file, err)
	}
	for _, f := range globalFlags {
		if err := applyEnv(c, f); err != nil {
			return err
		}
	}
	return nil
}

func applyEnv(c *cli.Context, f cli.Flag) error {
	df, ok := f.(cli.DocGenerationFlag)
	if !ok {
		return nil
	}
	name := f.Names()[0]
	if c.IsSet(name) {
		return nil
	}
	for _, env := range df.GetEnvVars() {
		if v, found := os.LookupEnv(env); found {
			return c.Set(name, strings.TrimSpace(v))
		}
	}
	return nil
}

// sourceFor builds the scan source from the global flags.
func (cfg *config) sourceFor(c *cli.Context) (scan.Source, error) {
	if cfg.source != nil {
		return cfg.source, nil
	}
	opts := []scan.Option{
		scan.WithLogger(cfg.logger),
		scan.WithTimeout(c.Duration(timeoutFlag.Name)),
		scan.WithLoopDevices(c.Bool(loopDevicesFlag.Name)),
	}
	if c.Bool(noSudoFlag.Name) {
		opts = append(opts, scan.WithSudo(false))
	}
	switch c.String(sourceFlag.Name) {
	case sourceCommand:
		return scan.NewCommandSource(opts...), nil
	case sourceSysfs:
		return scan.NewSysfsSource(nil, c.String(rootFlag.Name), opts...), nil
	case sourceGhw:
		return scan.NewGhwSource(c.String(rootFlag.Name), opts...), nil
	case sourceImage:
		images := c.StringSlice(imageFlag.Name)
		if len(images) == 0 {
			return nil, fmt.Errorf("the image source needs at least one --%s", imageFlag.Name)
		}
		return scan.NewImageSource(images, opts...), nil
	}
	return nil, fmt.Errorf("unknown source %q", c.String(sourceFlag.Name))
}

// disks scans and keeps going on partial failures, as long as something was found.
func (cfg *config) disks(c *cli.Context) ([]types.Disk, error) {
	src, err := cfg.sourceFor(c)
	if err != nil {
		return nil, err
	}
	disks, err := scan.Disks(c.Context, src, cfg.logger)
	if err != nil && len(disks) == 0 {
		return nil, err
	}
	return disks, nil
}

func cliCommands(cfg *config) []*cli.Command {
	return []*cli.Command{
		{
			Name:   "disks",
			Usage:  "lists the disks and their partitions",
			Flags:  []cli.Flag{outputFlag, partitionsFlag},
			Action: cfg.disksAction,
		},
		{
			Name:   "plan",
			Usage:  "applies edits to a disk layout in memory and prints the resulting plan",
			Flags:  []cli.Flag{diskFlag, deleteFlag, resizeFlag, mergeFlag, addFlag, isoFlag, outputFlag},
			Action: cfg.planAction,
		},
		{
			Name:   "schema",
			Usage:  "prints the JSON schema of plan files",
			Action: schemaAction,
		},
		{
			Name:   "validate",
			Usage:  "validates a plan file against the schema",
			Flags:  []cli.Flag{fileFlag},
			Action: validateAction,
		},
		{
			Name:      "query",
			Usage:     "runs a jq expression against a plan file",
			ArgsUsage: "EXPRESSION",
			Flags:     []cli.Flag{fileFlag},
			Action:    queryAction,
		},
	}
}
