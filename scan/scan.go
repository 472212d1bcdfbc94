// Package scan gathers the raw block device data from the system and hands it to
// the topology transformer.
package scan

import (
	"context"
	"os"
	"time"

	"github.com/kairos-io/kairos-partitioner/topology"
	"github.com/kairos-io/kairos-partitioner/types"
	"github.com/kairos-io/kairos-partitioner/utils"
)

// Result is the raw output of a source, before any transformation.
type Result struct {
	Devices    []types.BlockDeviceInfo
	Identities types.FsIdentities
}

// Source produces a full, fresh view of the block devices on every call.
// A source may return a usable Result together with an error describing the
// disks it could only partially read.
type Source interface {
	Scan(ctx context.Context) (Result, error)
}

// Disks runs the source and converts its output into the Disk model.
// The disks are returned even when err is not nil.
func Disks(ctx context.Context, src Source, logger *types.Logger) ([]types.Disk, error) {
	logger = types.OrNull(logger)
	res, err := src.Scan(ctx)
	if err != nil {
		logger.Logger.Warn().Err(err).Msg("Scan finished with errors")
	}
	disks := topology.Transform(res.Devices, res.Identities, logger)
	logger.Logger.Debug().Int("disks", len(disks)).Msg("Scan done")
	return disks, err
}

type config struct {
	runner      utils.Runner
	logger      *types.Logger
	timeout     time.Duration
	sudo        bool
	loopDevices bool
}

type Option func(*config)

func WithRunner(r utils.Runner) Option {
	return func(c *config) { c.runner = r }
}

func WithLogger(l *types.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithTimeout sets the timeout of every command run by the default runner.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// WithSudo runs the partition table and identifier tools through sudo.
// It defaults to true when not running as root.
func WithSudo(v bool) Option {
	return func(c *config) { c.sudo = v }
}

// WithLoopDevices keeps loop devices in the listing, handy for development with image files.
func WithLoopDevices(v bool) Option {
	return func(c *config) { c.loopDevices = v }
}

func newConfig(opts ...Option) config {
	c := config{timeout: utils.DefaultTimeout, sudo: os.Geteuid() != 0}
	for _, o := range opts {
		o(&c)
	}
	c.logger = types.OrNull(c.logger)
	if c.runner == nil {
		c.runner = utils.NewExecRunner(c.timeout, c.logger)
	}
	return c
}
