package scan

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/kairos-io/kairos-partitioner/report"
	"github.com/kairos-io/kairos-partitioner/types"
	"github.com/kairos-io/kairos-partitioner/utils"
)

// CommandSource reads disks with lsblk, parted and blkid.
type CommandSource struct {
	cfg config
}

func NewCommandSource(opts ...Option) *CommandSource {
	return &CommandSource{cfg: newConfig(opts...)}
}

// Scan lists the disks, reads every partition table and merges in the lister
// details and filesystem identities. A failure on one disk degrades that disk
// and is reported in the returned error, it never stops the scan.
func (c *CommandSource) Scan(ctx context.Context) (Result, error) {
	log := c.cfg.logger
	var result *multierror.Error

	names, err := c.diskNames(ctx)
	if err != nil {
		return Result{Identities: types.FsIdentities{}}, fmt.Errorf("listing disks: %w", err)
	}

	reports := make([]report.DiskReport, 0, len(names))
	for _, name := range names {
		reports = append(reports, c.readTable(ctx, name))
	}
	devices, errs := report.ParseDisks(reports, log)
	for _, e := range errs {
		result = multierror.Append(result, e)
	}

	lister, err := c.lister(ctx)
	if err != nil {
		log.Logger.Warn().Err(err).Msg("Block device lister failed, disks will miss transport and rotation data")
		result = multierror.Append(result, err)
	} else {
		devices = report.MergeLister(devices, lister)
	}

	ids := c.identities(ctx)
	return Result{Devices: devices, Identities: ids}, result.ErrorOrNil()
}

func (c *CommandSource) diskNames(ctx context.Context) ([]string, error) {
	out, err := c.cfg.runner.Run(ctx, "lsblk", "-d", "-o", "NAME", "-n")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, line := range strings.Split(out.Stdout, "\n") {
		name := strings.TrimSpace(line)
		if name == "" {
			continue
		}
		if strings.HasPrefix(name, "loop") && !c.cfg.loopDevices {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

func (c *CommandSource) privileged(ctx context.Context, name string, args ...string) (utils.Output, error) {
	if c.cfg.sudo {
		return c.cfg.runner.Run(ctx, "sudo", append([]string{name}, args...)...)
	}
	return c.cfg.runner.Run(ctx, name, args...)
}

func (c *CommandSource) readTable(ctx context.Context, name string) report.DiskReport {
	dev := "/dev/" + name
	out, err := c.privileged(ctx, "parted", "-s", dev, "unit", "MiB", "print")
	r := report.DiskReport{Name: name, Stdout: out.Stdout, Stderr: out.Stderr, Err: err}
	if report.IsUnrecognisedLabel(out.Stderr) || report.IsUnrecognisedLabel(out.Stdout) {
		r.FallbackSize = c.deviceSize(ctx, dev)
	}
	return r
}

// deviceSize asks lsblk for the size in bytes, nil when it cannot tell.
func (c *CommandSource) deviceSize(ctx context.Context, dev string) *int64 {
	out, err := c.cfg.runner.Run(ctx, "lsblk", "-b", "-dn", "-o", "SIZE", dev)
	if err != nil {
		c.cfg.logger.Logger.Warn().Err(err).Str("device", dev).Msg("Could not get device size")
		return nil
	}
	size, err := strconv.ParseInt(strings.TrimSpace(out.Stdout), 10, 64)
	if err != nil {
		c.cfg.logger.Logger.Warn().Err(err).Str("device", dev).Str("output", out.Stdout).Msg("Could not parse device size")
		return nil
	}
	return &size
}

func (c *CommandSource) lister(ctx context.Context) ([]types.BlockDeviceInfo, error) {
	out, err := c.cfg.runner.Run(ctx, "lsblk", "-J", "-b", "-o", report.LsblkColumns)
	if err != nil {
		return nil, err
	}
	return report.ParseLsblkJSON([]byte(out.Stdout))
}

// identities runs blkid, without sudo as a last resort. No output means no identities.
func (c *CommandSource) identities(ctx context.Context) types.FsIdentities {
	log := c.cfg.logger
	out, err := c.privileged(ctx, "blkid", "-o", "export")
	if err != nil && c.cfg.sudo {
		log.Logger.Debug().Err(err).Msg("blkid through sudo failed, trying without")
		out, err = c.cfg.runner.Run(ctx, "blkid", "-o", "export")
	}
	if err != nil {
		if !errors.Is(err, utils.ErrCommandNotFound) {
			log.Logger.Warn().Err(err).Msg("blkid failed, filesystem identities unavailable")
		}
		return types.FsIdentities{}
	}
	return report.ParseBlkidExport(out.Stdout, log)
}
