package scan

import (
	"context"
	"fmt"
	"strings"

	jghw "github.com/jaypipes/ghw"

	"github.com/kairos-io/kairos-partitioner/constants"
	"github.com/kairos-io/kairos-partitioner/types"
)

// GhwSource uses the ghw library block inventory.
type GhwSource struct {
	cfg  config
	root string
}

// NewGhwSource reads the inventory from the system, or from root when it is set.
func NewGhwSource(root string, opts ...Option) *GhwSource {
	return &GhwSource{cfg: newConfig(opts...), root: root}
}

func (g *GhwSource) Scan(_ context.Context) (Result, error) {
	var opts []any
	if g.root != "" {
		opts = append(opts, jghw.WithChroot(g.root))
	}
	block, err := jghw.Block(opts...)
	if err != nil {
		return Result{Identities: types.FsIdentities{}}, fmt.Errorf("reading block inventory: %w", err)
	}

	res := Result{Identities: types.FsIdentities{}}
	for _, d := range block.Disks {
		if d == nil {
			continue
		}
		if strings.HasPrefix(d.Name, "loop") && !g.cfg.loopDevices {
			continue
		}
		info := types.BlockDeviceInfo{
			Name:       d.Name,
			Size:       types.Int64Ptr(int64(d.SizeBytes)),
			Kind:       constants.KindDisk,
			Model:      known(d.Model),
			Vendor:     known(d.Vendor),
			Transport:  known(strings.ToLower(d.StorageController.String())),
			Rotational: rotation(d.DriveType.String()),
		}
		for _, p := range d.Partitions {
			if p == nil {
				continue
			}
			child := types.BlockDeviceInfo{
				Name: p.Name,
				Size: types.Int64Ptr(int64(p.SizeBytes)),
				Kind: constants.KindPart,
			}
			if p.MountPoint != "" {
				mp := p.MountPoint
				child.MountPoint = &mp
			}
			info.Children = append(info.Children, child)
			res.Identities["/dev/"+p.Name] = types.FsIdentity{
				Type:      known(p.Type),
				Label:     known(p.FilesystemLabel),
				PartLabel: known(p.Label),
				PartUUID:  known(p.UUID),
			}
		}
		g.cfg.logger.Logger.Debug().Str("disk", d.Name).Int("partitions", len(info.Children)).Msg("Read disk from ghw")
		res.Devices = append(res.Devices, info)
	}
	return res, nil
}

// known drops the placeholders ghw uses for missing values.
func known(s string) string {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "unknown", "unknown!":
		return ""
	}
	return s
}

func rotation(driveType string) *bool {
	switch strings.ToLower(driveType) {
	case "hdd":
		return types.BoolPtr(true)
	case "ssd":
		return types.BoolPtr(false)
	}
	return nil
}
