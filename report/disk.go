package report

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kairos-io/kairos-partitioner/constants"
	"github.com/kairos-io/kairos-partitioner/types"
)

// DiskReport is what the partition table collaborator returned for one disk.
type DiskReport struct {
	Name   string
	Stdout string
	Stderr string
	// Err is the error running the table tool, if any.
	Err error
	// FallbackSize is the size from the lister, used when the disk has no label.
	FallbackSize *int64
}

// ParseDisk turns a single disk report into a BlockDeviceInfo. It never fails the
// caller: a disk without label becomes an empty disk sized from FallbackSize and any
// other failure becomes an empty disk of size 0. The returned error describes the
// degradation so callers can collect it; it is nil for the no label case.
func ParseDisk(r DiskReport, logger *types.Logger) (types.BlockDeviceInfo, error) {
	logger = types.OrNull(logger)
	log := logger.Logger.With().Str("disk", r.Name).Logger()

	empty := types.BlockDeviceInfo{
		Name:     r.Name,
		Kind:     constants.KindDisk,
		Size:     types.Int64Ptr(0),
		Children: []types.BlockDeviceInfo{},
	}

	if IsUnrecognisedLabel(r.Stderr) || IsUnrecognisedLabel(r.Stdout) {
		log.Info().Msg("Disk has no partition table, treating it as new")
		if r.FallbackSize != nil && *r.FallbackSize > 0 {
			empty.Size = types.Int64Ptr(*r.FallbackSize)
		}
		return empty, nil
	}
	if r.Err != nil {
		log.Warn().Err(r.Err).Str("stderr", r.Stderr).Msg("Partition table tool failed, using an empty disk")
		return empty, fmt.Errorf("reading partition table of %s: %w", r.Name, r.Err)
	}

	parsed, err := ParseParted(r.Stdout, r.Name)
	if errors.Is(err, ErrUnrecognisedLabel) {
		return ParseDisk(DiskReport{Name: r.Name, Stderr: constants.UnrecognisedLabel, FallbackSize: r.FallbackSize}, logger)
	}
	if err != nil {
		log.Warn().Err(err).Msg("Could not parse partition table, using an empty disk")
		return empty, fmt.Errorf("parsing partition table of %s: %w", r.Name, err)
	}

	info := types.BlockDeviceInfo{
		Name:      parsed.Name,
		Kind:      constants.KindDisk,
		Size:      types.Int64Ptr(parsed.SizeBytes),
		Model:     parsed.Model,
		Transport: parsed.Transport,
		Children:  make([]types.BlockDeviceInfo, 0, len(parsed.Partitions)),
	}
	for _, p := range parsed.Partitions {
		info.Children = append(info.Children, types.BlockDeviceInfo{
			Name:       p.Name,
			Kind:       constants.KindPart,
			Size:       types.Int64Ptr(p.SizeBytes),
			TableFS:    p.FS,
			TableLabel: p.PartLabel,
			Flags:      strings.Join(p.Flags, ", "),
		})
	}
	log.Debug().Int("partitions", len(info.Children)).Int64("size", parsed.SizeBytes).Str("table", parsed.Table).Msg("Parsed partition table")
	return info, nil
}

// ParseDisks parses every report. It returns one device per report plus the
// degradation errors of the disks that could not be read.
func ParseDisks(reports []DiskReport, logger *types.Logger) ([]types.BlockDeviceInfo, []error) {
	out := make([]types.BlockDeviceInfo, 0, len(reports))
	var errs []error
	for _, r := range reports {
		d, err := ParseDisk(r, logger)
		if err != nil {
			errs = append(errs, err)
		}
		if isDisk(d) {
			out = append(out, d)
		}
	}
	return out, errs
}

