// Package report parses the text reports printed by parted, blkid and lsblk into
// BlockDeviceInfo and FsIdentity values.
package report

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/kairos-io/kairos-partitioner/constants"
	"github.com/kairos-io/kairos-partitioner/units"
)

var (
	// ErrUnrecognisedLabel is returned when parted reports a disk with no partition table.
	ErrUnrecognisedLabel = errors.New(constants.UnrecognisedLabel)
	// ErrNoPartitionTable is returned when the report does not look like a parted print.
	ErrNoPartitionTable = errors.New("no partition table report found")
)

var (
	modelLine = regexp.MustCompile(`^Model:\s*(.+?)\s*(?:\(([^)]*)\))?\s*$`)
	diskLine  = regexp.MustCompile(`^Disk\s+/dev/\S*?:\s*(\d+(?:[.,]\d+)?)\s*([A-Za-z]+)`)
	tableLine = regexp.MustCompile(`^Partition Table:\s*(\S+)`)
	rowLine   = regexp.MustCompile(`^\s*\d+\s`)
)

// Filesystem names parted prints in the "File system" column.
var partedFilesystems = map[string]bool{
	"ext2": true, "ext3": true, "ext4": true, "fat12": true, "fat16": true, "fat32": true,
	"ntfs": true, "hfs": true, "hfs+": true, "hfsx": true, "btrfs": true, "xfs": true,
	"jfs": true, "reiserfs": true, "udf": true, "zfs": true, "exfat": true, "f2fs": true,
	"nilfs2": true, "apfs": true, "swsusp": true, "amufs": true, "affs0": true, "asfs": true,
	"bcachefs": true,
}


// PartedPartition is a row of the parted partition listing.
type PartedPartition struct {
	Number    int
	Name      string
	Start     string
	End       string
	Size      string
	SizeBytes int64
	FS        string
	PartLabel string
	Type      string
	Flags     []string
}

// PartedDisk is the parsed output of `parted -s DEV unit MiB print`.
type PartedDisk struct {
	Name       string
	Model      string
	Transport  string
	SizeBytes  int64
	Table      string
	Partitions []PartedPartition
}

// IsUnrecognisedLabel tells if a parted output or error message reports a disk without a label.
func IsUnrecognisedLabel(text string) bool {
	t := strings.ToLower(text)
	return strings.Contains(t, constants.UnrecognisedLabel) || strings.Contains(t, "unrecognized disk label")
}

// PartitionDeviceName returns the kernel name of partition number on disk.
// Disks whose name ends in a digit (nvme0n1, mmcblk0, loop0) get a "p" separator.
func PartitionDeviceName(disk string, number int) string {
	if disk != "" && disk[len(disk)-1] >= '0' && disk[len(disk)-1] <= '9' {
		return fmt.Sprintf("%sp%d", disk, number)
	}
	return fmt.Sprintf("%s%d", disk, number)
}

// ParseParted parses the output of parted print for deviceName.
func ParseParted(output, deviceName string) (*PartedDisk, error) {
	if IsUnrecognisedLabel(output) {
		return nil, ErrUnrecognisedLabel
	}

	result := &PartedDisk{
		Name:  deviceName,
		Model: "Unknown",
		Table: "unknown",
	}
	seenDisk := false

	lines := strings.Split(output, "\n")
	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, "Model:"):
			if m := modelLine.FindStringSubmatch(line); m != nil {
				result.Model = m[1]
				result.Transport = strings.ToLower(m[2])
			}
		case strings.HasPrefix(line, "Disk /dev/"):
			if m := diskLine.FindStringSubmatch(line); m != nil {
				v, err := strconv.ParseFloat(strings.Replace(m[1], ",", ".", 1), 64)
				if err != nil {
					return nil, fmt.Errorf("parsing disk size %q: %w", m[1], err)
				}
				result.SizeBytes = units.ParseUnitToBytes(v, m[2])
				seenDisk = true
			}
		case strings.HasPrefix(line, "Partition Table:"):
			if m := tableLine.FindStringSubmatch(line); m != nil {
				result.Table = m[1]
			}
		case isHeader(line):
			hasType := strings.Contains(line, " Type ")
			i++
			for ; i < len(lines) && strings.TrimSpace(lines[i]) != ""; i++ {
				if !rowLine.MatchString(lines[i]) {
					continue
				}
				p, err := parseRow(lines[i], deviceName, hasType)
				if err != nil {
					return nil, err
				}
				result.Partitions = append(result.Partitions, p)
			}
		}
	}

	if !seenDisk {
		return nil, ErrNoPartitionTable
	}
	return result, nil
}

func isHeader(line string) bool {
	return strings.Contains(line, "Number") && strings.Contains(line, "Start") &&
		strings.Contains(line, "End") && strings.Contains(line, "Size")
}

// parseRow parses a single partition line. Rows look like
//
//	1      1,00MiB  101MiB  100MiB  fat32  EFI system partition  boot, esp
//
// where the filesystem and name can be missing. msdos tables print a Type column
// after Size and have no Name column.
func parseRow(line, deviceName string, hasType bool) (PartedPartition, error) {
	fields := strings.Fields(line)
	if len(fields) < 4 {
		return PartedPartition{}, fmt.Errorf("short partition row %q", line)
	}
	number, err := strconv.Atoi(fields[0])
	if err != nil {
		return PartedPartition{}, fmt.Errorf("partition number in %q: %w", line, err)
	}
	p := PartedPartition{
		Number: number,
		Name:   PartitionDeviceName(deviceName, number),
		Start:  strings.Replace(fields[1], ",", ".", 1),
		End:    strings.Replace(fields[2], ",", ".", 1),
		Size:   strings.Replace(fields[3], ",", ".", 1),
	}
	p.SizeBytes = rowSize(p.Start, p.End, p.Size)

	pos := 4
	if hasType && pos < len(fields) {
		p.Type = fields[pos]
		pos++
	}
	if pos < len(fields) && isFilesystem(fields[pos]) {
		p.FS = fields[pos]
		pos++
	}

	nameStart := pos
	for pos < len(fields) && !isFlag(fields[pos]) {
		pos++
	}
	if pos > nameStart {
		p.PartLabel = strings.Join(fields[nameStart:pos], " ")
	}
	for ; pos < len(fields); pos++ {
		if f := strings.TrimSuffix(fields[pos], ","); f != "" {
			p.Flags = append(p.Flags, f)
		}
	}
	return p, nil
}

// rowSize returns the partition size in bytes. A zero size is recomputed from
// start and end when both share a unit.
func rowSize(start, end, size string) int64 {
	v, unit, ok := units.ParseSizeToken(size)
	if !ok {
		v, unit = 0, units.DefaultUnit
	}
	if v == 0 {
		sv, su, sok := units.ParseSizeToken(start)
		ev, eu, eok := units.ParseSizeToken(end)
		if sok && eok && su == eu && ev > sv {
			v, unit = ev-sv, su
		}
	}
	if unit == "" {
		unit = units.DefaultUnit
	}
	return units.ParseUnitToBytes(v, unit)
}

func isFlag(token string) bool {
	t := strings.TrimSuffix(token, ",")
	for _, f := range constants.PartedFlags {
		if t == f {
			return true
		}
	}
	return false
}

// isFilesystem accepts only the names parted prints for known filesystems. Anything
// else in that column is the start of the partition name.
func isFilesystem(token string) bool {
	t := strings.ToLower(token)
	return partedFilesystems[t] || strings.HasPrefix(t, "linux-swap")
}
