// Package blocks computes the ordered sequence of allocated and unallocated regions of a disk.
package blocks

import (
	"fmt"
	"math/big"
	"regexp"
	"sort"
	"strconv"

	"github.com/kairos-io/kairos-partitioner/constants"
	"github.com/kairos-io/kairos-partitioner/types"
	"github.com/kairos-io/kairos-partitioner/units"
)

var trailingNumber = regexp.MustCompile(`(\d+)$`)

// PartitionNumber returns the trailing number of a partition id (sda2 -> 2, nvme0n1p3 -> 3).
// Ids without one sort as 0.
func PartitionNumber(id string) int {
	m := trailingNumber.FindString(id)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}

// Calculate returns the block sequence for a disk. Partitions are ordered by their
// number. When they add up to more than the disk, every partition is scaled down by
// the same factor. Trailing free space bigger than constants.SlackBytes becomes an
// unallocated block. A disk without a positive size has no blocks.
func Calculate(partitions types.PartitionList, diskSizeBytes int64, gen IDGenerator, logger *types.Logger) []types.PartitionBlock {
	logger = types.OrNull(logger)
	gen = orDefault(gen)
	if diskSizeBytes <= 0 {
		logger.Logger.Debug().Int64("disk", diskSizeBytes).Int("partitions", len(partitions)).Msg("Disk has no usable size, no blocks")
		return []types.PartitionBlock{}
	}

	sorted := make(types.PartitionList, 0, len(partitions))
	for _, p := range partitions {
		if p != nil {
			sorted = append(sorted, p)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return PartitionNumber(sorted[i].ID) < PartitionNumber(sorted[j].ID)
	})

	var total int64
	for _, p := range sorted {
		total += nonNegative(p.SizeBytes)
	}
	scale := total > diskSizeBytes
	if scale {
		logger.Logger.Warn().
			Int64("partitions", total).
			Int64("disk", diskSizeBytes).
			Str("factor", fmt.Sprintf("%.4f", float64(diskSizeBytes)/float64(total))).
			Msg("Partitions exceed disk size, scaling them down")
	}

	out := make([]types.PartitionBlock, 0, len(sorted)+1)
	var used int64
	for _, p := range sorted {
		size := nonNegative(p.SizeBytes)
		if scale {
			size = scaled(size, diskSizeBytes, total)
		}
		b := types.PartitionBlock{Partition: *p, IsAllocated: true, OriginalID: p.ID}
		b.SizeBytes = size
		b.Size = units.FormatBytes(size)
		out = append(out, b)
		used += size
	}

	if remaining := diskSizeBytes - used; remaining > constants.SlackBytes {
		out = append(out, NewUnallocated(gen.NewID(PrefixUnallocated), remaining))
	}
	return out
}

// scaled returns floor(size * disk / total) without overflowing.
func scaled(size, disk, total int64) int64 {
	if total == 0 {
		return 0
	}
	n := new(big.Int).Mul(big.NewInt(size), big.NewInt(disk))
	return n.Quo(n, big.NewInt(total)).Int64()
}

func nonNegative(n int64) int64 {
	if n < 0 {
		return 0
	}
	return n
}

// NewUnallocated builds a free block of size bytes.
func NewUnallocated(id string, size int64) types.PartitionBlock {
	return types.PartitionBlock{
		Partition: types.Partition{
			ID:        id,
			Path:      constants.UnallocatedName,
			Kind:      constants.KindFree,
			SizeBytes: size,
			Size:      units.FormatBytes(size),
		},
	}
}

// MergeAdjacentUnallocated joins runs of neighbouring unallocated blocks into one block
// with a new id. Allocated blocks are never merged. The input is not modified.
func MergeAdjacentUnallocated(in []types.PartitionBlock, gen IDGenerator) []types.PartitionBlock {
	gen = orDefault(gen)
	out := make([]types.PartitionBlock, 0, len(in))
	for _, b := range in {
		last := len(out) - 1
		if last >= 0 && !b.IsAllocated && !out[last].IsAllocated {
			out[last] = NewUnallocated(gen.NewID(PrefixUnallocated), out[last].SizeBytes+b.SizeBytes)
			continue
		}
		out = append(out, b)
	}
	return out
}

// TotalBytes adds up the size of every block.
func TotalBytes(in []types.PartitionBlock) int64 {
	var total int64
	for _, b := range in {
		total += b.SizeBytes
	}
	return total
}

// UnallocatedBytes adds up the size of the free blocks.
func UnallocatedBytes(in []types.PartitionBlock) int64 {
	var total int64
	for _, b := range in {
		if !b.IsAllocated {
			total += b.SizeBytes
		}
	}
	return total
}

// Validate checks that a block sequence is consistent for a disk of diskSizeBytes.
func Validate(in []types.PartitionBlock, diskSizeBytes int64) error {
	seen := map[string]bool{}
	for i, b := range in {
		if b.SizeBytes < 0 {
			return fmt.Errorf("block %s has a negative size", b.ID)
		}
		if seen[b.ID] {
			return fmt.Errorf("duplicated block id %s", b.ID)
		}
		seen[b.ID] = true
		if i > 0 && !b.IsAllocated && !in[i-1].IsAllocated {
			return fmt.Errorf("blocks %s and %s are both unallocated", in[i-1].ID, b.ID)
		}
		if !b.IsAllocated && b.FS != "" {
			return fmt.Errorf("unallocated block %s has a filesystem", b.ID)
		}
	}
	if total := TotalBytes(in); total > diskSizeBytes+constants.SlackBytes {
		return fmt.Errorf("blocks add up to %d bytes, more than the disk size %d", total, diskSizeBytes)
	}
	return nil
}

// Clone returns a copy of the sequence that shares nothing with in.
func Clone(in []types.PartitionBlock) []types.PartitionBlock {
	if in == nil {
		return nil
	}
	out := make([]types.PartitionBlock, len(in))
	copy(out, in)
	return out
}
