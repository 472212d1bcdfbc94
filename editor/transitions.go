package editor

import (
	"fmt"
	"strings"

	"github.com/kairos-io/kairos-partitioner/blocks"
	"github.com/kairos-io/kairos-partitioner/constants"
	"github.com/kairos-io/kairos-partitioner/types"
	"github.com/kairos-io/kairos-partitioner/units"
)

// Initialize checks disk out into a fresh editor state.
func Initialize(disk types.Disk, env Env) State {
	s := State{}
	d := disk
	s.SelectedDisk = &d
	s = s.Clone()
	s.Blocks = blocks.Calculate(disk.Partitions, disk.SizeBytes, env.ids(), env.Logger)
	s.History = []Snapshot{{Blocks: blocks.Clone(s.Blocks)}}
	s.Cursor = 0
	env.log().Logger.Debug().Str("disk", disk.ID).Int("blocks", len(s.Blocks)).Msg("Editor initialized")
	return s
}

// Reset returns the empty state.
func Reset() State {
	return State{}
}

// firstUnallocated returns the index of the first free block, or -1.
func firstUnallocated(in []types.PartitionBlock) int {
	for i, b := range in {
		if !b.IsAllocated {
			return i
		}
	}
	return -1
}

func newAllocated(id, name string, size int64, fs, label string) types.PartitionBlock {
	return types.PartitionBlock{
		Partition: types.Partition{
			ID:        id,
			Path:      name,
			Kind:      constants.KindPart,
			FS:        fs,
			Label:     label,
			SizeBytes: size,
			Size:      units.FormatBytes(size),
		},
		IsAllocated: true,
	}
}

func replaceAt(in []types.PartitionBlock, i int, with ...types.PartitionBlock) []types.PartitionBlock {
	out := make([]types.PartitionBlock, 0, len(in)-1+len(with))
	out = append(out, in[:i]...)
	out = append(out, with...)
	return append(out, in[i+1:]...)
}

// AddPartition turns the first unallocated block into a partition using all of it.
func AddPartition(s State, env Env) (State, Result) {
	i := firstUnallocated(s.Blocks)
	if i == -1 {
		return s, noop("no unallocated space")
	}
	free := s.Blocks[i]
	p := newAllocated(env.ids().NewID(blocks.PrefixPartition), constants.NewPartitionName, free.SizeBytes, constants.DefaultFS, constants.DefaultLabel)
	env.log().Logger.Debug().Str("block", p.ID).Int64("size", p.SizeBytes).Msg("Adding partition")
	return s.commit(replaceAt(s.Blocks, i, p)), applied()
}

// AddPartitionWithForm carves a partition of form.SizeBytes out of an unallocated block.
// What is left of the block stays unallocated right after the new partition.
func AddPartitionWithForm(s State, form FormData, env Env) (State, Result) {
	i := firstUnallocated(s.Blocks)
	if form.TargetID != "" {
		i = s.Find(form.TargetID)
		if i == -1 {
			return s, noop(fmt.Sprintf("block %s not found", form.TargetID))
		}
		if s.Blocks[i].IsAllocated {
			return s, invalid(fmt.Sprintf("block %s is not unallocated", form.TargetID))
		}
	}
	if i == -1 {
		return s, noop("no unallocated space")
	}
	free := s.Blocks[i]
	form = form.withDefaults()
	if form.SizeBytes <= 0 {
		return s, invalid("partition size must be positive")
	}
	if form.SizeBytes > free.SizeBytes {
		return s, invalid(fmt.Sprintf("partition size %d is bigger than the free space %d", form.SizeBytes, free.SizeBytes))
	}
	if err := ValidateFS(form.FS, form.Label); err != nil {
		return s, invalid(err.Error())
	}

	ids := env.ids()
	with := []types.PartitionBlock{
		newAllocated(ids.NewID(blocks.PrefixPartition), constants.NewPartitionName, form.SizeBytes, form.FS, form.Label),
	}
	if rest := free.SizeBytes - form.SizeBytes; rest > 0 {
		with = append(with, blocks.NewUnallocated(ids.NewID(blocks.PrefixUnallocated), rest))
	}
	env.log().Logger.Debug().Str("block", with[0].ID).Int64("size", form.SizeBytes).Str("fs", form.FS).Str("purpose", string(form.Purpose)).Msg("Adding partition from form")
	return s.commit(blocks.MergeAdjacentUnallocated(replaceAt(s.Blocks, i, with...), ids)), applied()
}

// DeletePartition frees an allocated block and merges it with free neighbours.
func DeletePartition(s State, id string, env Env) (State, Result) {
	i := s.Find(id)
	if i == -1 {
		return s, noop(fmt.Sprintf("block %s not found", id))
	}
	if !s.Blocks[i].IsAllocated {
		return s, noop(fmt.Sprintf("block %s is already unallocated", id))
	}
	ids := env.ids()
	freed := blocks.NewUnallocated(ids.NewID(blocks.PrefixUnallocated), s.Blocks[i].SizeBytes)
	next := blocks.MergeAdjacentUnallocated(replaceAt(s.Blocks, i, freed), ids)
	env.log().Logger.Debug().Str("block", id).Msg("Deleted partition")
	return s.commit(next), applied()
}

// EditPartition changes the filesystem and label of an allocated block.
func EditPartition(s State, id, fs, label string, env Env) (State, Result) {
	i := s.Find(id)
	if i == -1 {
		return s, noop(fmt.Sprintf("block %s not found", id))
	}
	if !s.Blocks[i].IsAllocated {
		return s, noop(fmt.Sprintf("block %s is unallocated", id))
	}
	fs = NormalizeFS(fs)
	if err := ValidateFS(fs, label); err != nil {
		return s, invalid(err.Error())
	}
	b := s.Blocks[i]
	if b.FS == fs && b.Label == label {
		return s, noop("nothing changed")
	}
	b.FS = fs
	b.Label = label
	env.log().Logger.Debug().Str("block", id).Str("fs", fs).Str("label", label).Msg("Edited partition")
	return s.commit(replaceAt(s.Blocks, i, b)), applied()
}

// TogglePartitionFS flips an allocated block between ext4 and ntfs.
func TogglePartitionFS(s State, id string, env Env) (State, Result) {
	i := s.Find(id)
	if i == -1 || !s.Blocks[i].IsAllocated {
		return s, noop(fmt.Sprintf("block %s is not an allocated block", id))
	}
	fs := constants.FsExt4
	if s.Blocks[i].FS == constants.FsExt4 {
		fs = constants.FsNTFS
	}
	return EditPartition(s, id, fs, fmt.Sprintf("%s Partition", strings.ToUpper(fs)), env)
}

// ResizePartition changes the size of an allocated block. Shrinking leaves free space
// right after it, growing only takes space from the free block right after it.
func ResizePartition(s State, id string, newSize int64, env Env) (State, Result) {
	i := s.Find(id)
	if i == -1 {
		return s, noop(fmt.Sprintf("block %s not found", id))
	}
	b := s.Blocks[i]
	if !b.IsAllocated {
		return s, noop(fmt.Sprintf("block %s is unallocated", id))
	}
	if newSize <= 0 {
		return s, invalid("partition size must be positive")
	}
	if newSize == b.SizeBytes {
		return s, noop("size unchanged")
	}

	ids := env.ids()
	resized := b
	resized.SizeBytes = newSize
	resized.Size = units.FormatBytes(newSize)

	if newSize < b.SizeBytes {
		freed := blocks.NewUnallocated(ids.NewID(blocks.PrefixUnallocated), b.SizeBytes-newSize)
		next := blocks.MergeAdjacentUnallocated(replaceAt(s.Blocks, i, resized, freed), ids)
		return s.commit(next), applied()
	}

	grow := newSize - b.SizeBytes
	if i+1 >= len(s.Blocks) || s.Blocks[i+1].IsAllocated || s.Blocks[i+1].SizeBytes < grow {
		return s, invalid(fmt.Sprintf("not enough free space after %s to grow by %d bytes", id, grow))
	}
	next := replaceAt(s.Blocks, i, resized)
	if left := next[i+1].SizeBytes - grow; left > 0 {
		next[i+1] = blocks.NewUnallocated(next[i+1].ID, left)
	} else {
		next = append(next[:i+1], next[i+2:]...)
	}
	return s.commit(next), applied()
}

// MergeUnallocated joins neighbouring unallocated blocks.
func MergeUnallocated(s State, env Env) (State, Result) {
	next := blocks.MergeAdjacentUnallocated(s.Blocks, env.ids())
	if len(next) >= len(s.Blocks) {
		return s, noop("no adjacent unallocated blocks")
	}
	return s.commit(next), applied()
}

// CreateISOStoragePartition turns all the free space into a single exFAT partition
// appended after the existing ones. It only runs once per checked out disk.
func CreateISOStoragePartition(s State, env Env) (State, Result) {
	if s.ISOStorageCreated {
		return s, noop("iso storage already created")
	}
	ids := env.ids()
	merged := blocks.MergeAdjacentUnallocated(s.Blocks, ids)
	total := blocks.UnallocatedBytes(merged)
	if firstUnallocated(merged) == -1 {
		return s, noop("no unallocated space")
	}

	next := make([]types.PartitionBlock, 0, len(merged))
	for _, b := range merged {
		if b.IsAllocated {
			next = append(next, b)
		}
	}
	next = append(next, newAllocated(ids.NewID(blocks.PrefixISOStorage), constants.ISOStorageName, total, constants.ISOStorageFS, constants.ISOStorageLabel))

	out := s.Clone()
	out.ISOStorageCreated = true
	env.log().Logger.Info().Int64("size", total).Msg("Created iso storage partition")
	return out.commit(next), applied()
}

// Undo restores the previous snapshot.
func Undo(s State) (State, Result) {
	if !s.CanUndo() {
		return s, noop("nothing to undo")
	}
	return s.restore(s.Cursor - 1), applied()
}

// Redo restores the snapshot that was undone last.
func Redo(s State) (State, Result) {
	if !s.CanRedo() {
		return s, noop("nothing to redo")
	}
	return s.restore(s.Cursor + 1), applied()
}

func (s State) restore(cursor int) State {
	out := s.Clone()
	out.Cursor = cursor
	out.Blocks = blocks.Clone(out.History[cursor].Blocks)
	out.ISOStorageCreated = out.History[cursor].ISOStorageCreated
	return out
}
