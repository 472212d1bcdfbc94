// Package editor plans partition changes against a single disk in memory.
//
// Every operation is a pure transition: it takes a State and returns a new State plus
// a Result telling whether anything changed. The input State is never modified, so a
// no-op returns a State deep equal to the one it was given.
package editor

import (
	"github.com/kairos-io/kairos-partitioner/blocks"
	"github.com/kairos-io/kairos-partitioner/types"
)

// Outcome of an editor operation.
type Outcome int

const (
	// Applied means the block sequence changed and a history entry was pushed.
	Applied Outcome = iota
	// NoOp means there was nothing to do, the state is unchanged.
	NoOp
	// Invalid means the request could not be honoured, the state is unchanged.
	Invalid
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case NoOp:
		return "noop"
	case Invalid:
		return "invalid"
	}
	return "unknown"
}

// Result is returned by every operation.
type Result struct {
	Outcome Outcome
	Reason  string
}

func (r Result) Applied() bool { return r.Outcome == Applied }

func applied() Result              { return Result{Outcome: Applied} }
func noop(reason string) Result    { return Result{Outcome: NoOp, Reason: reason} }
func invalid(reason string) Result { return Result{Outcome: Invalid, Reason: reason} }

// Snapshot is a history entry.
type Snapshot struct {
	Blocks            []types.PartitionBlock `json:"blocks" yaml:"blocks"`
	ISOStorageCreated bool                   `json:"iso_storage_created" yaml:"iso_storage_created"`
}

// State is the editor state for the selected disk.
type State struct {
	SelectedDisk *types.Disk           `json:"selected_disk,omitempty" yaml:"selected_disk,omitempty"`
	Blocks       []types.PartitionBlock `json:"blocks" yaml:"blocks"`
	Loading      bool                   `json:"loading" yaml:"loading"`
	Error        string                 `json:"error,omitempty" yaml:"error,omitempty"`
	// History holds every snapshot, Cursor points at the one matching Blocks.
	History           []Snapshot `json:"history" yaml:"history"`
	Cursor            int        `json:"cursor" yaml:"cursor"`
	ISOStorageCreated bool       `json:"iso_storage_created" yaml:"iso_storage_created"`
}

// Env carries the collaborators transitions need.
type Env struct {
	IDs    blocks.IDGenerator
	Logger *types.Logger
}

func (e Env) ids() blocks.IDGenerator {
	if e.IDs == nil {
		return blocks.UUIDGenerator{}
	}
	return e.IDs
}

func (e Env) log() *types.Logger {
	return types.OrNull(e.Logger)
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	out := s
	if s.SelectedDisk != nil {
		d := *s.SelectedDisk
		d.Partitions = make(types.PartitionList, len(s.SelectedDisk.Partitions))
		for i, p := range s.SelectedDisk.Partitions {
			if p != nil {
				cp := *p
				d.Partitions[i] = &cp
			}
		}
		out.SelectedDisk = &d
	}
	out.Blocks = blocks.Clone(s.Blocks)
	if s.History != nil {
		out.History = make([]Snapshot, len(s.History))
		for i, h := range s.History {
			out.History[i] = Snapshot{Blocks: blocks.Clone(h.Blocks), ISOStorageCreated: h.ISOStorageCreated}
		}
	}
	return out
}

// HasDisk tells if a disk is checked out into the editor.
func (s State) HasDisk() bool { return s.SelectedDisk != nil }

// CanUndo tells if there is a previous snapshot.
func (s State) CanUndo() bool { return s.Cursor > 0 && s.Cursor < len(s.History) }

// CanRedo tells if an undone snapshot can be restored.
func (s State) CanRedo() bool { return s.Cursor+1 < len(s.History) }

// Find returns the index of the block with id, or -1.
func (s State) Find(id string) int {
	for i, b := range s.Blocks {
		if b.ID == id {
			return i
		}
	}
	return -1
}

// commit stores blocks as the new current sequence and pushes a history entry,
// dropping anything that was undone before.
func (s State) commit(next []types.PartitionBlock) State {
	out := s.Clone()
	out.Blocks = next
	if len(out.History) > 0 && out.Cursor < len(out.History) {
		out.History = out.History[:out.Cursor+1]
	}
	out.History = append(out.History, Snapshot{Blocks: blocks.Clone(next), ISOStorageCreated: out.ISOStorageCreated})
	out.Cursor = len(out.History) - 1
	return out
}
