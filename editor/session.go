package editor

import (
	"github.com/kairos-io/kairos-partitioner/blocks"
	"github.com/kairos-io/kairos-partitioner/types"
)

// Session owns the editor state of one wizard session. It is not safe for
// concurrent use, a session belongs to a single user.
type Session struct {
	state State
	env   Env
}

// Option configures a Session.
type Option func(*Session)

// WithIDGenerator sets the generator used for new block ids.
func WithIDGenerator(g blocks.IDGenerator) Option {
	return func(s *Session) { s.env.IDs = g }
}

// WithLogger sets the session logger.
func WithLogger(l *types.Logger) Option {
	return func(s *Session) { s.env.Logger = l }
}

// NewSession returns a session with nothing checked out.
func NewSession(opts ...Option) *Session {
	s := &Session{}
	for _, o := range opts {
		o(s)
	}
	return s
}

// State returns a copy of the current state.
func (s *Session) State() State { return s.state.Clone() }

// Blocks returns a copy of the current block sequence.
func (s *Session) Blocks() []types.PartitionBlock { return blocks.Clone(s.state.Blocks) }

// SetLoading marks the session as waiting for disk data.
func (s *Session) SetLoading() {
	s.state.Loading = true
	s.state.Error = ""
}

// Fail records a disk data error and drops the checked out disk.
func (s *Session) Fail(msg string) {
	s.state = State{Error: msg}
}

// apply keeps next only when the operation was applied.
func (s *Session) apply(next State, r Result) Result {
	if r.Outcome != Applied {
		s.env.log().Logger.Debug().Str("outcome", r.Outcome.String()).Str("reason", r.Reason).Msg("Editor operation skipped")
		return r
	}
	s.state = next
	return r
}

// Initialize checks disk out, dropping any previous state and history.
func (s *Session) Initialize(disk types.Disk) {
	s.state = Initialize(disk, s.env)
}

// Reset drops the checked out disk.
func (s *Session) Reset() {
	s.state = Reset()
}

// AddPartition fills the first unallocated block with a default partition.
func (s *Session) AddPartition() Result {
	return s.apply(AddPartition(s.state, s.env))
}

// AddPartitionWithForm carves a partition described by form out of free space.
func (s *Session) AddPartitionWithForm(form FormData) Result {
	return s.apply(AddPartitionWithForm(s.state, form, s.env))
}

// DeletePartition frees the block with id.
func (s *Session) DeletePartition(id string) Result {
	return s.apply(DeletePartition(s.state, id, s.env))
}

// EditPartition sets the filesystem and label of the block with id.
func (s *Session) EditPartition(id, fs, label string) Result {
	return s.apply(EditPartition(s.state, id, fs, label, s.env))
}

// TogglePartitionFS flips the block with id between ext4 and ntfs.
func (s *Session) TogglePartitionFS(id string) Result {
	return s.apply(TogglePartitionFS(s.state, id, s.env))
}

// ResizePartition sets the size of the block with id.
func (s *Session) ResizePartition(id string, size int64) Result {
	return s.apply(ResizePartition(s.state, id, size, s.env))
}

// MergeUnallocated joins neighbouring free blocks.
func (s *Session) MergeUnallocated() Result {
	return s.apply(MergeUnallocated(s.state, s.env))
}

// CreateISOStoragePartition turns the free space into the ISO storage partition.
func (s *Session) CreateISOStoragePartition() Result {
	return s.apply(CreateISOStoragePartition(s.state, s.env))
}

// Undo goes back one history entry.
func (s *Session) Undo() Result {
	return s.apply(Undo(s.state))
}

// Redo replays the last undone entry.
func (s *Session) Redo() Result {
	return s.apply(Redo(s.state))
}
