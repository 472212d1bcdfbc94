// Package plan turns an editor state into the list of changes an executor has to apply.
package plan

import (
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/kairos-io/kairos-partitioner/blocks"
	"github.com/kairos-io/kairos-partitioner/editor"
	"github.com/kairos-io/kairos-partitioner/types"
)

// ErrInvalidPlan is returned when a state or document does not describe a usable plan.
var ErrInvalidPlan = errors.New("invalid plan")

// Action is what the executor has to do with a block.
type Action string

const (
	ActionKeep    Action = "keep"
	ActionCreate  Action = "create"
	ActionFormat  Action = "format"
	ActionResize  Action = "resize"
	ActionRelabel Action = "relabel"
	ActionFree    Action = "free"
)

// Entry is a block of the final layout, in disk order.
type Entry struct {
	Position   int    `json:"position" yaml:"position" minimum:"0" required:"true"`
	ID         string `json:"id" yaml:"id" required:"true"`
	OriginalID string `json:"original_id,omitempty" yaml:"original_id,omitempty"`
	Allocated  bool   `json:"allocated" yaml:"allocated" required:"true"`
	SizeBytes  int64  `json:"size_bytes" yaml:"size_bytes" minimum:"0" required:"true"`
	Size       string `json:"size" yaml:"size"`
	FS         string `json:"fs,omitempty" yaml:"fs,omitempty"`
	Label      string `json:"label,omitempty" yaml:"label,omitempty"`
	Action     Action `json:"action" yaml:"action" enum:"keep,create,format,resize,relabel,free" required:"true"`
}

// Plan is the complete contract handed to whatever applies the layout to a disk.
type Plan struct {
	Disk      string  `json:"disk" yaml:"disk" required:"true"`
	Path      string  `json:"path" yaml:"path" required:"true"`
	SizeBytes int64   `json:"size_bytes" yaml:"size_bytes" minimum:"0" required:"true"`
	Entries   []Entry `json:"entries" yaml:"entries" required:"true"`
	// Delete lists the original partitions that are gone from the layout.
	Delete []string `json:"delete,omitempty" yaml:"delete,omitempty"`
}

// Build computes the plan for the current state. The first history entry is the
// layout read from the disk and is used as the baseline.
func Build(s editor.State) (Plan, error) {
	if s.SelectedDisk == nil {
		return Plan{}, fmt.Errorf("%w: no disk selected", ErrInvalidPlan)
	}
	if err := blocks.Validate(s.Blocks, s.SelectedDisk.SizeBytes); err != nil {
		return Plan{}, fmt.Errorf("%w: %s", ErrInvalidPlan, err)
	}

	baseline := map[string]types.PartitionBlock{}
	if len(s.History) > 0 {
		for _, b := range s.History[0].Blocks {
			if b.IsAllocated && b.OriginalID != "" {
				baseline[b.OriginalID] = b
			}
		}
	}

	p := Plan{
		Disk:      s.SelectedDisk.ID,
		Path:      s.SelectedDisk.Path,
		SizeBytes: s.SelectedDisk.SizeBytes,
		Entries:   make([]Entry, 0, len(s.Blocks)),
	}
	kept := map[string]bool{}
	for i, b := range s.Blocks {
		e := Entry{
			Position:   i,
			ID:         b.ID,
			OriginalID: b.OriginalID,
			Allocated:  b.IsAllocated,
			SizeBytes:  b.SizeBytes,
			Size:       b.Size,
			FS:         b.FS,
			Label:      b.Label,
		}
		e.Action = actionFor(b, baseline)
		if b.OriginalID != "" {
			kept[b.OriginalID] = true
		}
		p.Entries = append(p.Entries, e)
	}

	// Only partitions that made it into the baseline can be deleted. A disk read
	// without a usable size has no blocks and nothing to delete.
	for _, part := range s.SelectedDisk.Partitions {
		if part == nil || kept[part.ID] {
			continue
		}
		if _, ok := baseline[part.ID]; ok {
			p.Delete = append(p.Delete, part.ID)
		}
	}
	return p, nil
}

func actionFor(b types.PartitionBlock, baseline map[string]types.PartitionBlock) Action {
	if !b.IsAllocated {
		return ActionFree
	}
	orig, ok := baseline[b.OriginalID]
	if b.OriginalID == "" || !ok {
		return ActionCreate
	}
	switch {
	case orig.FS != b.FS:
		return ActionFormat
	case orig.SizeBytes != b.SizeBytes:
		return ActionResize
	case orig.Label != b.Label:
		return ActionRelabel
	}
	return ActionKeep
}

// Changes tells how many entries need work plus how many partitions get deleted.
func (p Plan) Changes() int {
	n := len(p.Delete)
	for _, e := range p.Entries {
		if e.Action != ActionKeep && e.Action != ActionFree {
			n++
		}
	}
	return n
}

func (p Plan) YAML() ([]byte, error) {
	return yaml.Marshal(p)
}

func (p Plan) JSON() ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}

// Decode reads a plan from YAML or JSON after validating it against the schema.
func Decode(data []byte) (Plan, error) {
	if err := Validate(data); err != nil {
		return Plan{}, err
	}
	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Plan{}, fmt.Errorf("%w: %s", ErrInvalidPlan, err)
	}
	return p, nil
}
