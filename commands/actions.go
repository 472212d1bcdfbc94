package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	dockerunits "github.com/docker/go-units"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/kairos-io/kairos-partitioner/editor"
	"github.com/kairos-io/kairos-partitioner/plan"
	"github.com/kairos-io/kairos-partitioner/types"
)

func (cfg *config) disksAction(c *cli.Context) error {
	disks, err := cfg.disks(c)
	if err != nil {
		return err
	}
	switch c.String(outputFlag.Name) {
	case outputTable:
		return renderDisks(c.App.Writer, disks, c.Bool(partitionsFlag.Name))
	default:
		return encode(c, disks)
	}
}

func (cfg *config) planAction(c *cli.Context) error {
	disks, err := cfg.disks(c)
	if err != nil {
		return err
	}
	name := c.String(diskFlag.Name)
	disk, ok := findDisk(disks, name)
	if !ok {
		return fmt.Errorf("disk %s not found", name)
	}

	session := editor.NewSession(editor.WithLogger(cfg.logger))
	session.Initialize(disk)
	if err := applyEdits(c, session); err != nil {
		return err
	}

	p, err := plan.Build(session.State())
	if err != nil {
		return err
	}
	if c.String(outputFlag.Name) == outputTable {
		return renderPlan(c.App.Writer, p)
	}
	return encode(c, p)
}

// applyEdits runs the requested edits in a fixed order: deletes, resizes, merge, adds, ISO storage.
func applyEdits(c *cli.Context, s *editor.Session) error {
	for _, id := range c.StringSlice(deleteFlag.Name) {
		if r := s.DeletePartition(id); !r.Applied() {
			return fmt.Errorf("delete %s: %s", id, r.Reason)
		}
	}
	for _, arg := range c.StringSlice(resizeFlag.Name) {
		id, size, ok := strings.Cut(arg, "=")
		if !ok {
			return fmt.Errorf("resize %q: expected ID=SIZE", arg)
		}
		bytes, err := dockerunits.RAMInBytes(size)
		if err != nil {
			return fmt.Errorf("resize %q: %w", arg, err)
		}
		if r := s.ResizePartition(id, bytes); !r.Applied() {
			return fmt.Errorf("resize %s: %s", id, r.Reason)
		}
	}
	if c.Bool(mergeFlag.Name) {
		s.MergeUnallocated()
	}
	for _, arg := range c.StringSlice(addFlag.Name) {
		form, err := parseAdd(arg, firstFreeBytes(s.Blocks()))
		if err != nil {
			return err
		}
		if r := s.AddPartitionWithForm(form); !r.Applied() {
			return fmt.Errorf("add %s: %s", arg, r.Reason)
		}
	}
	if c.Bool(isoFlag.Name) {
		if r := s.CreateISOStoragePartition(); !r.Applied() {
			return fmt.Errorf("iso storage: %s", r.Reason)
		}
	}
	return nil
}

// parseAdd reads SIZE[:FS[:LABEL]]. SIZE is a human size, a percentage of the
// first free block or "rest" for all of it.
func parseAdd(arg string, free int64) (editor.FormData, error) {
	parts := strings.SplitN(arg, ":", 3)
	form := editor.FormData{}
	size := strings.TrimSpace(parts[0])
	switch {
	case size == "" || strings.EqualFold(size, "rest"):
		form.SizeBytes = free
	case strings.HasSuffix(size, "%"):
		pct, err := strconv.ParseFloat(strings.TrimSuffix(size, "%"), 64)
		if err != nil {
			return form, fmt.Errorf("add %q: bad percentage: %w", arg, err)
		}
		form.SizeBytes = editor.SizeFromPercent(pct, free)
	default:
		b, err := dockerunits.RAMInBytes(size)
		if err != nil {
			return form, fmt.Errorf("add %q: %w", arg, err)
		}
		form.SizeBytes = b
	}
	if len(parts) > 1 {
		form.FS = parts[1]
	}
	if len(parts) > 2 {
		form.Label = parts[2]
	}
	return form, nil
}

func firstFreeBytes(blocks []types.PartitionBlock) int64 {
	for _, b := range blocks {
		if !b.IsAllocated {
			return b.SizeBytes
		}
	}
	return 0
}

func findDisk(disks []types.Disk, name string) (types.Disk, bool) {
	for _, d := range disks {
		if d.ID == name || d.Path == name {
			return d, true
		}
	}
	return types.Disk{}, false
}

func schemaAction(c *cli.Context) error {
	s, err := plan.Schema()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, string(s))
	return err
}

func validateAction(c *cli.Context) error {
	data, err := os.ReadFile(c.String(fileFlag.Name))
	if err != nil {
		return err
	}
	if err := plan.Validate(data); err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, "plan is valid")
	return err
}

func queryAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("query needs exactly one expression")
	}
	data, err := os.ReadFile(c.String(fileFlag.Name))
	if err != nil {
		return err
	}
	p, err := plan.Decode(data)
	if err != nil {
		return err
	}
	res, err := p.Query(c.Args().First())
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, res)
	return err
}

func encode(c *cli.Context, v interface{}) error {
	var out []byte
	var err error
	switch c.String(outputFlag.Name) {
	case outputYAML:
		out, err = yaml.Marshal(v)
	case outputJSON:
		out, err = json.MarshalIndent(v, "", "  ")
	default:
		return fmt.Errorf("unknown output %q", c.String(outputFlag.Name))
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, strings.TrimRight(string(out), "\n"))
	return err
}
