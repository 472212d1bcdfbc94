package commands

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pterm/pterm"

	"github.com/kairos-io/kairos-partitioner/plan"
	"github.com/kairos-io/kairos-partitioner/types"
)

func renderDisks(w io.Writer, disks []types.Disk, withPartitions bool) error {
	data := pterm.TableData{{"DISK", "PATH", "MODEL", "VENDOR", "TRANSPORT", "CLASS", "SIZE", "PARTITIONS"}}
	for _, d := range disks {
		data = append(data, []string{
			d.ID, d.Path, d.Model, d.Vendor, d.Transport, string(d.Class), d.Size, strconv.Itoa(len(d.Partitions)),
		})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithWriter(w).WithData(data).Render(); err != nil {
		return err
	}
	if !withPartitions {
		return nil
	}
	for _, d := range disks {
		if len(d.Partitions) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s\n", d.Path)
		parts := pterm.TableData{{"PARTITION", "FS", "LABEL", "UUID", "SIZE", "MOUNTPOINT"}}
		for _, p := range d.Partitions {
			parts = append(parts, []string{p.ID, p.FS, p.Label, p.UUID, p.Size, p.MountPoint})
		}
		if err := pterm.DefaultTable.WithHasHeader().WithWriter(w).WithData(parts).Render(); err != nil {
			return err
		}
	}
	return nil
}

func renderPlan(w io.Writer, p plan.Plan) error {
	fmt.Fprintf(w, "%s (%d changes)\n", p.Path, p.Changes())
	data := pterm.TableData{{"#", "ID", "ACTION", "FS", "LABEL", "SIZE"}}
	for _, e := range p.Entries {
		data = append(data, []string{strconv.Itoa(e.Position), e.ID, string(e.Action), e.FS, e.Label, e.Size})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithWriter(w).WithData(data).Render(); err != nil {
		return err
	}
	if len(p.Delete) > 0 {
		fmt.Fprintf(w, "delete: %s\n", strings.Join(p.Delete, ", "))
	}
	return nil
}
