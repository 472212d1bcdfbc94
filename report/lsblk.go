package report

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/shlex"

	"github.com/kairos-io/kairos-partitioner/constants"
	"github.com/kairos-io/kairos-partitioner/types"
)

// LsblkColumns are the columns the lsblk parsers understand.
const LsblkColumns = "NAME,PKNAME,SIZE,TYPE,MOUNTPOINT,MODEL,VENDOR,TRAN,ROTA"

// Raw JSON representation from lsblk --bytes --json. Older lsblk versions print
// numbers and booleans as strings so those are decoded loosely.
type lsblkTree struct {
	Blockdevices []lsblkDevice `json:"blockdevices"`
}

type lsblkDevice struct {
	Name       string        `json:"name"`
	Size       any           `json:"size"`
	Type       string        `json:"type"`
	Mountpoint *string       `json:"mountpoint"`
	Model      *string       `json:"model"`
	Vendor     *string       `json:"vendor"`
	Tran       *string       `json:"tran"`
	Rota       any           `json:"rota"`
	Children   []lsblkDevice `json:"children"`
}

// ParseLsblkJSON parses `lsblk --bytes --json -o NAME,SIZE,TYPE,...` output.
func ParseLsblkJSON(data []byte) ([]types.BlockDeviceInfo, error) {
	var tree lsblkTree
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("lsblk json: %w", err)
	}
	out := make([]types.BlockDeviceInfo, 0, len(tree.Blockdevices))
	for _, d := range tree.Blockdevices {
		out = append(out, d.toInfo())
	}
	return out, nil
}

func (d lsblkDevice) toInfo() types.BlockDeviceInfo {
	info := types.BlockDeviceInfo{
		Name:       d.Name,
		Size:       normalizeSize(d.Size),
		Kind:       d.Type,
		MountPoint: d.Mountpoint,
		Model:      trimmed(d.Model),
		Vendor:     trimmed(d.Vendor),
		Transport:  trimmed(d.Tran),
		Rotational: normalizeBool(d.Rota),
	}
	for _, c := range d.Children {
		info.Children = append(info.Children, c.toInfo())
	}
	return info
}

// ParseLsblkPairs parses `lsblk --bytes --pairs -o LsblkColumns` output. Partitions are
// attached to their parent through PKNAME.
func ParseLsblkPairs(output string) ([]types.BlockDeviceInfo, error) {
	var roots []types.BlockDeviceInfo
	index := map[string]int{}
	var orphans []map[string]string

	for _, line := range strings.Split(output, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		tokens, err := shlex.Split(line)
		if err != nil {
			return nil, fmt.Errorf("lsblk pairs %q: %w", line, err)
		}
		props := map[string]string{}
		for _, t := range tokens {
			k, v, ok := strings.Cut(t, "=")
			if ok {
				props[k] = v
			}
		}
		if props["NAME"] == "" {
			continue
		}
		if props["PKNAME"] == "" {
			index[props["NAME"]] = len(roots)
			roots = append(roots, pairsToInfo(props))
			continue
		}
		orphans = append(orphans, props)
	}

	for _, props := range orphans {
		i, ok := index[props["PKNAME"]]
		if !ok {
			continue
		}
		roots[i].Children = append(roots[i].Children, pairsToInfo(props))
	}
	return roots, nil
}

func pairsToInfo(props map[string]string) types.BlockDeviceInfo {
	info := types.BlockDeviceInfo{
		Name:      props["NAME"],
		Size:      normalizeSize(props["SIZE"]),
		Kind:      props["TYPE"],
		Model:     strings.TrimSpace(props["MODEL"]),
		Vendor:    strings.TrimSpace(props["VENDOR"]),
		Transport: strings.TrimSpace(props["TRAN"]),
	}
	if mp := props["MOUNTPOINT"]; mp != "" {
		info.MountPoint = &mp
	}
	if r, ok := props["ROTA"]; ok {
		info.Rotational = normalizeBool(r)
	}
	return info
}

// MergeLister copies lister-only fields (model, vendor, transport, rotation, mount points)
// from lister into devices that were built from partition table reports.
func MergeLister(devices []types.BlockDeviceInfo, lister []types.BlockDeviceInfo) []types.BlockDeviceInfo {
	byName := map[string]types.BlockDeviceInfo{}
	for _, d := range lister {
		byName[d.Name] = d
		for _, c := range d.Children {
			byName[c.Name] = c
		}
	}
	out := make([]types.BlockDeviceInfo, len(devices))
	for i, d := range devices {
		if l, ok := byName[d.Name]; ok {
			mergeDevice(&d, l)
		}
		children := make([]types.BlockDeviceInfo, len(d.Children))
		for j, c := range d.Children {
			if l, ok := byName[c.Name]; ok {
				mergeDevice(&c, l)
			}
			children[j] = c
		}
		d.Children = children
		out[i] = d
	}
	return out
}

func mergeDevice(d *types.BlockDeviceInfo, l types.BlockDeviceInfo) {
	if l.Model != "" && (d.Model == "" || d.Model == "Unknown") {
		d.Model = l.Model
	}
	if l.Vendor != "" {
		d.Vendor = l.Vendor
	}
	if l.Transport != "" {
		d.Transport = l.Transport
	}
	if l.Rotational != nil {
		d.Rotational = l.Rotational
	}
	if l.MountPoint != nil {
		d.MountPoint = l.MountPoint
	}
	if d.Size == nil {
		d.Size = l.Size
	}
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func normalizeSize(v any) *int64 {
	switch t := v.(type) {
	case float64:
		if t < 0 {
			return types.Int64Ptr(0)
		}
		return types.Int64Ptr(int64(t))
	case string:
		if t == "" {
			return nil
		}
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return nil
		}
		if n < 0 {
			n = 0
		}
		return types.Int64Ptr(n)
	default:
		return nil
	}
}

func normalizeBool(v any) *bool {
	switch t := v.(type) {
	case bool:
		return types.BoolPtr(t)
	case float64:
		return types.BoolPtr(t != 0)
	case string:
		switch strings.TrimSpace(t) {
		case "1", "true":
			return types.BoolPtr(true)
		case "0", "false":
			return types.BoolPtr(false)
		}
	}
	return nil
}

// isDisk is used by callers that only want top level disks.
func isDisk(d types.BlockDeviceInfo) bool {
	return d.Kind == constants.KindDisk
}
