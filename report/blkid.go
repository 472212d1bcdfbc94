package report

import (
	"strings"

	"github.com/kairos-io/kairos-partitioner/types"
)

const devNameKey = "DEVNAME"

var blkidUnescape = strings.NewReplacer(`\ `, " ", `\\`, `\`)

// ParseBlkidExport parses `blkid -o export` output into identities keyed by DEVNAME.
// Records end at a blank line or when a new DEVNAME shows up. Records without DEVNAME
// are dropped.
func ParseBlkidExport(output string, logger *types.Logger) types.FsIdentities {
	logger = types.OrNull(logger)
	result := types.FsIdentities{}

	var record []string
	hasDevName := false
	flush := func() {
		if hasDevName {
			name, id := decodeRecord(record)
			if name != "" {
				result[name] = id
			}
		} else if len(record) > 0 {
			logger.Logger.Debug().Strs("lines", record).Msg("Dropping blkid record without DEVNAME")
		}
		record = nil
		hasDevName = false
	}

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			flush()
			continue
		}
		if !strings.Contains(line, "=") {
			continue
		}
		if strings.HasPrefix(line, devNameKey+"=") {
			flush()
			hasDevName = true
		}
		record = append(record, line)
	}
	flush()

	return result
}

// decodeRecord splits every line on the first "=". Values are taken literally apart
// from the backslash escapes blkid adds, so labels keep characters like "$".
func decodeRecord(lines []string) (string, types.FsIdentity) {
	values := map[string]string{}
	for _, l := range lines {
		k, v, ok := strings.Cut(l, "=")
		if !ok {
			continue
		}
		values[strings.TrimSpace(k)] = blkidUnescape.Replace(unquote(v))
	}
	return values[devNameKey], types.FsIdentity{
		Type:      values["TYPE"],
		Label:     values["LABEL"],
		UUID:      values["UUID"],
		PartLabel: values["PARTLABEL"],
		PartUUID:  values["PARTUUID"],
	}
}

// unquote drops one pair of surrounding double quotes, some blkid builds print them.
func unquote(v string) string {
	if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
		return v[1 : len(v)-1]
	}
	return v
}
