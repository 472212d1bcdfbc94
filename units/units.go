// Package units converts between byte counts and the human readable sizes printed by
// partitioning tools.
package units

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/kairos-io/kairos-partitioner/constants"
)

// ZeroSize is what FormatBytes returns for empty or unknown sizes.
const ZeroSize = "0 Bytes"

// DefaultUnit is used when a unit symbol is not recognised.
const DefaultUnit = "MiB"

var binarySymbols = []string{"B", "KiB", "MiB", "GiB", "TiB"}

var multipliers = map[string]int64{
	"b":     constants.B,
	"bytes": constants.B,
	"kib":   constants.KiB,
	"mib":   constants.MiB,
	"gib":   constants.GiB,
	"tib":   constants.TiB,
	"kb":    constants.KB,
	"mb":    constants.MB,
	"gb":    constants.GB,
	"tb":    constants.TB,
}

var sizeToken = regexp.MustCompile(`^(\d+(?:[.,]\d+)?)\s*([A-Za-z]*)$`)

// FormatBytes renders n with the largest binary unit that keeps the value under 1024.
func FormatBytes(n int64) string {
	if n <= 0 {
		return ZeroSize
	}
	value := float64(n)
	i := 0
	for value >= 1024 && i < len(binarySymbols)-1 {
		value /= 1024
		i++
	}
	return fmt.Sprintf("%.2f %s", value, binarySymbols[i])
}

// Multiplier returns the number of bytes in one unit, falling back to MiB.
// The second return value tells if the symbol was recognised.
func Multiplier(unit string) (int64, bool) {
	m, ok := multipliers[strings.ToLower(strings.TrimSpace(unit))]
	if !ok {
		return constants.MiB, false
	}
	return m, true
}

// ParseUnitToBytes converts value expressed in unit into bytes.
// Binary (KiB) and decimal (KB) symbols are both understood, case insensitive.
// Unknown symbols are treated as MiB.
func ParseUnitToBytes(value float64, unit string) int64 {
	if value <= 0 || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0
	}
	m, _ := Multiplier(unit)
	return int64(math.Round(value * float64(m)))
}

// ParseSizeToken splits a size like "100MiB", "1,00MiB" or "1.00 MiB" into its value and unit.
// Comma decimal separators are converted to periods.
func ParseSizeToken(s string) (float64, string, bool) {
	m := sizeToken.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, "", false
	}
	v, err := strconv.ParseFloat(strings.Replace(m[1], ",", ".", 1), 64)
	if err != nil {
		return 0, "", false
	}
	return v, m[2], true
}

// ParseSize parses a size string into bytes, it is the inverse of FormatBytes.
func ParseSize(s string) (int64, bool) {
	v, unit, ok := ParseSizeToken(s)
	if !ok {
		return 0, false
	}
	if unit == "" {
		unit = DefaultUnit
	}
	return ParseUnitToBytes(v, unit), true
}
