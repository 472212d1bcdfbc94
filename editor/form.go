package editor

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/kairos-io/kairos-partitioner/constants"
)

// Purpose is what the user intends to use a partition for.
type Purpose string

const (
	PurposeLinux      Purpose = "linux"
	PurposeWindows    Purpose = "windows"
	PurposeMacOS      Purpose = "macos"
	PurposeData       Purpose = "data"
	PurposeISOStorage Purpose = "iso_storage"
	PurposeBoot       Purpose = "boot"
	PurposeRecovery   Purpose = "recovery"
)

// Minimum and maximum share of a free block the size slider allows.
const (
	MinSizePercent = 10
	MaxSizePercent = 100
)

// FormData is what the partition form collects.
type FormData struct {
	// TargetID is the unallocated block to carve from, empty means the first one.
	TargetID  string
	SizeBytes int64
	FS        string
	Label     string
	Purpose   Purpose
}

// labelLimits is the maximum label length for each filesystem.
var labelLimits = map[string]int{
	constants.FsExt4:  16,
	constants.FsNTFS:  32,
	constants.FsFAT32: 11,
	constants.FsExFAT: 15,
	constants.FsSwap:  15,
	constants.FsXFS:   12,
	constants.FsBtrfs: 255,
}

// Filesystems returns the filesystem types partitions can be planned with.
func Filesystems() []string {
	return []string{
		constants.FsExt4, constants.FsNTFS, constants.FsFAT32, constants.FsExFAT,
		constants.FsSwap, constants.FsXFS, constants.FsBtrfs,
	}
}

// NormalizeFS lower cases fs and maps common aliases (vfat, linux-swap) to known types.
func NormalizeFS(fs string) string {
	fs = strings.ToLower(strings.TrimSpace(fs))
	switch {
	case fs == "vfat" || fs == "fat":
		return constants.FsFAT32
	case strings.HasPrefix(fs, "linux-swap"):
		return constants.FsSwap
	}
	return fs
}

// ValidateFS checks fs and label can be planned together.
func ValidateFS(fs, label string) error {
	limit, ok := labelLimits[NormalizeFS(fs)]
	if !ok {
		return fmt.Errorf("unsupported filesystem %q", fs)
	}
	if n := utf8.RuneCountInString(label); n > limit {
		return fmt.Errorf("label %q is %d characters long, %s allows %d", label, n, fs, limit)
	}
	return nil
}

// SuggestFS returns the filesystem that usually goes with purpose, or current.
func SuggestFS(purpose Purpose, current string) string {
	switch purpose {
	case PurposeLinux:
		return constants.FsExt4
	case PurposeWindows:
		return constants.FsNTFS
	case PurposeBoot:
		return constants.FsFAT32
	case PurposeISOStorage:
		return constants.FsExFAT
	}
	return current
}

// SuggestPurpose returns the purpose that usually goes with fs, or current.
func SuggestPurpose(fs string, current Purpose) Purpose {
	switch NormalizeFS(fs) {
	case constants.FsExt4:
		return PurposeLinux
	case constants.FsNTFS:
		return PurposeWindows
	case constants.FsFAT32:
		return PurposeBoot
	case constants.FsExFAT:
		return PurposeISOStorage
	}
	return current
}

// SizeFromPercent converts a slider percentage of max into bytes. The percentage is
// clamped to MinSizePercent..MaxSizePercent.
func SizeFromPercent(percent float64, max int64) int64 {
	if max <= 0 || math.IsNaN(percent) {
		return 0
	}
	percent = math.Min(math.Max(percent, MinSizePercent), MaxSizePercent)
	if percent == MaxSizePercent {
		return max
	}
	return int64(math.Floor(percent / 100 * float64(max)))
}

// withDefaults fills the empty fields of the form.
func (f FormData) withDefaults() FormData {
	if f.FS == "" {
		f.FS = SuggestFS(f.Purpose, constants.DefaultFS)
	}
	f.FS = NormalizeFS(f.FS)
	if f.Label == "" {
		f.Label = truncateLabel(constants.DefaultLabel, f.FS)
	}
	if f.Purpose == "" {
		f.Purpose = SuggestPurpose(f.FS, PurposeData)
	}
	return f
}

func truncateLabel(label, fs string) string {
	limit, ok := labelLimits[fs]
	if !ok {
		return label
	}
	r := []rune(label)
	if len(r) <= limit {
		return label
	}
	return strings.TrimSpace(string(r[:limit]))
}
