// Package constants This file contains all the constants that can be reused across the project
package constants

const (
	B   = int64(1)
	KiB = 1024 * B
	MiB = 1024 * KiB
	GiB = 1024 * MiB
	TiB = 1024 * GiB

	KB = 1000 * B
	MB = 1000 * KB
	GB = 1000 * MB
	TB = 1000 * GB

	FilePerm = 0644
)

// SlackBytes is the amount of trailing free space considered partition alignment slack.
// Anything at or below it is not reported as unallocated.
const SlackBytes = MiB

// Filesystem types the editor knows how to plan for.
const (
	FsExt4  = "ext4"
	FsNTFS  = "ntfs"
	FsFAT32 = "fat32"
	FsExFAT = "exfat"
	FsSwap  = "swap"
	FsXFS   = "xfs"
	FsBtrfs = "btrfs"
)

const (
	DefaultFS    = FsExt4
	DefaultLabel = "New Partition"

	ISOStorageFS    = FsExFAT
	ISOStorageLabel = "ISO Storage"
	ISOStorageName  = "ISO Storage"

	NewPartitionName = "New Partition"
	UnallocatedName  = "Unallocated"
)

// Device kinds as reported by the block device lister.
const (
	KindDisk = "disk"
	KindPart = "part"
	KindFree = "free"
)

// TransportNVMe is the transport string reported for nvme attached disks.
const TransportNVMe = "nvme"

// NotAvailable is used for model, vendor and transport when the lister has no value.
const NotAvailable = "N/A"

// PartedFlags lists the keywords parted prints in the Flags column.
var PartedFlags = []string{
	"boot", "esp", "msftdata", "msftres", "hidden", "raid", "lvm", "swap", "diag",
	"bios_grub", "legacy_boot", "prep", "irst", "lba", "palo", "atvrecv", "chromeos_kernel",
	"bls_boot", "no_automount",
}

// UnrecognisedLabel is the message parted prints for a disk without a partition table.
const UnrecognisedLabel = "unrecognised disk label"
