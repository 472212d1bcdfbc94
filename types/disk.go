package types

// DeviceClass is the inferred class of a disk.
type DeviceClass string

const (
	ClassSSD     DeviceClass = "SSD"
	ClassHDD     DeviceClass = "HDD"
	ClassNVMe    DeviceClass = "NVMe"
	ClassUnknown DeviceClass = "Unknown"
)

// Partition is a partition as reported by the system, after resolving its
// filesystem identity. Empty FS, Label and UUID mean unknown.
type Partition struct {
	ID         string `json:"id" yaml:"id"`
	Path       string `json:"path" yaml:"path"`
	Kind       string `json:"kind" yaml:"kind"`
	FS         string `json:"fs,omitempty" yaml:"fs,omitempty"`
	Label      string `json:"label,omitempty" yaml:"label,omitempty"`
	UUID       string `json:"uuid,omitempty" yaml:"uuid,omitempty"`
	SizeBytes  int64  `json:"size_bytes" yaml:"size_bytes"`
	Size       string `json:"size" yaml:"size"`
	MountPoint string `json:"mountpoint,omitempty" yaml:"mountpoint,omitempty"`
}

type PartitionList []*Partition

// Disk is the canonical disk model handed to the presentation layer.
// The sum of the partition sizes can be bigger than SizeBytes, consumers must not trust it.
type Disk struct {
	ID         string        `json:"id" yaml:"id"`
	Path       string        `json:"path" yaml:"path"`
	Model      string        `json:"model" yaml:"model"`
	Vendor     string        `json:"vendor" yaml:"vendor"`
	Transport  string        `json:"transport" yaml:"transport"`
	Class      DeviceClass   `json:"class" yaml:"class"`
	SizeBytes  int64         `json:"size_bytes" yaml:"size_bytes"`
	Size       string        `json:"size" yaml:"size"`
	Partitions PartitionList `json:"partitions" yaml:"partitions"`
}

// PartitionBlock is a contiguous region of a disk as tracked by the editor.
// OriginalID points back to the Partition it was derived from, empty for new or free blocks.
type PartitionBlock struct {
	Partition   `yaml:",inline"`
	IsAllocated bool   `json:"allocated" yaml:"allocated"`
	OriginalID  string `json:"original_id,omitempty" yaml:"original_id,omitempty"`
}

// BlockDeviceInfo is the raw shape produced by a block device lister.
// Size is nil when the lister could not tell, Rotational is nil when unknown.
type BlockDeviceInfo struct {
	Name       string            `json:"name"`
	Size       *int64            `json:"size"`
	Kind       string            `json:"type"`
	MountPoint *string           `json:"mountpoint,omitempty"`
	Model      string            `json:"model,omitempty"`
	Vendor     string            `json:"vendor,omitempty"`
	Transport  string            `json:"tran,omitempty"`
	Rotational *bool             `json:"rota,omitempty"`
	Children   []BlockDeviceInfo `json:"children,omitempty"`

	// Filled by the partition table parser. TableLabel is a label fallback, TableFS is
	// only shown as reported by the table and never used as the filesystem type.
	TableFS    string `json:"-"`
	TableLabel string `json:"-"`
	Flags      string `json:"-"`
}

// FsIdentity holds filesystem and partition identification for a device path.
type FsIdentity struct {
	Type      string `json:"TYPE,omitempty"`
	Label     string `json:"LABEL,omitempty"`
	UUID      string `json:"UUID,omitempty"`
	PartLabel string `json:"PARTLABEL,omitempty"`
	PartUUID  string `json:"PARTUUID,omitempty"`
}

// FsIdentities maps a full device path (/dev/sda1) to its identity.
type FsIdentities map[string]FsIdentity

// Lookup returns the identity for path, a missing entry resolves to the zero value.
func (f FsIdentities) Lookup(path string) FsIdentity {
	if f == nil {
		return FsIdentity{}
	}
	return f[path]
}

// SizeOrZero returns the device size, treating missing and negative values as 0.
func (b BlockDeviceInfo) SizeOrZero() int64 {
	if b.Size == nil || *b.Size < 0 {
		return 0
	}
	return *b.Size
}

// Int64Ptr is a helper for building BlockDeviceInfo values.
func Int64Ptr(v int64) *int64 { return &v }

// BoolPtr is a helper for building BlockDeviceInfo values.
func BoolPtr(v bool) *bool { return &v }
