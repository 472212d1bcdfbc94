package topology_test

import (
	"github.com/kairos-io/kairos-partitioner/constants"
	"github.com/kairos-io/kairos-partitioner/report"
	"github.com/kairos-io/kairos-partitioner/topology"
	"github.com/kairos-io/kairos-partitioner/types"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Topology", Label("topology"), func() {
	Describe("Transform", func() {
		It("keeps only disks and their partitions", func() {
			mp := "/boot/efi"
			raw := []types.BlockDeviceInfo{
				{
					Name:       "sda",
					Kind:       "disk",
					Size:       types.Int64Ptr(500107862016),
					Model:      "Samsung SSD 860",
					Transport:  "sata",
					Rotational: types.BoolPtr(false),
					Children: []types.BlockDeviceInfo{
						{Name: "sda1", Kind: "part", Size: types.Int64Ptr(536870912), MountPoint: &mp, TableFS: "fat32", TableLabel: "EFI System Partition"},
						{Name: "sda2", Kind: "part", Size: types.Int64Ptr(499570991104)},
						{Name: "sda2_crypt", Kind: "crypt", Size: types.Int64Ptr(1)},
					},
				},
				{Name: "sr0", Kind: "rom", Size: types.Int64Ptr(1024)},
				{Name: "loop0", Kind: "loop", Size: types.Int64Ptr(1024)},
			}
			ids := types.FsIdentities{
				"/dev/sda1": {Type: "vfat", UUID: "ABCD-1234", PartLabel: "EFI System Partition"},
				"/dev/sda2": {Type: "ext4", Label: "root", UUID: "0a0b", PartUUID: "ignored"},
			}

			disks := topology.Transform(raw, ids, nil)
			Expect(disks).To(HaveLen(1))
			d := disks[0]
			Expect(d.ID).To(Equal("sda"))
			Expect(d.Path).To(Equal("/dev/sda"))
			Expect(d.Class).To(Equal(types.ClassSSD))
			Expect(d.Vendor).To(Equal(constants.NotAvailable))
			Expect(d.Size).To(Equal("465.76 GiB"))
			Expect(d.Partitions).To(HaveLen(2))

			p1 := d.Partitions[0]
			Expect(p1.Path).To(Equal("/dev/sda1"))
			Expect(p1.FS).To(Equal("vfat"))
			Expect(p1.Label).To(Equal("EFI System Partition"))
			Expect(p1.UUID).To(Equal("ABCD-1234"))
			Expect(p1.MountPoint).To(Equal("/boot/efi"))
			Expect(p1.Size).To(Equal("512.00 MiB"))

			p2 := d.Partitions[1]
			Expect(p2.FS).To(Equal("ext4"))
			Expect(p2.Label).To(Equal("root"))
			Expect(p2.UUID).To(Equal("0a0b"))
			Expect(p2.MountPoint).To(BeEmpty())
		})

		It("falls back to the partition table label when there is no identity", func() {
			raw := []types.BlockDeviceInfo{{
				Name: "sdb",
				Kind: "disk",
				Size: types.Int64Ptr(1 << 30),
				Children: []types.BlockDeviceInfo{
					{Name: "sdb1", Kind: "part", Size: types.Int64Ptr(1 << 29), TableFS: "ext4", TableLabel: "data"},
					{Name: "sdb2", Kind: "part"},
				},
			}}
			disks := topology.Transform(raw, nil, nil)
			Expect(disks[0].Model).To(Equal(constants.NotAvailable))
			Expect(disks[0].Class).To(Equal(types.ClassUnknown))
			// the table name is a label fallback, the table filesystem is never trusted
			Expect(disks[0].Partitions[0].FS).To(BeEmpty())
			Expect(disks[0].Partitions[0].Label).To(Equal("data"))
			Expect(disks[0].Partitions[1].SizeBytes).To(Equal(int64(0)))
			Expect(disks[0].Partitions[1].FS).To(BeEmpty())
		})

		It("does not take a partition name for a filesystem", func() {
			out := "Disk /dev/sda: 2000MiB\n\nNumber  Start    End     Size    File system  Name  Flags\n" +
				" 1      1,00MiB  513MiB  512MiB               data\n"
			d, err := report.ParseDisk(report.DiskReport{Name: "sda", Stdout: out}, nil)
			Expect(err).ToNot(HaveOccurred())

			disks := topology.Transform([]types.BlockDeviceInfo{d}, types.FsIdentities{}, nil)
			Expect(disks[0].Partitions).To(HaveLen(1))
			Expect(disks[0].Partitions[0].FS).To(BeEmpty())
			Expect(disks[0].Partitions[0].Label).To(Equal("data"))
		})

		It("handles a disk without a partition table", func() {
			raw := []types.BlockDeviceInfo{{
				Name:     "nvme0n1",
				Kind:     "disk",
				Size:     types.Int64Ptr(2000398934016),
				Children: []types.BlockDeviceInfo{},
			}}
			disks := topology.Transform(raw, types.FsIdentities{}, nil)
			Expect(disks).To(HaveLen(1))
			Expect(disks[0].Class).To(Equal(types.ClassNVMe))
			Expect(disks[0].Size).To(Equal("1.82 TiB"))
			Expect(disks[0].Partitions).To(BeEmpty())
		})

		It("returns an empty list for no devices", func() {
			Expect(topology.Transform(nil, nil, nil)).To(BeEmpty())
		})
	})

	DescribeTable("InferClass",
		func(d types.BlockDeviceInfo, expected types.DeviceClass) {
			Expect(topology.InferClass(d)).To(Equal(expected))
		},
		Entry("nvme transport", types.BlockDeviceInfo{Name: "sda", Transport: "nvme", Rotational: types.BoolPtr(true)}, types.ClassNVMe),
		Entry("nvme name", types.BlockDeviceInfo{Name: "nvme1n1"}, types.ClassNVMe),
		Entry("rotational", types.BlockDeviceInfo{Name: "sda", Rotational: types.BoolPtr(true), Model: "Some SSD"}, types.ClassHDD),
		Entry("not rotational", types.BlockDeviceInfo{Name: "sda", Rotational: types.BoolPtr(false)}, types.ClassSSD),
		Entry("ssd in model", types.BlockDeviceInfo{Name: "sda", Model: "Crucial MX500 SSD"}, types.ClassSSD),
		Entry("flash in model", types.BlockDeviceInfo{Name: "sdb", Model: "USB Flash Drive"}, types.ClassSSD),
		Entry("nothing known", types.BlockDeviceInfo{Name: "sdc", Model: "WDC WD10EZEX"}, types.ClassUnknown),
	)
})
