package scan_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"

	"github.com/diskfs/go-diskfs/partition/gpt"
	"github.com/diskfs/go-diskfs/partition/mbr"
	"github.com/twpayne/go-vfs/v4/vfst"

	"github.com/kairos-io/kairos-partitioner/ghw/mocks"
	"github.com/kairos-io/kairos-partitioner/scan"
	"github.com/kairos-io/kairos-partitioner/types"
	"github.com/kairos-io/kairos-partitioner/units"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Sources", Label("scan"), func() {
	var buf bytes.Buffer
	var logger types.Logger

	BeforeEach(func() {
		_ = os.Unsetenv("GHW_CHROOT")
		buf = bytes.Buffer{}
		logger = types.NewBufferLogger(&buf)
	})
	AfterEach(func() {
		if CurrentSpecReport().Failed() {
			GinkgoWriter.Println(buf.String())
		}
	})

	sysfsTree := func() map[string]interface{} {
		m := mocks.SysfsMock{}
		m.AddDisk(mocks.Disk{
			Name:       "sda",
			Sectors:    4 * 1024 * 1024,
			Model:      "ST1000DM010",
			Rotational: "1",
			Partitions: []mocks.Partition{
				{Name: "sda1", Sectors: 2 * 1024 * 1024, FS: "ntfs", Label: "Windows", UUID: "01D9"},
			},
		})
		return m.Tree()
	}

	Describe("SysfsSource", Label("sysfs"), func() {
		It("produces disks through the topology transformer", func() {
			fs, cleanup, err := vfst.NewTestFS(sysfsTree())
			Expect(err).ToNot(HaveOccurred())
			defer cleanup()

			disks, err := scan.Disks(context.Background(), scan.NewSysfsSource(fs, "", scan.WithLogger(&logger)), &logger)
			Expect(err).ToNot(HaveOccurred())
			Expect(disks).To(HaveLen(1))
			Expect(disks[0].Class).To(Equal(types.ClassHDD))
			Expect(disks[0].Model).To(Equal("ST1000DM010"))
			Expect(disks[0].Vendor).To(Equal("N/A"))
			Expect(disks[0].Size).To(Equal("2.00 GiB"))
			Expect(disks[0].Partitions).To(HaveLen(1))
			Expect(disks[0].Partitions[0].FS).To(Equal("ntfs"))
			Expect(disks[0].Partitions[0].Label).To(Equal("Windows"))
			Expect(disks[0].Partitions[0].Size).To(Equal("1.00 GiB"))
		})
	})

	Describe("GhwSource", Label("ghw"), func() {
		It("reads the inventory from a chroot", func() {
			if runtime.GOOS != "linux" {
				Skip("ghw block inventory is linux only")
			}
			fs, cleanup, err := vfst.NewTestFS(sysfsTree())
			Expect(err).ToNot(HaveOccurred())
			defer cleanup()

			res, err := scan.NewGhwSource(fs.TempDir(), scan.WithLogger(&logger)).Scan(context.Background())
			Expect(err).ToNot(HaveOccurred())
			Expect(res.Devices).To(HaveLen(1))
			Expect(res.Devices[0].Name).To(Equal("sda"))
			Expect(*res.Devices[0].Size).To(Equal(int64(4 * 1024 * 1024 * 512)))
		})
	})

	Describe("ImageSource", Label("image"), func() {
		It("converts a GPT table", func() {
			table := &gpt.Table{
				LogicalSectorSize: 512,
				Partitions: []*gpt.Partition{
					{Start: 2048, End: 206847, Type: gpt.EFISystemPartition, Name: "EFI", GUID: "AAAA"},
					{Start: 206848, End: 411647, Type: gpt.LinuxFilesystem, Name: "root", GUID: "BBBB"},
					{Type: gpt.Unused},
				},
			}
			info, ids := scan.TableDevices("vda", 1024*1024*1024, table)
			Expect(info.Kind).To(Equal("disk"))
			Expect(info.Model).To(Equal("Disk image"))
			Expect(info.Children).To(HaveLen(2))
			Expect(info.Children[0].Name).To(Equal("vda1"))
			Expect(*info.Children[0].Size).To(Equal(int64(100 * 1024 * 1024)))
			Expect(info.Children[0].TableFS).To(Equal("fat32"))
			Expect(info.Children[1].TableLabel).To(Equal("root"))
			Expect(ids["/dev/vda2"].PartUUID).To(Equal("BBBB"))
		})

		It("converts an MBR table", func() {
			table := &mbr.Table{
				LogicalSectorSize: 512,
				Partitions: []*mbr.Partition{
					{Type: mbr.NTFS, Start: 2048, Size: 4096},
					{Type: mbr.Empty},
				},
			}
			info, _ := scan.TableDevices("loop0", 10*1024*1024, table)
			Expect(info.Children).To(HaveLen(1))
			Expect(info.Children[0].Name).To(Equal("loop0p1"))
			Expect(*info.Children[0].Size).To(Equal(int64(2 * 1024 * 1024)))
			Expect(info.Children[0].TableFS).To(Equal("ntfs"))
		})

		It("gives an empty disk without a table", func() {
			info, ids := scan.TableDevices("blank.img", 4096, nil)
			Expect(info.Children).To(BeEmpty())
			Expect(*info.Size).To(Equal(int64(4096)))
			Expect(ids).To(BeEmpty())
		})

		It("degrades images that cannot be opened to empty disks", func() {
			missing := filepath.Join(GinkgoT().TempDir(), "missing.img")
			res, err := scan.NewImageSource([]string{missing}, scan.WithLogger(&logger)).Scan(context.Background())
			Expect(err).To(HaveOccurred())
			Expect(res.Devices).To(HaveLen(1))
			Expect(res.Devices[0].Name).To(Equal("missing.img"))
			Expect(res.Devices[0].Kind).To(Equal("disk"))
			Expect(*res.Devices[0].Size).To(Equal(int64(0)))
			Expect(res.Devices[0].Children).To(BeEmpty())

			disks, err := scan.Disks(context.Background(), scan.NewImageSource([]string{missing}), nil)
			Expect(err).To(HaveOccurred())
			Expect(disks).To(HaveLen(1))
			Expect(disks[0].Size).To(Equal(units.ZeroSize))
		})
	})
})
