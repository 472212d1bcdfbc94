package report_test

import (
	"github.com/kairos-io/kairos-partitioner/report"
	"github.com/kairos-io/kairos-partitioner/types"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Blkid", Label("report", "blkid"), func() {
	It("parses records separated by blank lines", func() {
		ids := report.ParseBlkidExport(`DEVNAME=/dev/sda1
UUID=ABCD-1234
TYPE=vfat
PARTLABEL=EFI\ System\ Partition
PARTUUID=11111111-01

DEVNAME=/dev/sda2
LABEL=My\ Data
UUID=0a0b0c0d
TYPE=ext4
`, nil)
		Expect(ids).To(HaveLen(2))
		Expect(ids["/dev/sda1"]).To(Equal(types.FsIdentity{
			Type:      "vfat",
			UUID:      "ABCD-1234",
			PartLabel: "EFI System Partition",
			PartUUID:  "11111111-01",
		}))
		Expect(ids["/dev/sda2"].Label).To(Equal("My Data"))
		Expect(ids["/dev/sda2"].Type).To(Equal("ext4"))
	})

	It("starts a new record on every DEVNAME", func() {
		ids := report.ParseBlkidExport("DEVNAME=/dev/sda1\nTYPE=ext4\nDEVNAME=/dev/sda2\nTYPE=xfs\n", nil)
		Expect(ids["/dev/sda1"].Type).To(Equal("ext4"))
		Expect(ids["/dev/sda2"].Type).To(Equal("xfs"))
	})

	It("drops records without DEVNAME and junk lines", func() {
		ids := report.ParseBlkidExport("TYPE=ext4\nLABEL=orphan\n\nsome warning\nDEVNAME=/dev/sdb1\nTYPE=ntfs\n", nil)
		Expect(ids).To(HaveLen(1))
		Expect(ids).To(HaveKey("/dev/sdb1"))
	})

	It("still finds the device when a record is malformed", func() {
		ids := report.ParseBlkidExport("DEVNAME=/dev/sdc1\nLABEL=\"unterminated\nTYPE=ext4\n", nil)
		Expect(ids).To(HaveKey("/dev/sdc1"))
	})

	It("keeps values literally", func() {
		ids := report.ParseBlkidExport("DEVNAME=/dev/sda1\nLABEL=cost$HOME\nPARTLABEL=\"quoted\"\nUUID=a=b\nTYPE=ext4\n", nil)
		Expect(ids["/dev/sda1"].Label).To(Equal("cost$HOME"))
		Expect(ids["/dev/sda1"].PartLabel).To(Equal("quoted"))
		Expect(ids["/dev/sda1"].UUID).To(Equal("a=b"))
		Expect(ids["/dev/sda1"].Type).To(Equal("ext4"))
	})

	It("returns nothing for empty output", func() {
		Expect(report.ParseBlkidExport("", nil)).To(BeEmpty())
		Expect(report.ParseBlkidExport("", nil).Lookup("/dev/sda1")).To(Equal(types.FsIdentity{}))
	})
})
