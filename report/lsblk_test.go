package report_test

import (
	"github.com/kairos-io/kairos-partitioner/report"
	"github.com/kairos-io/kairos-partitioner/types"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Lsblk", Label("report", "lsblk"), func() {
	Describe("ParseLsblkJSON", func() {
		It("decodes numbers and booleans", func() {
			devs, err := report.ParseLsblkJSON([]byte(`{"blockdevices":[
				{"name":"sda","size":1000,"type":"disk","mountpoint":null,"model":"Disk   ","vendor":null,"tran":"sata","rota":true,
				 "children":[{"name":"sda1","size":500,"type":"part","mountpoint":"/"}]}]}`))
			Expect(err).ToNot(HaveOccurred())
			Expect(devs).To(HaveLen(1))
			Expect(*devs[0].Size).To(Equal(int64(1000)))
			Expect(devs[0].Model).To(Equal("Disk"))
			Expect(devs[0].Vendor).To(BeEmpty())
			Expect(*devs[0].Rotational).To(BeTrue())
			Expect(devs[0].MountPoint).To(BeNil())
			Expect(*devs[0].Children[0].MountPoint).To(Equal("/"))
		})

		It("decodes the string values of older versions", func() {
			devs, err := report.ParseLsblkJSON([]byte(`{"blockdevices":[{"name":"sdb","size":"2048","type":"disk","rota":"0"}]}`))
			Expect(err).ToNot(HaveOccurred())
			Expect(*devs[0].Size).To(Equal(int64(2048)))
			Expect(*devs[0].Rotational).To(BeFalse())
		})

		It("leaves unknown values empty", func() {
			devs, err := report.ParseLsblkJSON([]byte(`{"blockdevices":[{"name":"sr0","size":null,"type":"rom"}]}`))
			Expect(err).ToNot(HaveOccurred())
			Expect(devs[0].Size).To(BeNil())
			Expect(devs[0].Rotational).To(BeNil())
		})

		It("fails on invalid json", func() {
			_, err := report.ParseLsblkJSON([]byte(`{"blockdevices":`))
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("ParseLsblkPairs", func() {
		It("builds the tree from PKNAME", func() {
			devs, err := report.ParseLsblkPairs(`NAME="sda" PKNAME="" SIZE="1000" TYPE="disk" MOUNTPOINT="" MODEL="Some Disk" VENDOR="ATA" TRAN="sata" ROTA="0"
NAME="sda1" PKNAME="sda" SIZE="500" TYPE="part" MOUNTPOINT="/boot" MODEL="" VENDOR="" TRAN="" ROTA="0"
NAME="sdb" PKNAME="" SIZE="10" TYPE="disk" MOUNTPOINT="" MODEL="" VENDOR="" TRAN="usb" ROTA="1"
`)
			Expect(err).ToNot(HaveOccurred())
			Expect(devs).To(HaveLen(2))
			Expect(devs[0].Model).To(Equal("Some Disk"))
			Expect(*devs[0].Rotational).To(BeFalse())
			Expect(devs[0].Children).To(HaveLen(1))
			Expect(*devs[0].Children[0].MountPoint).To(Equal("/boot"))
			Expect(devs[1].Transport).To(Equal("usb"))
			Expect(devs[1].Children).To(BeEmpty())
		})
	})

	Describe("MergeLister", func() {
		It("fills what the partition table does not know", func() {
			devices := []types.BlockDeviceInfo{{
				Name:  "sda",
				Kind:  "disk",
				Size:  types.Int64Ptr(1000),
				Model: "Unknown",
				Children: []types.BlockDeviceInfo{
					{Name: "sda1", Kind: "part", Size: types.Int64Ptr(500), TableFS: "ext4"},
				},
			}}
			mp := "/data"
			lister := []types.BlockDeviceInfo{{
				Name:       "sda",
				Size:       types.Int64Ptr(999),
				Model:      "Real Model",
				Vendor:     "ATA",
				Transport:  "sata",
				Rotational: types.BoolPtr(true),
				Children:   []types.BlockDeviceInfo{{Name: "sda1", MountPoint: &mp}},
			}}

			out := report.MergeLister(devices, lister)
			Expect(out[0].Model).To(Equal("Real Model"))
			Expect(out[0].Vendor).To(Equal("ATA"))
			Expect(*out[0].Rotational).To(BeTrue())
			// the table size wins
			Expect(*out[0].Size).To(Equal(int64(1000)))
			Expect(*out[0].Children[0].MountPoint).To(Equal("/data"))
			Expect(out[0].Children[0].TableFS).To(Equal("ext4"))
			// the input is left alone
			Expect(devices[0].Model).To(Equal("Unknown"))
			Expect(devices[0].Children[0].MountPoint).To(BeNil())
		})
	})
})
