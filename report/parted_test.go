package report_test

import (
	"errors"

	"github.com/kairos-io/kairos-partitioner/report"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const gptOutput = `Model: ATA Samsung SSD 860 (scsi)
Disk /dev/sda: 476940MiB
Sector size (logical/physical): 512B/512B
Partition Table: gpt
Disk Flags: 

Number  Start    End        Size       File system  Name                  Flags
 1      1,00MiB  513MiB     512MiB     fat32        EFI System Partition  boot, esp
 2      513MiB   476939MiB  476426MiB

`

const msdosOutput = `Model: ATA VBOX HARDDISK (scsi)
Disk /dev/sdb: 20480MiB
Sector size (logical/physical): 512B/512B
Partition Table: msdos
Disk Flags: 

Number  Start     End       Size      Type     File system     Flags
 1      1,00MiB   513MiB    512MiB    primary  fat32           boot
 2      513MiB    18433MiB  17920MiB  primary  ext4
 3      18433MiB  20479MiB  2046MiB   primary  linux-swap(v1)  swap
`

const MiB = int64(1024 * 1024)

var _ = Describe("Parted", Label("report", "parted"), func() {
	Describe("ParseParted", func() {
		It("parses a gpt table", func() {
			d, err := report.ParseParted(gptOutput, "sda")
			Expect(err).ToNot(HaveOccurred())
			Expect(d.Name).To(Equal("sda"))
			Expect(d.Model).To(Equal("ATA Samsung SSD 860"))
			Expect(d.Transport).To(Equal("scsi"))
			Expect(d.SizeBytes).To(Equal(476940 * MiB))
			Expect(d.Table).To(Equal("gpt"))
			Expect(d.Partitions).To(HaveLen(2))

			p1 := d.Partitions[0]
			Expect(p1.Number).To(Equal(1))
			Expect(p1.Name).To(Equal("sda1"))
			Expect(p1.Start).To(Equal("1.00MiB"))
			Expect(p1.SizeBytes).To(Equal(512 * MiB))
			Expect(p1.FS).To(Equal("fat32"))
			Expect(p1.PartLabel).To(Equal("EFI System Partition"))
			Expect(p1.Flags).To(Equal([]string{"boot", "esp"}))

			p2 := d.Partitions[1]
			Expect(p2.Name).To(Equal("sda2"))
			Expect(p2.FS).To(BeEmpty())
			Expect(p2.PartLabel).To(BeEmpty())
			Expect(p2.Flags).To(BeEmpty())
			Expect(p2.SizeBytes).To(Equal(476426 * MiB))
		})

		It("parses an msdos table with the type column", func() {
			d, err := report.ParseParted(msdosOutput, "sdb")
			Expect(err).ToNot(HaveOccurred())
			Expect(d.Table).To(Equal("msdos"))
			Expect(d.Partitions).To(HaveLen(3))
			Expect(d.Partitions[0].Type).To(Equal("primary"))
			Expect(d.Partitions[0].FS).To(Equal("fat32"))
			Expect(d.Partitions[0].PartLabel).To(BeEmpty())
			Expect(d.Partitions[0].Flags).To(Equal([]string{"boot"}))
			Expect(d.Partitions[1].FS).To(Equal("ext4"))
			Expect(d.Partitions[2].FS).To(Equal("linux-swap(v1)"))
			Expect(d.Partitions[2].Flags).To(Equal([]string{"swap"}))
			Expect(d.Partitions[2].SizeBytes).To(Equal(2046 * MiB))
		})

		It("names nvme partitions with a p separator", func() {
			d, err := report.ParseParted(gptOutput, "nvme0n1")
			Expect(err).ToNot(HaveOccurred())
			Expect(d.Partitions[0].Name).To(Equal("nvme0n1p1"))
			Expect(d.Partitions[1].Name).To(Equal("nvme0n1p2"))
		})

		It("reads lowercase names as names, not filesystems", func() {
			out := "Disk /dev/sda: 2000MiB\n\nNumber  Start    End      Size    File system  Name  Flags\n" +
				" 1      1,00MiB  513MiB   512MiB               data\n" +
				" 2      513MiB   1025MiB  512MiB               root  boot\n" +
				" 3      1025MiB  1537MiB  512MiB  xfs          home\n"
			d, err := report.ParseParted(out, "sda")
			Expect(err).ToNot(HaveOccurred())
			Expect(d.Partitions).To(HaveLen(3))
			Expect(d.Partitions[0].FS).To(BeEmpty())
			Expect(d.Partitions[0].PartLabel).To(Equal("data"))
			Expect(d.Partitions[1].FS).To(BeEmpty())
			Expect(d.Partitions[1].PartLabel).To(Equal("root"))
			Expect(d.Partitions[1].Flags).To(Equal([]string{"boot"}))
			Expect(d.Partitions[2].FS).To(Equal("xfs"))
			Expect(d.Partitions[2].PartLabel).To(Equal("home"))
		})

		It("recomputes a zero size from start and end", func() {
			out := "Disk /dev/sdc: 1000MiB\n\nNumber  Start    End     Size     File system  Name  Flags\n 1      1,00MiB  101MiB  0,00MiB  ext4\n"
			d, err := report.ParseParted(out, "sdc")
			Expect(err).ToNot(HaveOccurred())
			Expect(d.Model).To(Equal("Unknown"))
			Expect(d.Partitions[0].SizeBytes).To(Equal(100 * MiB))
		})

		It("reports disks without a label", func() {
			_, err := report.ParseParted("Error: /dev/sdc: unrecognised disk label\n", "sdc")
			Expect(errors.Is(err, report.ErrUnrecognisedLabel)).To(BeTrue())
			Expect(report.IsUnrecognisedLabel("Error: /dev/sdc: unrecognized disk label")).To(BeTrue())
		})

		It("rejects text that is not a parted report", func() {
			_, err := report.ParseParted("command not found", "sdc")
			Expect(errors.Is(err, report.ErrNoPartitionTable)).To(BeTrue())
		})
	})

	Describe("PartitionDeviceName", func() {
		It("adds the separator only after digits", func() {
			Expect(report.PartitionDeviceName("sda", 3)).To(Equal("sda3"))
			Expect(report.PartitionDeviceName("mmcblk0", 1)).To(Equal("mmcblk0p1"))
		})
	})
})
