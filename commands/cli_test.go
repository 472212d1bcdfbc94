package commands_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/kairos-io/kairos-partitioner/commands"
	"github.com/kairos-io/kairos-partitioner/plan"
	"github.com/kairos-io/kairos-partitioner/report"
	"github.com/kairos-io/kairos-partitioner/scan"
	"github.com/kairos-io/kairos-partitioner/types"
	"github.com/kairos-io/kairos-partitioner/utils"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const parted = `Model: ATA Samsung SSD 860 (scsi)
Disk /dev/sda: 476940MiB
Sector size (logical/physical): 512B/512B
Partition Table: gpt
Disk Flags: 

Number  Start    End        Size       File system  Name                  Flags
 1      1,00MiB  513MiB     512MiB     fat32        EFI System Partition  boot, esp
 2      513MiB   476939MiB  476426MiB  ext4         root

`

var _ = Describe("partplan", Label("cli"), func() {
	var buf, out bytes.Buffer
	var logger types.Logger
	var runner *utils.FakeRunner

	run := func(args ...string) error {
		src := scan.NewCommandSource(scan.WithRunner(runner), scan.WithLogger(&logger), scan.WithSudo(false))
		app := commands.NewApp(commands.WithSource(src), commands.WithLogger(&logger))
		app.Writer = &out
		app.ErrWriter = &buf
		return app.Run(append([]string{"partplan", "--env-file="}, args...))
	}

	BeforeEach(func() {
		buf = bytes.Buffer{}
		out = bytes.Buffer{}
		logger = types.NewBufferLogger(&buf)
		runner = utils.NewFakeRunner().
			On("lsblk -d -o NAME -n", utils.Output{Stdout: "sda\n"}, nil).
			On("parted -s /dev/sda unit MiB print", utils.Output{Stdout: parted}, nil).
			On("lsblk -J -b -o "+report.LsblkColumns, utils.Output{Stdout: `{"blockdevices":[{"name":"sda","size":500107862016,"type":"disk","tran":"sata","rota":false}]}`}, nil).
			On("blkid -o export", utils.Output{Stdout: "DEVNAME=/dev/sda2\nTYPE=ext4\nLABEL=root\n"}, nil)
	})
	AfterEach(func() {
		if CurrentSpecReport().Failed() {
			GinkgoWriter.Println(buf.String())
			GinkgoWriter.Println(out.String())
		}
	})

	Describe("disks", func() {
		It("renders a table", func() {
			Expect(run("disks", "--partitions")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("sda"))
			Expect(out.String()).To(ContainSubstring("SSD"))
			Expect(out.String()).To(ContainSubstring("465.76 GiB"))
			Expect(out.String()).To(ContainSubstring("EFI System Partition"))
		})

		It("prints json", func() {
			Expect(run("disks", "-o", "json")).To(Succeed())
			var disks []types.Disk
			Expect(json.Unmarshal(out.Bytes(), &disks)).To(Succeed())
			Expect(disks).To(HaveLen(1))
			Expect(disks[0].Partitions).To(HaveLen(2))
			Expect(disks[0].Partitions[1].Label).To(Equal("root"))
		})
	})

	Describe("plan", func() {
		It("applies the edits and prints the plan", func() {
			Expect(run("plan", "--disk", "sda", "--delete", "sda2", "--add", "100GiB:ext4:data", "--iso-storage", "-o", "json")).To(Succeed())
			var p plan.Plan
			Expect(json.Unmarshal(out.Bytes(), &p)).To(Succeed())
			Expect(p.Disk).To(Equal("sda"))
			Expect(p.Delete).To(Equal([]string{"sda2"}))
			Expect(p.Entries).To(HaveLen(3))
			Expect(p.Entries[0].Action).To(Equal(plan.ActionKeep))
			Expect(p.Entries[1].Action).To(Equal(plan.ActionCreate))
			Expect(p.Entries[1].SizeBytes).To(Equal(int64(100 * 1024 * 1024 * 1024)))
			Expect(p.Entries[1].Label).To(Equal("data"))
			Expect(p.Entries[2].FS).To(Equal("exfat"))
			Expect(p.Entries[2].Label).To(Equal("ISO Storage"))
		})

		It("renders a table", func() {
			Expect(run("plan", "--disk", "/dev/sda", "--delete", "sda2", "--add", "rest:xfs:data")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("/dev/sda (2 changes)"))
			Expect(out.String()).To(ContainSubstring("create"))
			Expect(out.String()).To(ContainSubstring("delete: sda2"))
		})

		It("fails on edits that cannot be applied", func() {
			err := run("plan", "--disk", "sda", "--add", "1TiB")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("bigger than the free space"))
		})

		It("fails for unknown disks", func() {
			Expect(run("plan", "--disk", "sdz")).To(MatchError(ContainSubstring("disk sdz not found")))
		})
	})

	Describe("plan files", func() {
		var file string

		BeforeEach(func() {
			Expect(run("plan", "--disk", "sda", "--delete", "sda2", "-o", "yaml")).To(Succeed())
			file = filepath.Join(GinkgoT().TempDir(), "plan.yaml")
			Expect(os.WriteFile(file, out.Bytes(), 0o644)).To(Succeed())
			out.Reset()
		})

		It("validates them", func() {
			Expect(run("validate", "-f", file)).To(Succeed())
			Expect(out.String()).To(ContainSubstring("plan is valid"))
		})

		It("queries them", func() {
			Expect(run("query", "-f", file, "delete[0]")).To(Succeed())
			Expect(out.String()).To(Equal("sda2\n"))
		})

		It("prints the schema", func() {
			Expect(run("schema")).To(Succeed())
			Expect(out.String()).To(ContainSubstring(`"entries"`))
		})
	})

	Describe("env file", func() {
		AfterEach(func() {
			_ = os.Unsetenv("PARTPLAN_SOURCE")
		})

		It("feeds the global flags", func() {
			env := filepath.Join(GinkgoT().TempDir(), "partplan.env")
			Expect(os.WriteFile(env, []byte("PARTPLAN_SOURCE=nope\n"), 0o644)).To(Succeed())
			app := commands.NewApp(commands.WithLogger(&logger))
			app.Writer = &out
			err := app.Run([]string{"partplan", "--env-file", env, "disks"})
			Expect(err).To(MatchError(ContainSubstring(`unknown source "nope"`)))
		})

		It("fails when an explicit file is missing", func() {
			app := commands.NewApp(commands.WithLogger(&logger))
			app.Writer = &out
			err := app.Run([]string{"partplan", "--env-file", "/nonexistent/partplan.env", "disks"})
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, os.ErrNotExist)).To(BeTrue())
		})
	})
})
