package commands

import (
	"github.com/urfave/cli/v2"

	"github.com/kairos-io/kairos-partitioner/utils"
)

const DefaultEnvFile = "/etc/partplan.env"

var (
	envFileFlag *cli.StringFlag = &cli.StringFlag{
		Name:    "env-file",
		Value:   DefaultEnvFile,
		Usage:   "file with PARTPLAN_* variables, loaded before anything else",
		EnvVars: []string{"PARTPLAN_ENV_FILE"},
	}

	logLevelFlag *cli.StringFlag = &cli.StringFlag{
		Name:    "log-level",
		Value:   "info",
		Usage:   "log level (trace, debug, info, warn, error)",
		EnvVars: []string{"PARTPLAN_LOG_LEVEL"},
	}

	sourceFlag *cli.StringFlag = &cli.StringFlag{
		Name:    "source",
		Value:   sourceCommand,
		Usage:   "where to read disks from: command, sysfs, ghw or image",
		EnvVars: []string{"PARTPLAN_SOURCE"},
	}

	rootFlag *cli.StringFlag = &cli.StringFlag{
		Name:    "root",
		Value:   "",
		Usage:   "root dir for the sysfs and ghw sources (e.g. a chroot)",
		EnvVars: []string{"PARTPLAN_ROOT"},
	}

	imageFlag *cli.StringSliceFlag = &cli.StringSliceFlag{
		Name:    "image",
		Usage:   "disk image file for the image source, can be repeated",
		EnvVars: []string{"PARTPLAN_IMAGES"},
	}

	timeoutFlag *cli.DurationFlag = &cli.DurationFlag{
		Name:    "timeout",
		Value:   utils.DefaultTimeout,
		Usage:   "timeout for every external command",
		EnvVars: []string{"PARTPLAN_TIMEOUT"},
	}

	noSudoFlag *cli.BoolFlag = &cli.BoolFlag{
		Name:    "no-sudo",
		Usage:   "never run parted and blkid through sudo",
		EnvVars: []string{"PARTPLAN_NO_SUDO"},
	}

	loopDevicesFlag *cli.BoolFlag = &cli.BoolFlag{
		Name:    "loop-devices",
		Usage:   "include loop devices, useful to try things on image files",
		EnvVars: []string{"PARTPLAN_LOOP_DEVICES"},
	}

	outputFlag *cli.StringFlag = &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Value:   outputTable,
		Usage:   "output format: table, yaml or json",
		EnvVars: []string{"PARTPLAN_OUTPUT"},
	}

	diskFlag *cli.StringFlag = &cli.StringFlag{
		Name:     "disk",
		Usage:    "disk to plan, by name (e.g. sda)",
		EnvVars:  []string{"PARTPLAN_DISK"},
		Required: true,
	}

	deleteFlag *cli.StringSliceFlag = &cli.StringSliceFlag{
		Name:  "delete",
		Usage: "partition or block id to delete, can be repeated",
	}

	addFlag *cli.StringSliceFlag = &cli.StringSliceFlag{
		Name:  "add",
		Usage: "partition to add as SIZE[:FS[:LABEL]], SIZE is like 20GiB, 50% or rest",
	}

	resizeFlag *cli.StringSliceFlag = &cli.StringSliceFlag{
		Name:  "resize",
		Usage: "partition to resize as ID=SIZE",
	}

	mergeFlag *cli.BoolFlag = &cli.BoolFlag{
		Name:  "merge",
		Usage: "merge adjacent unallocated space",
	}

	isoFlag *cli.BoolFlag = &cli.BoolFlag{
		Name:  "iso-storage",
		Usage: "create the ISO storage partition in the remaining free space",
	}

	fileFlag *cli.StringFlag = &cli.StringFlag{
		Name:     "file",
		Aliases:  []string{"f"},
		Usage:    "plan file (yaml or json)",
		Required: true,
	}

	partitionsFlag *cli.BoolFlag = &cli.BoolFlag{
		Name:  "partitions",
		Usage: "also list the partitions of every disk",
	}

	// Global flags are evaluated again after the env file is loaded.
	globalFlags = []cli.Flag{
		envFileFlag, logLevelFlag, sourceFlag, rootFlag, imageFlag, timeoutFlag, noSudoFlag, loopDevicesFlag,
	}
)

const (
	sourceCommand = "command"
	sourceSysfs   = "sysfs"
	sourceGhw     = "ghw"
	sourceImage   = "image"

	outputTable = "table"
	outputYAML  = "yaml"
	outputJSON  = "json"
)
