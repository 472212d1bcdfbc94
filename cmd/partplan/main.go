package main

import (
	"os"

	"github.com/kairos-io/kairos-partitioner/commands"
	"github.com/kairos-io/kairos-partitioner/types"
)

func main() {
	if err := commands.NewApp().Run(os.Args); err != nil {
		l := types.NewLogger("partplan", "info", false)
		l.Logger.Error().Err(err).Msg("partplan failed")
		os.Exit(1)
	}
}
