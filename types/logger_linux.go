//go:build !windows

package types

import (
	"io"
	"net"

	"github.com/rs/zerolog/journald"
)

const journalSocket = "/run/systemd/journal/socket"

func journaldAvailable() bool {
	conn, err := net.Dial("unixgram", journalSocket)
	if err != nil {
		return false
	}
	defer conn.Close()
	return true
}

func journaldWriter() io.Writer {
	return journald.NewJournalDWriter()
}
