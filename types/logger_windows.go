//go:build windows

package types

import "io"

// No journal on windows, console only.
func journaldAvailable() bool { return false }

func journaldWriter() io.Writer { return io.Discard }
