//go:build !windows

package main

import (
	"os"
	"syscall"
)

// terminationSignals stop the server gracefully. SIGTERM comes from process
// managers, os.Interrupt from a terminal.
var terminationSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}
