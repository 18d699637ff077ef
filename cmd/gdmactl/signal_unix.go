//go:build unix && !tinygo

package main

import (
	"os"

	"golang.org/x/sys/unix"
)

var stopSignals = []os.Signal{unix.SIGINT, unix.SIGTERM}
