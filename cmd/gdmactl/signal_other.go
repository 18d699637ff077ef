//go:build !unix && !tinygo

package main

import "os"

var stopSignals = []os.Signal{os.Interrupt}
