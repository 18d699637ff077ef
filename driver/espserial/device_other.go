//go:build !linux && !tinygo

package espserial

import (
	"fmt"
	"runtime"
)

func resetPort(dev string) error {
	return fmt.Errorf("modem line control not supported on %s", runtime.GOOS)
}
