//go:build !linux && !tinygo

package main

import (
	"errors"

	"gdma.dev/driver/gdma"
	"gdma.dev/reg"
)

func openPhys(v *gdma.Variant) (reg.File, func() error, error) {
	return nil, nil, errors.New("-phys is only supported on linux")
}
