// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

import (
	"errors"
	"fmt"
)

// ErrAllocation is reported when the driver fails to create or fill
// a hardware object.
var ErrAllocation = errors.New("hardware allocation failed")

// DriverError describes a failed driver call.
type DriverError struct {
	// Op is the driver statement that failed.
	Op string
	// Code is the error code reported by the driver, zero when the
	// driver returned a null handle without reporting an error.
	Code uint32
}

func (e *DriverError) Error() string {
	if e.Code == 0 {
		return fmt.Sprintf("%s: null handle returned", e.Op)
	}
	return fmt.Sprintf("%s: driver error 0x%04X", e.Op, e.Code)
}

// Unwrap makes every DriverError match ErrAllocation.
func (e *DriverError) Unwrap() error {
	return ErrAllocation
}
