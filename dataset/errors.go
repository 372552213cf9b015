//
// Tencent is pleased to support the open source community by making trpc-memeval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-memeval-go is licensed under the Apache License Version 2.0.
//
//

package dataset

import (
	"errors"
	"fmt"
)

// ErrMalformedRecord marks a dataset record whose required structure is
// absent. Records failing with this error are skipped, not fatal.
var ErrMalformedRecord = errors.New("malformed dataset record")

// MalformedRecordError reports which record is structurally defective and why.
type MalformedRecordError struct {
	Index  int
	Reason string
}

// Error implements the error interface.
func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("record %d: %s", e.Index, e.Reason)
}

// Unwrap lets errors.Is match ErrMalformedRecord.
func (e *MalformedRecordError) Unwrap() error { return ErrMalformedRecord }
