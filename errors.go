// Package repmap: error kinds.
/*
 * Copyright (c) 2024-2026, NVIDIA CORPORATION. All rights reserved.
 */
package repmap

import (
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// LifecycleError wraps a failure during Init when the caller requested
// terminate=true, the one error path that synchronously reaches the
// caller. It carries a stack via github.com/pkg/errors so an operator
// can see where in the init sequence (broadcast INIT, state transfer,
// broadcast START) things went wrong.
type LifecycleError struct {
	Step string
	Err  error
}

func (e *LifecycleError) Error() string {
	return fmt.Sprintf("repmap: lifecycle init failed at %s: %v", e.Step, e.Err)
}

func (e *LifecycleError) Unwrap() error { return e.Err }

func newLifecycleError(step string, err error) error {
	return &LifecycleError{Step: step, Err: pkgerrors.Wrap(err, step)}
}
