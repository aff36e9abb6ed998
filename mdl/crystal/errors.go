// Copyright 2016 The Marisol Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package crystal

import "github.com/cpmech/gosl/io"

// NonConvergence indicates that the outer stress iteration or the inner
// internal-variable iteration exhausted its budget or diverged. It is a
// recoverable condition: the caller owns the old snapshot and decides
// whether to retry with a smaller increment.
type NonConvergence struct {
	Inner bool    // failure happened in the internal-variable loop
	It    int     // iteration count when giving up
	Rnorm float64 // last residual norm
}

// Error returns message
func (o *NonConvergence) Error() string {
	loop := "stress"
	if o.Inner {
		loop = "state-variable"
	}
	return io.Sf("crystal: %s iteration did not converge after %d iterations (rnorm=%g)", loop, o.It, o.Rnorm)
}

// IllConditionedTangent indicates a singular or near-singular Newton
// tangent during the stress solve
type IllConditionedTangent struct {
	It  int
	Msg string
}

// Error returns message
func (o *IllConditionedTangent) Error() string {
	return io.Sf("crystal: tangent is singular or ill-conditioned at iteration %d: %s", o.It, o.Msg)
}

// InvalidState indicates a numerical or modelling breakdown, e.g. the
// plastic deformation gradient determinant drifting away from 1
type InvalidState struct {
	Msg string
}

// Error returns message
func (o *InvalidState) Error() string {
	return io.Sf("crystal: invalid state: %s", o.Msg)
}
