// Copyright 2016 The Marisol Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package crystal

import "github.com/cpmech/gosl/la"

// State holds the per-point converged data of a crystal-plasticity model.
// The caller keeps one "old" copy (previous converged step) and one
// "current" copy being solved; Update writes the current one only on
// convergence. Stress and strain tensors are stored in Mandel basis [6];
// deformation gradients are full [3][3] matrices.
type State struct {

	// essential
	Sig la.Vector  // σ: current Cauchy stress [6]
	F   *la.Matrix // total deformation gradient [3][3]
	Fe  *la.Matrix // elastic part of F [3][3]
	Fp  *la.Matrix // plastic part of F [3][3]; det(Fp) ≈ 1

	// internal variables
	Gss la.Vector // slip-system resistances [nss]; non-decreasing

	// energies (if tracked)
	W0e    float64   // stored elastic strain energy density
	W0p    float64   // accumulated plastic work density
	Wvisc  float64   // accumulated bulk-viscosity dissipation
	DW0eDE la.Vector // dW0e/dE in Mandel basis [6]
	DW0pDE la.Vector // dW0p/dE in Mandel basis [6]
}

// NewState allocates a state structure
//  nss      -- number of slip systems
//  energies -- allocate energy derivative tensors
func NewState(nss int, energies bool) *State {
	var state State
	state.Sig = la.NewVector(6)
	state.F = la.NewMatrix(3, 3)
	state.Fe = la.NewMatrix(3, 3)
	state.Fp = la.NewMatrix(3, 3)
	state.Gss = la.NewVector(nss)
	state.F.SetDiag(1)
	state.Fe.SetDiag(1)
	state.Fp.SetDiag(1)
	if energies {
		state.DW0eDE = la.NewVector(6)
		state.DW0pDE = la.NewVector(6)
	}
	return &state
}

// Set copies states
//  Note: 1) this and other states must have been pre-allocated with the same sizes
//        2) this method does not check for errors
func (o *State) Set(other *State) {
	copy(o.Sig, other.Sig)
	other.F.CopyInto(o.F, 1)
	other.Fe.CopyInto(o.Fe, 1)
	other.Fp.CopyInto(o.Fp, 1)
	copy(o.Gss, other.Gss)
	o.W0e = other.W0e
	o.W0p = other.W0p
	o.Wvisc = other.Wvisc
	if len(o.DW0eDE) > 0 {
		copy(o.DW0eDE, other.DW0eDE)
		copy(o.DW0pDE, other.DW0pDE)
	}
}

// GetCopy returns a copy of this state
func (o *State) GetCopy() *State {
	other := NewState(len(o.Gss), len(o.DW0eDE) > 0)
	other.Set(o)
	return other
}
