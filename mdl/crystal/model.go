// Copyright 2016 The Marisol Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package crystal implements rate-dependent crystal-plasticity models for
// finite deformations based on the multiplicative decomposition F = Fe·Fp.
// The second Piola-Kirchhoff stress is solved at the intermediate
// configuration with a Newton-Raphson iteration staggered with a
// backward-Euler update of the per-slip-system resistances.
package crystal

import (
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/fun/dbf"
	"github.com/cpmech/gosl/la"
)

// Model defines the interface for crystal-plasticity models
type Model interface {
	Init(ndim int, pstress bool, prms dbf.Params) error // initialises model
	InitIntVars() (*State, error)                       // initialises AND allocates internal (secondary) variables
	GetPrms() dbf.Params                                // gets (an example) of parameters
	GetRho() float64                                    // returns density
	Nsys() int                                          // returns the number of slip systems
}

// LargeDef defines models for large deformation analyses
type LargeDef interface {

	// Update solves one (sub-)step: given the previous converged state s and
	// the new total deformation gradient F, it computes the new stress and
	// internal variables and commits them to s. On failure (NonConvergence,
	// IllConditionedTangent, InvalidState) s is left untouched so that the
	// caller may retry with a smaller increment.
	Update(s *State, F *la.Matrix, Δt float64) error

	// CalcA computes the consistent tangent A = dσ/dF at the converged state.
	// sOld must be the backup of the state BEFORE the last Update call.
	CalcA(A [][][][]float64, sOld *State, F *la.Matrix, Δt float64) error

	// ContA computes the continuous (elastic) tangent operator
	ContA(A [][][][]float64, s *State) error
}

// EnergyTracker defines models that account for stored/dissipated energies
type EnergyTracker interface {
	Energies(s *State) (W0e, W0p, Wv float64)
}

// constitutive is the capability interface consumed by the staggered
// Newton driver in solve.go. Each model variant provides the residual,
// the internal-variable update and the post-convergence bookkeeping.
type constitutive interface {
	computeResidual(it *Iterate, R la.Vector) error
	updateInternalState(it *Iterate) error
	computeEnergies(s *State, it *Iterate)
}

// New returns a new crystal-plasticity model
func New(name string) (model Model, err error) {
	allocator, ok := allocators[name]
	if !ok {
		return nil, chk.Err("model %q is not available in 'crystal' database", name)
	}
	return allocator(), nil
}

// allocators holds all available models; modelname => allocator
var allocators = map[string]func() Model{}
