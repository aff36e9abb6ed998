// Copyright 2016 The Marisol Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package crystal

import (
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/la"
)

// Path holds a sequence of total deformation-gradient targets applied by
// the Driver. Each leg runs from the previous target (or the identity)
// to Fend[i] in Nincs[i] equal increments over the duration Dt[i].
type Path struct {
	Fend  []*la.Matrix // target deformation gradients [nlegs][3][3]
	Dt    []float64    // duration of each leg [nlegs]
	Nincs []int        // number of increments per leg [nlegs]
}

// AddLeg appends one leg to the path
func (o *Path) AddLeg(F *la.Matrix, Δt float64, nincs int) (err error) {
	if nincs < 1 {
		return chk.Err("path: number of increments must be at least 1; got %d", nincs)
	}
	if Δt <= 0 {
		return chk.Err("path: leg duration must be positive; got %g", Δt)
	}
	o.Fend = append(o.Fend, F.GetCopy())
	o.Dt = append(o.Dt, Δt)
	o.Nincs = append(o.Nincs, nincs)
	return
}

// SetUniaxial makes a single-leg path with uniaxial stretch λ along x
func (o *Path) SetUniaxial(λ, Δt float64, nincs int) (err error) {
	F := la.NewMatrix(3, 3)
	F.Set(0, 0, λ)
	F.Set(1, 1, 1)
	F.Set(2, 2, 1)
	return o.AddLeg(F, Δt, nincs)
}

// SetSimpleShear makes a single-leg path with simple shear γ in the x-y plane
func (o *Path) SetSimpleShear(γ, Δt float64, nincs int) (err error) {
	F := la.NewMatrix(3, 3)
	F.SetDiag(1)
	F.Set(0, 1, γ)
	return o.AddLeg(F, Δt, nincs)
}

// SetVolumetric makes a single-leg path with isotropic stretch λ
// (λ < 1 compresses, λ > 1 expands)
func (o *Path) SetVolumetric(λ, Δt float64, nincs int) (err error) {
	F := la.NewMatrix(3, 3)
	F.SetDiag(λ)
	return o.AddLeg(F, Δt, nincs)
}
