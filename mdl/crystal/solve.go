// Copyright 2016 The Marisol Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package crystal

import (
	"math"

	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/la"
)

// Iterate carries one Newton solve worth of trial data. It is created
// from the previous converged state, threaded through the staggered
// outer/inner iterations and committed to the persistent State only on
// convergence, so a failed solve never corrupts the point.
type Iterate struct {

	// fixed during the solve
	F      *la.Matrix // new total deformation gradient [3][3]
	Fold   *la.Matrix // previous total deformation gradient [3][3]
	FpiOld *la.Matrix // inverse of previous plastic gradient [3][3]
	GssOld la.Vector  // previous resistances [nss]
	Δt     float64    // time increment

	// candidates
	S    la.Vector // candidate PK2 stress, Mandel [6]
	Gss  la.Vector // candidate resistances [nss]
	Dgam la.Vector // shear increments [nss]
	Tau  la.Vector // resolved shear stresses [nss]

	// derived at the latest residual evaluation
	Fpi *la.Matrix // candidate inverse plastic gradient [3][3]
	Fe  *la.Matrix // candidate elastic gradient [3][3]
	Ee  la.Vector  // elastic Green-Lagrange strain, Mandel [6]

	// counters
	It  int // outer iterations used
	ItG int // inner iterations used (last inner solve)

	// auxiliary
	ta, tb *la.Matrix // [3][3] scratch
	spred  la.Vector  // C:Ee [6]
}

// newIterate builds the iterate from the old snapshot held by s; Fnew is
// not copied and must not be modified during the solve
func (o *CrystalPlast) newIterate(s *State, Fnew *la.Matrix, Δt float64) (it *Iterate, err error) {
	nss := len(o.Ssys)
	it = &Iterate{
		F:      Fnew,
		Fold:   s.F.GetCopy(),
		FpiOld: la.NewMatrix(3, 3),
		GssOld: la.NewVector(nss),
		S:      la.NewVector(6),
		Gss:    la.NewVector(nss),
		Dgam:   la.NewVector(nss),
		Tau:    la.NewVector(nss),
		Fpi:    la.NewMatrix(3, 3),
		Fe:     la.NewMatrix(3, 3),
		Ee:     la.NewVector(6),
		Δt:     Δt,
		ta:     la.NewMatrix(3, 3),
		tb:     la.NewMatrix(3, 3),
		spred:  la.NewVector(6),
	}
	if _, ok := matInv3(it.FpiOld, s.Fp, 1e-10); !ok {
		return nil, &InvalidState{Msg: "plastic deformation gradient is singular"}
	}
	copy(it.GssOld, s.Gss)
	copy(it.Gss, s.Gss)
	return
}

// predictor seeds the first stress iterate with the elastic trial state:
// Fe := F * inv(Fp_old), S := C : Ee(Fe). Pure function of its inputs;
// blow-ups are caught by the divergence check of the outer loop.
func (o *CrystalPlast) predictor(it *Iterate) {
	la.MatMatMul(it.Fe, 1, it.F, it.FpiOld)
	greenStrain(it.Ee, it.Fe, it.ta)
	o.Elast.Contract(it.S, it.Ee)
}

// solveStress runs the outer Newton-Raphson iteration on the stress
// residual, staggered with the model's internal-variable update: the
// inner state is re-equilibrated against the candidate stress before
// each residual evaluation. Tolerances and budgets come from the model
// parameters. Errors are the three recoverable conditions only.
func (o *CrystalPlast) solveStress(mdl constitutive, it *Iterate) (err error) {

	// storage for the Newton system
	R := la.NewVector(6)
	Rp := la.NewVector(6)
	J := la.NewMatrix(6, 6)
	Ji := la.NewMatrix(6, 6)

	var rnorm, rnorm0, rmin float64
	for itn := 0; itn < o.MaxitS; itn++ {
		it.It = itn

		// inner solve, then residual consistent with it
		err = mdl.updateInternalState(it)
		if err != nil {
			return
		}
		err = mdl.computeResidual(it, R)
		if err != nil {
			return
		}

		// convergence control
		rnorm = R.Norm()
		if itn == 0 {
			rnorm0, rmin = rnorm, rnorm
		}
		if rnorm < o.atolR || rnorm < o.TolR*rnorm0 {
			return nil
		}
		if rnorm > o.DvgFac*rmin {
			return &NonConvergence{It: itn, Rnorm: rnorm}
		}
		if rnorm < rmin {
			rmin = rnorm
		}

		// forward-difference tangent dR/dS
		for j := 0; j < 6; j++ {
			h := o.fdEps * (o.atolR/o.TolR + math.Abs(it.S[j]))
			sj := it.S[j]
			it.S[j] = sj + h
			err = mdl.computeResidual(it, Rp)
			it.S[j] = sj
			if err != nil {
				return
			}
			for i := 0; i < 6; i++ {
				J.Set(i, j, (Rp[i]-R[i])/h)
			}
		}

		// Newton update: S += -inv(J)*R
		err = invertTangent(Ji, J, itn)
		if err != nil {
			return
		}
		for i := 0; i < 6; i++ {
			for j := 0; j < 6; j++ {
				it.S[i] -= Ji.Get(i, j) * R[j]
			}
		}
	}
	return &NonConvergence{It: o.MaxitS, Rnorm: rnorm}
}

// invertTangent inverts the 6x6 Newton tangent. The dense LU
// factorisation panics on singular input, so the panic is converted here
// into the recoverable IllConditionedTangent condition.
func invertTangent(Ji, J *la.Matrix, itn int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &IllConditionedTangent{It: itn, Msg: io.Sf("%v", r)}
		}
	}()
	for i := 0; i < 6; i++ {
		allzero := true
		for j := 0; j < 6; j++ {
			if J.Get(i, j) != 0 {
				allzero = false
				break
			}
		}
		if allzero {
			return &IllConditionedTangent{It: itn, Msg: io.Sf("tangent row %d is zero", i)}
		}
	}
	la.MatInv(Ji, J, false)
	return
}
