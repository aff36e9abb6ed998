// Copyright 2016 The Marisol Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package crystal

import (
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/fun/dbf"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/la"
	"github.com/cpmech/gosl/num"
	"github.com/cpmech/gosl/utl"
)

// Driver runs single-point deformation paths on crystal-plasticity models.
// It plays the role of the host time-stepping loop: it owns the old
// snapshot, decides on sub-stepping when an increment fails with
// NonConvergence, and optionally checks the consistent tangent operator.
type Driver struct {

	// settings
	Silent  bool       // do not show header
	CheckA  bool       // check consistent tangent
	TolA    float64    // tolerance to check tangent
	VerA    bool       // verbose tangent check
	TstA    *testing.T // for tangent check
	NdivMax int        // maximum number of increment halvings

	// model and results
	model Model        // crystal-plasticity model
	large LargeDef     // large-deformation interface of model
	s     *State       // current state
	Res   []*State     // committed state after each increment
	Fs    []*la.Matrix // total deformation gradient after each increment

	// statistics
	Naccept int // number of accepted (sub-)steps
	Nreject int // number of rejected (sub-)steps

	// auxiliary
	A [][][][]float64 // consistent tangent [3][3][3][3]
}

// Init initialises driver and model
func (o *Driver) Init(simfnk, modelname string, prms dbf.Params) (err error) {
	o.model, err = New(modelname)
	if err != nil {
		return
	}
	err = o.model.Init(3, false, prms)
	if err != nil {
		return
	}
	var ok bool
	o.large, ok = o.model.(LargeDef)
	if !ok {
		return chk.Err("model %q does not implement the large-deformation interface", modelname)
	}
	o.s, err = o.model.InitIntVars()
	if err != nil {
		return
	}
	o.TolA = 1e-3
	o.NdivMax = 10
	o.A = utl.Deep4alloc(3, 3, 3, 3)
	return
}

// Model returns the allocated model
func (o *Driver) Model() Model {
	return o.model
}

// State returns the current state
func (o *Driver) State() *State {
	return o.s
}

// Run runs the deformation path, sub-stepping on NonConvergence
func (o *Driver) Run(pth *Path) (err error) {

	// store initial state
	o.Res = []*State{o.s.GetCopy()}
	o.Fs = []*la.Matrix{o.s.F.GetCopy()}

	// for each path leg
	F0 := o.s.F.GetCopy()
	F1 := la.NewMatrix(3, 3)
	for leg := 0; leg < len(pth.Fend); leg++ {
		nincs := pth.Nincs[leg]
		Δt := pth.Dt[leg] / float64(nincs)
		for inc := 0; inc < nincs; inc++ {

			// increment target
			α := float64(inc+1) / float64(nincs)
			for i := 0; i < 3; i++ {
				for j := 0; j < 3; j++ {
					F1.Set(i, j, F0.Get(i, j)+α*(pth.Fend[leg].Get(i, j)-F0.Get(i, j)))
				}
			}

			// backup for tangent check and sub-stepping
			sOld := o.s.GetCopy()

			// update with sub-stepping on failure
			err = o.substep(o.s.F.GetCopy(), F1, Δt, 0)
			if err != nil {
				return chk.Err("driver: increment %d of leg %d failed:\n%v", inc, leg, err)
			}

			// results
			o.Res = append(o.Res, o.s.GetCopy())
			o.Fs = append(o.Fs, F1.GetCopy())

			// check consistent tangent
			if o.CheckA {
				err = o.checkTangent(sOld, F1, Δt)
				if err != nil {
					return
				}
			}
		}
		pth.Fend[leg].CopyInto(F0, 1)
	}
	return
}

// substep advances the state from gradient Fa to Fb over Δt, recursively
// halving the increment on NonConvergence (bounded by NdivMax)
func (o *Driver) substep(Fa, Fb *la.Matrix, Δt float64, depth int) (err error) {
	backup := o.s.GetCopy()
	err = o.large.Update(o.s, Fb, Δt)
	if err == nil {
		o.Naccept++
		return
	}
	if _, ok := err.(*NonConvergence); !ok {
		return // IllConditionedTangent and InvalidState are not retried
	}
	o.s.Set(backup)
	o.Nreject++
	if depth >= o.NdivMax {
		return chk.Err("substepping limit (%d halvings) reached:\n%v", o.NdivMax, err)
	}
	if !o.Silent {
		io.Pfred(". . . sub-stepping (%d) . . .\n", depth+1)
	}
	Fm := la.NewMatrix(3, 3)
	la.MatAdd(Fm, 0.5, Fa, 0.5, Fb)
	err = o.substep(Fa, Fm, Δt/2.0, depth+1)
	if err != nil {
		return
	}
	return o.substep(Fm, Fb, Δt/2.0, depth+1)
}

// checkTangent compares CalcA with central-difference derivatives of the
// committed Cauchy stress with respect to F
func (o *Driver) checkTangent(sOld *State, F *la.Matrix, Δt float64) (err error) {
	err = o.large.CalcA(o.A, sOld, F, Δt)
	if err != nil {
		return chk.Err("CalcA failed:\n%v", err)
	}
	if o.VerA {
		io.Pfpink("\nconsistent tangent check\n")
	}
	Fc := F.GetCopy()
	st := sOld.GetCopy()
	var tmp float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 3; k++ {
				for l := 0; l < 3; l++ {
					dnum := num.DerivCen5(F.Get(k, l), 1e-6, func(x float64) (res float64) {
						tmp, res = Fc.Get(k, l), 0
						Fc.Set(k, l, x)
						st.Set(sOld)
						if e := o.large.Update(st, Fc, Δt); e == nil {
							res = manGet(st.Sig, i, j)
						}
						Fc.Set(k, l, tmp)
						return
					})
					chk.AnaNum(o.TstA, io.Sf("A%d%d%d%d", i, j, k, l), o.TolA, o.A[i][j][k][l], dnum, o.VerA)
				}
			}
		}
	}
	return
}
