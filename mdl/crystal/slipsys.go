// Copyright 2016 The Marisol Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package crystal

import (
	"math"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/fun"
	"github.com/cpmech/gosl/la"
)

// SlipSystem holds the fixed geometric descriptor of one slip system in
// the sample frame. It is immutable once the crystal is oriented.
type SlipSystem struct {
	D  la.Vector  // unit slip direction [3]
	N  la.Vector  // unit slip-plane normal [3]
	S0 *la.Matrix // Schmid tensor D dyad N [3][3] (non-symmetric)
	P  la.Vector  // symmetric part of S0 in Mandel basis [6]
}

// SlipSet is the ordered, shared, read-only collection of slip systems of
// one oriented crystal
type SlipSet []*SlipSystem

// fccD and fccN list the 12 octahedral {111}<110> systems of an FCC
// lattice in the crystal frame (not normalised)
var fccD = [][]float64{
	{0, 1, -1}, {1, 0, -1}, {1, -1, 0},
	{0, 1, -1}, {1, 0, 1}, {1, 1, 0},
	{0, 1, 1}, {1, 0, -1}, {1, 1, 0},
	{0, 1, 1}, {1, 0, 1}, {1, -1, 0},
}

var fccN = [][]float64{
	{1, 1, 1}, {1, 1, 1}, {1, 1, 1},
	{-1, 1, 1}, {-1, 1, 1}, {-1, 1, 1},
	{1, -1, 1}, {1, -1, 1}, {1, -1, 1},
	{1, 1, -1}, {1, 1, -1}, {1, 1, -1},
}

// NewFCCSystems builds the 12-system FCC table rotated by the crystal
// orientation R (sample = R * crystal). R == nil means aligned axes.
func NewFCCSystems(R *la.Matrix) (set SlipSet, err error) {
	set = make([]*SlipSystem, len(fccD))
	for s := 0; s < len(fccD); s++ {
		set[s], err = newSystem(fccD[s], fccN[s], R)
		if err != nil {
			return nil, err
		}
	}
	return
}

// NewSystems builds a slip-system table from explicit direction/normal
// pairs (crystal frame, need not be normalised) rotated by R
func NewSystems(dirs, normals [][]float64, R *la.Matrix) (set SlipSet, err error) {
	if len(dirs) != len(normals) {
		return nil, chk.Err("slip directions and normals must come in pairs: %d != %d", len(dirs), len(normals))
	}
	set = make([]*SlipSystem, len(dirs))
	for s := 0; s < len(dirs); s++ {
		set[s], err = newSystem(dirs[s], normals[s], R)
		if err != nil {
			return nil, err
		}
	}
	return
}

// newSystem normalises, rotates and pre-computes the Schmid tensors
func newSystem(d, n la.Vector, R *la.Matrix) (ss *SlipSystem, err error) {
	if math.Abs(la.VecDot(d, n)) > 1e-12 {
		return nil, chk.Err("slip direction %v is not orthogonal to plane normal %v", d, n)
	}
	ss = &SlipSystem{
		D:  la.NewVector(3),
		N:  la.NewVector(3),
		S0: la.NewMatrix(3, 3),
		P:  la.NewVector(6),
	}
	dno, nno := d.Norm(), n.Norm()
	for i := 0; i < 3; i++ {
		ss.D[i] = d[i] / dno
		ss.N[i] = n[i] / nno
	}
	if R != nil {
		dr, nr := la.NewVector(3), la.NewVector(3)
		la.MatVecMul(dr, 1, R, ss.D)
		la.MatVecMul(nr, 1, R, ss.N)
		copy(ss.D, dr)
		copy(ss.N, nr)
	}
	la.VecVecTrMul(ss.S0, 1, ss.D, ss.N)
	tmp := la.NewMatrix(3, 3)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			tmp.Set(i, j, 0.5*(ss.D[i]*ss.N[j]+ss.D[j]*ss.N[i]))
		}
	}
	tenToMan(ss.P, tmp)
	return
}

// Resolved computes the resolved shear stress τ = S : P on this system
// for a stress S given in Mandel basis
func (o *SlipSystem) Resolved(S la.Vector) float64 {
	return la.VecDot(S, o.P)
}

// Shear computes, for every system, the resolved shear stress
// τ = S : P and the shear increment Δγ = Δt * a0 * |τ/g|^(1/m) * sign(τ)
// of the power-law flow rule. It is a pure mapping from (stress,
// resistances, Δt) to per-system increments; dgmax is the largest |Δγ|
// found, used by the caller to detect meaningless backward-Euler steps.
func (o SlipSet) Shear(Δγ, τ, S, gss la.Vector, a0, m, Δt float64) (dgmax float64) {
	for s, ss := range o {
		τ[s] = ss.Resolved(S)
		Δγ[s] = Δt * a0 * math.Pow(math.Abs(τ[s]/gss[s]), 1.0/m) * fun.Sign(τ[s])
		if math.Abs(Δγ[s]) > dgmax {
			dgmax = math.Abs(Δγ[s])
		}
	}
	return
}

// EulerRotation fills R with the rotation matrix corresponding to the
// Bunge z-x-z Euler angles (radians), mapping crystal to sample frame
func EulerRotation(R *la.Matrix, φ1, Φ, φ2 float64) {
	c1, s1 := math.Cos(φ1), math.Sin(φ1)
	c, s := math.Cos(Φ), math.Sin(Φ)
	c2, s2 := math.Cos(φ2), math.Sin(φ2)
	R.Set(0, 0, c1*c2-s1*s2*c)
	R.Set(0, 1, -c1*s2-s1*c2*c)
	R.Set(0, 2, s1*s)
	R.Set(1, 0, s1*c2+c1*s2*c)
	R.Set(1, 1, -s1*s2+c1*c2*c)
	R.Set(1, 2, -c1*s)
	R.Set(2, 0, s2*s)
	R.Set(2, 1, c2*s)
	R.Set(2, 2, c)
}
