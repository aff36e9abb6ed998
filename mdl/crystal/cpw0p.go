// Copyright 2016 The Marisol Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package crystal

import (
	"github.com/cpmech/gosl/fun/dbf"
	"github.com/cpmech/gosl/la"
)

// CrystalPlastW0p augments CrystalPlast with energy bookkeeping and
// artificial bulk-viscosity regularisation for shock-like loading:
//   - stored elastic energy W0e = S:Ee/2 and accumulated plastic work
//     W0p, with their strain derivatives for the host Jacobian assembly
//   - a quadratic "Von Neumann" pressure C0*rho*(L*tr(D))² and a linear
//     "Landshoff" pressure C1*rho*c*L*|tr(D)|, both active only under
//     volumetric compression
// The viscous pressures never enter the stress residual: the volumetric
// strain rate is fixed within a sub-step, so they amount to a constant
// pressure shift applied after convergence (viscstress=1) or to pure
// energy bookkeeping (viscstress=0, default).
type CrystalPlastW0p struct {
	CrystalPlast

	// parameters
	C0         float64 // Von Neumann (quadratic) coefficient
	C1         float64 // Landshoff (linear) coefficient
	lch        float64 // characteristic element length
	cwave      float64 // elastic wave speed
	viscstress bool    // add viscous pressure to the committed stress
}

// add model to factory
func init() {
	allocators["cp-w0p"] = func() Model { return new(CrystalPlastW0p) }
}

// Init initialises model
func (o *CrystalPlastW0p) Init(ndim int, pstress bool, prms dbf.Params) (err error) {
	err = o.CrystalPlast.Init(ndim, pstress, prms)
	if err != nil {
		return
	}
	o.lch = 1.0
	for _, p := range prms {
		switch p.N {
		case "C0":
			o.C0 = p.V
		case "C1":
			o.C1 = p.V
		case "lch":
			o.lch = p.V
		case "cwave":
			o.cwave = p.V
		case "viscstress":
			o.viscstress = p.V > 0
		}
	}
	return
}

// GetPrms gets (an example) of parameters
func (o CrystalPlastW0p) GetPrms() dbf.Params {
	prms := o.CrystalPlast.GetPrms()
	return append(prms, []*dbf.P{
		&dbf.P{N: "C0", V: 2.0},
		&dbf.P{N: "C1", V: 1.0},
		&dbf.P{N: "lch", V: 1.0},
		&dbf.P{N: "cwave", V: 3940.0},
		&dbf.P{N: "viscstress", V: 0},
	}...)
}

// InitIntVars initialises internal (secondary) variables
func (o CrystalPlastW0p) InitIntVars() (s *State, err error) {
	s = NewState(len(o.Ssys), true)
	s.Gss.Fill(o.g0)
	return
}

// Update solves one sub-step. See LargeDef.
func (o *CrystalPlastW0p) Update(s *State, F *la.Matrix, Δt float64) error {
	return o.update(o, s, F, Δt)
}

// CalcA computes the consistent tangent dσ/dF. See LargeDef.
func (o *CrystalPlastW0p) CalcA(A [][][][]float64, sOld *State, F *la.Matrix, Δt float64) error {
	return o.calcA(o, A, sOld, F, Δt)
}

// Energies returns the current energy totals
func (o CrystalPlastW0p) Energies(s *State) (W0e, W0p, Wv float64) {
	return s.W0e, s.W0p, s.Wvisc
}

// computeEnergies performs the post-convergence bookkeeping. The "old"
// totals held by s are only read and then overwritten with the new
// snapshot; plastic work and viscous dissipation increments are
// non-negative, elastic energy is a function of the current elastic
// strain only.
func (o *CrystalPlastW0p) computeEnergies(s *State, it *Iterate) {

	// elastic strain energy and its strain derivative dW0e/dE = S
	s.W0e = 0.5 * la.VecDot(it.S, it.Ee)
	copy(s.DW0eDE, it.S)

	// plastic work: τ and Δγ share signs, so the increment is >= 0
	for i, τ := range it.Tau {
		s.W0p += τ * it.Dgam[i]
	}

	// dW0p/dE increment: Σ Δγ_s C:P_s at fixed slip increments
	for i, ss := range o.Ssys {
		o.Elast.Contract(it.spred, ss.P)
		for j := 0; j < 6; j++ {
			s.DW0pDE[j] += it.Dgam[i] * it.spred[j]
		}
	}

	// bulk viscosity: volumetric strain rate from Jdot = J*tr(D),
	// active only under compression (tr(D) < 0)
	if o.C0 > 0 || o.C1 > 0 {
		Jn, Jo := matDet(it.F), matDet(it.Fold)
		trD := (Jn - Jo) / (it.Δt * Jn)
		if trD < 0 {
			qv := o.C0*o.rho*(o.lch*trD)*(o.lch*trD) + o.C1*o.rho*o.cwave*o.lch*(-trD)
			s.Wvisc += qv * (-trD) * it.Δt
			if o.viscstress {
				for i := 0; i < 3; i++ {
					s.Sig[i] -= qv
				}
			}
		}
	}
}
