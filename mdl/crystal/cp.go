// Copyright 2016 The Marisol Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package crystal

import (
	"math"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/fun"
	"github.com/cpmech/gosl/fun/dbf"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/la"
	"github.com/cpmech/gosl/utl"
)

// CrystalPlast implements rate-dependent finite-strain crystal plasticity
// with a power-law flow rule and Voce-type saturation hardening. The PK2
// stress at the intermediate configuration is found by a Newton iteration
// on the residual R(S) = S - C:Ee(S), staggered with a backward-Euler
// fixed-point update of the slip resistances.
type CrystalPlast struct {

	// elasticity and slip geometry (shared, read-only after Init)
	Elast Elasticity
	Ssys  SlipSet
	Qab   [][]float64 // latent hardening matrix [nss][nss]

	// parameters
	rho   float64 // density
	a0    float64 // reference slip rate
	xm    float64 // rate sensitivity exponent
	g0    float64 // initial slip resistance
	gsat  float64 // saturation resistance
	h0    float64 // reference hardening rate
	ahard float64 // hardening exponent
	qlat  float64 // latent hardening ratio (non-coplanar systems)
	dgmax float64 // largest admissible |Δγ| per sub-step

	// solver control
	TolR   float64 // relative tolerance of the outer residual
	MaxitS int     // outer iteration budget
	TolG   float64 // relative tolerance of the inner resistance update
	MaxitG int     // inner iteration budget
	DvgFac float64 // divergence factor: rnorm > DvgFac*min(rnorm) fails
	TolJp  float64 // admissible |det(Fp)-1| drift before renormalisation

	// derived
	atolR float64 // absolute residual floor (scaled by C44)
	fdEps float64 // forward-difference relative step
}

// add model to factory
func init() {
	allocators["cp"] = func() Model { return new(CrystalPlast) }
}

// Init initialises model
func (o *CrystalPlast) Init(ndim int, pstress bool, prms dbf.Params) (err error) {
	if pstress {
		return chk.Err("crystal plasticity model: plane-stress analyses are not available")
	}

	// default parameters (FCC copper, MPa)
	c11, c12, c44 := 1.684e5, 1.214e5, 7.54e4
	var φ1, Φ, φ2 float64
	o.rho = 8.96
	o.a0 = 0.001
	o.xm = 0.05
	o.g0 = 60.8
	o.gsat = 109.8
	o.h0 = 541.5
	o.ahard = 2.5
	o.qlat = 1.4
	o.dgmax = 0.02
	o.TolR = 1e-6
	o.MaxitS = 30
	o.TolG = 1e-6
	o.MaxitG = 100
	o.DvgFac = 1e4
	o.TolJp = 1e-4
	o.fdEps = 1e-7

	// parameters
	for _, p := range prms {
		switch p.N {
		case "c11":
			c11 = p.V
		case "c12":
			c12 = p.V
		case "c44":
			c44 = p.V
		case "rho":
			o.rho = p.V
		case "phi1":
			φ1 = p.V * math.Pi / 180.0
		case "Phi":
			Φ = p.V * math.Pi / 180.0
		case "phi2":
			φ2 = p.V * math.Pi / 180.0
		case "a0":
			o.a0 = p.V
		case "xm":
			o.xm = p.V
		case "g0":
			o.g0 = p.V
		case "gsat":
			o.gsat = p.V
		case "h0":
			o.h0 = p.V
		case "ahard":
			o.ahard = p.V
		case "q":
			o.qlat = p.V
		case "dgmax":
			o.dgmax = p.V
		case "tolR":
			o.TolR = p.V
		case "maxitS":
			o.MaxitS = int(p.V)
		case "tolG":
			o.TolG = p.V
		case "maxitG":
			o.MaxitG = int(p.V)
		case "dvgfac":
			o.DvgFac = p.V
		case "toljp":
			o.TolJp = p.V
		case "fdeps":
			o.fdEps = p.V
		}
	}
	if o.a0 <= 0 || o.xm <= 0 || o.g0 <= 0 {
		return chk.Err("invalid flow-rule parameters: {a0=%g, xm=%g, g0=%g} must be all > 0", o.a0, o.xm, o.g0)
	}

	// crystal orientation and slip geometry
	R := la.NewMatrix(3, 3)
	EulerRotation(R, φ1, Φ, φ2)
	o.Ssys, err = NewFCCSystems(R)
	if err != nil {
		return
	}

	// elasticity tensor rotated into the sample frame
	err = o.Elast.Init(c11, c12, c44, R)
	if err != nil {
		return
	}
	o.atolR = 1e-8 * c44

	// latent hardening matrix: 1 for coplanar pairs, qlat otherwise
	o.buildQab(o.Ssys)
	return
}

// GetPrms gets (an example) of parameters
func (o CrystalPlast) GetPrms() dbf.Params {
	return []*dbf.P{
		&dbf.P{N: "c11", V: 1.684e5},
		&dbf.P{N: "c12", V: 1.214e5},
		&dbf.P{N: "c44", V: 7.54e4},
		&dbf.P{N: "rho", V: 8.96},
		&dbf.P{N: "a0", V: 0.001},
		&dbf.P{N: "xm", V: 0.05},
		&dbf.P{N: "g0", V: 60.8},
		&dbf.P{N: "gsat", V: 109.8},
		&dbf.P{N: "h0", V: 541.5},
		&dbf.P{N: "ahard", V: 2.5},
		&dbf.P{N: "q", V: 1.4},
	}
}

// SetSystems replaces the slip-system table (e.g. by a reduced set for
// single-crystal studies) and rebuilds the latent-hardening matrix
func (o *CrystalPlast) SetSystems(set SlipSet) {
	o.Ssys = set
	o.buildQab(set)
}

// buildQab fills the latent-hardening interaction matrix
func (o *CrystalPlast) buildQab(set SlipSet) {
	nss := len(set)
	o.Qab = utl.Alloc(nss, nss)
	for i := 0; i < nss; i++ {
		for j := 0; j < nss; j++ {
			if coplanar(set[i], set[j]) {
				o.Qab[i][j] = 1.0
			} else {
				o.Qab[i][j] = o.qlat
			}
		}
	}
}

// GetRho returns density
func (o CrystalPlast) GetRho() float64 {
	return o.rho
}

// Nsys returns the number of slip systems
func (o CrystalPlast) Nsys() int {
	return len(o.Ssys)
}

// InitIntVars initialises internal (secondary) variables
func (o CrystalPlast) InitIntVars() (s *State, err error) {
	s = NewState(len(o.Ssys), false)
	s.Gss.Fill(o.g0)
	return
}

// Update solves one sub-step. See LargeDef.
func (o *CrystalPlast) Update(s *State, F *la.Matrix, Δt float64) error {
	return o.update(o, s, F, Δt)
}

// update is the generic step driver shared by all variants
func (o *CrystalPlast) update(mdl constitutive, s *State, F *la.Matrix, Δt float64) (err error) {

	// trial state (preSolveStatevar: resistances start from the old
	// converged values, stress from the elastic predictor)
	it, err := o.newIterate(s, F, Δt)
	if err != nil {
		return
	}
	o.predictor(it)

	// staggered Newton solve
	err = o.solveStress(mdl, it)
	if err != nil {
		return
	}

	// commit (postSolveStatevar)
	return o.commit(mdl, s, it)
}

// commit writes the converged iterate into the persistent state. All
// checks run on scratch storage first so that a failed commit leaves s
// untouched for the caller to retry.
func (o *CrystalPlast) commit(mdl constitutive, s *State, it *Iterate) (err error) {

	// plastic gradient: invert and renormalise to unit determinant
	d, ok := matInv3(it.ta, it.Fpi, 1e-10)
	if !ok {
		return &InvalidState{Msg: "converged plastic deformation gradient is singular"}
	}
	d = matDet(it.ta)
	if math.Abs(d-1.0) > o.TolJp {
		return &InvalidState{Msg: io.Sf("det(Fp) = %g drifted from 1 beyond tolerance %g", d, o.TolJp)}
	}
	c := math.Pow(d, 1.0/3.0)
	it.ta.Apply(1.0/c, it.ta)
	if _, ok = matInv3(it.Fpi, it.ta, 1e-10); !ok {
		return &InvalidState{Msg: "renormalised plastic deformation gradient is singular"}
	}

	// elastic gradient and Cauchy stress consistent with the
	// renormalised plastic part
	it.ta.CopyInto(s.Fp, 1)
	la.MatMatMul(s.Fe, 1, it.F, it.Fpi)
	it.F.CopyInto(s.F, 1)
	pushStress(s.Sig, s.Fe, it.S, it.ta, it.tb)

	// internal variables
	copy(s.Gss, it.Gss)

	// energies and regularisation (variant-dependent)
	mdl.computeEnergies(s, it)
	return
}

// computeResidual evaluates R = S - C:Ee(S) for the candidate stress and
// the current resistance guesses. It also refreshes the slip increments
// and the implied kinematics stored in the iterate.
func (o *CrystalPlast) computeResidual(it *Iterate, R la.Vector) (err error) {

	// slip increments for candidate stress
	dg := o.Ssys.Shear(it.Dgam, it.Tau, it.S, it.Gss, o.a0, o.xm, it.Δt)
	if dg > o.dgmax {
		return &NonConvergence{Inner: true, It: it.It, Rnorm: dg}
	}

	// plastic flow over the sub-step: Fp^-1 := Fp_old^-1 * (I - Σ Δγ S0),
	// renormalised so that plastic flow stays isochoric
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			sum := 0.0
			for s, ss := range o.Ssys {
				sum -= it.Dgam[s] * ss.S0.Get(i, j)
			}
			it.ta.Set(i, j, sum)
		}
		it.ta.Add(i, i, 1.0)
	}
	d := matDet(it.ta)
	if math.Abs(d-1.0) > o.TolJp {
		return &InvalidState{Msg: io.Sf("det(I-ΣΔγS0) = %g drifted from 1 beyond tolerance %g", d, o.TolJp)}
	}
	c := math.Pow(d, 1.0/3.0)
	it.ta.Apply(1.0/c, it.ta)
	la.MatMatMul(it.Fpi, 1, it.FpiOld, it.ta)

	// implied elastic state
	la.MatMatMul(it.Fe, 1, it.F, it.Fpi)
	greenStrain(it.Ee, it.Fe, it.tb)
	o.Elast.Contract(it.spred, it.Ee)

	// residual
	for i := 0; i < 6; i++ {
		R[i] = it.S[i] - it.spred[i]
	}
	return
}

// updateInternalState solves the backward-Euler update of the slip
// resistances for the fixed candidate stress by fixed-point iteration:
//   g_i = g_old_i + Σ_j Qab_ij * h(g_j) * |Δγ_j(S, g_j)|
// with the Voce hardening modulus h(g) = h0*|1-g/gsat|^a*sign(1-g/gsat)
func (o *CrystalPlast) updateInternalState(it *Iterate) (err error) {
	var maxΔ float64
	for itg := 0; itg < o.MaxitG; itg++ {
		it.ItG = itg

		// slip increments at the current resistance guess
		dg := o.Ssys.Shear(it.Dgam, it.Tau, it.S, it.Gss, o.a0, o.xm, it.Δt)
		if dg > o.dgmax {
			return &NonConvergence{Inner: true, It: itg, Rnorm: dg}
		}

		// backward-Euler target
		maxΔ = 0
		for i := range o.Ssys {
			gnew := it.GssOld[i]
			for j := range o.Ssys {
				gnew += o.Qab[i][j] * o.hardMod(it.Gss[j]) * math.Abs(it.Dgam[j])
			}
			if diff := math.Abs(gnew - it.Gss[i]); diff > maxΔ {
				maxΔ = diff
			}
			it.Gss[i] = gnew
		}
		if maxΔ < o.TolG*o.g0 {
			return nil
		}
	}
	return &NonConvergence{Inner: true, It: o.MaxitG, Rnorm: maxΔ}
}

// hardMod returns the Voce hardening modulus at resistance g
func (o *CrystalPlast) hardMod(g float64) float64 {
	x := 1.0 - g/o.gsat
	return o.h0 * math.Pow(math.Abs(x), o.ahard) * fun.Sign(x)
}

// computeEnergies: the base model does not track energies
func (o *CrystalPlast) computeEnergies(s *State, it *Iterate) {
}

// CalcA computes the consistent tangent dσ/dF by forward differences,
// re-solving the sub-step from the old snapshot under perturbed F
func (o *CrystalPlast) CalcA(A [][][][]float64, sOld *State, F *la.Matrix, Δt float64) error {
	return o.calcA(o, A, sOld, F, Δt)
}

// calcA is the generic numerical tangent shared by all variants
func (o *CrystalPlast) calcA(mdl constitutive, A [][][][]float64, sOld *State, F *la.Matrix, Δt float64) (err error) {
	σ0 := la.NewVector(6)
	st := sOld.GetCopy()
	err = o.update(mdl, st, F, Δt)
	if err != nil {
		return
	}
	copy(σ0, st.Sig)
	Fp := F.GetCopy()
	for k := 0; k < 3; k++ {
		for l := 0; l < 3; l++ {
			h := o.fdEps * (1.0 + math.Abs(F.Get(k, l)))
			Fp.Set(k, l, F.Get(k, l)+h)
			st.Set(sOld)
			err = o.update(mdl, st, Fp, Δt)
			Fp.Set(k, l, F.Get(k, l))
			if err != nil {
				return
			}
			for i := 0; i < 3; i++ {
				for j := 0; j < 3; j++ {
					A[i][j][k][l] = (manGet(st.Sig, i, j) - manGet(σ0, i, j)) / h
				}
			}
		}
	}
	return
}

// ContA computes the continuous (purely elastic) tangent operator
func (o *CrystalPlast) ContA(A [][][][]float64, s *State) error {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 3; k++ {
				copy(A[i][j][k], o.Elast.Ce[i][j][k])
			}
		}
	}
	return nil
}

// coplanar tells whether two slip systems share the same plane
func coplanar(a, b *SlipSystem) bool {
	return math.Abs(la.VecDot(a.N, b.N)) > 1.0-1e-10
}
