// Copyright 2016 The Marisol Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package crystal

import (
	"math"
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/fun/dbf"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/la"
	"github.com/cpmech/gosl/utl"
)

func Test_fact01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("fact01. model factory")

	mdl, err := New("cp")
	if err != nil {
		tst.Errorf("cannot allocate 'cp':\n%v", err)
		return
	}
	if _, ok := mdl.(*CrystalPlast); !ok {
		tst.Errorf("'cp' has wrong underlying type")
		return
	}

	mdl, err = New("cp-w0p")
	if err != nil {
		tst.Errorf("cannot allocate 'cp-w0p':\n%v", err)
		return
	}
	if _, ok := mdl.(*CrystalPlastW0p); !ok {
		tst.Errorf("'cp-w0p' has wrong underlying type")
		return
	}
	if _, ok := mdl.(LargeDef); !ok {
		tst.Errorf("'cp-w0p' must implement the large-deformation interface")
		return
	}

	_, err = New("unknown-model")
	if err == nil {
		tst.Errorf("unknown model name must not be accepted")
		return
	}
	io.Pforan("err = %v\n", err)

	// plane-stress analyses are not available
	err = mdl.Init(2, true, nil)
	if err == nil {
		tst.Errorf("plane-stress initialisation must not be accepted")
		return
	}
	io.Pforan("err = %v\n", err)
}

func Test_cp01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("cp01. elastic limit: uniaxial stretch")

	c11, c12 := 1.684e5, 1.214e5
	g0 := 60.8

	var drv Driver
	drv.Silent = !chk.Verbose
	err := drv.Init("cp01", "cp", nil)
	if err != nil {
		tst.Errorf("driver initialisation failed:\n%v", err)
		return
	}
	chk.IntAssert(drv.Model().Nsys(), 12)
	chk.Float64(tst, "rho", 1e-15, drv.Model().GetRho(), 8.96)

	// a 1e-4 stretch stays far below the resolved-shear resistance:
	// the response must be purely elastic
	λ := 1.0001
	var pth Path
	err = pth.SetUniaxial(λ, 1.0, 2)
	if err != nil {
		tst.Errorf("path failed:\n%v", err)
		return
	}
	err = drv.Run(&pth)
	if err != nil {
		tst.Errorf("driver run failed:\n%v", err)
		return
	}

	st := drv.State()
	chk.Deep2(tst, "Fp", 1e-12, st.Fp.GetDeep2(), [][]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}})
	chk.Float64(tst, "detFp", 1e-12, matDet(st.Fp), 1.0)
	for i, g := range st.Gss {
		chk.Float64(tst, io.Sf("g%d", i), 1e-10, g, g0)
	}

	// closed-form elastic solution: E11 = (λ²-1)/2, S = C:E,
	// σ = Fe*S*transp(Fe)/J with Fe = diag(λ,1,1)
	e := 0.5 * (λ*λ - 1.0)
	chk.Float64(tst, "σ11", 1e-6, manGet(st.Sig, 0, 0), λ*c11*e)
	chk.Float64(tst, "σ22", 1e-6, manGet(st.Sig, 1, 1), c12*e/λ)
	chk.Float64(tst, "σ12", 1e-6, manGet(st.Sig, 0, 1), 0)
	chk.IntAssert(drv.Nreject, 0)
}

func Test_cp02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("cp02. plastic loading: uniaxial stretch")

	var drv Driver
	drv.Silent = !chk.Verbose
	err := drv.Init("cp02", "cp", nil)
	if err != nil {
		tst.Errorf("driver initialisation failed:\n%v", err)
		return
	}

	// 0.5% stretch at a rate comparable to a0, well past yield
	λ := 1.005
	var pth Path
	err = pth.SetUniaxial(λ, 5.0, 20)
	if err != nil {
		tst.Errorf("path failed:\n%v", err)
		return
	}
	err = drv.Run(&pth)
	if err != nil {
		tst.Errorf("driver run failed:\n%v", err)
		return
	}
	io.Pforan("naccept=%d nreject=%d\n", drv.Naccept, drv.Nreject)

	// plastic flow is isochoric
	st := drv.State()
	chk.Float64(tst, "detFp", 1e-10, matDet(st.Fp), 1.0)

	// hardening: resistances never decrease along the path and end up
	// above their initial value
	g0 := 60.8
	for i := 1; i < len(drv.Res); i++ {
		for s := range st.Gss {
			if drv.Res[i].Gss[s] < drv.Res[i-1].Gss[s]-1e-12 {
				tst.Errorf("resistance %d decreased at increment %d", s, i)
				return
			}
		}
	}
	if st.Gss[0] <= g0 {
		tst.Errorf("no hardening happened: g = %g", st.Gss[0])
		return
	}

	// the axial stress must sit far below the elastic prediction
	σ11 := manGet(st.Sig, 0, 0)
	σel := λ * 1.684e5 * 0.5 * (λ*λ - 1.0)
	io.Pforan("σ11=%g (elastic would be %g)\n", σ11, σel)
	if σ11 <= 0 || σ11 > 0.5*σel {
		tst.Errorf("axial stress %g is not in the plastic range", σ11)
		return
	}

	if false {
		var plr Plotter
		plr.SetFig(false, 0.75, 500, "/tmp/marisol", "cp02")
		plr.Plot(drv.Res, drv.Fs, true)
	}
}

func Test_cp03(tst *testing.T) {

	//verbose()
	chk.PrintTitle("cp03. sub-stepping on slip-increment overflow")

	// a tight slip cap makes the full increment fail; the driver must
	// recover by recursive halving
	prms := dbf.Params{
		&dbf.P{N: "dgmax", V: 5e-4},
	}
	var drv Driver
	drv.Silent = !chk.Verbose
	err := drv.Init("cp03", "cp", prms)
	if err != nil {
		tst.Errorf("driver initialisation failed:\n%v", err)
		return
	}

	var pth Path
	err = pth.SetUniaxial(1.002, 1.0, 1)
	if err != nil {
		tst.Errorf("path failed:\n%v", err)
		return
	}
	err = drv.Run(&pth)
	if err != nil {
		tst.Errorf("driver run failed:\n%v", err)
		return
	}
	io.Pforan("naccept=%d nreject=%d\n", drv.Naccept, drv.Nreject)
	if drv.Nreject < 1 {
		tst.Errorf("no increment was rejected: dgmax cap did not engage")
		return
	}
	chk.Float64(tst, "detFp", 1e-10, matDet(drv.State().Fp), 1.0)
}

func Test_cp04(tst *testing.T) {

	//verbose()
	chk.PrintTitle("cp04. recoverable error conditions")

	mdl, err := New("cp")
	if err != nil {
		tst.Errorf("cannot allocate model:\n%v", err)
		return
	}
	err = mdl.Init(3, false, nil)
	if err != nil {
		tst.Errorf("initialisation failed:\n%v", err)
		return
	}
	large := mdl.(LargeDef)
	s, err := mdl.InitIntVars()
	if err != nil {
		tst.Errorf("InitIntVars failed:\n%v", err)
		return
	}

	// a 1% jump in one step demands slip increments far beyond dgmax:
	// Update must fail with NonConvergence and leave s untouched
	F := la.NewMatrix(3, 3)
	F.Set(0, 0, 1.01)
	F.Set(1, 1, 1)
	F.Set(2, 2, 1)
	err = large.Update(s, F, 1.0)
	if err == nil {
		tst.Errorf("oversized increment must not converge")
		return
	}
	nc, ok := err.(*NonConvergence)
	if !ok {
		tst.Errorf("wrong error type: %v", err)
		return
	}
	io.Pforan("err = %v (inner=%v)\n", nc, nc.Inner)
	chk.Array(tst, "σ kept", 1e-17, s.Sig, []float64{0, 0, 0, 0, 0, 0})
	chk.Deep2(tst, "Fp kept", 1e-17, s.Fp.GetDeep2(), [][]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}})
	chk.Float64(tst, "g kept", 1e-17, s.Gss[0], 60.8)

	// a singular plastic gradient is a modelling breakdown, not a
	// convergence problem
	s.Fp.Fill(0)
	err = large.Update(s, F, 1.0)
	if err == nil {
		tst.Errorf("singular plastic gradient must not be accepted")
		return
	}
	if _, ok := err.(*InvalidState); !ok {
		tst.Errorf("wrong error type: %v", err)
		return
	}
	io.Pforan("err = %v\n", err)

	// path validation
	var pth Path
	if err = pth.SetUniaxial(1.1, 1.0, 0); err == nil {
		tst.Errorf("path with zero increments must not be accepted")
		return
	}
	if err = pth.SetUniaxial(1.1, -1.0, 1); err == nil {
		tst.Errorf("path with negative duration must not be accepted")
		return
	}
}

func Test_cp05(tst *testing.T) {

	//verbose()
	chk.PrintTitle("cp05. consistent tangent operator")

	var drv Driver
	drv.Silent = !chk.Verbose
	err := drv.Init("cp05", "cp", nil)
	if err != nil {
		tst.Errorf("driver initialisation failed:\n%v", err)
		return
	}
	drv.CheckA = true
	drv.TstA = tst
	drv.TolA = 0.5
	drv.VerA = chk.Verbose

	var pth Path
	err = pth.SetUniaxial(1.0001, 1.0, 1)
	if err != nil {
		tst.Errorf("path failed:\n%v", err)
		return
	}
	err = drv.Run(&pth)
	if err != nil {
		tst.Errorf("driver run failed:\n%v", err)
		return
	}

	// in the elastic range the continuous tangent is the elasticity
	// tensor itself
	A := utl.Deep4alloc(3, 3, 3, 3)
	err = drv.large.ContA(A, drv.State())
	if err != nil {
		tst.Errorf("ContA failed:\n%v", err)
		return
	}
	chk.Float64(tst, "A0000", 1e-12, A[0][0][0][0], 1.684e5)
	chk.Float64(tst, "A0011", 1e-12, A[0][0][1][1], 1.214e5)
	chk.Float64(tst, "A0101", 1e-12, A[0][1][0][1], 7.54e4)
}

func Test_cp06(tst *testing.T) {

	//verbose()
	chk.PrintTitle("cp06. latent hardening coupling")

	// two non-coplanar systems; only the first one is loaded. The
	// backward-Euler resistance update must harden the second system
	// through the latent coupling q alone.
	qlat := 1.4
	prms := dbf.Params{
		&dbf.P{N: "xm", V: 0.5},
		&dbf.P{N: "a0", V: 0.01},
		&dbf.P{N: "h0", V: 100.0},
		&dbf.P{N: "ahard", V: 1.0},
		&dbf.P{N: "q", V: qlat},
	}
	mdl, err := New("cp")
	if err != nil {
		tst.Errorf("cannot allocate model:\n%v", err)
		return
	}
	err = mdl.Init(3, false, prms)
	if err != nil {
		tst.Errorf("initialisation failed:\n%v", err)
		return
	}
	cp := mdl.(*CrystalPlast)
	set, err := NewSystems(
		[][]float64{{1, 0, 0}, {1, 0, 0}},
		[][]float64{{0, 1, 0}, {0, 0, 1}}, nil)
	if err != nil {
		tst.Errorf("NewSystems failed:\n%v", err)
		return
	}
	cp.SetSystems(set)
	chk.Deep2(tst, "Qab", 1e-15, cp.Qab, [][]float64{{1, qlat}, {qlat, 1}})

	s, err := mdl.InitIntVars()
	if err != nil {
		tst.Errorf("InitIntVars failed:\n%v", err)
		return
	}
	g0 := 60.8
	chk.Array(tst, "g initial", 1e-15, s.Gss, []float64{g0, g0})

	// fixed candidate stress: pure shear σ12 = g0 resolves fully on the
	// first system and not at all on the second
	I33 := la.NewMatrix(3, 3)
	I33.SetDiag(1)
	it, err := cp.newIterate(s, I33, 1.0)
	if err != nil {
		tst.Errorf("newIterate failed:\n%v", err)
		return
	}
	it.S[3] = g0 * math.Sqrt2
	err = cp.updateInternalState(it)
	if err != nil {
		tst.Errorf("internal-variable update failed:\n%v", err)
		return
	}
	io.Pforan("g = %v (Δγ = %v, %d iterations)\n", it.Gss, it.Dgam, it.ItG+1)
	chk.Float64(tst, "Δγ1", 1e-15, it.Dgam[1], 0)
	if it.Gss[0] <= g0 {
		tst.Errorf("loaded system did not harden: g = %g", it.Gss[0])
		return
	}

	// at the fixed point: g0' - g0_ini = h(g0')|Δγ0| and
	// g1' - g0_ini = q*h(g0')|Δγ0|, hence the hardening ratio is q
	chk.Float64(tst, "latent ratio", 1e-3, it.Gss[1]-g0, qlat*(it.Gss[0]-g0))

	// hardening cannot exceed the explicit bound h(g0)*Δγ(g0)
	bound := cp.hardMod(g0) * 1.0 * 0.01
	if it.Gss[0] > g0+bound+1e-12 {
		tst.Errorf("hardening exceeds the explicit bound: %g > %g", it.Gss[0]-g0, bound)
		return
	}
}

func Test_cp07(tst *testing.T) {

	//verbose()
	chk.PrintTitle("cp07. yield threshold and joint consistency")

	// one system, x-slip on the y-plane, with a slow reference rate: a
	// shear increment resolving exactly the initial resistance must
	// produce near-zero slip and keep the stress at the elastic
	// predictor
	c44, g0 := 7.54e4, 60.8
	a0 := 1e-6
	prms := dbf.Params{
		&dbf.P{N: "a0", V: a0},
		&dbf.P{N: "xm", V: 0.5},
	}
	mdl, err := New("cp")
	if err != nil {
		tst.Errorf("cannot allocate model:\n%v", err)
		return
	}
	err = mdl.Init(3, false, prms)
	if err != nil {
		tst.Errorf("initialisation failed:\n%v", err)
		return
	}
	cp := mdl.(*CrystalPlast)
	set, err := NewSystems([][]float64{{1, 0, 0}}, [][]float64{{0, 1, 0}}, nil)
	if err != nil {
		tst.Errorf("NewSystems failed:\n%v", err)
		return
	}
	cp.SetSystems(set)
	s, err := mdl.InitIntVars()
	if err != nil {
		tst.Errorf("InitIntVars failed:\n%v", err)
		return
	}

	// simple shear with elastic resolved shear τ = C44*γ = g0
	γ := g0 / c44
	F := la.NewMatrixDeep2([][]float64{{1, γ, 0}, {0, 1, 0}, {0, 0, 1}})
	sOld := s.GetCopy()
	err = cp.Update(s, F, 1.0)
	if err != nil {
		tst.Errorf("update failed:\n%v", err)
		return
	}

	// |Δγ| = Δt*a0 at the threshold: plastic flow is negligible
	io.Pforan("Fp = %v\n", s.Fp.GetDeep2())
	if d := s.Fp.Get(0, 1); math.Abs(d) > 10.0*a0 {
		tst.Errorf("plastic flow at the yield threshold: Fp01 = %g", d)
		return
	}
	chk.Float64(tst, "detFp", 1e-12, matDet(s.Fp), 1.0)

	// stress equals the elastic predictor to solver tolerance
	σ12 := manGet(s.Sig, 0, 1)
	io.Pforan("σ12 = %g (elastic %g)\n", σ12, g0)
	chk.Float64(tst, "σ12", 0.5, σ12, g0)

	// joint consistency at convergence: re-run the solve on an iterate
	// and verify the outer residual and the inner backward-Euler
	// equation hold simultaneously
	it, err := cp.newIterate(sOld, F, 1.0)
	if err != nil {
		tst.Errorf("newIterate failed:\n%v", err)
		return
	}
	cp.predictor(it)
	err = cp.solveStress(cp, it)
	if err != nil {
		tst.Errorf("stress solve failed:\n%v", err)
		return
	}
	R := la.NewVector(6)
	err = cp.computeResidual(it, R)
	if err != nil {
		tst.Errorf("residual evaluation failed:\n%v", err)
		return
	}
	rnorm := R.Norm()
	io.Pforan("rnorm = %g\n", rnorm)
	if rnorm > cp.atolR {
		tst.Errorf("outer residual not converged: %g > %g", rnorm, cp.atolR)
		return
	}
	gtarget := it.GssOld[0] + cp.Qab[0][0]*cp.hardMod(it.Gss[0])*math.Abs(it.Dgam[0])
	chk.Float64(tst, "inner residual", cp.TolG*g0, it.Gss[0], gtarget)
}

func Test_cp08(tst *testing.T) {

	//verbose()
	chk.PrintTitle("cp08. slip selectivity at twice the resistance")

	// two orthogonal systems (x-slip on the y-plane and on the z-plane)
	// under simple x-y shear: the elastic resolved shear reaches twice
	// the initial resistance on the first system and stays exactly zero
	// on the second. The whole staggered solve runs through Update.
	c44, g0 := 7.54e4, 60.8
	a0, Δt := 1e-3, 1.0
	prms := dbf.Params{
		&dbf.P{N: "a0", V: a0},
		&dbf.P{N: "xm", V: 0.5},
		&dbf.P{N: "h0", V: 100.0},
		&dbf.P{N: "ahard", V: 1.0},
	}
	mdl, err := New("cp")
	if err != nil {
		tst.Errorf("cannot allocate model:\n%v", err)
		return
	}
	err = mdl.Init(3, false, prms)
	if err != nil {
		tst.Errorf("initialisation failed:\n%v", err)
		return
	}
	cp := mdl.(*CrystalPlast)
	set, err := NewSystems(
		[][]float64{{1, 0, 0}, {1, 0, 0}},
		[][]float64{{0, 1, 0}, {0, 0, 1}}, nil)
	if err != nil {
		tst.Errorf("NewSystems failed:\n%v", err)
		return
	}
	cp.SetSystems(set)
	s, err := mdl.InitIntVars()
	if err != nil {
		tst.Errorf("InitIntVars failed:\n%v", err)
		return
	}

	// γ such that the elastic trial gives τ = C44*γ = 2*g0
	γ := 2.0 * g0 / c44
	F := la.NewMatrixDeep2([][]float64{{1, γ, 0}, {0, 1, 0}, {0, 0, 1}})
	sOld := s.GetCopy()
	err = cp.Update(s, F, Δt)
	if err != nil {
		tst.Errorf("update failed:\n%v", err)
		return
	}

	// slip happens on the loaded system only
	io.Pforan("Fp = %v\n", s.Fp.GetDeep2())
	if d := s.Fp.Get(0, 1); d <= a0 {
		tst.Errorf("loaded system did not slip: Fp01 = %g", d)
		return
	}
	chk.Float64(tst, "Fp02", 1e-15, s.Fp.Get(0, 2), 0)
	chk.Float64(tst, "detFp", 1e-12, matDet(s.Fp), 1.0)

	// only the loaded system hardens directly; the relaxed stress sits
	// between one and two resistances
	if s.Gss[0] <= g0 {
		tst.Errorf("loaded system did not harden: g = %g", s.Gss[0])
		return
	}
	σ12 := manGet(s.Sig, 0, 1)
	io.Pforan("σ12 = %g (elastic trial %g)\n", σ12, 2.0*g0)
	if σ12 <= g0 || σ12 >= 2.0*g0 {
		tst.Errorf("relaxed shear stress %g is not between g0 and 2*g0", σ12)
		return
	}

	// re-run the solve on an iterate to inspect the converged internals
	it, err := cp.newIterate(sOld, F, Δt)
	if err != nil {
		tst.Errorf("newIterate failed:\n%v", err)
		return
	}
	cp.predictor(it)
	err = cp.solveStress(cp, it)
	if err != nil {
		tst.Errorf("stress solve failed:\n%v", err)
		return
	}
	io.Pforan("it=%d τ = %v Δγ = %v g = %v\n", it.It, it.Tau, it.Dgam, it.Gss)
	if it.It >= cp.MaxitS {
		tst.Errorf("outer iteration budget exhausted: %d", it.It)
		return
	}
	if it.Dgam[0] <= 0 {
		tst.Errorf("no slip increment on the loaded system: %g", it.Dgam[0])
		return
	}
	chk.Float64(tst, "Δγ1", 1e-17, it.Dgam[1], 0)
	chk.Float64(tst, "τ1", 1e-12, it.Tau[1], 0)

	// flow rule at the converged pair (τ, g): Δγ = Δt*a0*(τ/g)^(1/xm)
	chk.Float64(tst, "flow rule", 1e-12, it.Dgam[0], Δt*a0*math.Pow(it.Tau[0]/it.Gss[0], 2.0))

	// resistance update consistent with the hardening modulus at the
	// converged resistances
	g0t := it.GssOld[0] + cp.Qab[0][0]*cp.hardMod(it.Gss[0])*math.Abs(it.Dgam[0])
	g1t := it.GssOld[1] + cp.Qab[1][0]*cp.hardMod(it.Gss[0])*math.Abs(it.Dgam[0])
	chk.Float64(tst, "g0 update", cp.TolG*g0, it.Gss[0], g0t)
	chk.Float64(tst, "g1 update", cp.TolG*g0, it.Gss[1], g1t)
}

// jammedTangent is a stand-in large-deformation model whose stress solve
// always reports a singular Newton tangent
type jammedTangent struct{}

func (o jammedTangent) Update(s *State, F *la.Matrix, Δt float64) error {
	return &IllConditionedTangent{It: 2, Msg: "zero pivot"}
}
func (o jammedTangent) CalcA(A [][][][]float64, sOld *State, F *la.Matrix, Δt float64) error {
	return nil
}
func (o jammedTangent) ContA(A [][][][]float64, s *State) error {
	return nil
}

func Test_cp09(tst *testing.T) {

	//verbose()
	chk.PrintTitle("cp09. singular tangent handling")

	// a zero row is caught before the factorisation
	J := la.NewMatrix(6, 6)
	J.SetDiag(1)
	J.Set(2, 2, 0)
	Ji := la.NewMatrix(6, 6)
	err := invertTangent(Ji, J, 7)
	if err == nil {
		tst.Errorf("zero-row tangent must not be inverted")
		return
	}
	ict, ok := err.(*IllConditionedTangent)
	if !ok {
		tst.Errorf("wrong error type: %v", err)
		return
	}
	chk.IntAssert(ict.It, 7)
	io.Pforan("err = %v\n", err)

	// two identical rows defeat the factorisation itself; the panic of
	// the dense solver must come back as the same condition
	J.SetDiag(1)
	J.Set(2, 2, 0)
	J.Set(2, 0, 1)
	J.Set(0, 0, 1)
	err = invertTangent(Ji, J, 3)
	if err == nil {
		tst.Errorf("rank-deficient tangent must not be inverted")
		return
	}
	if _, ok := err.(*IllConditionedTangent); !ok {
		tst.Errorf("wrong error type: %v", err)
		return
	}
	io.Pforan("err = %v\n", err)

	// the driver retries NonConvergence only: a singular-tangent failure
	// must come back immediately, with no halving attempted
	drv := Driver{Silent: true, NdivMax: 10, large: jammedTangent{}, s: NewState(1, false)}
	Fa := la.NewMatrix(3, 3)
	Fa.SetDiag(1)
	Fb := Fa.GetCopy()
	Fb.Set(0, 0, 1.001)
	err = drv.substep(Fa, Fb, 1.0, 0)
	if _, ok := err.(*IllConditionedTangent); !ok {
		tst.Errorf("wrong error type: %v", err)
		return
	}
	chk.IntAssert(drv.Nreject, 0)
	chk.IntAssert(drv.Naccept, 0)

	// an invalid state is not retried either: a full run on a corrupted
	// plastic gradient fails without sub-stepping
	var drv2 Driver
	drv2.Silent = !chk.Verbose
	err = drv2.Init("cp09", "cp", nil)
	if err != nil {
		tst.Errorf("driver initialisation failed:\n%v", err)
		return
	}
	drv2.State().Fp.Fill(0)
	var pth Path
	err = pth.SetUniaxial(1.0001, 1.0, 1)
	if err != nil {
		tst.Errorf("path failed:\n%v", err)
		return
	}
	err = drv2.Run(&pth)
	if err == nil {
		tst.Errorf("run on a singular plastic gradient must fail")
		return
	}
	io.Pforan("err = %v\n", err)
	chk.IntAssert(drv2.Nreject, 0)
	chk.IntAssert(drv2.Naccept, 0)
}
