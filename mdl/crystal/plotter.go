// Copyright 2016 The Marisol Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package crystal

import (
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/la"
	"github.com/cpmech/gosl/plt"
	"github.com/cpmech/gosl/utl"
)

// Plotter draws stress, resistance and energy paths computed by Driver
type Plotter struct {

	// settings
	PngRes  int    // resolution for .png files
	UseEps  bool   // save eps figure instead of png
	SaveDir string // directory to put figure
	SaveFnk string // filename key

	// curve appearance
	Clr string // curve color
	Mrk string // curve marker
	Ls  string // curve linestyle
}

// SetFig sets figure space for plotting
func (o *Plotter) SetFig(epsfig bool, prop, width float64, savedir, savefnk string) {
	if o.PngRes < 150 {
		o.PngRes = 150
	}
	o.UseEps = epsfig
	plt.Reset(true, &plt.A{Prop: prop, WidthPt: width, Dpi: o.PngRes, Eps: o.UseEps})
	o.SaveDir = savedir
	o.SaveFnk = io.FnKey(savefnk)
	if o.Clr == "" {
		o.Clr = "b"
	}
	if o.Ls == "" {
		o.Ls = "-"
	}
}

// Plot draws the standard set: σ11 vs F11, resistances, energies and
// det(Fp) along the path. res and Fs come from Driver.
func (o *Plotter) Plot(res []*State, Fs []*la.Matrix, last bool) {
	nr := len(res)
	if nr < 1 || len(Fs) != nr {
		return
	}
	x := make([]float64, nr)
	y := make([]float64, nr)
	args := &plt.A{C: o.Clr, Ls: o.Ls, M: o.Mrk}

	// σ11 versus F11
	plt.Subplot(2, 2, 1)
	for i := 0; i < nr; i++ {
		x[i] = Fs[i].Get(0, 0)
		y[i] = manGet(res[i].Sig, 0, 0)
	}
	plt.Plot(x, y, args)
	plt.Gll("$F_{11}$", "$\\sigma_{11}$", nil)

	// resistances versus increment
	plt.Subplot(2, 2, 2)
	inc := utl.LinSpace(0, float64(nr-1), nr)
	for s := 0; s < len(res[0].Gss); s++ {
		for i := 0; i < nr; i++ {
			y[i] = res[i].Gss[s]
		}
		plt.Plot(inc, y, nil)
	}
	plt.Gll("$increment$", "$g_{ss}$", nil)

	// energies versus increment
	plt.Subplot(2, 2, 3)
	for i := 0; i < nr; i++ {
		y[i] = res[i].W0e
	}
	plt.Plot(inc, y, &plt.A{L: "$W_{0e}$"})
	for i := 0; i < nr; i++ {
		y[i] = res[i].W0p
	}
	plt.Plot(inc, y, &plt.A{L: "$W_{0p}$"})
	for i := 0; i < nr; i++ {
		y[i] = res[i].Wvisc
	}
	plt.Plot(inc, y, &plt.A{L: "$W_{visc}$"})
	plt.Gll("$increment$", "$W$", nil)

	// det(Fp) versus increment
	plt.Subplot(2, 2, 4)
	for i := 0; i < nr; i++ {
		y[i] = matDet(res[i].Fp)
	}
	plt.Plot(inc, y, args)
	plt.Gll("$increment$", "$\\det(F_p)$", nil)

	// save
	if last {
		plt.Save(o.SaveDir, o.SaveFnk)
	}
}
