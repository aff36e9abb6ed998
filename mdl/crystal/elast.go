// Copyright 2016 The Marisol Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package crystal

import (
	"math"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/la"
	"github.com/cpmech/gosl/utl"
)

// Elasticity holds the rank-four elasticity tensor of a cubic single
// crystal rotated into the sample frame. In the host framework this
// tensor comes from the polycrystal elasticity provider; here it is
// rebuilt from C11/C12/C44 so that the model is self-contained for
// single-point analyses. The Mandel 6x6 representation De allows the
// contraction S = C:E to be a plain matrix-vector product.
type Elasticity struct {
	C11, C12, C44 float64         // cubic constants
	De            *la.Matrix      // Mandel representation [6][6]
	Ce            [][][][]float64 // full tensor in sample frame [3][3][3][3]
}

// Init builds the rotated tensor. R == nil means crystal axes aligned
// with the sample frame. Isotropy corresponds to C11 = C12 + 2*C44.
func (o *Elasticity) Init(c11, c12, c44 float64, R *la.Matrix) (err error) {
	if c11 <= 0 || c44 <= 0 {
		return chk.Err("invalid elastic constants: C11=%g and C44=%g must be positive", c11, c44)
	}
	o.C11, o.C12, o.C44 = c11, c12, c44

	// tensor in crystal frame
	cc := utl.Deep4alloc(3, 3, 3, 3)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			cc[i][i][j][j] += c12
			cc[i][j][i][j] += c44
			cc[i][j][j][i] += c44
		}
		cc[i][i][i][i] += c11 - c12 - 2.0*c44
	}

	// rotate into sample frame
	o.Ce = utl.Deep4alloc(3, 3, 3, 3)
	if R == nil {
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				for k := 0; k < 3; k++ {
					copy(o.Ce[i][j][k], cc[i][j][k])
				}
			}
		}
	} else {
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				for k := 0; k < 3; k++ {
					for l := 0; l < 3; l++ {
						sum := 0.0
						for m := 0; m < 3; m++ {
							for n := 0; n < 3; n++ {
								for p := 0; p < 3; p++ {
									for q := 0; q < 3; q++ {
										sum += R.Get(i, m) * R.Get(j, n) * R.Get(k, p) * R.Get(l, q) * cc[m][n][p][q]
									}
								}
							}
						}
						o.Ce[i][j][k][l] = sum
					}
				}
			}
		}
	}

	// Mandel 6x6
	o.De = la.NewMatrix(6, 6)
	for I := 0; I < 6; I++ {
		i, j := mandelI[I], mandelJ[I]
		for J := 0; J < 6; J++ {
			k, l := mandelI[J], mandelJ[J]
			v := o.Ce[i][j][k][l]
			if I > 2 {
				v *= math.Sqrt2
			}
			if J > 2 {
				v *= math.Sqrt2
			}
			o.De.Set(I, J, v)
		}
	}
	return
}

// Contract computes S = C:E for E in Mandel basis
func (o *Elasticity) Contract(S, E la.Vector) {
	la.MatVecMul(S, 1, o.De, E)
}

// mandelI and mandelJ map Mandel components {11, 22, 33, 12, 23, 31} to
// tensor indices
var (
	mandelI = []int{0, 1, 2, 0, 1, 2}
	mandelJ = []int{0, 1, 2, 1, 2, 0}
)
