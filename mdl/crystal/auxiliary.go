// Copyright 2016 The Marisol Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package crystal

import (
	"math"

	"github.com/cpmech/gosl/la"
	"github.com/cpmech/gosl/tsr"
)

// tenToMan converts a symmetric [3][3] tensor to its Mandel 6-vector,
// ordered {11, 22, 33, 12, 23, 31} with off-diagonals scaled by sqrt(2)
func tenToMan(man la.Vector, T *la.Matrix) {
	for i := 0; i < 3; i++ {
		man[i] = T.Get(i, i)
		for j := i + 1; j < 3; j++ {
			man[tsr.SecToManI[i][j]] = 0.5 * (T.Get(i, j) + T.Get(j, i)) * math.Sqrt2
		}
	}
}

// manToTen fills the full symmetric [3][3] tensor from a Mandel 6-vector
func manToTen(T *la.Matrix, man la.Vector) {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			T.Set(i, j, manGet(man, i, j))
		}
	}
}

// manGet returns the i-j tensor component of a Mandel 6-vector
func manGet(man la.Vector, i, j int) float64 {
	if i == j {
		return man[i]
	}
	return man[tsr.SecToManI[i][j]] / math.Sqrt2
}

// greenStrain computes the Green-Lagrange strain E = (transp(F)*F - I)/2
// in Mandel basis
//  E   -- [6] strain in Mandel basis
//  F   -- [3][3] deformation gradient
//  tmp -- [3][3] auxiliary matrix
func greenStrain(E la.Vector, F, tmp *la.Matrix) {
	la.MatTrMatMul(tmp, 1, F, F)
	for i := 0; i < 3; i++ {
		tmp.Add(i, i, -1.0)
	}
	tmp.Apply(0.5, tmp)
	tenToMan(E, tmp)
}

// pushStress computes the Cauchy stress σ = Fe*S*tr(Fe)/det(Fe)
//  σ        -- [6] Cauchy stress in Mandel basis
//  Fe       -- [3][3] elastic deformation gradient
//  S        -- [6] second Piola-Kirchhoff stress in Mandel basis
//  ta, tb   -- [3][3] auxiliary matrices
func pushStress(σ la.Vector, Fe *la.Matrix, S la.Vector, ta, tb *la.Matrix) {
	J := matDet(Fe)
	manToTen(tb, S)
	la.MatMatMul(ta, 1, Fe, tb)
	la.MatMatTrMul(tb, 1.0/J, ta, Fe)
	tenToMan(σ, tb)
}

// matDet returns the determinant of a [3][3] matrix
func matDet(A *la.Matrix) float64 {
	return A.Get(0, 0)*(A.Get(1, 1)*A.Get(2, 2)-A.Get(1, 2)*A.Get(2, 1)) -
		A.Get(0, 1)*(A.Get(1, 0)*A.Get(2, 2)-A.Get(1, 2)*A.Get(2, 0)) +
		A.Get(0, 2)*(A.Get(1, 0)*A.Get(2, 1)-A.Get(1, 1)*A.Get(2, 0))
}

// matInv3 inverts a [3][3] matrix, returning ok=false when the
// determinant magnitude falls below tol
func matInv3(Ai, A *la.Matrix, tol float64) (det float64, ok bool) {
	det = matDet(A)
	if math.Abs(det) < tol {
		return det, false
	}
	la.MatInvSmall(Ai, A, tol)
	return det, true
}
