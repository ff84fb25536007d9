// burbujas - Opinion Clustering Engine for News-Voting Platforms
// Copyright 2026 The burbujas Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/memoriauy/burbujas

// Package projection implements C3, the sparsity-aware 2D PCA projection.
// It centers only over observed matrix entries, runs SVD on the resulting
// dense matrix, keeps the first two components, and rescales each voter's
// coordinates by their participation so low-activity voters are pushed
// outward instead of clumping at the origin.
//
// The algorithm follows Pearson's original PCA-via-SVD formulation and the
// biplot rescaling convention (Gabriel, 1971); see matrix_builder's original
// Python sibling in this codebase's history for the specific epsilon
// handling this implementation preserves.
package projection

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/memoriauy/burbujas/internal/clustererr"
	"github.com/memoriauy/burbujas/internal/matrix"
)

// Point is one voter's 2D projected coordinate.
type Point struct {
	X, Y float64
}

// Result is C3's output.
type Result struct {
	Points            []Point // len == NVoters
	VarianceExplained [2]float64
}

// Compute runs sparsity-aware PCA over m, using m.RowNNZ as the
// per-voter participation used in the rescale step.
func Compute(m *matrix.Sparse) (*Result, error) {
	if m.NVoters == 0 || m.NItems == 0 {
		return nil, clustererr.New(clustererr.KindNumerical, "empty matrix")
	}

	dense := centeredDense(m)

	var svd mat.SVD
	ok := svd.Factorize(dense, mat.SVDThin)
	if !ok {
		return nil, clustererr.New(clustererr.KindNumerical, "SVD failed to converge")
	}

	var u mat.Dense
	svd.UTo(&u)
	values := svd.Values(nil)

	nComponents := 2
	if len(values) < 2 {
		nComponents = len(values)
	}

	points := make([]Point, m.NVoters)
	for i := 0; i < m.NVoters; i++ {
		var x, y float64
		if nComponents > 0 {
			x = u.At(i, 0) * values[0]
		}
		if nComponents > 1 {
			y = u.At(i, 1) * values[1]
		}
		scale := math.Sqrt(float64(m.NItems) / math.Max(float64(m.RowNNZ[i]), 1))
		points[i] = Point{X: x * scale, Y: y * scale}
	}

	var totalVar float64
	for _, v := range values {
		totalVar += v * v
	}
	var explained [2]float64
	if totalVar > 0 {
		if nComponents > 0 {
			explained[0] = (values[0] * values[0]) / totalVar
		}
		if nComponents > 1 {
			explained[1] = (values[1] * values[1]) / totalVar
		}
	}

	return &Result{Points: points, VarianceExplained: explained}, nil
}

// centeredDense materializes the column-mean-centered matrix as a dense
// gonum matrix. Column means are computed over explicitly stored entries
// only, treating epsilon as 0; entries never stored contribute nothing to
// the mean and remain 0 after centering (they are not "shifted" because
// they were never observed).
func centeredDense(m *matrix.Sparse) *mat.Dense {
	colSum := make([]float64, m.NItems)
	colCount := make([]int, m.NItems)
	for i := 0; i < m.NVoters; i++ {
		for j, v := range m.Row(i) {
			colSum[j] += matrix.Numeric(v, m.Epsilon)
			colCount[j]++
		}
	}
	colMean := make([]float64, m.NItems)
	for j := range colMean {
		if colCount[j] > 0 {
			colMean[j] = colSum[j] / float64(colCount[j])
		}
	}

	dense := mat.NewDense(m.NVoters, m.NItems, nil)
	for i := 0; i < m.NVoters; i++ {
		for j, v := range m.Row(i) {
			dense.Set(i, j, matrix.Numeric(v, m.Epsilon)-colMean[j])
		}
	}
	return dense
}
