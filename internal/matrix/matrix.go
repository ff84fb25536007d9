// burbujas - Opinion Clustering Engine for News-Voting Platforms
// Copyright 2026 The burbujas Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/memoriauy/burbujas

// Package matrix builds the sparse vote matrix (C2) and the sparsity-aware
// 2D projection derived from it (C3, in projection.go).
package matrix

import "github.com/memoriauy/burbujas/internal/models"

// Sparse is a sparse (N_voters, N_items) matrix of vote values in
// {+1, -1, epsilon}. Missing entries are never stored; a lookup for one
// returns (0, false). Row and column indices are dense integers assigned by
// Builder; VoterIndex and ItemIndex hold the reverse mapping.
type Sparse struct {
	NVoters int
	NItems  int
	Epsilon float64

	// rows[i] holds the observed (col -> value) entries for voter row i.
	// A map-of-maps keeps the encoding sparse without pulling in a CSR
	// library the pipeline's matrix sizes (tens of thousands of voters at
	// most) do not need.
	rows []map[int]float64

	// RowNNZ[i] is the number of votes voter i cast, used both as the
	// k-means weight and as the per-voter PCA rescale input.
	RowNNZ []int
}

// NewSparse allocates an empty matrix of the given shape.
func NewSparse(nVoters, nItems int, epsilon float64) *Sparse {
	rows := make([]map[int]float64, nVoters)
	for i := range rows {
		rows[i] = make(map[int]float64)
	}
	return &Sparse{
		NVoters: nVoters,
		NItems:  nItems,
		Epsilon: epsilon,
		rows:    rows,
		RowNNZ:  make([]int, nVoters),
	}
}

// Set records an explicit entry. It is the caller's responsibility to never
// call Set twice for the same (row, col); Builder enforces the
// at-most-one-vote-per-(voter,item) invariant before this is reached.
func (m *Sparse) Set(row, col int, value float64) {
	m.rows[row][col] = value
	m.RowNNZ[row]++
}

// Get returns the stored value at (row, col) and whether one exists.
func (m *Sparse) Get(row, col int) (float64, bool) {
	v, ok := m.rows[row][col]
	return v, ok
}

// Row returns the observed (col -> value) entries for a voter. The returned
// map must not be mutated by callers.
func (m *Sparse) Row(row int) map[int]float64 {
	return m.rows[row]
}

// Decoded folds the epsilon sentinel back to the vote it represents for a
// stored value. It is undefined for a value that was never stored; callers
// must check presence via Get first.
func Decoded(value, epsilon float64) models.Opinion {
	switch {
	case value == epsilon:
		return models.OpinionNeutral
	case value > 0:
		return models.OpinionPositive
	default:
		return models.OpinionNegative
	}
}

// Numeric maps a stored value to its arithmetic contribution, folding the
// epsilon sentinel to 0 as every aggregator downstream of the matrix must.
func Numeric(value, epsilon float64) float64 {
	if value == epsilon {
		return 0
	}
	return value
}

// VoterIndex maps a voter identity to its dense row index and back.
type VoterIndex struct {
	toRow   map[models.VoterID]int
	toVoter []models.VoterID
}

// NewVoterIndex builds an index from a deterministically ordered voter
// list; Builder sorts voters before indexing so row assignment (and
// therefore every downstream tie-break keyed on ids) is reproducible.
func NewVoterIndex(voters []models.VoterID) *VoterIndex {
	idx := &VoterIndex{
		toRow:   make(map[models.VoterID]int, len(voters)),
		toVoter: append([]models.VoterID(nil), voters...),
	}
	for i, v := range voters {
		idx.toRow[v] = i
	}
	return idx
}

func (idx *VoterIndex) Row(v models.VoterID) (int, bool) {
	r, ok := idx.toRow[v]
	return r, ok
}

func (idx *VoterIndex) Voter(row int) models.VoterID { return idx.toVoter[row] }

func (idx *VoterIndex) Len() int { return len(idx.toVoter) }

// ItemIndex maps an item id to its dense column index and back.
type ItemIndex struct {
	toCol  map[string]int
	toItem []string
}

func NewItemIndex(items []string) *ItemIndex {
	idx := &ItemIndex{
		toCol:  make(map[string]int, len(items)),
		toItem: append([]string(nil), items...),
	}
	for i, it := range items {
		idx.toCol[it] = i
	}
	return idx
}

func (idx *ItemIndex) Col(item string) (int, bool) {
	c, ok := idx.toCol[item]
	return c, ok
}

func (idx *ItemIndex) Item(col int) string { return idx.toItem[col] }

func (idx *ItemIndex) Len() int { return len(idx.toItem) }
