// Package calibration fits per-eye quadratic gaze models from calibration
// samples and predicts screen positions from raw iris coordinates.
package calibration

import (
	"errors"
	"math"
)

// ErrSingularMatrix is returned when elimination hits a near-zero pivot.
var ErrSingularMatrix = errors.New("singular_matrix")

// pivotTolerance is the smallest pivot magnitude accepted after row swapping.
const pivotTolerance = 1e-10

// Solve solves the n×n system A·x = b using Gaussian elimination with
// partial pivoting. A is expected to be the symmetric normal-equation matrix
// produced by the fitter. The inputs are not modified.
func Solve(a [][]float64, b []float64) ([]float64, error) {
	n := len(a)
	if n == 0 || len(b) != n {
		return nil, ErrSingularMatrix
	}

	// Build the augmented matrix so the inputs stay untouched.
	aug := make([][]float64, n)
	for i := range aug {
		aug[i] = make([]float64, n+1)
		copy(aug[i], a[i])
		aug[i][n] = b[i]
	}

	// Forward elimination with partial pivoting
	for col := 0; col < n; col++ {
		pivot := col
		maxAbs := math.Abs(aug[col][col])
		for r := col + 1; r < n; r++ {
			if abs := math.Abs(aug[r][col]); abs > maxAbs {
				maxAbs = abs
				pivot = r
			}
		}
		if maxAbs < pivotTolerance {
			return nil, ErrSingularMatrix
		}
		if pivot != col {
			aug[col], aug[pivot] = aug[pivot], aug[col]
		}

		for r := col + 1; r < n; r++ {
			factor := aug[r][col] / aug[col][col]
			if factor == 0 {
				continue
			}
			for c := col; c <= n; c++ {
				aug[r][c] -= factor * aug[col][c]
			}
		}
	}

	// Back substitution
	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		sum := aug[i][n]
		for j := i + 1; j < n; j++ {
			sum -= aug[i][j] * x[j]
		}
		x[i] = sum / aug[i][i]
	}
	return x, nil
}
