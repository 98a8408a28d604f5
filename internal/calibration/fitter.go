package calibration

import (
	"math"
	"time"

	"github.com/quangptt0910/SaccadeSync-sub000/internal/models"
)

// Eye selects which iris a fit or prediction applies to.
type Eye string

const (
	EyeLeft  Eye = "left"
	EyeRight Eye = "right"
)

// Fit failure reasons.
const (
	ReasonInsufficientSamples = "insufficient_samples"
	ReasonMatrixFailure       = "matrix_failure"
)

// DefaultLambdaGrid is the ridge penalty grid searched during cross-validation.
var DefaultLambdaGrid = []float64{0.001, 0.01, 0.1, 1.0, 10.0}

// DefaultCVFolds is the number of cross-validation folds for lambda selection.
const DefaultCVFolds = 5

// FitResult is the outcome of fitting one eye. Calculated follows the same
// convention as the rest of the scoring code: false means the result is not
// usable and Reason explains why.
type FitResult struct {
	Eye         Eye       `json:"eye"`
	CoefX       []float64 `json:"coefX,omitempty"`
	CoefY       []float64 `json:"coefY,omitempty"`
	LambdaX     float64   `json:"lambdaX"`
	LambdaY     float64   `json:"lambdaY"`
	RMSE        float64   `json:"rmse"`
	Accuracy    float64   `json:"accuracy"`
	SampleCount int       `json:"sampleCount"`
	Calculated  bool      `json:"calculated"`
	Reason      string    `json:"reason,omitempty"`
}

// Fitter fits quadratic gaze models with cross-validated ridge regression.
type Fitter struct {
	LambdaGrid []float64
	CVFolds    int
}

// NewFitter returns a Fitter with the default lambda grid and fold count.
func NewFitter() *Fitter {
	return &Fitter{LambdaGrid: DefaultLambdaGrid, CVFolds: DefaultCVFolds}
}

// featureRow expands an iris position into the quadratic design row
// [1, x, y, x², y², xy].
func featureRow(p models.Point) []float64 {
	return []float64{1, p.X, p.Y, p.X * p.X, p.Y * p.Y, p.X * p.Y}
}

// irisFor returns the iris position of the requested eye, if tracked.
func irisFor(s *models.GazeSample, eye Eye) *models.Point {
	if eye == EyeLeft {
		return s.IrisLeft
	}
	return s.IrisRight
}

// Fit builds the design matrix for one eye and fits both screen axes
// independently. Both axes must solve for the result to be usable.
func (f *Fitter) Fit(samples []models.GazeSample, eye Eye) FitResult {
	result := FitResult{Eye: eye}

	var design [][]float64
	var bx, by []float64
	for i := range samples {
		iris := irisFor(&samples[i], eye)
		if iris == nil {
			continue
		}
		design = append(design, featureRow(*iris))
		bx = append(bx, samples[i].TargetX)
		by = append(by, samples[i].TargetY)
	}
	result.SampleCount = len(design)

	// A quadratic in two variables needs at least 6 rows to determine.
	if len(design) < models.CoefficientCount {
		result.Reason = ReasonInsufficientSamples
		return result
	}

	lambdaX := f.findOptimalLambda(design, bx)
	coefX, err := ridgeSolve(design, bx, lambdaX)
	if err != nil {
		result.Reason = ReasonMatrixFailure
		return result
	}

	lambdaY := f.findOptimalLambda(design, by)
	coefY, err := ridgeSolve(design, by, lambdaY)
	if err != nil {
		result.Reason = ReasonMatrixFailure
		return result
	}

	result.CoefX = coefX
	result.CoefY = coefY
	result.LambdaX = lambdaX
	result.LambdaY = lambdaY
	result.RMSE = rmse(design, bx, by, coefX, coefY)
	result.Accuracy = math.Max(0, 1-result.RMSE)
	result.Calculated = true
	return result
}

// FitModel fits both eyes and assembles the session calibration model.
// A model with one fitted eye is still valid and usable.
func (f *Fitter) FitModel(samples []models.GazeSample, screenWidth, screenHeight int) (*models.CalibrationModel, map[Eye]FitResult) {
	fits := map[Eye]FitResult{
		EyeLeft:  f.Fit(samples, EyeLeft),
		EyeRight: f.Fit(samples, EyeRight),
	}

	model := &models.CalibrationModel{
		Metadata: models.ModelMetadata{
			Method:           "ridge_cv",
			CoordinateSystem: "normalized",
			Timestamp:        time.Now(),
			ScreenWidth:      screenWidth,
			ScreenHeight:     screenHeight,
		},
	}
	if left := fits[EyeLeft]; left.Calculated {
		model.Left = &models.EyeModel{CoefX: left.CoefX, CoefY: left.CoefY}
	}
	if right := fits[EyeRight]; right.Calculated {
		model.Right = &models.EyeModel{CoefX: right.CoefX, CoefY: right.CoefY}
	}
	return model, fits
}

// BestAccuracy returns the highest per-eye accuracy among usable fits.
func BestAccuracy(fits map[Eye]FitResult) float64 {
	best := 0.0
	for _, fit := range fits {
		if fit.Calculated && fit.Accuracy > best {
			best = fit.Accuracy
		}
	}
	return best
}

// ridgeSolve fits one axis by solving the regularized normal equations
// (XᵗX + λI)·w = Xᵗb, leaving the intercept unpenalized.
func ridgeSolve(design [][]float64, b []float64, lambda float64) ([]float64, error) {
	n := models.CoefficientCount

	xtx := make([][]float64, n)
	for i := range xtx {
		xtx[i] = make([]float64, n)
	}
	xtb := make([]float64, n)

	for r := range design {
		row := design[r]
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				xtx[i][j] += row[i] * row[j]
			}
			xtb[i] += row[i] * b[r]
		}
	}

	// Penalize everything except the intercept (index 0).
	for i := 1; i < n; i++ {
		xtx[i][i] += lambda
	}

	return Solve(xtx, xtb)
}

// findOptimalLambda selects the ridge penalty by k-fold cross-validation over
// contiguous folds, minimizing the total held-out squared error. Fold order is
// fixed so the selection is deterministic.
func (f *Fitter) findOptimalLambda(design [][]float64, b []float64) float64 {
	grid := f.LambdaGrid
	if len(grid) == 0 {
		grid = DefaultLambdaGrid
	}
	k := f.CVFolds
	if k < 2 {
		k = DefaultCVFolds
	}

	n := len(design)
	if n < k {
		return grid[0]
	}
	foldSize := n / k

	bestLambda := grid[0]
	bestError := math.Inf(1)

	for _, lambda := range grid {
		totalError := 0.0
		failed := false

		for fold := 0; fold < k; fold++ {
			lo := fold * foldSize
			hi := lo + foldSize
			if fold == k-1 {
				hi = n // last fold absorbs the remainder
			}

			train := make([][]float64, 0, n-(hi-lo))
			trainB := make([]float64, 0, n-(hi-lo))
			for i := 0; i < n; i++ {
				if i >= lo && i < hi {
					continue
				}
				train = append(train, design[i])
				trainB = append(trainB, b[i])
			}

			coef, err := ridgeSolve(train, trainB, lambda)
			if err != nil {
				failed = true
				break
			}
			for i := lo; i < hi; i++ {
				diff := predictRow(coef, design[i]) - b[i]
				totalError += diff * diff
			}
		}

		if !failed && totalError < bestError {
			bestError = totalError
			bestLambda = lambda
		}
	}
	return bestLambda
}

func predictRow(coef, row []float64) float64 {
	sum := 0.0
	for i := range coef {
		sum += coef[i] * row[i]
	}
	return sum
}

// rmse computes the root of the mean squared 2D residual of the fitted
// quadratic over all design rows.
func rmse(design [][]float64, bx, by, coefX, coefY []float64) float64 {
	if len(design) == 0 {
		return 0
	}
	sum := 0.0
	for i := range design {
		dx := predictRow(coefX, design[i]) - bx[i]
		dy := predictRow(coefY, design[i]) - by[i]
		sum += dx*dx + dy*dy
	}
	return math.Sqrt(sum / float64(len(design)))
}
