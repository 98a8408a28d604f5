package calibration

import (
	"math"

	"github.com/quangptt0910/SaccadeSync-sub000/internal/models"
)

// pixelInterceptCutoff: a fitted intercept this large cannot come from a
// normalized-coordinate fit, so the model output is treated as pixels.
const pixelInterceptCutoff = 10.0

// PredictEye applies the fitted quadratic of one eye to a raw iris position.
// Returns nil when the model has no usable coefficients for that eye.
func PredictEye(iris models.Point, model *models.CalibrationModel, eye Eye) *models.Point {
	if model == nil {
		return nil
	}
	var em *models.EyeModel
	if eye == EyeLeft {
		em = model.Left
	} else {
		em = model.Right
	}
	if em == nil || len(em.CoefX) < models.CoefficientCount || len(em.CoefY) < models.CoefficientCount {
		return nil
	}

	row := featureRow(iris)
	p := models.Point{
		X: predictRow(em.CoefX, row),
		Y: predictRow(em.CoefY, row),
	}

	// Models trained before normalized coordinates became the default may
	// predict pixel positions. Trust declared normalized output; otherwise
	// infer from the intercept magnitude and rescale.
	if model.Metadata.CoordinateSystem != "normalized" {
		if math.Abs(em.CoefX[0]) > pixelInterceptCutoff || math.Abs(em.CoefY[0]) > pixelInterceptCutoff {
			if model.Metadata.ScreenWidth > 0 && model.Metadata.ScreenHeight > 0 {
				p.X /= float64(model.Metadata.ScreenWidth)
				p.Y /= float64(model.Metadata.ScreenHeight)
			}
		}
	}
	return &p
}

// PredictGaze predicts both eyes and the cyclopean average for one frame.
// With a single usable eye the average falls back to that eye alone.
func PredictGaze(leftIris, rightIris *models.Point, model *models.CalibrationModel) models.CalibratedGaze {
	var gaze models.CalibratedGaze
	if leftIris != nil {
		gaze.Left = PredictEye(*leftIris, model, EyeLeft)
	}
	if rightIris != nil {
		gaze.Right = PredictEye(*rightIris, model, EyeRight)
	}

	switch {
	case gaze.Left != nil && gaze.Right != nil:
		gaze.Avg = &models.Point{
			X: (gaze.Left.X + gaze.Right.X) / 2,
			Y: (gaze.Left.Y + gaze.Right.Y) / 2,
		}
	case gaze.Left != nil:
		avg := *gaze.Left
		gaze.Avg = &avg
	case gaze.Right != nil:
		avg := *gaze.Right
		gaze.Avg = &avg
	}
	return gaze
}

// RawGaze builds an uncalibrated gaze estimate straight from iris positions.
// Used as the fallback when no valid calibration model exists.
func RawGaze(leftIris, rightIris *models.Point) models.CalibratedGaze {
	var gaze models.CalibratedGaze
	if leftIris != nil {
		left := *leftIris
		gaze.Left = &left
	}
	if rightIris != nil {
		right := *rightIris
		gaze.Right = &right
	}
	switch {
	case gaze.Left != nil && gaze.Right != nil:
		gaze.Avg = &models.Point{
			X: (gaze.Left.X + gaze.Right.X) / 2,
			Y: (gaze.Left.Y + gaze.Right.Y) / 2,
		}
	case gaze.Left != nil:
		avg := *gaze.Left
		gaze.Avg = &avg
	case gaze.Right != nil:
		avg := *gaze.Right
		gaze.Avg = &avg
	}
	return gaze
}
