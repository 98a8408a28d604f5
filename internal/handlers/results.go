package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/quangptt0910/SaccadeSync-sub000/internal/analysis"
	"github.com/quangptt0910/SaccadeSync-sub000/internal/config"
	"github.com/quangptt0910/SaccadeSync-sub000/internal/models"
	"github.com/quangptt0910/SaccadeSync-sub000/internal/repository"
)

type ResultsHandler struct {
	log *zap.Logger
}

func NewResultsHandler(log *zap.Logger) *ResultsHandler {
	return &ResultsHandler{log: log}
}

// Show aggregates both phases of a completed session and derives the final
// pro-vs-anti comparison report.
func (h *ResultsHandler) Show(c *gin.Context) {
	screening := c.MustGet(SessionContextKey).(*models.ScreeningSession)

	minQuality := config.Conf.Analysis.MinDataQuality

	proTrials, err := repository.GetTrialAnalyses(screening.ID, models.PhasePro)
	if err != nil {
		h.log.Error("Failed to load pro trials", zap.Int("sessionID", screening.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load results"})
		return
	}
	antiTrials, err := repository.GetTrialAnalyses(screening.ID, models.PhaseAnti)
	if err != nil {
		h.log.Error("Failed to load anti trials", zap.Int("sessionID", screening.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load results"})
		return
	}

	proStats := analysis.Aggregate(proTrials, models.PhasePro, minQuality)
	antiStats := analysis.Aggregate(antiTrials, models.PhaseAnti, minQuality)
	report := analysis.Compare(proStats, antiStats)

	c.JSON(http.StatusOK, gin.H{
		"session":    screening,
		"pro":        proStats,
		"anti":       antiStats,
		"comparison": report,
		"trials":     append(proTrials, antiTrials...),
	})
}

// VelocityChart renders the session velocity trace as an HTML echarts page,
// with the saccade frames as a separate series.
func (h *ResultsHandler) VelocityChart(c *gin.Context) {
	screening := c.MustGet(SessionContextKey).(*models.ScreeningSession)

	points, err := repository.GetVelocityTimeline(c, screening.ID)
	if err != nil {
		h.log.Error("Failed to load velocity timeline", zap.Int("sessionID", screening.ID), zap.Error(err))
		c.String(http.StatusInternalServerError, "Failed to load velocity data")
		return
	}

	chart := generateVelocityChart(points)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := chart.Render(c.Writer); err != nil {
		h.log.Error("Failed to render velocity chart", zap.Error(err))
	}
}

func generateVelocityChart(points []repository.VelocityPoint) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Gaze Velocity",
			Subtitle: "Angular velocity (deg/s) over session time",
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Type: "value",
			Name: "time (ms)",
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Type:  "value",
			Name:  "deg/s",
			Scale: opts.Bool(true),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
	)

	velocity := make([]opts.LineData, 0, len(points))
	saccades := make([]opts.LineData, 0)
	for _, p := range points {
		velocity = append(velocity, opts.LineData{Value: []interface{}{p.Timestamp, p.Velocity}})
		if p.IsSaccade {
			saccades = append(saccades, opts.LineData{Value: []interface{}{p.Timestamp, p.Velocity}})
		}
	}

	line.AddSeries("velocity", velocity).
		SetSeriesOptions(charts.WithLineStyleOpts(opts.LineStyle{Width: 2}))
	line.AddSeries("saccade", saccades)
	return line
}

// ResidualChart renders a scatter of calibrated gaze against the trial
// targets, a quick visual check of how well the calibration held up during
// the trials.
func (h *ResultsHandler) ResidualChart(c *gin.Context) {
	screening := c.MustGet(SessionContextKey).(*models.ScreeningSession)

	points, err := repository.GetGazeResiduals(c, screening.ID)
	if err != nil {
		h.log.Error("Failed to load gaze residuals", zap.Int("sessionID", screening.ID), zap.Error(err))
		c.String(http.StatusInternalServerError, "Failed to load residual data")
		return
	}

	chart := generateResidualChart(points)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := chart.Render(c.Writer); err != nil {
		h.log.Error("Failed to render residual chart", zap.Error(err))
	}
}

func generateResidualChart(points []repository.ResidualPoint) *charts.Scatter {
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title: "Gaze vs. Target",
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Type: "value",
			Name: "screen x",
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Type: "value",
			Name: "screen y",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)

	targets := make([]opts.ScatterData, 0, len(points))
	gaze := make([]opts.ScatterData, 0, len(points))
	for _, p := range points {
		targets = append(targets, opts.ScatterData{Value: []interface{}{p.TargetX, p.TargetY}})
		gaze = append(gaze, opts.ScatterData{Value: []interface{}{p.GazeX, p.GazeY}})
	}

	scatter.AddSeries("target", targets)
	scatter.AddSeries("gaze", gaze)
	return scatter
}

// csvHeader is the per-frame export record layout.
var csvHeader = []string{
	"timestamp",
	"left_iris_x", "left_iris_y",
	"right_iris_x", "right_iris_y",
	"avg_iris_x", "avg_iris_y",
	"cal_left_x", "cal_left_y",
	"cal_right_x", "cal_right_y",
	"cal_avg_x", "cal_avg_y",
	"is_saccade", "velocity",
	"trial", "dot_position",
	"target_x", "target_y",
}

// ExportCSV streams the persisted frame stream of a session as CSV.
func (h *ResultsHandler) ExportCSV(c *gin.Context) {
	screening := c.MustGet(SessionContextKey).(*models.ScreeningSession)

	frames, err := repository.GetFrames(screening.ID)
	if err != nil {
		h.log.Error("Failed to load frames for export", zap.Int("sessionID", screening.ID), zap.Error(err))
		c.String(http.StatusInternalServerError, "Failed to load frames")
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=session_%d_frames.csv", screening.ID))

	w := csv.NewWriter(c.Writer)
	if err := w.Write(csvHeader); err != nil {
		h.log.Error("Failed to write CSV header", zap.Error(err))
		return
	}

	for i := range frames {
		if err := w.Write(frameCSVRow(&frames[i])); err != nil {
			h.log.Error("Failed to write CSV row", zap.Error(err))
			return
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		h.log.Error("CSV export failed", zap.Int("sessionID", screening.ID), zap.Error(err))
	}
}

func frameCSVRow(f *models.FrameRecord) []string {
	avgX, avgY := averageIris(f)
	return []string{
		formatFloat(&f.Timestamp),
		formatFloat(f.LeftIrisX), formatFloat(f.LeftIrisY),
		formatFloat(f.RightIrisX), formatFloat(f.RightIrisY),
		formatFloat(avgX), formatFloat(avgY),
		formatFloat(f.CalLeftX), formatFloat(f.CalLeftY),
		formatFloat(f.CalRightX), formatFloat(f.CalRightY),
		formatFloat(f.CalAvgX), formatFloat(f.CalAvgY),
		strconv.FormatBool(f.IsSaccade),
		strconv.FormatFloat(f.Velocity, 'f', -1, 64),
		strconv.Itoa(f.Trial),
		f.DotPosition,
		strconv.FormatFloat(f.TargetX, 'f', -1, 64),
		strconv.FormatFloat(f.TargetY, 'f', -1, 64),
	}
}

// averageIris combines the raw iris coordinates into the cyclopean raw
// estimate, mirroring the calibrated average.
func averageIris(f *models.FrameRecord) (x, y *float64) {
	switch {
	case f.LeftIrisX != nil && f.RightIrisX != nil:
		ax := (*f.LeftIrisX + *f.RightIrisX) / 2
		ay := (*f.LeftIrisY + *f.RightIrisY) / 2
		return &ax, &ay
	case f.LeftIrisX != nil:
		return f.LeftIrisX, f.LeftIrisY
	case f.RightIrisX != nil:
		return f.RightIrisX, f.RightIrisY
	}
	return nil, nil
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
