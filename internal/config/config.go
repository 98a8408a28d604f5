package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Conf holds the application configuration, making it accessible globally.
var Conf *Config

// Config struct is the top-level configuration structure.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Tracking    TrackingConfig    `mapstructure:"tracking"`
	Calibration CalibrationConfig `mapstructure:"calibration"`
	Analysis    AnalysisConfig    `mapstructure:"analysis"`
}

// ServerConfig holds server-related settings.
type ServerConfig struct {
	Port          string `mapstructure:"port"`
	SessionSecret string `mapstructure:"session_secret"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

// LoggingConfig holds settings for the logger.
type LoggingConfig struct {
	Directory  string `mapstructure:"directory"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// AdaptiveThresholdConfig tunes the per-trial velocity threshold estimator.
type AdaptiveThresholdConfig struct {
	Enabled            bool    `mapstructure:"enabled"`
	SDMultiplier       float64 `mapstructure:"sd_multiplier"`
	MinFixationSamples int     `mapstructure:"min_fixation_samples"`
	MinDegPerSec       float64 `mapstructure:"min_deg_per_sec"`
	MaxDegPerSec       float64 `mapstructure:"max_deg_per_sec"`
}

// TrackingConfig tunes the per-frame velocity and saccade classification path.
type TrackingConfig struct {
	StaticThresholdDegSec      float64                 `mapstructure:"static_threshold_deg_sec"`
	FOVHorizontalDeg           float64                 `mapstructure:"fov_horizontal_deg"`
	FOVVerticalDeg             float64                 `mapstructure:"fov_vertical_deg"`
	MaxFrameGapSec             float64                 `mapstructure:"max_frame_gap_sec"`
	MaxBinocularDisparityDeg   float64                 `mapstructure:"max_binocular_disparity_deg_sec"`
	MaxFixationVelocityDegSec  float64                 `mapstructure:"max_fixation_velocity_deg_sec"`
	FixationVelocityWindowSize int                     `mapstructure:"fixation_velocity_window_size"`
	Adaptive                   AdaptiveThresholdConfig `mapstructure:"adaptive"`
}

// CalibrationConfig tunes the calibration fitter.
type CalibrationConfig struct {
	MinSamplesPerPoint int       `mapstructure:"min_samples_per_point"`
	AccuracyThreshold  float64   `mapstructure:"accuracy_threshold"`
	LambdaGrid         []float64 `mapstructure:"lambda_grid"`
	CVFolds            int       `mapstructure:"cv_folds"`
}

// LatencyBounds are the per-phase saccade latency classification bounds.
type LatencyBounds struct {
	ExpressMs float64 `mapstructure:"express_ms"`
	MinMs     float64 `mapstructure:"min_ms"`
	MaxMs     float64 `mapstructure:"max_ms"`
}

// AnalysisConfig tunes trial scoring.
type AnalysisConfig struct {
	Profile            string        `mapstructure:"profile"`
	ROIRadius          float64       `mapstructure:"roi_radius"` // 0 enables the adaptive radius
	FixationDurationMs float64       `mapstructure:"fixation_duration_ms"`
	TrackerFPS         float64       `mapstructure:"tracker_fps"`
	MinDataQuality     float64       `mapstructure:"min_data_quality"`
	Pro                LatencyBounds `mapstructure:"pro"`
	Anti               LatencyBounds `mapstructure:"anti"`
}

// Bounds returns the latency bounds for the given phase.
func (a AnalysisConfig) Bounds(phase string) LatencyBounds {
	if phase == "anti" {
		return a.Anti
	}
	return a.Pro
}

// setDefaults sets the default values for the configuration.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "5050")
	v.SetDefault("server.session_secret", "change-me-in-production")

	// Database defaults
	v.SetDefault("database.host", "db")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "user")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.dbname", "saccadesync-db")

	// Logging defaults
	v.SetDefault("logging.directory", "logs")
	v.SetDefault("logging.max_size", 10)   // 10 MB
	v.SetDefault("logging.max_backups", 3) // Keep 3 backups
	v.SetDefault("logging.max_age", 7)     // 7 days
	v.SetDefault("logging.compress", true) // Compress old logs

	// Tracking defaults
	v.SetDefault("tracking.static_threshold_deg_sec", 30.0)
	v.SetDefault("tracking.fov_horizontal_deg", 40.0)
	v.SetDefault("tracking.fov_vertical_deg", 30.0)
	v.SetDefault("tracking.max_frame_gap_sec", 0.5)
	v.SetDefault("tracking.max_binocular_disparity_deg_sec", 100.0)
	v.SetDefault("tracking.max_fixation_velocity_deg_sec", 100.0)
	v.SetDefault("tracking.fixation_velocity_window_size", 200)
	v.SetDefault("tracking.adaptive.enabled", true)
	v.SetDefault("tracking.adaptive.sd_multiplier", 2.5)
	v.SetDefault("tracking.adaptive.min_fixation_samples", 10)
	v.SetDefault("tracking.adaptive.min_deg_per_sec", 25.0)
	v.SetDefault("tracking.adaptive.max_deg_per_sec", 100.0)

	// Calibration defaults
	v.SetDefault("calibration.min_samples_per_point", 15)
	v.SetDefault("calibration.accuracy_threshold", 0.85)
	v.SetDefault("calibration.lambda_grid", []float64{0.001, 0.01, 0.1, 1.0, 10.0})
	v.SetDefault("calibration.cv_folds", 5)

	// Analysis defaults
	v.SetDefault("analysis.profile", "webcam")
	v.SetDefault("analysis.roi_radius", 0.0)
	v.SetDefault("analysis.fixation_duration_ms", 300.0)
	v.SetDefault("analysis.tracker_fps", 30.0)
	v.SetDefault("analysis.min_data_quality", 0.7)
	v.SetDefault("analysis.pro.express_ms", 120.0)
	v.SetDefault("analysis.pro.min_ms", 90.0)
	v.SetDefault("analysis.pro.max_ms", 600.0)
	v.SetDefault("analysis.anti.express_ms", 180.0)
	v.SetDefault("analysis.anti.min_ms", 90.0)
	v.SetDefault("analysis.anti.max_ms", 800.0)
}

// Init initializes the configuration with Viper.
func Init(projectRoot string, log *zap.Logger) error {
	v := viper.New()

	// Set default values
	setDefaults(v)

	// --- File Configuration ---
	v.AddConfigPath(filepath.Join(projectRoot, "config"))
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// --- Environment Variable Binding ---
	v.SetEnvPrefix("SACCADE") // e.g., SACCADE_SERVER_PORT
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read the initial configuration from the file.
	// It's okay if the file doesn't exist; defaults and env vars will be used.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Unmarshal the config into our global Conf variable
	if err := v.Unmarshal(&Conf); err != nil {
		return fmt.Errorf("unable to decode config into struct: %w", err)
	}

	// Set up a watch for configuration changes for hot-reloading
	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		log.Info("Configuration file changed, reloading.", zap.String("file", e.Name))
		if err := v.Unmarshal(&Conf); err != nil {
			log.Error("Error reloading configuration", zap.Error(err))
		}
	})

	log.Info("Configuration loaded successfully")
	return nil
}

// Default returns a Config populated with the built-in defaults, without
// touching files or the environment. Used by tests and standalone fitting.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		panic("failed to unmarshal default config: " + err.Error())
	}
	return &c
}
