package config

import (
	_ "embed"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed profiles.yaml
var profilesYAML []byte

type Config struct {
	Store     StoreConfig
	Database  DatabaseConfig
	Face      FaceConfig
	Voice     VoiceConfig
	Enroll    EnrollConfig
	Capture   CaptureConfig
	Detection DetectionConfig
	Profiles  ProfilesConfig
}

type StoreConfig struct {
	Dir string // root directory for face samples, voice clips and the model file
}

type DatabaseConfig struct {
	Path    string // SQLite database file for roster and attendance
	AdminID int    // owner scope for roster and attendance rows
}

type FaceConfig struct {
	DistanceThreshold float64 // predict distances below this count as a match
}

type VoiceConfig struct {
	AcceptThreshold float64       // minimum similarity to accept a voice challenge
	ClipDuration    time.Duration // length of a recorded voice clip
	ChallengeDelay  time.Duration // pause between spoken prompt and recording
}

type EnrollConfig struct {
	TargetSamples int           // face images captured per enrollment
	MinInterval   time.Duration // minimum gap between two saved samples
	Timeout       time.Duration // wall-clock limit for the capture phase
	WarmupFrames  int           // frames discarded while auto-exposure settles
}

type CaptureConfig struct {
	CameraDevice string // V4L2 device path
	FrameWidth   int
	FrameHeight  int
}

type DetectionConfig struct {
	CascadePath string // pigo facefinder cascade file
	Profile     string // key into the embedded profiles.yaml
}

type ProfilesConfig struct {
	Profiles map[string]DetectionProfile `yaml:"profiles"`
}

// DetectionProfile groups pigo cascade parameters tuned for one deployment.
type DetectionProfile struct {
	MinFaceSize      int     `yaml:"min_face_size"`
	MaxFaceSize      int     `yaml:"max_face_size"`
	ShiftFactor      float64 `yaml:"shift_factor"`
	ScaleFactor      float64 `yaml:"scale_factor"`
	IoUThreshold     float64 `yaml:"iou_threshold"`
	QualityThreshold float64 `yaml:"quality_threshold"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a float.
// Returns the default value if the env var is unset, empty, or invalid.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return defaultVal
}

// envString reads an environment variable with a fallback default.
func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

func Load() *Config {
	var profiles ProfilesConfig
	if err := yaml.Unmarshal(profilesYAML, &profiles); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded profiles.yaml: " + err.Error())
	}

	return &Config{
		Store: StoreConfig{
			Dir: envString("SAMPLES_DIR", "data/faces"),
		},
		Database: DatabaseConfig{
			Path:    envString("DATABASE_PATH", "data/attendance.db"),
			AdminID: envInt("ADMIN_ID", 1),
		},
		Face: FaceConfig{
			DistanceThreshold: envFloat("FACE_DISTANCE_THRESHOLD", 55),
		},
		Voice: VoiceConfig{
			AcceptThreshold: envFloat("VOICE_ACCEPT_THRESHOLD", 0.75),
			ClipDuration:    time.Duration(envInt("VOICE_CLIP_SECONDS", 3)) * time.Second,
			ChallengeDelay:  time.Duration(envInt("VOICE_CHALLENGE_DELAY_MS", 1000)) * time.Millisecond,
		},
		Enroll: EnrollConfig{
			TargetSamples: envInt("ENROLL_SAMPLES", 5),
			MinInterval:   time.Duration(envInt("ENROLL_MIN_INTERVAL_MS", 1000)) * time.Millisecond,
			Timeout:       time.Duration(envInt("ENROLL_TIMEOUT_SECONDS", 25)) * time.Second,
			WarmupFrames:  envInt("ENROLL_WARMUP_FRAMES", 10),
		},
		Capture: CaptureConfig{
			CameraDevice: envString("CAMERA_DEVICE", "/dev/video0"),
			FrameWidth:   envInt("CAMERA_WIDTH", 640),
			FrameHeight:  envInt("CAMERA_HEIGHT", 480),
		},
		Detection: DetectionConfig{
			CascadePath: envString("CASCADE_PATH", "models/facefinder"),
			Profile:     envString("DETECT_PROFILE", "classroom"),
		},
		Profiles: profiles,
	}
}

// DetectionProfile resolves the configured detection profile, falling back
// to "classroom" when the requested profile does not exist.
func (c *Config) DetectionProfile() DetectionProfile {
	if p, ok := c.Profiles.Profiles[c.Detection.Profile]; ok {
		return p
	}
	return c.Profiles.Profiles["classroom"]
}
