// Package config loads application settings from file and environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. VITRUVIUS_MQTT_BROKER.
const EnvPrefix = "VITRUVIUS"

// FileName is the config file name without extension (json or yaml).
const FileName = "vitruvius"

// EnvFile holds VITRUVIUS_* variables next to the config file. Variables
// already set in the environment win.
const EnvFile = ".env"

// MQTTConfig holds broker settings.
type MQTTConfig struct {
	Broker        string  `mapstructure:"broker"`
	Topic         string  `mapstructure:"topic"`
	JointTopic    string  `mapstructure:"jointTopic"`
	ClientID      string  `mapstructure:"clientId"`
	QoS           int     `mapstructure:"qos"`
	PublishJoints bool    `mapstructure:"publishJoints"`
	JointRate     float64 `mapstructure:"jointRate"`
}

// GestureConfig holds recognition settings.
type GestureConfig struct {
	Window              int           `mapstructure:"window"`
	MinFrames           int           `mapstructure:"minFrames"`
	Cooldown            time.Duration `mapstructure:"cooldown"`
	JoinedHandsDistance float64       `mapstructure:"joinedHandsDistance"`
}

// Config is the full application configuration.
type Config struct {
	LogLevel    string        `mapstructure:"logLevel"`
	LogFile     string        `mapstructure:"logFile"`
	DataDir     string        `mapstructure:"dataDir"`
	ListenAddr  string        `mapstructure:"listenAddr"`
	StaticDir   string        `mapstructure:"staticDir"`
	CameraID    int           `mapstructure:"cameraId"`
	FPS         int           `mapstructure:"fps"`
	PoseCommand string        `mapstructure:"poseCommand"`
	PoseScript  string        `mapstructure:"poseScript"`
	Retention   time.Duration `mapstructure:"retention"`
	DisableTray bool          `mapstructure:"disableTray"`
	HooksDir    string        `mapstructure:"hooksDir"`
	HookTimeout time.Duration `mapstructure:"hookTimeout"`
	MQTT        MQTTConfig    `mapstructure:"mqtt"`
	Gestures    GestureConfig `mapstructure:"gestures"`
}

func setDefaults(v *viper.Viper, dataDir string) {
	v.SetDefault("logLevel", "info")
	v.SetDefault("logFile", "")
	v.SetDefault("dataDir", dataDir)
	v.SetDefault("listenAddr", ":8080")
	v.SetDefault("staticDir", "")
	v.SetDefault("cameraId", 0)
	v.SetDefault("fps", 15)
	v.SetDefault("poseCommand", "python3")
	v.SetDefault("poseScript", "")
	v.SetDefault("retention", "720h")
	v.SetDefault("disableTray", false)
	v.SetDefault("hooksDir", "")
	v.SetDefault("hookTimeout", "5s")

	v.SetDefault("mqtt.broker", "tcp://192.168.86.37:1883")
	v.SetDefault("mqtt.topic", "gestures")
	v.SetDefault("mqtt.jointTopic", "skeleton")
	v.SetDefault("mqtt.clientId", "")
	v.SetDefault("mqtt.qos", 0)
	v.SetDefault("mqtt.publishJoints", false)
	v.SetDefault("mqtt.jointRate", 5.0)

	v.SetDefault("gestures.window", 30)
	v.SetDefault("gestures.minFrames", 10)
	v.SetDefault("gestures.cooldown", "1s")
	v.SetDefault("gestures.joinedHandsDistance", 0.1)
}

// DefaultDataDir returns ~/.vitruvius, or .vitruvius when the home
// directory is unknown.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".vitruvius"
	}
	return filepath.Join(home, ".vitruvius")
}

// Load reads vitruvius.json or vitruvius.yaml from configDir (when present),
// applies VITRUVIUS_* environment overrides, including those from a .env
// file in configDir, and fills in defaults.
// A missing config file is not an error.
func Load(configDir string) (Config, error) {
	if err := loadEnvFile(configDir); err != nil {
		return Config{}, err
	}

	v := viper.New()
	setDefaults(v, DefaultDataDir())

	v.SetConfigName(FileName)
	if configDir != "" {
		v.AddConfigPath(configDir)
	}
	v.AddConfigPath(".")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("error decoding config: %w", err)
	}
	cfg.resolvePaths()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// resolvePaths places unset paths under DataDir, wherever it ended up.
func (c *Config) resolvePaths() {
	if c.PoseScript == "" {
		c.PoseScript = filepath.Join(c.DataDir, "scripts", "pose_service.py")
	}
	if c.HooksDir == "" {
		c.HooksDir = filepath.Join(c.DataDir, "hooks")
	}
}

func loadEnvFile(dir string) error {
	if dir == "" {
		return nil
	}
	err := godotenv.Load(filepath.Join(dir, EnvFile))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("error reading env file: %w", err)
	}
	return nil
}

// Validate reports settings that cannot work.
func (c Config) Validate() error {
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt.qos must be 0, 1 or 2, got %d", c.MQTT.QoS)
	}
	if c.MQTT.Topic == "" {
		return errors.New("mqtt.topic must not be empty")
	}
	if c.MQTT.JointRate < 0 {
		return fmt.Errorf("mqtt.jointRate must not be negative, got %v", c.MQTT.JointRate)
	}
	if c.Gestures.Window < 2 {
		return fmt.Errorf("gestures.window must be at least 2, got %d", c.Gestures.Window)
	}
	if c.Gestures.Cooldown < 0 {
		return fmt.Errorf("gestures.cooldown must not be negative, got %s", c.Gestures.Cooldown)
	}
	if c.HookTimeout < 0 {
		return fmt.Errorf("hookTimeout must not be negative, got %s", c.HookTimeout)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("fps must be positive, got %d", c.FPS)
	}
	return nil
}

// DatabasePath returns the SQLite database location inside DataDir.
func (c Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "vitruvius.db")
}
