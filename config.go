package ecs

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// AppConfig configures App.Create: default worker counts, the
// instrumentation sinks to wire up, an instance id, and a frame
// duration. App does not read FrameDuration itself; RunFrame and
// RunToExit take the frame delta from their caller.
type AppConfig struct {
	DefaultPoolSize int
	FrameDuration   time.Duration
	Instrumentation InstrumentationConfig
	InstanceID      string
}

// LoadAppConfig builds an AppConfig from environment variables and,
// when present, a config file, using github.com/spf13/viper the same
// way a service's config layer would: env vars prefixed ECS_, binding
// dotted keys so nested sections read naturally from YAML/TOML/JSON.
func LoadAppConfig(configPath string) (AppConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("ECS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("default_pool_size", 0)
	v.SetDefault("frame_duration", "16ms")
	v.SetDefault("prometheus.enabled", false)
	v.SetDefault("logging.enabled", true)
	v.SetDefault("tracing.enabled", false)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return AppConfig{}, err
		}
	}

	frameDuration, err := time.ParseDuration(v.GetString("frame_duration"))
	if err != nil {
		frameDuration = 16 * time.Millisecond
	}

	cfg := AppConfig{
		DefaultPoolSize: v.GetInt("default_pool_size"),
		FrameDuration:   frameDuration,
		InstanceID:      v.GetString("instance_id"),
		Instrumentation: InstrumentationConfig{
			Observation: ObservationSettings{
				EnableStructuredLogging: v.GetBool("logging.enabled"),
				EnablePrometheus:        v.GetBool("prometheus.enabled"),
				EnableSigNoz:            v.GetBool("tracing.enabled"),
			},
		},
	}
	return cfg, nil
}
