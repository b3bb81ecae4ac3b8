package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type TelemetryConfig struct {
	LogLevel     string `yaml:"log_level"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	OTLPInsecure bool   `yaml:"otlp_insecure"`
}

type HTTPConfig struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

type TTSConfig struct {
	Mode         string `yaml:"mode"` // polly, exec, mock
	Region       string `yaml:"region"`
	DefaultVoice string `yaml:"default_voice"`
	MaxChunkLen  int    `yaml:"max_chunk_len"`
	SampleRate   int    `yaml:"sample_rate"`
	SynthTimeout int    `yaml:"synth_timeout_ms"`
	Command      string `yaml:"command"`
}

type TranslateConfig struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"api_key"`
}

type BusConfig struct {
	Enabled        bool     `yaml:"enabled"`
	Embedded       bool     `yaml:"embedded"`
	Port           int      `yaml:"port"`
	Servers        []string `yaml:"servers"`
	Username       string   `yaml:"username"`
	Password       string   `yaml:"password"`
	Token          string   `yaml:"token"`
	TLSInsecure    bool     `yaml:"tls_insecure"`
	ConnectTimeout int      `yaml:"connect_timeout_ms"`
}

type RequestLogConfig struct {
	Path          string `yaml:"path"`
	RetentionMode string `yaml:"retention_mode"`
	RetentionDays int    `yaml:"retention_days"`
	MaxRequests   int    `yaml:"max_requests"`
	VacuumOnStart bool   `yaml:"vacuum_on_start"`
}

type Config struct {
	ServiceName string           `yaml:"service_name"`
	Environment string           `yaml:"environment"`
	HTTP        HTTPConfig       `yaml:"http"`
	Telemetry   TelemetryConfig  `yaml:"telemetry"`
	TTS         TTSConfig        `yaml:"tts"`
	Translate   TranslateConfig  `yaml:"translate"`
	Bus         BusConfig        `yaml:"bus"`
	RequestLog  RequestLogConfig `yaml:"request_log"`
}

func Default() Config {
	return Config{
		ServiceName: "orate-core",
		Environment: "development",
		HTTP: HTTPConfig{
			Bind: "0.0.0.0",
			Port: 8001,
		},
		Telemetry: TelemetryConfig{
			LogLevel:     "info",
			OTLPEndpoint: "",
			OTLPInsecure: true,
		},
		TTS: TTSConfig{
			Mode:         "polly",
			Region:       "",
			DefaultVoice: "Joanna",
			MaxChunkLen:  2900,
			SampleRate:   16000,
			SynthTimeout: 120000,
		},
		Translate: TranslateConfig{
			Endpoint: "https://translation.googleapis.com/language/translate/v2",
		},
		Bus: BusConfig{
			Enabled:        false,
			Embedded:       true,
			Port:           4222,
			Servers:        []string{"nats://localhost:4222"},
			ConnectTimeout: 2000,
		},
		RequestLog: RequestLogConfig{
			Path:          "./data/orate-requests.db",
			RetentionMode: "persistent",
			RetentionDays: 30,
			MaxRequests:   10000,
		},
	}
}

func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return cfg, fmt.Errorf("config file not found: %w", err)
			}
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.ServiceName, "ORATE_SERVICE_NAME")
	overrideString(&cfg.Environment, "ORATE_ENVIRONMENT")
	overrideString(&cfg.HTTP.Bind, "ORATE_HTTP_BIND")
	overrideInt(&cfg.HTTP.Port, "ORATE_HTTP_PORT")
	overrideString(&cfg.Telemetry.LogLevel, "ORATE_TELEMETRY_LOG_LEVEL")
	overrideString(&cfg.Telemetry.OTLPEndpoint, "ORATE_TELEMETRY_OTLP_ENDPOINT")
	overrideBool(&cfg.Telemetry.OTLPInsecure, "ORATE_TELEMETRY_OTLP_INSECURE")
	overrideString(&cfg.TTS.Mode, "ORATE_TTS_MODE")
	overrideString(&cfg.TTS.Region, "ORATE_TTS_REGION")
	overrideString(&cfg.TTS.DefaultVoice, "ORATE_TTS_DEFAULT_VOICE")
	overrideInt(&cfg.TTS.MaxChunkLen, "ORATE_TTS_MAX_CHUNK_LEN")
	overrideInt(&cfg.TTS.SampleRate, "ORATE_TTS_SAMPLE_RATE")
	overrideInt(&cfg.TTS.SynthTimeout, "ORATE_TTS_SYNTH_TIMEOUT_MS")
	overrideString(&cfg.TTS.Command, "ORATE_TTS_COMMAND")
	overrideString(&cfg.Translate.Endpoint, "ORATE_TRANSLATE_ENDPOINT")
	overrideString(&cfg.Translate.APIKey, "ORATE_TRANSLATE_API_KEY")
	overrideString(&cfg.Translate.APIKey, "GOOGLE_API")
	overrideBool(&cfg.Bus.Enabled, "ORATE_BUS_ENABLED")
	overrideBool(&cfg.Bus.Embedded, "ORATE_BUS_EMBEDDED")
	overrideInt(&cfg.Bus.Port, "ORATE_BUS_PORT")
	overrideStringSlice(&cfg.Bus.Servers, "ORATE_BUS_SERVERS")
	overrideString(&cfg.Bus.Username, "ORATE_BUS_USERNAME")
	overrideString(&cfg.Bus.Password, "ORATE_BUS_PASSWORD")
	overrideString(&cfg.Bus.Token, "ORATE_BUS_TOKEN")
	overrideBool(&cfg.Bus.TLSInsecure, "ORATE_BUS_TLS_INSECURE")
	overrideInt(&cfg.Bus.ConnectTimeout, "ORATE_BUS_CONNECT_TIMEOUT_MS")
	overrideString(&cfg.RequestLog.Path, "ORATE_REQUEST_LOG_PATH")
	overrideString(&cfg.RequestLog.RetentionMode, "ORATE_REQUEST_LOG_RETENTION_MODE")
	overrideInt(&cfg.RequestLog.RetentionDays, "ORATE_REQUEST_LOG_RETENTION_DAYS")
	overrideInt(&cfg.RequestLog.MaxRequests, "ORATE_REQUEST_LOG_MAX_REQUESTS")
	overrideBool(&cfg.RequestLog.VacuumOnStart, "ORATE_REQUEST_LOG_VACUUM_ON_START")
}

func overrideString(target *string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		*target = value
	}
}

func overrideInt(target *int, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}

func overrideBool(target *bool, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			*target = parsed
		}
	}
}

func overrideStringSlice(target *[]string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		parts := strings.Split(value, ",")
		var trimmed []string
		for _, p := range parts {
			if s := strings.TrimSpace(p); s != "" {
				trimmed = append(trimmed, s)
			}
		}
		if len(trimmed) > 0 {
			*target = trimmed
		}
	}
}

func validate(cfg Config) error {
	if cfg.ServiceName == "" {
		return errors.New("service_name must not be empty")
	}
	if cfg.HTTP.Port <= 0 || cfg.HTTP.Port > 65535 {
		return errors.New("http.port must be between 1 and 65535")
	}
	switch cfg.TTS.Mode {
	case "polly", "exec", "mock":
	default:
		return errors.New("tts.mode must be one of polly|exec|mock")
	}
	if cfg.TTS.Mode == "exec" && cfg.TTS.Command == "" {
		return errors.New("tts.command must be set when mode=exec")
	}
	if cfg.TTS.MaxChunkLen <= 0 {
		return errors.New("tts.max_chunk_len must be positive")
	}
	if cfg.TTS.SampleRate <= 0 {
		return errors.New("tts.sample_rate must be positive")
	}
	if cfg.TTS.SynthTimeout <= 0 {
		return errors.New("tts.synth_timeout_ms must be positive")
	}
	if cfg.Translate.Endpoint == "" {
		return errors.New("translate.endpoint must not be empty")
	}
	if cfg.Bus.Enabled {
		if cfg.Bus.Embedded {
			if cfg.Bus.Port <= 0 || cfg.Bus.Port > 65535 {
				return errors.New("bus.port must be between 1 and 65535 when embedded mode is enabled")
			}
		} else if len(cfg.Bus.Servers) == 0 {
			return errors.New("bus.servers must not be empty when embedded mode is disabled")
		}
	}
	if cfg.RequestLog.Path == "" {
		return errors.New("request_log.path must not be empty")
	}
	switch cfg.RequestLog.RetentionMode {
	case "ephemeral", "persistent":
		// ok
	default:
		return errors.New("request_log.retention_mode must be one of ephemeral|persistent")
	}
	if cfg.RequestLog.RetentionDays < 0 {
		return errors.New("request_log.retention_days must be >= 0")
	}
	return nil
}
