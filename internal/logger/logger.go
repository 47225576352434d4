package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

type LoggerConfig struct {
	Level              string                 `json:"level,omitempty" mapstructure:"level" validate:"omitempty,oneof=trace debug info warn error"`
	Format             string                 `json:"format,omitempty" mapstructure:"format" validate:"omitempty,oneof=json console"`
	OutputTarget       string                 `json:"outputTarget,omitempty" mapstructure:"output_target" validate:"omitempty,oneof=stdout stderr"`
	TimeField          string                 `json:"timeField,omitempty" mapstructure:"time_field"`
	TimeFormat         string                 `json:"timeFormat,omitempty" mapstructure:"time_format" validate:"omitempty,oneof=rfc3339 rfc3339nano unix unix_ms"`
	ServiceName        string                 `json:"serviceName,omitempty" mapstructure:"service_name"`
	ServiceVersion     string                 `json:"serviceVersion,omitempty" mapstructure:"service_version"`
	Env                string                 `json:"env,omitempty" mapstructure:"env" validate:"omitempty,oneof=dev test staging prod"`
	WithCaller         bool                   `json:"withCaller,omitempty" mapstructure:"with_caller"`
	Stacktrace         bool                   `json:"stacktrace,omitempty" mapstructure:"stacktrace"`
	StacktraceMinLevel string                 `json:"stacktraceMinLevel,omitempty" mapstructure:"stacktrace_min_level" validate:"omitempty,oneof=debug info warn error fatal panic"`
	Fields             map[string]interface{} `json:"fields,omitempty" mapstructure:"fields"`
	File               FileConfig             `json:"file,omitempty" mapstructure:"file"`
}

// FileConfig controls the rotating debug log written next to console output in dev.
type FileConfig struct {
	Path       string `json:"path,omitempty" mapstructure:"path"`
	MaxSizeMB  int    `json:"maxSizeMb,omitempty" mapstructure:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `json:"maxBackups,omitempty" mapstructure:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `json:"maxAgeDays,omitempty" mapstructure:"max_age_days" validate:"gte=0"`
	Compress   bool   `json:"compress,omitempty" mapstructure:"compress"`
}

// timeFormats maps config names onto zerolog's time field formats.
var timeFormats = map[string]string{
	"rfc3339":     "2006-01-02T15:04:05Z07:00",
	"rfc3339nano": "2006-01-02T15:04:05.999999999Z07:00",
	"unix":        zerolog.TimeFormatUnix,
	"unix_ms":     zerolog.TimeFormatUnixMs,
}

func New(logg *LoggerConfig) (logger zerolog.Logger, err error) {
	logg.setDefaults()

	v := validator.New()
	if err = v.Struct(logg); err != nil {
		return logger, fmt.Errorf("logger config validation error: %w", err)
	}

	level, err := zerolog.ParseLevel(logg.Level)
	if err != nil {
		return logger, err
	}

	zerolog.TimestampFieldName = logg.TimeField
	zerolog.TimeFieldFormat = resolveTimeFormat(logg.TimeFormat)

	logger = zerolog.New(logg.writer()).
		With().
		Timestamp().
		Str("service", logg.ServiceName).
		Str("version", logg.ServiceVersion).
		Str("env", logg.Env).
		Logger()

	if logg.WithCaller {
		logger = logger.With().Caller().Logger()
	}
	if logg.Stacktrace {
		logger = logger.With().Stack().Logger()
	}
	if len(logg.Fields) > 0 {
		logger = logger.With().Fields(logg.Fields).Logger()
	}

	zerolog.SetGlobalLevel(level)
	return logger.Level(level), nil
}

func resolveTimeFormat(name string) string {
	if f, ok := timeFormats[name]; ok {
		return f
	}
	// already a layout or a zerolog constant
	return name
}

// writer picks the sink: JSON or console on the configured stream, plus a rotating
// file in dev at debug level so a full history survives terminal scrollback.
func (c *LoggerConfig) writer() io.Writer {
	var out io.Writer = os.Stdout
	if c.OutputTarget == "stderr" {
		out = os.Stderr
	}
	if c.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: resolveTimeFormat(c.TimeFormat)}
	}
	if c.Env != "dev" || c.Level != "debug" || c.File.Path == "" {
		return out
	}
	file := &lumberjack.Logger{
		Filename:   c.File.Path,
		MaxSize:    c.File.MaxSizeMB,
		MaxBackups: c.File.MaxBackups,
		MaxAge:     c.File.MaxAgeDays,
		Compress:   c.File.Compress,
	}
	return zerolog.MultiLevelWriter(out, file)
}

func (c *LoggerConfig) setDefaults() {
	if c.Env == "" {
		c.Env = "prod"
	}

	if c.Level == "" {
		if c.Env == "dev" {
			c.Level = "debug"
		} else {
			c.Level = "info"
		}
	}

	if c.Format == "" {
		if c.Env == "dev" {
			c.Format = "console"
		} else {
			c.Format = "json"
		}
	}

	if c.OutputTarget == "" {
		if c.Format == "console" {
			c.OutputTarget = "stderr"
		} else {
			c.OutputTarget = "stdout"
		}
	}

	if c.TimeField == "" {
		c.TimeField = "ts"
	}
	if c.TimeFormat == "" {
		c.TimeFormat = "rfc3339nano"
	}

	if !c.WithCaller && c.Env == "dev" {
		c.WithCaller = true
	}
	if !c.Stacktrace && c.Env != "dev" {
		c.Stacktrace = true
	}
	if c.StacktraceMinLevel == "" {
		c.StacktraceMinLevel = "error"
	}

	if c.ServiceName == "" {
		c.ServiceName = "projecthub-service"
	}
	if c.ServiceVersion == "" {
		c.ServiceVersion = "0.1.0"
	}

	if c.Env == "dev" && c.File.Path == "" {
		c.File.Path = "logs/debug.log"
	}
	if c.File.MaxSizeMB == 0 {
		c.File.MaxSizeMB = 50
	}
	if c.File.MaxBackups == 0 {
		c.File.MaxBackups = 3
	}
	if c.File.MaxAgeDays == 0 {
		c.File.MaxAgeDays = 14
	}

	if c.Fields == nil {
		c.Fields = make(map[string]interface{})
	}
}
