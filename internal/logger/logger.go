package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Standard field names
const (
	FieldFile     = "file"
	FieldOutput   = "output"
	FieldContract = "contract"
	FieldCount    = "count"
	FieldShape    = "shape"
	FieldError    = "error"
)

const (
	VerbosityQuiet = -1 // -q: warnings and errors only
	VerbosityUser  = 0  // progress per file
	VerbosityDebug = 1  // -v: + template registration, shapes, config
)

// Logger is a no-op until Initialize is called
var Logger = zap.NewNop().Sugar()

// Initialize sets up the package logger. jsonOutput selects zap's production JSON encoder,
// otherwise a plain console encoder writing to stderr is used.
func Initialize(verbosity int, jsonOutput bool) error {
	level := zap.NewAtomicLevelAt(VerbosityToLevel(verbosity))

	if jsonOutput {
		config := zap.NewProductionConfig()
		config.Level = level
		config.OutputPaths = []string{"stderr"}
		zapLogger, err := config.Build()
		if err != nil {
			return err
		}
		Logger = zapLogger.Sugar()
		return nil
	}

	encoderConfig := zapcore.EncoderConfig{
		LevelKey:       "level",
		NameKey:        "logger",
		MessageKey:     "msg",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalColorLevelEncoder,
		EncodeName:     zapcore.FullNameEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
	Logger = zap.New(
		zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderConfig),
			zapcore.AddSync(os.Stderr),
			level,
		),
	).Sugar()
	return nil
}

// VerbosityToLevel maps the -v count (or -1 for -q) to a zap level
func VerbosityToLevel(verbosity int) zapcore.Level {
	switch {
	case verbosity <= VerbosityQuiet:
		return zapcore.WarnLevel
	case verbosity == VerbosityUser:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}

// ComponentLogger returns a named logger for dependency injection
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}

func Sync() {
	_ = Logger.Sync()
}
