package log

import (
	"log"
	"os"

	"github.com/mattn/go-colorable"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger installs the global zap logger. Entries go to the JSON file at path and
// to a coloured console; an empty path logs to the console only.
func NewLogger(path string, debug bool) {
	pe := zap.NewProductionEncoderConfig()
	pe.EncodeTime = zapcore.ISO8601TimeEncoder
	pe.MessageKey = "message"
	pe.TimeKey = "time"
	fileEncoder := zapcore.NewJSONEncoder(pe)

	pe.EncodeLevel = zapcore.CapitalColorLevelEncoder
	consoleEncoder := zapcore.NewConsoleEncoder(pe)

	level := zap.InfoLevel
	if debug {
		level = zap.DebugLevel
	}

	cores := []zapcore.Core{
		zapcore.NewCore(consoleEncoder, zapcore.AddSync(colorable.NewColorableStdout()), level),
	}
	if path != "" {
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Fatal(err)
		}
		cores = append(cores, zapcore.NewCore(fileEncoder, zapcore.AddSync(f), level))
	}

	logger := zap.New(zapcore.NewTee(cores...))
	defer logger.Sync()

	zap.ReplaceGlobals(logger)
}

// Logger is the printf style logger expected by the elastic client.
type Logger interface {
	Printf(format string, v ...interface{})
}

type zapLogger struct {
	level zapcore.Level
}

// NewPrintfLogger adapts the global zap logger to Logger at the given level.
func NewPrintfLogger(level zapcore.Level) Logger {
	return zapLogger{level: level}
}

func (l zapLogger) Printf(format string, v ...interface{}) {
	switch l.level {
	case zapcore.DebugLevel:
		zap.S().Debugf(format, v...)
	case zapcore.ErrorLevel:
		zap.S().Errorf(format, v...)
	default:
		zap.S().Infof(format, v...)
	}
}
