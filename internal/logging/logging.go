// Package logging owns the process logger. Everything goes to a JSON log file;
// warnings and errors (or everything, in debug mode) are also echoed to stderr.
package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu      sync.Mutex
	logFile *os.File
	sugar   = zap.NewNop().Sugar()
)

var consoleEncoderConfig = zapcore.EncoderConfig{
	TimeKey:        "ts",
	LevelKey:       "lvl",
	MessageKey:     "message",
	LineEnding:     zapcore.DefaultLineEnding,
	EncodeLevel:    zapcore.CapitalColorLevelEncoder,
	EncodeTime:     zapcore.TimeEncoderOfLayout("15:04:05"),
	EncodeDuration: zapcore.StringDurationEncoder,
}

// Init replaces the process logger. An empty logPath disables the file sink.
func Init(logPath string, debug bool) error {
	mu.Lock()
	defer mu.Unlock()

	closeFileLocked()

	consoleLevel := zapcore.WarnLevel
	if debug {
		consoleLevel = zapcore.DebugLevel
	}
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleEncoderConfig), zapcore.Lock(os.Stderr), consoleLevel),
	}

	if logPath != "" {
		if dir := filepath.Dir(logPath); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
		file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		logFile = file
		fileConfig := zap.NewProductionEncoderConfig()
		fileConfig.EncodeTime = zapcore.RFC3339TimeEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileConfig), zapcore.AddSync(logFile), zapcore.DebugLevel))
	}

	sugar = zap.New(zapcore.NewTee(cores...)).Sugar()
	return nil
}

// Close flushes the logger and releases the log file.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	_ = sugar.Sync()
	sugar = zap.NewNop().Sugar()
	return closeFileLocked()
}

func closeFileLocked() error {
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	return err
}

// Logger returns the current process logger.
func Logger() *zap.SugaredLogger {
	mu.Lock()
	defer mu.Unlock()
	return sugar
}

func LogEvent(format string, args ...any) {
	Logger().Infof(format, args...)
}

func LogWarn(format string, args ...any) {
	Logger().Warnf(format, args...)
}

func LogDebug(format string, args ...any) {
	Logger().Debugf(format, args...)
}

// LogRequest records one hop to or from an external collaborator.
func LogRequest(direction, service, target string, payload any) {
	Logger().Debug(buildRequestMessage(direction, service, target, payload))
}

func buildRequestMessage(direction, service, target string, payload any) string {
	dir := strings.TrimSpace(direction)
	if dir != "" {
		dir = strings.ToUpper(dir)
	}
	serviceValue := strings.TrimSpace(service)
	if serviceValue == "" {
		serviceValue = "unknown"
	}
	targetValue := strings.TrimSpace(target)
	if targetValue == "" {
		targetValue = "unknown"
	}
	parts := []string{fmt.Sprintf("[%s]", dir)}
	parts = append(parts, fmt.Sprintf("service=%s", serviceValue))
	parts = append(parts, fmt.Sprintf("target=%s", targetValue))
	parts = append(parts, fmt.Sprintf("payload=%s", formatPayload(payload)))
	return strings.Join(parts, " ")
}

func formatPayload(payload any) string {
	switch v := payload.(type) {
	case nil:
		return "null"
	case string:
		if strings.TrimSpace(v) == "" {
			return `""`
		}
		return v
	case []byte:
		if len(v) == 0 {
			return "[]"
		}
		return string(v)
	case fmt.Stringer:
		return v.String()
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
}
