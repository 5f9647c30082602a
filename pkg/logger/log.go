package logger

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger собирает консольный zap-логгер. Файловые пути создаются заранее,
// иначе zap не сможет открыть файл.
func NewLogger(level string, outputPaths []string) *zap.Logger {
	lvl := zap.NewAtomicLevelAt(zap.DebugLevel)
	if level != "" {
		if parsed, err := zapcore.ParseLevel(level); err == nil {
			lvl = zap.NewAtomicLevelAt(parsed)
		}
	}

	if len(outputPaths) == 0 {
		outputPaths = []string{"stdout"}
	}
	for _, p := range outputPaths {
		if p == "stdout" || p == "stderr" {
			continue
		}
		_ = os.MkdirAll(filepath.Dir(p), 0o755)
	}

	dualConfig := zap.Config{
		Encoding:         "console",
		Level:            lvl,
		OutputPaths:      outputPaths,
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig:    zap.NewProductionEncoderConfig(),
	}

	dualLogger, err := dualConfig.Build()
	if err != nil {
		panic(err)
	}

	return dualLogger
}
