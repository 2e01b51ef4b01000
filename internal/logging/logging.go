// Package logging configures the process-wide logger.
package logging

import (
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/tigearis/payroll-billing/internal/config"
)

// Setup applies the logging configuration to the global logger. When a log
// file is configured, output goes to stdout and a size-rotated file.
func Setup(cfg config.LoggingConfig) {
	log.SetLevel(parseLevel(cfg.Level))
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	if strings.TrimSpace(cfg.File) == "" {
		log.SetOutput(os.Stdout)
		return
	}

	rotator := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    orDefault(cfg.MaxSizeMB, 100),
		MaxBackups: orDefault(cfg.MaxBackups, 5),
		MaxAge:     orDefault(cfg.MaxAgeDays, 30),
		Compress:   cfg.Compress,
	}
	log.SetOutput(io.MultiWriter(os.Stdout, rotator))
}

// parseLevel maps a config level string to a logrus level, defaulting to info.
func parseLevel(level string) log.Level {
	parsed, err := log.ParseLevel(strings.TrimSpace(strings.ToLower(level)))
	if err != nil {
		return log.InfoLevel
	}
	return parsed
}

func orDefault(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}
