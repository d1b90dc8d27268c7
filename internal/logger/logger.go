package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger represents the application logger
type Logger struct {
	*logrus.Logger
	config LogConfig
}

// LogConfig contains logger configuration
type LogConfig struct {
	Level       string
	Format      string // "json" or "text"
	LogToFile   bool
	LogFilePath string
	SweepLogDir string
}

// NewLogger creates a new logger instance
func NewLogger(config LogConfig) (*Logger, error) {
	log := logrus.New()

	level, err := logrus.ParseLevel(config.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %s: %w", config.Level, err)
	}
	log.SetLevel(level)

	log.SetOutput(os.Stdout)

	switch strings.ToLower(config.Format) {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	case "text":
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05.000",
			ForceColors:     true,
			DisableQuote:    true,
		})
	default:
		log.SetFormatter(&CustomFormatter{})
	}

	if config.SweepLogDir != "" {
		if err := os.MkdirAll(config.SweepLogDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create sweep log directory %s: %w", config.SweepLogDir, err)
		}
	}

	if config.LogToFile && config.LogFilePath != "" {
		logDir := filepath.Dir(config.LogFilePath)
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory %s: %w", logDir, err)
		}
	}

	return &Logger{
		Logger: log,
		config: config,
	}, nil
}

// CustomFormatter provides a clean, timestamped format for console output
type CustomFormatter struct{}

func (f *CustomFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	timestamp := entry.Time.Format("2006-01-02 15:04:05.000")
	level := strings.ToUpper(entry.Level.String())

	var levelColor string
	switch entry.Level {
	case logrus.DebugLevel:
		levelColor = "\033[36m"
	case logrus.InfoLevel:
		levelColor = "\033[32m"
	case logrus.WarnLevel:
		levelColor = "\033[33m"
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		levelColor = "\033[31m"
	default:
		levelColor = "\033[0m"
	}

	resetColor := "\033[0m"

	msg := fmt.Sprintf("%s [%s%s%s] %s",
		timestamp,
		levelColor,
		level,
		resetColor,
		entry.Message)

	if len(entry.Data) > 0 {
		msg += " |"
		for key, value := range entry.Data {
			msg += fmt.Sprintf(" %s=%v", key, value)
		}
	}

	msg += "\n"
	return []byte(msg), nil
}

// WithField adds a field to the logger
func (l *Logger) WithField(key string, value interface{}) *logrus.Entry {
	return l.Logger.WithField(key, value)
}

// WithFields adds multiple fields to the logger
func (l *Logger) WithFields(fields logrus.Fields) *logrus.Entry {
	return l.Logger.WithFields(fields)
}

// WithError adds an error field to the logger
func (l *Logger) WithError(err error) *logrus.Entry {
	return l.Logger.WithError(err)
}

// LogAssetFound logs a discovered token holding
func (l *Logger) LogAssetFound(mint, symbol string, balance string, programID string) {
	l.WithFields(logrus.Fields{
		"event":   "asset_found",
		"mint":    mint,
		"symbol":  symbol,
		"balance": balance,
		"program": programID,
	}).Info("Found token holding")
}

// LogQuoteFound logs a successful swap quote
func (l *Logger) LogQuoteFound(mint string, inAmount, outAmount string) {
	l.WithFields(logrus.Fields{
		"event":      "quote_found",
		"mint":       mint,
		"in_amount":  inAmount,
		"out_amount": outAmount,
	}).Info("Quote found")
}

// LogSweepOutcome logs a terminal per-asset sweep state
func (l *Logger) LogSweepOutcome(mint, symbol, status, txid string) {
	l.WithFields(logrus.Fields{
		"event":     "sweep_outcome",
		"mint":      mint,
		"symbol":    symbol,
		"status":    status,
		"signature": txid,
	}).Info("Sweep outcome")
}
