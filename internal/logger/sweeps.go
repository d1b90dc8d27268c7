package logger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// SweepLog represents one asset's terminal sweep outcome
type SweepLog struct {
	Timestamp    time.Time `json:"timestamp"`
	Mint         string    `json:"mint"`
	TokenName    string    `json:"token_name"`
	TokenSymbol  string    `json:"token_symbol"`
	Balance      string    `json:"balance"`                 // Raw balance in base units
	SwapOut      string    `json:"swap_out,omitempty"`      // Quoted output amount, if swapped
	BurnAmount   string    `json:"burn_amount,omitempty"`   // Burned leftover in base units
	Status       string    `json:"status"`                  // "Scooped", "Error", "Skipped"
	Signature    string    `json:"signature,omitempty"`     // Transaction signature
	ErrorMessage string    `json:"error_message,omitempty"` // Error if failed
}

// SweepLogger appends per-asset sweep outcomes to daily JSONL files
type SweepLogger struct {
	baseDir string
	logger  *Logger
}

// NewSweepLogger creates a new sweep logger
func NewSweepLogger(baseDir string, logger *Logger) (*SweepLogger, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create sweep log directory: %w", err)
	}

	return &SweepLogger{
		baseDir: baseDir,
		logger:  logger,
	}, nil
}

// LogSweep records one asset outcome to the daily sweep file
func (sl *SweepLogger) LogSweep(entry SweepLog) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	sl.logger.WithFields(map[string]interface{}{
		"event":     "sweep_logged",
		"mint":      entry.Mint,
		"symbol":    entry.TokenSymbol,
		"status":    entry.Status,
		"signature": entry.Signature,
	}).Debug("Sweep logged")

	filename := fmt.Sprintf("sweeps_%s.jsonl", entry.Timestamp.Format("2006-01-02"))
	path := filepath.Join(sl.baseDir, filename)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open sweep log file: %w", err)
	}
	defer file.Close()

	entryBytes, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal sweep entry: %w", err)
	}

	if _, err := file.Write(append(entryBytes, '\n')); err != nil {
		return fmt.Errorf("failed to write sweep entry: %w", err)
	}

	return nil
}
