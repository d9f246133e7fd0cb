// Package config provides configuration management for the tunables of the
// streaming near-duplicate detector. It supports loading from and saving to
// a JSON file, with defaults matching the detector's documented defaults,
// and hot application of command-line flag overrides.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
)

// Tunables holds every configuration knob the sparse-vector stream
// processor exposes. Field names follow the detector's own vocabulary.
type Tunables struct {
	// Threshold is the upper exclusive bound on reportable distance.
	Threshold float64 `json:"threshold"`
	// Window is the sliding-window size in records (W).
	Window int `json:"window"`
	// QuerySize is the number of leading query dims probed for candidates (K).
	QuerySize int `json:"query_size"`
	// VocSize is max dim id + 1; capacity of the Scatter Scorer / Inverted Index.
	VocSize int `json:"voc_size"`
	// Limit caps the number of records processed; 0 means unbounded.
	Limit int `json:"limit"`
	// Workers caps the worker-pool size used by the Neighbor Finder; 0 means
	// the driver picks an adaptive count based on runtime.NumCPU().
	Workers int `json:"workers"`
	// LogMaxSizeMB is the error-log rotation threshold in megabytes, passed
	// straight through to errlog.Init.
	LogMaxSizeMB int `json:"log_max_size_mb"`
	// LogMaxBackups is the number of compressed error-log archives to retain.
	LogMaxBackups int `json:"log_max_backups"`
}

// DefaultTunables returns a Tunables populated with the detector's documented
// defaults.
func DefaultTunables() *Tunables {
	return &Tunables{
		Threshold:     0.69,
		Window:        1_500_000,
		QuerySize:     5,
		VocSize:       300_000,
		Limit:         0,
		Workers:       0,
		LogMaxSizeMB:  100,
		LogMaxBackups: 5,
	}
}

// Validate reports an error if any tunable is out of its valid range.
func (t *Tunables) Validate() error {
	if t.Threshold < 0 {
		return errors.New("threshold must be >= 0")
	}
	if t.Window <= 0 {
		return errors.New("window must be > 0")
	}
	if t.QuerySize <= 0 {
		return errors.New("query_size must be > 0")
	}
	if t.VocSize <= 0 {
		return errors.New("voc_size must be > 0")
	}
	if t.Limit < 0 {
		return errors.New("limit must be >= 0")
	}
	if t.Workers < 0 {
		return errors.New("workers must be >= 0")
	}
	if t.LogMaxSizeMB <= 0 {
		return errors.New("log_max_size_mb must be > 0")
	}
	if t.LogMaxBackups < 0 {
		return errors.New("log_max_backups must be >= 0")
	}
	return nil
}

// Manager manages loading, saving, and updating a Tunables configuration
// backed by a JSON file on disk.
type Manager struct {
	path string
	mu   sync.RWMutex
	cfg  *Tunables
}

// NewManager creates a new Manager for the given config file path.
func NewManager(path string) *Manager {
	return &Manager{path: path}
}

// Load reads the config file from disk. If the file does not exist, it
// initializes with default values and saves them so subsequent runs have a
// file to edit.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			m.cfg = DefaultTunables()
			return m.saveLocked()
		}
		return fmt.Errorf("read config file: %w", err)
	}

	cfg := DefaultTunables()
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	m.cfg = cfg
	return nil
}

// Save writes the current config to disk.
func (m *Manager) Save() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saveLocked()
}

func (m *Manager) saveLocked() error {
	data, err := json.MarshalIndent(m.cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(m.path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Get returns the current Tunables. The caller must not mutate the result.
func (m *Manager) Get() *Tunables {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

// Overrides carries command-line flag values onto a loaded config. Every
// field is a pointer so that a legal zero value (e.g. --threshold 0) is
// distinguishable from "flag not given" — mirroring the teacher's own
// Temperature special-case in applyDefaults, which used "< 0" as its unset
// sentinel for exactly this reason. A nil field is left untouched.
type Overrides struct {
	Threshold     *float64
	Window        *int
	QuerySize     *int
	VocSize       *int
	Limit         *int
	Workers       *int
	LogMaxSizeMB  *int
	LogMaxBackups *int
}

// ApplyOverrides merges any non-nil fields of o onto the loaded config.
func (m *Manager) ApplyOverrides(o Overrides) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o.Threshold != nil {
		m.cfg.Threshold = *o.Threshold
	}
	if o.Window != nil {
		m.cfg.Window = *o.Window
	}
	if o.QuerySize != nil {
		m.cfg.QuerySize = *o.QuerySize
	}
	if o.VocSize != nil {
		m.cfg.VocSize = *o.VocSize
	}
	if o.Limit != nil {
		m.cfg.Limit = *o.Limit
	}
	if o.Workers != nil {
		m.cfg.Workers = *o.Workers
	}
	if o.LogMaxSizeMB != nil {
		m.cfg.LogMaxSizeMB = *o.LogMaxSizeMB
	}
	if o.LogMaxBackups != nil {
		m.cfg.LogMaxBackups = *o.LogMaxBackups
	}
}
