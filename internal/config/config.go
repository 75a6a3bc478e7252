// Package config loads the engine's fixed-for-a-database-lifetime settings
// (page size, record size, sync policy) from YAML, the format the teacher
// repository's own output layer uses (gopkg.in/yaml.v3), repurposed here
// into a settings loader rather than a result formatter.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wavetable-db/txstore/internal/txerr"
)

// Config holds the constants that must stay fixed across a database's
// lifetime (spec.md §6): changing PageSize or RecordSize after a database
// has been created invalidates the existing data and log files.
type Config struct {
	PageSize   int `yaml:"pageSize"`
	RecordSize int `yaml:"recordSize"`

	// SyncOnCommit is true by default, and the engine fsyncs the WAL on every
	// commit whatever its value — the WAL commit fsync is the one durability
	// guarantee the design provides (spec.md §4.4). The field is not read by
	// the engine; it is kept so an operator reading the YAML file sees the
	// guarantee spelled out rather than assumed.
	SyncOnCommit bool `yaml:"syncOnCommit"`

	// CheckpointOnClose, if true, makes Close() run a final Checkpoint
	// before fsyncing the WAL and closing the files.
	CheckpointOnClose bool `yaml:"checkpointOnClose"`

	// WALPathOverride, if set, is used instead of the default "<data>.log"
	// path derived from the data file path.
	WALPathOverride string `yaml:"walPath,omitempty"`
}

// Default returns the constants named as examples in spec.md §3–§6: a 4096
// byte page holding 100 byte records, synchronous commits, and no
// checkpoint-on-close (checkpointing is the caller's responsibility unless
// requested).
func Default() *Config {
	return &Config{
		PageSize:          4096,
		RecordSize:        100,
		SyncOnCommit:      true,
		CheckpointOnClose: false,
	}
}

// Load reads and validates a YAML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, txerr.Wrap(txerr.IO, "config.Load", "read config file", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, txerr.Wrap(txerr.InvariantViolation, "config.Load", "parse config YAML", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the page/record geometry is usable: both sizes must
// be positive and at least one record must fit in a page. PageSize need not
// be a multiple of RecordSize; any bytes left over after the last whole slot
// are unused (the default 4096/100 geometry leaves 96 such bytes per page).
func (c *Config) Validate() error {
	if c.PageSize <= 0 {
		return txerr.New(txerr.InvariantViolation, "Config.Validate", "pageSize must be positive")
	}
	if c.RecordSize <= 0 {
		return txerr.New(txerr.InvariantViolation, "Config.Validate", "recordSize must be positive")
	}
	if c.RecordSize > c.PageSize {
		return txerr.New(txerr.InvariantViolation, "Config.Validate", fmt.Sprintf("recordSize %d exceeds pageSize %d", c.RecordSize, c.PageSize))
	}
	return nil
}
