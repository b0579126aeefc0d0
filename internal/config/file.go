package config

import (
	"bytes"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bashhack/gitguard/internal/errors"
	"github.com/bashhack/gitguard/internal/risk"
)

// FileConfig is the shape of .gitguard.yaml. Every field is optional; only
// the keys present in the file override lower-precedence values.
//
//	interval: 2.5
//	auto_commit: true
//	matchers: [keyword, go]
//	thresholds:
//	  high_time: 90m
//	  moderate_lines: 40
type FileConfig struct {
	IntervalMinutes *float64        `yaml:"interval"`
	AutoCommit      *bool           `yaml:"auto_commit"`
	DryRun          *bool           `yaml:"dry_run"`
	MaxRetries      *int            `yaml:"max_retries"`
	Verbose         *bool           `yaml:"verbose"`
	Debug           *bool           `yaml:"debug"`
	LogFile         *string         `yaml:"log_file"`
	Matchers        []string        `yaml:"matchers"`
	Thresholds      *ThresholdsFile `yaml:"thresholds"`
}

// ThresholdsFile overrides individual classifier limits.
type ThresholdsFile struct {
	HighTime      *time.Duration `yaml:"high_time"`
	ModerateTime  *time.Duration `yaml:"moderate_time"`
	HighFiles     *int           `yaml:"high_files"`
	ModerateFiles *int           `yaml:"moderate_files"`
	HighLines     *int           `yaml:"high_lines"`
	ModerateLines *int           `yaml:"moderate_lines"`
}

func (tf *ThresholdsFile) applyTo(t *risk.Thresholds) {
	if tf.HighTime != nil {
		t.HighTime = *tf.HighTime
	}
	if tf.ModerateTime != nil {
		t.ModerateTime = *tf.ModerateTime
	}
	if tf.HighFiles != nil {
		t.HighFiles = *tf.HighFiles
	}
	if tf.ModerateFiles != nil {
		t.ModerateFiles = *tf.ModerateFiles
	}
	if tf.HighLines != nil {
		t.HighLines = *tf.HighLines
	}
	if tf.ModerateLines != nil {
		t.ModerateLines = *tf.ModerateLines
	}
}

// ReadFile parses a config file. Unknown keys are rejected so typos do not
// silently fall back to defaults.
func ReadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewConfigError("config", path, errors.Wrap(err, "failed to read config file"))
	}

	fc, err := Parse(data)
	if err != nil {
		return nil, errors.NewConfigError("config", path, errors.Wrap(errors.ErrInvalidConfiguration, err.Error()))
	}
	return fc, nil
}

// Parse decodes YAML config data. Empty input yields an empty FileConfig.
func Parse(data []byte) (*FileConfig, error) {
	var fc FileConfig

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && err != io.EOF {
		return nil, err
	}
	return &fc, nil
}
