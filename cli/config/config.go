package config

import (
	"fmt"
	"time"
)

// Config represents an icupack.yaml file. Every value is optional and acts
// as a default for the build and testdata flags. CLI flags always win.
type Config struct {
	SourceDir       string        `yaml:"source_dir"`
	ToolDir         string        `yaml:"tool_dir"`
	OutDir          string        `yaml:"out_dir"`
	PackageName     string        `yaml:"package_name"`
	EntryName       string        `yaml:"entry_name"`
	IncludeCoreData bool          `yaml:"include_core_data"`
	ICUDataFile     string        `yaml:"icu_data_file"`
	Verbose         bool          `yaml:"verbose"`
	WorkDir         string        `yaml:"work_dir"`
	Platform        string        `yaml:"platform"`
	CompilerCommand []string      `yaml:"compiler_command,omitempty"`
	Timeout         Duration      `yaml:"timeout,omitempty"`
	Publish         PublishConfig `yaml:"publish"`
	Notify          NotifyConfig  `yaml:"notify"`
}

// PublishConfig holds artifact publishing defaults.
type PublishConfig struct {
	Backend     string `yaml:"backend"`
	Path        string `yaml:"path"`
	Region      string `yaml:"region"`
	Endpoint    string `yaml:"endpoint"`
	S3PathStyle bool   `yaml:"s3_path_style"`
}

// NotifyConfig holds notifier defaults.
type NotifyConfig struct {
	Type    string            `yaml:"type"`
	URL     string            `yaml:"url"`
	Channel string            `yaml:"channel,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Timeout Duration          `yaml:"timeout,omitempty"`
	Retries *int              `yaml:"retries,omitempty"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "5m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if parsed < 0 {
		return fmt.Errorf("invalid duration %q: must not be negative", s)
	}
	d.Duration = parsed
	return nil
}
