package app

import "errors"

// Config holds everything an App instance needs to run.
type Config struct {
	RecipePath    string // hcl recipe to compile
	ManifestsPath string // node-type manifests
	TemplatesPath string // plot and variable templates

	LogFormat string
	LogLevel  string
}

// NewConfig validates a Config and returns it.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.RecipePath == "" {
		return nil, errors.New("RecipePath is a required configuration field and cannot be empty")
	}
	return &cfg, nil
}
