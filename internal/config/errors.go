package config

import (
	"errors"
)

// Sentinel errors returned by Load. Validation failures wrap ErrInvalidConfig;
// file, env and decode failures wrap ErrLoadConfig.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)
