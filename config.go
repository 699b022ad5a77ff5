// SPDX-License-Identifier: MIT
package gcgp

import (
	"github.com/sirupsen/logrus"
)

type (
	// Config defines configuration options for the [Interpreter].
	Config struct {
		// Logger for [Interpreter] messages.
		//
		// Preferring a public field to allow for sharing.
		Logger logrus.FieldLogger
		Debug  bool
	}

	// Option defines the Interpreter functional option type.
	Option func(*Interpreter)
)

var fLogger logrus.FieldLogger = logrus.NewEntry(logrus.New())

// SetLogger configures a logrus.FieldLogger for the package's default [Config].
func SetLogger(l logrus.FieldLogger) { fLogger = l }

// DefConfig obtains the package's default [Interpreter] options.
func DefConfig() *Config {
	return &Config{
		Logger: fLogger,
		Debug:  false,
	}
}

// WithConfig configures the [Interpreter] [Config].
func WithConfig(cfg *Config) Option {
	return func(in *Interpreter) {
		if cfg == nil {
			return
		}
		if cfg.Logger == nil {
			cfg.Logger = fLogger
		}
		in.cfg = cfg
	}
}
