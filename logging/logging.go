// Package logging builds the zap logger shared by the service.
package logging

import (
	"github.com/idelsangithub/node-tree-api/config"

	"go.uber.org/zap"
)

// New returns a production logger in production and a development logger
// everywhere else
func New(env config.Environment) (*zap.Logger, error) {
	if env == config.Production {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// OrNop returns logger, or a no-op logger when it is nil
func OrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
