package env

import (
	"os"
	"strings"

	"github.com/xgenlab/xgenaudio/internal/envvar"
)

// Environment identifies the runtime environment.
type Environment string

const (
	Development Environment = "development"
	Production  Environment = "production"
)

// FromEnv resolves the environment from XGENAUDIO_ENV.
// Unknown or empty values default to production.
func FromEnv() Environment {
	switch strings.ToLower(os.Getenv(envvar.XgenAudioEnv)) {
	case "development", "dev":
		return Development
	default:
		return Production
	}
}

// IsDevelopment reports whether e is the development environment.
func (e Environment) IsDevelopment() bool {
	return e == Development
}
