package credentials

import (
	"errors"
	"fmt"
)

var (
	// ErrNoCredentials indicates the host did not supply any credential data.
	ErrNoCredentials = errors.New("no credentials returned")

	// ErrConnectionStringMissing indicates connection string mode without a usable string.
	ErrConnectionStringMissing = errors.New("connection string not provided")

	// ErrInvalidCredentials indicates the credential fields could not be decoded or validated.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ConfigurationError is returned when credentials are missing or malformed.
// It is always fatal to the invocation.
type ConfigurationError struct {
	Message string
	Err     error
}

func (e *ConfigurationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("configuration error: %s: %v", e.Message, e.Err)
	}

	return fmt.Sprintf("configuration error: %v", e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func (e *ConfigurationError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsConfigurationError checks if err is, or wraps, a ConfigurationError.
func IsConfigurationError(err error) bool {
	var configErr *ConfigurationError

	return errors.As(err, &configErr)
}
