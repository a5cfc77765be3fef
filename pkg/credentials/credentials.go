// Package credentials turns host-decrypted MongoDB credential fields into a
// connection string and database name.
package credentials

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Type is the credential type name the host uses to inject MongoDB credentials.
const Type = "mongoDb"

// ConfigurationType selects how the connection string is obtained.
type ConfigurationType string

const (
	ConfigurationTypeConnectionString ConfigurationType = "connectionString"
	ConfigurationTypeValues           ConfigurationType = "values"
)

// Credentials holds either a raw connection string or discrete connection values.
type Credentials struct {
	ConfigurationType ConfigurationType `json:"configurationType" validate:"required,oneof=connectionString values"`
	ConnectionString  string            `json:"connectionString"`
	Host              string            `json:"host"`
	User              string            `json:"user"`
	Password          string            `json:"password"`
	Port              Port              `json:"port"`
	Database          string            `json:"database"`
}

// Resolved is the normalized output of the resolver.
type Resolved struct {
	ConnectionString string `json:"connectionString"`
	// Database is empty when the database embedded in the connection string should be used.
	Database string `json:"database"`
}

// Port accepts a JSON number or a numeric string. Zero means absent.
type Port int

func (p *Port) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" || raw == `""` {
		*p = 0

		return nil
	}

	raw = strings.Trim(raw, `"`)

	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fmt.Errorf("port must be a number: %w", err)
	}

	*p = Port(value)

	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Parse decodes host credential data. A nil map means the host returned no credentials.
func Parse(raw map[string]any) (*Credentials, error) {
	if raw == nil {
		return nil, &ConfigurationError{Err: ErrNoCredentials}
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return nil, &ConfigurationError{Message: err.Error(), Err: ErrInvalidCredentials}
	}

	var creds Credentials

	err = json.Unmarshal(data, &creds)
	if err != nil {
		return nil, &ConfigurationError{Message: err.Error(), Err: ErrInvalidCredentials}
	}

	if creds.ConfigurationType == "" {
		creds.ConfigurationType = inferConfigurationType(raw)
	}

	err = validate.Struct(creds)
	if err != nil {
		return nil, &ConfigurationError{Message: err.Error(), Err: ErrInvalidCredentials}
	}

	return &creds, nil
}

// Resolve produces the connection string and database name.
func Resolve(creds *Credentials) (Resolved, error) {
	if creds == nil {
		return Resolved{}, &ConfigurationError{Err: ErrNoCredentials}
	}

	database := strings.TrimSpace(creds.Database)

	if creds.ConfigurationType == ConfigurationTypeConnectionString {
		connectionString := strings.TrimSpace(creds.ConnectionString)
		if connectionString == "" {
			return Resolved{}, &ConfigurationError{Err: ErrConnectionStringMissing}
		}

		return Resolved{ConnectionString: connectionString, Database: database}, nil
	}

	return Resolved{ConnectionString: BuildConnectionString(creds), Database: database}, nil
}

// ResolveMap is Parse followed by Resolve.
func ResolveMap(raw map[string]any) (Resolved, error) {
	creds, err := Parse(raw)
	if err != nil {
		return Resolved{}, err
	}

	return Resolve(creds)
}

// BuildConnectionString synthesizes a URI from discrete values. Host, user and
// password are not validated here; the driver rejects bad values at connect time.
func BuildConnectionString(creds *Credentials) string {
	if creds.Port > 0 {
		return fmt.Sprintf("mongodb://%s:%s@%s:%d", creds.User, creds.Password, creds.Host, creds.Port)
	}

	return fmt.Sprintf("mongodb+srv://%s:%s@%s", creds.User, creds.Password, creds.Host)
}

// inferConfigurationType picks a mode for credential data that predates the
// configurationType field: a connection string without a host means string mode.
func inferConfigurationType(raw map[string]any) ConfigurationType {
	_, hasConnectionString := raw["connectionString"]
	_, hasHost := raw["host"]

	if hasConnectionString && !hasHost {
		return ConfigurationTypeConnectionString
	}

	return ConfigurationTypeValues
}
