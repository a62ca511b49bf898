package erp

import "errors"

// Config holds configuration for the ERP REST API connection
type Config struct {
	// BaseURL is the root of the ERP REST API
	BaseURL string
	// CompanyCode is the accounting entity used for authentication
	CompanyCode int
	// User is the API user name
	User string
	// Secret is the API user secret
	Secret string
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
}

// Errors for ERP configuration
var (
	ErrConfigMissingBaseURL = errors.New("erp: base URL is required")
	ErrConfigMissingUser    = errors.New("erp: API user is required")
	ErrConfigMissingSecret  = errors.New("erp: API secret is required")
	ErrConfigInvalidCompany = errors.New("erp: company code must be positive")
)

// NewConfig creates a new ERP configuration with defaults
func NewConfig(baseURL string, companyCode int, user, secret string) *Config {
	return &Config{
		BaseURL:        baseURL,
		CompanyCode:    companyCode,
		User:           user,
		Secret:         secret,
		TimeoutSeconds: 30,
	}
}

// Validate validates the ERP configuration
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrConfigMissingBaseURL
	}
	if c.CompanyCode <= 0 {
		return ErrConfigInvalidCompany
	}
	if c.User == "" {
		return ErrConfigMissingUser
	}
	if c.Secret == "" {
		return ErrConfigMissingSecret
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	return nil
}
