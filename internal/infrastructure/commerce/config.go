package commerce

import "errors"

// Config holds configuration for the commerce platform admin API and
// webhook verification
type Config struct {
	// APIBaseURL is the root of the platform admin API
	APIBaseURL string
	// AccessToken authorizes admin API calls
	AccessToken string
	// WebhookSecret is the shared secret webhooks are signed with
	WebhookSecret string
	// LocationID identifies the inventory location for stock sets
	LocationID string
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
}

// Errors for commerce configuration
var (
	ErrConfigMissingBaseURL       = errors.New("commerce: API base URL is required")
	ErrConfigMissingAccessToken   = errors.New("commerce: access token is required")
	ErrConfigMissingWebhookSecret = errors.New("commerce: webhook secret is required")
	ErrConfigMissingLocationID    = errors.New("commerce: location ID is required")
)

// Validate validates the commerce configuration
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return ErrConfigMissingBaseURL
	}
	if c.AccessToken == "" {
		return ErrConfigMissingAccessToken
	}
	if c.WebhookSecret == "" {
		return ErrConfigMissingWebhookSecret
	}
	if c.LocationID == "" {
		return ErrConfigMissingLocationID
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	return nil
}
