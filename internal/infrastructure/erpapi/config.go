package erpapi

import (
	"errors"
	"strings"
)

// ClientConfig holds configuration for the upstream business-data API
type ClientConfig struct {
	// BaseURL is the service endpoint, e.g. https://erp.example.com/s1services
	BaseURL string
	// AppID is the application identifier issued by the upstream system
	AppID string
	// Token is the pre-authorized access token for stored-query execution
	Token string
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
}

// Errors for client configuration
var (
	ErrConfigMissingBaseURL = errors.New("erpapi: base URL is required")
	ErrConfigMissingAppID   = errors.New("erpapi: app ID is required")
	ErrConfigMissingToken   = errors.New("erpapi: access token is required")
)

// NewClientConfig creates a new client configuration with defaults
func NewClientConfig(baseURL, appID, token string) *ClientConfig {
	return &ClientConfig{
		BaseURL:        baseURL,
		AppID:          appID,
		Token:          token,
		TimeoutSeconds: 30,
	}
}

// Validate validates the client configuration
func (c *ClientConfig) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return ErrConfigMissingBaseURL
	}
	if strings.TrimSpace(c.AppID) == "" {
		return ErrConfigMissingAppID
	}
	if strings.TrimSpace(c.Token) == "" {
		return ErrConfigMissingToken
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	return nil
}
