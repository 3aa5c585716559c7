package model

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// URL validation errors
var (
	ErrInvalidURL        = errors.New("invalid URL format")
	ErrUnsupportedScheme = errors.New("unsupported URL scheme - only HTTP and HTTPS are allowed")
	ErrMissingHost       = errors.New("URL must have a valid host")
	ErrEmptyURL          = errors.New("URL cannot be empty")
)

// ValidateServerURL validates a configured API or backend URL. Self-hosted
// servers on private networks are a normal deployment here, so hosts are not
// checked against private IP ranges - only scheme and shape.
func ValidateServerURL(rawURL string) error {
	if rawURL == "" {
		return ErrEmptyURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return ErrUnsupportedScheme
	}
	if u.Host == "" {
		return ErrMissingHost
	}
	return nil
}

// ValidateServerConfig validates every URL carried by a server config. The
// backend URL is optional; when blank the API is queried directly.
func ValidateServerConfig(cfg ServerConfig) error {
	if err := ValidateServerURL(cfg.APIURL); err != nil {
		return fmt.Errorf("server %q api_url: %w", cfg.ID, err)
	}
	if cfg.BackendURL != "" {
		if err := ValidateServerURL(cfg.BackendURL); err != nil {
			return fmt.Errorf("server %q backend_url: %w", cfg.ID, err)
		}
	}
	return nil
}

// ValidatePodcastURL validates a podcast media URL before it is handed to the
// offline download pipeline.
func ValidatePodcastURL(rawURL string) error {
	return ValidateServerURL(rawURL)
}
