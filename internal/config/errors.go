package config

import "errors"

// Configuration errors
var (
	// ErrInvalidGatewayURL indicates the gateway URL is not an absolute http(s) URL
	ErrInvalidGatewayURL = errors.New("gateway URL must be an absolute http or https URL")

	// ErrInvalidTransport indicates an unknown transport mode
	ErrInvalidTransport = errors.New("transport must be one of rpc, tools, ws")

	// ErrInvalidTimeout indicates the call timeout is not positive
	ErrInvalidTimeout = errors.New("timeout must be greater than zero")

	// ErrInvalidRateLimit indicates the dashboard rate limit is not positive
	ErrInvalidRateLimit = errors.New("rate limit must be greater than zero")

	// ErrConfigNotFound indicates an explicitly requested config file is missing
	ErrConfigNotFound = errors.New("config file not found")
)
