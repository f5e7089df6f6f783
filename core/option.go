package core

import (
	"errors"

	"github.com/auth0/go-jwks-guard/logging"
)

// Option is a function that configures the Core.
// Options return errors to enable validation during construction.
type Option func(*Core) error

// New creates a new Core instance with the provided options.
//
// The Core must be configured with a TokenValidator using WithValidator.
//
// Example:
//
//	c, err := core.New(
//	    core.WithValidator(v),
//	    core.WithLogger(logging.NewLogrus(logrus.StandardLogger())),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
func New(opts ...Option) (*Core, error) {
	c := &Core{
		credentialsOptional: false,
		logger:              logging.Nop(),
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	if c.validator == nil {
		return nil, ErrValidatorNotSet
	}

	return c, nil
}

// WithValidator sets the token validator. This is a required option.
func WithValidator(v TokenValidator) Option {
	return func(c *Core) error {
		if v == nil {
			return errors.New("validator cannot be nil")
		}
		c.validator = v
		return nil
	}
}

// WithCredentialsOptional configures whether requests without a token are
// let through with no claims.
//
// Default: false.
func WithCredentialsOptional(optional bool) Option {
	return func(c *Core) error {
		c.credentialsOptional = optional
		return nil
	}
}

// WithLogger sets the logger for the Core.
func WithLogger(logger logging.Logger) Option {
	return func(c *Core) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		c.logger = logger
		return nil
	}
}
