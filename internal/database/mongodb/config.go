// Package mongodb provides MongoDB database connectivity and operations.
package mongodb

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/bargom/notifydal/pkg/logging"
)

// Config holds MongoDB connection configuration.
type Config struct {
	// URI is a mongodb:// or mongodb+srv:// connection string.
	URI      string
	Database string
	AppName  string

	MinPoolSize uint64
	MaxPoolSize uint64

	ConnectTimeout         time.Duration
	SocketTimeout          time.Duration
	ServerSelectionTimeout time.Duration

	// ReadPreference is a driver mode name such as "primary" or
	// "secondaryPreferred". Empty means primary.
	ReadPreference string

	// Driver-level retries for single operations.
	RetryWrites bool
	RetryReads  bool

	// MaxRetries bounds the initial connect loop; RetryBackoff doubles per
	// attempt up to MaxRetryBackoff.
	MaxRetries      int
	RetryBackoff    time.Duration
	MaxRetryBackoff time.Duration
}

// DefaultConfig returns the settings used for a local single-node server.
func DefaultConfig() Config {
	return Config{
		URI:                    "mongodb://localhost:27017",
		Database:               "notifydal",
		AppName:                "notifydal",
		MinPoolSize:            2,
		MaxPoolSize:            100,
		ConnectTimeout:         10 * time.Second,
		SocketTimeout:          30 * time.Second,
		ServerSelectionTimeout: 5 * time.Second,
		ReadPreference:         readpref.PrimaryMode.String(),
		RetryWrites:            true,
		RetryReads:             true,
		MaxRetries:             3,
		RetryBackoff:           100 * time.Millisecond,
		MaxRetryBackoff:        5 * time.Second,
	}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	switch {
	case c.URI == "":
		return fmt.Errorf("mongodb: URI is required")
	case !strings.HasPrefix(c.URI, "mongodb://") && !strings.HasPrefix(c.URI, "mongodb+srv://"):
		return fmt.Errorf("mongodb: URI %q must start with mongodb:// or mongodb+srv://", c.RedactedURI())
	case c.Database == "":
		return fmt.Errorf("mongodb: Database name is required")
	case c.MinPoolSize > c.MaxPoolSize:
		return fmt.Errorf("mongodb: MinPoolSize (%d) cannot be greater than MaxPoolSize (%d)",
			c.MinPoolSize, c.MaxPoolSize)
	case c.MaxRetries < 0:
		return fmt.Errorf("mongodb: MaxRetries cannot be negative")
	case c.RetryBackoff > 0 && c.MaxRetryBackoff > 0 && c.RetryBackoff > c.MaxRetryBackoff:
		return fmt.Errorf("mongodb: RetryBackoff (%s) cannot exceed MaxRetryBackoff (%s)",
			c.RetryBackoff, c.MaxRetryBackoff)
	}
	if _, err := c.readPref(); err != nil {
		return err
	}
	return nil
}

// RedactedURI returns URI with any credentials replaced.
func (c Config) RedactedURI() string {
	return logging.RedactStringValue(c.URI)
}

func (c Config) readPref() (*readpref.ReadPref, error) {
	if c.ReadPreference == "" {
		return readpref.Primary(), nil
	}
	mode, err := readpref.ModeFromString(c.ReadPreference)
	if err != nil {
		return nil, fmt.Errorf("mongodb: invalid ReadPreference %q: %w", c.ReadPreference, err)
	}
	return readpref.New(mode)
}
