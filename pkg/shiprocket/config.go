package shiprocket

import "time"

// Config represents the configuration for the Shiprocket client
type Config struct {
	// BaseURL is the Shiprocket API base URL
	BaseURL string

	// Email is the API account email
	Email string

	// Password is the API account password
	Password string

	// PickupPincode is the warehouse origin pincode used for serviceability
	PickupPincode string

	// TokenLockTTL bounds how long the refresh lease may be held
	TokenLockTTL time.Duration

	// TokenSafetyGap refreshes the token this long before its actual expiry
	TokenSafetyGap time.Duration
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrInvalidConfig
	}
	if c.Email == "" || c.Password == "" {
		return ErrInvalidConfig
	}
	if c.TokenLockTTL <= 0 {
		c.TokenLockTTL = 15 * time.Second
	}
	if c.TokenSafetyGap <= 0 {
		c.TokenSafetyGap = 2 * time.Minute
	}
	return nil
}
