package config

import (
	"fmt"
	"strings"
	"time"
)

// Duration is a time.Duration that the TOML file holds as a string in time.ParseDuration
// form, for example expires = "1m" or warm = "15m". An empty string reads as zero, which
// disables cache expiry, Expires headers and background jobs.
type Duration time.Duration

func (d Duration) String() string {
	return time.Duration(d).String()
}

// MarshalText writes the duration so Parse can read it back.
func (d Duration) MarshalText() (text []byte, err error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText reads a duration string. d is left unchanged on error.
func (d *Duration) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if s == "" {
		*d = 0
		return nil
	}
	p, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("Duration: %w", err)
	}
	*d = Duration(p)
	return nil
}
