/*
Package session keeps the theme preference of visitors. The preference is stored
server side, keyed by a random session id held in a cookie.
*/
package session

import (
	"errors"
	"fmt"
)

// Theme is the color scheme of the site.
type Theme string

// Themes.
const (
	Light Theme = "light"
	Dark  Theme = "dark"
)

// ErrInvalidTheme is returned for anything but "light" or "dark".
var ErrInvalidTheme = errors.New("invalid theme")

// ParseTheme validates s as a Theme.
func ParseTheme(s string) (Theme, error) {
	switch t := Theme(s); t {
	case Light, Dark:
		return t, nil
	}
	return "", fmt.Errorf("%w %q", ErrInvalidTheme, s)
}

// String implements fmt.Stringer.
func (t Theme) String() string {
	return string(t)
}
