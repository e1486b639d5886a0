// Package theme decides between the light and dark color schemes.
package theme

import "time"

type Theme string

const (
	Light Theme = "light"
	Dark  Theme = "dark"
)

// CookieName is where the chosen theme is persisted in the browser.
const CookieName = "theme"

// Parse returns the theme named by s, if it is one.
func Parse(s string) (Theme, bool) {
	switch Theme(s) {
	case Light, Dark:
		return Theme(s), true
	}
	return "", false
}

// Resolve prefers the stored choice, otherwise light between 06:00 and 18:00 local time.
func Resolve(stored string, now time.Time) Theme {
	if t, ok := Parse(stored); ok {
		return t
	}
	if h := now.Hour(); h >= 6 && h < 18 {
		return Light
	}
	return Dark
}

func (t Theme) Toggle() Theme {
	if t == Dark {
		return Light
	}
	return Dark
}

func (t Theme) String() string {
	return string(t)
}
