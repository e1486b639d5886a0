package http

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"freelance/internal/core"
)

// parseYearMonth extracts year and month from query parameters.
// Missing, malformed or out of range values fall back to now.
func parseYearMonth(r *http.Request, now time.Time) (int, time.Month) {
	p := ParseMonthParams(r.URL.Query(), now)
	return p.Year, time.Month(p.Month)
}

// parseDatePath reads the {date} path segment in YYYY-MM-DD form.
func parseDatePath(r *http.Request) (core.Date, error) {
	return core.ParseDate(r.PathValue("date"))
}

// formatItalianDate renders d the way it-IT locales print short dates, e.g. "4/3/2024".
func formatItalianDate(d core.Date) string {
	return fmt.Sprintf("%d/%d/%d", d.Day(), d.Month(), d.Year())
}

// sanitizeInput removes potentially dangerous characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}

// isHTMX reports whether the request was issued by htmx rather than a full navigation.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// redirect sends htmx requests an HX-Redirect and everything else a 303.
func redirect(w http.ResponseWriter, r *http.Request, to string) {
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", to)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}

// localReferer returns the path of a Referer on this host, or "/".
func localReferer(r *http.Request) string {
	u, err := url.Parse(r.Header.Get("Referer"))
	if err != nil || u.Host != r.Host || u.Path == "" {
		return "/"
	}
	return u.RequestURI()
}
