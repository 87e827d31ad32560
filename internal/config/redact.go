package config

import "net/url"

// RedactURL masks the password in a PostgreSQL connection URL so the URL is
// safe to print or log. If the URL cannot be parsed or carries no password,
// it is returned unchanged.
func RedactURL(raw string) string {
	if raw == "" {
		return ""
	}

	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}

	if _, hasPassword := u.User.Password(); !hasPassword {
		return raw
	}

	return u.Redacted()
}
