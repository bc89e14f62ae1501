package service

import (
	"net/mail"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

const dateLayout = "2006-01-02"

var (
	curpPattern = regexp.MustCompile(`^[A-Z0-9]{18}$`)
	nssPattern  = regexp.MustCompile(`^[0-9]{11}$`)
	macPattern  = regexp.MustCompile(`^[0-9A-Fa-f]{2}(:[0-9A-Fa-f]{2}){5}$`)
)

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return invalid(field, "is required")
	}
	return nil
}

func maxLen(field, value string, n int) error {
	if utf8.RuneCountInString(value) > n {
		return invalid(field, "is too long")
	}
	return nil
}

func validEmail(field, value string) error {
	if err := required(field, value); err != nil {
		return err
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value {
		return invalid(field, "is not a valid email address")
	}
	return nil
}

func parseDate(field, value string, now time.Time) (time.Time, error) {
	if err := required(field, value); err != nil {
		return time.Time{}, err
	}
	d, err := time.Parse(dateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, invalid(field, "must be a date in YYYY-MM-DD format")
	}
	if d.After(now) {
		return time.Time{}, invalid(field, "cannot be in the future")
	}
	return d, nil
}

func validURL(field, value string) error {
	if err := maxLen(field, value, 2048); err != nil {
		return err
	}
	u, err := url.Parse(value)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return invalid(field, "must be an http or https URL")
	}
	return nil
}

// optional trims s and maps empty to nil.
func optional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
