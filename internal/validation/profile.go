package validation

import (
	"net/url"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"threads/internal/models"
)

var usernameRegex = regexp.MustCompile(`^[a-z0-9_.]{3,30}$`)

const (
	maxNameLength = 50
	maxBioLength  = 1000
)

// Username lowercases and checks a username.
func Username(raw string) (string, error) {
	username := strings.ToLower(strings.TrimSpace(raw))
	if !usernameRegex.MatchString(username) {
		return "", models.NewValidationError("Username must be 3-30 characters of letters, digits, '_' or '.'")
	}
	return username, nil
}

// Name trims and checks a display name.
func Name(raw string) (string, error) {
	name := strings.TrimSpace(StripHTML(raw))
	n := utf8.RuneCountInString(name)
	if n == 0 || n > maxNameLength {
		return "", models.NewValidationError("Name must be 1-50 characters")
	}
	return name, nil
}

// Bio trims and checks a profile bio. An empty bio is allowed.
func Bio(raw string) (string, error) {
	bio := strings.TrimSpace(StripHTML(raw))
	if utf8.RuneCountInString(bio) > maxBioLength {
		return "", models.NewValidationError("Bio must be at most 1000 characters")
	}
	return bio, nil
}

// ImageURL accepts an empty value or an https URL served from one of hosts.
func ImageURL(raw string, hosts []string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}

	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "https" || u.Host == "" {
		return "", models.NewValidationError("Image must be an https URL")
	}
	if !slices.Contains(hosts, strings.ToLower(u.Hostname())) {
		return "", models.NewValidationError("Image host " + u.Hostname() + " is not allowed")
	}
	return u.String(), nil
}
