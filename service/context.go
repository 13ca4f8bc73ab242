package service

import (
	"strings"
	"time"

	"github.com/idelsangithub/node-tree-api/models"
)

// RequestContext carries the presentation settings of one request. It is
// passed explicitly to every listing call.
type RequestContext struct {
	Locale   string
	Location *time.Location
}

// NewRequestContext builds a RequestContext from raw Accept-Language and
// X-Timezone header values. Empty values fall back to "en" and "UTC".
func NewRequestContext(acceptLanguage, timezone string) (RequestContext, error) {
	rc := RequestContext{
		Locale:   ParseLocale(acceptLanguage),
		Location: time.UTC,
	}

	timezone = strings.TrimSpace(timezone)
	if timezone == "" {
		timezone = models.DefaultTimezone
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return rc, &ValidationError{Field: "X-Timezone", Message: "must be a valid IANA time zone"}
	}
	rc.Location = loc
	return rc, nil
}

// ParseLocale returns the first language tag of an Accept-Language value,
// lower-cased, without its quality weight
func ParseLocale(header string) string {
	tag := header
	if i := strings.IndexByte(tag, ','); i >= 0 {
		tag = tag[:i]
	}
	if i := strings.IndexByte(tag, ';'); i >= 0 {
		tag = tag[:i]
	}
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" || tag == "*" {
		return models.DefaultLocale
	}
	return tag
}

// Timezone returns the IANA name of the request's location
func (rc RequestContext) Timezone() string {
	if rc.Location == nil {
		return models.DefaultTimezone
	}
	return rc.Location.String()
}
