package sos

import (
	"fmt"
	"regexp"

	"github.com/Daskott/haven/server/models"
)

const mapsBaseURL = "https://maps.google.com/?q="

var (
	e164Regexp   = regexp.MustCompile(`^\+\d{10,15}$`)
	nonDigitRegx = regexp.MustCompile(`\D`)
)

// NormalizePhone leaves E.164 numbers alone, anything else is stripped
// down to its digits & prefixed with '+'.
func NormalizePhone(phone string) string {
	if e164Regexp.MatchString(phone) {
		return phone
	}
	return "+" + nonDigitRegx.ReplaceAllString(phone, "")
}

func MapsURL(lat, lon models.Coordinate) string {
	return fmt.Sprintf("%s%s,%s", mapsBaseURL, lat, lon)
}
