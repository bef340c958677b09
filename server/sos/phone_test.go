package sos

import (
	"testing"

	"github.com/Daskott/haven/server/models"
	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	testCases := []struct {
		phone    string
		expected string
	}{
		{"+12025550123", "+12025550123"},
		{"202-555-0123", "+2025550123"},
		{"(202) 555 0123", "+2025550123"},
		{"+1 202 555 0123", "+12025550123"},
		{"+123", "+123"},
		{"", "+"},
	}

	for _, tcase := range testCases {
		t.Run(tcase.phone, func(t *testing.T) {
			assert.Equal(t, tcase.expected, NormalizePhone(tcase.phone))
		})
	}
}

func TestMapsURL(t *testing.T) {
	assert.Equal(t, "https://maps.google.com/?q=40,-75", MapsURL(models.Coordinate("40.0"), models.Coordinate("-75.0")))
	assert.Equal(t, "https://maps.google.com/?q=40.7128,null", MapsURL(models.Coordinate(`"40.7128"`), models.Coordinate("null")))
}
