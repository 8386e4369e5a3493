package collect_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fbscrape/internal/collect"
)

func TestNormalizeEventURL(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"https://mbasic.facebook.com/events/123456", "https://mbasic.facebook.com/events/123456"},
		{"https://mbasic.facebook.com/events/123456?acontext=%7B%7D", "https://mbasic.facebook.com/events/123456"},
		{"https://www.facebook.com/events/123456/permalink/789/", "https://mbasic.facebook.com/events/123456"},
		{"/events/123456", "https://mbasic.facebook.com/events/123456"},
	}
	for _, tc := range cases {
		got, err := collect.NormalizeEventURL(tc.raw)
		require.NoError(t, err, tc.raw)
		assert.Equal(t, tc.want, got, tc.raw)
	}
}

func TestNormalizeEventURLRejectsNonEvents(t *testing.T) {
	for _, raw := range []string{
		"",
		"https://mbasic.facebook.com/",
		"https://mbasic.facebook.com/AquaDD/events/",
		"https://mbasic.facebook.com/groups/42",
	} {
		_, err := collect.NormalizeEventURL(raw)
		require.Error(t, err, raw)
	}
}
