package timezone_test

import (
	"messbook/shared/timezone"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	defer timezone.Init("UTC")

	tests := []struct {
		name     string
		location string
		expected string
	}{
		{name: "valid location", location: "Asia/Dhaka", expected: "Asia/Dhaka"},
		{name: "empty falls back to UTC", location: "", expected: "UTC"},
		{name: "unknown falls back to UTC", location: "Mars/Olympus", expected: "UTC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			timezone.Init(tt.location)

			assert.Equal(t, tt.expected, timezone.GetLocation().String())
			assert.Equal(t, tt.expected, timezone.Now().Location().String())
		})
	}
}

func TestFormatAndParse(t *testing.T) {
	timezone.Init("Asia/Dhaka")
	defer timezone.Init("UTC")

	noonUTC := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-01-01 18:00", timezone.Format(noonUTC, "2006-01-02 15:04"))
	assert.Empty(t, timezone.Format(time.Time{}, time.RFC3339))

	parsed, err := timezone.Parse("2006-01-02 15:04", "2024-01-01 18:00")
	require.NoError(t, err)
	assert.True(t, parsed.Equal(noonUTC))
}
