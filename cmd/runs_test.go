package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/solarch/roofscout/internal/model"
)

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "12345678", truncateID("12345678-abcd-efgh"))
	assert.Equal(t, "short", truncateID("short"))
}

func TestFormatRunsList(t *testing.T) {
	created := time.Date(2026, 8, 30, 14, 5, 0, 0, time.UTC)
	runs := []model.Run{
		{
			ID: "aaaabbbb-cccc-dddd-eeee-ffff00001111",
			Params: model.RunParams{
				CenterLat: 47.4319,
				CenterLon: 9.6397,
				RadiusM:   10000,
			},
			Status:    model.RunStatusComplete,
			Stats:     model.RunStats{Ranked: 42},
			CreatedAt: created,
			UpdatedAt: created.Add(75 * time.Second),
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)

	out := buf.String()
	assert.Contains(t, out, "aaaabbbb")
	assert.Contains(t, out, "47.4319,9.6397")
	assert.Contains(t, out, "10.0km")
	assert.Contains(t, out, "complete")
	assert.Contains(t, out, "42")
	assert.Contains(t, out, "2026-08-30 14:05")
	assert.Contains(t, out, "1m15s")
}
