package diag

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReading(t *testing.T) {
	r, ok := ParseReading("X: 2.871, Y: 2.872, Z: 0.654")
	require.True(t, ok)
	assert.Equal(t, 2.871, r.X)
	assert.Equal(t, 2.872, r.Y)
	assert.Equal(t, 0.654, r.Z)
	assert.Equal(t, AllAxes, r.Present)

	r, ok = ParseReading("Y:-1.5")
	require.True(t, ok)
	assert.Equal(t, AxisY, r.Present)
	assert.Equal(t, -1.5, r.Y)

	_, ok = ParseReading("booting")
	assert.False(t, ok)

	r, ok = ParseReading("X: ..., Z: 1.000")
	require.True(t, ok, "unparsable axes are skipped")
	assert.Equal(t, AxisZ, r.Present)
}

func TestParserLoadReport(t *testing.T) {
	var p Parser
	at := time.Unix(100, 0)

	for _, line := range []string{"Processing Load:", "Max: 37.500%", "Avg: 20.125%"} {
		_, ok := p.Feed(line, at)
		require.False(t, ok, line)
	}
	ev, ok := p.Feed("Min: 10.000%", at)
	require.True(t, ok)
	assert.Equal(t, LoadReport{At: at, Max: 37.5, Avg: 20.125, Min: 10}, ev)

	ev, ok = p.Feed("Overruns: 3", at)
	require.True(t, ok)
	assert.Equal(t, Overruns{At: at, Count: 3}, ev)
}

func TestParserTruncatedReport(t *testing.T) {
	var p Parser
	p.Feed("Processing Load:", time.Time{})
	p.Feed("Max: 1.000%", time.Time{})

	ev, ok := p.Feed("X: 1.000, Y: 2.000, Z: 3.000", time.Time{})
	require.True(t, ok)
	assert.IsType(t, Reading{}, ev)

	ev, ok = p.Feed("Min: 5.000%", time.Time{})
	require.True(t, ok)
	assert.Equal(t, Text{Line: "Min: 5.000%"}, ev, "no report open")
}

func TestParserText(t *testing.T) {
	var p Parser
	_, ok := p.Feed("   ", time.Time{})
	assert.False(t, ok)

	ev, ok := p.Feed("  accel: sim: I2C bus 7 not configured \r", time.Time{})
	require.True(t, ok)
	assert.Equal(t, Text{Line: "accel: sim: I2C bus 7 not configured"}, ev)
}

func TestReader(t *testing.T) {
	stream := "X: 0.100, Y: 0.200, Z: 0.300\r\n" +
		"Processing Load:\r\n" +
		"Max: 50.000%\r\nAvg: 40.000%\r\nMin: 30.000%\r\n" +
		"\r\n" +
		"X: 0.4"

	r := NewReader(strings.NewReader(stream))
	at := time.Unix(42, 0)
	r.now = func() time.Time { return at }

	ev, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, Reading{At: at, X: 0.1, Y: 0.2, Z: 0.3, Present: AllAxes}, ev)

	ev, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, LoadReport{At: at, Max: 50, Avg: 40, Min: 30}, ev)
	assert.Equal(t, at, ev.Time())

	ev, err = r.Next()
	require.NoError(t, err, "unterminated last line")
	assert.Equal(t, Reading{At: at, X: 0.4, Present: AxisX}, ev)

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}
