package monitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatRate(t *testing.T) {
	assert.Equal(t, "12.0/min", FormatRate(2, 10*time.Second))
	assert.Equal(t, "3.0/min", FormatRate(3, time.Minute))
	assert.Equal(t, "0.0/min", FormatRate(5, 0))
}

func TestFormatSeconds(t *testing.T) {
	assert.Equal(t, "2.5s", FormatSeconds(2.5))
	assert.Equal(t, "1m 30s", FormatSeconds(90))
}

func TestFormatAge(t *testing.T) {
	assert.Equal(t, "45s", FormatAge(45*time.Second))
	assert.Equal(t, "5m", FormatAge(5*time.Minute+12*time.Second))
	assert.Equal(t, "2h", FormatAge(2*time.Hour+30*time.Minute))
}

func TestSuccessRatio(t *testing.T) {
	assert.Equal(t, 1.0, SuccessRatio(0, 0))
	assert.Equal(t, 0.75, SuccessRatio(3, 1))
	assert.Equal(t, 0.0, SuccessRatio(0, 5))
}
