package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCronExpr_Valid(t *testing.T) {
	assert.NoError(t, ValidateCronExpr("0 2 * * *"))
}

func TestValidateCronExpr_Invalid(t *testing.T) {
	err := ValidateCronExpr("not a cron expression")
	assert.Error(t, err)
}

func TestValidateCronExpr_TooFewFields(t *testing.T) {
	assert.Error(t, ValidateCronExpr("* *"))
}

func TestNextFireTimes(t *testing.T) {
	after := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	times, err := NextFireTimes("0 2 * * *", after, 3)
	require.NoError(t, err)
	require.Len(t, times, 3)
	assert.Equal(t, 2, times[0].Hour())
	assert.True(t, times[1].After(times[0]))
	assert.True(t, times[2].After(times[1]))
}
