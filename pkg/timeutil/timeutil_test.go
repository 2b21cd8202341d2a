package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStartOfWeek_MondayAnchor(t *testing.T) {
	// 2026-08-28 is a Friday; its week starts Monday 2026-08-24.
	friday := Date(2026, 8, 28).Add(15 * time.Hour)

	start := StartOfWeek(friday)
	assert.Equal(t, Date(2026, 8, 24), start)
	assert.Equal(t, time.Monday, start.Weekday())
}

func TestStartOfWeek_SundayBelongsToSameWeek(t *testing.T) {
	// Sunday 2026-08-30 still belongs to the week of Monday 2026-08-24.
	sunday := Date(2026, 8, 30).Add(23 * time.Hour)
	assert.Equal(t, Date(2026, 8, 24), StartOfWeek(sunday))
}

func TestStartOfWeek_MondayIsItsOwnStart(t *testing.T) {
	monday := Date(2026, 8, 24)
	assert.Equal(t, monday, StartOfWeek(monday))
}

func TestEndOfWeek_Exclusive(t *testing.T) {
	friday := Date(2026, 8, 28)
	assert.Equal(t, Date(2026, 8, 31), EndOfWeek(friday))
}

func TestInWeek(t *testing.T) {
	anchor := Date(2026, 8, 26) // Wednesday

	assert.True(t, InWeek(Date(2026, 8, 24), anchor))                   // Monday 00:00
	assert.True(t, InWeek(Date(2026, 8, 30).Add(23*time.Hour), anchor)) // Sunday 23:00
	assert.False(t, InWeek(Date(2026, 8, 31), anchor))                  // next Monday 00:00
	assert.False(t, InWeek(Date(2026, 8, 23), anchor))                  // previous Sunday
}

func TestInWeek_CrossTimezoneInstant(t *testing.T) {
	// Monday 02:00 UTC is still Sunday 23:00 in São Paulo, so it falls in
	// the previous local week.
	anchor := Date(2026, 8, 24)
	instant := time.Date(2026, 8, 31, 2, 0, 0, 0, time.UTC)
	assert.True(t, InWeek(instant, anchor))
}
