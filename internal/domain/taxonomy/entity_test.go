package taxonomy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyforge/studyforge-backend/internal/domain/shared"
	"github.com/studyforge/studyforge-backend/pkg/shortcode"
)

var testNow = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func TestNewDiscipline(t *testing.T) {
	d, err := NewDiscipline("d1", "  Matemática Básica  ", testNow)
	require.NoError(t, err)

	assert.Equal(t, "Matemática Básica", d.Name)
	assert.Equal(t, "MBAS21551", d.Code)
	assert.True(t, d.Active)
	assert.Equal(t, 1, d.Version)
	assert.True(t, shortcode.IsValid(d.Code))
}

func TestNewDiscipline_EmptyName(t *testing.T) {
	_, err := NewDiscipline("d1", "   ", testNow)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = NewDiscipline("d1", "", testNow)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestNewDiscipline_UnderivableName(t *testing.T) {
	// Only symbols: normalization leaves nothing to build a prefix from.
	_, err := NewDiscipline("d1", "!!! ???", testNow)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestDiscipline_Deactivate(t *testing.T) {
	d, err := NewDiscipline("d1", "História", testNow)
	require.NoError(t, err)

	later := testNow.Add(time.Hour)
	d.Deactivate(later)

	assert.False(t, d.Active)
	assert.Equal(t, later, d.UpdatedAt)
	// Code and name survive deactivation.
	assert.Equal(t, "HIST68893", d.Code)
}

func TestNewSubject(t *testing.T) {
	s, err := NewSubject("s1", "Português", "d1", testNow)
	require.NoError(t, err)

	assert.Equal(t, "PORT35258", s.Code)
	assert.Equal(t, "d1", s.DisciplineID)
	assert.True(t, s.Active)
}

func TestNewSubject_RequiresDiscipline(t *testing.T) {
	_, err := NewSubject("s1", "Português", "", testNow)
	assert.ErrorIs(t, err, shared.ErrInvalidReference)
}

func TestPlanCodeBackfill(t *testing.T) {
	rows := []BackfillRow{
		{ID: "1", Name: "Matemática Básica"},
		{ID: "2", Name: "Português", Code: "PORT35258"},
		{ID: "3", Name: "História"},
	}

	plan, err := PlanCodeBackfill(rows)
	require.NoError(t, err)

	assert.Equal(t, 1, plan.AlreadyCoded)
	assert.Equal(t, map[string]string{
		"1": "MBAS21551",
		"3": "HIST68893",
	}, plan.Assignments)
	assert.False(t, plan.IsNoop())
}

func TestPlanCodeBackfill_Idempotent(t *testing.T) {
	rows := []BackfillRow{
		{ID: "1", Name: "Matemática Básica", Code: "MBAS21551"},
		{ID: "2", Name: "Português", Code: "PORT35258"},
	}

	plan, err := PlanCodeBackfill(rows)
	require.NoError(t, err)
	assert.True(t, plan.IsNoop())
	assert.Equal(t, 2, plan.AlreadyCoded)
}

func TestPlanCodeBackfill_CollisionAborts(t *testing.T) {
	// Same name twice derives the same code; the whole pass must abort and
	// name the offenders rather than assigning to the first row only.
	rows := []BackfillRow{
		{ID: "1", Name: "Matemática Básica"},
		{ID: "2", Name: "Matemática Básica"},
	}

	_, err := PlanCodeBackfill(rows)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrConflict)
	assert.Contains(t, err.Error(), "MBAS21551")
}

func TestPlanCodeBackfill_CollisionWithExistingCode(t *testing.T) {
	rows := []BackfillRow{
		{ID: "1", Name: "Geografia", Code: "MBAS21551"}, // legacy row already owns the code
		{ID: "2", Name: "Matemática Básica"},
	}

	_, err := PlanCodeBackfill(rows)
	assert.ErrorIs(t, err, shared.ErrConflict)
}

func TestPlanCodeBackfill_EmptyNameFails(t *testing.T) {
	rows := []BackfillRow{{ID: "1", Name: "   "}}
	_, err := PlanCodeBackfill(rows)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}
