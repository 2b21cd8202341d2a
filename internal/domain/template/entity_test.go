package template

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyforge/studyforge-backend/internal/domain/shared"
)

var testNow = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func TestNewMasterPlan(t *testing.T) {
	p, err := NewMasterPlan("p1", "Plano TJ-SP Escrevente", "Escrevente Técnico", "Plano completo", 6, testNow)
	require.NoError(t, err)

	assert.Equal(t, "PTJS25776", p.Code)
	assert.Equal(t, 1, p.Version)
	assert.True(t, p.Active)
}

func TestNewMasterPlan_Validation(t *testing.T) {
	_, err := NewMasterPlan("p1", "  ", "role", "", 6, testNow)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = NewMasterPlan("p1", "Plano X", "role", "", 0, testNow)
	assert.ErrorIs(t, err, shared.ErrInvalidRange)
}

func TestMasterPlan_NewVersion(t *testing.T) {
	p, err := NewMasterPlan("p1", "Plano TJ-SP Escrevente", "Escrevente", "", 6, testNow)
	require.NoError(t, err)

	later := testNow.Add(time.Hour)
	v2, err := p.NewVersion("p2", later)
	require.NoError(t, err)

	assert.Equal(t, 2, v2.Version)
	assert.Equal(t, p.Code, v2.Code)
	assert.Equal(t, p.Name, v2.Name)
	assert.True(t, v2.Active)

	// Predecessor is frozen: inactive and no longer versionable.
	assert.False(t, p.Active)
	_, err = p.NewVersion("p3", later)
	assert.ErrorIs(t, err, shared.ErrMasterPlanInactive)
}

func TestNewMasterSprint_PositionValidation(t *testing.T) {
	_, err := NewMasterSprint("s1", "p1", "Semana 1", 0, SprintWindow{0, 6}, testNow)
	assert.ErrorIs(t, err, shared.ErrInvalidRange)

	s, err := NewMasterSprint("s1", "p1", "Semana 1", 1, SprintWindow{0, 6}, testNow)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Position)
}

func TestSprintWindow(t *testing.T) {
	assert.Error(t, SprintWindow{-1, 5}.Validate())
	assert.Error(t, SprintWindow{5, 2}.Validate())
	assert.NoError(t, SprintWindow{0, 0}.Validate())

	planStart := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	start, end := SprintWindow{7, 13}.Resolve(planStart)
	assert.Equal(t, planStart.AddDate(0, 0, 7), start)
	assert.Equal(t, planStart.AddDate(0, 0, 13), end)
}

func TestNewMasterGoal(t *testing.T) {
	g, err := NewMasterGoal("g1", "s1", "d1", "sub1", GoalTypeExercises, "Resolver 50 questões", "https://example.com", 2, testNow)
	require.NoError(t, err)
	assert.Equal(t, GoalTypeExercises, g.Type)
	assert.Equal(t, 2, g.Relevance)
}

func TestNewMasterGoal_Validation(t *testing.T) {
	_, err := NewMasterGoal("g1", "s1", "", "sub1", GoalTypeTheory, "", "", 1, testNow)
	assert.ErrorIs(t, err, shared.ErrInvalidReference)

	_, err = NewMasterGoal("g1", "s1", "d1", "sub1", GoalType("homework"), "", "", 1, testNow)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = NewMasterGoal("g1", "s1", "d1", "sub1", GoalTypeTheory, "", "", 4, testNow)
	assert.ErrorIs(t, err, shared.ErrInvalidRange)
}

func TestClampRelevance_LegacyScale(t *testing.T) {
	// Legacy rows used a 1-5 scale; 4 and 5 fold into 3 on the canonical
	// 1-3 scale. This clamp is intentional, not a silent coercion: it only
	// runs on legacy import paths, never on new goals.
	assert.Equal(t, 3, ClampRelevance(5))
	assert.Equal(t, 3, ClampRelevance(4))
	assert.Equal(t, 3, ClampRelevance(3))
	assert.Equal(t, 2, ClampRelevance(2))
	assert.Equal(t, 1, ClampRelevance(1))
	assert.Equal(t, 1, ClampRelevance(0))
}

func TestGoalType_IsValid(t *testing.T) {
	for _, gt := range []GoalType{GoalTypeTheory, GoalTypeExercises, GoalTypeReview, GoalTypeReinforcement} {
		assert.True(t, gt.IsValid())
	}
	assert.False(t, GoalType("").IsValid())
	assert.False(t, GoalType("quiz").IsValid())
}
