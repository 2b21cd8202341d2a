package studyplan

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyforge/studyforge-backend/internal/domain/shared"
	"github.com/studyforge/studyforge-backend/internal/domain/template"
)

func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func buildMasterTree(t *testing.T, active bool) *template.PlanTree {
	t.Helper()

	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	plan, err := template.NewMasterPlan("mp-1", "Plano TJ-SP Escrevente", "Escrevente", "", 6, now)
	require.NoError(t, err)
	plan.Active = active

	tree := &template.PlanTree{Plan: plan}
	goalSeq := 0
	for pos := 1; pos <= 2; pos++ {
		window := template.SprintWindow{StartOffsetDays: (pos - 1) * 7, EndOffsetDays: pos*7 - 1}
		sprint, err := template.NewMasterSprint(fmt.Sprintf("ms-%d", pos), plan.ID, fmt.Sprintf("Sprint %d", pos), pos, window, now)
		require.NoError(t, err)

		node := template.SprintNode{Sprint: sprint}
		for g := 0; g < 3; g++ {
			goalSeq++
			goal, err := template.NewMasterGoal(
				fmt.Sprintf("mg-%d", goalSeq), sprint.ID, "disc-1", "subj-1",
				template.GoalTypeTheory, "read chapter", "", 2, now)
			require.NoError(t, err)
			node.Goals = append(node.Goals, goal)
		}
		tree.Sprints = append(tree.Sprints, node)
	}
	return tree
}

func TestClone_Completeness(t *testing.T) {
	tmpl := buildMasterTree(t, true)
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	tree, err := Clone(tmpl, "student-1", start, sequentialIDs("sp"), testNow)
	require.NoError(t, err)

	// Каждый мастер-спринт и каждая мастер-цель получили копию.
	require.Len(t, tree.Sprints, len(tmpl.Sprints))
	assert.Equal(t, tmpl.GoalCount(), tree.GoalCount())

	assert.Equal(t, "student-1", tree.Plan.StudentID)
	assert.Equal(t, tmpl.Plan.ID, tree.Plan.MasterPlanID)
	assert.Equal(t, PlanStatusActive, tree.Plan.Status)
	assert.True(t, tree.Plan.StartDate.Equal(start))

	for i, sg := range tree.Sprints {
		master := tmpl.Sprints[i]
		assert.Equal(t, master.Sprint.Position, sg.Sprint.Position)
		assert.Equal(t, master.Sprint.ID, sg.Sprint.MasterSprintID)
		assert.Equal(t, tree.Plan.ID, sg.Sprint.StudentPlanID)

		wantStart, wantEnd := master.Sprint.Window.Resolve(start)
		assert.True(t, sg.Sprint.StartDate.Equal(wantStart))
		assert.True(t, sg.Sprint.EndDate.Equal(wantEnd))

		for _, goal := range sg.Goals {
			assert.Equal(t, GoalStatusPending, goal.Status)
			assert.Zero(t, goal.StudyMinutes)
			assert.Zero(t, goal.TotalQuestions)
			assert.Zero(t, goal.CorrectQuestions)
			assert.Nil(t, goal.CompletedAt)
			assert.Equal(t, sg.Sprint.ID, goal.StudentSprintID)
		}
	}

	// Указатель на спринт с позицией 1.
	require.NotNil(t, tree.Pointer)
	assert.Equal(t, tree.Sprints[0].Sprint.ID, tree.Pointer.StudentSprintID)
	assert.Equal(t, "student-1", tree.Pointer.StudentID)
}

func TestClone_PointerPicksLowestPosition(t *testing.T) {
	tmpl := buildMasterTree(t, true)
	// Переставляем спринты: порядок в срезе не должен влиять на указатель.
	tmpl.Sprints[0], tmpl.Sprints[1] = tmpl.Sprints[1], tmpl.Sprints[0]

	tree, err := Clone(tmpl, "student-1", testNow, sequentialIDs("sp"), testNow)
	require.NoError(t, err)

	require.NotNil(t, tree.Pointer)
	var first *StudentSprint
	for _, sg := range tree.Sprints {
		if sg.Sprint.Position == 1 {
			first = sg.Sprint
		}
	}
	require.NotNil(t, first)
	assert.Equal(t, first.ID, tree.Pointer.StudentSprintID)
}

func TestClone_EmptyPlan(t *testing.T) {
	tmpl := buildMasterTree(t, true)
	tmpl.Sprints = nil

	tree, err := Clone(tmpl, "student-1", testNow, sequentialIDs("sp"), testNow)
	require.NoError(t, err)

	assert.Empty(t, tree.Sprints)
	assert.Nil(t, tree.Pointer)
}

func TestClone_InactiveTemplate(t *testing.T) {
	tmpl := buildMasterTree(t, false)

	_, err := Clone(tmpl, "student-1", testNow, sequentialIDs("sp"), testNow)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrMasterPlanInactive)
}

func TestClone_Validation(t *testing.T) {
	tmpl := buildMasterTree(t, true)

	_, err := Clone(nil, "student-1", testNow, sequentialIDs("sp"), testNow)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = Clone(tmpl, "", testNow, sequentialIDs("sp"), testNow)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestClone_DoesNotMutateMaster(t *testing.T) {
	tmpl := buildMasterTree(t, true)
	beforeVersion := tmpl.Plan.Version
	beforeActive := tmpl.Plan.Active

	_, err := Clone(tmpl, "student-1", testNow, sequentialIDs("sp"), testNow)
	require.NoError(t, err)

	assert.Equal(t, beforeVersion, tmpl.Plan.Version)
	assert.Equal(t, beforeActive, tmpl.Plan.Active)
}
