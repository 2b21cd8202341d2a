package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyforge/studyforge-backend/internal/domain/shared"
)

func TestCreateMasterPlan_DerivesCode(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	res, err := env.createPlan.Handle(ctx, CreateMasterPlanCommand{
		Name:           "Plano TJ-SP Escrevente",
		DurationMonths: 6,
	})
	require.NoError(t, err)

	assert.Equal(t, "PTJS25776", res.Plan.Code)
	assert.Equal(t, 1, res.Plan.Version)
	assert.True(t, res.Plan.Active)
}

func TestCreateMasterPlan_UnknownDisciplineRejected(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, err := env.createPlan.Handle(ctx, CreateMasterPlanCommand{
		Name:           "Plano Qualquer",
		DurationMonths: 3,
		DisciplineIDs:  []string{"missing"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrInvalidReference)
}

func TestPublishNewVersion_FreezesPredecessor(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	master := env.seedTemplate(t, "Plano Evolutivo", 1)

	res, err := env.publishVersion.Handle(ctx, PublishNewVersionCommand{MasterPlanID: master.ID})
	require.NoError(t, err)

	assert.False(t, res.Superseded.Active)
	assert.True(t, res.Successor.Active)
	assert.Equal(t, 2, res.Successor.Version)
	assert.Equal(t, res.Superseded.Code, res.Successor.Code)

	// Discipline links carried over.
	links, err := env.templates.ListPlanDisciplines(ctx, res.Successor.ID)
	require.NoError(t, err)
	assert.Len(t, links, 1)

	// A superseded version cannot be versioned again.
	_, err = env.publishVersion.Handle(ctx, PublishNewVersionCommand{MasterPlanID: master.ID})
	assert.ErrorIs(t, err, shared.ErrMasterPlanInactive)
}

func TestPublishNewVersion_CopiesTree(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	master := env.seedTemplate(t, "Plano Copiado", 2, 3)

	res, err := env.publishVersion.Handle(ctx, PublishNewVersionCommand{MasterPlanID: master.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, res.SprintCount)
	assert.Equal(t, 5, res.GoalCount)

	oldTree, err := env.templates.GetTree(ctx, master.ID)
	require.NoError(t, err)
	newTree, err := env.templates.GetTree(ctx, res.Successor.ID)
	require.NoError(t, err)

	// The successor is an exact replica of the frozen tree, with fresh IDs.
	require.Len(t, newTree.Sprints, len(oldTree.Sprints))
	assert.Equal(t, oldTree.GoalCount(), newTree.GoalCount())
	for i, node := range newTree.Sprints {
		src := oldTree.Sprints[i]
		assert.Equal(t, src.Sprint.Position, node.Sprint.Position)
		assert.Equal(t, src.Sprint.Name, node.Sprint.Name)
		assert.Equal(t, src.Sprint.Window, node.Sprint.Window)
		assert.NotEqual(t, src.Sprint.ID, node.Sprint.ID)

		require.Len(t, node.Goals, len(src.Goals))
		for j, g := range node.Goals {
			assert.Equal(t, src.Goals[j].DisciplineID, g.DisciplineID)
			assert.Equal(t, src.Goals[j].SubjectID, g.SubjectID)
			assert.Equal(t, src.Goals[j].Type, g.Type)
			assert.Equal(t, src.Goals[j].Instructions, g.Instructions)
			assert.NotEqual(t, src.Goals[j].ID, g.ID)
			assert.Equal(t, node.Sprint.ID, g.MasterSprintID)
		}
	}
}

func TestAddMasterSprint_DuplicatePositionConflicts(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	master := env.seedTemplate(t, "Plano Posicional", 1)

	_, err := env.addSprint.Handle(ctx, AddMasterSprintCommand{
		MasterPlanID: master.ID, Name: "Duplicado", Position: 1,
		StartOffsetDays: 0, EndOffsetDays: 6,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrConflict)
}

func TestAddMasterSprint_InactivePlanRejected(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	master := env.seedTemplate(t, "Plano Congelado", 1)

	_, err := env.publishVersion.Handle(ctx, PublishNewVersionCommand{MasterPlanID: master.ID})
	require.NoError(t, err)

	_, err = env.addSprint.Handle(ctx, AddMasterSprintCommand{
		MasterPlanID: master.ID, Name: "Tarde Demais", Position: 2,
		StartOffsetDays: 7, EndOffsetDays: 13,
	})
	assert.ErrorIs(t, err, shared.ErrMasterPlanInactive)
}

func TestAddMasterGoal_TaxonomyChecks(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	discipline, subject := env.seedTaxonomy(t, "Português", "Gramática")
	other, _ := env.seedTaxonomy(t, "Matemática Básica", "Álgebra")

	pres, err := env.createPlan.Handle(ctx, CreateMasterPlanCommand{Name: "Plano Goller", DurationMonths: 2})
	require.NoError(t, err)
	sres, err := env.addSprint.Handle(ctx, AddMasterSprintCommand{
		MasterPlanID: pres.Plan.ID, Name: "Sprint 1", Position: 1,
		StartOffsetDays: 0, EndOffsetDays: 6,
	})
	require.NoError(t, err)

	// Unknown subject.
	_, err = env.addGoal.Handle(ctx, AddMasterGoalCommand{
		MasterSprintID: sres.Sprint.ID, DisciplineID: discipline.ID, SubjectID: "missing",
		Type: "theory", Relevance: 1,
	})
	assert.ErrorIs(t, err, shared.ErrInvalidReference)

	// Subject under a different discipline.
	_, err = env.addGoal.Handle(ctx, AddMasterGoalCommand{
		MasterSprintID: sres.Sprint.ID, DisciplineID: other.ID, SubjectID: subject.ID,
		Type: "theory", Relevance: 1,
	})
	assert.ErrorIs(t, err, shared.ErrInvalidReference)

	// Relevance out of the 1-3 band.
	_, err = env.addGoal.Handle(ctx, AddMasterGoalCommand{
		MasterSprintID: sres.Sprint.ID, DisciplineID: discipline.ID, SubjectID: subject.ID,
		Type: "theory", Relevance: 5,
	})
	assert.ErrorIs(t, err, shared.ErrInvalidRange)

	// A deactivated discipline still passes: references only need to exist.
	deactivate := NewDeactivateDisciplineHandler(env.disciplines)
	require.NoError(t, deactivate.Handle(ctx, DeactivateDisciplineCommand{DisciplineID: discipline.ID}))
	_, err = env.addGoal.Handle(ctx, AddMasterGoalCommand{
		MasterSprintID: sres.Sprint.ID, DisciplineID: discipline.ID, SubjectID: subject.ID,
		Type: "theory", Relevance: 2,
	})
	assert.NoError(t, err)
}
