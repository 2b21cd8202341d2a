package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyforge/studyforge-backend/internal/domain/taxonomy"
	"github.com/studyforge/studyforge-backend/pkg/shortcode"
	"github.com/studyforge/studyforge-backend/pkg/timeutil"
)

// seedLegacyDiscipline inserts a discipline without a code, the way rows
// looked before code generation existed.
func seedLegacyDiscipline(t *testing.T, env *testEnv, id, name string) {
	t.Helper()
	require.NoError(t, env.disciplines.Create(context.Background(), &taxonomy.Discipline{
		ID:        id,
		Name:      name,
		Active:    true,
		Version:   1,
		CreatedAt: timeutil.Now(),
		UpdatedAt: timeutil.Now(),
	}))
}

func TestBackfillCodes_AssignsMissingCodes(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	seedLegacyDiscipline(t, env, "d1", "História")
	seedLegacyDiscipline(t, env, "d2", "Geografia")

	// A row created through the normal path already has its code.
	coded, err := env.createDiscipline.Handle(ctx, CreateDisciplineCommand{Name: "Português"})
	require.NoError(t, err)

	res, err := env.backfill.Handle(ctx, BackfillCodesCommand{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.DisciplinesAssigned)

	d1, err := env.disciplines.GetByID(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "HIST68893", d1.Code)
	assert.True(t, shortcode.IsValid(d1.Code))

	// The pre-coded row is untouched.
	after, err := env.disciplines.GetByID(ctx, coded.Discipline.ID)
	require.NoError(t, err)
	assert.Equal(t, coded.Discipline.Code, after.Code)
}

func TestBackfillCodes_Idempotent(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	seedLegacyDiscipline(t, env, "d1", "História")

	first, err := env.backfill.Handle(ctx, BackfillCodesCommand{})
	require.NoError(t, err)
	assert.Equal(t, 1, first.DisciplinesAssigned)

	// A second pass over fully coded data assigns nothing.
	second, err := env.backfill.Handle(ctx, BackfillCodesCommand{})
	require.NoError(t, err)
	assert.Zero(t, second.DisciplinesAssigned)
	assert.Zero(t, second.SubjectsAssigned)
	assert.Zero(t, second.PlansAssigned)
}

func TestBackfillCodes_CollisionAbortsWholePass(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	// An existing row already holds the code the legacy row would get:
	// the pass must assign nothing.
	seedLegacyDiscipline(t, env, "d1", "História")
	require.NoError(t, env.disciplines.Create(ctx, &taxonomy.Discipline{
		ID:        "d2",
		Name:      "Historia Antiga",
		Code:      "HIST68893",
		Active:    true,
		Version:   1,
		CreatedAt: timeutil.Now(),
		UpdatedAt: timeutil.Now(),
	}))

	_, err := env.backfill.Handle(ctx, BackfillCodesCommand{})
	require.Error(t, err)

	d1, err := env.disciplines.GetByID(ctx, "d1")
	require.NoError(t, err)
	assert.Empty(t, d1.Code)
}

func TestBackfillCodes_SkipFlags(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	seedLegacyDiscipline(t, env, "d1", "História")

	res, err := env.backfill.Handle(ctx, BackfillCodesCommand{SkipDisciplines: true})
	require.NoError(t, err)
	assert.Zero(t, res.DisciplinesAssigned)

	d1, err := env.disciplines.GetByID(ctx, "d1")
	require.NoError(t, err)
	assert.Empty(t, d1.Code)
}
