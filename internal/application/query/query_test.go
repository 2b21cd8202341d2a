package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyforge/studyforge-backend/internal/application/command"
	"github.com/studyforge/studyforge-backend/internal/domain/shared"
	"github.com/studyforge/studyforge-backend/internal/domain/template"
	"github.com/studyforge/studyforge-backend/internal/infrastructure/persistence/memory"
	"github.com/studyforge/studyforge-backend/pkg/logger"
)

// fixture seeds one instantiated plan and exposes the repos the query
// handlers read.
type fixture struct {
	disciplines *memory.DisciplineRepository
	subjects    *memory.SubjectRepository
	templates   *memory.TemplateRepository
	plans       *memory.StudyPlanRepository

	record *command.RecordProgressHandler
	planID string
}

func newFixture(t *testing.T, studentID string, sprintGoals ...int) *fixture {
	t.Helper()
	ctx := context.Background()

	disciplines := memory.NewDisciplineRepository()
	subjects := memory.NewSubjectRepository(disciplines)
	templates := memory.NewTemplateRepository()
	plans := memory.NewStudyPlanRepository()

	createDiscipline := command.NewCreateDisciplineHandler(disciplines)
	createSubject := command.NewCreateSubjectHandler(disciplines, subjects)
	createPlan := command.NewCreateMasterPlanHandler(templates, disciplines)
	addSprint := command.NewAddMasterSprintHandler(templates)
	addGoal := command.NewAddMasterGoalHandler(templates, disciplines, subjects)
	instantiate := command.NewInstantiatePlanHandler(templates, plans)

	dres, err := createDiscipline.Handle(ctx, command.CreateDisciplineCommand{Name: "Direito Constitucional " + studentID})
	require.NoError(t, err)
	sres, err := createSubject.Handle(ctx, command.CreateSubjectCommand{Name: "Princípios " + studentID, DisciplineID: dres.Discipline.ID})
	require.NoError(t, err)

	pres, err := createPlan.Handle(ctx, command.CreateMasterPlanCommand{Name: "Plano " + studentID, DurationMonths: 3})
	require.NoError(t, err)

	for i, goals := range sprintGoals {
		spres, err := addSprint.Handle(ctx, command.AddMasterSprintCommand{
			MasterPlanID: pres.Plan.ID, Name: "Sprint", Position: i + 1,
			StartOffsetDays: i * 7, EndOffsetDays: i*7 + 6,
		})
		require.NoError(t, err)
		for g := 0; g < goals; g++ {
			_, err := addGoal.Handle(ctx, command.AddMasterGoalCommand{
				MasterSprintID: spres.Sprint.ID,
				DisciplineID:   dres.Discipline.ID,
				SubjectID:      sres.Subject.ID,
				Type:           template.GoalTypeExercises,
				Relevance:      2,
			})
			require.NoError(t, err)
		}
	}

	ires, err := instantiate.Handle(ctx, command.InstantiatePlanCommand{MasterPlanID: pres.Plan.ID, StudentID: studentID})
	require.NoError(t, err)

	return &fixture{
		disciplines: disciplines,
		subjects:    subjects,
		templates:   templates,
		plans:       plans,
		record:      command.NewRecordProgressHandler(plans, nil, nil),
		planID:      ires.Plan.ID,
	}
}

func TestGetSprintStats_Rollup(t *testing.T) {
	f := newFixture(t, "student-1", 3)
	ctx := context.Background()

	sprints, err := f.plans.ListSprints(ctx, f.planID)
	require.NoError(t, err)
	goals, err := f.plans.ListGoalsBySprint(ctx, sprints[0].ID)
	require.NoError(t, err)
	require.Len(t, goals, 3)

	// Goal 1: completed with 8/10. Goal 2: completed without questions.
	// Goal 3: untouched.
	_, err = f.record.Handle(ctx, command.RecordProgressCommand{
		GoalID: goals[0].ID, StudentID: "student-1",
		TotalQuestions: 10, CorrectQuestions: 8, MarkCompleted: true,
	})
	require.NoError(t, err)
	_, err = f.record.Handle(ctx, command.RecordProgressCommand{
		GoalID: goals[1].ID, StudentID: "student-1",
		StudyMinutes: 45, MarkCompleted: true,
	})
	require.NoError(t, err)

	stats, err := NewGetSprintStatsHandler(f.plans).Handle(ctx, GetSprintStatsQuery{SprintID: sprints[0].ID})
	require.NoError(t, err)

	assert.Equal(t, 3, stats.GoalCount)
	assert.Equal(t, 2, stats.CompletedCount)
	assert.Equal(t, shared.Percent(66.67), stats.ProgressPercent)
	require.NotNil(t, stats.PerformancePercent)
	assert.Equal(t, shared.Percent(80), *stats.PerformancePercent)
}

func TestGetSprintStats_NoGradedCompletions(t *testing.T) {
	f := newFixture(t, "student-1", 2)
	ctx := context.Background()

	sprints, err := f.plans.ListSprints(ctx, f.planID)
	require.NoError(t, err)

	stats, err := NewGetSprintStatsHandler(f.plans).Handle(ctx, GetSprintStatsQuery{SprintID: sprints[0].ID})
	require.NoError(t, err)

	assert.Equal(t, shared.Percent(0), stats.ProgressPercent)
	assert.Nil(t, stats.PerformancePercent)
}

func TestGetPlanStats_AggregatesSprints(t *testing.T) {
	f := newFixture(t, "student-1", 2, 2)
	ctx := context.Background()

	sprints, err := f.plans.ListSprints(ctx, f.planID)
	require.NoError(t, err)
	goals, err := f.plans.ListGoalsBySprint(ctx, sprints[0].ID)
	require.NoError(t, err)

	for _, g := range goals {
		_, err := f.record.Handle(ctx, command.RecordProgressCommand{
			GoalID: g.ID, StudentID: "student-1",
			TotalQuestions: 10, CorrectQuestions: 5, MarkCompleted: true,
		})
		require.NoError(t, err)
	}

	stats, err := NewGetPlanStatsHandler(f.plans).Handle(ctx, GetPlanStatsQuery{PlanID: f.planID})
	require.NoError(t, err)

	assert.Equal(t, 4, stats.GoalCount)
	assert.Equal(t, 2, stats.CompletedCount)
	assert.Equal(t, shared.Percent(50), stats.ProgressPercent)
	require.Len(t, stats.Sprints, 2)
	assert.Equal(t, shared.Percent(100), stats.Sprints[0].ProgressPercent)
	assert.Equal(t, shared.Percent(0), stats.Sprints[1].ProgressPercent)
}

func TestGetCurrentSprint(t *testing.T) {
	f := newFixture(t, "student-1", 2, 1)
	ctx := context.Background()

	view, err := NewGetCurrentSprintHandler(f.plans).Handle(ctx, GetCurrentSprintQuery{StudentID: "student-1"})
	require.NoError(t, err)

	assert.Equal(t, 1, view.Sprint.Position)
	assert.Len(t, view.Goals, 2)

	_, err = NewGetCurrentSprintHandler(f.plans).Handle(ctx, GetCurrentSprintQuery{StudentID: "nobody"})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGetWeeklyRanking_CacheAside(t *testing.T) {
	f := newFixture(t, "student-1", 2)
	ctx := context.Background()

	sprints, err := f.plans.ListSprints(ctx, f.planID)
	require.NoError(t, err)
	goals, err := f.plans.ListGoalsBySprint(ctx, sprints[0].ID)
	require.NoError(t, err)

	// One graded completion this week; one goal finished without questions
	// that must not appear on the board.
	_, err = f.record.Handle(ctx, command.RecordProgressCommand{
		GoalID: goals[0].ID, StudentID: "student-1",
		TotalQuestions: 20, CorrectQuestions: 15, MarkCompleted: true,
	})
	require.NoError(t, err)
	_, err = f.record.Handle(ctx, command.RecordProgressCommand{
		GoalID: goals[1].ID, StudentID: "student-1",
		StudyMinutes: 30, MarkCompleted: true,
	})
	require.NoError(t, err)

	source := memory.NewRankingSource(f.plans)
	cache := memory.NewRankingCache()
	log := logger.New(logger.Options{Level: logger.LevelError})
	handler := NewGetWeeklyRankingHandler(source, cache, time.Minute, log)

	board, err := handler.Handle(ctx, GetWeeklyRankingQuery{})
	require.NoError(t, err)
	require.Len(t, board.Entries, 1)
	assert.Equal(t, "student-1", board.Entries[0].StudentID)
	assert.Equal(t, 20, board.Entries[0].TotalQuestions)
	assert.Equal(t, shared.Percent(75), board.Entries[0].PercentCorrect)

	// Second read comes from the cache.
	cached, err := cache.GetWeek(ctx, board.Week)
	require.NoError(t, err)
	require.NotNil(t, cached)

	again, err := handler.Handle(ctx, GetWeeklyRankingQuery{})
	require.NoError(t, err)
	assert.Equal(t, board.Entries, again.Entries)
}

func TestGetWeeklyRanking_EmptyWeek(t *testing.T) {
	f := newFixture(t, "student-1", 1)

	source := memory.NewRankingSource(f.plans)
	log := logger.New(logger.Options{Level: logger.LevelError})
	handler := NewGetWeeklyRankingHandler(source, nil, time.Minute, log)

	// A week far in the past has no completions.
	board, err := handler.Handle(context.Background(), GetWeeklyRankingQuery{
		At: time.Date(2020, 1, 6, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Empty(t, board.Entries)
}
