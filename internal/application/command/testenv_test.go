package command

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/studyforge/studyforge-backend/internal/domain/taxonomy"
	"github.com/studyforge/studyforge-backend/internal/domain/template"
	"github.com/studyforge/studyforge-backend/internal/infrastructure/persistence/memory"
	"github.com/studyforge/studyforge-backend/pkg/logger"
)

// testEnv wires every handler against in-memory repositories.
type testEnv struct {
	disciplines *memory.DisciplineRepository
	subjects    *memory.SubjectRepository
	templates   *memory.TemplateRepository
	plans       *memory.StudyPlanRepository
	rankCache   *memory.RankingCache

	createDiscipline *CreateDisciplineHandler
	createSubject    *CreateSubjectHandler
	createPlan       *CreateMasterPlanHandler
	addSprint        *AddMasterSprintHandler
	addGoal          *AddMasterGoalHandler
	publishVersion   *PublishNewVersionHandler
	instantiate      *InstantiatePlanHandler
	recordProgress   *RecordProgressHandler
	reopenGoal       *ReopenGoalHandler
	advanceSprint    *AdvanceSprintHandler
	backfill         *BackfillCodesHandler
}

func newTestEnv() *testEnv {
	disciplines := memory.NewDisciplineRepository()
	subjects := memory.NewSubjectRepository(disciplines)
	templates := memory.NewTemplateRepository()
	plans := memory.NewStudyPlanRepository()
	rankCache := memory.NewRankingCache()
	log := logger.New(logger.Options{Output: io.Discard})

	return &testEnv{
		disciplines:      disciplines,
		subjects:         subjects,
		templates:        templates,
		plans:            plans,
		rankCache:        rankCache,
		createDiscipline: NewCreateDisciplineHandler(disciplines),
		createSubject:    NewCreateSubjectHandler(disciplines, subjects),
		createPlan:       NewCreateMasterPlanHandler(templates, disciplines),
		addSprint:        NewAddMasterSprintHandler(templates),
		addGoal:          NewAddMasterGoalHandler(templates, disciplines, subjects),
		publishVersion:   NewPublishNewVersionHandler(templates),
		instantiate:      NewInstantiatePlanHandler(templates, plans),
		recordProgress:   NewRecordProgressHandler(plans, rankCache, log),
		reopenGoal:       NewReopenGoalHandler(plans, rankCache, log),
		advanceSprint:    NewAdvanceSprintHandler(plans),
		backfill:         NewBackfillCodesHandler(disciplines, subjects, templates),
	}
}

// seedTaxonomy creates one discipline with one subject.
func (e *testEnv) seedTaxonomy(t *testing.T, disciplineName, subjectName string) (*taxonomy.Discipline, *taxonomy.Subject) {
	t.Helper()
	ctx := context.Background()

	dres, err := e.createDiscipline.Handle(ctx, CreateDisciplineCommand{Name: disciplineName})
	require.NoError(t, err)
	sres, err := e.createSubject.Handle(ctx, CreateSubjectCommand{Name: subjectName, DisciplineID: dres.Discipline.ID})
	require.NoError(t, err)

	return dres.Discipline, sres.Subject
}

// seedTemplate authors a plan with the given sprint layout: sprintGoals[i]
// is the number of goals in sprint i+1.
func (e *testEnv) seedTemplate(t *testing.T, name string, sprintGoals ...int) *template.MasterPlan {
	t.Helper()
	ctx := context.Background()

	discipline, subject := e.seedTaxonomy(t, name+" discipline", name+" subject")

	pres, err := e.createPlan.Handle(ctx, CreateMasterPlanCommand{
		Name:           name,
		Role:           "Escrevente",
		DurationMonths: 6,
		DisciplineIDs:  []string{discipline.ID},
	})
	require.NoError(t, err)

	for i, goals := range sprintGoals {
		sres, err := e.addSprint.Handle(ctx, AddMasterSprintCommand{
			MasterPlanID:    pres.Plan.ID,
			Name:            "Sprint",
			Position:        i + 1,
			StartOffsetDays: i * 7,
			EndOffsetDays:   i*7 + 6,
		})
		require.NoError(t, err)

		for g := 0; g < goals; g++ {
			_, err := e.addGoal.Handle(ctx, AddMasterGoalCommand{
				MasterSprintID: sres.Sprint.ID,
				DisciplineID:   discipline.ID,
				SubjectID:      subject.ID,
				Type:           template.GoalTypeTheory,
				Instructions:   "study",
				Relevance:      2,
			})
			require.NoError(t, err)
		}
	}

	return pres.Plan
}
