package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/studyforge/studyforge-backend/internal/domain/ranking"
	"github.com/studyforge/studyforge-backend/internal/domain/studyplan"
	"github.com/studyforge/studyforge-backend/pkg/logger"
	"github.com/studyforge/studyforge-backend/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD PROGRESS COMMAND
// Writes a progress snapshot for one goal. Values replace the previous
// snapshot; the goal decides its own status transition. Runs inside a
// transaction with the student's plan locked, so a concurrent sprint
// advance never reads a half-written goal.
// ══════════════════════════════════════════════════════════════════════════════

// RecordProgressCommand contains the progress snapshot for a goal.
type RecordProgressCommand struct {
	// GoalID identifies the student goal.
	GoalID string

	// StudentID must own the goal; a mismatch is rejected.
	StudentID string

	// StudyMinutes is time spent on the goal.
	StudyMinutes int

	// TotalQuestions / CorrectQuestions are the question counters.
	TotalQuestions   int
	CorrectQuestions int

	// MarkCompleted closes the goal with this snapshot.
	MarkCompleted bool
}

// Validate validates the command.
func (c RecordProgressCommand) Validate() error {
	if c.GoalID == "" {
		return errors.New("record_progress: goal_id is required")
	}
	if c.StudentID == "" {
		return errors.New("record_progress: student_id is required")
	}
	return nil
}

// RecordProgressResult contains the updated goal.
type RecordProgressResult struct {
	Goal *studyplan.StudentGoal
}

// RecordProgressHandler handles the RecordProgressCommand.
type RecordProgressHandler struct {
	planRepo  studyplan.Repository
	rankCache ranking.Cache
	log       *logger.Logger
}

// NewRecordProgressHandler creates a new RecordProgressHandler.
// rankCache may be nil; the ranking then refreshes on TTL expiry only.
func NewRecordProgressHandler(planRepo studyplan.Repository, rankCache ranking.Cache, log *logger.Logger) *RecordProgressHandler {
	return &RecordProgressHandler{planRepo: planRepo, rankCache: rankCache, log: log}
}

// Handle executes the record progress command.
func (h *RecordProgressHandler) Handle(ctx context.Context, cmd RecordProgressCommand) (*RecordProgressResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("record_progress: validation failed: %w", err)
	}

	var result *RecordProgressResult
	err := h.planRepo.InTx(ctx, func(tx studyplan.Repository) error {
		if err := tx.LockStudentPlan(ctx, cmd.StudentID); err != nil {
			return err
		}

		goal, err := loadOwnedGoal(ctx, tx, cmd.GoalID, cmd.StudentID)
		if err != nil {
			return err
		}

		if err := goal.RecordProgress(cmd.StudyMinutes, cmd.TotalQuestions, cmd.CorrectQuestions, cmd.MarkCompleted, timeutil.Now()); err != nil {
			return err
		}
		if err := tx.UpdateGoal(ctx, goal); err != nil {
			return err
		}

		result = &RecordProgressResult{Goal: goal}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// A completed graded goal changes its week's ranking; drop the cached
	// board so the next read rebuilds. Best effort: the cache self-heals on
	// TTL expiry anyway.
	if h.rankCache != nil && result.Goal.IsCompleted() && result.Goal.TotalQuestions > 0 {
		week := ranking.WeekOf(*result.Goal.CompletedAt)
		if err := h.rankCache.InvalidateWeek(ctx, week); err != nil {
			h.log.Warn("ranking cache invalidation failed",
				logger.GoalID(cmd.GoalID), logger.Err(err))
		}
	}
	return result, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// REOPEN GOAL COMMAND
// The only sanctioned path from Completed back to Pending. Counters stay,
// the completion mark is erased, and the goal drops out of any week it was
// previously ranked in.
// ══════════════════════════════════════════════════════════════════════════════

// ReopenGoalCommand identifies the goal to reopen.
type ReopenGoalCommand struct {
	GoalID    string
	StudentID string
}

// Validate validates the command.
func (c ReopenGoalCommand) Validate() error {
	if c.GoalID == "" {
		return errors.New("reopen_goal: goal_id is required")
	}
	if c.StudentID == "" {
		return errors.New("reopen_goal: student_id is required")
	}
	return nil
}

// ReopenGoalResult contains the reopened goal.
type ReopenGoalResult struct {
	Goal *studyplan.StudentGoal
}

// ReopenGoalHandler handles the ReopenGoalCommand.
type ReopenGoalHandler struct {
	planRepo  studyplan.Repository
	rankCache ranking.Cache
	log       *logger.Logger
}

// NewReopenGoalHandler creates a new ReopenGoalHandler.
// rankCache may be nil; the ranking then refreshes on TTL expiry only.
func NewReopenGoalHandler(planRepo studyplan.Repository, rankCache ranking.Cache, log *logger.Logger) *ReopenGoalHandler {
	return &ReopenGoalHandler{planRepo: planRepo, rankCache: rankCache, log: log}
}

// Handle executes the reopen goal command.
func (h *ReopenGoalHandler) Handle(ctx context.Context, cmd ReopenGoalCommand) (*ReopenGoalResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("reopen_goal: validation failed: %w", err)
	}

	var result *ReopenGoalResult
	var completedAt *time.Time
	err := h.planRepo.InTx(ctx, func(tx studyplan.Repository) error {
		if err := tx.LockStudentPlan(ctx, cmd.StudentID); err != nil {
			return err
		}

		goal, err := loadOwnedGoal(ctx, tx, cmd.GoalID, cmd.StudentID)
		if err != nil {
			return err
		}

		// Reopen erases the completion mark; remember the week the goal
		// was ranked in so the cached board can be dropped.
		if goal.CompletedAt != nil {
			t := *goal.CompletedAt
			completedAt = &t
		}

		if err := goal.Reopen(timeutil.Now()); err != nil {
			return err
		}
		if err := tx.UpdateGoal(ctx, goal); err != nil {
			return err
		}

		result = &ReopenGoalResult{Goal: goal}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if h.rankCache != nil && completedAt != nil && result.Goal.TotalQuestions > 0 {
		week := ranking.WeekOf(*completedAt)
		if err := h.rankCache.InvalidateWeek(ctx, week); err != nil {
			h.log.Warn("ranking cache invalidation failed",
				logger.GoalID(cmd.GoalID), logger.Err(err))
		}
	}
	return result, nil
}
