package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/studyforge/studyforge-backend/internal/domain/ranking"
)

// ══════════════════════════════════════════════════════════════════════════════
// RANKING SOURCE IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// RankingSource aggregates completed graded goals for the weekly ranking.
// The partial index on student_goals.completed_at keeps the window scan cheap.
type RankingSource struct {
	conn *Connection
}

// NewRankingSource creates a new RankingSource.
func NewRankingSource(conn *Connection) *RankingSource {
	return &RankingSource{conn: conn}
}

// CompletedGoalTotals sums questions per student over goals completed in
// [from, to). Goals without questions never enter the ranking.
func (r *RankingSource) CompletedGoalTotals(ctx context.Context, from, to time.Time) ([]ranking.StudentTotals, error) {
	query := `
		SELECT p.student_id,
		       COALESCE(SUM(g.total_questions), 0),
		       COALESCE(SUM(g.correct_questions), 0)
		FROM student_goals g
		JOIN student_sprints s ON s.id = g.student_sprint_id
		JOIN student_plans p ON p.id = s.student_plan_id
		WHERE g.status = 'completed'
		  AND g.total_questions > 0
		  AND g.completed_at >= $1
		  AND g.completed_at < $2
		GROUP BY p.student_id
		ORDER BY p.student_id
	`

	rows, err := r.conn.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate goal totals: %w", err)
	}
	defer rows.Close()

	var out []ranking.StudentTotals
	for rows.Next() {
		var t ranking.StudentTotals
		if err := rows.Scan(&t.StudentID, &t.TotalQuestions, &t.TotalCorrect); err != nil {
			return nil, fmt.Errorf("failed to scan goal totals: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
