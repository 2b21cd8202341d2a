package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/studyforge/studyforge-backend/internal/application/command"
	"github.com/studyforge/studyforge-backend/internal/application/query"
	"github.com/studyforge/studyforge-backend/internal/domain/shared"
	"github.com/studyforge/studyforge-backend/internal/domain/template"
	"github.com/studyforge/studyforge-backend/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ERROR MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// writeError maps domain error kinds to HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, shared.ErrInvalidReference):
		writeJSONError(w, http.StatusUnprocessableEntity, "invalid_reference", err.Error())
	case errors.Is(err, shared.ErrInvalidInput), errors.Is(err, shared.ErrInvalidRange):
		writeJSONError(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, shared.ErrConflict):
		writeJSONError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, shared.ErrSprintIncomplete):
		writeJSONError(w, http.StatusConflict, "sprint_incomplete", err.Error())
	case errors.Is(err, shared.ErrMasterPlanInactive):
		writeJSONError(w, http.StatusConflict, "master_plan_inactive", err.Error())
	case strings.Contains(err.Error(), "validation failed"):
		// Command Validate errors are plain, not kind-wrapped.
		writeJSONError(w, http.StatusBadRequest, "invalid_input", err.Error())
	default:
		s.logger.Error("request failed",
			logger.Err(err),
			logger.String("path", r.URL.Path),
			logger.String("request_id", getRequestID(r.Context())),
		)
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}

// decodeJSON decodes a size-limited JSON request body into dst.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		writeJSONError(w, http.StatusBadRequest, "malformed_body", "Request body is not valid JSON: "+err.Error())
		return false
	}
	return true
}

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot serves the root endpoint with basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"name":    "StudyForge API",
		"version": "v1",
		"endpoints": map[string]string{
			"health":      "/healthz",
			"disciplines": "/v1/disciplines",
			"plans":       "/v1/plans",
			"ranking":     "/v1/ranking",
		},
	}

	writeJSON(w, http.StatusOK, info)
}

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		healthy, detail := s.deps.HealthChecker.Check(r.Context())
		body := map[string]interface{}{
			"healthy": healthy,
			"detail":  detail,
			"uptime":  s.Uptime().String(),
		}
		if !healthy {
			writeJSON(w, http.StatusServiceUnavailable, body)
			return
		}
		writeJSON(w, http.StatusOK, body)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"healthy": true,
		"uptime":  s.Uptime().String(),
	})
}

// handleLive handles the liveness probe endpoint.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// TAXONOMY HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleListTaxonomy handles GET /v1/disciplines
func (s *Server) handleListTaxonomy(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.ListTaxonomy.Handle(r.Context(), query.ListTaxonomyQuery{})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type createDisciplineRequest struct {
	Name string `json:"name"`
}

// handleCreateDiscipline handles POST /v1/disciplines
func (s *Server) handleCreateDiscipline(w http.ResponseWriter, r *http.Request) {
	var req createDisciplineRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	result, err := s.deps.CreateDiscipline.Handle(r.Context(), command.CreateDisciplineCommand{Name: req.Name})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result.Discipline)
}

// handleDeactivateDiscipline handles DELETE /v1/disciplines/{id}
func (s *Server) handleDeactivateDiscipline(w http.ResponseWriter, r *http.Request) {
	cmd := command.DeactivateDisciplineCommand{DisciplineID: r.PathValue("id")}
	if err := s.deps.DeactivateDiscipline.Handle(r.Context(), cmd); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}

type createSubjectRequest struct {
	Name         string `json:"name"`
	DisciplineID string `json:"discipline_id"`
}

// handleCreateSubject handles POST /v1/subjects
func (s *Server) handleCreateSubject(w http.ResponseWriter, r *http.Request) {
	var req createSubjectRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	result, err := s.deps.CreateSubject.Handle(r.Context(), command.CreateSubjectCommand{
		Name:         req.Name,
		DisciplineID: req.DisciplineID,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result.Subject)
}

// handleDeactivateSubject handles DELETE /v1/subjects/{id}
func (s *Server) handleDeactivateSubject(w http.ResponseWriter, r *http.Request) {
	cmd := command.DeactivateSubjectCommand{SubjectID: r.PathValue("id")}
	if err := s.deps.DeactivateSubject.Handle(r.Context(), cmd); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}

// ══════════════════════════════════════════════════════════════════════════════
// MASTER PLAN HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleListMasterPlans handles GET /v1/plans
func (s *Server) handleListMasterPlans(w http.ResponseWriter, r *http.Request) {
	q := query.ListMasterPlansQuery{
		IncludeInactive: r.URL.Query().Get("include_inactive") == "true",
	}
	result, err := s.deps.ListMasterPlans.Handle(r.Context(), q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type createMasterPlanRequest struct {
	Name           string   `json:"name"`
	Role           string   `json:"role"`
	Description    string   `json:"description"`
	DurationMonths int      `json:"duration_months"`
	DisciplineIDs  []string `json:"discipline_ids"`
}

// handleCreateMasterPlan handles POST /v1/plans
func (s *Server) handleCreateMasterPlan(w http.ResponseWriter, r *http.Request) {
	var req createMasterPlanRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	result, err := s.deps.CreateMasterPlan.Handle(r.Context(), command.CreateMasterPlanCommand{
		Name:           req.Name,
		Role:           req.Role,
		Description:    req.Description,
		DurationMonths: req.DurationMonths,
		DisciplineIDs:  req.DisciplineIDs,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result.Plan)
}

// handleGetMasterPlanTree handles GET /v1/plans/{id}
func (s *Server) handleGetMasterPlanTree(w http.ResponseWriter, r *http.Request) {
	q := query.GetMasterPlanTreeQuery{MasterPlanID: r.PathValue("id")}
	result, err := s.deps.GetMasterPlanTree.Handle(r.Context(), q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handlePublishNewVersion handles POST /v1/plans/{id}/versions
func (s *Server) handlePublishNewVersion(w http.ResponseWriter, r *http.Request) {
	cmd := command.PublishNewVersionCommand{MasterPlanID: r.PathValue("id")}
	result, err := s.deps.PublishNewVersion.Handle(r.Context(), cmd)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result.Successor)
}

type addMasterSprintRequest struct {
	Name            string `json:"name"`
	Position        int    `json:"position"`
	StartOffsetDays int    `json:"start_offset_days"`
	EndOffsetDays   int    `json:"end_offset_days"`
}

// handleAddMasterSprint handles POST /v1/plans/{id}/sprints
func (s *Server) handleAddMasterSprint(w http.ResponseWriter, r *http.Request) {
	var req addMasterSprintRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	result, err := s.deps.AddMasterSprint.Handle(r.Context(), command.AddMasterSprintCommand{
		MasterPlanID:    r.PathValue("id"),
		Name:            req.Name,
		Position:        req.Position,
		StartOffsetDays: req.StartOffsetDays,
		EndOffsetDays:   req.EndOffsetDays,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result.Sprint)
}

type addMasterGoalRequest struct {
	DisciplineID string `json:"discipline_id"`
	SubjectID    string `json:"subject_id"`
	Type         string `json:"type"`
	Instructions string `json:"instructions"`
	ExternalLink string `json:"external_link"`
	Relevance    int    `json:"relevance"`
}

// handleAddMasterGoal handles POST /v1/sprints/{id}/goals
func (s *Server) handleAddMasterGoal(w http.ResponseWriter, r *http.Request) {
	var req addMasterGoalRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	result, err := s.deps.AddMasterGoal.Handle(r.Context(), command.AddMasterGoalCommand{
		MasterSprintID: r.PathValue("id"),
		DisciplineID:   req.DisciplineID,
		SubjectID:      req.SubjectID,
		Type:           template.GoalType(req.Type),
		Instructions:   req.Instructions,
		ExternalLink:   req.ExternalLink,
		Relevance:      req.Relevance,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result.Goal)
}

// ══════════════════════════════════════════════════════════════════════════════
// INSTANTIATION & PROGRESS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type instantiatePlanRequest struct {
	StudentID string `json:"student_id"`
	StartDate string `json:"start_date"` // YYYY-MM-DD, optional
}

// handleInstantiatePlan handles POST /v1/plans/{id}/instantiate
func (s *Server) handleInstantiatePlan(w http.ResponseWriter, r *http.Request) {
	var req instantiatePlanRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	var startDate time.Time
	if req.StartDate != "" {
		var err error
		startDate, err = time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid_input", "start_date must be YYYY-MM-DD")
			return
		}
	}

	result, err := s.deps.InstantiatePlan.Handle(r.Context(), command.InstantiatePlanCommand{
		MasterPlanID: r.PathValue("id"),
		StudentID:    req.StudentID,
		StartDate:    startDate,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"plan":         result.Plan,
		"sprint_count": result.SprintCount,
		"goal_count":   result.GoalCount,
	})
}

// handleGetCurrentSprint handles GET /v1/students/{id}/current-sprint
func (s *Server) handleGetCurrentSprint(w http.ResponseWriter, r *http.Request) {
	q := query.GetCurrentSprintQuery{StudentID: r.PathValue("id")}
	result, err := s.deps.GetCurrentSprint.Handle(r.Context(), q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleAdvanceSprint handles POST /v1/students/{id}/advance
func (s *Server) handleAdvanceSprint(w http.ResponseWriter, r *http.Request) {
	cmd := command.AdvanceSprintCommand{StudentID: r.PathValue("id")}
	result, err := s.deps.AdvanceSprint.Handle(r.Context(), cmd)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"next_sprint":   result.NextSprint,
		"plan_finished": result.PlanFinished,
	})
}

type recordProgressRequest struct {
	StudentID        string `json:"student_id"`
	StudyMinutes     int    `json:"study_minutes"`
	TotalQuestions   int    `json:"total_questions"`
	CorrectQuestions int    `json:"correct_questions"`
	MarkCompleted    bool   `json:"mark_completed"`
}

// handleRecordProgress handles POST /v1/goals/{id}/progress
func (s *Server) handleRecordProgress(w http.ResponseWriter, r *http.Request) {
	var req recordProgressRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	result, err := s.deps.RecordProgress.Handle(r.Context(), command.RecordProgressCommand{
		GoalID:           r.PathValue("id"),
		StudentID:        req.StudentID,
		StudyMinutes:     req.StudyMinutes,
		TotalQuestions:   req.TotalQuestions,
		CorrectQuestions: req.CorrectQuestions,
		MarkCompleted:    req.MarkCompleted,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result.Goal)
}

type reopenGoalRequest struct {
	StudentID string `json:"student_id"`
}

// handleReopenGoal handles POST /v1/goals/{id}/reopen
func (s *Server) handleReopenGoal(w http.ResponseWriter, r *http.Request) {
	var req reopenGoalRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	result, err := s.deps.ReopenGoal.Handle(r.Context(), command.ReopenGoalCommand{
		GoalID:    r.PathValue("id"),
		StudentID: req.StudentID,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result.Goal)
}

// ══════════════════════════════════════════════════════════════════════════════
// AGGREGATION HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetSprintStats handles GET /v1/sprints/{id}/stats
func (s *Server) handleGetSprintStats(w http.ResponseWriter, r *http.Request) {
	q := query.GetSprintStatsQuery{SprintID: r.PathValue("id")}
	result, err := s.deps.GetSprintStats.Handle(r.Context(), q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleGetPlanStats handles GET /v1/student-plans/{id}/stats
func (s *Server) handleGetPlanStats(w http.ResponseWriter, r *http.Request) {
	q := query.GetPlanStatsQuery{PlanID: r.PathValue("id")}
	result, err := s.deps.GetPlanStats.Handle(r.Context(), q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleGetWeeklyRanking handles GET /v1/ranking
// Optional ?at=YYYY-MM-DD selects a past week.
func (s *Server) handleGetWeeklyRanking(w http.ResponseWriter, r *http.Request) {
	var q query.GetWeeklyRankingQuery

	if at := r.URL.Query().Get("at"); at != "" {
		parsed, err := time.Parse("2006-01-02", at)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid_input", "at must be YYYY-MM-DD")
			return
		}
		q.At = parsed
	}

	result, err := s.deps.GetWeeklyRanking.Handle(r.Context(), q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// ADMINISTRATION HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type backfillCodesRequest struct {
	SkipDisciplines bool `json:"skip_disciplines"`
	SkipSubjects    bool `json:"skip_subjects"`
	SkipPlans       bool `json:"skip_plans"`
}

// handleBackfillCodes handles POST /v1/admin/backfill-codes
func (s *Server) handleBackfillCodes(w http.ResponseWriter, r *http.Request) {
	var req backfillCodesRequest
	if r.ContentLength > 0 {
		if !s.decodeJSON(w, r, &req) {
			return
		}
	}

	result, err := s.deps.BackfillCodes.Handle(r.Context(), command.BackfillCodesCommand{
		SkipDisciplines: req.SkipDisciplines,
		SkipSubjects:    req.SkipSubjects,
		SkipPlans:       req.SkipPlans,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{
		"disciplines_assigned": result.DisciplinesAssigned,
		"subjects_assigned":    result.SubjectsAssigned,
		"plans_assigned":       result.PlansAssigned,
	})
}
