package postgres

// GetMigrations returns all embedded migrations in order.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_taxonomy",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_templates",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
		{
			Version: 3,
			Name:    "create_student_plans",
			UpSQL:   migration003Up,
			DownSQL: migration003Down,
		},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: TAXONOMY
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Disciplines: top level of the study taxonomy.
-- Codes follow AAAA99999 and are immutable once assigned; legacy rows may
-- carry NULL until the backfill pass runs.
CREATE TABLE IF NOT EXISTS disciplines (
    id UUID PRIMARY KEY,
    name VARCHAR(255) NOT NULL UNIQUE,
    code CHAR(9) UNIQUE,
    active BOOLEAN NOT NULL DEFAULT TRUE,
    version INTEGER NOT NULL DEFAULT 1,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT disciplines_code_format CHECK (code IS NULL OR code ~ '^[A-Z]{4}[0-9]{5}$')
);

CREATE INDEX IF NOT EXISTS idx_disciplines_active ON disciplines(active) WHERE active;

-- Subjects: second taxonomy level, owned by a discipline.
CREATE TABLE IF NOT EXISTS subjects (
    id UUID PRIMARY KEY,
    name VARCHAR(255) NOT NULL UNIQUE,
    code CHAR(9) UNIQUE,
    discipline_id UUID NOT NULL REFERENCES disciplines(id),
    active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT subjects_code_format CHECK (code IS NULL OR code ~ '^[A-Z]{4}[0-9]{5}$')
);

CREATE INDEX IF NOT EXISTS idx_subjects_discipline ON subjects(discipline_id);
CREATE INDEX IF NOT EXISTS idx_subjects_active ON subjects(active) WHERE active;
`

const migration001Down = `
DROP TABLE IF EXISTS subjects;
DROP TABLE IF EXISTS disciplines;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: MASTER PLAN TEMPLATES
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Master plans: admin-authored templates. The code is shared by every
-- version of a lineage, so global uniqueness holds only among active rows.
CREATE TABLE IF NOT EXISTS master_plans (
    id UUID PRIMARY KEY,
    name VARCHAR(255) NOT NULL,
    code CHAR(9),
    role VARCHAR(255) NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    duration_months INTEGER NOT NULL,
    version INTEGER NOT NULL DEFAULT 1,
    active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT master_plans_code_format CHECK (code IS NULL OR code ~ '^[A-Z]{4}[0-9]{5}$'),
    CONSTRAINT master_plans_duration CHECK (duration_months > 0),
    UNIQUE (code, version)
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_master_plans_active_code
    ON master_plans(code) WHERE active;

-- Master sprints: ordered slices of a plan; positions unique per plan,
-- gaps tolerated.
CREATE TABLE IF NOT EXISTS master_sprints (
    id UUID PRIMARY KEY,
    master_plan_id UUID NOT NULL REFERENCES master_plans(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    name VARCHAR(255) NOT NULL DEFAULT '',
    start_offset_days INTEGER NOT NULL,
    end_offset_days INTEGER NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT master_sprints_position CHECK (position >= 1),
    CONSTRAINT master_sprints_window CHECK (start_offset_days >= 0 AND end_offset_days >= start_offset_days),
    UNIQUE (master_plan_id, position)
);

-- Master goals: units of work tagged with taxonomy. References must exist
-- at insert time; no active check, deactivation never rewrites templates.
CREATE TABLE IF NOT EXISTS master_goals (
    id UUID PRIMARY KEY,
    master_sprint_id UUID NOT NULL REFERENCES master_sprints(id) ON DELETE CASCADE,
    discipline_id UUID NOT NULL REFERENCES disciplines(id),
    subject_id UUID NOT NULL REFERENCES subjects(id),
    goal_type VARCHAR(20) NOT NULL,
    instructions TEXT NOT NULL DEFAULT '',
    external_link TEXT NOT NULL DEFAULT '',
    relevance INTEGER NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT master_goals_type CHECK (goal_type IN ('theory', 'exercises', 'review', 'reinforcement')),
    CONSTRAINT master_goals_relevance CHECK (relevance BETWEEN 1 AND 3)
);

CREATE INDEX IF NOT EXISTS idx_master_goals_sprint ON master_goals(master_sprint_id);

-- Plan coverage: which disciplines a plan touches, independent of goals.
CREATE TABLE IF NOT EXISTS master_plan_disciplines (
    master_plan_id UUID NOT NULL REFERENCES master_plans(id) ON DELETE CASCADE,
    discipline_id UUID NOT NULL REFERENCES disciplines(id),
    PRIMARY KEY (master_plan_id, discipline_id)
);
`

const migration002Down = `
DROP TABLE IF EXISTS master_plan_disciplines;
DROP TABLE IF EXISTS master_goals;
DROP TABLE IF EXISTS master_sprints;
DROP TABLE IF EXISTS master_plans;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: STUDENT PLAN INSTANCES
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
-- Student plans: cloned instances. master_plan_id is nullable for plans
-- assembled by hand.
CREATE TABLE IF NOT EXISTS student_plans (
    id UUID PRIMARY KEY,
    student_id VARCHAR(100) NOT NULL,
    master_plan_id UUID REFERENCES master_plans(id),
    name VARCHAR(255) NOT NULL,
    role VARCHAR(255) NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    start_date TIMESTAMP WITH TIME ZONE NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'active',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT student_plans_status CHECK (status IN ('active', 'finished'))
);

-- One active plan per student.
CREATE UNIQUE INDEX IF NOT EXISTS idx_student_plans_one_active
    ON student_plans(student_id) WHERE status = 'active';
CREATE INDEX IF NOT EXISTS idx_student_plans_student ON student_plans(student_id);

CREATE TABLE IF NOT EXISTS student_sprints (
    id UUID PRIMARY KEY,
    student_plan_id UUID NOT NULL REFERENCES student_plans(id) ON DELETE CASCADE,
    master_sprint_id UUID,
    position INTEGER NOT NULL,
    name VARCHAR(255) NOT NULL DEFAULT '',
    start_date TIMESTAMP WITH TIME ZONE NOT NULL,
    end_date TIMESTAMP WITH TIME ZONE NOT NULL,

    CONSTRAINT student_sprints_position CHECK (position >= 1),
    UNIQUE (student_plan_id, position)
);

CREATE TABLE IF NOT EXISTS student_goals (
    id UUID PRIMARY KEY,
    student_sprint_id UUID NOT NULL REFERENCES student_sprints(id) ON DELETE CASCADE,
    discipline_id UUID NOT NULL,
    subject_id UUID NOT NULL,
    goal_type VARCHAR(20) NOT NULL,
    instructions TEXT NOT NULL DEFAULT '',
    external_link TEXT NOT NULL DEFAULT '',
    relevance INTEGER NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'pending',
    study_minutes INTEGER NOT NULL DEFAULT 0,
    total_questions INTEGER NOT NULL DEFAULT 0,
    correct_questions INTEGER NOT NULL DEFAULT 0,
    performance_percent DECIMAL(5,2) NOT NULL DEFAULT 0,
    completed_at TIMESTAMP WITH TIME ZONE,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT student_goals_status CHECK (status IN ('pending', 'in_progress', 'completed')),
    CONSTRAINT student_goals_questions CHECK (
        total_questions >= 0 AND correct_questions >= 0 AND correct_questions <= total_questions
    ),
    CONSTRAINT student_goals_minutes CHECK (study_minutes >= 0)
);

CREATE INDEX IF NOT EXISTS idx_student_goals_sprint ON student_goals(student_sprint_id);
-- Weekly ranking scans completions by window.
CREATE INDEX IF NOT EXISTS idx_student_goals_completed_at
    ON student_goals(completed_at) WHERE status = 'completed' AND total_questions > 0;

-- Current sprint pointer: at most one per student.
CREATE TABLE IF NOT EXISTS current_sprint_pointers (
    student_id VARCHAR(100) PRIMARY KEY,
    student_sprint_id UUID NOT NULL REFERENCES student_sprints(id) ON DELETE CASCADE,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);
`

const migration003Down = `
DROP TABLE IF EXISTS current_sprint_pointers;
DROP TABLE IF EXISTS student_goals;
DROP TABLE IF EXISTS student_sprints;
DROP TABLE IF EXISTS student_plans;
`
