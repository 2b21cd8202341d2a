// Package memory provides in-memory repository implementations backed by
// maps and mutexes. They mirror the postgres repositories' error contracts
// (NotFound, Conflict, InvalidReference) and serve application-layer tests
// and local development without a database.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/studyforge/studyforge-backend/internal/domain/shared"
	"github.com/studyforge/studyforge-backend/internal/domain/taxonomy"
)

// DisciplineRepository is a map-backed taxonomy.DisciplineRepository.
type DisciplineRepository struct {
	mu    sync.RWMutex
	byID  map[string]*taxonomy.Discipline
	names map[string]string // lower name -> id
	codes map[string]string // code -> id
}

// NewDisciplineRepository creates an empty repository.
func NewDisciplineRepository() *DisciplineRepository {
	return &DisciplineRepository{
		byID:  make(map[string]*taxonomy.Discipline),
		names: make(map[string]string),
		codes: make(map[string]string),
	}
}

func copyDiscipline(d *taxonomy.Discipline) *taxonomy.Discipline {
	cp := *d
	return &cp
}

// Create stores a new discipline.
func (r *DisciplineRepository) Create(_ context.Context, d *taxonomy.Discipline) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[d.ID]; ok {
		return shared.NewDomainError("taxonomy", "Create", shared.ErrConflict, "discipline id already exists")
	}
	if _, ok := r.names[lower(d.Name)]; ok {
		return shared.NewDomainError("taxonomy", "Create", shared.ErrConflict, "discipline name already exists")
	}
	if d.Code != "" {
		if _, ok := r.codes[d.Code]; ok {
			return shared.NewDomainError("taxonomy", "Create", shared.ErrConflict, "discipline code already exists")
		}
	}

	r.byID[d.ID] = copyDiscipline(d)
	r.names[lower(d.Name)] = d.ID
	if d.Code != "" {
		r.codes[d.Code] = d.ID
	}
	return nil
}

// GetByID returns a discipline by ID.
func (r *DisciplineRepository) GetByID(_ context.Context, id string) (*taxonomy.Discipline, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.byID[id]
	if !ok {
		return nil, shared.NewDomainError("taxonomy", "GetByID", shared.ErrNotFound, "discipline not found")
	}
	return copyDiscipline(d), nil
}

// GetByName returns a discipline by exact name (case-insensitive).
func (r *DisciplineRepository) GetByName(_ context.Context, name string) (*taxonomy.Discipline, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.names[lower(name)]
	if !ok {
		return nil, shared.NewDomainError("taxonomy", "GetByName", shared.ErrNotFound, "discipline not found")
	}
	return copyDiscipline(r.byID[id]), nil
}

// ListActive returns active disciplines ordered by name.
func (r *DisciplineRepository) ListActive(_ context.Context) ([]*taxonomy.Discipline, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*taxonomy.Discipline, 0, len(r.byID))
	for _, d := range r.byID {
		if d.Active {
			out = append(out, copyDiscipline(d))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ListAll returns every discipline ordered by ID.
func (r *DisciplineRepository) ListAll(_ context.Context) ([]*taxonomy.Discipline, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*taxonomy.Discipline, 0, len(r.byID))
	for _, d := range r.byID {
		out = append(out, copyDiscipline(d))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Update persists discipline mutations.
func (r *DisciplineRepository) Update(_ context.Context, d *taxonomy.Discipline) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	old, ok := r.byID[d.ID]
	if !ok {
		return shared.NewDomainError("taxonomy", "Update", shared.ErrNotFound, "discipline not found")
	}
	delete(r.names, lower(old.Name))
	if old.Code != "" {
		delete(r.codes, old.Code)
	}

	r.byID[d.ID] = copyDiscipline(d)
	r.names[lower(d.Name)] = d.ID
	if d.Code != "" {
		r.codes[d.Code] = d.ID
	}
	return nil
}

// AssignCodes applies a backfill plan atomically: all codes or none.
func (r *DisciplineRepository) AssignCodes(_ context.Context, codes map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, code := range codes {
		if _, ok := r.byID[id]; !ok {
			return shared.NewDomainError("taxonomy", "AssignCodes", shared.ErrNotFound, "discipline not found: "+id)
		}
		if takenBy, ok := r.codes[code]; ok && takenBy != id {
			return shared.NewDomainError("taxonomy", "AssignCodes", shared.ErrConflict, "code already taken: "+code)
		}
	}
	for id, code := range codes {
		d := r.byID[id]
		if d.Code != "" {
			delete(r.codes, d.Code)
		}
		d.Code = code
		r.codes[code] = id
	}
	return nil
}

// SubjectRepository is a map-backed taxonomy.SubjectRepository. Rows verify
// the referenced discipline through the sibling repository, mimicking the
// foreign key the postgres schema enforces.
type SubjectRepository struct {
	mu          sync.RWMutex
	byID        map[string]*taxonomy.Subject
	names       map[string]string
	codes       map[string]string
	disciplines *DisciplineRepository
}

// NewSubjectRepository creates an empty repository bound to its disciplines.
func NewSubjectRepository(disciplines *DisciplineRepository) *SubjectRepository {
	return &SubjectRepository{
		byID:        make(map[string]*taxonomy.Subject),
		names:       make(map[string]string),
		codes:       make(map[string]string),
		disciplines: disciplines,
	}
}

func copySubject(s *taxonomy.Subject) *taxonomy.Subject {
	cp := *s
	return &cp
}

// Create stores a new subject.
func (r *SubjectRepository) Create(ctx context.Context, s *taxonomy.Subject) error {
	if _, err := r.disciplines.GetByID(ctx, s.DisciplineID); err != nil {
		return shared.NewDomainError("taxonomy", "Create", shared.ErrInvalidReference, "discipline does not exist")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[s.ID]; ok {
		return shared.NewDomainError("taxonomy", "Create", shared.ErrConflict, "subject id already exists")
	}
	if _, ok := r.names[lower(s.Name)]; ok {
		return shared.NewDomainError("taxonomy", "Create", shared.ErrConflict, "subject name already exists")
	}
	if s.Code != "" {
		if _, ok := r.codes[s.Code]; ok {
			return shared.NewDomainError("taxonomy", "Create", shared.ErrConflict, "subject code already exists")
		}
	}

	r.byID[s.ID] = copySubject(s)
	r.names[lower(s.Name)] = s.ID
	if s.Code != "" {
		r.codes[s.Code] = s.ID
	}
	return nil
}

// GetByID returns a subject by ID.
func (r *SubjectRepository) GetByID(_ context.Context, id string) (*taxonomy.Subject, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.byID[id]
	if !ok {
		return nil, shared.NewDomainError("taxonomy", "GetByID", shared.ErrNotFound, "subject not found")
	}
	return copySubject(s), nil
}

// GetByName returns a subject by exact name (case-insensitive).
func (r *SubjectRepository) GetByName(_ context.Context, name string) (*taxonomy.Subject, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.names[lower(name)]
	if !ok {
		return nil, shared.NewDomainError("taxonomy", "GetByName", shared.ErrNotFound, "subject not found")
	}
	return copySubject(r.byID[id]), nil
}

// ListActive returns active subjects ordered by name.
func (r *SubjectRepository) ListActive(_ context.Context) ([]*taxonomy.Subject, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*taxonomy.Subject, 0, len(r.byID))
	for _, s := range r.byID {
		if s.Active {
			out = append(out, copySubject(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ListByDiscipline returns a discipline's subjects ordered by name.
func (r *SubjectRepository) ListByDiscipline(_ context.Context, disciplineID string) ([]*taxonomy.Subject, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*taxonomy.Subject, 0)
	for _, s := range r.byID {
		if s.DisciplineID == disciplineID {
			out = append(out, copySubject(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ListAll returns every subject ordered by ID.
func (r *SubjectRepository) ListAll(_ context.Context) ([]*taxonomy.Subject, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*taxonomy.Subject, 0, len(r.byID))
	for _, s := range r.byID {
		out = append(out, copySubject(s))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Update persists subject mutations.
func (r *SubjectRepository) Update(_ context.Context, s *taxonomy.Subject) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	old, ok := r.byID[s.ID]
	if !ok {
		return shared.NewDomainError("taxonomy", "Update", shared.ErrNotFound, "subject not found")
	}
	delete(r.names, lower(old.Name))
	if old.Code != "" {
		delete(r.codes, old.Code)
	}

	r.byID[s.ID] = copySubject(s)
	r.names[lower(s.Name)] = s.ID
	if s.Code != "" {
		r.codes[s.Code] = s.ID
	}
	return nil
}

// AssignCodes applies a backfill plan atomically.
func (r *SubjectRepository) AssignCodes(_ context.Context, codes map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, code := range codes {
		if _, ok := r.byID[id]; !ok {
			return shared.NewDomainError("taxonomy", "AssignCodes", shared.ErrNotFound, "subject not found: "+id)
		}
		if takenBy, ok := r.codes[code]; ok && takenBy != id {
			return shared.NewDomainError("taxonomy", "AssignCodes", shared.ErrConflict, "code already taken: "+code)
		}
	}
	for id, code := range codes {
		s := r.byID[id]
		if s.Code != "" {
			delete(r.codes, s.Code)
		}
		s.Code = code
		r.codes[code] = id
	}
	return nil
}
