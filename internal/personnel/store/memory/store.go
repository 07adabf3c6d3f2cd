// Package memory is the in-process personnel store used by dev mode and
// tests. It doubles as the referential checker and supports snapshots so the
// memory transaction runner can roll it back.
package memory

import (
	"context"
	"maps"
	"strings"
	"sync"

	"avd/internal/personnel/models"
	"avd/pkg/domain"
	"avd/pkg/platform/sentinel"
)

type Store struct {
	mu          sync.RWMutex
	employees   map[domain.EmployeeID]models.Employee
	cycles      map[domain.CycleID]models.Cycle
	evaluations map[domain.EvaluationID]models.Evaluation
	nextEmp     domain.EmployeeID
	nextCycle   domain.CycleID
	nextEval    domain.EvaluationID
}

func New() *Store {
	return &Store{
		employees:   make(map[domain.EmployeeID]models.Employee),
		cycles:      make(map[domain.CycleID]models.Cycle),
		evaluations: make(map[domain.EvaluationID]models.Evaluation),
	}
}

type snapshot struct {
	employees   map[domain.EmployeeID]models.Employee
	cycles      map[domain.CycleID]models.Cycle
	evaluations map[domain.EvaluationID]models.Evaluation
	nextEmp     domain.EmployeeID
	nextCycle   domain.CycleID
	nextEval    domain.EvaluationID
}

// Snapshot captures the full state. Values are stored by value, and pointer
// fields are never mutated in place, so shallow map clones are enough.
func (s *Store) Snapshot() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshot{
		employees:   maps.Clone(s.employees),
		cycles:      maps.Clone(s.cycles),
		evaluations: maps.Clone(s.evaluations),
		nextEmp:     s.nextEmp,
		nextCycle:   s.nextCycle,
		nextEval:    s.nextEval,
	}
}

func (s *Store) Restore(v any) {
	snap, ok := v.(snapshot)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.employees = snap.employees
	s.cycles = snap.cycles
	s.evaluations = snap.evaluations
	s.nextEmp = snap.nextEmp
	s.nextCycle = snap.nextCycle
	s.nextEval = snap.nextEval
}

// -----------------------------------------------------------------------------
// Employees
// -----------------------------------------------------------------------------

func (s *Store) CreateEmployee(_ context.Context, e *models.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.duplicateEmployee(e, 0) {
		return sentinel.ErrConflict
	}
	if e.ManagerID != nil {
		if _, ok := s.employees[*e.ManagerID]; !ok {
			return sentinel.ErrConflict
		}
	}
	s.nextEmp++
	e.ID = s.nextEmp
	s.employees[e.ID] = *e
	return nil
}

func (s *Store) GetEmployee(_ context.Context, id domain.EmployeeID) (*models.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.employees[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &e, nil
}

func (s *Store) UpdateEmployee(_ context.Context, e *models.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.employees[e.ID]; !ok {
		return sentinel.ErrNotFound
	}
	if s.duplicateEmployee(e, e.ID) {
		return sentinel.ErrConflict
	}
	s.employees[e.ID] = *e
	return nil
}

// DeleteEmployee refuses while evaluations or direct reports still point at
// the employee.
func (s *Store) DeleteEmployee(_ context.Context, id domain.EmployeeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.employees[id]; !ok {
		return sentinel.ErrNotFound
	}
	for _, ev := range s.evaluations {
		if ev.EmployeeID == id {
			return sentinel.ErrConflict
		}
	}
	for _, e := range s.employees {
		if e.ManagerID != nil && *e.ManagerID == id {
			return sentinel.ErrConflict
		}
	}
	delete(s.employees, id)
	return nil
}

func (s *Store) duplicateEmployee(e *models.Employee, self domain.EmployeeID) bool {
	for id, other := range s.employees {
		if id == self {
			continue
		}
		if strings.EqualFold(other.Email, e.Email) {
			return true
		}
		if e.TaxID != "" && other.TaxID == e.TaxID {
			return true
		}
	}
	return false
}

// -----------------------------------------------------------------------------
// Cycles
// -----------------------------------------------------------------------------

func (s *Store) CreateCycle(_ context.Context, c *models.Cycle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextCycle++
	c.ID = s.nextCycle
	s.cycles[c.ID] = *c
	return nil
}

func (s *Store) GetCycle(_ context.Context, id domain.CycleID) (*models.Cycle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cycles[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &c, nil
}

func (s *Store) UpdateCycle(_ context.Context, c *models.Cycle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cycles[c.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.cycles[c.ID] = *c
	return nil
}

func (s *Store) DeleteCycle(_ context.Context, id domain.CycleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cycles[id]; !ok {
		return sentinel.ErrNotFound
	}
	for _, ev := range s.evaluations {
		if ev.CycleID == id {
			return sentinel.ErrConflict
		}
	}
	delete(s.cycles, id)
	return nil
}

// -----------------------------------------------------------------------------
// Evaluations
// -----------------------------------------------------------------------------

func (s *Store) CreateEvaluation(_ context.Context, ev *models.Evaluation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.employees[ev.EmployeeID]; !ok {
		return sentinel.ErrConflict
	}
	if _, ok := s.cycles[ev.CycleID]; !ok {
		return sentinel.ErrConflict
	}
	for _, other := range s.evaluations {
		if other.EmployeeID == ev.EmployeeID && other.CycleID == ev.CycleID {
			return sentinel.ErrConflict
		}
	}
	s.nextEval++
	ev.ID = s.nextEval
	s.evaluations[ev.ID] = *ev
	return nil
}

func (s *Store) GetEvaluation(_ context.Context, id domain.EvaluationID) (*models.Evaluation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ev, ok := s.evaluations[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &ev, nil
}

func (s *Store) UpdateEvaluation(_ context.Context, ev *models.Evaluation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.evaluations[ev.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.evaluations[ev.ID] = *ev
	return nil
}

// -----------------------------------------------------------------------------
// integrity.Checker
// -----------------------------------------------------------------------------

func (s *Store) EmployeeExists(_ context.Context, id domain.EmployeeID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.employees[id]
	return ok, nil
}

func (s *Store) EvaluationCycleExists(_ context.Context, id domain.CycleID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.cycles[id]
	return ok, nil
}

func (s *Store) EvaluationExistsForEmployeeInCycle(_ context.Context, employeeID domain.EmployeeID, cycleID domain.CycleID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ev := range s.evaluations {
		if ev.EmployeeID == employeeID && ev.CycleID == cycleID {
			return true, nil
		}
	}
	return false, nil
}
