package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rickhiram/Sensor-Dashboard/internal/domain"
)

type MemoryProjectsRepo struct {
	mu       sync.RWMutex
	nextID   int64
	projects map[int64]domain.Project
	members  map[int64]map[int64]bool // projectID -> sensorID set
}

func NewMemoryProjectsRepo() *MemoryProjectsRepo {
	return &MemoryProjectsRepo{
		nextID:   1,
		projects: map[int64]domain.Project{},
		members:  map[int64]map[int64]bool{},
	}
}

func (r *MemoryProjectsRepo) ListProjects(_ context.Context) ([]domain.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Project, 0, len(r.projects))
	for _, p := range r.projects {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *MemoryProjectsRepo) CreateProject(_ context.Context, p domain.Project) (*domain.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p.ID = r.nextID
	r.nextID++
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	r.projects[p.ID] = p
	r.members[p.ID] = map[int64]bool{}
	return &p, nil
}

func (r *MemoryProjectsRepo) AddSensorToProject(_ context.Context, projectID, sensorID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.projects[projectID]; !ok {
		return ErrNotFound
	}
	if r.members[projectID] == nil {
		r.members[projectID] = map[int64]bool{}
	}
	r.members[projectID][sensorID] = true
	return nil
}

func (r *MemoryProjectsRepo) ListProjectSensorIDs(_ context.Context, projectID int64) ([]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []int64{}
	for id := range r.members[projectID] {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}
