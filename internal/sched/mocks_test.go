package sched

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/wellesley-hci/lexi-api/internal/config"
	"github.com/wellesley-hci/lexi-api/internal/domain"
	"github.com/wellesley-hci/lexi-api/internal/runlock"
	"github.com/wellesley-hci/lexi-api/internal/store"
)

// In-memory store fakes shared by the job tests. They implement the same
// sentinel-error contracts as the postgres implementations.

type memWorkspaces struct {
	items   []*domain.Workspace
	listErr error
}

func (m *memWorkspaces) Create(_ context.Context, ws *domain.Workspace) error {
	m.items = append(m.items, ws)
	return nil
}

func (m *memWorkspaces) GetByID(_ context.Context, id uuid.UUID) (*domain.Workspace, error) {
	for _, ws := range m.items {
		if ws.ID == id {
			return ws, nil
		}
	}
	return nil, store.ErrWorkspaceNotFound
}

func (m *memWorkspaces) List(_ context.Context) ([]*domain.Workspace, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]*domain.Workspace, len(m.items))
	copy(out, m.items)
	return out, nil
}

type memUsers struct {
	items []*domain.User
}

func (m *memUsers) Create(_ context.Context, user *domain.User) error {
	for _, u := range m.items {
		if u.Email == user.Email {
			return store.ErrEmailExists
		}
	}
	m.items = append(m.items, user)
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	for _, u := range m.items {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range m.items {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (m *memUsers) Update(_ context.Context, user *domain.User) error {
	for i, u := range m.items {
		if u.ID == user.ID {
			m.items[i] = user
			return nil
		}
	}
	return store.ErrUserNotFound
}

func (m *memUsers) Eligible(_ context.Context, role string) ([]*domain.User, error) {
	var out []*domain.User
	for _, u := range m.items {
		if u.Role == role && u.Status == domain.UserStatusActive {
			out = append(out, u)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memUsers) CountEligible(ctx context.Context, role string) (int, error) {
	out, err := m.Eligible(ctx, role)
	return len(out), err
}

type memColumns struct {
	m map[string]string
}

func newMemColumns() *memColumns {
	return &memColumns{m: make(map[string]string)}
}

func (m *memColumns) SaveMapping(_ context.Context, workspaceID uuid.UUID, questionText, column string) error {
	m.m[workspaceID.String()+"|"+questionText] = column
	return nil
}

func (m *memColumns) ColumnFor(_ context.Context, workspaceID uuid.UUID, questionText string) (string, error) {
	col, ok := m.m[workspaceID.String()+"|"+questionText]
	if !ok {
		return "", store.ErrColumnNotFound
	}
	return col, nil
}

// memResponses keeps one task slice per workspace. visits seeds historical
// visit counts without materializing completed rows.
type memResponses struct {
	tasks     map[uuid.UUID][]*domain.Task
	visits    map[string]int
	insertErr error
	assignErr error
}

func newMemResponses() *memResponses {
	return &memResponses{
		tasks:  make(map[uuid.UUID][]*domain.Task),
		visits: make(map[string]int),
	}
}

func (m *memResponses) seedVisits(ws *domain.Workspace, area string, n int) {
	m.visits[ws.ID.String()+"|"+area] = n
}

func (m *memResponses) InsertTask(_ context.Context, ws *domain.Workspace, _ string, task *domain.Task) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	cp := *task
	m.tasks[ws.ID] = append(m.tasks[ws.ID], &cp)
	return nil
}

func (m *memResponses) UnassignedTasks(_ context.Context, ws *domain.Workspace, _ string) ([]*domain.Task, error) {
	var out []*domain.Task
	for _, t := range m.tasks[ws.ID] {
		if t.Unassigned() {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memResponses) CountUnassigned(_ context.Context, ws *domain.Workspace) (int, error) {
	n := 0
	for _, t := range m.tasks[ws.ID] {
		if t.Unassigned() {
			n++
		}
	}
	return n, nil
}

func (m *memResponses) CountUnassignedInArea(_ context.Context, ws *domain.Workspace, _ string, area string) (int, error) {
	n := 0
	for _, t := range m.tasks[ws.ID] {
		if t.Unassigned() && t.Area == area {
			n++
		}
	}
	return n, nil
}

func (m *memResponses) CountVisits(_ context.Context, ws *domain.Workspace, _ string, area string) (int, error) {
	n := m.visits[ws.ID.String()+"|"+area]
	for _, t := range m.tasks[ws.ID] {
		if t.Area == area && t.UserID != nil {
			n++
		}
	}
	return n, nil
}

func (m *memResponses) CountCreatedOn(_ context.Context, ws *domain.Workspace, day time.Time) (int, error) {
	n := 0
	for _, t := range m.tasks[ws.ID] {
		if sameDay(t.CreatedAt, day) {
			n++
		}
	}
	return n, nil
}

func (m *memResponses) CountAssignedToUserOn(_ context.Context, ws *domain.Workspace, userID uuid.UUID, day time.Time) (int, error) {
	n := 0
	for _, t := range m.tasks[ws.ID] {
		if t.UserID != nil && *t.UserID == userID && t.AssignedAt != nil && sameDay(*t.AssignedAt, day) {
			n++
		}
	}
	return n, nil
}

func (m *memResponses) Assign(_ context.Context, ws *domain.Workspace, taskID, userID uuid.UUID, at time.Time) error {
	if m.assignErr != nil {
		return m.assignErr
	}
	for _, t := range m.tasks[ws.ID] {
		if t.ID == taskID {
			if !t.Unassigned() {
				return store.ErrUpdateFailed
			}
			uid, ts := userID, at
			t.UserID = &uid
			t.AssignedAt = &ts
			t.Status = domain.TaskStatusAssigned
			return nil
		}
	}
	return store.ErrTaskNotFound
}

func (m *memResponses) MarkResponded(_ context.Context, ws *domain.Workspace, taskID uuid.UUID, status domain.TaskStatus, at time.Time) error {
	for _, t := range m.tasks[ws.ID] {
		if t.ID == taskID {
			ts := at
			t.RespondedAt = &ts
			t.Status = status
			return nil
		}
	}
	return store.ErrTaskNotFound
}

func (m *memResponses) MarkCompleted(_ context.Context, ws *domain.Workspace, taskID uuid.UUID, answers map[string]string, lat, lng *float64, at time.Time) error {
	for _, t := range m.tasks[ws.ID] {
		if t.ID == taskID {
			ts := at
			t.CompletedAt = &ts
			t.Status = domain.TaskStatusCompleted
			t.Latitude = lat
			t.Longitude = lng
			t.Answers = answers
			return nil
		}
	}
	return store.ErrTaskNotFound
}

func (m *memResponses) TasksForUser(_ context.Context, ws *domain.Workspace, _ string, userID uuid.UUID) ([]*domain.Task, error) {
	var out []*domain.Task
	for _, t := range m.tasks[ws.ID] {
		if t.UserID != nil && *t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memResponses) ExpireUnaccepted(_ context.Context, ws *domain.Workspace, cutoff time.Time) (int64, error) {
	var n int64
	for _, t := range m.tasks[ws.ID] {
		if (t.Status == domain.TaskStatusCreated || t.Status == domain.TaskStatusAssigned) &&
			t.AssignedAt != nil && t.RespondedAt == nil && t.AssignedAt.Before(cutoff) {
			t.Status = domain.TaskStatusIncomplete
			n++
		}
	}
	return n, nil
}

func (m *memResponses) ExpireUnfinished(_ context.Context, ws *domain.Workspace, cutoff time.Time) (int64, error) {
	var n int64
	for _, t := range m.tasks[ws.ID] {
		if t.Status == domain.TaskStatusAccepted &&
			t.RespondedAt != nil && t.CompletedAt == nil && t.RespondedAt.Before(cutoff) {
			t.Status = domain.TaskStatusIncomplete
			n++
		}
	}
	return n, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// memRegistry is a programmable run registry.
type memRegistry struct {
	allow bool
	err   error
	keys  []string
}

func allowAllLocks() *memRegistry { return &memRegistry{allow: true} }

func (m *memRegistry) TryAcquire(_ context.Context, key, _ string, _ runlock.Freshness) (bool, error) {
	m.keys = append(m.keys, key)
	if m.err != nil {
		return false, m.err
	}
	return m.allow, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSchedulerConfig() config.SchedulerConfig {
	return config.SchedulerConfig{
		AreaQuestion:         "General Area",
		EligibleRole:         "participant",
		AssignmentHours:      []int{9, 12, 15, 18},
		DailyTaskCap:         3,
		AreasPerDay:          2,
		TasksPerArea:         2,
		ExpiryWindowHours:    24,
		CreationHour:         18,
		CreationMinute:       15,
		SweepIntervalMinutes: 10,
		Policy:               PolicyFairness,
		LockDir:              ".",
	}
}

// testWorkspace builds a workspace with an area question over the given
// options and registers its column mapping.
func testWorkspace(t *testing.T, columns *memColumns, areas ...string) *domain.Workspace {
	t.Helper()

	ws, err := domain.NewWorkspace("Campus Study", []domain.Question{
		{Text: "General Area", Type: domain.QuestionTypeSelect, Options: areas},
		{Text: "Noise level", Type: domain.QuestionTypeText},
	})
	require.NoError(t, err)

	require.NoError(t, columns.SaveMapping(context.Background(), ws.ID, "General Area", "General_Area"))
	return ws
}

func testUser(t *testing.T, email string, createdAt time.Time) *domain.User {
	t.Helper()

	u, err := domain.NewUser(email, "Test User", "participant")
	require.NoError(t, err)
	u.CreatedAt = createdAt
	return u
}
