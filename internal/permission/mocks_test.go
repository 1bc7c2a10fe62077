package permission_test

import (
	"context"
	"sort"
	"sync"

	permissionDatamodel "github.com/frahmantamala/portal-admin/internal/core/datamodel/permission"
	"github.com/frahmantamala/portal-admin/internal/core/events"
	"github.com/frahmantamala/portal-admin/internal/module"
)

type mockPermissionRepository struct {
	mu    sync.Mutex
	rows  map[int64]map[string]*permissionDatamodel.ModulePermission
	err   error
	calls map[string]int
}

func newMockPermissionRepository() *mockPermissionRepository {
	return &mockPermissionRepository{
		rows:  make(map[int64]map[string]*permissionDatamodel.ModulePermission),
		calls: make(map[string]int),
	}
}

func (m *mockPermissionRepository) seed(rows ...*permissionDatamodel.ModulePermission) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range rows {
		if m.rows[r.UserID] == nil {
			m.rows[r.UserID] = make(map[string]*permissionDatamodel.ModulePermission)
		}
		m.rows[r.UserID][r.ModuleKey] = r
	}
}

func (m *mockPermissionRepository) GetByUserID(ctx context.Context, userID int64) ([]*permissionDatamodel.ModulePermission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["GetByUserID"]++
	if m.err != nil {
		return nil, m.err
	}
	out := make([]*permissionDatamodel.ModulePermission, 0, len(m.rows[userID]))
	for _, r := range m.rows[userID] {
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ModuleKey < out[j].ModuleKey })
	return out, nil
}

func (m *mockPermissionRepository) GetByUserAndModule(ctx context.Context, userID int64, moduleKey string) (*permissionDatamodel.ModulePermission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["GetByUserAndModule"]++
	if m.err != nil {
		return nil, m.err
	}
	r, ok := m.rows[userID][moduleKey]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (m *mockPermissionRepository) Upsert(ctx context.Context, row *permissionDatamodel.ModulePermission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["Upsert"]++
	if m.err != nil {
		return m.err
	}
	if m.rows[row.UserID] == nil {
		m.rows[row.UserID] = make(map[string]*permissionDatamodel.ModulePermission)
	}
	cp := *row
	m.rows[row.UserID][row.ModuleKey] = &cp
	return nil
}

func (m *mockPermissionRepository) Delete(ctx context.Context, userID int64, moduleKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["Delete"]++
	if m.err != nil {
		return m.err
	}
	delete(m.rows[userID], moduleKey)
	return nil
}

func (m *mockPermissionRepository) ReplaceAll(ctx context.Context, userID int64, rows []*permissionDatamodel.ModulePermission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["ReplaceAll"]++
	if m.err != nil {
		return m.err
	}
	next := make(map[string]*permissionDatamodel.ModulePermission, len(rows))
	for _, r := range rows {
		cp := *r
		next[r.ModuleKey] = &cp
	}
	m.rows[userID] = next
	return nil
}

type mockUserDirectory struct {
	users map[int64]bool
	err   error
}

func (m *mockUserDirectory) Exists(ctx context.Context, userID int64) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.users[userID], nil
}

type staticCategories struct {
	refs []module.CategoryRef
	err  error
}

func (s *staticCategories) ModuleCategories(ctx context.Context) ([]module.CategoryRef, error) {
	return s.refs, s.err
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) published() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Event, len(p.events))
	copy(out, p.events)
	return out
}
