package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"gearguard/internal/authz"
	"gearguard/internal/dto"
	"gearguard/internal/entities"
	"gearguard/internal/repositories"
	"gearguard/pkg/constants"
	apperrors "gearguard/pkg/errors"
	"gearguard/pkg/eventbus"
	"gearguard/pkg/types"
)

// memStore - хранилище в памяти, реализующее интерфейсы репозиториев для сценарных тестов.
type memStore struct {
	mu        sync.Mutex
	teams     map[uint64]entities.Team
	users     map[uint64]entities.User
	equipment map[uint64]entities.Equipment
	requests  map[uint64]entities.MaintenanceRequest
	audit     []entities.RequestAuditEntry
	cache     map[string]string
	nextID    uint64
	now       func() time.Time

	failAudit error
}

func newMemStore(now func() time.Time) *memStore {
	return &memStore{
		teams:     make(map[uint64]entities.Team),
		users:     make(map[uint64]entities.User),
		equipment: make(map[uint64]entities.Equipment),
		requests:  make(map[uint64]entities.MaintenanceRequest),
		cache:     make(map[string]string),
		now:       now,
	}
}

func (m *memStore) id() uint64 {
	m.nextID++
	return m.nextID
}

// ---------- seed helpers ----------

func (m *memStore) addTeam(name string) uint64 {
	id := m.id()
	m.teams[id] = entities.Team{ID: id, Name: name}
	return id
}

func (m *memStore) addUser(name string, role constants.Role, teamID *uint64) authz.Actor {
	id := m.id()
	u := entities.User{ID: id, Email: strings.ToLower(name) + "@gearguard.test", Name: name, Role: role, TeamID: teamID}
	m.users[id] = u
	return authz.ActorFromUser(&u)
}

func (m *memStore) addEquipment(name string, teamID uint64) uint64 {
	id := m.id()
	m.equipment[id] = entities.Equipment{ID: id, Name: name, SerialNumber: "SN-" + strconv.FormatUint(id, 10), TeamID: teamID, Department: "Production"}
	return id
}

// ---------- TxManager ----------

type memTx struct{ store *memStore }

// RunInTransaction откатывает изменения хранилища, если fn вернула ошибку.
func (t memTx) RunInTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	snapshot := t.store.snapshot()
	if err := fn(nil); err != nil {
		t.store.restore(snapshot)
		return err
	}
	return nil
}

type memSnapshot struct {
	equipment map[uint64]entities.Equipment
	requests  map[uint64]entities.MaintenanceRequest
	audit     []entities.RequestAuditEntry
}

func (m *memStore) snapshot() memSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := memSnapshot{
		equipment: make(map[uint64]entities.Equipment, len(m.equipment)),
		requests:  make(map[uint64]entities.MaintenanceRequest, len(m.requests)),
		audit:     append([]entities.RequestAuditEntry(nil), m.audit...),
	}
	for k, v := range m.equipment {
		s.equipment[k] = v
	}
	for k, v := range m.requests {
		s.requests[k] = v
	}
	return s
}

func (m *memStore) restore(s memSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.equipment = s.equipment
	m.requests = s.requests
	m.audit = s.audit
}

// ---------- MaintenanceRequestRepositoryInterface ----------

func (m *memStore) enrich(r entities.MaintenanceRequest) entities.MaintenanceRequest {
	if e, ok := m.equipment[r.EquipmentID]; ok {
		r.Equipment = &entities.EquipmentRef{ID: e.ID, Name: e.Name, SerialNumber: e.SerialNumber, IsScrapped: e.IsScrapped}
	}
	if t, ok := m.teams[r.TeamID]; ok {
		r.Team = &entities.TeamRef{ID: t.ID, Name: t.Name}
	}
	if r.TechnicianID != nil {
		if u, ok := m.users[*r.TechnicianID]; ok {
			r.Technician = &entities.UserRef{ID: u.ID, Name: u.Name}
		}
	}
	if u, ok := m.users[r.CreatedByID]; ok {
		r.CreatedBy = &entities.UserRef{ID: u.ID, Name: u.Name}
	}
	return r
}

func matchRequest(r entities.MaintenanceRequest, f dto.RequestFilter) bool {
	overdue := f.Overdue && f.CreatedBefore != nil
	switch {
	case f.Type != nil && r.Type != *f.Type,
		f.Stage != nil && !overdue && r.Stage != *f.Stage,
		f.TeamID != nil && r.TeamID != *f.TeamID,
		f.EquipmentID != nil && r.EquipmentID != *f.EquipmentID,
		f.TechnicianID != nil && (r.TechnicianID == nil || *r.TechnicianID != *f.TechnicianID),
		f.Priority != nil && r.Priority != *f.Priority:
		return false
	}
	if f.ScheduledFrom != nil && (r.ScheduledDate == nil || r.ScheduledDate.Before(*f.ScheduledFrom)) {
		return false
	}
	if f.ScheduledTo != nil && (r.ScheduledDate == nil || r.ScheduledDate.After(*f.ScheduledTo)) {
		return false
	}
	if f.ScheduledOnly && (r.Type != constants.TypePreventive || r.ScheduledDate == nil) {
		return false
	}
	if overdue && (!r.Stage.IsOpen() || !r.CreatedAt.Before(*f.CreatedBefore)) {
		return false
	}
	return true
}

func (m *memStore) GetRequests(ctx context.Context, filter dto.RequestFilter) ([]entities.MaintenanceRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]entities.MaintenanceRequest, 0)
	for _, r := range m.requests {
		if matchRequest(r, filter) {
			result = append(result, m.enrich(r))
		}
	}
	sort.Slice(result, func(i, j int) bool { return requestLess(&result[i], &result[j]) })
	return result, nil
}

func (m *memStore) GetRecentByEquipment(ctx context.Context, equipmentID uint64, limit uint64) ([]entities.MaintenanceRequest, error) {
	list, _ := m.GetRequests(ctx, dto.RequestFilter{EquipmentID: &equipmentID})
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	if uint64(len(list)) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (m *memStore) FindRequest(ctx context.Context, id uint64) (*entities.MaintenanceRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	r = m.enrich(r)
	return &r, nil
}

func (m *memStore) FindRequestForUpdate(ctx context.Context, tx pgx.Tx, id uint64) (*entities.MaintenanceRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &r, nil
}

func (m *memStore) CreateRequestInTx(ctx context.Context, tx pgx.Tx, r *entities.MaintenanceRequest) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = m.id()
	r.CreatedAt = m.now()
	r.UpdatedAt = r.CreatedAt
	m.requests[r.ID] = *r
	return r.ID, nil
}

func (m *memStore) UpdateRequestInTx(ctx context.Context, tx pgx.Tx, r *entities.MaintenanceRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.requests[r.ID]
	if !ok {
		return apperrors.ErrNotFound
	}
	existing.Subject = r.Subject
	existing.Description = r.Description
	existing.Priority = r.Priority
	existing.Stage = r.Stage
	existing.TechnicianID = r.TechnicianID
	existing.ScheduledDate = r.ScheduledDate
	existing.Duration = r.Duration
	existing.Notes = r.Notes
	existing.UpdatedAt = m.now()
	m.requests[r.ID] = existing
	return nil
}

func (m *memStore) DeleteRequestInTx(ctx context.Context, tx pgx.Tx, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.requests[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(m.requests, id)
	return nil
}

func (m *memStore) GetStats(ctx context.Context, teamID *uint64, overdueBefore time.Time) (*dto.RequestStatsDTO, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &dto.RequestStatsDTO{ByStage: map[string]int64{}, ByType: map[string]int64{}, ByTeam: []dto.TeamCountDTO{}}
	byTeam := map[string]int64{}
	for _, r := range m.requests {
		if teamID != nil && r.TeamID != *teamID {
			continue
		}
		stats.ByStage[string(r.Stage)]++
		stats.ByType[string(r.Type)]++
		name := "Unknown"
		if t, ok := m.teams[r.TeamID]; ok {
			name = t.Name
		}
		byTeam[name]++
		if r.Stage.IsOpen() && r.CreatedAt.Before(overdueBefore) {
			stats.Overdue++
		}
	}
	for name, count := range byTeam {
		stats.ByTeam = append(stats.ByTeam, dto.TeamCountDTO{Team: name, Count: count})
	}
	sort.Slice(stats.ByTeam, func(i, j int) bool { return stats.ByTeam[i].Team < stats.ByTeam[j].Team })
	return stats, nil
}

// ---------- RequestAuditRepositoryInterface ----------

func (m *memStore) CreateInTx(ctx context.Context, tx pgx.Tx, entry *entities.RequestAuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAudit != nil {
		return m.failAudit
	}
	entry.ID = m.id()
	m.audit = append(m.audit, *entry)
	return nil
}

func (m *memStore) FindByRequestID(ctx context.Context, requestID uint64) ([]entities.RequestAuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]entities.RequestAuditEntry, 0)
	for _, e := range m.audit {
		if e.RequestID == requestID {
			result = append(result, e)
		}
	}
	return result, nil
}

// ---------- EquipmentRepositoryInterface ----------

func (m *memStore) GetEquipment(ctx context.Context, filter types.Filter) ([]entities.Equipment, uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]entities.Equipment, 0)
	for _, e := range m.equipment {
		if v, ok := filter.Filter["team_id"]; ok && fmt.Sprint(v) != strconv.FormatUint(e.TeamID, 10) {
			continue
		}
		if v, ok := filter.Filter["department"]; ok && fmt.Sprint(v) != e.Department {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(e.Name), strings.ToLower(filter.Search)) {
			continue
		}
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	return result, uint64(len(result)), nil
}

func (m *memStore) GetDepartments(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := map[string]bool{}
	result := []string{}
	for _, e := range m.equipment {
		if !seen[e.Department] {
			seen[e.Department] = true
			result = append(result, e.Department)
		}
	}
	sort.Strings(result)
	return result, nil
}

func (m *memStore) FindEquipment(ctx context.Context, id uint64) (*entities.Equipment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.equipment[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &e, nil
}

func (m *memStore) FindEquipmentInTx(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Equipment, error) {
	return m.FindEquipment(ctx, id)
}

func (m *memStore) CreateEquipment(ctx context.Context, e entities.Equipment) (*entities.Equipment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.equipment {
		if existing.SerialNumber == e.SerialNumber {
			return nil, apperrors.NewConflictError("equipment with this serial number already exists")
		}
	}
	e.ID = m.id()
	m.equipment[e.ID] = e
	return &e, nil
}

func (m *memStore) UpdateEquipment(ctx context.Context, id uint64, payload dto.UpdateEquipmentDTO) (*entities.Equipment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.equipment[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	if payload.Has("name") && payload.Name.Valid {
		e.Name = payload.Name.String
	}
	if payload.Has("assignedEmployee") {
		e.AssignedEmployee = payload.AssignedEmployee.Ptr()
	}
	if payload.Has("teamId") && payload.TeamID.Valid {
		e.TeamID = payload.TeamID.Uint64
	}
	m.equipment[id] = e
	return &e, nil
}

func (m *memStore) MarkScrappedInTx(ctx context.Context, tx pgx.Tx, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.equipment[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	e.IsScrapped = true
	m.equipment[id] = e
	return nil
}

func (m *memStore) DeleteEquipment(ctx context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.equipment[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(m.equipment, id)
	return nil
}

func (m *memStore) HasRequests(ctx context.Context, id uint64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.requests {
		if r.EquipmentID == id {
			return true, nil
		}
	}
	return false, nil
}

// ---------- UserRepositoryInterface ----------

func (m *memStore) GetUsers(ctx context.Context, filter dto.UserFilter) ([]entities.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]entities.User, 0)
	for _, u := range m.users {
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		if filter.TeamID != nil && !u.InTeam(*filter.TeamID) {
			continue
		}
		result = append(result, u)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *memStore) FindUserByID(ctx context.Context, id uint64) (*entities.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &u, nil
}

func (m *memStore) FindUserByEmail(ctx context.Context, email string) (*entities.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *memStore) FindTechnicianInTeam(ctx context.Context, tx pgx.Tx, userID, teamID uint64) (*entities.User, error) {
	u, err := m.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.Role != constants.RoleTechnician || !u.InTeam(teamID) {
		return nil, apperrors.ErrNotFound
	}
	return u, nil
}

func (m *memStore) CreateUser(ctx context.Context, user entities.User) (*entities.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return nil, apperrors.NewConflictError("user with this email already exists")
		}
	}
	user.ID = m.id()
	m.users[user.ID] = user
	return &user, nil
}

func (m *memStore) UpdateProfile(ctx context.Context, id uint64, payload dto.UpdateProfileDTO) (*entities.User, error) {
	m.mu.Lock()
	u, ok := m.users[id]
	if !ok {
		m.mu.Unlock()
		return nil, apperrors.ErrNotFound
	}
	if payload.Has("name") && payload.Name.Valid {
		u.Name = payload.Name.String
	}
	if payload.Has("avatar") {
		u.Avatar = payload.Avatar.Ptr()
	}
	m.users[id] = u
	m.mu.Unlock()
	return &u, nil
}

func (m *memStore) UpdateRole(ctx context.Context, id uint64, role constants.Role, teamID *uint64) (*entities.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	u.Role = role
	u.TeamID = teamID
	m.users[id] = u
	return &u, nil
}

func (m *memStore) SetTeam(ctx context.Context, id uint64, teamID *uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	u.TeamID = teamID
	m.users[id] = u
	return nil
}

func (m *memStore) CountAssignedRequests(ctx context.Context, id uint64) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count uint64
	for _, r := range m.requests {
		if r.IsAssignedTo(id) {
			count++
		}
	}
	return count, nil
}

// ---------- TeamRepositoryInterface ----------

func (m *memStore) GetTeams(ctx context.Context) ([]entities.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]entities.Team, 0, len(m.teams))
	for _, t := range m.teams {
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *memStore) FindTeam(ctx context.Context, id uint64) (*entities.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.teams[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &t, nil
}

func (m *memStore) CreateTeam(ctx context.Context, name string) (*entities.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.teams {
		if t.Name == name {
			return nil, apperrors.NewConflictError("team with this name already exists")
		}
	}
	t := entities.Team{ID: m.id(), Name: name}
	m.teams[t.ID] = t
	return &t, nil
}

func (m *memStore) UpdateTeam(ctx context.Context, id uint64, name string) (*entities.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.teams[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	for _, other := range m.teams {
		if other.ID != id && other.Name == name {
			return nil, apperrors.NewConflictError("another team with this name already exists")
		}
	}
	t.Name = name
	m.teams[id] = t
	return &t, nil
}

func (m *memStore) LockTeamInTx(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Team, error) {
	return m.FindTeam(ctx, id)
}

func (m *memStore) DeleteTeamInTx(ctx context.Context, tx pgx.Tx, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.teams[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(m.teams, id)
	return nil
}

func (m *memStore) CountDependenciesInTx(ctx context.Context, tx pgx.Tx, id uint64) (*repositories.TeamDependencies, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var deps repositories.TeamDependencies
	for _, u := range m.users {
		if u.InTeam(id) {
			deps.Members++
		}
	}
	for _, e := range m.equipment {
		if e.TeamID == id {
			deps.Equipment++
		}
	}
	for _, r := range m.requests {
		if r.TeamID == id {
			deps.Requests++
		}
	}
	return &deps, nil
}

// ---------- CacheRepositoryInterface ----------

func (m *memStore) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		m.cache[key] = string(v)
	default:
		m.cache[key] = fmt.Sprint(v)
	}
	return nil
}

func (m *memStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.cache[key]
	if !ok {
		return "", repositories.ErrCacheMiss
	}
	return v, nil
}

func (m *memStore) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.cache, k)
	}
	return nil
}

func (m *memStore) Incr(ctx context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, _ := strconv.ParseInt(m.cache[key], 10, 64)
	n++
	m.cache[key] = strconv.FormatInt(n, 10)
	return n, nil
}

func (m *memStore) Expire(ctx context.Context, key string, expiration time.Duration) (bool, error) {
	return true, nil
}

func (m *memStore) DelByPattern(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	for k := range m.cache {
		if strings.HasPrefix(k, prefix) {
			delete(m.cache, k)
		}
	}
	return nil
}

// ---------- events ----------

type recordingBus struct {
	mu     sync.Mutex
	events []eventbus.Event
}

func (b *recordingBus) Publish(ctx context.Context, event eventbus.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *recordingBus) names() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	names := make([]string, 0, len(b.events))
	for _, e := range b.events {
		names = append(names, e.Name())
	}
	return names
}

var (
	_ repositories.MaintenanceRequestRepositoryInterface = (*memStore)(nil)
	_ repositories.RequestAuditRepositoryInterface       = (*memStore)(nil)
	_ repositories.EquipmentRepositoryInterface          = (*memStore)(nil)
	_ repositories.UserRepositoryInterface               = (*memStore)(nil)
	_ repositories.TeamRepositoryInterface               = (*memStore)(nil)
	_ repositories.CacheRepositoryInterface              = (*memStore)(nil)
	_ repositories.TxManagerInterface                    = memTx{}
	_ EventPublisher                                     = (*recordingBus)(nil)
)
