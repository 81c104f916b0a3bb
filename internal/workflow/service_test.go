package workflow

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/geoflow/geoflow/internal/audit"
	"github.com/geoflow/geoflow/internal/auth"
	"github.com/geoflow/geoflow/internal/domain"
	"github.com/geoflow/geoflow/internal/repository"
)

// memStore is an in-memory stand-in for the Postgres repositories. It backs
// one repository.Store so the service under test runs its full authorization,
// validation, and audit path.
type memStore struct {
	users       map[int64]domain.User
	nextUID     int64
	roles       []domain.Role
	dataSources map[int64]domain.DataSource
	nextDS      int64
	instances   map[int64]domain.LoadInstance
	nextLI      int64
	sourceData  map[int64]domain.SourceData
	nextSD      int64
	steps       map[int64][]domain.PlottingMethodStep
	fields      map[int64]domain.PlottingFields
	auditLog    []domain.AuditLogEntry
}

func newMemStore() *memStore {
	m := &memStore{
		users:       map[int64]domain.User{},
		dataSources: map[int64]domain.DataSource{},
		instances:   map[int64]domain.LoadInstance{},
		sourceData:  map[int64]domain.SourceData{},
		steps:       map[int64][]domain.PlottingMethodStep{},
		fields:      map[int64]domain.PlottingFields{},
	}
	for i, name := range []string{
		domain.RoleAdmin, domain.RoleCollection, domain.RoleLoad,
		domain.RoleCheck, domain.RoleCreateLoadInstance, domain.RoleCreateDataSource,
	} {
		m.roles = append(m.roles, domain.Role{RoleID: int64(i + 1), Name: name})
	}
	return m
}

func (m *memStore) addUser(uid int64, roleNames ...string) {
	user := domain.User{UID: uid, Name: "user", Username: "user"}
	for _, name := range roleNames {
		for _, role := range m.roles {
			if role.Name == name {
				user.Roles = append(user.Roles, role)
			}
		}
	}
	m.users[uid] = user
	if uid >= m.nextUID {
		m.nextUID = uid + 1
	}
}

// --- repository stubs ---

type memUsers struct{ m *memStore }

func (r memUsers) Create(_ context.Context, user domain.User, roleIDs []int64) (domain.User, error) {
	r.m.nextUID++
	user.UID = r.m.nextUID
	for _, id := range roleIDs {
		for _, role := range r.m.roles {
			if role.RoleID == id {
				user.Roles = append(user.Roles, role)
			}
		}
	}
	r.m.users[user.UID] = user
	return user, nil
}

func (r memUsers) GetByID(_ context.Context, uid int64) (domain.User, error) {
	user, ok := r.m.users[uid]
	if !ok {
		return domain.User{}, domain.NotFound{Kind: "user", ID: uid}
	}
	return user, nil
}

func (r memUsers) GetByUsername(_ context.Context, username string) (domain.User, error) {
	for _, user := range r.m.users {
		if user.Username == username {
			return user, nil
		}
	}
	return domain.User{}, domain.NotFound{Kind: "user"}
}

func (r memUsers) List(_ context.Context) ([]domain.User, error) {
	users := make([]domain.User, 0, len(r.m.users))
	for _, user := range r.m.users {
		users = append(users, user)
	}
	return users, nil
}

func (r memUsers) UpdateName(_ context.Context, uid int64, name string) error {
	user, ok := r.m.users[uid]
	if !ok {
		return domain.NotFound{Kind: "user", ID: uid}
	}
	user.Name = name
	r.m.users[uid] = user
	return nil
}

func (r memUsers) UpdatePassword(_ context.Context, uid int64, hash string) error {
	user, ok := r.m.users[uid]
	if !ok {
		return domain.NotFound{Kind: "user", ID: uid}
	}
	user.PasswordHash = hash
	r.m.users[uid] = user
	return nil
}

func (r memUsers) AddRole(_ context.Context, uid, roleID int64) error {
	user := r.m.users[uid]
	for _, role := range r.m.roles {
		if role.RoleID == roleID {
			user.Roles = append(user.Roles, role)
		}
	}
	r.m.users[uid] = user
	return nil
}

func (r memUsers) RemoveRole(_ context.Context, uid, roleID int64) error {
	user := r.m.users[uid]
	kept := user.Roles[:0]
	for _, role := range user.Roles {
		if role.RoleID != roleID {
			kept = append(kept, role)
		}
	}
	user.Roles = kept
	r.m.users[uid] = user
	return nil
}

func (r memUsers) GetRoles(_ context.Context, uid int64) ([]domain.Role, error) {
	return r.m.users[uid].Roles, nil
}

type memRoles struct{ m *memStore }

func (r memRoles) List(_ context.Context) ([]domain.Role, error) { return r.m.roles, nil }

func (r memRoles) GetByName(_ context.Context, name string) (domain.Role, error) {
	for _, role := range r.m.roles {
		if role.Name == name {
			return role, nil
		}
	}
	return domain.Role{}, domain.NotFound{Kind: "role"}
}

type memLookups struct{}

func (memLookups) ListRegions(context.Context) ([]domain.Region, error)                { return nil, nil }
func (memLookups) ListWarehouseTypes(context.Context) ([]domain.WarehouseType, error)  { return nil, nil }
func (memLookups) ListPlottingMethods(context.Context) ([]domain.PlottingMethod, error) { return nil, nil }

type memDataSources struct{ m *memStore }

func (r memDataSources) Create(_ context.Context, ds domain.DataSource) (domain.DataSource, error) {
	r.m.nextDS++
	ds.DsID = r.m.nextDS
	ds.Created = time.Now()
	r.m.dataSources[ds.DsID] = ds
	return ds, nil
}

func (r memDataSources) GetByID(_ context.Context, dsID int64) (domain.DataSource, error) {
	ds, ok := r.m.dataSources[dsID]
	if !ok {
		return domain.DataSource{}, domain.NotFound{Kind: "data source", ID: dsID}
	}
	return ds, nil
}

func (r memDataSources) List(_ context.Context) ([]domain.DataSource, error) {
	sources := make([]domain.DataSource, 0, len(r.m.dataSources))
	for _, ds := range r.m.dataSources {
		sources = append(sources, ds)
	}
	return sources, nil
}

func (r memDataSources) Update(_ context.Context, ds domain.DataSource) (domain.DataSource, error) {
	current, ok := r.m.dataSources[ds.DsID]
	if !ok {
		return domain.DataSource{}, domain.NotFound{Kind: "data source", ID: ds.DsID}
	}
	ds.Created = current.Created
	now := time.Now()
	ds.LastUpdated = &now
	r.m.dataSources[ds.DsID] = ds
	return ds, nil
}

type memInstances struct{ m *memStore }

func (r memInstances) Create(_ context.Context, li domain.LoadInstance) (domain.LoadInstance, error) {
	r.m.nextLI++
	li.LiID = r.m.nextLI
	li.Created = time.Now()
	r.m.instances[li.LiID] = li
	return li, nil
}

func (r memInstances) GetByID(_ context.Context, liID int64) (domain.LoadInstance, error) {
	li, ok := r.m.instances[liID]
	if !ok {
		return domain.LoadInstance{}, domain.NotFound{Kind: "load instance", ID: liID}
	}
	return li, nil
}

func (r memInstances) ListByDataSource(_ context.Context, dsID int64) ([]domain.LoadInstance, error) {
	instances := []domain.LoadInstance{}
	for _, li := range r.m.instances {
		if li.DsID == dsID {
			instances = append(instances, li)
		}
	}
	return instances, nil
}

func (r memInstances) GetLatestForDataSource(_ context.Context, dsID int64) (*domain.LoadInstance, error) {
	var latest *domain.LoadInstance
	for id := range r.m.instances {
		li := r.m.instances[id]
		if li.DsID != dsID {
			continue
		}
		if latest == nil || li.LiID > latest.LiID {
			latest = &li
		}
	}
	return latest, nil
}

func (r memInstances) Update(_ context.Context, li domain.LoadInstance) (domain.LoadInstance, error) {
	if _, ok := r.m.instances[li.LiID]; !ok {
		return domain.LoadInstance{}, domain.NotFound{Kind: "load instance", ID: li.LiID}
	}
	now := time.Now()
	li.LastUpdated = &now
	r.m.instances[li.LiID] = li
	return li, nil
}

type memSourceData struct{ m *memStore }

func (r memSourceData) Create(_ context.Context, sd domain.SourceData) (domain.SourceData, error) {
	if sd.LoadSourceID == 0 {
		var max int16
		for _, other := range r.m.sourceData {
			if other.LiID == sd.LiID && other.LoadSourceID > max {
				max = other.LoadSourceID
			}
		}
		sd.LoadSourceID = max + 1
	}
	r.m.nextSD++
	sd.SdID = r.m.nextSD
	r.m.sourceData[sd.SdID] = sd
	return sd, nil
}

func (r memSourceData) GetByID(_ context.Context, sdID int64) (domain.SourceData, error) {
	sd, ok := r.m.sourceData[sdID]
	if !ok {
		return domain.SourceData{}, domain.NotFound{Kind: "source data", ID: sdID}
	}
	return sd, nil
}

func (r memSourceData) ListByLoadInstance(_ context.Context, liID int64) ([]domain.SourceData, error) {
	entries := []domain.SourceData{}
	for _, sd := range r.m.sourceData {
		if sd.LiID == liID {
			entries = append(entries, sd)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].LoadSourceID < entries[j].LoadSourceID })
	return entries, nil
}

func (r memSourceData) Update(_ context.Context, sd domain.SourceData) (domain.SourceData, error) {
	if _, ok := r.m.sourceData[sd.SdID]; !ok {
		return domain.SourceData{}, domain.NotFound{Kind: "source data", ID: sd.SdID}
	}
	r.m.sourceData[sd.SdID] = sd
	return sd, nil
}

func (r memSourceData) Delete(_ context.Context, sdID int64) (domain.SourceData, error) {
	sd, ok := r.m.sourceData[sdID]
	if !ok {
		return domain.SourceData{}, domain.NotFound{Kind: "source data", ID: sdID}
	}
	delete(r.m.sourceData, sdID)
	return sd, nil
}

type memPlotting struct{ m *memStore }

func (r memPlotting) ReplaceSteps(_ context.Context, sdID int64, steps []domain.PlottingMethodStep) error {
	r.m.steps[sdID] = append([]domain.PlottingMethodStep(nil), steps...)
	return nil
}

func (r memPlotting) ListSteps(_ context.Context, sdID int64) ([]domain.PlottingMethodStep, error) {
	steps := append([]domain.PlottingMethodStep(nil), r.m.steps[sdID]...)
	sort.Slice(steps, func(i, j int) bool { return steps[i].Position < steps[j].Position })
	return steps, nil
}

func (r memPlotting) UpsertFields(_ context.Context, fields domain.PlottingFields) (domain.PlottingFields, error) {
	r.m.fields[fields.SdID] = fields
	return fields, nil
}

func (r memPlotting) GetFields(_ context.Context, sdID int64) (*domain.PlottingFields, error) {
	fields, ok := r.m.fields[sdID]
	if !ok {
		return nil, nil
	}
	return &fields, nil
}

type memAuditLogs struct{ m *memStore }

func (r memAuditLogs) Append(_ context.Context, entry domain.AuditLogEntry) error {
	r.m.auditLog = append(r.m.auditLog, entry)
	return nil
}

func (r memAuditLogs) ListByTable(_ context.Context, tableName string, _, _ int) ([]domain.AuditLogEntry, error) {
	entries := []domain.AuditLogEntry{}
	for _, entry := range r.m.auditLog {
		if entry.TableName == tableName {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

type memUnitOfWork struct{ store *repository.Store }

func (u memUnitOfWork) Run(ctx context.Context, fn func(context.Context, *repository.Store) error) error {
	return fn(ctx, u.store)
}

func newTestService(m *memStore) *Service {
	store := &repository.Store{
		Users:         memUsers{m},
		Roles:         memRoles{m},
		Lookups:       memLookups{},
		DataSources:   memDataSources{m},
		LoadInstances: memInstances{m},
		SourceData:    memSourceData{m},
		Plotting:      memPlotting{m},
		AuditLogs:     memAuditLogs{m},
	}
	engine := audit.NewEngine()
	engine.Register("data_sources", audit.TableConfig{
		LogRowLevel:    true,
		LogQueryText:   true,
		IgnoredColumns: []string{"last_updated", "updated_by"},
	})
	engine.Register("load_instances", audit.TableConfig{
		LogRowLevel:    true,
		LogQueryText:   true,
		IgnoredColumns: []string{"last_updated"},
	})
	engine.Register("users", audit.TableConfig{
		LogRowLevel:    true,
		LogQueryText:   false,
		IgnoredColumns: []string{"password"},
	})
	return NewService(store, memUnitOfWork{store}, engine)
}

func session(uid int64) auth.Session {
	return auth.Session{UserID: uid, Application: "geoflow-test", RemoteAddr: "127.0.0.1", RemotePort: 9999, Query: "test"}
}

func validRequest() domain.DataSourceRequest {
	return domain.DataSourceRequest{
		Name:               "ontario wells",
		Description:        "provincial well registry",
		SearchRadius:       25,
		RegionID:           3,
		WarehouseTypeID:    1,
		CollectionWorkflow: 11,
		LoadWorkflow:       12,
		CheckWorkflow:      13,
	}
}

func TestCreateDataSource(t *testing.T) {
	m := newMemStore()
	m.addUser(1, domain.RoleCreateDataSource)
	svc := newTestService(m)

	ds, err := svc.CreateDataSource(context.Background(), session(1), validRequest())
	if err != nil {
		t.Fatalf("CreateDataSource: %v", err)
	}
	if ds.DsID == 0 {
		t.Error("no id assigned")
	}
	if ds.CreatedBy != 1 {
		t.Errorf("created_by = %d, want 1", ds.CreatedBy)
	}
	if ds.AssignedUserID != 1 {
		t.Errorf("assigned user defaulted to %d, want acting user 1", ds.AssignedUserID)
	}

	if len(m.auditLog) != 1 {
		t.Fatalf("audit log has %d entries, want 1", len(m.auditLog))
	}
	entry := m.auditLog[0]
	if entry.TableName != "data_sources" || entry.Action != domain.AuditActionInsert {
		t.Errorf("audit entry = %s/%s, want data_sources/I", entry.TableName, entry.Action)
	}
	if entry.SessionUserID != 1 {
		t.Errorf("audit session user = %d, want 1", entry.SessionUserID)
	}
}

func TestCreateDataSourceDenied(t *testing.T) {
	m := newMemStore()
	m.addUser(2, domain.RoleLoad)
	svc := newTestService(m)

	_, err := svc.CreateDataSource(context.Background(), session(2), validRequest())
	var denied auth.AuthorizationDenied
	if !errors.As(err, &denied) {
		t.Fatalf("expected AuthorizationDenied, got %v", err)
	}
	if len(m.dataSources) != 0 {
		t.Error("denied mutation persisted a data source")
	}
	if len(m.auditLog) != 0 {
		t.Error("denied mutation appended an audit record")
	}
}

func TestUpdateDataSourceAuditSuppression(t *testing.T) {
	m := newMemStore()
	m.addUser(1, domain.RoleCreateDataSource, domain.RoleCollection)
	svc := newTestService(m)

	ds, err := svc.CreateDataSource(context.Background(), session(1), validRequest())
	if err != nil {
		t.Fatalf("CreateDataSource: %v", err)
	}

	// Re-submitting identical values moves only last_updated/updated_by,
	// which the audit config ignores: the update lands but leaves no record.
	req := validRequest()
	req.DsID = ds.DsID
	req.AssignedUserID = ds.AssignedUserID
	if _, err := svc.UpdateDataSource(context.Background(), session(1), req); err != nil {
		t.Fatalf("UpdateDataSource: %v", err)
	}
	if len(m.auditLog) != 1 {
		t.Fatalf("audit log has %d entries, want only the insert", len(m.auditLog))
	}

	// A real change is recorded with the diff restricted to what moved.
	req.SearchRadius = 60
	if _, err := svc.UpdateDataSource(context.Background(), session(1), req); err != nil {
		t.Fatalf("UpdateDataSource: %v", err)
	}
	if len(m.auditLog) != 2 {
		t.Fatalf("audit log has %d entries, want 2", len(m.auditLog))
	}
	changed := m.auditLog[1].ChangedFields
	if len(changed) != 1 {
		t.Fatalf("changed fields = %v, want only search_radius", changed)
	}
}

func setupDataSource(t *testing.T, m *memStore, svc *Service) domain.DataSource {
	t.Helper()
	m.addUser(1, domain.RoleAdmin)
	ds, err := svc.CreateDataSource(context.Background(), session(1), validRequest())
	if err != nil {
		t.Fatalf("CreateDataSource: %v", err)
	}
	return ds
}

func TestInitLoadInstance(t *testing.T) {
	m := newMemStore()
	svc := newTestService(m)
	ds := setupDataSource(t, m, svc)

	versionDate := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	first, err := svc.InitLoadInstance(context.Background(), session(1), InitLoadInstanceRequest{
		DsID:        ds.DsID,
		VersionDate: versionDate,
	})
	if err != nil {
		t.Fatalf("InitLoadInstance: %v", err)
	}
	if first.State != domain.LoadStateReady {
		t.Errorf("state = %s, want Ready", first.State)
	}
	if first.MergeType != domain.MergeTypeNone {
		t.Errorf("first instance merge type = %s, want None", first.MergeType)
	}
	if first.Collect.WorkflowID != ds.CollectionWorkflow ||
		first.Load.WorkflowID != ds.LoadWorkflow ||
		first.Check.WorkflowID != ds.CheckWorkflow {
		t.Error("workflow ids not copied from the data source")
	}

	// A later instance inherits the merge policy of its predecessor.
	prior := m.instances[first.LiID]
	prior.MergeType = domain.MergeTypeExclusive
	m.instances[first.LiID] = prior

	second, err := svc.InitLoadInstance(context.Background(), session(1), InitLoadInstanceRequest{
		DsID:        ds.DsID,
		VersionDate: versionDate.AddDate(0, 1, 0),
	})
	if err != nil {
		t.Fatalf("second InitLoadInstance: %v", err)
	}
	if second.MergeType != domain.MergeTypeExclusive {
		t.Errorf("inherited merge type = %s, want Exclusive", second.MergeType)
	}
}

func TestUpdateLoadInstanceParticipantGate(t *testing.T) {
	m := newMemStore()
	svc := newTestService(m)
	ds := setupDataSource(t, m, svc)
	m.addUser(7)
	m.addUser(8)

	li, err := svc.InitLoadInstance(context.Background(), session(1), InitLoadInstanceRequest{
		DsID:        ds.DsID,
		VersionDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("InitLoadInstance: %v", err)
	}
	collector := int64(7)
	stored := m.instances[li.LiID]
	stored.Collect.UserID = &collector
	m.instances[li.LiID] = stored

	update := m.instances[li.LiID]
	update.StagingCount = 120

	// A recorded phase user may update without holding any role.
	if _, err := svc.UpdateLoadInstance(context.Background(), session(7), update); err != nil {
		t.Fatalf("participant update rejected: %v", err)
	}

	update.StagingCount = 130
	_, err = svc.UpdateLoadInstance(context.Background(), session(8), update)
	var denied auth.AuthorizationDenied
	if !errors.As(err, &denied) {
		t.Fatalf("expected AuthorizationDenied for stranger, got %v", err)
	}
}

func TestUpdateLoadInstanceTimestampOrdering(t *testing.T) {
	m := newMemStore()
	svc := newTestService(m)
	ds := setupDataSource(t, m, svc)

	li, err := svc.InitLoadInstance(context.Background(), session(1), InitLoadInstanceRequest{
		DsID:        ds.DsID,
		VersionDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("InitLoadInstance: %v", err)
	}

	update := m.instances[li.LiID]
	finish := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	update.Load.Finish = &finish

	_, err = svc.UpdateLoadInstance(context.Background(), session(1), update)
	var violation domain.TimestampOrderingViolation
	if !errors.As(err, &violation) {
		t.Fatalf("expected TimestampOrderingViolation, got %v", err)
	}
	if violation.Phase != domain.PhaseLoad {
		t.Errorf("violation names phase %q, want load", violation.Phase)
	}
	if m.instances[li.LiID].Load.Finish != nil {
		t.Error("rejected update persisted")
	}
}

func TestSourceDataSequenceAssignment(t *testing.T) {
	m := newMemStore()
	svc := newTestService(m)
	ds := setupDataSource(t, m, svc)

	li, err := svc.InitLoadInstance(context.Background(), session(1), InitLoadInstanceRequest{
		DsID:        ds.DsID,
		VersionDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("InitLoadInstance: %v", err)
	}

	first, err := svc.CreateSourceData(context.Background(), session(1), domain.SourceData{
		LiID:      li.LiID,
		TableName: "WELLS_A",
		Columns:   []domain.ColumnMetadata{{Name: "id", Type: domain.ColumnTypeBigInt}},
	})
	if err != nil {
		t.Fatalf("CreateSourceData: %v", err)
	}
	second, err := svc.CreateSourceData(context.Background(), session(1), domain.SourceData{
		LiID:      li.LiID,
		TableName: "WELLS_B",
		Columns:   []domain.ColumnMetadata{{Name: "id", Type: domain.ColumnTypeBigInt}},
	})
	if err != nil {
		t.Fatalf("CreateSourceData: %v", err)
	}
	if first.LoadSourceID != 1 || second.LoadSourceID != 2 {
		t.Errorf("sequence = %d,%d want 1,2", first.LoadSourceID, second.LoadSourceID)
	}
}

func TestReplacePlottingSteps(t *testing.T) {
	m := newMemStore()
	svc := newTestService(m)
	ds := setupDataSource(t, m, svc)

	li, err := svc.InitLoadInstance(context.Background(), session(1), InitLoadInstanceRequest{
		DsID:        ds.DsID,
		VersionDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("InitLoadInstance: %v", err)
	}
	sd, err := svc.CreateSourceData(context.Background(), session(1), domain.SourceData{
		LiID:      li.LiID,
		TableName: "WELLS_A",
		Columns:   []domain.ColumnMetadata{{Name: "id", Type: domain.ColumnTypeBigInt}},
	})
	if err != nil {
		t.Fatalf("CreateSourceData: %v", err)
	}
	auditBefore := len(m.auditLog)

	_, err = svc.ReplacePlottingSteps(context.Background(), session(1), sd.SdID, []domain.PlottingMethodStep{
		{Position: 1, MethodID: 2},
		{Position: 3, MethodID: 1},
	})
	var gap domain.SequenceGap
	if !errors.As(err, &gap) {
		t.Fatalf("expected SequenceGap, got %v", err)
	}
	if len(m.steps[sd.SdID]) != 0 {
		t.Error("rejected batch persisted")
	}

	saved, err := svc.ReplacePlottingSteps(context.Background(), session(1), sd.SdID, []domain.PlottingMethodStep{
		{Position: 2, MethodID: 1},
		{Position: 1, MethodID: 2},
	})
	if err != nil {
		t.Fatalf("ReplacePlottingSteps: %v", err)
	}
	if len(saved) != 2 || saved[0].Position != 1 || saved[1].Position != 2 {
		t.Errorf("saved steps = %v, want positions 1,2", saved)
	}

	if len(m.auditLog) != auditBefore+1 {
		t.Fatalf("audit log grew by %d, want 1", len(m.auditLog)-auditBefore)
	}
	entry := m.auditLog[len(m.auditLog)-1]
	if !entry.StatementOnly {
		t.Error("step replace not recorded statement only")
	}
	if entry.TableName != "plotting_method_steps" {
		t.Errorf("audit table = %s, want plotting_method_steps", entry.TableName)
	}
}
