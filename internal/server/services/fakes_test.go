package services

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/tsiory-dev/garagesync/internal/common"
	"github.com/tsiory-dev/garagesync/internal/dbx"
	"github.com/tsiory-dev/garagesync/internal/server/firestore"
	"github.com/tsiory-dev/garagesync/internal/server/models"
	carsrepo "github.com/tsiory-dev/garagesync/internal/server/repositories/cars"
	interventionsrepo "github.com/tsiory-dev/garagesync/internal/server/repositories/interventions"
	paymentsrepo "github.com/tsiory-dev/garagesync/internal/server/repositories/payments"
	repairsrepo "github.com/tsiory-dev/garagesync/internal/server/repositories/repairs"
	usersrepo "github.com/tsiory-dev/garagesync/internal/server/repositories/users"

	"github.com/tsiory-dev/garagesync/internal/logging"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// newTxDB returns a sqlmock DB primed for txCount begin/commit pairs. The
// repositories behind it are fakes, so no statement expectations are needed.
func newTxDB(t *testing.T, txCount int) *sql.DB {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	for i := 0; i < txCount; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
	}
	return db
}

// newRollbackDB returns a sqlmock DB primed for one transaction that rolls
// back.
func newRollbackDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	mock.ExpectBegin()
	mock.ExpectRollback()
	return db, mock
}

// --- in-memory repositories ---

type fakeUsers struct {
	mu      sync.Mutex
	byEmail map[string]*models.User
}

func newFakeUsers() *fakeUsers { return &fakeUsers{byEmail: map[string]*models.User{}} }

func (f *fakeUsers) Create(ctx context.Context, u *models.User) (*models.User, error) {
	return f.UpsertByEmail(ctx, u)
}

func (f *fakeUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byEmail {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.byEmail[email]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, common.ErrNotFound
}

func (f *fakeUsers) UpsertByEmail(ctx context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.byEmail[u.Email]; ok {
		existing.Name = u.Name
		if u.FirebaseUID != "" {
			existing.FirebaseUID = u.FirebaseUID
		}
		u.ID = existing.ID
		u.FirebaseUID = existing.FirebaseUID
		return u, nil
	}
	u.ID = uuid.NewString()
	cp := *u
	f.byEmail[u.Email] = &cp
	return u, nil
}

func (f *fakeUsers) Count(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byEmail), nil
}

type fakeCars struct {
	mu     sync.Mutex
	byKey  map[string]*models.Car
	byID   map[string]*models.Car
}

func newFakeCars() *fakeCars {
	return &fakeCars{byKey: map[string]*models.Car{}, byID: map[string]*models.Car{}}
}

func (f *fakeCars) key(c *models.Car) string { return c.UserID + "|" + c.LicensePlate }

func (f *fakeCars) Create(ctx context.Context, c *models.Car) (*models.Car, error) {
	return f.UpsertByPlate(ctx, c)
}

func (f *fakeCars) GetByID(ctx context.Context, id string) (*models.Car, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.byID[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, common.ErrNotFound
}

func (f *fakeCars) GetAll(ctx context.Context) ([]models.Car, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Car
	for _, c := range f.byID {
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeCars) UpsertByPlate(ctx context.Context, c *models.Car) (*models.Car, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.byKey[f.key(c)]; ok {
		existing.Model = c.Model
		existing.Description = c.Description
		c.ID = existing.ID
		return c, nil
	}
	c.ID = uuid.NewString()
	cp := *c
	f.byKey[f.key(c)] = &cp
	f.byID[c.ID] = &cp
	return c, nil
}

type fakeInterventions struct {
	list []models.Intervention
}

func (f *fakeInterventions) GetAll(ctx context.Context) ([]models.Intervention, error) {
	return f.list, nil
}

func (f *fakeInterventions) GetByID(ctx context.Context, id string) (*models.Intervention, error) {
	for _, iv := range f.list {
		if iv.ID == id {
			cp := iv
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeInterventions) GetByName(ctx context.Context, name string) (*models.Intervention, error) {
	for _, iv := range f.list {
		if iv.Name == name {
			cp := iv
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeInterventions) Create(ctx context.Context, iv *models.Intervention) (*models.Intervention, error) {
	iv.ID = uuid.NewString()
	f.list = append(f.list, *iv)
	return iv, nil
}

func (f *fakeInterventions) Update(ctx context.Context, iv *models.Intervention) error {
	for i := range f.list {
		if f.list[i].ID == iv.ID {
			f.list[i] = *iv
			return nil
		}
	}
	return common.ErrNotFound
}

func (f *fakeInterventions) Delete(ctx context.Context, id string) error {
	for i := range f.list {
		if f.list[i].ID == id {
			f.list = append(f.list[:i], f.list[i+1:]...)
			return nil
		}
	}
	return common.ErrNotFound
}

func (f *fakeInterventions) Usage(ctx context.Context) ([]interventionsrepo.NameCount, error) {
	return nil, nil
}

type fakeRepairs struct {
	mu             sync.Mutex
	byID           map[string]*models.Repair
	byFBID         map[string]*models.Repair
	items          map[string]map[string]*models.RepairItem // repairID -> interventionID -> item
	admissionLocks int
}

func newFakeRepairs() *fakeRepairs {
	return &fakeRepairs{
		byID:   map[string]*models.Repair{},
		byFBID: map[string]*models.Repair{},
		items:  map[string]map[string]*models.RepairItem{},
	}
}

func (f *fakeRepairs) Create(ctx context.Context, r *models.Repair) (*models.Repair, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r.ID = uuid.NewString()
	cp := *r
	f.byID[r.ID] = &cp
	if r.FirebaseID != "" {
		f.byFBID[r.FirebaseID] = &cp
	}
	return r, nil
}

func (f *fakeRepairs) GetByID(ctx context.Context, id string) (*models.Repair, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.byID[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, common.ErrNotFound
}

func (f *fakeRepairs) GetByFirebaseID(ctx context.Context, fbID string) (*models.Repair, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.byFBID[fbID]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, common.ErrNotFound
}

func (f *fakeRepairs) GetAll(ctx context.Context) ([]models.Repair, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Repair
	for _, r := range f.byID {
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeRepairs) GetAllRemote(ctx context.Context) ([]models.Repair, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Repair
	for _, r := range f.byID {
		if r.FirebaseID != "" {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeRepairs) UpsertByFirebaseID(ctx context.Context, r *models.Repair) (*repairsrepo.UpsertResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.byFBID[r.FirebaseID]; ok {
		existing.CarID = r.CarID
		existing.Status = r.Status
		cp := *existing
		return &repairsrepo.UpsertResult{Repair: &cp, Created: false}, nil
	}
	r.ID = uuid.NewString()
	cp := *r
	f.byID[r.ID] = &cp
	f.byFBID[r.FirebaseID] = &cp
	out := *r
	return &repairsrepo.UpsertResult{Repair: &out, Created: true}, nil
}

func (f *fakeRepairs) Update(ctx context.Context, r *models.Repair) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.byID[r.ID]
	if !ok {
		return common.ErrNotFound
	}
	*existing = *r
	return nil
}

func (f *fakeRepairs) SetTotalAmount(ctx context.Context, id string, amount float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.byID[id]; ok {
		r.TotalAmount = amount
	}
	return nil
}

func (f *fakeRepairs) SetNotified(ctx context.Context, id string, notified bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.byID[id]; ok {
		r.Notified = notified
	}
	return nil
}

func (f *fakeRepairs) SetStatus(ctx context.Context, id string, status models.RepairStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.byID[id]; ok {
		r.Status = status
	}
	return nil
}

func (f *fakeRepairs) LockAdmission(ctx context.Context) error {
	f.mu.Lock()
	f.admissionLocks++
	f.mu.Unlock()
	return nil
}

func (f *fakeRepairs) GetInProgressForUpdate(ctx context.Context) ([]models.Repair, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Repair
	for _, r := range f.byID {
		if r.Status == models.StatusInProgress {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeRepairs) CountByStatus(ctx context.Context, status models.RepairStatus) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.byID {
		if r.Status == status {
			n++
		}
	}
	return n, nil
}

func (f *fakeRepairs) Count(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byID), nil
}

func (f *fakeRepairs) SumTotalByStatus(ctx context.Context, status models.RepairStatus) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sum := 0.0
	for _, r := range f.byID {
		if r.Status == status {
			sum += r.TotalAmount
		}
	}
	return sum, nil
}

func (f *fakeRepairs) UpsertItem(ctx context.Context, item *models.RepairItem) (*models.RepairItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	byIv, ok := f.items[item.RepairID]
	if !ok {
		byIv = map[string]*models.RepairItem{}
		f.items[item.RepairID] = byIv
	}
	if existing, ok := byIv[item.InterventionID]; ok {
		existing.Price = item.Price
		existing.RemainingTime = item.RemainingTime
		item.ID = existing.ID
		return item, nil
	}
	item.ID = uuid.NewString()
	cp := *item
	byIv[item.InterventionID] = &cp
	return item, nil
}

func (f *fakeRepairs) GetItems(ctx context.Context, repairID string) ([]models.RepairItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.RepairItem
	for _, item := range f.items[repairID] {
		out = append(out, *item)
	}
	return out, nil
}

func (f *fakeRepairs) SumItems(ctx context.Context, repairID string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sum := 0.0
	for _, item := range f.items[repairID] {
		sum += item.Price
	}
	return sum, nil
}

type fakePayments struct {
	mu      sync.Mutex
	list    []models.Payment
	details []models.PaymentDetail
}

func (f *fakePayments) Create(ctx context.Context, p *models.Payment) (*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p.ID = uuid.NewString()
	f.list = append(f.list, *p)
	return p, nil
}

func (f *fakePayments) CreateDetail(ctx context.Context, d *models.PaymentDetail) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d.ID = uuid.NewString()
	f.details = append(f.details, *d)
	return nil
}

func (f *fakePayments) GetAll(ctx context.Context) ([]models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Payment(nil), f.list...), nil
}

func (f *fakePayments) ExistsByFirebaseID(ctx context.Context, fbID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.list {
		if p.FirebaseID == fbID {
			return true, nil
		}
	}
	return false, nil
}

// --- manager ---

type fakeRepoManager struct {
	users         *fakeUsers
	cars          *fakeCars
	interventions *fakeInterventions
	repairs       *fakeRepairs
	payments      *fakePayments
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		users:         newFakeUsers(),
		cars:          newFakeCars(),
		interventions: &fakeInterventions{},
		repairs:       newFakeRepairs(),
		payments:      &fakePayments{},
	}
}

func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository { return m.users }
func (m *fakeRepoManager) Cars(db dbx.DBTX) carsrepo.Repository   { return m.cars }
func (m *fakeRepoManager) Interventions(db dbx.DBTX) interventionsrepo.Repository {
	return m.interventions
}
func (m *fakeRepoManager) Repairs(db dbx.DBTX) repairsrepo.Repository    { return m.repairs }
func (m *fakeRepoManager) Payments(db dbx.DBTX) paymentsrepo.Repository  { return m.payments }
func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }

// --- remote store ---

type patchCall struct {
	Collection string
	ID         string
	Mask       []string
	Fields     map[string]firestore.Value
}

type createCall struct {
	Collection string
	Fields     map[string]firestore.Value
}

type fakeRemote struct {
	mu        sync.Mutex
	repairs   []firestore.Document
	payments  []firestore.Document
	patches   []patchCall
	creates   []createCall
	getErr    error
	patchErr  error
	createErr error
	// getStarted/getRelease let tests hold a GetCollection call open
	getStarted chan struct{}
	getRelease chan struct{}
}

func (f *fakeRemote) GetCollection(ctx context.Context, collection string) ([]firestore.Document, error) {
	if f.getStarted != nil {
		f.getStarted <- struct{}{}
		<-f.getRelease
	}
	if f.getErr != nil {
		return nil, f.getErr
	}
	switch collection {
	case "repairs":
		return f.repairs, nil
	case "payments":
		return f.payments, nil
	}
	return nil, nil
}

func (f *fakeRemote) PatchDocument(ctx context.Context, collection, id string, mask []string, fields map[string]firestore.Value) error {
	if f.patchErr != nil {
		return f.patchErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.patches = append(f.patches, patchCall{Collection: collection, ID: id, Mask: mask, Fields: fields})
	return nil
}

func (f *fakeRemote) CreateDocument(ctx context.Context, collection string, fields map[string]firestore.Value) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates = append(f.creates, createCall{Collection: collection, Fields: fields})
	return uuid.NewString(), nil
}
