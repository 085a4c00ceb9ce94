package core

import (
	"context"
	"sort"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"

	"github.com/edvin/labdeploy/internal/eventbus"
	"github.com/edvin/labdeploy/internal/model"
)

// ---------- Mock DB ----------

// mockDB implements the DB interface for testing.
type mockDB struct {
	mock.Mock
}

func (m *mockDB) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgconn.CommandTag), args.Error(1)
}

func (m *mockDB) Query(ctx context.Context, sql string, arguments ...any) (pgx.Rows, error) {
	args := m.Called(ctx, sql, arguments)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Rows), args.Error(1)
}

func (m *mockDB) QueryRow(ctx context.Context, sql string, arguments ...any) pgx.Row {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgx.Row)
}

// ---------- Mock Row ----------

type mockRow struct {
	scanFunc func(dest ...any) error
}

func (m *mockRow) Scan(dest ...any) error {
	return m.scanFunc(dest...)
}

// ---------- Mock Rows ----------

// mockRows iterates through a list of scan functions, one per row.
type mockRows struct {
	callIndex int
	scanFuncs []func(dest ...any) error
	err       error
}

func newMockRows(scanFuncs ...func(dest ...any) error) *mockRows {
	return &mockRows{scanFuncs: scanFuncs}
}

func newEmptyMockRows() *mockRows {
	return &mockRows{}
}

func (m *mockRows) Next() bool {
	return m.callIndex < len(m.scanFuncs)
}

func (m *mockRows) Scan(dest ...any) error {
	if m.callIndex < len(m.scanFuncs) {
		fn := m.scanFuncs[m.callIndex]
		m.callIndex++
		return fn(dest...)
	}
	return nil
}

func (m *mockRows) Err() error                                   { return m.err }
func (m *mockRows) Close()                                       {}
func (m *mockRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (m *mockRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (m *mockRows) RawValues() [][]byte                          { return nil }
func (m *mockRows) Values() ([]any, error)                       { return nil, nil }
func (m *mockRows) Conn() *pgx.Conn                              { return nil }

// ---------- Fake store ----------

// memStore is an in-memory DeploymentRepository with the same ordering and
// status-guard rules as the Postgres store.
type memStore struct {
	mu          sync.Mutex
	seq         int64
	rows        map[string]*memRow
	insertCalls int
	markCalls   int
	listCalls   int
	insertErr   error
	markErr     error
}

type memRow struct {
	d   model.Deployment
	seq int64
}

func newMemStore() *memStore {
	return &memStore{rows: map[string]*memRow{}}
}

func (s *memStore) Insert(_ context.Context, d *model.Deployment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insertCalls++
	if s.insertErr != nil {
		return s.insertErr
	}
	if _, ok := s.rows[d.ID]; ok {
		return &StorageError{Op: "insert deployment", ID: d.ID, Kind: KindDuplicate, Err: errNoRowsAffected}
	}
	s.seq++
	row := *d
	row.Status = model.StatusQueued
	s.rows[d.ID] = &memRow{d: row, seq: s.seq}
	d.Status = model.StatusQueued
	return nil
}

func (s *memStore) MarkFailedPublish(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markCalls++
	if s.markErr != nil {
		return s.markErr
	}
	row, ok := s.rows[id]
	if !ok || row.d.Status != model.StatusQueued {
		return &StorageError{Op: "mark deployment failed publish", ID: id, Kind: KindNotFound, Err: errNoRowsAffected}
	}
	row.d.Status = model.StatusFailedPublish
	return nil
}

func (s *memStore) GetByID(_ context.Context, id string) (*model.Deployment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok {
		return nil, &StorageError{Op: "get deployment", ID: id, Kind: KindNotFound, Err: pgx.ErrNoRows}
	}
	d := row.d
	return &d, nil
}

func (s *memStore) ListRecent(_ context.Context, limit int) ([]model.Deployment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows := make([]*memRow, 0, len(s.rows))
	for _, r := range s.rows {
		rows = append(rows, r)
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].d.RequestedAt.Equal(rows[j].d.RequestedAt) {
			return rows[i].d.RequestedAt.After(rows[j].d.RequestedAt)
		}
		return rows[i].seq > rows[j].seq
	})
	out := []model.Deployment{}
	for i := 0; i < len(rows) && i < limit; i++ {
		out = append(out, rows[i].d)
	}
	return out, nil
}

func (s *memStore) calls() (insert, mark, list int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertCalls, s.markCalls, s.listCalls
}

// ---------- Recording publisher ----------

type recordingPublisher struct {
	mu     sync.Mutex
	events []eventbus.Event
	calls  int
	err    error
	// block makes Publish wait for ctx to end and return ctx.Err().
	block bool
	// onPublish runs before the result is returned.
	onPublish func()
}

func (p *recordingPublisher) Publish(ctx context.Context, event eventbus.Event) error {
	p.mu.Lock()
	p.calls++
	block, err, hook := p.block, p.err, p.onPublish
	p.mu.Unlock()

	if hook != nil {
		hook()
	}
	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.events = append(p.events, event)
	p.mu.Unlock()
	return nil
}

func (p *recordingPublisher) published() []eventbus.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]eventbus.Event(nil), p.events...)
}

func (p *recordingPublisher) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}
