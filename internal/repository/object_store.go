package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/locvowork/feeltime/internal/aggregate"
	"github.com/locvowork/feeltime/internal/database"
	"github.com/locvowork/feeltime/internal/domain"
	"github.com/locvowork/feeltime/internal/idgen"
	"github.com/locvowork/feeltime/pkg/dataflow"
)

// DefaultObjectPrefix is the key prefix used when none is configured.
const DefaultObjectPrefix = "feeltime"

const (
	departmentsObject = "departments.json"
	employeesObject   = "employees.json"
	eventsDir         = "events/"
	jsonContentType   = "application/json"
)

// ObjectStore implements domain.EmotionStore on a flat object bucket.
//
// Layout under the prefix: departments.json and employees.json hold JSON arrays, and every
// emotion log is its own object under events/<id>.json. There are no indexes; every read is
// a full scan of events/, downloaded in parallel. Metadata writes are read-modify-write
// guarded by a process-local mutex only.
type ObjectStore struct {
	bucket  database.Bucket
	prefix  string
	workers int
	newID   idgen.Generator
	now     func() time.Time
	metaMu  sync.Mutex
}

// ObjectStoreOption configures an ObjectStore.
type ObjectStoreOption func(*ObjectStore)

// WithPrefix sets the key prefix. Trailing slashes are trimmed; empty means DefaultObjectPrefix.
func WithPrefix(prefix string) ObjectStoreOption {
	return func(s *ObjectStore) {
		if p := strings.TrimRight(prefix, "/"); p != "" {
			s.prefix = p
		}
	}
}

// WithScanWorkers caps the parallel downloads of a scan. 0 means one worker per object.
func WithScanWorkers(n int) ObjectStoreOption {
	return func(s *ObjectStore) {
		if n >= 0 {
			s.workers = n
		}
	}
}

// WithClock overrides the insertion clock.
func WithClock(now func() time.Time) ObjectStoreOption {
	return func(s *ObjectStore) {
		s.now = now
	}
}

// eventObject is the stored JSON form of an emotion log.
type eventObject struct {
	ID         string  `json:"id"`
	EmployeeID string  `json:"employee_id"`
	EventType  string  `json:"event_type"`
	Emotion    int     `json:"emotion"`
	Note       *string `json:"note"`
	CreatedAt  string  `json:"created_at"`
}

// NewObjectStore creates the object-storage backend and makes sure the metadata arrays exist.
func NewObjectStore(ctx context.Context, bucket database.Bucket, opts ...ObjectStoreOption) (*ObjectStore, error) {
	s := &ObjectStore{
		bucket: bucket,
		prefix: DefaultObjectPrefix,
		newID:  idgen.New,
		now:    time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	if err := s.ensureMeta(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *ObjectStore) key(name string) string {
	return s.prefix + "/" + name
}

func (s *ObjectStore) eventKey(id string) string {
	return s.key(eventsDir + id + ".json")
}

func (s *ObjectStore) ensureMeta(ctx context.Context) error {
	for _, name := range []string{departmentsObject, employeesObject} {
		_, err := s.bucket.Read(ctx, s.key(name))
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("ensure %s: %w", name, err)
		}
		if err := s.bucket.Write(ctx, s.key(name), []byte("[]"), jsonContentType); err != nil {
			return fmt.Errorf("ensure %s: %w", name, err)
		}
	}
	return nil
}

// ResetAll deletes every object under the prefix in parallel, ignoring per-object failures,
// then recreates the metadata arrays.
func (s *ObjectStore) ResetAll(ctx context.Context) error {
	keys, err := s.bucket.List(ctx, s.prefix+"/")
	if err != nil {
		return fmt.Errorf("reset: %w", err)
	}

	if len(keys) > 0 {
		_ = dataflow.ForEach(ctx, dataflow.From(ctx, keys), func(k string) error {
			return s.bucket.Delete(ctx, k)
		}, dataflow.WithWorkers(s.fanOut(len(keys))), dataflow.WithErrorHandler(func(error) bool { return true }))
	}

	return s.ensureMeta(ctx)
}

func (s *ObjectStore) InsertDepartment(ctx context.Context, name string) (string, error) {
	s.metaMu.Lock()
	defer s.metaMu.Unlock()

	var departments []domain.Department
	if err := s.readJSON(ctx, departmentsObject, &departments); err != nil {
		return "", fmt.Errorf("insert department: %w", err)
	}
	for _, d := range departments {
		if d.Name == name {
			return "", fmt.Errorf("insert department %q: %w: name already exists", name, domain.ErrConstraintViolation)
		}
	}

	id := s.newID()
	departments = append(departments, domain.Department{ID: id, Name: name})
	if err := s.writeJSON(ctx, departmentsObject, departments); err != nil {
		return "", fmt.Errorf("insert department: %w", err)
	}
	return id, nil
}

func (s *ObjectStore) InsertEmployee(ctx context.Context, name, departmentID string) (string, error) {
	s.metaMu.Lock()
	defer s.metaMu.Unlock()

	var departments []domain.Department
	if err := s.readJSON(ctx, departmentsObject, &departments); err != nil {
		return "", fmt.Errorf("insert employee: %w", err)
	}
	found := false
	for _, d := range departments {
		if d.ID == departmentID {
			found = true
			break
		}
	}
	if !found {
		return "", fmt.Errorf("insert employee: %w: unknown department %q", domain.ErrConstraintViolation, departmentID)
	}

	var employees []domain.Employee
	if err := s.readJSON(ctx, employeesObject, &employees); err != nil {
		return "", fmt.Errorf("insert employee: %w", err)
	}

	id := s.newID()
	employees = append(employees, domain.Employee{ID: id, Name: name, DepartmentID: departmentID})
	if err := s.writeJSON(ctx, employeesObject, employees); err != nil {
		return "", fmt.Errorf("insert employee: %w", err)
	}
	return id, nil
}

func (s *ObjectStore) InsertEmotionLog(ctx context.Context, in domain.NewEmotionLog) (string, error) {
	if !in.Type.Valid() {
		return "", fmt.Errorf("insert emotion log: %w: event_type %q", domain.ErrConstraintViolation, in.Type)
	}
	if in.Emotion < 1 || in.Emotion > 5 {
		return "", fmt.Errorf("insert emotion log: %w: emotion %d", domain.ErrConstraintViolation, in.Emotion)
	}

	createdAt := in.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}

	id := s.newID()
	data, err := json.Marshal(eventObject{
		ID:         id,
		EmployeeID: in.EmployeeID,
		EventType:  string(in.Type),
		Emotion:    in.Emotion,
		Note:       in.Note,
		CreatedAt:  aggregate.FormatTimestamp(createdAt),
	})
	if err != nil {
		return "", fmt.Errorf("insert emotion log: %w", err)
	}
	if err := s.bucket.Write(ctx, s.eventKey(id), data, jsonContentType); err != nil {
		return "", fmt.Errorf("insert emotion log: %w", err)
	}
	return id, nil
}

func (s *ObjectStore) Health(ctx context.Context) error {
	return s.bucket.Ping(ctx)
}

func (s *ObjectStore) GetSummary(ctx context.Context, employeeID string, r domain.TimeRange) (domain.Summary, error) {
	logs, err := s.scan(ctx, byEmployee(employeeID, r))
	if err != nil {
		return domain.Summary{}, fmt.Errorf("get summary: %w", err)
	}
	var sb aggregate.SummaryBuilder
	for _, l := range logs {
		sb.Add(l)
	}
	return sb.Result(), nil
}

func (s *ObjectStore) GetRecent(ctx context.Context, employeeID string, limit int) ([]domain.EmotionLog, error) {
	if limit <= 0 {
		limit = domain.DefaultRecentLimit
	}
	logs, err := s.scan(ctx, byEmployee(employeeID, domain.TimeRange{}))
	if err != nil {
		return nil, fmt.Errorf("get recent: %w", err)
	}
	sort.Slice(logs, func(i, j int) bool { return newerFirst(logs[i], logs[j]) })
	if len(logs) > limit {
		logs = logs[:limit]
	}
	return logs, nil
}

func (s *ObjectStore) GetLogsRange(ctx context.Context, employeeID string, r domain.TimeRange) ([]domain.EmotionLog, error) {
	logs, err := s.scan(ctx, byEmployee(employeeID, r))
	if err != nil {
		return nil, fmt.Errorf("get logs range: %w", err)
	}
	sort.Slice(logs, func(i, j int) bool { return olderFirst(logs[i], logs[j]) })
	return logs, nil
}

func (s *ObjectStore) GetDepartments(ctx context.Context) ([]domain.Department, error) {
	departments := make([]domain.Department, 0)
	if err := s.readJSON(ctx, departmentsObject, &departments); err != nil {
		return nil, fmt.Errorf("get departments: %w", err)
	}
	if departments == nil {
		departments = make([]domain.Department, 0)
	}
	sort.Slice(departments, func(i, j int) bool {
		if departments[i].Name != departments[j].Name {
			return departments[i].Name < departments[j].Name
		}
		return departments[i].ID < departments[j].ID
	})
	return departments, nil
}

func (s *ObjectStore) GetLogsRangeByDepartment(ctx context.Context, departmentID string, r domain.TimeRange) ([]domain.EmotionLog, error) {
	var employees []domain.Employee
	if err := s.readJSON(ctx, employeesObject, &employees); err != nil {
		return nil, fmt.Errorf("get department logs: %w", err)
	}
	members := make(map[string]struct{})
	for _, e := range employees {
		if e.DepartmentID == departmentID {
			members[e.ID] = struct{}{}
		}
	}
	if len(members) == 0 {
		return []domain.EmotionLog{}, nil
	}

	logs, err := s.scan(ctx, func(l domain.EmotionLog) bool {
		_, ok := members[l.EmployeeID]
		return ok && aggregate.InRange(l.CreatedAt, r)
	})
	if err != nil {
		return nil, fmt.Errorf("get department logs: %w", err)
	}
	sort.Slice(logs, func(i, j int) bool { return olderFirst(logs[i], logs[j]) })
	return logs, nil
}

func (s *ObjectStore) GetTrends(ctx context.Context, employeeID string, r domain.TimeRange) (domain.Trends, error) {
	logs, err := s.scan(ctx, byEmployee(employeeID, r))
	if err != nil {
		return domain.Trends{}, fmt.Errorf("get trends: %w", err)
	}
	tb := aggregate.NewTrendsBuilder()
	for _, l := range logs {
		tb.Add(l)
	}
	return tb.Result(), nil
}

func (s *ObjectStore) Close() error {
	return s.bucket.Close()
}

// scan lists events/, downloads and decodes every object in parallel, and keeps the rows
// accepted by keep. Missing or undecodable objects are dropped.
func (s *ObjectStore) scan(ctx context.Context, keep func(domain.EmotionLog) bool) ([]domain.EmotionLog, error) {
	keys, err := s.bucket.List(ctx, s.key(eventsDir))
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return []domain.EmotionLog{}, nil
	}

	workers := s.fanOut(len(keys))
	decoded := dataflow.Map(ctx, dataflow.From(ctx, keys), s.readEvent,
		dataflow.WithWorkers(workers), dataflow.WithBufferSize(workers))
	return dataflow.Collect(ctx, dataflow.Filter(ctx, decoded, keep))
}

// fanOut is the worker count for n independent object calls: one per object unless capped.
func (s *ObjectStore) fanOut(n int) int {
	if s.workers == 0 || s.workers > n {
		return n
	}
	return s.workers
}

func (s *ObjectStore) readEvent(ctx context.Context, key string) (domain.EmotionLog, error) {
	data, err := s.bucket.Read(ctx, key)
	if err != nil {
		return domain.EmotionLog{}, err
	}
	var obj eventObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return domain.EmotionLog{}, fmt.Errorf("decode %s: %w", key, err)
	}
	created, err := aggregate.ParseTimestamp(obj.CreatedAt)
	if err != nil {
		return domain.EmotionLog{}, fmt.Errorf("decode %s: %w", key, err)
	}
	et := domain.EventType(obj.EventType)
	if !et.Valid() {
		return domain.EmotionLog{}, fmt.Errorf("decode %s: unknown event type %q", key, obj.EventType)
	}
	return domain.EmotionLog{
		ID:         obj.ID,
		EmployeeID: obj.EmployeeID,
		EventType:  et,
		Emotion:    obj.Emotion,
		Note:       obj.Note,
		CreatedAt:  aggregate.Canonical(created),
	}, nil
}

// readJSON decodes a metadata array. A missing object reads as empty.
func (s *ObjectStore) readJSON(ctx context.Context, name string, v interface{}) error {
	data, err := s.bucket.Read(ctx, s.key(name))
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

func (s *ObjectStore) writeJSON(ctx context.Context, name string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.bucket.Write(ctx, s.key(name), data, jsonContentType)
}

func byEmployee(employeeID string, r domain.TimeRange) func(domain.EmotionLog) bool {
	return func(l domain.EmotionLog) bool {
		return l.EmployeeID == employeeID && aggregate.InRange(l.CreatedAt, r)
	}
}

func olderFirst(a, b domain.EmotionLog) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

func newerFirst(a, b domain.EmotionLog) bool {
	return olderFirst(b, a)
}
