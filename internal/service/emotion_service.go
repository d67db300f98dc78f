package service

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/locvowork/feeltime/internal/aggregate"
	"github.com/locvowork/feeltime/internal/domain"
	"github.com/locvowork/feeltime/internal/logger"
	"github.com/locvowork/feeltime/pkg/simpleexcel"
)

//go:embed templates/export_report.yaml
var exportTemplate []byte

// EmotionService validates requests at the boundary and delegates to the storage contract.
type EmotionService interface {
	Clock(ctx context.Context, req ClockRequest) (string, error)
	Summary(ctx context.Context, q RangeQuery) (domain.Summary, error)
	Recent(ctx context.Context, q RecentQuery) ([]domain.EmotionLog, error)
	Logs(ctx context.Context, q RangeQuery) ([]domain.EmotionLog, error)
	Departments(ctx context.Context) ([]domain.Department, error)
	DepartmentLogs(ctx context.Context, q DepartmentQuery) ([]domain.EmotionLog, error)
	Trends(ctx context.Context, q TrendsQuery) (domain.Trends, error)
	Export(ctx context.Context, q ExportQuery) (*ExportFile, error)
	Health(ctx context.Context) error
}

// ExportFile is a rendered xlsx workbook.
type ExportFile struct {
	Filename string
	Data     []byte
}

type emotionService struct {
	store domain.EmotionStore
	now   func() time.Time
}

// Option configures the service.
type Option func(*emotionService)

// WithClock replaces the wall clock used for day based trend windows.
func WithClock(now func() time.Time) Option {
	return func(s *emotionService) {
		s.now = now
	}
}

func NewEmotionService(store domain.EmotionStore, opts ...Option) EmotionService {
	s := &emotionService{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *emotionService) Clock(ctx context.Context, req ClockRequest) (string, error) {
	in, err := req.toLog()
	if err != nil {
		return "", err
	}

	id, err := s.store.InsertEmotionLog(ctx, in)
	if err != nil {
		return "", err
	}

	logger.InfoLog(ctx, "clock %s recorded for %s", in.Type, in.EmployeeID)
	return id, nil
}

func (s *emotionService) Summary(ctx context.Context, q RangeQuery) (domain.Summary, error) {
	employeeID, r, err := q.parse()
	if err != nil {
		return domain.Summary{}, err
	}
	return s.store.GetSummary(ctx, employeeID, r)
}

func (s *emotionService) Recent(ctx context.Context, q RecentQuery) ([]domain.EmotionLog, error) {
	employeeID, err := requireID("employeeId", q.EmployeeID)
	if err != nil {
		return nil, err
	}
	limit, err := parseBoundedInt("limit", q.Limit, 1, maxRecentLimit, domain.DefaultRecentLimit)
	if err != nil {
		return nil, err
	}
	return s.store.GetRecent(ctx, employeeID, limit)
}

func (s *emotionService) Logs(ctx context.Context, q RangeQuery) ([]domain.EmotionLog, error) {
	employeeID, r, err := q.parse()
	if err != nil {
		return nil, err
	}
	return s.store.GetLogsRange(ctx, employeeID, r)
}

func (s *emotionService) Departments(ctx context.Context) ([]domain.Department, error) {
	return s.store.GetDepartments(ctx)
}

func (s *emotionService) DepartmentLogs(ctx context.Context, q DepartmentQuery) ([]domain.EmotionLog, error) {
	departmentID, err := requireID("departmentId", q.DepartmentID)
	if err != nil {
		return nil, err
	}
	r, err := parseRange(q.From, q.To)
	if err != nil {
		return nil, err
	}
	return s.store.GetLogsRangeByDepartment(ctx, departmentID, r)
}

func (s *emotionService) Trends(ctx context.Context, q TrendsQuery) (domain.Trends, error) {
	employeeID, err := requireID("employeeId", q.EmployeeID)
	if err != nil {
		return domain.Trends{}, err
	}

	var r domain.TimeRange
	if q.Days != "" {
		if q.From != "" || q.To != "" {
			return domain.Trends{}, domain.NewValidationError("days", "cannot be combined with from or to")
		}
		days, err := parseBoundedInt("days", q.Days, 1, maxTrendDays, 0)
		if err != nil {
			return domain.Trends{}, err
		}
		r.To = s.now().UTC()
		r.From = r.To.AddDate(0, 0, -days)
	} else if r, err = parseRange(q.From, q.To); err != nil {
		return domain.Trends{}, err
	}

	return s.store.GetTrends(ctx, employeeID, r)
}

func (s *emotionService) Health(ctx context.Context) error {
	return s.store.Health(ctx)
}

type summaryRow struct {
	Type  domain.EventType
	Count int
	Avg   *float64
}

// Export renders the scoped logs and their per type summary into a workbook.
func (s *emotionService) Export(ctx context.Context, q ExportQuery) (*ExportFile, error) {
	if (q.EmployeeID == "") == (q.DepartmentID == "") {
		return nil, domain.NewValidationError("employeeId", "exactly one of employeeId or departmentId is required")
	}

	var (
		logs  []domain.EmotionLog
		scope string
		err   error
	)
	if q.EmployeeID != "" {
		scope = q.EmployeeID
		logs, err = s.Logs(ctx, RangeQuery{EmployeeID: q.EmployeeID, From: q.From, To: q.To})
	} else {
		scope = q.DepartmentID
		logs, err = s.DepartmentLogs(ctx, DepartmentQuery{DepartmentID: q.DepartmentID, From: q.From, To: q.To})
	}
	if err != nil {
		return nil, err
	}

	var sb aggregate.SummaryBuilder
	for _, l := range logs {
		sb.Add(l)
	}
	summary := sb.Result()

	exporter, err := simpleexcel.NewDataExporterFromYAML(bytes.NewReader(exportTemplate))
	if err != nil {
		return nil, fmt.Errorf("load export template: %w", err)
	}
	exporter.
		BindSectionData("logs", logs).
		BindSectionData("summary", []summaryRow{
			{Type: domain.EventIn, Count: summary.In.Count, Avg: summary.In.Avg},
			{Type: domain.EventOut, Count: summary.Out.Count, Avg: summary.Out.Avg},
		})

	data, err := exporter.ToBytes()
	if err != nil {
		return nil, fmt.Errorf("render export: %w", err)
	}

	logger.InfoLog(ctx, "exported %d logs for %s", len(logs), scope)
	return &ExportFile{
		Filename: fmt.Sprintf("feeltime_%s_%s.xlsx", sanitizeFilename(scope), s.now().UTC().Format("20060102")),
		Data:     data,
	}, nil
}

func (q RangeQuery) parse() (string, domain.TimeRange, error) {
	employeeID, err := requireID("employeeId", q.EmployeeID)
	if err != nil {
		return "", domain.TimeRange{}, err
	}
	r, err := parseRange(q.From, q.To)
	return employeeID, r, err
}

func sanitizeFilename(s string) string {
	out := make([]rune, 0, len(s))
	for _, c := range s {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
			out = append(out, c)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
