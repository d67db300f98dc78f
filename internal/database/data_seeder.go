package database

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/locvowork/feeltime/internal/domain"
	"github.com/locvowork/feeltime/internal/logger"
	"golang.org/x/sync/errgroup"
)

// DataSeeder fills a store with synthetic clock events through the storage contract only.
type DataSeeder struct {
	store   domain.EmotionStore
	rng     *rand.Rand
	now     func() time.Time
	workers int
}

type SeederOption func(*DataSeeder)

// WithSeed makes the generated data reproducible.
func WithSeed(seed int64) SeederOption {
	return func(ds *DataSeeder) {
		ds.rng = rand.New(rand.NewSource(seed))
	}
}

func WithSeederClock(now func() time.Time) SeederOption {
	return func(ds *DataSeeder) {
		ds.now = now
	}
}

// WithInsertWorkers bounds the number of employees whose events are written concurrently.
func WithInsertWorkers(n int) SeederOption {
	return func(ds *DataSeeder) {
		if n > 0 {
			ds.workers = n
		}
	}
}

func NewDataSeeder(store domain.EmotionStore, opts ...SeederOption) *DataSeeder {
	ds := &DataSeeder{
		store:   store,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		now:     time.Now,
		workers: 8,
	}
	for _, opt := range opts {
		opt(ds)
	}
	return ds
}

var departmentNames = []string{"Engineering", "Sales", "Marketing", "HR", "Finance", "Operations"}

// Presets
type SeedPreset string

const (
	PresetSmall  SeedPreset = "small"
	PresetMedium SeedPreset = "medium"
	PresetLarge  SeedPreset = "large"
)

// PresetConfig sizes an initial seed.
type PresetConfig struct {
	Departments            int
	EmployeesPerDepartment int
	Days                   int
}

// GetPresetConfig returns configuration for a preset. Unknown presets fall back to medium.
func GetPresetConfig(preset SeedPreset) PresetConfig {
	switch preset {
	case PresetSmall:
		return PresetConfig{Departments: 2, EmployeesPerDepartment: 5, Days: 14}
	case PresetLarge:
		return PresetConfig{Departments: 6, EmployeesPerDepartment: 25, Days: 90}
	default:
		return PresetConfig{Departments: 4, EmployeesPerDepartment: 10, Days: 30}
	}
}

// SeedResult reports what a seed run wrote.
type SeedResult struct {
	Departments int
	Employees   int
	Events      int
	Skipped     bool
}

// SeedInitial creates departments, employees and a daily in/out pair per employee.
// It is non-destructive and does nothing when any department already exists.
func (ds *DataSeeder) SeedInitial(ctx context.Context, cfg PresetConfig) (SeedResult, error) {
	existing, err := ds.store.GetDepartments(ctx)
	if err != nil {
		return SeedResult{}, fmt.Errorf("failed to list departments: %w", err)
	}
	if len(existing) > 0 {
		logger.InfoLog(ctx, "Store already has %d departments; skipping initial seeding", len(existing))
		return SeedResult{Skipped: true}, nil
	}

	if cfg.Departments > len(departmentNames) {
		cfg.Departments = len(departmentNames)
	}

	var res SeedResult
	var employees []string
	for d := 0; d < cfg.Departments; d++ {
		deptID, err := ds.store.InsertDepartment(ctx, departmentNames[d])
		if err != nil {
			return res, fmt.Errorf("failed to insert department %s: %w", departmentNames[d], err)
		}
		res.Departments++

		for i := 1; i <= cfg.EmployeesPerDepartment; i++ {
			empID, err := ds.store.InsertEmployee(ctx, fmt.Sprintf("User %d", i), deptID)
			if err != nil {
				return res, fmt.Errorf("failed to insert employee: %w", err)
			}
			employees = append(employees, empID)
			res.Employees++
		}
	}
	logger.InfoLog(ctx, "Created %d departments and %d employees", res.Departments, res.Employees)

	today := startOfDay(ds.now())
	plans := make([][]domain.NewEmotionLog, len(employees))
	for i, empID := range employees {
		plans[i] = ds.dailyEvents(empID, today, cfg.Days)
	}

	res.Events, err = ds.insertAll(ctx, plans)
	if err != nil {
		return res, err
	}

	logger.InfoLog(ctx, "Seeded %d events for %d employees in %d departments over %d days",
		res.Events, res.Employees, res.Departments, cfg.Days)
	return res, nil
}

// EmployeeSeed describes a history for one employee.
type EmployeeSeed struct {
	EmployeeID string
	Days       int
	// Reset wipes the whole store first.
	Reset bool
	// Start is the last seeded day. Zero means today.
	Start time.Time
}

// SeedEmployee writes Days of in/out pairs ending at Start, plus a few scattered recent events.
func (ds *DataSeeder) SeedEmployee(ctx context.Context, in EmployeeSeed) (SeedResult, error) {
	if in.EmployeeID == "" {
		return SeedResult{}, domain.NewValidationError("employee", "is required")
	}
	if in.Days < 1 {
		return SeedResult{}, domain.NewValidationError("days", "must be positive")
	}

	if in.Reset {
		if err := ds.store.ResetAll(ctx); err != nil {
			return SeedResult{}, fmt.Errorf("failed to reset store: %w", err)
		}
		logger.InfoLog(ctx, "Store reset")
	}

	last := in.Start
	if last.IsZero() {
		last = ds.now()
	}

	events := ds.dailyEvents(in.EmployeeID, startOfDay(last), in.Days)
	events = append(events, ds.scatterEvents(in.EmployeeID, 6)...)

	n, err := ds.insertAll(ctx, [][]domain.NewEmotionLog{events})
	if err != nil {
		return SeedResult{Events: n}, err
	}

	logger.InfoLog(ctx, "Seeded %d events for employee %s over %d days", n, in.EmployeeID, in.Days)
	return SeedResult{Employees: 1, Events: n}, nil
}

// ClearData removes every department, employee and emotion log.
func (ds *DataSeeder) ClearData(ctx context.Context) error {
	if err := ds.store.ResetAll(ctx); err != nil {
		return fmt.Errorf("failed to clear data: %w", err)
	}
	logger.InfoLog(ctx, "Cleared all data")
	return nil
}

// insertAll writes each plan sequentially, running plans concurrently.
func (ds *DataSeeder) insertAll(ctx context.Context, plans [][]domain.NewEmotionLog) (int, error) {
	counts := make([]int, len(plans))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ds.workers)
	for i, plan := range plans {
		i, plan := i, plan
		g.Go(func() error {
			for _, ev := range plan {
				if _, err := ds.store.InsertEmotionLog(gctx, ev); err != nil {
					return fmt.Errorf("failed to insert emotion log for %s: %w", ev.EmployeeID, err)
				}
				counts[i]++
			}
			return nil
		})
	}
	err := g.Wait()

	total := 0
	for _, c := range counts {
		total += c
	}
	return total, err
}

// dailyEvents returns one morning "in" and one evening "out" per day, oldest day first.
func (ds *DataSeeder) dailyEvents(employeeID string, lastDay time.Time, days int) []domain.NewEmotionLog {
	events := make([]domain.NewEmotionLog, 0, days*2)
	for i := days - 1; i >= 0; i-- {
		day := lastDay.AddDate(0, 0, -i)

		inAt := ds.at(day, int(math.Round(ds.between(8.5, 10))), int(math.Round(ds.between(0, 59))))
		outAt := ds.at(day, int(math.Round(ds.between(17.5, 19.5))), int(math.Round(ds.between(0, 59))))

		events = append(events,
			domain.NewEmotionLog{EmployeeID: employeeID, Type: domain.EventIn, Emotion: ds.emotion(3.2), CreatedAt: inAt},
			domain.NewEmotionLog{EmployeeID: employeeID, Type: domain.EventOut, Emotion: ds.emotion(3.5), CreatedAt: outAt},
		)
	}
	return events
}

// scatterEvents returns n events within the last week with a "sample" note.
func (ds *DataSeeder) scatterEvents(employeeID string, n int) []domain.NewEmotionLog {
	note := "sample"
	today := startOfDay(ds.now())

	events := make([]domain.NewEmotionLog, 0, n)
	for j := 0; j < n; j++ {
		day := today.AddDate(0, 0, -int(math.Round(ds.between(0, 6))))
		et, hour := domain.EventIn, ds.between(8, 11)
		if ds.rng.Float64() >= 0.5 {
			et, hour = domain.EventOut, ds.between(17, 20)
		}
		events = append(events, domain.NewEmotionLog{
			EmployeeID: employeeID,
			Type:       et,
			Emotion:    ds.emotion(3.2),
			Note:       &note,
			CreatedAt:  ds.at(day, int(hour), int(ds.between(0, 59))),
		})
	}
	return events
}

func (ds *DataSeeder) between(min, max float64) float64 {
	return min + ds.rng.Float64()*(max-min)
}

// emotion varies around base by up to 1.2 and clamps to 1..5.
func (ds *DataSeeder) emotion(base float64) int {
	v := int(math.Round(base + ds.between(-1.2, 1.2)))
	if v < 1 {
		return 1
	}
	if v > 5 {
		return 5
	}
	return v
}

func (ds *DataSeeder) at(day time.Time, hour, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, ds.rng.Intn(59), 0, time.UTC)
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
