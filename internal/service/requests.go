package service

import (
	"strconv"
	"strings"
	"time"

	"github.com/locvowork/feeltime/internal/domain"
)

const (
	maxEmployeeIDLen = 64
	maxNoteLen       = 1000
	maxRecentLimit   = 100
	maxTrendDays     = 366
)

// ClockRequest is the body of a clock in/out call.
type ClockRequest struct {
	EmployeeID string  `json:"employeeId"`
	Type       string  `json:"type"`
	Emotion    int     `json:"emotion"`
	Note       *string `json:"note"`
}

// RangeQuery scopes a read to one employee and an optional RFC 3339 window.
type RangeQuery struct {
	EmployeeID string
	From       string
	To         string
}

// DepartmentQuery scopes a read to one department and an optional RFC 3339 window.
type DepartmentQuery struct {
	DepartmentID string
	From         string
	To           string
}

// RecentQuery asks for the newest logs of one employee. An empty Limit means the default.
type RecentQuery struct {
	EmployeeID string
	Limit      string
}

// TrendsQuery takes either an explicit window or Days, a window ending now.
type TrendsQuery struct {
	EmployeeID string
	From       string
	To         string
	Days       string
}

// ExportQuery selects exactly one of EmployeeID or DepartmentID.
type ExportQuery struct {
	EmployeeID   string
	DepartmentID string
	From         string
	To           string
}

func (r ClockRequest) toLog() (domain.NewEmotionLog, error) {
	employeeID, err := requireID("employeeId", r.EmployeeID)
	if err != nil {
		return domain.NewEmotionLog{}, err
	}

	et := domain.EventType(r.Type)
	if !et.Valid() {
		return domain.NewEmotionLog{}, domain.NewValidationError("type", "must be one of in, out")
	}
	if r.Emotion < 1 || r.Emotion > 5 {
		return domain.NewEmotionLog{}, domain.NewValidationError("emotion", "must be an integer between 1 and 5")
	}

	note := r.Note
	if note != nil {
		if len([]rune(*note)) > maxNoteLen {
			return domain.NewEmotionLog{}, domain.NewValidationError("note", "must be at most 1000 characters")
		}
		if *note == "" {
			note = nil
		}
	}

	return domain.NewEmotionLog{
		EmployeeID: employeeID,
		Type:       et,
		Emotion:    r.Emotion,
		Note:       note,
	}, nil
}

func requireID(field, raw string) (string, error) {
	id := strings.TrimSpace(raw)
	if id == "" {
		return "", domain.NewValidationError(field, "is required")
	}
	if len([]rune(id)) > maxEmployeeIDLen {
		return "", domain.NewValidationError(field, "must be at most 64 characters")
	}
	return id, nil
}

func parseRange(from, to string) (domain.TimeRange, error) {
	var r domain.TimeRange
	var err error
	if r.From, err = parseInstant("from", from); err != nil {
		return r, err
	}
	if r.To, err = parseInstant("to", to); err != nil {
		return r, err
	}
	if !r.From.IsZero() && !r.To.IsZero() && r.From.After(r.To) {
		return r, domain.NewValidationError("from", "must not be after to")
	}
	return r, nil
}

func parseInstant(field, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, domain.NewValidationError(field, "must be an RFC 3339 datetime")
	}
	return t.UTC(), nil
}

func parseBoundedInt(field, raw string, min, max, fallback int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < min || n > max {
		return 0, domain.NewValidationError(field, "must be an integer between "+strconv.Itoa(min)+" and "+strconv.Itoa(max))
	}
	return n, nil
}
