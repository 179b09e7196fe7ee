package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/alexanderramin/cybertask/internal/domain"
	"github.com/spf13/pflag"
)

const dateLayout = "2006-01-02"

// statusValue is a pflag.Value accepting any casing of a task status.
type statusValue struct {
	status *domain.TaskStatus
}

var _ pflag.Value = (*statusValue)(nil)

func newStatusValue(p *domain.TaskStatus) *statusValue { return &statusValue{status: p} }

func (v *statusValue) String() string { return string(*v.status) }
func (v *statusValue) Type() string   { return "status" }

func (v *statusValue) Set(s string) error {
	st, ok := domain.ParseTaskStatus(s)
	if !ok {
		return fmt.Errorf("must be one of %s", joinEnum(domain.TaskStatuses))
	}
	*v.status = st
	return nil
}

// priorityValue is a pflag.Value accepting any casing of a priority.
type priorityValue struct {
	priority *domain.Priority
}

var _ pflag.Value = (*priorityValue)(nil)

func newPriorityValue(p *domain.Priority) *priorityValue { return &priorityValue{priority: p} }

func (v *priorityValue) String() string { return string(*v.priority) }
func (v *priorityValue) Type() string   { return "priority" }

func (v *priorityValue) Set(s string) error {
	p, ok := domain.ParsePriority(s)
	if !ok {
		return fmt.Errorf("must be one of %s", joinEnum(domain.Priorities))
	}
	*v.priority = p
	return nil
}

// projectStatusValue is a pflag.Value for project statuses.
type projectStatusValue struct {
	status *domain.ProjectStatus
}

var _ pflag.Value = (*projectStatusValue)(nil)

func (v *projectStatusValue) String() string { return string(*v.status) }
func (v *projectStatusValue) Type() string   { return "project-status" }

func (v *projectStatusValue) Set(s string) error {
	st, ok := domain.ParseProjectStatus(s)
	if !ok {
		return fmt.Errorf("must be one of ACTIVE, ARCHIVED, COMPLETED")
	}
	*v.status = st
	return nil
}

// hoursValue is an optional non-negative hour count; unset leaves the
// pointer nil.
type hoursValue struct {
	hours **float64
}

var _ pflag.Value = (*hoursValue)(nil)

func (v *hoursValue) String() string {
	if *v.hours == nil {
		return ""
	}
	return strconv.FormatFloat(**v.hours, 'f', -1, 64)
}

func (v *hoursValue) Type() string { return "hours" }

func (v *hoursValue) Set(s string) error {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("not a number: %q", s)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("must be a finite number: %q", s)
	}
	*v.hours = &f
	return nil
}

// dateValue parses YYYY-MM-DD into a UTC date.
type dateValue struct {
	date **time.Time
}

var _ pflag.Value = (*dateValue)(nil)

func (v *dateValue) String() string {
	if *v.date == nil {
		return ""
	}
	return (*v.date).Format(dateLayout)
}

func (v *dateValue) Type() string { return "date" }

func (v *dateValue) Set(s string) error {
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return fmt.Errorf("expected YYYY-MM-DD, got %q", s)
	}
	*v.date = &d
	return nil
}

func joinEnum[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}
