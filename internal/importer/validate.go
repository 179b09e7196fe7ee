package importer

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/alexanderramin/cybertask/internal/depgraph"
	"github.com/alexanderramin/cybertask/internal/domain"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

const (
	bundleSchemaURL = "https://cybertask.dev/schemas/bundle.schema.json"
	dateLayout      = "2006-01-02"
)

// ValidationError lists every problem found in a bundle.
type ValidationError struct {
	Problems []error
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "import validation failed (%d errors):", len(e.Problems))
	for _, p := range e.Problems {
		b.WriteString("\n  - ")
		b.WriteString(p.Error())
	}
	return b.String()
}

// Unwrap classifies the failure as a constraint violation.
func (e *ValidationError) Unwrap() error { return domain.ErrConstraintViolation }

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func bundleSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(bundleSchemaURL, bytes.NewReader(bundleSchemaJSON)); err != nil {
			schemaErr = fmt.Errorf("adding bundle schema: %w", err)
			return
		}
		compiledSchema, schemaErr = compiler.Compile(bundleSchemaURL)
		if schemaErr != nil {
			schemaErr = fmt.Errorf("compiling bundle schema: %w", schemaErr)
		}
	})
	return compiledSchema, schemaErr
}

func validateAgainstSchema(doc any) []error {
	schema, err := bundleSchema()
	if err != nil {
		return []error{err}
	}
	err = schema.Validate(doc)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return []error{err}
	}
	var errs []error
	collectSchemaErrors(ve, &errs)
	if len(errs) == 0 {
		errs = append(errs, err)
	}
	return errs
}

// collectSchemaErrors flattens the cause tree down to its leaves.
func collectSchemaErrors(ve *jsonschema.ValidationError, errs *[]error) {
	if len(ve.Causes) == 0 {
		*errs = append(*errs, fmt.Errorf("%s: %s", pointerToPath(ve.InstanceLocation), ve.Message))
		return
	}
	for _, cause := range ve.Causes {
		collectSchemaErrors(cause, errs)
	}
}

// pointerToPath turns "/tasks/0/title" into "tasks[0].title".
func pointerToPath(ptr string) string {
	if ptr == "" || ptr == "/" {
		return "(root)"
	}
	var b strings.Builder
	for _, part := range strings.Split(strings.TrimPrefix(ptr, "/"), "/") {
		if part != "" && strings.Trim(part, "0123456789") == "" {
			fmt.Fprintf(&b, "[%s]", part)
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(part)
	}
	return b.String()
}

// ValidateBundle checks the rules the schema cannot express: unique refs and
// emails, known people, resolvable and acyclic dependencies.
func ValidateBundle(b *Bundle) []error {
	var errs []error

	if strings.TrimSpace(b.Project.Name) == "" {
		errs = append(errs, fmt.Errorf("project.name is required"))
	}
	owner := domain.NormalizeEmail(b.Owner)
	if owner == "" {
		errs = append(errs, fmt.Errorf("owner is required"))
	}

	errs = append(errs, validateUsers(b.Users)...)

	people := map[string]bool{owner: true}
	for i, m := range b.Members {
		email := domain.NormalizeEmail(m)
		if email == "" {
			errs = append(errs, fmt.Errorf("members[%d] is empty", i))
			continue
		}
		people[email] = true
	}

	refs := make(map[string]bool, len(b.Tasks))
	errs = append(errs, validateTasks(b.Tasks, people, refs)...)
	errs = append(errs, validateDependencies(b.Tasks, refs)...)
	return errs
}

func validateUsers(users []UserImport) []error {
	var errs []error
	seen := make(map[string]bool, len(users))
	for i, u := range users {
		prefix := fmt.Sprintf("users[%d]", i)
		candidate := &domain.User{Email: domain.NormalizeEmail(u.Email), DisplayName: strings.TrimSpace(u.DisplayName)}
		if err := candidate.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %s", prefix, domainMessage(err)))
			continue
		}
		if seen[candidate.Email] {
			errs = append(errs, fmt.Errorf("%s.email: duplicate email %q", prefix, candidate.Email))
		}
		seen[candidate.Email] = true
	}
	return errs
}

func validateTasks(tasks []TaskImport, people, refs map[string]bool) []error {
	var errs []error
	for i, t := range tasks {
		prefix := fmt.Sprintf("tasks[%d]", i)

		if t.Ref == "" {
			errs = append(errs, fmt.Errorf("%s.ref is required", prefix))
		} else if refs[t.Ref] {
			errs = append(errs, fmt.Errorf("%s.ref: duplicate ref %q", prefix, t.Ref))
		} else {
			refs[t.Ref] = true
		}

		if strings.TrimSpace(t.Title) == "" {
			errs = append(errs, fmt.Errorf("%s.title is required", prefix))
		}
		if t.Priority != "" {
			if _, ok := domain.ParsePriority(t.Priority); !ok {
				errs = append(errs, fmt.Errorf("%s.priority: invalid value %q", prefix, t.Priority))
			}
		}
		if t.Status != "" {
			if _, ok := domain.ParseTaskStatus(t.Status); !ok {
				errs = append(errs, fmt.Errorf("%s.status: invalid value %q", prefix, t.Status))
			}
		}
		if t.Assignee != "" && !people[domain.NormalizeEmail(t.Assignee)] {
			errs = append(errs, fmt.Errorf("%s.assignee: %q is not the owner or a member", prefix, t.Assignee))
		}
		if t.Creator != "" && !people[domain.NormalizeEmail(t.Creator)] {
			errs = append(errs, fmt.Errorf("%s.creator: %q is not the owner or a member", prefix, t.Creator))
		}
		if t.DueDate != nil {
			if _, err := time.Parse(dateLayout, *t.DueDate); err != nil {
				errs = append(errs, fmt.Errorf("%s.due_date: invalid date format %q (expected YYYY-MM-DD)", prefix, *t.DueDate))
			}
		}
		if t.EstimatedHours != nil && *t.EstimatedHours < 0 {
			errs = append(errs, fmt.Errorf("%s.estimated_hours must be non-negative", prefix))
		}
		if t.ActualHours != nil && *t.ActualHours < 0 {
			errs = append(errs, fmt.Errorf("%s.actual_hours must be non-negative", prefix))
		}
	}
	return errs
}

// validateDependencies resolves depends_on refs and replays the edges
// through a dependency graph, so a bundle is rejected for the same cycles
// AddDependency would refuse.
func validateDependencies(tasks []TaskImport, refs map[string]bool) []error {
	var errs []error
	g := depgraph.New("bundle")
	for ref := range refs {
		g.AddNode(depgraph.Node{ID: ref, ProjectID: "bundle", Status: domain.StatusTodo})
	}
	for i, t := range tasks {
		for j, dep := range t.DependsOn {
			prefix := fmt.Sprintf("tasks[%d].depends_on[%d]", i, j)
			if !refs[dep] {
				errs = append(errs, fmt.Errorf("%s: ref %q not found in tasks", prefix, dep))
				continue
			}
			if t.Ref == "" || !refs[t.Ref] || g.HasEdge(t.Ref, dep) {
				continue
			}
			if err := g.AddEdge(t.Ref, dep); err != nil {
				errs = append(errs, fmt.Errorf("%s: %s", prefix, domainMessage(err)))
			}
		}
	}
	return errs
}

func domainMessage(err error) string {
	if de, ok := domain.AsDomainError(err); ok {
		msg := de.Message
		if path, ok := de.Context["path"]; ok {
			msg += " (" + path + ")"
		}
		return msg
	}
	return err.Error()
}
