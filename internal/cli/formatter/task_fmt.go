package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/cybertask/internal/domain"
	"github.com/alexanderramin/cybertask/internal/service"
)

// FormatTaskList renders the tasks table.
func FormatTaskList(tasks []*domain.Task, names Names, now time.Time) string {
	if len(tasks) == 0 {
		return Dim("No tasks match.") + "\n"
	}

	headers := []string{"ID", "TITLE", "STATUS", "PRIORITY", "ASSIGNEE", "DUE", "TAGS"}
	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		assignee := Dim("--")
		if t.AssigneeID != nil {
			assignee = names.Name(*t.AssigneeID)
		}
		title := t.Title
		if t.IsTerminal() {
			title = Dim(title)
		}
		rows = append(rows, []string{
			TruncID(t.ID),
			title,
			TaskStatusPill(t.Status),
			PriorityBadge(t.Priority),
			assignee,
			DueDate(t, now),
			FormatTags(t.Tags),
		})
	}
	return RenderTable(headers, rows)
}

// FormatTaskShow renders a task card. deps may be nil.
func FormatTaskShow(t *domain.Task, names Names, deps *service.TaskDependencies, now time.Time) string {
	var b strings.Builder

	field := func(label, value string) {
		fmt.Fprintf(&b, "%s %s\n", Dim(fmt.Sprintf("%-10s", label)), value)
	}
	field("ID", t.ID)
	field("Status", TaskStatusPill(t.Status))
	field("Priority", PriorityBadge(t.Priority))
	field("Creator", names.Name(t.CreatorID))
	if t.AssigneeID != nil {
		field("Assignee", names.Name(*t.AssigneeID))
	} else {
		field("Assignee", Dim("unassigned"))
	}
	if t.DueDate != nil {
		field("Due", t.DueDate.Format("2006-01-02")+" "+DueDate(t, now))
	}
	if t.EstimatedHours != nil || t.ActualHours != nil {
		field("Hours", FormatHours(t.ActualHours)+" / "+FormatHours(t.EstimatedHours))
	}
	if len(t.Tags) > 0 {
		field("Tags", FormatTags(t.Tags))
	}
	if t.CompletedAt != nil {
		field("Completed", HumanTimestamp(*t.CompletedAt))
	}
	if next := domain.NextStatuses(t.Status); len(next) > 0 {
		labels := make([]string, len(next))
		for i, s := range next {
			labels[i] = string(s)
		}
		field("Next", Dim(strings.Join(labels, ", ")))
	}
	if t.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", t.Description)
	}
	if deps != nil && (len(deps.DependsOn) > 0 || len(deps.Dependents) > 0) {
		b.WriteString("\n" + FormatDependencies(t, deps))
	}

	return RenderBox(t.Title, strings.TrimRight(b.String(), "\n"))
}

// FormatDependencies renders the direct edges of a task as a tree: what it
// depends on first, then what depends on it.
func FormatDependencies(t *domain.Task, deps *service.TaskDependencies) string {
	blocking := make(map[string]bool, len(deps.Blockers))
	for _, bt := range deps.Blockers {
		blocking[bt.ID] = true
	}

	var b strings.Builder
	section := func(label string, tasks []*domain.Task, markBlockers bool) {
		items := []TreeItem{{Title: label}}
		for i, dt := range tasks {
			item := TreeItem{
				Title:  dt.Title,
				ID:     dt.ID,
				Level:  1,
				IsLast: i == len(tasks)-1,
				Status: dt.Status,
			}
			if markBlockers && blocking[dt.ID] {
				item.Detail = "blocking"
			}
			items = append(items, item)
		}
		if len(tasks) == 0 {
			items = append(items, TreeItem{Title: Dim("none"), Level: 1, IsLast: true})
		}
		b.WriteString(RenderTree(items))
	}

	section(Bold("Depends on"), deps.DependsOn, true)
	section(Bold("Required by"), deps.Dependents, false)

	switch n := len(deps.Blockers); {
	case n == 0:
		b.WriteString(StyleGreen.Render("Ready: no open blockers") + "\n")
	default:
		b.WriteString(StyleRed.Render(fmt.Sprintf("Blocked by %d open task(s)", n)) + "\n")
	}
	return b.String()
}

// FormatComments renders comments oldest first.
func FormatComments(comments []*domain.Comment, names Names) string {
	if len(comments) == 0 {
		return Dim("No comments.") + "\n"
	}
	var b strings.Builder
	for i, c := range comments {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s %s\n", Bold(names.Name(c.AuthorID)), Dim("· "+HumanTimestamp(c.CreatedAt)))
		for _, line := range strings.Split(c.Content, "\n") {
			b.WriteString("  " + line + "\n")
		}
	}
	return b.String()
}

// FormatUserList renders the users table.
func FormatUserList(users []*domain.User) string {
	if len(users) == 0 {
		return Dim("No users registered.") + "\n"
	}
	headers := []string{"ID", "EMAIL", "NAME", "JOINED"}
	rows := make([][]string, 0, len(users))
	for _, u := range users {
		rows = append(rows, []string{TruncID(u.ID), u.Email, u.DisplayName, HumanDate(u.CreatedAt)})
	}
	return RenderTable(headers, rows)
}
