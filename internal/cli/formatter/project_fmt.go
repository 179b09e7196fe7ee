package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/cybertask/internal/domain"
	"github.com/alexanderramin/cybertask/internal/service"
)

// Names maps user IDs to display names.
type Names map[string]string

// Name returns the display name for id, falling back to its short form.
func (n Names) Name(id string) string {
	if name, ok := n[id]; ok && name != "" {
		return name
	}
	return ShortID(id)
}

// NamesOf indexes users by ID.
func NamesOf(users []*domain.User) Names {
	n := make(Names, len(users))
	for _, u := range users {
		n[u.ID] = u.DisplayName
	}
	return n
}

// FormatProjectList renders the projects table.
func FormatProjectList(projects []*domain.Project, names Names) string {
	if len(projects) == 0 {
		return Dim("No projects yet. Create one with: cybertask project add --name <name>") + "\n"
	}

	headers := []string{"ID", "NAME", "STATUS", "OWNER", "MEMBERS", "UPDATED"}
	rows := make([][]string, 0, len(projects))
	for _, p := range projects {
		rows = append(rows, []string{
			TruncID(p.ID),
			Bold(p.Name),
			StatusPill(p.Status),
			names.Name(p.OwnerID),
			fmt.Sprintf("%d", len(p.MemberIDs)),
			HumanTimestamp(p.UpdatedAt),
		})
	}
	return Header("Projects") + "\n" + RenderTable(headers, rows)
}

// FormatProjectShow renders a project card with members and task progress.
func FormatProjectShow(p *domain.Project, names Names, tasks []*domain.Task) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s  %s\n", Dim("ID"), p.ID)
	fmt.Fprintf(&b, "%s  %s\n", Dim("Status"), StatusPill(p.Status))
	fmt.Fprintf(&b, "%s  %s\n", Dim("Owner"), names.Name(p.OwnerID))
	if p.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", p.Description)
	}

	b.WriteString("\n" + Header("Members") + "\n")
	for _, id := range p.MemberIDs {
		role := ""
		if id == p.OwnerID {
			role = StyleYellow.Render(" owner")
		}
		fmt.Fprintf(&b, "  %s %s%s\n", TruncID(id), names.Name(id), role)
	}

	b.WriteString("\n" + Header("Tasks") + "\n")
	if len(tasks) == 0 {
		b.WriteString(Dim("  none") + "\n")
	} else {
		counts := make(map[domain.TaskStatus]int)
		for _, t := range tasks {
			counts[t.Status]++
		}
		for _, s := range domain.TaskStatuses {
			if counts[s] > 0 {
				fmt.Fprintf(&b, "  %-16s %d\n", TaskStatusPill(s), counts[s])
			}
		}
		fmt.Fprintf(&b, "\n  %s\n", RenderProgress(Completion(tasks), 24))
	}

	return RenderBox(p.Name, strings.TrimRight(b.String(), "\n"))
}

// FormatRemoveMember reports a member removal.
func FormatRemoveMember(res *service.RemoveMemberResult, userName string) string {
	msg := fmt.Sprintf("Removed %s from %s", userName, res.Project.Name)
	if res.UnassignedTasks > 0 {
		msg += Dim(fmt.Sprintf(" (%d task(s) unassigned)", res.UnassignedTasks))
	}
	return msg + "\n"
}

// FormatImportResult summarizes a bundle import.
func FormatImportResult(res *service.ImportResult) string {
	headers := []string{"ENTITY", "COUNT"}
	rows := [][]string{
		{"users created", fmt.Sprintf("%d", res.UserCount)},
		{"members", fmt.Sprintf("%d", res.MemberCount)},
		{"tasks", fmt.Sprintf("%d", res.TaskCount)},
		{"dependencies", fmt.Sprintf("%d", res.DependencyCount)},
	}
	return fmt.Sprintf("Imported project %s %s\n\n%s",
		Bold(res.Project.Name), TruncID(res.Project.ID), RenderTable(headers, rows))
}
