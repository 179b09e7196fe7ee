package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/cybertask/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// TreeItem is one node of a tree display.
type TreeItem struct {
	Title  string
	ID     string // shown as a short prefix when set
	Level  int
	IsLast bool
	Status domain.TaskStatus
	Detail string
}

const (
	treeBranch = "├─ "
	treeCorner = "└─ "
	treePipe   = "│  "
)

// RenderTree renders items as an indented tree with box-drawing connectors.
// Done tasks get a green ✔, in-progress tasks an amber ▶, and detail badges
// are right-aligned.
func RenderTree(items []TreeItem) string {
	if len(items) == 0 {
		return ""
	}

	contents := make([]string, len(items))
	badges := make([]string, len(items))
	maxWidth := 0

	for i, item := range items {
		var prefix string
		if item.Level > 0 {
			prefix = strings.Repeat(treePipe, item.Level-1)
			if item.IsLast {
				prefix += treeCorner
			} else {
				prefix += treeBranch
			}
		}

		title := item.Title
		marker := ""
		switch item.Status {
		case domain.StatusDone:
			marker = StyleGreen.Render("✔ ")
			title = Dim(title)
		case domain.StatusCancelled:
			marker = StyleDim.Render("⊘ ")
			title = Dim(title)
		case domain.StatusInProgress:
			marker = StyleYellowBold.Render("▶ ")
			title = StyleYellowBold.Render(title)
		}
		if item.ID != "" {
			title = StyleDim.Render(ShortID(item.ID)+" ") + title
		}

		contents[i] = prefix + marker + title
		if item.Detail != "" {
			badges[i] = StyleBlue.Render(fmt.Sprintf("[ %s ]", item.Detail))
		}
		if w := lipgloss.Width(contents[i]); w > maxWidth {
			maxWidth = w
		}
	}

	var b strings.Builder
	for i, content := range contents {
		b.WriteString(content)
		if badges[i] != "" {
			b.WriteString(strings.Repeat(" ", maxWidth-lipgloss.Width(content)+2))
			b.WriteString(badges[i])
		}
		b.WriteString("\n")
	}
	return b.String()
}
