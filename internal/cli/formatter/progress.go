package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/cybertask/internal/domain"
)

const (
	filledBlock = "█"
	emptyBlock  = "░"
)

// RenderProgress renders a progress bar like [████░░░░] 45%.
// The bar is green above 66%, yellow from 33% and red below.
func RenderProgress(pct float64, width int) string {
	pct = clamp01(pct)
	if width < 2 {
		width = 2
	}

	filled := int(pct * float64(width))
	bar := strings.Repeat(filledBlock, filled) + strings.Repeat(emptyBlock, width-filled)

	style := StyleGreen
	if pct < 0.33 {
		style = StyleRed
	} else if pct < 0.66 {
		style = StyleYellow
	}
	return fmt.Sprintf("[%s] %3.0f%%", style.Render(bar), pct*100)
}

// Completion returns the share of non-cancelled tasks that are DONE.
// A project with nothing left to count is complete.
func Completion(tasks []*domain.Task) float64 {
	var done, counted int
	for _, t := range tasks {
		switch t.Status {
		case domain.StatusCancelled:
			continue
		case domain.StatusDone:
			done++
		}
		counted++
	}
	if counted == 0 {
		return 1
	}
	return float64(done) / float64(counted)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
