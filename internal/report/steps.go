package report

import (
	"fmt"

	"buildlens/internal/classify"
	"buildlens/internal/diag"
)

// maxCategorySteps caps the per-category advice in NextSteps.
const maxCategorySteps = 5

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

// nextSteps derives the recommended actions from the folded report.
func nextSteps(r *AnalysisReport) []string {
	var steps []string
	for _, s := range r.Sources {
		if s.Error != "" {
			steps = append(steps, fmt.Sprintf("Check log source %s: %s.", s.Name, s.Error))
		}
	}
	if r.Status == StatusUnreadable {
		return append(steps, "Provide at least one readable build log.")
	}
	if r.Totals.Issues == 0 {
		noLog := false
		for _, s := range r.Sources {
			if s.Error == "" && !s.LooksLikeBuildLog {
				noLog = true
			}
		}
		if noLog {
			steps = append(steps, "Some inputs do not look like build logs; make sure the full compiler output was captured.")
		}
		return append(steps, "No issues found; nothing to do.")
	}

	if r.Remediation.Ran && r.Totals.Edits > 0 {
		if r.Remediation.Written {
			steps = append(steps, fmt.Sprintf("Review the %s written to %s and rebuild.",
				plural(r.Totals.Edits, "automatic edit"), plural(len(r.Batches), "file")))
		} else {
			steps = append(steps, fmt.Sprintf("Review the %s proposed for %s; re-run with --write to apply them.",
				plural(r.Totals.Edits, "automatic edit"), plural(len(r.Batches), "file")))
		}
	}

	// в том же порядке, что и таблица категорий
	for i, c := range r.ByCategory {
		if i == maxCategorySteps {
			break
		}
		cat, _ := diag.ParseCategory(c.Name)
		steps = append(steps, fmt.Sprintf("%s (%s): %s",
			c.Name, plural(c.Count, "issue"), classify.Suggest(cat, classify.Params{})))
	}

	if hasProximity(r.Groups) {
		steps = append(steps, "Start with the first issue of each related group; later ones are often follow-on errors.")
	}
	return append(steps, "Rebuild and re-run the analysis to confirm the remaining issues.")
}

func hasProximity(groups []GroupEntry) bool {
	for _, g := range groups {
		if g.Kind == "proximity" {
			return true
		}
	}
	return false
}
