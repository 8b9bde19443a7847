package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/cloudops-labs/cis-auditor/internal/models"
)

// ANSI color codes for risk output (used when Colored=true).
const (
	ansiReset  = "\033[0m"
	ansiRed    = "\033[0;31m"
	ansiYellow = "\033[0;33m"
	ansiBlue   = "\033[0;34m"
)

// TableOptions controls how RenderTable renders findings.
type TableOptions struct {
	// Colored wraps risk labels with ANSI codes. Default false (CI-safe).
	Colored bool

	// IncludeRule adds a CIS RULE column.
	IncludeRule bool
}

// ColorRisk wraps a risk string with ANSI codes when colored is true.
// When colored is false the string is returned unchanged (CI-safe default).
func ColorRisk(risk models.RiskLevel, colored bool) string {
	s := string(risk)
	if !colored {
		return s
	}
	switch risk {
	case models.RiskHigh:
		return ansiRed + s + ansiReset
	case models.RiskMedium:
		return ansiYellow + s + ansiReset
	case models.RiskLow:
		return ansiBlue + s + ansiReset
	default:
		return s
	}
}

// ShortenMessage truncates msg to at most max runes, appending "..." when truncated.
// max is treated as at least 4 to guarantee space for the ellipsis.
func ShortenMessage(msg string, max int) string {
	if max < 4 {
		max = 4
	}
	runes := []rune(msg)
	if len(runes) <= max {
		return msg
	}
	return string(runes[:max-3]) + "..."
}

// riskCell returns the risk padded to width characters.
// When colored, ANSI codes wrap only the text; trailing padding spaces are plain
// so subsequent columns stay visually aligned regardless of terminal ANSI support.
func riskCell(risk models.RiskLevel, width int, colored bool) string {
	text := string(risk)
	if !colored {
		return fmt.Sprintf("%-*s", width, text)
	}
	var code string
	switch risk {
	case models.RiskHigh:
		code = ansiRed
	case models.RiskMedium:
		code = ansiYellow
	case models.RiskLow:
		code = ansiBlue
	default:
		return fmt.Sprintf("%-*s", width, text)
	}
	spaces := width - len(text)
	if spaces < 0 {
		spaces = 0
	}
	return code + text + ansiReset + strings.Repeat(" ", spaces)
}

// truncateField shortens s to at most max bytes for ID/label columns.
func truncateField(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}

// RenderTable writes a formatted findings table to w.
//
// Column order:
//
//	RESOURCE  TYPE  RISK  ISSUE  [CIS RULE]
func RenderTable(w io.Writer, findings []models.Finding, opts TableOptions) {
	if len(findings) == 0 {
		fmt.Fprintln(w, "No findings.")
		return
	}

	// Fixed column display widths.
	const (
		wResource = 32
		wType     = 18
		wRisk     = 8
		wIssue    = 50
	)

	var hb strings.Builder
	hb.WriteString(fmt.Sprintf("%-*s", wResource, "RESOURCE"))
	hb.WriteString(fmt.Sprintf("  %-*s", wType, "TYPE"))
	hb.WriteString(fmt.Sprintf("  %-*s", wRisk, "RISK"))
	hb.WriteString(fmt.Sprintf("  %-*s", wIssue, "ISSUE"))
	if opts.IncludeRule {
		hb.WriteString("  CIS RULE")
	}
	header := hb.String()

	fmt.Fprintln(w, header)
	fmt.Fprintln(w, strings.Repeat("-", len(header)))

	for _, f := range findings {
		var rb strings.Builder
		rb.WriteString(fmt.Sprintf("%-*s", wResource, truncateField(f.Resource, wResource)))
		rb.WriteString(fmt.Sprintf("  %-*s", wType, truncateField(f.Type, wType)))
		rb.WriteString("  " + riskCell(f.Risk, wRisk, opts.Colored))
		rb.WriteString(fmt.Sprintf("  %-*s", wIssue, ShortenMessage(f.Issue, wIssue)))
		if opts.IncludeRule {
			rb.WriteString("  " + f.CISRule)
		}
		fmt.Fprintln(w, rb.String())
	}
}
