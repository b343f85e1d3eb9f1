// Package core holds the template helpers shared by every page.
package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"

	"github.com/edukit/admin-dashboard/internal/domain/model"
)

// FriendlyDateTimeLayout is how timestamps are shown in tables.
const FriendlyDateTimeLayout = "Jan 2, 2006 3:04 PM"

// DateInputLayout is the value format of <input type="date">.
const DateInputLayout = "2006-01-02"

// Deps holds optional dependencies for constructing the core template func map.
type Deps struct {
	Template           **template.Template
	ContentTemplateFor func(string) string
}

// Funcs returns a template.FuncMap containing helpers that are broadly useful across templates.
func Funcs(deps Deps) template.FuncMap {
	funcs := template.FuncMap{
		"sectionTmpl":       deps.ContentTemplateFor,
		"friendlyTime":      friendlyTime,
		"dateInput":         dateInput,
		"add":               func(a, b int) int { return a + b },
		"sub":               func(a, b int) int { return a - b },
		"formatNumber":      formatNumberTemplate,
		"verificationClass": verificationClass,
		"verificationLabel": func(v model.VerificationStatus) string { return v.Label() },
		"truncateText":      TruncateText,
	}

	addRenderFuncs(funcs, deps)
	return funcs
}

func addRenderFuncs(funcs template.FuncMap, deps Deps) {
	funcs["renderSection"] = func(page string, data any) (template.HTML, error) {
		if deps.Template == nil || *deps.Template == nil {
			return "", errors.New("template not initialized")
		}
		var buf bytes.Buffer
		if err := (*deps.Template).ExecuteTemplate(&buf, deps.ContentTemplateFor(page), data); err != nil {
			return "", err
		}
		// #nosec G203 - rendered by our own html/template set; values were escaped above.
		return template.HTML(buf.String()), nil
	}

	funcs["toJSON"] = func(v any) (string, error) {
		b, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}

func asTime(ts any) time.Time {
	switch v := ts.(type) {
	case time.Time:
		return v
	case *time.Time:
		if v != nil {
			return *v
		}
	}
	return time.Time{}
}

func friendlyTime(ts any) string {
	t0 := asTime(ts)
	if t0.IsZero() {
		return ""
	}
	return t0.Local().Format(FriendlyDateTimeLayout)
}

func dateInput(ts any) string {
	return FormatDateInput(asTime(ts))
}

// FormatDateInput formats t for a date input; the zero time is empty.
func FormatDateInput(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(DateInputLayout)
}

// formatNumberTemplate formats integers with comma separators for thousands.
func formatNumberTemplate(v any) string {
	var n int64
	switch x := v.(type) {
	case int:
		n = int64(x)
	case int64:
		n = x
	case int32:
		n = int64(x)
	default:
		return fmt.Sprint(v)
	}

	neg := n < 0
	var s string
	if neg {
		s = strconv.FormatUint(uint64(-n), 10)
	} else {
		s = strconv.FormatUint(uint64(n), 10)
	}
	if len(s) > 3 {
		s = withCommas(s)
	}
	if neg {
		return "-" + s
	}
	return s
}

func withCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s) + (len(s)-1)/3)
	prefix := len(s) % 3
	if prefix == 0 {
		prefix = 3
	}
	b.WriteString(s[:prefix])
	for i := prefix; i < len(s); i += 3 {
		b.WriteByte(',')
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

func verificationClass(v model.VerificationStatus) string {
	switch v {
	case model.VerificationVerified:
		return "badge-success"
	case model.VerificationUnderReview:
		return "badge-info"
	case model.VerificationRejected, model.VerificationBlocked:
		return "badge-danger"
	default:
		return "badge-secondary"
	}
}

// TruncateText truncates a string to at most maxLen runes, ending in an ellipsis when cut.
func TruncateText(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen > 1 {
		return string(runes[:maxLen-1]) + "…"
	}
	return string(runes[:1])
}
