package platformapi

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	jmespath "github.com/jmespath-community/go-jmespath"
)

// Evaluator abstracts JMESPath operations for testability.
type Evaluator interface {
	Validate(expr string) error
	Evaluate(expr string, data any) (any, error)
}

// jmespathLibEvaluator implements Evaluator using go-jmespath.
type jmespathLibEvaluator struct{}

func (jmespathLibEvaluator) Validate(expr string) error {
	if strings.TrimSpace(expr) == "" {
		return nil
	}
	_, err := jmespath.Compile(expr)
	return err
}

func (jmespathLibEvaluator) Evaluate(expr string, data any) (any, error) {
	return jmespath.Search(expr, data)
}

// Mapping locates fields inside platform response bodies. Each value is a
// JMESPath expression evaluated against the decoded JSON document.
type Mapping struct {
	Rows       string
	Row        string
	TotalPages string
	Token      string
	Identity   string
	ID         string
	Message    string
}

// DefaultMapping matches the platform's documented response envelopes.
func DefaultMapping() Mapping {
	return Mapping{
		Rows:       "rows || data.rows",
		Row:        "row || data.row || data || @",
		TotalPages: "totalPages || data.totalPages",
		Token:      "accessToken || data.accessToken || token",
		Identity:   "admin || data.admin || user",
		ID:         "_id || data._id || id",
		Message:    "message || error.message || error",
	}
}

func (m Mapping) withDefaults() Mapping {
	d := DefaultMapping()
	pick := func(v, def string) string {
		if strings.TrimSpace(v) == "" {
			return def
		}
		return v
	}
	return Mapping{
		Rows:       pick(m.Rows, d.Rows),
		Row:        pick(m.Row, d.Row),
		TotalPages: pick(m.TotalPages, d.TotalPages),
		Token:      pick(m.Token, d.Token),
		Identity:   pick(m.Identity, d.Identity),
		ID:         pick(m.ID, d.ID),
		Message:    pick(m.Message, d.Message),
	}
}

// Validate compiles every expression.
func (m Mapping) Validate(ev Evaluator) error {
	for name, expr := range map[string]string{
		"rows": m.Rows, "row": m.Row, "totalPages": m.TotalPages, "token": m.Token,
		"identity": m.Identity, "id": m.ID, "message": m.Message,
	} {
		if err := ev.Validate(expr); err != nil {
			return fmt.Errorf("invalid %s mapping %q: %w", name, expr, err)
		}
	}
	return nil
}

// document is a decoded response body queried through the mapping.
type document struct {
	data any
	ev   Evaluator
}

func parseDocument(payload []byte, ev Evaluator) (document, error) {
	doc := document{ev: ev}
	if len(strings.TrimSpace(string(payload))) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(payload, &doc.data); err != nil {
		return doc, fmt.Errorf("decode response: %w", err)
	}
	return doc, nil
}

func (d document) search(expr string) (any, error) {
	if d.data == nil {
		return nil, nil
	}
	return d.ev.Evaluate(expr, d.data)
}

// decode evaluates expr and decodes the result into out.
// It reports false when the expression selected nothing.
func (d document) decode(expr string, out any) (bool, error) {
	v, err := d.search(expr)
	if err != nil {
		return false, err
	}
	if v == nil {
		return false, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, err
	}
	return true, nil
}

func (d document) str(expr string) string {
	v, err := d.search(expr)
	if err != nil {
		return ""
	}
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func (d document) integer(expr string) (int, bool) {
	v, err := d.search(expr)
	if err != nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return int(math.Ceil(n)), true
	case int:
		return n, true
	default:
		return 0, false
	}
}
