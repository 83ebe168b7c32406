// Package prompts renders the bot's reply texts from named templates.
package prompts

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"text/template"
)

var (
	ErrUnknownTemplate  = errors.New("unknown template")
	ErrMissingVariables = errors.New("missing template variables")
)

type Category string

const (
	CategoryDelivery    Category = "delivery"
	CategoryReservation Category = "reservation"
	CategoryDesign      Category = "design"
	CategoryScaffold    Category = "scaffold"
	CategoryGeneral     Category = "general"
)

type Kind string

const (
	KindWelcome       Kind = "welcome"
	KindConfirmation  Kind = "confirmation"
	KindError         Kind = "error"
	KindRequestInfo   Kind = "request_info"
	KindSuggestion    Kind = "suggestion"
	KindInstruction   Kind = "instruction"
	KindClarification Kind = "clarification"
	KindSuccess       Kind = "success"
	KindWarning       Kind = "warning"
)

// Template is a registered prompt. Text uses text/template syntax with the
// variables as top-level map keys, e.g. {{.order_id}}.
type Template struct {
	ID        string
	Category  Category
	Kind      Kind
	Text      string
	Variables []string
	Priority  int

	tmpl *template.Template
}

// Usage summarizes how templates have been rendered.
type Usage struct {
	Total      int
	Registered int
	MostUsed   string
	MostUsedN  int
	ByTemplate map[string]int
	ByCategory map[Category]int
	ByKind     map[Kind]int
}

type Manager struct {
	mu        sync.RWMutex
	templates map[string]*Template
	counts    map[string]int
}

// NewManager returns a manager preloaded with the bot's default templates.
func NewManager() *Manager {
	m := &Manager{
		templates: make(map[string]*Template),
		counts:    make(map[string]int),
	}
	for _, t := range defaultTemplates {
		if err := m.Register(t); err != nil {
			panic(fmt.Sprintf("prompts: default template %s: %v", t.ID, err))
		}
	}
	return m
}

// Register adds or replaces a template.
func (m *Manager) Register(t Template) error {
	tmpl, err := template.New(t.ID).Option("missingkey=error").Parse(t.Text)
	if err != nil {
		return fmt.Errorf("parsing template %s: %w", t.ID, err)
	}
	t.tmpl = tmpl

	m.mu.Lock()
	defer m.mu.Unlock()
	m.templates[t.ID] = &t
	return nil
}

// Render fills template id with vars.
func (m *Manager) Render(id string, vars map[string]any) (string, error) {
	m.mu.RLock()
	t, ok := m.templates[id]
	m.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%s: %w", id, ErrUnknownTemplate)
	}

	var missing []string
	for _, v := range t.Variables {
		if _, ok := vars[v]; !ok {
			missing = append(missing, v)
		}
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("%s needs %s: %w", id, strings.Join(missing, ", "), ErrMissingVariables)
	}
	if vars == nil {
		vars = map[string]any{}
	}

	var buf bytes.Buffer
	if err := t.tmpl.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("rendering %s: %w", id, err)
	}

	m.mu.Lock()
	m.counts[id]++
	m.mu.Unlock()
	return buf.String(), nil
}

// MustRender is Render for templates whose variables the caller controls.
// Failures come back as the error text so a reply is always produced.
func (m *Manager) MustRender(id string, vars map[string]any) string {
	out, err := m.Render(id, vars)
	if err != nil {
		return "Sorry, something went wrong: " + err.Error()
	}
	return out
}

// Contextual renders the highest priority template for category and kind,
// falling back to the general category.
func (m *Manager) Contextual(category Category, kind Kind, vars map[string]any) (string, error) {
	for _, c := range []Category{category, CategoryGeneral} {
		if t := m.best(c, kind); t != nil {
			return m.Render(t.ID, vars)
		}
	}
	return "", fmt.Errorf("%s/%s: %w", category, kind, ErrUnknownTemplate)
}

func (m *Manager) best(c Category, k Kind) *Template {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var best *Template
	for _, t := range m.templates {
		if t.Category != c || t.Kind != k {
			continue
		}
		if best == nil || t.Priority > best.Priority || (t.Priority == best.Priority && t.ID < best.ID) {
			best = t
		}
	}
	return best
}

func (m *Manager) Get(id string) (Template, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.templates[id]
	if !ok {
		return Template{}, false
	}
	return *t, true
}

// Search matches query against template ids, text and variable names.
func (m *Manager) Search(query string) []Template {
	q := strings.ToLower(query)
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Template
	for _, t := range m.templates {
		if strings.Contains(strings.ToLower(t.ID), q) || strings.Contains(strings.ToLower(t.Text), q) || hasVar(t.Variables, q) {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func hasVar(vars []string, q string) bool {
	for _, v := range vars {
		if strings.Contains(strings.ToLower(v), q) {
			return true
		}
	}
	return false
}

func (m *Manager) Usage() Usage {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u := Usage{
		Registered: len(m.templates),
		ByTemplate: make(map[string]int, len(m.counts)),
		ByCategory: make(map[Category]int),
		ByKind:     make(map[Kind]int),
	}
	for id, n := range m.counts {
		t := m.templates[id]
		u.Total += n
		u.ByTemplate[id] = n
		if t != nil {
			u.ByCategory[t.Category] += n
			u.ByKind[t.Kind] += n
		}
		if n > u.MostUsedN || (n == u.MostUsedN && id < u.MostUsed) {
			u.MostUsed, u.MostUsedN = id, n
		}
	}
	return u
}
