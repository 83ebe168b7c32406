// Package scaffold turns a short API description into a runnable Go REST
// service skeleton.
package scaffold

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/buildtall-systems/pidebot/internal/prompts"
)

// Generation is one rendered scaffold.
type Generation struct {
	ID        string
	API       API
	Files     map[string]string
	CreatedAt time.Time
}

// FileNames returns the generated file names in order.
func (g Generation) FileNames() []string {
	return sortedKeys(g.Files)
}

// Analysis estimates the work a specification describes.
type Analysis struct {
	Models          int
	Endpoints       int
	Complexity      int // 1..10
	SetupHours      int
	ModelHours      int
	EndpointHours   int
	TotalHours      int
	EstimatedDays   int
	MissingElements []string
}

type Options struct {
	Now func() time.Time
}

type Agent struct {
	prompts *prompts.Manager
	now     func() time.Time

	mu      sync.Mutex
	history []Generation
}

func New(pm *prompts.Manager, opts Options) *Agent {
	if pm == nil {
		pm = prompts.NewManager()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Agent{prompts: pm, now: opts.Now}
}

// Generate parses a specification and renders the scaffold files.
func (a *Agent) Generate(ctx context.Context, spec string, format Format) (Generation, error) {
	if err := ctx.Err(); err != nil {
		return Generation{}, err
	}
	api, err := Parse(spec, format)
	if err != nil {
		return Generation{}, err
	}
	if len(api.Models) == 0 {
		return Generation{}, ErrNoModels
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	id := fmt.Sprintf("API-%04d", len(a.history)+1)
	files, err := render(newView(id, api))
	if err != nil {
		return Generation{}, err
	}
	g := Generation{ID: id, API: api, Files: files, CreatedAt: a.now()}
	a.history = append(a.history, g)

	log.Printf("scaffold: %s generated %q with %d models, %d endpoints", id, api.Title, len(api.Models), len(api.Endpoints))
	return g, nil
}

func (a *Agent) History() []Generation {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Generation, len(a.history))
	copy(out, a.history)
	return out
}

// Analyze parses a specification and estimates its size.
func (a *Agent) Analyze(spec string, format Format) (Analysis, error) {
	api, err := Parse(spec, format)
	if err != nil {
		return Analysis{}, err
	}
	return Analyze(api), nil
}

func Analyze(api API) Analysis {
	an := Analysis{
		Models:        len(api.Models),
		Endpoints:     len(api.Endpoints),
		SetupHours:    4,
		ModelHours:    2 * len(api.Models),
		EndpointHours: len(api.Endpoints),
	}
	an.TotalHours = an.SetupHours + an.ModelHours + an.EndpointHours
	an.EstimatedDays = max(1, an.TotalHours/8)

	score := 1 + min(3, len(api.Models)/2) + min(3, len(api.Endpoints)/5)
	for _, m := range api.Models {
		score += min(2, len(m.Relationships))
	}
	an.Complexity = min(10, score)

	if len(api.Models) == 0 {
		an.MissingElements = append(an.MissingElements, "no data models defined")
	}
	if len(api.Endpoints) == 0 {
		an.MissingElements = append(an.MissingElements, "no custom endpoints defined (CRUD routes only)")
	}
	for _, m := range api.Models {
		if len(m.Fields) == 0 {
			an.MissingElements = append(an.MissingElements, fmt.Sprintf("model %s has no fields", m.Name))
		}
	}
	return an
}

// Summary renders a generation for chat.
func (a *Agent) Summary(g Generation) string {
	return a.prompts.MustRender("scaffold_complete", map[string]any{
		"generation_id": g.ID,
		"api_name":      g.API.Title,
		"files":         prompts.FormatList(g.FileNames(), prompts.Bullet),
		"next_steps":    "write the files out, run go mod tidy, then go test ./...",
	})
}

func (a *Agent) AnalysisText(an Analysis) string {
	return a.prompts.MustRender("scaffold_analysis", map[string]any{
		"complexity":      an.Complexity,
		"models_count":    an.Models,
		"endpoints_count": an.Endpoints,
		"estimated_hours": strconv.Itoa(an.TotalHours) + " (about " + pluralDays(an.EstimatedDays) + ")",
		"missing":         prompts.FormatList(an.MissingElements, prompts.Bullet),
	})
}

func pluralDays(n int) string {
	if n == 1 {
		return "1 day"
	}
	return strconv.Itoa(n) + " days"
}

// IsScaffold reports whether a chat message carries an API specification.
func IsScaffold(text string) bool {
	t := strings.TrimSpace(text)
	if _, _, ok := sectionOf(t); ok {
		return true
	}
	lower := strings.ToLower(t)
	return strings.Contains(lower, "\nmodel:") || strings.Contains(lower, "\nmodelo:") || strings.Contains(lower, "\nentity:")
}
