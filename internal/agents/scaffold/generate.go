package scaffold

import (
	"bytes"
	"embed"
	"fmt"
	"go/format"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/template"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var goTypes = map[string]string{
	TypeString:   "string",
	TypeEmail:    "string",
	TypePhone:    "string",
	TypeInteger:  "int64",
	TypeFloat:    "float64",
	TypeBoolean:  "bool",
	TypeDateTime: "time.Time",
}

var sqlTypes = map[string]string{
	TypeString:   "TEXT",
	TypeEmail:    "TEXT",
	TypePhone:    "TEXT",
	TypeInteger:  "INTEGER",
	TypeFloat:    "REAL",
	TypeBoolean:  "BOOLEAN",
	TypeDateTime: "TIMESTAMP",
}

var sqlDefaults = map[string]string{
	TypeString:   "''",
	TypeEmail:    "''",
	TypePhone:    "''",
	TypeInteger:  "0",
	TypeFloat:    "0",
	TypeBoolean:  "0",
	TypeDateTime: "CURRENT_TIMESTAMP",
}

func columns(m Model) []string {
	cols := make([]string, len(m.Fields))
	for i, f := range m.Fields {
		cols[i] = snake(f.Name)
	}
	return cols
}

func prefixed(m Model, prefix string) string {
	parts := make([]string, len(m.Fields))
	for i, f := range m.Fields {
		parts[i] = prefix + export(f.Name)
	}
	return strings.Join(parts, ", ")
}

var funcs = template.FuncMap{
	"export":     export,
	"snake":      snake,
	"plural":     plural,
	"table":      table,
	"upper":      strings.ToUpper,
	"quote":      strconv.Quote,
	"goType":     func(t string) string { return goTypes[t] },
	"sqlType":    func(t string) string { return sqlTypes[t] },
	"sqlDefault": func(t string) string { return sqlDefaults[t] },
	"isText":     func(t string) bool { return goTypes[t] == "string" },
	"oneLine":    func(s string) string { return strings.Join(strings.Fields(s), " ") },
	"handler":    func(e Endpoint) string { return "serve" + export(e.Name) },
	"selectCols": func(m Model) string { return strings.Join(append([]string{"id"}, columns(m)...), ", ") },
	"scanArgs": func(m Model) string {
		if len(m.Fields) == 0 {
			return "&v.ID"
		}
		return "&v.ID, " + prefixed(m, "&v.")
	},
	"insertArgs": func(m Model) string { return prefixed(m, "v.") },
	"insertSQL": func(m Model) string {
		if len(m.Fields) == 0 {
			return strconv.Quote("INSERT INTO " + table(m.Name) + " DEFAULT VALUES")
		}
		cols := columns(m)
		marks := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
		return strconv.Quote(fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table(m.Name), strings.Join(cols, ", "), marks))
	},
}

var templates = template.Must(template.New("scaffold").Funcs(funcs).ParseFS(templateFS, "templates/*.tmpl"))

// view is what the file templates see.
type view struct {
	ID          string
	Title       string
	Description string
	Version     string
	Module      string
	Banner      string
	Models      []Model
	Endpoints   []Endpoint
	Custom      []Endpoint // endpoints not covered by generated CRUD routes
	UsesTime    bool
}

func newView(id string, api API) view {
	v := view{
		ID:          id,
		Title:       api.Title,
		Description: api.Description,
		Version:     api.Version,
		Module:      strings.ReplaceAll(snake(api.Title), "_", "-"),
		Banner:      api.Title + " " + api.Version,
		Models:      api.Models,
		Endpoints:   api.Endpoints,
	}
	if v.Module == "" {
		v.Module = "api"
	}
	crud := make(map[string]bool)
	for _, m := range api.Models {
		crud["/"+table(m.Name)] = true
		crud["/"+table(m.Name)+"/{id}"] = true
		for _, f := range m.Fields {
			if f.Type == TypeDateTime {
				v.UsesTime = true
			}
		}
	}
	for _, e := range api.Endpoints {
		if !crud[strings.TrimSuffix(e.Route, "/")] {
			v.Custom = append(v.Custom, e)
		}
	}
	return v
}

// render executes every template, formatting Go output.
func render(v view) (map[string]string, error) {
	files := make(map[string]string)
	for _, t := range templates.Templates() {
		name := t.Name()
		if !strings.HasSuffix(name, ".tmpl") {
			continue
		}
		var buf bytes.Buffer
		if err := t.Execute(&buf, v); err != nil {
			return nil, fmt.Errorf("rendering %s: %w", name, err)
		}
		out := strings.TrimSuffix(name, ".tmpl")
		content := buf.Bytes()
		if strings.HasSuffix(out, ".go") {
			formatted, err := format.Source(content)
			if err != nil {
				return nil, fmt.Errorf("formatting %s: %w", out, err)
			}
			content = formatted
		}
		files[out] = string(content)
	}
	return files, nil
}

// WriteFiles writes a generation under dir and returns the paths written.
func WriteFiles(dir string, g Generation) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	var paths []string
	for _, name := range g.FileNames() {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(g.Files[name]), 0o644); err != nil {
			return paths, fmt.Errorf("writing %s: %w", name, err)
		}
		paths = append(paths, p)
	}
	return paths, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
