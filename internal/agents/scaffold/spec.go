package scaffold

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	ErrInvalidSpec   = errors.New("invalid API specification")
	ErrUnknownFormat = errors.New("unknown specification format")
	ErrNoModels      = errors.New("specification defines no models")
)

// Format selects how a specification is read.
type Format string

const (
	FormatAuto    Format = "auto"
	FormatNatural Format = "natural"
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatAuto, nil
	case FormatAuto, FormatNatural, FormatJSON, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%q: %w", s, ErrUnknownFormat)
}

// Field types after normalization.
const (
	TypeString   = "string"
	TypeInteger  = "integer"
	TypeFloat    = "float"
	TypeBoolean  = "boolean"
	TypeDateTime = "datetime"
	TypeEmail    = "email"
	TypePhone    = "phone"
)

type Field struct {
	Name     string
	Type     string
	Required bool
	Unique   bool
	Ref      string // model this field points at, if any
}

type Model struct {
	Name          string
	Description   string
	Fields        []Field
	Relationships []string
}

type Endpoint struct {
	Name        string
	Method      string
	Route       string
	Description string
	Params      []string
}

// API is a normalized specification.
type API struct {
	Title       string
	Description string
	Version     string
	Models      []Model
	Endpoints   []Endpoint
}

// raw mirrors the JSON and YAML document layout.
type raw struct {
	APIInfo struct {
		Title       string `json:"title" yaml:"title"`
		Description string `json:"description" yaml:"description"`
		Version     string `json:"version" yaml:"version"`
	} `json:"api_info" yaml:"api_info"`
	Models    []rawModel    `json:"models" yaml:"models"`
	Endpoints []rawEndpoint `json:"endpoints" yaml:"endpoints"`
}

type rawModel struct {
	Name          string     `json:"name" yaml:"name"`
	Description   string     `json:"description" yaml:"description"`
	Fields        []rawField `json:"fields" yaml:"fields"`
	Relationships []string   `json:"relationships" yaml:"relationships"`
}

type rawField struct {
	Name     string `json:"name" yaml:"name"`
	Type     string `json:"type" yaml:"type"`
	Required *bool  `json:"required" yaml:"required"`
	Unique   bool   `json:"unique" yaml:"unique"`
}

type rawParam struct {
	Name string `json:"name" yaml:"name"`
}

type rawEndpoint struct {
	Name        string     `json:"name" yaml:"name"`
	Method      string     `json:"method" yaml:"method"`
	Route       string     `json:"route" yaml:"route"`
	Description string     `json:"description" yaml:"description"`
	Parameters  []rawParam `json:"parameters" yaml:"parameters"`
}

// Parse reads a specification in the given format. FormatAuto picks JSON
// for a leading brace, natural language when the first line is a section
// header, and YAML otherwise.
func Parse(text string, format Format) (API, error) {
	if format == "" || format == FormatAuto {
		format = detect(text)
	}
	var r raw
	switch format {
	case FormatNatural:
		r = parseNatural(text)
	case FormatJSON:
		if err := json.Unmarshal([]byte(text), &r); err != nil {
			return API{}, fmt.Errorf("%w: %v", ErrInvalidSpec, err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal([]byte(text), &r); err != nil {
			return API{}, fmt.Errorf("%w: %v", ErrInvalidSpec, err)
		}
	default:
		return API{}, fmt.Errorf("%q: %w", format, ErrUnknownFormat)
	}
	return normalize(r)
}

func detect(text string) Format {
	t := strings.TrimSpace(text)
	if strings.HasPrefix(t, "{") {
		return FormatJSON
	}
	first, _, _ := strings.Cut(t, "\n")
	if _, _, ok := sectionOf(first); ok {
		return FormatNatural
	}
	return FormatYAML
}

var typeKeywords = []struct {
	typ      string
	keywords []string
}{
	{TypeString, []string{"string", "str", "text", "texto", "cadena"}},
	{TypeInteger, []string{"int", "integer", "entero", "número", "numero", "number"}},
	{TypeFloat, []string{"float", "decimal", "real", "money", "price"}},
	{TypeBoolean, []string{"bool", "boolean", "booleano"}},
	{TypeDateTime, []string{"datetime", "date", "fecha", "timestamp"}},
	{TypeEmail, []string{"email", "correo"}},
	{TypePhone, []string{"phone", "teléfono", "telefono"}},
}

func fieldType(desc string) string {
	d := strings.ToLower(desc)
	for _, tk := range typeKeywords {
		for _, k := range tk.keywords {
			if strings.Contains(d, k) {
				return tk.typ
			}
		}
	}
	return TypeString
}

var validMethods = map[string]bool{"get": true, "post": true, "put": true, "patch": true, "delete": true}

func normalize(r raw) (API, error) {
	api := API{
		Title:       strings.TrimSpace(r.APIInfo.Title),
		Description: strings.TrimSpace(r.APIInfo.Description),
		Version:     strings.TrimSpace(r.APIInfo.Version),
	}
	if api.Title == "" {
		api.Title = "Generated API"
	}
	if api.Description == "" {
		api.Description = "Auto-generated REST API"
	}
	if api.Version == "" {
		api.Version = "1.0.0"
	}

	known := make(map[string]string)
	for _, m := range r.Models {
		if name := strings.TrimSpace(m.Name); name != "" {
			known[strings.ToLower(name)] = name
		}
	}

	for _, rm := range r.Models {
		m := Model{Name: strings.TrimSpace(rm.Name), Description: strings.TrimSpace(rm.Description)}
		if m.Name == "" {
			return API{}, fmt.Errorf("%w: model without a name", ErrInvalidSpec)
		}
		rels := make(map[string]bool)
		addRel := func(name string) {
			if !rels[name] {
				rels[name] = true
				m.Relationships = append(m.Relationships, name)
			}
		}
		for _, rel := range rm.Relationships {
			if target, ok := known[strings.ToLower(strings.TrimSpace(rel))]; ok {
				addRel(target)
			}
		}
		seen := make(map[string]bool)
		for _, rf := range rm.Fields {
			key := snake(rf.Name)
			if key == "" || key == "id" || seen[key] {
				continue
			}
			seen[key] = true
			f := Field{Name: strings.TrimSpace(rf.Name), Required: rf.Required == nil || *rf.Required, Unique: rf.Unique}
			word, _, _ := strings.Cut(strings.TrimSpace(rf.Type), " ")
			if target, ok := known[strings.ToLower(word)]; ok {
				f.Type = TypeInteger
				f.Ref = target
				addRel(target)
			} else {
				f.Type = fieldType(rf.Type)
			}
			m.Fields = append(m.Fields, f)
		}
		api.Models = append(api.Models, m)
	}

	names := make(map[string]int)
	for _, re := range r.Endpoints {
		e := Endpoint{
			Name:        strings.TrimSpace(re.Name),
			Method:      strings.ToLower(strings.TrimSpace(re.Method)),
			Route:       strings.TrimSpace(re.Route),
			Description: strings.TrimSpace(re.Description),
		}
		if e.Method == "" {
			e.Method = "get"
		}
		if !validMethods[e.Method] {
			return API{}, fmt.Errorf("%w: unsupported method %q", ErrInvalidSpec, re.Method)
		}
		if e.Route == "" {
			e.Route = "/"
		}
		if !strings.HasPrefix(e.Route, "/") {
			e.Route = "/" + e.Route
		}
		if e.Name == "" {
			e.Name = e.Method + "_" + routeEntity(e.Route)
		}
		names[e.Name]++
		if n := names[e.Name]; n > 1 {
			e.Name = fmt.Sprintf("%s_%d", e.Name, n)
		}
		for _, p := range re.Parameters {
			if p.Name != "" {
				e.Params = append(e.Params, p.Name)
			}
		}
		api.Endpoints = append(api.Endpoints, e)
	}
	return api, nil
}

var routeWordRe = regexp.MustCompile(`[\p{L}\p{N}_]+`)

func routeEntity(route string) string {
	words := routeWordRe.FindAllString(route, -1)
	for i := len(words) - 1; i >= 0; i-- {
		if words[i] != "id" {
			return snake(words[i])
		}
	}
	return "root"
}
