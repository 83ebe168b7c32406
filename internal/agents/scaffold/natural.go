package scaffold

import (
	"regexp"
	"strings"
)

type section int

const (
	sectionNone section = iota
	sectionAPI
	sectionModel
	sectionEndpoint
)

var sectionPrefixes = []struct {
	prefix string
	sec    section
}{
	{"api:", sectionAPI},
	{"app:", sectionAPI},
	{"aplicación:", sectionAPI},
	{"aplicacion:", sectionAPI},
	{"model:", sectionModel},
	{"modelo:", sectionModel},
	{"entity:", sectionModel},
	{"entidad:", sectionModel},
	{"endpoint:", sectionEndpoint},
	{"route:", sectionEndpoint},
	{"ruta:", sectionEndpoint},
}

func sectionOf(line string) (section, string, bool) {
	l := strings.TrimSpace(line)
	lower := strings.ToLower(l)
	for _, p := range sectionPrefixes {
		if strings.HasPrefix(lower, p.prefix) {
			return p.sec, strings.TrimSpace(l[len(p.prefix):]), true
		}
	}
	return sectionNone, "", false
}

var (
	explicitRouteRe = regexp.MustCompile(`(?i)^(get|post|put|patch|delete)\s+(/\S*)`)
	paramRe         = regexp.MustCompile(`(?i)(?:parameter|parámetro|parametro|param)\s*:?\s*([\p{L}\p{N}_]+)`)
	entityRe        = regexp.MustCompile(`\b(usuario|producto|pedido|cliente|orden|user|product|order|customer)(?:e?s)?\b`)
	listWordsRe     = regexp.MustCompile(`\b(list|listar|all|todos|todas)\b`)
)

var methodPatterns = []struct {
	method string
	re     *regexp.Regexp
}{
	{"get", regexp.MustCompile(`\b(get|fetch|show|obtener|listar|list|mostrar)\b`)},
	{"post", regexp.MustCompile(`\b(post|create|add|new|crear|agregar|nuevo|nueva)\b`)},
	{"put", regexp.MustCompile(`\b(put|update|edit|actualizar|modificar|editar)\b`)},
	{"delete", regexp.MustCompile(`\b(delete|remove|eliminar|borrar)\b`)},
}

type pendingEndpoint struct {
	desc   string
	params []rawParam
}

// parseNatural reads "api:", "model:" and "endpoint:" sections. Model
// sections hold "- name: type [required|optional|unique]" lines.
func parseNatural(text string) raw {
	var r raw
	var pending []*pendingEndpoint
	cur := sectionNone
	var model *rawModel
	var ep *pendingEndpoint

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if sec, value, ok := sectionOf(line); ok {
			cur = sec
			switch sec {
			case sectionAPI:
				r.APIInfo.Title = value
			case sectionModel:
				r.Models = append(r.Models, rawModel{Name: value})
				model = &r.Models[len(r.Models)-1]
			case sectionEndpoint:
				ep = &pendingEndpoint{desc: value}
				pending = append(pending, ep)
			}
			continue
		}

		switch cur {
		case sectionAPI:
			key, value, ok := strings.Cut(line, ":")
			if !ok {
				continue
			}
			switch strings.ToLower(strings.TrimSpace(key)) {
			case "description", "descripción", "descripcion":
				r.APIInfo.Description = strings.TrimSpace(value)
			case "version", "versión":
				r.APIInfo.Version = strings.TrimSpace(value)
			}
		case sectionModel:
			if f, ok := parseFieldLine(line); ok {
				model.Fields = append(model.Fields, f)
			}
		case sectionEndpoint:
			if !strings.HasPrefix(line, "-") {
				continue
			}
			if m := paramRe.FindStringSubmatch(line); m != nil {
				ep.params = append(ep.params, rawParam{Name: m[1]})
			}
		}
	}

	for _, p := range pending {
		e := describeEndpoint(p.desc, r.Models)
		e.Parameters = p.params
		r.Endpoints = append(r.Endpoints, e)
	}
	return r
}

func parseFieldLine(line string) (rawField, bool) {
	if !strings.HasPrefix(line, "-") {
		return rawField{}, false
	}
	name, desc, ok := strings.Cut(strings.TrimSpace(line[1:]), ":")
	if !ok {
		return rawField{}, false
	}
	f := rawField{Name: strings.TrimSpace(name), Type: strings.TrimSpace(desc)}
	lower := strings.ToLower(desc)
	switch {
	case strings.Contains(lower, "optional") || strings.Contains(lower, "opcional"):
		no := false
		f.Required = &no
	case strings.Contains(lower, "required") || strings.Contains(lower, "obligatorio"):
		yes := true
		f.Required = &yes
	}
	f.Unique = strings.Contains(lower, "unique") || strings.Contains(lower, "único") || strings.Contains(lower, "unico")
	return f, true
}

// describeEndpoint turns "list users" or "GET /users/{id}" into a route.
func describeEndpoint(desc string, models []rawModel) rawEndpoint {
	if m := explicitRouteRe.FindStringSubmatch(desc); m != nil {
		return rawEndpoint{Method: strings.ToLower(m[1]), Route: m[2], Description: desc}
	}
	lower := strings.ToLower(desc)

	method := "get"
	for _, mp := range methodPatterns {
		if mp.re.MatchString(lower) {
			method = mp.method
			break
		}
	}

	entity := ""
	for _, m := range models {
		s := snake(m.Name)
		if s != "" && (strings.Contains(lower, s) || strings.Contains(lower, strings.ToLower(m.Name))) {
			entity = s
			break
		}
	}
	if entity == "" {
		if m := entityRe.FindStringSubmatch(lower); m != nil {
			entity = m[1]
		} else {
			entity = "resource"
		}
	}

	route := "/" + plural(entity) + "/{id}"
	if method == "post" || (method == "get" && listWordsRe.MatchString(lower)) {
		route = "/" + plural(entity)
	}
	return rawEndpoint{Name: method + "_" + entity, Method: method, Route: route, Description: desc}
}
