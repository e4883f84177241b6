package build

import (
	"context"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/a-h/templ"
	"github.com/conneroisu/unreact/internal/errors"
)

// GlobalKey is the template data key holding the site globals.
const GlobalKey = "GLOBAL"

type pageKind int

const (
	pageTemplate pageKind = iota
	pageRaw
	pageComponent
)

// page is one registered route before rendering.
type page struct {
	kind      pageKind
	template  string
	data      map[string]interface{}
	raw       string
	component templ.Component
}

// render turns the page into a templ.Component against the loaded templates.
func (p page) render(set *template.Template, globals map[string]interface{}) templ.Component {
	switch p.kind {
	case pageRaw:
		return templ.Raw(p.raw)
	case pageComponent:
		return p.component
	default:
		return templatePage(set, p.template, p.data, globals)
	}
}

// templatePage executes the named template with data plus the globals under
// GlobalKey.
func templatePage(set *template.Template, name string, data, globals map[string]interface{}) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		t := set.Lookup(name)
		if t == nil {
			return errors.NewBuildError(errors.CodeRenderTemplate,
				fmt.Sprintf("template %q not found", name), nil)
		}

		values := make(map[string]interface{}, len(data)+1)
		for k, v := range data {
			values[k] = v
		}
		values[GlobalKey] = globals

		if err := t.Execute(w, values); err != nil {
			return errors.NewBuildError(errors.CodeRenderTemplate,
				fmt.Sprintf("cannot render template %q", name), err)
		}
		return nil
	})
}

// templateFuncs are the helpers available to every template.
func templateFuncs(siteURL string) template.FuncMap {
	return template.FuncMap{
		"URL": func() string {
			return siteURL
		},
		"concat": func(parts ...interface{}) string {
			var b strings.Builder
			for _, part := range parts {
				fmt.Fprint(&b, part)
			}
			return b.String()
		},
		"css": func(name string) string {
			return siteURL + "styles/" + strings.Trim(name, "/") + "/style.css"
		},
	}
}

// loadTemplates parses every file below dir into one set, each named by its
// slash path relative to dir without the extension, so templates can include
// each other with {{template "partials/nav" .}}.
func loadTemplates(dir, siteURL string, strict bool) (*template.Template, error) {
	set := template.New("").Funcs(templateFuncs(siteURL))
	if strict {
		set = set.Option("missingkey=error")
	}

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		name := strings.TrimSuffix(filepath.ToSlash(rel), filepath.Ext(rel))

		content, err := os.ReadFile(path)
		if err != nil {
			return errors.NewIOError(errors.CodeFileRead, "cannot read template", err).WithPath(path)
		}
		if _, err := set.New(name).Parse(string(content)); err != nil {
			return errors.NewBuildError(errors.CodeParseTemplate,
				fmt.Sprintf("cannot parse template %q", name), err).WithPath(path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return set, nil
}

// routeFile maps a route path to its output file.
func routeFile(route string) string {
	switch route = strings.Trim(route, "/"); route {
	case "":
		return "index.html"
	case "404":
		return "404.html"
	default:
		return route + "/index.html"
	}
}
