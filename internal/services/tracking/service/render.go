package service

import (
	"bytes"
	"embed"
	"io/fs"
	"os"
	"strings"
	"sync"
	"text/template"
	"time"

	perr "issuebridge/internal/platform/errors"
	"issuebridge/internal/services/tracking/domain"
)

//go:embed templates
var defaultTemplates embed.FS

// Model is what comment templates see
type Model struct {
	Repository   domain.Repository
	Type         domain.ObjectType
	ID           string
	Author       Author
	Contributors map[string][]Author
	Date         time.Time
	Content      map[string]string
	Link         string
	KeyWord      string
}

// Author is a person with a display helper
type Author struct{ domain.Person }

// Label is the display name, falling back to the login name
func (a Author) Label() string {
	if a.DisplayName != "" {
		return a.DisplayName
	}
	return a.Name
}

// TemplateRenderer renders comments from <kind>/<object type>.tmpl
// Templates in the override directory shadow the embedded defaults
type TemplateRenderer struct {
	fsys  fs.FS
	funcs template.FuncMap
	cache sync.Map // path -> *template.Template
}

var (
	_ domain.ReferenceRenderer   = (*TemplateRenderer)(nil)
	_ domain.StateChangeRenderer = (*TemplateRenderer)(nil)
)

// NewTemplateRenderer uses the embedded templates, overridden by dir when non empty
func NewTemplateRenderer(dir string) *TemplateRenderer {
	base, _ := fs.Sub(defaultTemplates, "templates")
	var fsys fs.FS = base
	if dir != "" {
		fsys = overlay{top: os.DirFS(dir), base: base}
	}
	return &TemplateRenderer{
		fsys: fsys,
		funcs: template.FuncMap{
			"short": func(id string) string {
				if len(id) > 8 {
					return id[:8]
				}
				return id
			},
			"upper": strings.ToUpper,
		},
	}
}

// RenderReference renders the reference comment of obj
func (r *TemplateRenderer) RenderReference(_ string, obj domain.ReferencingObject) (string, error) {
	return r.render("reference", modelOf(obj, ""))
}

// RenderStateChange renders the comment sent alongside a transition
func (r *TemplateRenderer) RenderStateChange(_, keyword string, obj domain.ReferencingObject) (string, error) {
	return r.render("statechange", modelOf(obj, keyword))
}

func (r *TemplateRenderer) render(kind string, m Model) (string, error) {
	t, err := r.template(kind + "/" + string(m.Type) + ".tmpl")
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, m); err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeUnknown, "execute template %s/%s", kind, m.Type)
	}
	return strings.TrimSpace(buf.String()), nil
}

func (r *TemplateRenderer) template(path string) (*template.Template, error) {
	if t, ok := r.cache.Load(path); ok {
		return t.(*template.Template), nil
	}
	b, err := fs.ReadFile(r.fsys, path)
	if err != nil {
		return nil, perr.WithField(perr.NotFoundf("template %s not found", path), "template")
	}
	t, err := template.New(path).Funcs(r.funcs).Option("missingkey=zero").Parse(string(b))
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "parse template %s", path)
	}
	actual, _ := r.cache.LoadOrStore(path, t)
	return actual.(*template.Template), nil
}

func modelOf(obj domain.ReferencingObject, keyword string) Model {
	m := Model{
		Repository: obj.Repository,
		Type:       obj.Type,
		ID:         obj.ID,
		Author:     Author{obj.Author},
		Date:       obj.Date,
		Content:    obj.ContentMap(),
		Link:       obj.Link,
		KeyWord:    keyword,
	}
	if len(obj.Contributors) > 0 {
		m.Contributors = make(map[string][]Author, len(obj.Contributors))
		for role, ps := range obj.Contributors {
			for _, p := range ps {
				m.Contributors[role] = append(m.Contributors[role], Author{p})
			}
		}
	}
	return m
}

// overlay reads from top and falls back to base
type overlay struct{ top, base fs.FS }

func (o overlay) Open(name string) (fs.File, error) {
	if f, err := o.top.Open(name); err == nil {
		return f, nil
	}
	return o.base.Open(name)
}
