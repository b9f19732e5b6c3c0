package web

import (
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/bugboard/bugboard/internal/auth/domain"
	"github.com/bugboard/bugboard/internal/breadcrumb"
	bugdomain "github.com/bugboard/bugboard/internal/bugs/domain"
	"github.com/bugboard/bugboard/internal/logging"
	"github.com/bugboard/bugboard/internal/notify"
	"github.com/bugboard/bugboard/internal/validation"
)

//go:embed templates/*.html
var templateFS embed.FS

func parseTemplates() (*template.Template, error) {
	t, err := template.New("").Funcs(funcMap()).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return t, nil
}

// Page is what every page template receives.
type Page struct {
	Title         string
	User          *domain.User
	Breadcrumbs   []breadcrumb.Link
	Notifications []notify.Notification
	Errors        validation.Errors
	// Form echoes submitted values back into a re-rendered form.
	Form map[string]string
	Data any
}

// Err is the validation message for field, or "".
func (p Page) Err(field string) string { return p.Errors.Get(field) }

// Value is the submitted value of field, or "".
func (p Page) Value(field string) string { return p.Form[field] }

// ValueOr is the submitted value of field once a form has been posted,
// else fallback. A field the user cleared stays cleared.
func (p Page) ValueOr(field, fallback string) string {
	if p.Form == nil {
		return fallback
	}
	return p.Form[field]
}

// Render writes the named page. Errors reading notifications only cost the
// toasts.
func (r *Request) Render(status int, name string, p Page) {
	if p.User == nil {
		p.User = r.User()
	}
	if p.User != nil && p.Breadcrumbs == nil {
		p.Breadcrumbs = r.Trail.Links()
	}
	list, err := r.Notes.Active(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).LogError("render_notifications", err)
	}
	p.Notifications = list
	r.c.HTML(status, name, p)
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		"markdown":    renderMarkdown,
		"statusLabel": func(s bugdomain.Status) string { return s.Label() },
		"formatValue": bugdomain.FormatValue,
		"fieldLabel":  fieldLabel,
		"date":        formatDate,
		"datetime":    formatDateTime,
		"initials":    initials,
		"title":       titleCase,
		"statuses":    func() []bugdomain.Status { return bugdomain.Statuses },
		"priorities":  func() []bugdomain.Priority { return bugdomain.Priorities },
		"dict":        dict,
		"userName": func(u *domain.User) string {
			if u == nil {
				return "Unassigned"
			}
			return u.DisplayName()
		},
	}
}

// dict builds a map from key/value pairs for select options.
func dict(pairs ...string) (map[string]string, error) {
	if len(pairs)%2 != 0 {
		return nil, fmt.Errorf("dict: odd number of arguments")
	}
	m := make(map[string]string, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		m[pairs[i]] = pairs[i+1]
	}
	return m, nil
}

func fieldLabel(field string) string {
	switch field {
	case "assignedTo":
		return "Assignee"
	case "status":
		return "Status"
	case "priority":
		return "Priority"
	}
	return titleCase(field)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("Jan 2, 2006")
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("Jan 2, 2006 15:04")
}

func initials(name string) string {
	var b strings.Builder
	for _, f := range strings.Fields(name) {
		for _, r := range f {
			b.WriteString(strings.ToUpper(string(r)))
			break
		}
		if b.Len() >= 2 {
			break
		}
	}
	if b.Len() == 0 {
		return "?"
	}
	return b.String()
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
