package router

import (
	"fmt"
	"html/template"
	"path/filepath"
	"time"

	"cityideas/internal/models"
	"cityideas/internal/services"
	"cityideas/internal/utils"

	"github.com/gin-contrib/multitemplate"
)

// views are registered under their path relative to views/, which is the
// name handlers pass to Render.
var views = []string{
	"index.html",
	"map.html",
	"error.html",
	"idea/list.html",
	"idea/implemented.html",
	"idea/create.html",
	"idea/detail.html",
	"user/profile.html",
	"notification/list.html",
	"auth/login.html",
	"auth/register.html",
	"admin/panel.html",
	"admin/stats.html",
	"admin/cities.html",
	"admin/city_form.html",
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"dict": func(values ...any) (map[string]any, error) {
			if len(values)%2 != 0 {
				return nil, fmt.Errorf("invalid dict call")
			}
			dict := make(map[string]any, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					return nil, fmt.Errorf("dict keys must be strings")
				}
				dict[key] = values[i+1]
			}
			return dict, nil
		},
		"add": func(a, b int) int {
			return a + b
		},
		"sub": func(a, b int) int {
			return a - b
		},
		"timeAgo": func(t time.Time) string {
			return utils.TimeAgo(t)
		},
		"date": func(t time.Time) string {
			return t.Format("02.01.2006 15:04")
		},
		"truncate":    utils.Truncate,
		"markdown":    utils.RenderMarkdown,
		"imageURL":    services.ImageURL,
		"statusTitle": services.StatusTitle,
		"statuses": func() []models.IdeaStatus {
			return []models.IdeaStatus{models.StatusPending, models.StatusApproved, models.StatusRejected, models.StatusImplemented}
		},
	}
}

// LoadTemplates assembles each view with the shared layouts, includes and
// components.
func LoadTemplates(templatesDir string) multitemplate.Renderer {
	r := multitemplate.NewRenderer()

	layouts, err := filepath.Glob(filepath.Join(templatesDir, "layouts", "*.html"))
	if err != nil {
		panic(err)
	}
	includes, err := filepath.Glob(filepath.Join(templatesDir, "includes", "*.html"))
	if err != nil {
		panic(err)
	}

	funcs := templateFuncs()
	for _, view := range views {
		files := make([]string, 0, len(layouts)+len(includes)+1)
		files = append(files, layouts...)
		files = append(files, includes...)
		files = append(files, filepath.Join(templatesDir, "views", view))
		r.AddFromFilesFuncs(view, funcs, files...)
	}
	return r
}
