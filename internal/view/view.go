// Package view renders HTML templates with a shared func map (i18n,
// permission helpers) and a production template cache. Templates live
// under templates/; files providing a full document skip the layout.
package view

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/forneria/shop/internal/gate"
	"github.com/forneria/shop/internal/i18n"
	"github.com/forneria/shop/internal/middleware"
)

var (
	baseDir  string
	once     sync.Once
	tplCache = struct {
		sync.RWMutex
		m map[string]*template.Template
	}{m: map[string]*template.Template{}}
)

// Authorizer answers the template-level permission questions ("can the
// current user see this button").
type Authorizer interface {
	Can(ctx context.Context, action gate.Action, resourceType string) bool
	IsAdmin(ctx context.Context) bool
}

var authorizer Authorizer

// SetAuthorizer wires the gate used by the can/isAdmin template funcs.
// Call once during bootstrap.
func SetAuthorizer(a Authorizer) { authorizer = a }

func detectBase() {
	candidates := []string{"templates", "../templates", "../../templates"}
	for _, c := range candidates {
		if fi, err := os.Stat(filepath.Clean(c)); err == nil && fi.IsDir() {
			baseDir = filepath.Clean(c)
			return
		}
	}
	baseDir = "templates"
}

// Funcs returns the standard func map including i18n and permission
// helpers.
func Funcs(r *http.Request) template.FuncMap {
	lang := middleware.LangFrom(r)
	return template.FuncMap{
		"t":    func(code string) string { return i18n.T(lang, code) },
		"lang": func() string { return lang },
		"year": func() int { return time.Now().Year() },
		"add":  func(a, b int) int { return a + b },
		"can": func(action, resource string) bool {
			if authorizer == nil {
				return false
			}
			return authorizer.Can(r.Context(), gate.Action(action), resource)
		},
		"isAdmin": func() bool {
			if authorizer == nil {
				return false
			}
			return authorizer.IsAdmin(r.Context())
		},
	}
}

// Render parses and executes a template file with the shared funcs.
// name is the filename relative to templates/ (e.g. "products/list.html").
func Render(w http.ResponseWriter, r *http.Request, name string, data map[string]any) error {
	once.Do(detectBase)
	if data == nil {
		data = map[string]any{}
	}
	if _, exists := data["Year"]; !exists {
		data["Year"] = time.Now().Year()
	}
	if _, exists := data["Flash"]; !exists {
		if msg, ok := middleware.PopFlash(w, r); ok {
			data["Flash"] = msg
		}
	}

	key := name
	devMode := os.Getenv("DEV") == "1"
	if !devMode {
		tplCache.RLock()
		t, ok := tplCache.m[key]
		tplCache.RUnlock()
		if ok && t != nil {
			return t.Execute(w, data)
		}
	}

	mainPath := filepath.Join(baseDir, name)
	if _, err := os.Stat(mainPath); err != nil {
		return err
	}
	funcMap := Funcs(r)
	contentBytes, _ := os.ReadFile(mainPath)
	useLayout := !bytes.Contains(bytes.ToLower(contentBytes), []byte("<!doctype"))

	var t *template.Template
	layoutPath := filepath.Join(baseDir, "layout.html")
	if useLayout {
		if fi, err := os.Stat(layoutPath); err == nil && !fi.IsDir() {
			parsed, err := template.New("layout.html").Funcs(funcMap).ParseFiles(layoutPath, mainPath)
			if err != nil {
				return err
			}
			t = parsed
		} else {
			useLayout = false
		}
	}
	if !useLayout {
		parsed, err := template.New(filepath.Base(name)).Funcs(funcMap).ParseFiles(mainPath)
		if err != nil {
			return err
		}
		t = parsed
	}
	if !devMode {
		tplCache.Lock()
		tplCache.m[key] = t
		tplCache.Unlock()
	}
	if t == nil {
		return errors.New("template not cached")
	}
	return t.Execute(w, data)
}
