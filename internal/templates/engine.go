// Package templates renders the placeholder scripts attached to imported
// requests. Built-in templates are embedded; a custom directory may override
// them by file name.
package templates

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

//go:embed scripts/*.tmpl
var embedded embed.FS

const (
	PreRequestScript = "pre_request.tmpl"
	TestScript       = "test.tmpl"
)

// ScriptData is what script templates are executed with.
type ScriptData struct {
	Name     string
	Method   string
	Endpoint string
}

type Engine interface {
	Execute(name string, data any) (string, error)
}

type TextTemplateEngine struct {
	templates *template.Template
	funcs     template.FuncMap
	base      fs.FS
	customDir string
}

func DefaultFuncs() template.FuncMap {
	return template.FuncMap{
		"js":    template.JSEscapeString,
		"upper": strings.ToUpper,
		"lower": strings.ToLower,
	}
}

// NewDefaultEngine loads the built-in script templates, overridden by any
// .tmpl file in customDir.
func NewDefaultEngine(customDir string) (*TextTemplateEngine, error) {
	base, err := fs.Sub(embedded, "scripts")
	if err != nil {
		return nil, fmt.Errorf("opening embedded templates: %w", err)
	}
	return NewEngine(base, customDir, DefaultFuncs())
}

func NewEngine(base fs.FS, customDir string, funcs template.FuncMap) (*TextTemplateEngine, error) {
	e := &TextTemplateEngine{
		base:      base,
		customDir: customDir,
		funcs:     funcs,
	}
	if err := e.load(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *TextTemplateEngine) load() error {
	e.templates = template.New("").Funcs(e.funcs)

	err := fs.WalkDir(e.base, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".tmpl") {
			return nil
		}
		content, err := fs.ReadFile(e.base, path)
		if err != nil {
			return fmt.Errorf("reading embedded template %s: %w", path, err)
		}
		if _, err := e.templates.New(path).Parse(string(content)); err != nil {
			return fmt.Errorf("parsing embedded template %s: %w", path, err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("loading embedded templates: %w", err)
	}

	if e.customDir != "" {
		err = filepath.WalkDir(e.customDir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !strings.HasSuffix(path, ".tmpl") {
				return nil
			}
			content, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading custom template %s: %w", path, err)
			}
			relPath, _ := filepath.Rel(e.customDir, path)
			if _, err := e.templates.New(filepath.ToSlash(relPath)).Parse(string(content)); err != nil {
				return fmt.Errorf("parsing custom template %s: %w", path, err)
			}
			return nil
		})
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("loading custom templates: %w", err)
		}
	}

	return nil
}

func (e *TextTemplateEngine) Execute(name string, data any) (string, error) {
	tmpl := e.templates.Lookup(name)
	if tmpl == nil {
		return "", fmt.Errorf("template not found: %s", name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing template %s: %w", name, err)
	}

	return buf.String(), nil
}
