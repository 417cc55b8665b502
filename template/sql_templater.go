package template

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path"
	"text/template"
)

// ExecuteSqlTemplate renders the SQL template at templatePath on disk.
func ExecuteSqlTemplate(templatePath string, params map[string]any, funcs template.FuncMap) (string, error) {
	content, err := os.ReadFile(templatePath)
	if err != nil {
		return "", err
	}
	return render(templatePath, string(content), params, funcs)
}

// ExecuteSqlTemplateFS renders a template read from fsys. funcs is optional and
// is installed before parsing, so templates may call e.g. {{table "name"}}.
func ExecuteSqlTemplateFS(fsys fs.FS, templatePath string, params map[string]any, funcs template.FuncMap) (string, error) {
	content, err := fs.ReadFile(fsys, templatePath)
	if err != nil {
		return "", fmt.Errorf("failed to read template %s: %w", templatePath, err)
	}
	return render(templatePath, string(content), params, funcs)
}

func render(name, content string, params map[string]any, funcs template.FuncMap) (string, error) {
	tmpl := template.New(path.Base(name)).Option("missingkey=error")
	if funcs != nil {
		tmpl = tmpl.Funcs(funcs)
	}
	tmpl, err := tmpl.Parse(content)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, params); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}

	return buf.String(), nil
}
