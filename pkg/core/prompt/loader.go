package prompt

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
	"text/template"
)

//go:embed defaults
var defaultTemplates embed.FS

// LoadDefaults registers the templates compiled into the binary.
func LoadDefaults() (int, error) {
	return LoadDefaultsInto(Get())
}

// LoadDefaultsInto registers the built-in templates into r.
func LoadDefaultsInto(r *Registry) (int, error) {
	sub, err := fs.Sub(defaultTemplates, "defaults")
	if err != nil {
		return 0, err
	}
	return LoadFromFS(r, sub)
}

// LoadFromDirectory loads all prompts and schemas from a directory structure
// Expected structure:
//
//	baseDir/
//	  prompts/
//	    flows/
//	      diagnose_plant.json
//	    assistant/
//	      navigation.json
//	  schemas/
//	    diagnosis.json
//
// Templates loaded here replace defaults with the same ID.
func LoadFromDirectory(baseDir string) (int, error) {
	if _, err := os.Stat(baseDir); err != nil {
		return 0, fmt.Errorf("prompt directory unavailable: %w", err)
	}
	return LoadFromFS(Get(), os.DirFS(baseDir))
}

// LoadFromFS loads prompts/ and the optional schemas/ tree from fsys into r
// and returns the number of prompts read.
func LoadFromFS(r *Registry, fsys fs.FS) (int, error) {
	n, err := loadPrompts(r, fsys, "prompts")
	if err != nil {
		return n, fmt.Errorf("failed to load prompts: %w", err)
	}
	if err := loadSchemas(r, fsys, "schemas"); err != nil {
		return n, fmt.Errorf("failed to load schemas: %w", err)
	}
	return n, nil
}

func loadPrompts(r *Registry, fsys fs.FS, dir string) (int, error) {
	if _, err := fs.Stat(fsys, dir); err != nil {
		return 0, fmt.Errorf("prompts directory not found: %s", dir)
	}

	count := 0
	err := fs.WalkDir(fsys, dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path.Ext(p) != ".json" {
			return nil
		}

		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", p, err)
		}

		var pt PromptTemplate
		if err := json.Unmarshal(data, &pt); err != nil {
			return fmt.Errorf("failed to parse %s: %w", p, err)
		}

		// ID and category fall back to the file's position under prompts/
		if pt.ID == "" {
			pt.ID = generateIDFromPath(p, dir)
		}
		if pt.Category == "" {
			pt.Category = detectCategory(p, dir)
		}

		if err := r.Register(&pt); err != nil {
			return fmt.Errorf("failed to register %s: %w", pt.ID, err)
		}
		count++
		return nil
	})
	return count, err
}

func loadSchemas(r *Registry, fsys fs.FS, dir string) error {
	if _, err := fs.Stat(fsys, dir); errors.Is(err, fs.ErrNotExist) {
		return nil // Schemas are optional
	}

	return fs.WalkDir(fsys, dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path.Ext(p) != ".json" {
			return nil
		}

		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("failed to read schema %s: %w", p, err)
		}

		schema, err := ParseSchema(strings.TrimSuffix(path.Base(p), ".json"), data)
		if err != nil {
			return err
		}
		return r.RegisterSchema(schema)
	})
}

// generateIDFromPath creates a prompt ID from the file path
// e.g., "prompts/flows/market_insights.json" -> "flows.market_insights"
func generateIDFromPath(p string, baseDir string) string {
	rel := strings.TrimPrefix(p, baseDir+"/")
	rel = strings.TrimSuffix(rel, ".json")
	return strings.ReplaceAll(rel, "/", ".")
}

func detectCategory(p string, baseDir string) string {
	rel := strings.TrimPrefix(p, baseDir+"/")
	parts := strings.Split(rel, "/")
	if len(parts) > 1 {
		return parts[0]
	}
	return "default"
}

// RenderUserPrompt executes the user prompt template with the given context.
// Variables with a default are filled in when absent; a required variable
// with neither a value nor a default is an error.
func RenderUserPrompt(pt *PromptTemplate, ctx *PromptExecutionContext) (string, error) {
	if pt.UserPromptTmpl == "" {
		return "", nil
	}
	if ctx == nil {
		ctx = NewContext()
	}

	vars := make(map[string]interface{}, len(ctx.Variables)+len(pt.Variables))
	for k, v := range ctx.Variables {
		vars[k] = v
	}
	for _, v := range pt.Variables {
		if ctx.Has(v.Name) {
			continue
		}
		if v.Default != "" {
			vars[v.Name] = v.Default
			continue
		}
		if v.Required {
			return "", fmt.Errorf("prompt %s: missing required variable %s", pt.ID, v.Name)
		}
	}

	tmpl, err := template.New(pt.ID).Parse(pt.UserPromptTmpl)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}
