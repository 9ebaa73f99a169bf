// Package prompts holds the LLM prompt templates used by screening and JD
// generation. Templates are JSON files embedded at compile time.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"regexp"
	"strings"
	"sync"
)

//go:embed *.json
var promptFiles embed.FS

// Key names one template: the file it lives in and its key inside that file.
type Key struct {
	File string
	Name string
}

func (k Key) String() string { return k.File + ":" + k.Name }

// Templates used by the service.
var (
	ExtractResume  = Key{File: "screening.json", Name: "extract-resume"}
	EvaluateResume = Key{File: "screening.json", Name: "evaluate-resume"}
	GenerateJD     = Key{File: "jd.json", Name: "generate-jd"}
)

var placeholderRe = regexp.MustCompile(`\{\{\.([A-Za-z][A-Za-z0-9]*)\}\}`)

// catalog is every embedded template, keyed by Key. It is parsed on first use.
var catalog = sync.OnceValues(func() (map[Key]string, error) {
	files, err := fs.Glob(promptFiles, "*.json")
	if err != nil {
		return nil, err
	}
	out := make(map[Key]string)
	for _, file := range files {
		data, err := promptFiles.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read prompt file %s: %w", file, err)
		}
		var entries map[string]string
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("failed to parse prompt file %s: %w", file, err)
		}
		for name, tmpl := range entries {
			out[Key{File: file, Name: name}] = tmpl
		}
	}
	return out, nil
})

// Template returns the raw template for key.
func Template(key Key) (string, error) {
	all, err := catalog()
	if err != nil {
		return "", err
	}
	tmpl, ok := all[key]
	if !ok {
		return "", fmt.Errorf("prompt %s not found", key)
	}
	return tmpl, nil
}

// Placeholders lists the distinct {{.Name}} placeholders of a template in
// order of first appearance.
func Placeholders(tmpl string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, m := range placeholderRe.FindAllStringSubmatch(tmpl, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// Render fills every placeholder of the template named by key. A placeholder
// without a value in data is an error. Values are inserted verbatim in one
// pass, so text that itself looks like a placeholder is left alone.
func Render(key Key, data map[string]string) (string, error) {
	tmpl, err := Template(key)
	if err != nil {
		return "", err
	}

	var missing []string
	pairs := make([]string, 0, 2*len(data))
	for _, name := range Placeholders(tmpl) {
		value, ok := data[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		pairs = append(pairs, "{{."+name+"}}", value)
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("prompt %s: no value for %s", key, strings.Join(missing, ", "))
	}
	return strings.NewReplacer(pairs...).Replace(tmpl), nil
}
