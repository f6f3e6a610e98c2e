package template

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"letrado/internal/logging"
	"letrado/internal/types"
)

// Registry maps document types to compiled templates. Built-ins cover
// every known document type; an optional yaml file replaces individual
// entries at load time. The registry is immutable after NewRegistry
// returns, so concurrent readers need no locking.
type Registry struct {
	templates map[types.DocumentType]*Template
}

// builtins are the stock templates. Each ends with a Fuentes section
// driven by the reserved citations placeholder.
var builtins = map[types.DocumentType]string{
	types.DocDictamen: `# Dictamen: {{titulo}}

## I. Antecedentes

{{antecedentes}}

## II. Análisis

{{analisis}}

## III. Conclusión

{{conclusion}}

## Fuentes

{{citas}}
`,
	types.DocContrato: `# {{titulo}}

## Partes

{{partes}}

## Objeto

{{objeto}}

## Cláusulas

{{clausulas}}

## Jurisdicción y ley aplicable

{{jurisdiccion}}

## Fuentes

{{citas}}
`,
	types.DocMemo: `# Memorándum: {{titulo}}

**Resumen:** {{resumen}}

## Cuestión planteada

{{cuestion}}

## Análisis

{{analisis}}

## Recomendación

{{recomendacion}}

## Fuentes

{{citas}}
`,
	types.DocEscrito: `# {{titulo}}

## Encabezado

{{encabezado}}

## Hechos

{{hechos}}

## Derecho

{{derecho}}

## Petitorio

{{petitorio}}

## Fuentes

{{citas}}
`,
}

type overrideFile struct {
	Templates map[string]string `yaml:"templates"`
}

// NewRegistry compiles the built-in templates and, when overridePath
// is non-empty, replaces entries from the yaml override file. Unknown
// document types in the override file are rejected.
func NewRegistry(overridePath string) (*Registry, error) {
	r := &Registry{templates: make(map[types.DocumentType]*Template, len(builtins))}

	for docType, raw := range builtins {
		t, err := Compile(string(docType), raw)
		if err != nil {
			return nil, fmt.Errorf("compile built-in template %s: %w", docType, err)
		}
		r.templates[docType] = t
	}

	if overridePath != "" {
		if err := r.applyOverrides(overridePath); err != nil {
			return nil, err
		}
	}

	return r, nil
}

func (r *Registry) applyOverrides(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read template file %s: %w", path, err)
	}

	var f overrideFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse template file %s: %w", path, err)
	}

	for name, raw := range f.Templates {
		docType := types.DocumentType(name)
		if _, ok := r.templates[docType]; !ok {
			return fmt.Errorf("template file %s: unknown document type %q", path, name)
		}
		t, err := Compile(name, raw)
		if err != nil {
			return fmt.Errorf("compile override template %s: %w", name, err)
		}
		r.templates[docType] = t
		logging.Boot("Template override loaded: %s (%d fields)", name, len(t.Fields()))
	}
	return nil
}

// Get returns the template for a document type.
func (r *Registry) Get(docType types.DocumentType) (*Template, bool) {
	t, ok := r.templates[docType]
	return t, ok
}

// Types lists the registered document types in sorted order.
func (r *Registry) Types() []types.DocumentType {
	out := make([]types.DocumentType, 0, len(r.templates))
	for dt := range r.templates {
		out = append(out, dt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
