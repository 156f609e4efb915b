package services

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
)

// renderPrompt loads a template and fills {name} placeholders.
func renderPrompt(store driven.PromptStore, name string, vars map[string]string) (string, error) {
	if store == nil {
		return "", fmt.Errorf("prompt %s: no prompt store", name)
	}
	tmpl, err := store.Load(name)
	if err != nil {
		return "", fmt.Errorf("prompt %s: %w", name, err)
	}
	if len(vars) == 0 {
		return tmpl, nil
	}
	pairs := make([]string, 0, 2*len(vars))
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl), nil
}
