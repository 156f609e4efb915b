// Package file provides file-based implementations of driven port interfaces.
//
// Adapters:
//   - ConfigStore: TOML or YAML configuration with dot-separated keys
//   - PromptStore: user-editable prompt templates with embedded defaults
package file
