package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore loads LLM prompts from user-editable files on disk.
// Prompts are loaded from a configurable directory with fallback to embedded defaults.
//
// The store uses lazy initialisation - files are only created when first accessed,
// not in the constructor.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

// defaultPrompts contains embedded default prompts.
// These are used when user files don't exist and as the initial content for new files.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var defaultPrompts = map[string]string{
	driven.PromptVisionDescribe: `Analise o conteúdo técnico da imagem desta página de manual. Extraia e organize as informações relevantes:
- títulos, subtítulos e parágrafos;
- elementos visuais como gráficos, tabelas e diagramas, com seus valores;
- procedimentos e especificações técnicas com as unidades.
Seja claro e preciso e preserve a hierarquia das informações.`,

	driven.PromptFusion: `Você recebeu duas versões do mesmo conteúdo técnico: o texto extraído da página e a descrição produzida a partir da imagem da página.
Combine as duas, elimine redundâncias, preencha lacunas e organize o resultado de forma clara e hierárquica.
Mantenha todas as informações técnicas disponíveis com suas unidades.
Descreva apenas o conteúdo técnico, seja objetivo e não faça avaliações pessoais.

### Texto extraído:
{extracted}

### Descrição da imagem:
{description}

Gere um documento único e detalhado com as informações técnicas acima.`,

	driven.PromptRAGAnswer: `Você é um assistente de perguntas e respostas sobre manuais técnicos. Use os trechos de contexto recuperados abaixo para responder.
Se a resposta não estiver no contexto, diga que não sabe.
<context>{context}</context>
Responda à pergunta: {question}`,

	driven.PromptEvalStatements: `Break the answer below into short, self-contained factual statements.
Write one statement per line with no numbering and nothing else.

Question: {question}
Answer: {answer}`,

	driven.PromptEvalFaithfulness: `Decide for each numbered statement whether it can be inferred from the context.
Reply with one line per statement in the form "N: yes" or "N: no" and nothing else.

Context:
{context}

Statements:
{statements}`,

	driven.PromptEvalQuestions: `Write {count} different questions that the answer below would fully respond to.
Write one question per line with no numbering and nothing else.

Answer: {answer}`,

	driven.PromptEvalContextVerdict: `Was the context below useful for arriving at the reference answer to the question?
Reply with a single word: yes or no.

Question: {question}
Reference answer: {reference}
Context: {context}`,

	driven.PromptEvalRecall: `Decide for each numbered sentence of the reference answer whether it can be attributed to the context.
Reply with one line per sentence in the form "N: yes" or "N: no" and nothing else.

Context:
{context}

Reference sentences:
{reference}`,
}

// NewPromptStore creates a new file-based prompt store.
// If promptDir is empty, defaults to ~/.manualqa/prompts/.
//
// The constructor does not perform any I/O - directory creation and
// file writes happen lazily on first Load() call.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		promptDir = filepath.Join(home, DefaultDirName, "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the prompt template for the given name.
// On first call, initialises the prompt directory and creates default files.
// Falls back to the embedded default if the file can't be read.
func (s *PromptStore) Load(name string) (string, error) {
	defaultPrompt, known := defaultPrompts[name]
	if !known {
		return "", fmt.Errorf("prompt %q: %w", name, domain.ErrNotFound)
	}

	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		return defaultPrompt, nil
	}

	s.mu.RLock()
	if prompt, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return prompt, nil
	}
	s.mu.RUnlock()

	prompt, err := s.loadFromFile(name)
	if err != nil || prompt == "" {
		prompt = defaultPrompt
	}

	// Double-check so concurrent loads agree on one value.
	s.mu.Lock()
	if cached, ok := s.cache[name]; ok {
		prompt = cached
	} else {
		s.cache[name] = prompt
	}
	s.mu.Unlock()

	return prompt, nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

// Names returns the known prompt names, sorted.
func Names() []string {
	names := make([]string, 0, len(defaultPrompts))
	for name := range defaultPrompts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// initialise creates the prompt directory and default files.
func (s *PromptStore) initialise() {
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	// Only missing files are written; user edits are kept.
	for name, content := range defaultPrompts {
		path := filepath.Join(s.promptDir, name+".txt")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
				return
			}
		}
	}

	if err := s.createReadme(); err != nil {
		s.initErr = err
	}
}

func (s *PromptStore) loadFromFile(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.promptDir, name+".txt"))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// createReadme writes a README file explaining the prompts directory.
func (s *PromptStore) createReadme() error {
	path := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil
	}

	var b strings.Builder
	b.WriteString("# manualqa prompts\n\n")
	b.WriteString("Edit any file to change the model instructions. Changes apply on the next command.\n\n")
	b.WriteString("## Files\n\n")
	for _, name := range Names() {
		fmt.Fprintf(&b, "- `%s.txt`\n", name)
	}
	b.WriteString("\n## Placeholders\n\n")
	b.WriteString("Placeholders such as `{context}` and `{question}` are replaced before the prompt is sent.\n")
	b.WriteString("Keep every placeholder the default file uses.\n")
	return os.WriteFile(path, []byte(b.String()), 0600)
}
