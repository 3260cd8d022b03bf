package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// PromptKind distinguishes the two prompt parts an operation can override.
type PromptKind string

const (
	PromptSystem       PromptKind = "system"
	PromptInstructions PromptKind = "instructions"
)

// OperationPrompts holds the prompt overrides of one operation after file
// loading. Empty fields mean "use the built-in default".
type OperationPrompts struct {
	System       string
	Instructions string
}

// PromptFile ties a watched file to the prompt it feeds.
type PromptFile struct {
	Path      string
	Operation Operation
	Kind      PromptKind
}

// PromptStore holds prompts loaded from files. It is safe for concurrent use
// so that files can be reloaded while requests are being served.
type PromptStore struct {
	mu      sync.RWMutex
	loaded  map[Operation]OperationPrompts
	inline  map[Operation]OperationPrompts
	sources []PromptFile
}

func NewPromptStore() *PromptStore {
	return &PromptStore{
		loaded: make(map[Operation]OperationPrompts),
		inline: make(map[Operation]OperationPrompts),
	}
}

// Get returns the effective overrides for op: file content first, then
// inline configuration.
func (s *PromptStore) Get(op Operation) OperationPrompts {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.inline[op]
	if loaded, ok := s.loaded[op]; ok {
		if loaded.System != "" {
			out.System = loaded.System
		}
		if loaded.Instructions != "" {
			out.Instructions = loaded.Instructions
		}
	}
	return out
}

// Files lists the prompt files backing the store.
func (s *PromptStore) Files() []PromptFile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]PromptFile(nil), s.sources...)
}

// Reload re-reads one prompt file. A file that fails to load keeps the
// previous content.
func (s *PromptStore) Reload(file PromptFile) error {
	content, err := loadPromptFromFile(file.Path, string(file.Kind), string(file.Operation))
	if err != nil {
		return err
	}
	s.set(file, content)
	return nil
}

func (s *PromptStore) set(file PromptFile, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.loaded[file.Operation]
	switch file.Kind {
	case PromptSystem:
		p.System = content
	case PromptInstructions:
		p.Instructions = content
	}
	s.loaded[file.Operation] = p
}

func (s *PromptStore) setInline(op Operation, p OperationPrompts) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inline[op] = p
}

func (s *PromptStore) addSource(file PromptFile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources = append(s.sources, file)
}

// promptFiles lists the configured prompt files of every operation.
func (c *Config) promptFiles() []PromptFile {
	var files []PromptFile
	for _, op := range Operations {
		p := c.AI.operation(op).Prompts
		if p.SystemFile != "" {
			files = append(files, PromptFile{Path: p.SystemFile, Operation: op, Kind: PromptSystem})
		}
		if p.InstructionsFile != "" {
			files = append(files, PromptFile{Path: p.InstructionsFile, Operation: op, Kind: PromptInstructions})
		}
	}
	return files
}

// loadPromptsFromFiles loads custom prompts from external files if file paths are specified
func (c *Config) loadPromptsFromFiles() error {
	log.Println("[CONFIG] Starting custom prompt loading from files")

	store := c.Prompts()
	for _, op := range Operations {
		p := c.AI.operation(op).Prompts
		store.setInline(op, OperationPrompts{System: p.System, Instructions: p.Instructions})
	}

	for _, file := range c.promptFiles() {
		abs, err := filepath.Abs(file.Path)
		if err != nil {
			return fmt.Errorf("failed to resolve absolute path for %s %s prompt file '%s': %w", file.Operation, file.Kind, file.Path, err)
		}
		file.Path = abs
		if err := store.Reload(file); err != nil {
			return err
		}
		store.addSource(file)
	}

	if n := len(store.Files()); n == 0 {
		log.Println("[CONFIG] No custom prompt files loaded - using inline or built-in prompts")
	} else {
		log.Printf("[CONFIG] Total custom prompt files loaded: %d", n)
	}
	return nil
}

// loadPromptFromFile loads a prompt from a file with proper error handling and logging
func loadPromptFromFile(filePath, promptType, operation string) (string, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%s %s prompt file not found: %s", operation, promptType, filePath)
		}
		return "", fmt.Errorf("failed to read %s %s prompt file '%s': %w", operation, promptType, filePath, err)
	}

	trimmed := strings.TrimSpace(string(content))
	if trimmed == "" {
		return "", fmt.Errorf("%s %s prompt file '%s' is empty", operation, promptType, filePath)
	}

	log.Printf("[CONFIG] Loaded %s %s prompt from file: %s (%d characters)",
		operation, promptType, filePath, len(trimmed))
	return trimmed, nil
}

// validatePromptFiles checks every configured prompt file exists before any
// is loaded, so that all problems are reported at once.
func (c *Config) validatePromptFiles() error {
	var validationErrors []string
	for _, file := range c.promptFiles() {
		absPath, err := filepath.Abs(file.Path)
		if err != nil {
			validationErrors = append(validationErrors, fmt.Sprintf("invalid path for %s %s prompt: %s", file.Operation, file.Kind, file.Path))
			continue
		}
		if _, err := os.Stat(absPath); os.IsNotExist(err) {
			validationErrors = append(validationErrors, fmt.Sprintf("%s %s prompt file not found: %s", file.Operation, file.Kind, absPath))
		}
	}

	if len(validationErrors) > 0 {
		return fmt.Errorf("prompt file validation failed:\n%s", strings.Join(validationErrors, "\n"))
	}
	return nil
}
