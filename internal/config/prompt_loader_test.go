package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"atsoptimizer/internal/errors"
)

func writePrompt(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to create prompt file %s: %v", name, err)
	}
	return path
}

func TestLoadPromptsFromFiles(t *testing.T) {
	tempDir := t.TempDir()
	systemFile := writePrompt(t, tempDir, "system.skills.md", "  You review skills sections.\n")
	instructionsFile := writePrompt(t, tempDir, "instructions.skills.md", "List missing tools first.")

	config := &Config{}
	config.AI.Skills.Prompts = PromptConfig{
		SystemFile:       systemFile,
		InstructionsFile: instructionsFile,
	}
	config.AI.Summary.Prompts = PromptConfig{System: "Inline summary system prompt"}

	if err := config.loadPromptsFromFiles(); err != nil {
		t.Fatalf("Failed to load prompts from files: %v", err)
	}

	skills := config.Prompts().Get(OperationSkills)
	if skills.System != "You review skills sections." {
		t.Errorf("Expected trimmed system prompt, got %q", skills.System)
	}
	if skills.Instructions != "List missing tools first." {
		t.Errorf("Expected instructions from file, got %q", skills.Instructions)
	}

	if got := config.Prompts().Get(OperationSummary).System; got != "Inline summary system prompt" {
		t.Errorf("Expected inline summary prompt, got %q", got)
	}
	if got := config.Prompts().Get(OperationExperience); got != (OperationPrompts{}) {
		t.Errorf("Expected no experience overrides, got %+v", got)
	}

	if n := len(config.Prompts().Files()); n != 2 {
		t.Errorf("Expected 2 prompt sources, got %d", n)
	}
	if config.AI.Skills.Prompts.SystemFile != systemFile {
		t.Error("Expected system prompt file path to be preserved")
	}
}

func TestPromptStoreFileOverridesInline(t *testing.T) {
	tempDir := t.TempDir()
	file := writePrompt(t, tempDir, "system.md", "From file")

	store := NewPromptStore()
	store.setInline(OperationKeywords, OperationPrompts{System: "Inline", Instructions: "Inline instructions"})
	if err := store.Reload(PromptFile{Path: file, Operation: OperationKeywords, Kind: PromptSystem}); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}

	got := store.Get(OperationKeywords)
	if got.System != "From file" {
		t.Errorf("Expected file content to win, got %q", got.System)
	}
	if got.Instructions != "Inline instructions" {
		t.Errorf("Expected inline instructions to remain, got %q", got.Instructions)
	}
}

func TestPromptStoreReloadFailureKeepsContent(t *testing.T) {
	tempDir := t.TempDir()
	file := writePrompt(t, tempDir, "system.md", "Version one")
	pf := PromptFile{Path: file, Operation: OperationSummary, Kind: PromptSystem}

	store := NewPromptStore()
	if err := store.Reload(pf); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	writePrompt(t, tempDir, "system.md", "   ")

	if err := store.Reload(pf); err == nil {
		t.Fatal("Expected error reloading an empty prompt file")
	}
	if got := store.Get(OperationSummary).System; got != "Version one" {
		t.Errorf("Expected previous content to be kept, got %q", got)
	}
}

func TestValidatePromptFiles(t *testing.T) {
	tempDir := t.TempDir()
	validFile := writePrompt(t, tempDir, "valid.md", "Valid content")

	config := &Config{}
	config.AI.Experience.Prompts.SystemFile = validFile
	if err := config.validatePromptFiles(); err != nil {
		t.Errorf("Expected validation to pass for valid file, got error: %v", err)
	}

	config.AI.Experience.Prompts.InstructionsFile = filepath.Join(tempDir, "missing-a.md")
	config.AI.Keywords.Prompts.SystemFile = filepath.Join(tempDir, "missing-b.md")
	err := config.validatePromptFiles()
	if err == nil {
		t.Fatal("Expected validation to fail for missing files")
	}
	for _, name := range []string{"missing-a.md", "missing-b.md"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("Expected error to mention %s, got: %v", name, err)
		}
	}
}

func TestLoadPromptFromFile(t *testing.T) {
	tempDir := t.TempDir()
	testFile := writePrompt(t, tempDir, "test.md", "Test prompt content")

	loaded, err := loadPromptFromFile(testFile, "system", "summary")
	if err != nil {
		t.Fatalf("Failed to load prompt from file: %v", err)
	}
	if loaded != "Test prompt content" {
		t.Errorf("Expected content 'Test prompt content', got %q", loaded)
	}

	emptyFile := writePrompt(t, tempDir, "empty.md", "")
	if _, err := loadPromptFromFile(emptyFile, "system", "summary"); err == nil {
		t.Error("Expected error for empty file")
	}

	if _, err := loadPromptFromFile(filepath.Join(tempDir, "nonexistent.md"), "system", "summary"); err == nil {
		t.Error("Expected error for non-existent file")
	}
}

func TestPromptWatcherReloadsChangedFile(t *testing.T) {
	tempDir := t.TempDir()
	file := writePrompt(t, tempDir, "instructions.md", "Before")

	config := &Config{}
	config.AI.Summary.Prompts.InstructionsFile = file
	if err := config.loadPromptsFromFiles(); err != nil {
		t.Fatalf("Failed to load prompts: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watcher := NewPromptWatcher(config.Prompts(), 20*time.Millisecond, errors.NewDiscardLogger())
	done := make(chan error, 1)
	go func() { done <- watcher.Run(ctx) }()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)
	writePrompt(t, tempDir, "instructions.md", "After")

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if config.Prompts().Get(OperationSummary).Instructions == "After" {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if got := config.Prompts().Get(OperationSummary).Instructions; got != "After" {
		t.Errorf("Expected reloaded instructions, got %q", got)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watcher returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("Watcher did not stop after cancel")
	}
}

func TestPromptWatcherNoFiles(t *testing.T) {
	watcher := NewPromptWatcher(NewPromptStore(), 0, errors.NewDiscardLogger())
	if err := watcher.Run(context.Background()); err != nil {
		t.Errorf("Expected nil error with nothing to watch, got %v", err)
	}
}
