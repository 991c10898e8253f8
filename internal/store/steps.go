package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// StepName identifies a pipeline step for caching purposes.
type StepName string

const (
	StepPayloads StepName = "payloads"
	StepThreads  StepName = "threads"
	StepBlogs    StepName = "blogs"
	StepLLM      StepName = "llm"
	StepExports  StepName = "exports"
)

// StepCache writes step outputs as timestamped files under a root directory,
// one subdirectory per step. File names sort chronologically.
type StepCache struct {
	Root string
}

// NewStepCache returns a cache rooted at dir
func NewStepCache(dir string) StepCache {
	return StepCache{Root: dir}
}

// Dir returns the cache directory for a given step.
func (c StepCache) Dir(step StepName) string {
	return filepath.Join(c.Root, string(step))
}

// generateFilename creates a timestamped filename tagged with name
func generateFilename(name, ext string) string {
	stamp := now().Format("2006-01-02T15-04-05.000000000")
	if name == "" {
		return stamp + ext
	}
	return stamp + "_" + sanitize(name) + ext
}

func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, name)
}

func (c StepCache) write(step StepName, name, ext string, data []byte) (string, error) {
	dir := c.Dir(step)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create step cache dir: %w", err)
	}

	path := filepath.Join(dir, generateFilename(name, ext))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write step output: %w", err)
	}
	return path, nil
}

// SaveStepOutput saves JSON-serializable data to the step's cache directory.
// Returns the path to the saved file.
func SaveStepOutput[T any](c StepCache, step StepName, name string, data T) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal step output: %w", err)
	}
	return c.write(step, name, ".json", jsonData)
}

// SaveRawOutput saves bytes as-is, e.g. a captured payload that is already JSON
func (c StepCache) SaveRawOutput(step StepName, name, ext string, data []byte) (string, error) {
	return c.write(step, name, ext, data)
}

// SaveTextOutput saves text content (e.g., markdown) to the step's cache directory.
// Returns the path to the saved file.
func (c StepCache) SaveTextOutput(step StepName, name, content, ext string) (string, error) {
	return c.write(step, name, ext, []byte(content))
}

// LoadLatestStepOutput loads the most recent output from a step's cache directory.
// Returns the data, the filepath it was loaded from, and any error.
func LoadLatestStepOutput[T any](c StepCache, step StepName) (T, string, error) {
	var zero T

	latestPath, err := c.LatestStepFile(step)
	if err != nil {
		return zero, "", err
	}

	data, err := LoadStepOutput[T](latestPath)
	if err != nil {
		return zero, "", err
	}

	return data, latestPath, nil
}

// LoadStepOutput loads JSON data from a specific file path.
func LoadStepOutput[T any](path string) (T, error) {
	var data T

	jsonData, err := os.ReadFile(path)
	if err != nil {
		return data, fmt.Errorf("failed to read step output: %w", err)
	}

	if err := json.Unmarshal(jsonData, &data); err != nil {
		return data, fmt.Errorf("failed to unmarshal step output: %w", err)
	}

	return data, nil
}

// StepFiles lists a step's files oldest first
func (c StepCache) StepFiles(step StepName) ([]string, error) {
	dir := c.Dir(step)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// LatestStepFile returns the path to the most recent file in a step's cache directory.
func (c StepCache) LatestStepFile(step StepName) (string, error) {
	files, err := c.StepFiles(step)
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", fmt.Errorf("no cached output for step %s: %w", step, ErrNotFound)
	}
	return files[len(files)-1], nil
}
