package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/siva-netizen/Promptify/internal/agent"
	"github.com/siva-netizen/Promptify/internal/apperr"
)

// readQueryFile loads and validates a query stored in path.
func readQueryFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", apperr.FileOperation(
				fmt.Sprintf("File not found: %s", path),
				"Check the file path and ensure the file exists",
				err,
			)
		}
		return "", apperr.FileOperation(
			fmt.Sprintf("Error reading file: %s", path),
			"Check file permissions and format",
			err,
		)
	}
	if !utf8.Valid(data) {
		return "", apperr.Validation(
			fmt.Sprintf("Cannot read file %s: Invalid encoding", path),
			"Ensure the file is UTF-8 encoded text",
		)
	}
	return agent.ValidateQuery(string(data))
}

// writeOutput saves the refined prompt, creating parent directories.
func writeOutput(path, content string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return apperr.FileOperation(fmt.Sprintf("Cannot create directory %s", dir), "", err)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return apperr.FileOperation(fmt.Sprintf("Cannot write %s", path), "Check write permissions for the output path", err)
	}
	return nil
}
