package fsstore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ReadJSON decodes the document at path into out.
// It reports false without error when the file is missing or blank.
// A file that exists but does not parse yields an error wrapping ErrDecode.
func ReadJSON(path string, out any) (bool, error) {
	path, err := cleanPath(path)
	if err != nil {
		return false, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("fsstore: read %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	return true, nil
}

// WriteJSON encodes v with two-space indentation and writes it atomically.
// HTML escaping is disabled so links are stored verbatim.
func WriteJSON(path string, v any, opts FileOptions) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("fsstore: encode %s: %w", path, err)
	}
	return WriteAtomic(path, buf.Bytes(), opts)
}
