package presentation

import (
	"encoding/json"
	"io"
)

// Formatter handles output formatting
type Formatter struct {
	writer io.Writer
}

// NewFormatter creates a new formatter
func NewFormatter(writer io.Writer) *Formatter {
	return &Formatter{
		writer: writer,
	}
}

// FormatKeys formats a list of key DTOs as JSON
func (f *Formatter) FormatKeys(keys []KeyDTO) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(keys)
}

// FormatKey formats a single key DTO as JSON
func (f *Formatter) FormatKey(key KeyDTO) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(key)
}

// FormatKeyNames formats a plain list of key names as JSON
func (f *Formatter) FormatKeyNames(names []string) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(names)
}

// FormatCallResult formats a dispatched call result as JSON
func (f *Formatter) FormatCallResult(result CallResultDTO) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}
