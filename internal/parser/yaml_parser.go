// Package parser decodes workflow documents from YAML.
//
// The parser only concerns itself with document shape; structural and safety
// validation happen afterwards in the validate package.
package parser

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"yqhp/automation-engine/pkg/types"
)

// Parse decodes a workflow document from bytes. Decoding is strict: unknown
// fields are an error, so typos in step parameters surface at parse time
// instead of silently producing empty parameter structs.
func Parse(data []byte) (*types.Workflow, error) {
	var workflow types.Workflow

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(&workflow); err != nil {
		if err == io.EOF {
			return nil, NewParseError(0, 0, "document is empty", err)
		}
		return nil, wrapYAMLError(err)
	}

	return &workflow, nil
}

// ParseFile decodes a workflow document from a file.
func ParseFile(path string) (*types.Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewParseError(0, 0, fmt.Sprintf("failed to read file: %s", path), err)
	}
	return Parse(data)
}

// wrapYAMLError converts a YAML error to a ParseError with line information.
func wrapYAMLError(err error) error {
	errStr := err.Error()
	line, column := extractLineColumn(errStr)
	return NewParseError(line, column, cleanYAMLErrorMessage(errStr), err)
}

// extractLineColumn attempts to extract line and column from a YAML error message.
func extractLineColumn(errStr string) (int, int) {
	var line, column int

	if idx := strings.Index(errStr, "line "); idx != -1 {
		fmt.Sscanf(errStr[idx:], "line %d", &line)
	}
	if idx := strings.Index(errStr, "column "); idx != -1 {
		fmt.Sscanf(errStr[idx:], "column %d", &column)
	}

	return line, column
}

// cleanYAMLErrorMessage strips the yaml prefix and capitalizes the message.
func cleanYAMLErrorMessage(errStr string) string {
	errStr = strings.TrimPrefix(errStr, "yaml: ")
	if len(errStr) > 0 {
		errStr = strings.ToUpper(errStr[:1]) + errStr[1:]
	}
	return errStr
}
