package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"

	"github.com/roach88/goby/internal/edit"
)

// LoadError represents an error that occurred while loading a batch file.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error code constants - unified across all CLI commands. Failures of
// schema and item operations use the schema error codes instead.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeReadFailed  = "E002" // File read error
	ErrCodeBadFormat   = "E003" // Unsupported batch file extension
	ErrCodeParseFailed = "E004" // YAML or JSON parse error
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeBadArgument = "E007" // Malformed command argument
)

// LoadBatch reads an edit batch from a YAML, JSON or CUE file, chosen by
// extension. Unknown fields are rejected in every format.
func LoadBatch(path string) (*edit.Batch, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("batch file not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeReadFailed, Message: fmt.Sprintf("reading batch file: %v", err)}
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return decodeYAMLBatch(data)
	case ".json":
		return decodeJSONBatch(data)
	case ".cue":
		return decodeCUEBatch(path, data)
	default:
		return nil, &LoadError{Code: ErrCodeBadFormat, Message: fmt.Sprintf("unsupported batch format %q (want .yaml, .yml, .json or .cue)", ext)}
	}
}

func decodeYAMLBatch(data []byte) (*edit.Batch, error) {
	var batch edit.Batch
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&batch); err != nil {
		return nil, &LoadError{Code: ErrCodeParseFailed, Message: fmt.Sprintf("parsing YAML batch: %v", err)}
	}
	return &batch, nil
}

func decodeJSONBatch(data []byte) (*edit.Batch, error) {
	var batch edit.Batch
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&batch); err != nil {
		return nil, &LoadError{Code: ErrCodeParseFailed, Message: fmt.Sprintf("parsing JSON batch: %v", err)}
	}
	return &batch, nil
}

// decodeCUEBatch evaluates a CUE file and decodes its concrete value as a
// JSON batch. Definitions and constraints in the file are checked by CUE
// before decoding.
func decodeCUEBatch(path string, data []byte) (*edit.Batch, error) {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return nil, cueLoadError(err)
	}
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, cueLoadError(err)
	}

	encoded, err := value.MarshalJSON()
	if err != nil {
		return nil, cueLoadError(err)
	}
	return decodeJSONBatch(encoded)
}

func cueLoadError(err error) *LoadError {
	le := &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}
	if positions := cueerrors.Positions(err); len(positions) > 0 {
		le.Pos = positions[0]
	}
	return le
}
