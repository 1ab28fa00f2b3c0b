package core

import (
	"errors"
	"fmt"
)

// Read error codes.
const (
	CodeReadOpen    = "READ001" // file missing or unreadable
	CodeReadParse   = "READ002" // no header or malformed CSV
	CodeReadColumns = "READ003" // required columns missing
)

// Schema error codes.
const (
	CodeSchemaDDL      = "SCH001" // DDL failed or unknown dialect
	CodeSchemaMismatch = "SCH002" // existing table lacks expected columns
)

// Load error codes.
const (
	CodeLoadDelete = "LOAD001"
	CodeLoadInsert = "LOAD002"
	CodeLoadCommit = "LOAD003"
	CodeLoadDecode = "LOAD004"
	CodeLoadBegin  = "LOAD005"
)

// ReadError reports a raw or prepared file that could not be read.
type ReadError struct {
	Code string
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("%s: read %s: %v", e.Code, e.Path, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// SchemaError reports a warehouse table that could not be created or verified.
type SchemaError struct {
	Code  string
	Table string
	Err   error
}

func (e *SchemaError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("%s: schema: %v", e.Code, e.Err)
	}
	return fmt.Sprintf("%s: schema %s: %v", e.Code, e.Table, e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }

// LoadError reports a failed warehouse load. The transaction has been
// rolled back when it is returned.
type LoadError struct {
	Code  string
	Table string
	Err   error
}

func (e *LoadError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("%s: load: %v", e.Code, e.Err)
	}
	return fmt.Sprintf("%s: load %s: %v", e.Code, e.Table, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// ErrorCode returns the code of a typed error anywhere in err's chain,
// falling back to the MapError code.
func ErrorCode(err error) string {
	var re *ReadError
	var se *SchemaError
	var le *LoadError
	switch {
	case errors.As(err, &re):
		return re.Code
	case errors.As(err, &se):
		return se.Code
	case errors.As(err, &le):
		return le.Code
	}
	return MapError(err).Code
}
