// Package core provides the cleaning engine for the raw sales extracts.
//
// # Error Codes Reference
//
// This file maps technical errors to operator-facing messages with codes.
// When a run fails, the code in the log line identifies the cause without
// reading the driver message.
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Duplicate key: A record with this ID already exists
//	        Action: Check the prepared file for repeated identifiers
//	        Patterns: "duplicate key", "unique constraint failed"
//
//	DB002 - Unique constraint: This value must be unique but already exists
//	        Action: Check for duplicate entries in the prepared file
//	        Patterns: "unique constraint", "violates unique"
//
//	DB003 - Foreign key: Referenced record does not exist
//	        Action: Ensure customers and products load before sales
//	        Patterns: "foreign key constraint", "violates foreign key"
//
//	DB004 - Connection refused: Unable to connect to the warehouse
//	        Action: Check WAREHOUSE_DSN and that the server is running
//	        Patterns: "connection refused"
//
//	DB005 - Warehouse busy: The database file is locked by another writer
//	        Action: Wait for the other load to finish and retry
//	        Patterns: "database is locked"
//
//	DB006 - Timeout: Operation timed out
//	        Action: Raise WAREHOUSE_TIMEOUT or load a smaller extract
//	        Patterns: "timeout", "context deadline exceeded"
//
//	DB007 - Missing table: Warehouse table does not exist
//	        Action: Run the schema step before loading
//	        Patterns: "no such table", "does not exist"
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - Missing file: Input file not found
//	          Action: Run the prepare step or check DATA_DIR
//	          Patterns: "no such file"
//
//	FILE002 - Invalid CSV: File is not a valid CSV
//	          Action: Ensure the file is comma-separated with consistent columns
//	          Patterns: "wrong number of fields", "bare \"", "extraneous"
//
//	FILE003 - Empty file: The file has no header row
//	          Action: Re-export the extract with a header
//	          Patterns: "empty file"
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Missing column: Required column is missing from CSV
//	         Action: Check that all required columns are present in the extract
//	         Patterns: "missing required column"
//
//	VAL002 - Invalid value: A prepared value could not be decoded
//	         Action: Re-run the prepare step for the entity
//	         Patterns: "cannot unmarshal", "invalid syntax"
//
// # Run Errors (RUN001-RUN099)
//
//	RUN001 - Cancelled: The run was interrupted
//	         Action: Start the run again
//	         Patterns: "context canceled"
//
// # Default Error (ERR000)
//
// Fallback when no specific pattern matches.
//
// # Pattern Matching
//
// Error patterns are matched case-insensitively using strings.Contains.
// The first matching pattern wins, so more specific patterns come first.
package core

import (
	"fmt"
	"strings"
)

// UserMessage provides operator-facing error information with actionable guidance.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Error code for reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

var (
	msgDuplicateKey = UserMessage{
		Message: "A record with this ID already exists",
		Action:  "Check the prepared file for repeated identifiers",
		Code:    "DB001",
	}
	msgUnique = UserMessage{
		Message: "This value must be unique but already exists",
		Action:  "Check for duplicate entries in the prepared file",
		Code:    "DB002",
	}
	msgForeignKey = UserMessage{
		Message: "Referenced record does not exist",
		Action:  "Ensure customers and products load before sales",
		Code:    "DB003",
	}
	msgTimeout = UserMessage{
		Message: "Operation timed out",
		Action:  "Raise WAREHOUSE_TIMEOUT or load a smaller extract",
		Code:    "DB006",
	}
	msgMissingTable = UserMessage{
		Message: "Warehouse table does not exist",
		Action:  "Run the schema step before loading",
		Code:    "DB007",
	}
	msgInvalidCSV = UserMessage{
		Message: "File is not a valid CSV",
		Action:  "Ensure the file is comma-separated with consistent columns",
		Code:    "FILE002",
	}
	msgInvalidValue = UserMessage{
		Message: "A prepared value could not be decoded",
		Action:  "Re-run the prepare step for the entity",
		Code:    "VAL002",
	}
)

// errorPatterns maps technical error patterns (case-insensitive) to user messages.
// Order matters: sqlite's "UNIQUE constraint failed" must hit DB001 before
// the generic "unique constraint" pattern.
var errorPatterns = []errorPattern{
	// Constraint errors
	{pattern: "duplicate key", msg: msgDuplicateKey},
	{pattern: "unique constraint failed", msg: msgDuplicateKey},
	{pattern: "unique constraint", msg: msgUnique},
	{pattern: "violates unique", msg: msgUnique},
	{pattern: "foreign key constraint", msg: msgForeignKey},
	{pattern: "violates foreign key", msg: msgForeignKey},

	// Connection errors
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to the warehouse",
			Action:  "Check WAREHOUSE_DSN and that the server is running",
			Code:    "DB004",
		},
	},
	{
		pattern: "database is locked",
		msg: UserMessage{
			Message: "The warehouse file is locked by another writer",
			Action:  "Wait for the other load to finish and retry",
			Code:    "DB005",
		},
	},
	{pattern: "timeout", msg: msgTimeout},
	{pattern: "context deadline exceeded", msg: msgTimeout},
	{pattern: "no such table", msg: msgMissingTable},
	{pattern: "does not exist", msg: msgMissingTable},

	// File errors
	{
		pattern: "no such file",
		msg: UserMessage{
			Message: "Input file not found",
			Action:  "Run the prepare step or check DATA_DIR",
			Code:    "FILE001",
		},
	},
	{pattern: "wrong number of fields", msg: msgInvalidCSV},
	{pattern: `bare "`, msg: msgInvalidCSV},
	{pattern: "extraneous", msg: msgInvalidCSV},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The file has no header row",
			Action:  "Re-export the extract with a header",
			Code:    "FILE003",
		},
	},

	// Validation errors
	{
		pattern: "missing required column",
		msg: UserMessage{
			Message: "Required column is missing from CSV",
			Action:  "Check that all required columns are present in the extract",
			Code:    "VAL001",
		},
	},
	{pattern: "cannot unmarshal", msg: msgInvalidValue},
	{pattern: "invalid syntax", msg: msgInvalidValue},

	// Run errors
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "The run was interrupted",
			Action:  "Start the run again",
			Code:    "RUN001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Check the log for the underlying error",
	Code:    "ERR000",
}

// MapError converts a technical error to an operator-facing message.
// It searches through known error patterns (case-insensitive) and returns
// the first match. If no pattern matches, a generic fallback message with
// code ERR000 is returned.
//
// Example:
//
//	err := errors.New("UNIQUE constraint failed: customer.customer_id")
//	msg := MapError(err)
//	// msg.Code == "DB001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, strings.ToLower(ep.pattern)) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether an error matches a known pattern rather than
// the generic ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
