// Package core provides the campaign split pipeline: archive discovery,
// column-signature classification, schema reconciliation, normalization and
// output through pluggable sinks.
//
// # Error Codes Reference
//
// This file defines operator-friendly error messages with codes for support
// reference. When a run fails, the CLI prints the mapped message so the code
// can be quoted when asking for help.
//
// Error codes are grouped by category:
//
// # Archive Errors (ARC001-ARC099)
//
// Errors related to locating and opening input archives:
//
//	ARC001 - Not a zip: An input archive is not a valid zip file
//	         Action: Re-download or re-create the archive
//	         Patterns: "not a valid zip"
//
//	ARC002 - Unreadable archive: An input archive could not be opened
//	         Action: Check file permissions and that the archive is complete
//	         Patterns: "open archive", "open entry"
//
//	ARC003 - Bad pattern: The archive file pattern is not a valid glob
//	         Action: Fix INPUT_PATTERN
//	         Patterns: "archive pattern"
//
//	ARC004 - Unreadable input directory
//	         Action: Check that INPUT_DIR is a readable directory
//	         Patterns: "reading directory"
//
// # CSV Errors (CSV001-CSV099)
//
// Errors related to parsing archive entries:
//
//	CSV001 - Empty file: An entry has no header row
//	         Action: Remove the empty entry from the archive
//	         Patterns: "empty file"
//
//	CSV002 - Wide row: A row has more fields than the header
//	         Action: Check the entry for unquoted delimiters
//	         Patterns: "header has"
//
//	CSV003 - Invalid CSV: An entry is not valid delimited text
//	         Action: Ensure the entry is UTF-8 comma-separated text with quoted fields
//	         Patterns: "invalid csv", "invalid utf-8"
//
// # Schema Errors (SCH001-SCH099)
//
// Errors raised while reconciling and normalizing groups:
//
//	SCH001 - Missing column: A table lacks a column its group requires
//	         Action: Check the headers of the entry named in the error
//	         Patterns: "missing required column"
//
//	SCH002 - Column not found: An output column could not be projected
//	         Action: Check the headers of the entry named in the error
//	         Patterns: "column not found"
//
// # Output Errors (OUT001-OUT099)
//
// Errors raised by output sinks:
//
//	OUT001 - Output directory: The output directory could not be created
//	         Action: Check that OUTPUT_DIR is writable
//	         Patterns: "create output dir"
//
//	OUT002 - Output file: An output file could not be written or replaced
//	         Action: Check free disk space and permissions on OUTPUT_DIR
//	         Patterns: "create temp for", "replace "
//
//	OUT003 - Workbook: The XLSX workbook could not be saved
//	         Action: Check that XLSX_PATH is writable and not open elsewhere
//	         Patterns: "save workbook"
//
// # Database Errors (DB001-DB099)
//
// Errors raised by the PostgreSQL sink:
//
//	DB001 - Connection refused: Unable to connect to database
//	        Action: Check DATABASE_URL and that the server is running
//	        Patterns: "connection refused"
//
//	DB002 - Connection reset: Database connection was interrupted
//	        Action: Please try again
//	        Patterns: "connection reset"
//
//	DB003 - Connect failed: The database rejected the connection
//	        Action: Check credentials in DATABASE_URL
//	        Patterns: "ping database", "connect to database", "parse database url"
//
//	DB004 - Load failed: Rows could not be copied into the target table
//	        Action: Check that DB_SCHEMA exists and the user may create tables
//	        Patterns: "copy into", "to postgres"
//
//	DB005 - Deadlock: Database was busy with conflicting operations
//	        Action: Please try again
//	        Patterns: "deadlock"
//
// # Run Errors (RUN001-RUN099)
//
//	RUN001 - Timed out: The run exceeded RUN_TIMEOUT
//	         Action: Raise RUN_TIMEOUT or split the input
//	         Patterns: "deadline exceeded"
//
//	RUN002 - Cancelled: The run was interrupted
//	         Action: Run again
//	         Patterns: "context canceled", "operation cancelled"
//
// # Default Error (ERR000)
//
// Fallback when no specific pattern matches:
//
//	ERR000 - Unknown error: An unexpected error occurred
//	         Action: Check the log output for details
//
// # Pattern Matching
//
// Error patterns are matched case-insensitively using strings.Contains.
// The first matching pattern wins, so more specific patterns should be
// defined before general ones. Multiple patterns can map to the same code
// (e.g., OUT002 matches both "create temp for" and "replace ").
package core

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user messages.
// Patterns are matched using strings.Contains, so partial matches work.
// The first matching pattern wins, so order matters:
//   - More specific patterns should come before general ones
//   - Multiple patterns can map to the same error code
//
// To add a new error pattern:
//  1. Choose the appropriate category and code range
//  2. Add the pattern in the correct position (specific before general)
//  3. Update the package documentation at the top of this file
var errorPatterns = []errorPattern{
	// =========================================================================
	// Run Errors (RUN001-RUN002)
	// Checked first: cancellation is wrapped by whatever stage was running.
	// =========================================================================
	{
		pattern: "deadline exceeded",
		msg: UserMessage{
			Message: "The run timed out",
			Action:  "Raise RUN_TIMEOUT or split the input",
			Code:    "RUN001",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "The run was cancelled",
			Action:  "Run again",
			Code:    "RUN002",
		},
	},
	{
		pattern: "operation cancelled",
		msg: UserMessage{
			Message: "The run was cancelled",
			Action:  "Run again",
			Code:    "RUN002",
		},
	},

	// =========================================================================
	// Database Errors (DB001-DB005)
	// Connectivity is matched before the wrapping stage message.
	// =========================================================================
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Check DATABASE_URL and that the server is running",
			Code:    "DB001",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB002",
		},
	},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "Database was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{
		pattern: "ping database",
		msg: UserMessage{
			Message: "The database rejected the connection",
			Action:  "Check credentials in DATABASE_URL",
			Code:    "DB003",
		},
	},
	{
		pattern: "connect to database",
		msg: UserMessage{
			Message: "The database rejected the connection",
			Action:  "Check credentials in DATABASE_URL",
			Code:    "DB003",
		},
	},
	{
		pattern: "parse database url",
		msg: UserMessage{
			Message: "The database URL is malformed",
			Action:  "Check the format of DATABASE_URL",
			Code:    "DB003",
		},
	},
	{
		pattern: "copy into",
		msg: UserMessage{
			Message: "Rows could not be loaded into the database",
			Action:  "Check that DB_SCHEMA exists and the user may create tables",
			Code:    "DB004",
		},
	},
	{
		pattern: "to postgres",
		msg: UserMessage{
			Message: "Rows could not be loaded into the database",
			Action:  "Check that DB_SCHEMA exists and the user may create tables",
			Code:    "DB004",
		},
	},

	// =========================================================================
	// Archive Errors (ARC001-ARC004)
	// =========================================================================
	{
		pattern: "not a valid zip",
		msg: UserMessage{
			Message: "An input archive is not a valid zip file",
			Action:  "Re-download or re-create the archive",
			Code:    "ARC001",
		},
	},
	{
		pattern: "open archive",
		msg: UserMessage{
			Message: "An input archive could not be opened",
			Action:  "Check file permissions and that the archive is complete",
			Code:    "ARC002",
		},
	},
	{
		pattern: "open entry",
		msg: UserMessage{
			Message: "An archive entry could not be read",
			Action:  "Check that the archive is complete",
			Code:    "ARC002",
		},
	},
	{
		pattern: "archive pattern",
		msg: UserMessage{
			Message: "The archive file pattern is invalid",
			Action:  "Fix INPUT_PATTERN",
			Code:    "ARC003",
		},
	},
	{
		pattern: "reading directory",
		msg: UserMessage{
			Message: "The input directory could not be read",
			Action:  "Check that INPUT_DIR is a readable directory",
			Code:    "ARC004",
		},
	},

	// =========================================================================
	// CSV Errors (CSV001-CSV003)
	// =========================================================================
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "An archive entry is empty",
			Action:  "Remove the empty entry from the archive",
			Code:    "CSV001",
		},
	},
	{
		pattern: "header has",
		msg: UserMessage{
			Message: "A row has more fields than the header",
			Action:  "Check the entry for unquoted delimiters",
			Code:    "CSV002",
		},
	},
	{
		pattern: "invalid csv",
		msg:     invalidCSV,
	},
	{
		pattern: "invalid utf-8",
		msg:     invalidCSV,
	},

	// =========================================================================
	// Schema Errors (SCH001-SCH002)
	// =========================================================================
	{
		pattern: "missing required column",
		msg: UserMessage{
			Message: "A table is missing a column its group requires",
			Action:  "Check the headers of the entry named in the error",
			Code:    "SCH001",
		},
	},
	{
		pattern: "column not found",
		msg: UserMessage{
			Message: "An output column could not be found",
			Action:  "Check the headers of the entry named in the error",
			Code:    "SCH002",
		},
	},

	// =========================================================================
	// Output Errors (OUT001-OUT003)
	// =========================================================================
	{
		pattern: "create output dir",
		msg: UserMessage{
			Message: "The output directory could not be created",
			Action:  "Check that OUTPUT_DIR is writable",
			Code:    "OUT001",
		},
	},
	{
		pattern: "create temp for",
		msg: UserMessage{
			Message: "An output file could not be written",
			Action:  "Check free disk space and permissions on OUTPUT_DIR",
			Code:    "OUT002",
		},
	},
	{
		pattern: "replace ",
		msg: UserMessage{
			Message: "An output file could not be replaced",
			Action:  "Check free disk space and permissions on OUTPUT_DIR",
			Code:    "OUT002",
		},
	},
	{
		pattern: "save workbook",
		msg: UserMessage{
			Message: "The workbook could not be saved",
			Action:  "Check that XLSX_PATH is writable and not open elsewhere",
			Code:    "OUT003",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
// This is the fallback for unexpected errors. Support staff should check
// application logs for the original technical error when users report ERR000.
// invalidCSV covers both malformed delimited text and non-UTF-8 entries.
var invalidCSV = UserMessage{
	Message: "An archive entry is not valid CSV",
	Action:  "Ensure the entry is UTF-8 comma-separated text with quoted fields",
	Code:    "CSV003",
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Check the log output for details",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// It searches through known error patterns (case-insensitive) and returns
// the first match. If no pattern matches, a generic fallback message with
// code ERR000 is returned. An error wrapped by NewUserError keeps the
// message it was given.
//
// Example:
//
//	err := fmt.Errorf("discover: %w", csvio.ErrEmptyFile)
//	msg := MapError(err)
//	// msg.Code == "CSV001"
//	// msg.Message == "An archive entry is empty"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var ue *UserError
	if errors.As(err, &ue) {
		return ue.User
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
//
// Example output: "An archive entry is empty (Code: CSV001). Remove the empty entry from the archive"
func FormatUserError(err error) string {
	return MapError(err).String()
}

// String renders the message as "Message (Code: XXX). Action".
func (m UserMessage) String() string {
	if m.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", m.Message, m.Code, m.Action)
}

// IsUserFacing checks if an error matches a known pattern and should be shown to users.
// Returns true if the error matches a specific pattern (not the generic ERR000 fallback).
// Use this to decide whether to show the raw error or the mapped user message.
//
// Example:
//
//	if IsUserFacing(err) {
//	    fmt.Fprintln(os.Stderr, FormatUserError(err))
//	}
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	msg := MapError(err)
	return msg.Code != defaultMessage.Code
}

// UserError wraps a technical error with a user-friendly message.
// The original error is preserved for logging.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError creates a UserError by mapping a technical error to a user-friendly message.
// The returned UserError preserves the original technical error for logging via Unwrap(),
// while providing a clean user message via Error().
//
// Returns nil if err is nil.
//
// Example:
//
//	ue := NewUserError(err)
//	slog.Error("run failed", "error", ue.Technical)
//	fmt.Println(ue.User.Code) // "SCH001"
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
