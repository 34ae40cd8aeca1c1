package core

// # Error Codes Reference
//
// Each failure a run can report maps to a short code so that log lines from
// different runs and sinks can be grouped and searched.
//
// # Source Errors (SRC001-SRC099)
//
//	SRC001 - Source not found: the input file does not exist (fatal)
//	SRC002 - Header not found: the flat file has no "video" sentinel line (fatal)
//
// # Parse Errors (PAR001-PAR099)
//
//	PAR001 - Parse error: delimited structure is inconsistent
//	PAR002 - Coercion error: a cell could not be converted to its column type
//
// # Enrichment Errors (REF001-REF099)
//
//	REF001 - Reference unavailable: enrichment continues with the sentinel value
//
// # Sink Errors (SNK001-SNK099)
//
//	SNK001 - Sink not configured: connection settings are missing
//	SNK002 - No route: no sink is configured for the report name
//
// # Transport Errors (NET001-NET099, AUTH001-AUTH099)
//
// Matched case-insensitively against the error text reported by drivers:
//
//	NET001  - Connection refused        Patterns: "connection refused", "no such host"
//	NET002  - Timeout                   Patterns: "deadline exceeded", "timeout", "timed out"
//	AUTH001 - Authentication failed     Patterns: "authentication failed", "auth error", "permission denied"
//
// # Default Error (ERR000)
//
// Fallback when nothing matches; check the logged technical error.

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides operator-facing error information.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Error code for log search
}

// sentinelMessages maps typed errors to messages. Checked with errors.Is, in order.
var sentinelMessages = []struct {
	err error
	msg UserMessage
}{
	{ErrSourceNotFound, UserMessage{"Input file does not exist", "Check the configured input path", "SRC001"}},
	{ErrHeaderNotFound, UserMessage{"Flat file has no header line", "Verify the archive contains the expected text file", "SRC002"}},
	{ErrParse, UserMessage{"Delimited file is inconsistent", "Check delimiter and column counts", "PAR001"}},
	{ErrCoercion, UserMessage{"Cell could not be converted", "Review the failed rows", "PAR002"}},
	{ErrReferenceUnavailable, UserMessage{"Reference table unavailable", "Rows were enriched with the sentinel value", "REF001"}},
	{ErrSinkNotConfigured, UserMessage{"Sink is not configured", "Set the sink connection variables", "SNK001"}},
	{ErrNoRoute, UserMessage{"No sink route for report", "Add a route for the report name", "SNK002"}},
}

// errorPattern defines a pattern to match and its corresponding message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps driver error text (case-insensitive) to messages.
// The first matching pattern wins, so more specific patterns come first.
var errorPatterns = []errorPattern{
	{"connection refused", UserMessage{"Connection refused", "Check that the destination is reachable", "NET001"}},
	{"no such host", UserMessage{"Connection refused", "Check that the destination is reachable", "NET001"}},
	{"deadline exceeded", UserMessage{"Operation timed out", "Raise the timeout or check the destination", "NET002"}},
	{"timed out", UserMessage{"Operation timed out", "Raise the timeout or check the destination", "NET002"}},
	{"timeout", UserMessage{"Operation timed out", "Raise the timeout or check the destination", "NET002"}},
	{"authentication failed", UserMessage{"Authentication failed", "Check credentials", "AUTH001"}},
	{"auth error", UserMessage{"Authentication failed", "Check credentials", "AUTH001"}},
	{"permission denied", UserMessage{"Authentication failed", "Check credentials or file permissions", "AUTH001"}},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Check the logged error",
	Code:    "ERR000",
}

// MapError converts an error to an operator-facing message.
// Typed errors are matched first, then known driver text patterns.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, sm := range sentinelMessages {
		if errors.Is(err, sm.err) {
			return sm.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// ErrorCode returns just the code for err ("" for nil).
func ErrorCode(err error) string {
	return MapError(err).Code
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
