package errs

import (
	"fmt"
	"strings"
)

// InvalidArgumentError reports a malformed call: an incomplete grouping key,
// an empty batch where one is required, or use before Start.
type InvalidArgumentError struct {
	Msg string
}

// MetadataError reports that a target table could not be described.
type MetadataError struct {
	Schema string
	Table  string
	Err    error
}

// SchemaDriftError reports columns that could not be mapped between a record
// and the target table. Record holds the rendered offending record, if any.
type SchemaDriftError struct {
	Schema  string
	Table   string
	Missing []string
	Record  string
}

// QueryExecutionError wraps a failure returned by the target database.
type QueryExecutionError struct {
	Msg string
	Err error
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid argument: %s", e.Msg)
}

func (e *MetadataError) Error() string {
	return fmt.Sprintf("metadata error: cannot describe %s: %v", qualified(e.Schema, e.Table), e.Err)
}

func (e *MetadataError) Unwrap() error {
	return e.Err
}

func (e *SchemaDriftError) Error() string {
	msg := fmt.Sprintf("schema drift on %s: miss columns [%s]", qualified(e.Schema, e.Table), strings.Join(e.Missing, ", "))
	if e.Record != "" {
		msg += " and failed record data: " + e.Record
	}
	return msg
}

func (e *QueryExecutionError) Error() string {
	return fmt.Sprintf("query execution error: %s: %v", e.Msg, e.Err)
}

func (e *QueryExecutionError) Unwrap() error {
	return e.Err
}

func qualified(schema, table string) string {
	if schema == "" {
		return table
	}
	return schema + "." + table
}
