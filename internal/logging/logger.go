// Package logging writes structured JSON log lines through the standard logger.
package logging

import (
	"encoding/json"
	"log"
	"os"
	"time"
)

// Fields carries structured context for a log line.
type Fields map[string]interface{}

// exit is swapped out in tests.
var exit = os.Exit

func output(level, msg string, fields Fields) {
	line := make(Fields, len(fields)+3)
	for k, v := range fields {
		line[k] = v
	}
	line["level"] = level
	line["ts"] = time.Now().UTC().Format(time.RFC3339)
	line["msg"] = msg
	b, err := json.Marshal(line)
	if err != nil {
		log.Printf("%s: %s (%v)\n", level, msg, fields)
		return
	}
	log.Println(string(b))
}

func withError(fields Fields, err error) Fields {
	if err == nil {
		return fields
	}
	out := make(Fields, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	out["error"] = err.Error()
	return out
}

// Info logs an informational message with optional fields.
func Info(msg string, fields Fields) {
	output("info", msg, fields)
}

// Warn logs a degraded-but-continuing condition.
func Warn(msg string, err error, fields Fields) {
	output("warn", msg, withError(fields, err))
}

// Error logs an error message and includes the error text in the fields.
func Error(msg string, err error, fields Fields) {
	output("error", msg, withError(fields, err))
}

// Fatal logs a fatal error and exits the process.
func Fatal(msg string, err error, fields Fields) {
	output("fatal", msg, withError(fields, err))
	exit(1)
}
