// Package logging provides structured logging for the fakeldap server.
//
// # Creating a Logger
//
//	logger := logging.New(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	    Output: "stderr",
//	})
//
// For tests, use logging.NewNop or logging.NewWithCore with a zap observer core.
//
// # Structured Logging
//
// Every method takes a message followed by alternating keys and values:
//
//	logger.Info("bind successful",
//	    "dn", "cn=root",
//	    "duration_ms", 2,
//	)
//
// Connections derive a child logger with WithRequestID so every line written
// while serving a client carries the same request_id field.
//
// # Output Formats
//
// Text format is logfmt:
//
//	ts=2026-02-18T10:30:00Z level=info msg="bind successful" dn=cn=root duration_ms=2
//
// JSON format:
//
//	{"level":"info","ts":"2026-02-18T10:30:00Z","msg":"bind successful","dn":"cn=root"}
package logging
