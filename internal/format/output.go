package format

import (
	"fmt"
	"io"

	"github.com/bytedance/sonic"
)

// Write writes output in the requested format.
//
// Supported formats:
// - json (default)
// - text
func Write(w io.Writer, v any, format string, pretty bool) error {
	switch format {
	case "", "json":
		return WriteJSON(w, v, pretty)
	case "text":
		return WriteText(w, v)
	default:
		return fmt.Errorf("unknown format: %s (want json|text)", format)
	}
}

// Formats lists the values Write accepts.
func Formats() []string { return []string{"json", "text"} }

// WriteJSON writes strict JSON output for CLI commands. Map keys are sorted so
// output is stable across runs.
func WriteJSON(w io.Writer, v any, pretty bool) error {
	api := sonic.ConfigStd
	var b []byte
	var err error
	if pretty {
		b, err = api.MarshalIndent(v, "", "  ")
	} else {
		b, err = api.Marshal(v)
	}
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(b))
	return err
}
