package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"orgtree/internal/model"
)

// Write writes output in the requested format.
//
// Supported formats:
// - json (default)
// - edn
// - text (org charts only)
func Write(w io.Writer, v any, format string, pretty bool) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "json":
		return WriteJSON(w, v, pretty)
	case "edn":
		return WriteEDN(w, v, pretty)
	case "text":
		switch t := v.(type) {
		case model.Employee:
			return WriteTree(w, t, TreeOptions{IDs: true})
		case *model.Employee:
			return WriteTree(w, *t, TreeOptions{IDs: true})
		default:
			return fmt.Errorf("text format is only available for org charts")
		}
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// WriteJSON writes strict JSON output for CLI commands.
func WriteJSON(w io.Writer, v any, pretty bool) error {
	var b []byte
	var err error
	if pretty {
		b, err = json.MarshalIndent(v, "", "  ")
	} else {
		b, err = json.Marshal(v)
	}
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(b))
	return err
}
