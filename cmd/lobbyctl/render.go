package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/samvad-hq/lobby-status-client/internal/domain"
	"gopkg.in/yaml.v3"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
)

func validateFormat(format string) error {
	switch format {
	case formatJSON, formatYAML:
		return nil
	default:
		return fmt.Errorf("unsupported output %q (expected json or yaml)", format)
	}
}

// printSnapshot writes one payload. Bodies that are not valid JSON are printed verbatim.
func printSnapshot(w io.Writer, format string, s domain.Snapshot) error {
	header := fmt.Sprintf("# %s %s %s\n", s.ReceivedAt.Format("2006-01-02T15:04:05Z07:00"), s.Op, s.ID)
	if _, err := io.WriteString(w, header); err != nil {
		return err
	}

	body, err := renderPayload(format, s.Payload)
	if err != nil {
		body = append(append([]byte(nil), s.Payload...), '\n')
	}
	_, err = w.Write(body)
	return err
}

func renderPayload(format string, payload []byte) ([]byte, error) {
	if format == formatYAML {
		var v any
		if err := json.Unmarshal(payload, &v); err != nil {
			return nil, err
		}
		return yaml.Marshal(v)
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, payload, "", "  "); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
