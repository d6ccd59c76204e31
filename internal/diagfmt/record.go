package diagfmt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"buildlens/internal/report"
)

// JSON writes r as indented JSON with a trailing newline.
func JSON(w io.Writer, r *report.AnalysisReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	// сообщения компилятора содержат '<' и '&', экранировать их не нужно
	enc.SetEscapeHTML(false)
	return enc.Encode(r)
}

// Msgpack writes r as MessagePack using the same field names as JSON.
func Msgpack(w io.Writer, r *report.AnalysisReport) error {
	enc := msgpack.NewEncoder(w)
	enc.UseCompactInts(true)
	return enc.Encode(r)
}

// DecodeRecord reads a report previously written as JSON or MessagePack.
func DecodeRecord(data []byte, f Format) (*report.AnalysisReport, error) {
	var r report.AnalysisReport
	switch f {
	case FormatJSON:
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, fmt.Errorf("decode json report: %w", err)
		}
	case FormatMsgpack:
		if err := msgpack.NewDecoder(bytes.NewReader(data)).Decode(&r); err != nil {
			return nil, fmt.Errorf("decode msgpack report: %w", err)
		}
	default:
		return nil, fmt.Errorf("%s is not a record format", f)
	}
	if r.SchemaVersion != report.SchemaVersion {
		return nil, fmt.Errorf("report schema version %d, want %d", r.SchemaVersion, report.SchemaVersion)
	}
	return &r, nil
}
