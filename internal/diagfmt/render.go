// Package diagfmt renders an AnalysisReport as text, HTML, JSON and
// MessagePack. Renderers only read the report.
package diagfmt

import (
	"bytes"
	"fmt"

	"buildlens/internal/report"
)

// Encode renders r in one format.
func Encode(r *report.AnalysisReport, f Format, opts TextOpts) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch f {
	case FormatText:
		err = Text(&buf, r, opts)
	case FormatHTML:
		err = HTML(&buf, r)
	case FormatJSON:
		err = JSON(&buf, r)
	case FormatMsgpack:
		err = Msgpack(&buf, r)
	default:
		err = fmt.Errorf("unknown format %d", f)
	}
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", f, err)
	}
	return buf.Bytes(), nil
}

// Render writes r to sink in every requested format; nil formats means all.
// Text written to a sink is never coloured.
func Render(r *report.AnalysisReport, sink Sink, formats []Format) error {
	if formats == nil {
		formats = AllFormats()
	}
	for _, f := range formats {
		data, err := Encode(r, f, TextOpts{})
		if err != nil {
			return err
		}
		if err := sink.Write(f.FileName(), data); err != nil {
			return fmt.Errorf("write %s: %w", f.FileName(), err)
		}
	}
	return nil
}
