package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"github.com/symlinkgmbh/eco-os-ms-service-conf/internal/service"
)

// Output formats accepted by --output
const (
	outputJSON  = "json"
	outputYAML  = "yaml"
	outputTable = "table"
)

// writeOutput encodes v to w as indented JSON, YAML or a table. YAML output
// goes through a JSON round trip so both formats share field names. Only
// seed results render as a table.
func writeOutput(w io.Writer, format string, v interface{}) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)

	case outputYAML:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode output: %w", err)
		}
		var plain interface{}
		if err := json.Unmarshal(data, &plain); err != nil {
			return fmt.Errorf("encode output: %w", err)
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(plain); err != nil {
			return fmt.Errorf("encode output: %w", err)
		}
		return enc.Close()

	case outputTable:
		result, ok := v.(*service.SeedResult)
		if !ok {
			return fmt.Errorf("table output is not supported for %T", v)
		}
		writeSeedTable(w, result)
		return nil

	default:
		return fmt.Errorf("unknown output format %q (want %s, %s or %s)", format, outputJSON, outputYAML, outputTable)
	}
}

func writeSeedTable(w io.Writer, result *service.SeedResult) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"KEY", "RESULT"})
	for _, key := range result.Created {
		t.AppendRow(table.Row{key, "created"})
	}
	for _, key := range result.Skipped {
		t.AppendRow(table.Row{key, "skipped"})
	}
	t.AppendFooter(table.Row{"TOTAL", len(result.Created) + len(result.Skipped)})
	t.Render()
}
