// Package output renders command results as tables, JSON or YAML.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/bitswalk/akb/src/common/errors"
)

// Formats accepted by the -o flag
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// ValidFormat reports whether f is a known output format
func ValidFormat(f string) bool {
	switch f {
	case FormatTable, FormatJSON, FormatYAML:
		return true
	}
	return false
}

// PrintJSON writes data as indented JSON to stdout
func PrintJSON(data interface{}) error {
	return writeJSON(os.Stdout, data)
}

// PrintYAML writes data as YAML to stdout. Field names follow the json
// tags so both formats show the same keys.
func PrintYAML(data interface{}) error {
	return writeYAML(os.Stdout, data)
}

func writeJSON(w io.Writer, data interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func writeYAML(w io.Writer, data interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return err
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return err
	}
	return enc.Close()
}

// Print writes data as JSON or YAML, or calls table for the table format
func Print(format string, data interface{}, table func()) error {
	switch format {
	case FormatJSON:
		return PrintJSON(data)
	case FormatYAML:
		return PrintYAML(data)
	default:
		table()
		return nil
	}
}

// PrintTable writes tabular data to stdout
func PrintTable(headers []string, rows [][]string) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(headers, "\t"))
	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	w.Flush()
}

// PrintMessage writes a plain message to stdout
func PrintMessage(msg string) {
	fmt.Println(msg)
}

// PrintError writes an error message to stderr
func PrintError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}

// PrintFailure writes err to stderr in the given format: a structured
// report for json and yaml, the plain message otherwise.
func PrintFailure(format string, err error) {
	report := errors.NewReport(err)
	var werr error
	switch format {
	case FormatJSON:
		werr = writeJSON(os.Stderr, report)
	case FormatYAML:
		werr = writeYAML(os.Stderr, report)
	default:
		PrintError(err)
		return
	}
	if werr != nil {
		PrintError(err)
	}
}
