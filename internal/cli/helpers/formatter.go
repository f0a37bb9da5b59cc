// Package helpers holds the output formatting and flag conventions shared by
// the venusctl commands.
package helpers

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

// OutputFormat names a -o/--format value.
type OutputFormat string

const (
	FormatTable OutputFormat = "table"
	FormatJSON  OutputFormat = "json"
	FormatYAML  OutputFormat = "yaml"
)

// Formatter writes a command result.
type Formatter interface {
	Format(data any, w io.Writer) error
}

// NewFormatter returns the Formatter for format.
func NewFormatter(format OutputFormat) (Formatter, error) {
	switch format {
	case FormatTable:
		return &TableFormatter{}, nil
	case FormatJSON:
		return &JSONFormatter{}, nil
	case FormatYAML:
		return &YAMLFormatter{}, nil
	}
	return nil, fmt.Errorf("unsupported format: %s", format)
}

// JSONFormatter writes indented JSON.
type JSONFormatter struct{}

func (f *JSONFormatter) Format(data any, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// YAMLFormatter writes YAML in the layout config.yaml uses.
type YAMLFormatter struct{}

func (f *YAMLFormatter) Format(data any, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return err
	}
	return enc.Close()
}

// TableFormatter writes a slice of structs as one row per element, with the
// columns taken from `header` tags. A single struct is written as FIELD/VALUE
// rows instead. Nil pointers render as "-".
type TableFormatter struct{}

func (f *TableFormatter) Format(data any, w io.Writer) error {
	v := reflect.Indirect(reflect.ValueOf(data))

	var rows [][]string
	switch v.Kind() {
	case reflect.Slice:
		if v.Len() == 0 {
			return nil
		}
		cols := columns(v.Type().Elem())
		rows = append(rows, headers(cols))
		for i := 0; i < v.Len(); i++ {
			rows = append(rows, cells(reflect.Indirect(v.Index(i)), cols))
		}
	case reflect.Struct:
		cols := columns(v.Type())
		rows = append(rows, []string{"FIELD", "VALUE"})
		for i, c := range cols {
			rows = append(rows, []string{c.header, cells(v, cols[i:i+1])[0]})
		}
	default:
		return fmt.Errorf("table output needs a struct or a slice of structs, got %s", v.Kind())
	}

	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	for _, row := range rows {
		if _, err := fmt.Fprintln(tw, strings.Join(row, "\t")); err != nil {
			return err
		}
	}
	return tw.Flush()
}

type column struct {
	index  int
	header string
}

func columns(t reflect.Type) []column {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	var cols []column
	for i := 0; i < t.NumField(); i++ {
		if h := t.Field(i).Tag.Get("header"); h != "" {
			cols = append(cols, column{index: i, header: h})
		}
	}
	return cols
}

func headers(cols []column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.header
	}
	return out
}

func cells(v reflect.Value, cols []column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		field := v.Field(c.index)
		if field.Kind() == reflect.Pointer {
			if field.IsNil() {
				out[i] = "-"
				continue
			}
			field = field.Elem()
		}
		out[i] = fmt.Sprint(field.Interface())
	}
	return out
}
