package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Printer writes command results as text or JSON
type Printer struct {
	Format string
	Writer io.Writer
}

func (p *Printer) JSON() bool {
	return p.Format == "json"
}

// Emit writes data as one JSON document, or calls text for the text format
func (p *Printer) Emit(data interface{}, text func(w io.Writer) error) error {
	if p.JSON() {
		enc := json.NewEncoder(p.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	}
	return text(p.Writer)
}

// Message prints a one-line confirmation
func (p *Printer) Message(msg string) error {
	return p.Emit(map[string]string{"message": msg}, func(w io.Writer) error {
		_, err := fmt.Fprintln(w, msg)
		return err
	})
}

// table writes rows aligned under header
func table(w io.Writer, header []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
