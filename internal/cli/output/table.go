// Package output renders scadactl's status and report tables.
package output

import (
	"io"

	"github.com/olekukonko/tablewriter"
)

// Table accumulates rows for a borderless column listing (history,
// verify output).
type Table struct {
	headers []string
	rows    [][]string
}

// NewTable creates a table with the given column headers.
func NewTable(headers ...string) *Table {
	return &Table{headers: headers}
}

// AddRow appends one row.
func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

// Render writes the table to w.
func (t *Table) Render(w io.Writer) {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader(t.headers)
	configure(tw, "")
	for _, row := range t.rows {
		tw.Append(row)
	}
	tw.Render()
}

// SimpleTable prints key-value pairs, used for state and verification
// readbacks.
func SimpleTable(w io.Writer, pairs [][2]string) {
	tw := tablewriter.NewWriter(w)
	configure(tw, ":")
	for _, pair := range pairs {
		tw.Append([]string{pair[0], pair[1]})
	}
	tw.Render()
}

// configure applies the borderless terminal style shared by all
// scadactl output.
func configure(tw *tablewriter.Table, columnSep string) {
	tw.SetAutoWrapText(false)
	tw.SetAutoFormatHeaders(true)
	tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	tw.SetCenterSeparator("")
	tw.SetColumnSeparator(columnSep)
	tw.SetRowSeparator("")
	tw.SetHeaderLine(false)
	tw.SetBorder(false)
	tw.SetTablePadding("  ")
	tw.SetNoWhiteSpace(true)
}
