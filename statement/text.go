package statement

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// RenderText writes doc as aligned plain-text tables.
func RenderText(w io.Writer, doc Document) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, doc.Title)
	if doc.Reference != "" {
		fmt.Fprintf(tw, "Ref: %s\n", doc.Reference)
	}
	fmt.Fprintln(tw, doc.Header)

	for _, s := range doc.Sections {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, s.Heading)
		fmt.Fprintln(tw, strings.Repeat("-", len(s.Heading)))

		if !s.HideHeader {
			titles := make([]string, len(s.Columns))
			for i, c := range s.Columns {
				titles[i] = c.Title
			}
			fmt.Fprintln(tw, strings.Join(titles, "\t")+"\t")
		}
		for _, row := range s.Rows {
			fmt.Fprintln(tw, strings.Join(row.Cells, "\t")+"\t")
		}
		// Flush per section so each table aligns on its own.
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	fmt.Fprintln(tw)
	fmt.Fprintln(tw, doc.Selection)
	fmt.Fprintln(tw, doc.Signature)
	return tw.Flush()
}
