package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/ativix/ativix/internal/domain/model"
)

// WriteText imprime o relatório como tabela alinhada para o terminal
func WriteText(w io.Writer, r *model.Report) error {
	fmt.Fprintf(w, "%s\n\n", r.Kind.Title())

	rows := Rows(r)
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "Nenhuma atividade encontrada.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(CSVHeader, "\t"))
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", row.User, row.Key, row.Title)
	}
	return tw.Flush()
}

// WriteChart desenha as barras de Chart em texto, proporcionais ao maior total
func WriteChart(w io.Writer, bars []Bar, width int) error {
	if width <= 0 {
		width = 40
	}

	max := 0
	for _, b := range bars {
		if b.Count > max {
			max = b.Count
		}
	}

	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	for _, b := range bars {
		n := 0
		if max > 0 {
			n = b.Count * width / max
		}
		if b.Count > 0 && n == 0 {
			n = 1
		}
		fmt.Fprintf(tw, "%s\t%s %d\n", b.User, strings.Repeat("█", n), b.Count)
	}
	return tw.Flush()
}
