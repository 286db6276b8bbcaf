// Package report percorre um relatório agrupado e o exporta em CSV, PDF, texto
// e série de gráfico. Todos os formatos consomem Rows.
package report

import (
	"fmt"
	"time"

	"github.com/ativix/ativix/internal/domain/model"
)

// FlatKey é a chave exibida nos relatórios sem segundo nível
const FlatKey = "-"

// Row é uma linha achatada de relatório
type Row struct {
	User        string
	Key         string
	Title       string
	Status      model.Status
	CreatedAt   time.Time
	CompletedAt *time.Time
}

// Rows achata o relatório na ordem usuário, chave, atividade. Os grupos já
// vêm ordenados de model.BuildReport.
func Rows(r *model.Report) []Row {
	if r == nil {
		return nil
	}

	var rows []Row
	for _, g := range r.Groups {
		if len(g.Buckets) == 0 {
			for _, a := range g.Activities {
				rows = append(rows, newRow(g.User, FlatKey, a))
			}
			continue
		}
		for _, b := range g.Buckets {
			for _, a := range b.Activities {
				rows = append(rows, newRow(g.User, b.Key, a))
			}
		}
	}
	return rows
}

func newRow(user, key string, a model.Activity) Row {
	return Row{
		User:        user,
		Key:         key,
		Title:       a.Title,
		Status:      a.Status,
		CreatedAt:   a.CreatedAt,
		CompletedAt: a.CompletedAt,
	}
}

// Bar é uma barra do gráfico: total de atividades por usuário
type Bar struct {
	User  string
	Count int
}

// Chart gera uma barra por usuário, na ordem do relatório
func Chart(r *model.Report) []Bar {
	if r == nil {
		return nil
	}
	bars := make([]Bar, 0, len(r.Groups))
	for _, g := range r.Groups {
		bars = append(bars, Bar{User: g.User, Count: g.Count()})
	}
	return bars
}

// Format é um formato de exportação
type Format string

const (
	FormatCSV Format = "csv"
	FormatPDF Format = "pdf"
)

// ParseFormat valida o formato pedido; vazio equivale a CSV
func ParseFormat(s string) (Format, bool) {
	switch Format(s) {
	case "", FormatCSV:
		return FormatCSV, true
	case FormatPDF:
		return FormatPDF, true
	default:
		return "", false
	}
}

// ContentType do arquivo exportado
func (f Format) ContentType() string {
	if f == FormatPDF {
		return "application/pdf"
	}
	return "text/csv; charset=utf-8"
}

// Filename é o nome sugerido para download
func Filename(kind model.ReportKind, f Format) string {
	return fmt.Sprintf("relatorio-%s.%s", kind, f)
}
