package report_test

import (
	"bytes"
	"encoding/csv"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/ativix/ativix/internal/domain/model"
	"github.com/ativix/ativix/pkg/report"
	"github.com/go-pdf/fpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func buildReport(t *testing.T, kind model.ReportKind) *model.Report {
	t.Helper()
	d1 := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 3, 12, 10, 0, 0, 0, time.UTC)

	activities := []model.Activity{
		{ID: "1", Title: "Trocar toner", Status: model.StatusDone, ConcluidoPor: ptr("ana"), CompletedAt: &d1, CreatedAt: d1},
		{ID: "2", Title: "Configurar VPN", Status: model.StatusDone, ConcluidoPor: ptr("ana"), CompletedAt: &d2, CreatedAt: d1},
		{ID: "3", Title: "Backup semanal", Status: model.StatusDone, ConcluidoPor: ptr("bia"), CompletedAt: &d2, CreatedAt: d1},
		{ID: "4", Title: "Instalar impressora", Status: model.StatusPending, AssignedTo: ptr("bia"), CreatedAt: d2},
	}

	r, err := model.BuildReport(kind, activities, time.UTC)
	require.NoError(t, err)
	return r
}

func TestRows_FlatAndNested(t *testing.T) {
	flat := report.Rows(buildReport(t, model.ReportByUser))
	require.Len(t, flat, 3)
	for _, row := range flat {
		assert.Equal(t, report.FlatKey, row.Key)
	}
	assert.Equal(t, "ana", flat[0].User)
	assert.Equal(t, "Trocar toner", flat[0].Title)

	nested := report.Rows(buildReport(t, model.ReportByWeek))
	require.Len(t, nested, 3)
	assert.Equal(t, "2024-W10", nested[0].Key)
	assert.Equal(t, "2024-W11", nested[1].Key)

	assert.Nil(t, report.Rows(nil))
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.WriteCSV(&buf, buildReport(t, model.ReportByDay)))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, []string{"Usuário", "Chave", "Atividade"}, records[0])
	assert.Equal(t, []string{"ana", "2024-03-04", "Trocar toner"}, records[1])
	assert.Equal(t, []string{"bia", "2024-03-12", "Backup semanal"}, records[3])
}

var tjPattern = regexp.MustCompile(`\(((?:[^()\\]|\\.)*)\)Tj`)

var pdfUnescape = strings.NewReplacer(`\(`, "(", `\)`, ")", `\\`, `\`)

// pdfText junta, na ordem, todos os textos desenhados no PDF
func pdfText(t *testing.T, r *model.Report) (string, []string) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, report.WritePDF(&buf, r, report.PDFOptions{Uncompressed: true}))
	out := buf.String()
	require.True(t, strings.HasPrefix(out, "%PDF-"))

	var fragments []string
	for _, m := range tjPattern.FindAllStringSubmatch(out, -1) {
		fragments = append(fragments, pdfUnescape.Replace(m[1]))
	}
	return strings.Join(fragments, ""), fragments
}

func cp1252(s string) string {
	return fpdf.New("L", "mm", "A4", "").UnicodeTranslatorFromDescriptor("")(s)
}

func csvRecords(t *testing.T, r *model.Report) [][]string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, report.WriteCSV(&buf, r))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	return records
}

func TestExports_EnumerateSameRows(t *testing.T) {
	for _, kind := range model.ReportKinds() {
		t.Run(string(kind), func(t *testing.T) {
			r := buildReport(t, kind)
			records := csvRecords(t, r)
			text, _ := pdfText(t, r)

			rows := report.Rows(r)
			require.Len(t, records, len(rows)+1)
			for i, row := range rows {
				assert.Equal(t, []string{row.User, row.Key, row.Title}, records[i+1])
				assert.Contains(t, text, cp1252(row.User))
				assert.Contains(t, text, cp1252(row.Key))
				assert.Contains(t, text, cp1252(row.Title))
			}
			assert.Contains(t, text, cp1252("Página 1 de 1"))
		})
	}
}

func TestWritePDF_WrapsLongCells(t *testing.T) {
	done := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	longTitle := "Migrar o servidor de arquivos do departamento financeiro para o novo storage com replicação"
	noSpaces := strings.Repeat("backup", 30)
	longUser := "maria.fernanda.albuquerque.de.souza.lima"

	activities := []model.Activity{
		{ID: "1", Title: longTitle, Status: model.StatusDone, ConcluidoPor: ptr(longUser), CompletedAt: &done, CreatedAt: done},
		{ID: "2", Title: noSpaces, Status: model.StatusDone, ConcluidoPor: ptr("ana"), CompletedAt: &done, CreatedAt: done},
	}

	for _, kind := range []model.ReportKind{model.ReportByUser, model.ReportByWeek} {
		t.Run(string(kind), func(t *testing.T) {
			r, err := model.BuildReport(kind, activities, time.UTC)
			require.NoError(t, err)

			records := csvRecords(t, r)
			text, fragments := pdfText(t, r)

			require.Len(t, records, 3)
			for _, rec := range records[1:] {
				assert.Contains(t, text, cp1252(rec[0]))
				assert.Contains(t, text, cp1252(rec[1]))
				assert.Contains(t, text, cp1252(rec[2]))
			}
			assert.NotContains(t, text, "...")
			assert.NotContains(t, fragments, cp1252(longTitle))
			assert.NotContains(t, fragments, noSpaces)
			assert.NotContains(t, fragments, longUser)
		})
	}
}

func TestWritePDF_OutsideCP1252(t *testing.T) {
	done := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	title := "Revisão do módulo ✓ Ω"
	r, err := model.BuildReport(model.ReportByUser, []model.Activity{
		{ID: "1", Title: title, Status: model.StatusDone, ConcluidoPor: ptr("joão"), CompletedAt: &done, CreatedAt: done},
	}, time.UTC)
	require.NoError(t, err)

	records := csvRecords(t, r)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"joão", report.FlatKey, title}, records[1])

	text, _ := pdfText(t, r)
	assert.Contains(t, text, "Revis\xe3o do m\xf3dulo . .")
	assert.Contains(t, text, "jo\xe3o")
}

func TestChart(t *testing.T) {
	bars := report.Chart(buildReport(t, model.ReportByDay))
	assert.Equal(t, []report.Bar{{User: "ana", Count: 2}, {User: "bia", Count: 1}}, bars)

	var buf bytes.Buffer
	require.NoError(t, report.WriteChart(&buf, bars, 10))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], strings.Repeat("█", 10)+" 2")
	assert.Contains(t, lines[1], strings.Repeat("█", 5)+" 1")
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.WriteText(&buf, buildReport(t, model.ReportAssigned)))
	out := buf.String()
	assert.Contains(t, out, "Fixadas por Usuário")
	assert.Contains(t, out, "Instalar impressora")

	empty, err := model.BuildReport(model.ReportByUser, nil, time.UTC)
	require.NoError(t, err)
	buf.Reset()
	require.NoError(t, report.WriteText(&buf, empty))
	assert.Contains(t, buf.String(), "Nenhuma atividade encontrada.")
}

func TestParseFormat(t *testing.T) {
	f, ok := report.ParseFormat("")
	require.True(t, ok)
	assert.Equal(t, report.FormatCSV, f)

	f, ok = report.ParseFormat("pdf")
	require.True(t, ok)
	assert.Equal(t, "application/pdf", f.ContentType())
	assert.Equal(t, "relatorio-semana.pdf", report.Filename(model.ReportByWeek, f))

	_, ok = report.ParseFormat("xlsx")
	assert.False(t, ok)
}
