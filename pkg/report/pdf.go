package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ativix/ativix/internal/domain/model"
	"github.com/go-pdf/fpdf"
)

// PDFHeader são as colunas da tabela do PDF
var PDFHeader = []string{"Usuário", "Chave", "Atividade", "Status", "Criada em", "Concluída em"}

var pdfWidths = []float64{40, 28, 110, 26, 36, 36}

const (
	pdfDateLayout   = "02/01/2006 15:04"
	pdfLineHeight   = 5.0
	pdfBottomMargin = 15.0
)

// PDFOptions ajusta a geração do PDF
type PDFOptions struct {
	// Location é o fuso das datas; UTC quando nil
	Location *time.Location
	// Uncompressed grava os fluxos sem compressão
	Uncompressed bool
	// GeneratedAt aparece no cabeçalho; agora quando zero
	GeneratedAt time.Time
}

// WritePDF gera uma tabela paginada com rodapé "Página N de M". Textos longos
// quebram em várias linhas dentro da célula e nenhum caractere é cortado.
// As fontes padrão usam cp1252; caracteres fora dela saem como ".".
func WritePDF(w io.Writer, r *model.Report, opts PDFOptions) error {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	generated := opts.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetCompression(!opts.Uncompressed)
	pdf.SetTitle(r.Kind.Title(), true)
	pdf.SetCreator("ativix", true)
	pdf.SetAutoPageBreak(true, pdfBottomMargin)
	pdf.AliasNbPages("")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetHeaderFunc(func() {
		pdf.SetFont("Helvetica", "B", 14)
		pdf.CellFormat(0, 10, tr("Relatório: "+r.Kind.Title()), "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 8)
		pdf.CellFormat(0, 5, tr("Gerado em "+generated.In(loc).Format(pdfDateLayout)), "", 1, "L", false, 0, "")
		pdf.Ln(2)

		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		for i, h := range PDFHeader {
			pdf.CellFormat(pdfWidths[i], 7, tr(h), "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 9)
	})

	pdf.SetFooterFunc(func() {
		pdf.SetY(-pdfBottomMargin)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 10, tr(fmt.Sprintf("Página %d de {nb}", pdf.PageNo())), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()

	rows := Rows(r)
	if len(rows) == 0 {
		pdf.CellFormat(0, 7, tr("Nenhuma atividade encontrada."), "", 1, "L", false, 0, "")
	}

	for _, row := range rows {
		completed := ""
		if row.CompletedAt != nil {
			completed = row.CompletedAt.In(loc).Format(pdfDateLayout)
		}
		created := ""
		if !row.CreatedAt.IsZero() {
			created = row.CreatedAt.In(loc).Format(pdfDateLayout)
		}

		cells := []string{row.User, row.Key, row.Title, string(row.Status), created, completed}
		writeRow(pdf, tr, cells)
	}

	return pdf.Output(w)
}

// writeRow desenha uma linha da tabela com a altura da célula mais alta
func writeRow(pdf *fpdf.Fpdf, tr func(string) string, cells []string) {
	margin := pdf.GetCellMargin()
	lines := make([][]string, len(cells))
	height := 1
	for i, text := range cells {
		lines[i] = wrap(pdf, tr(text), pdfWidths[i]-2*margin)
		if len(lines[i]) > height {
			height = len(lines[i])
		}
	}
	rowH := float64(height) * pdfLineHeight

	_, pageH := pdf.GetPageSize()
	if pdf.GetY()+rowH > pageH-pdfBottomMargin {
		pdf.AddPage()
	}

	x0, y0 := pdf.GetX(), pdf.GetY()
	x := x0
	for i, cell := range lines {
		pdf.Rect(x, y0, pdfWidths[i], rowH, "D")
		for j, line := range cell {
			pdf.SetXY(x, y0+float64(j)*pdfLineHeight)
			pdf.CellFormat(pdfWidths[i], pdfLineHeight, line, "", 0, "L", false, 0, "")
		}
		x += pdfWidths[i]
	}
	pdf.SetXY(x0, y0+rowH)
}

// wrap quebra o texto (já em cp1252, um byte por caractere) em linhas que
// cabem em width. Quebra nos espaços quando possível e mantém o espaço no fim
// da linha, então strings.Join(linhas, "") devolve o texto original.
func wrap(pdf *fpdf.Fpdf, text string, width float64) []string {
	if text == "" {
		return []string{""}
	}

	var lines []string
	for len(text) > 0 {
		if pdf.GetStringWidth(text) <= width {
			lines = append(lines, text)
			break
		}

		cut := 1
		for n := 2; n <= len(text) && pdf.GetStringWidth(text[:n]) <= width; n++ {
			cut = n
		}
		if cut < len(text) && text[cut] == ' ' {
			cut++
		} else if sp := strings.LastIndexByte(text[:cut], ' '); sp > 0 {
			cut = sp + 1
		}

		lines = append(lines, text[:cut])
		text = text[cut:]
	}
	return lines
}
