package report

import (
	"encoding/csv"
	"io"

	"github.com/ativix/ativix/internal/domain/model"
)

// CSVHeader é o cabeçalho do arquivo CSV
var CSVHeader = []string{"Usuário", "Chave", "Atividade"}

// WriteCSV grava uma linha por atividade, incluindo as chaves de dia ou semana
func WriteCSV(w io.Writer, r *model.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, row := range Rows(r) {
		if err := cw.Write([]string{row.User, row.Key, row.Title}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
