// Package report writes result sheets and reads question sheets.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/mind-engage/mindengage-tka/internal/exam"
)

var resultHeader = []string{
	"Waktu", "NIS", "Nama", "Kelas", "Mata Pelajaran", "Paket",
	"Benar", "Salah", "Jumlah Soal", "Nilai",
}

const timeLayout = "2006-01-02 15:04:05"

// ResultOptions controls how timestamps are rendered; the zero value uses UTC.
type ResultOptions struct {
	Location *time.Location
}

func (o ResultOptions) stamp(t time.Time) string {
	loc := o.Location
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(timeLayout)
}

func resultRow(r exam.ExamResult, o ResultOptions) []any {
	return []any{
		o.stamp(r.Timestamp), r.NIS, r.StudentName, r.ClassName, string(r.Subject), r.Package,
		r.CorrectCount, r.WrongCount, r.TotalQuestions, r.Score,
	}
}

func WriteResultsCSV(w io.Writer, rs []exam.ExamResult, o ResultOptions) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(resultHeader); err != nil {
		return err
	}
	rec := make([]string, len(resultHeader))
	for _, r := range rs {
		for i, v := range resultRow(r, o) {
			rec[i] = fmt.Sprint(v)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteResultsXLSX writes one sheet with a header row; counts and scores are
// numeric cells.
func WriteResultsXLSX(w io.Writer, rs []exam.ExamResult, o ResultOptions) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(f.GetActiveSheetIndex())

	header := make([]any, len(resultHeader))
	for i, h := range resultHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i, r := range rs {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := resultRow(r, o)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(sheet, "A", "A", 20); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "C", "C", 28); err != nil {
		return err
	}
	return f.Write(w)
}
