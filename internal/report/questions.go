package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/xuri/excelize/v2"

	"github.com/mind-engage/mindengage-tka/internal/exam"
)

var ErrMissingColumn = errors.New("missing column")

// Question sheets carry one question per row below a header row. Header
// names are matched case-insensitively; "id" and "gambar" are optional.
var questionColumns = []string{"nomor", "soal", "a", "b", "c", "d", "kunci", "mapel", "paket"}

// ReadQuestionsCSV parses a question sheet in CSV form.
func ReadQuestionsCSV(r io.Reader) ([]exam.Question, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return parseQuestionRows(rows)
}

// ReadQuestionsXLSX parses the first sheet of a workbook.
func ReadQuestionsXLSX(r io.Reader) ([]exam.Question, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	return parseQuestionRows(rows)
}

func parseQuestionRows(rows [][]string) ([]exam.Question, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty sheet", ErrMissingColumn)
	}
	col := map[string]int{}
	for i, h := range rows[0] {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	var merr *multierror.Error
	for _, name := range questionColumns {
		if _, ok := col[name]; !ok {
			merr = multierror.Append(merr, fmt.Errorf("%w %q", ErrMissingColumn, name))
		}
	}
	if err := merr.ErrorOrNil(); err != nil {
		return nil, err
	}

	cell := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	out := make([]exam.Question, 0, len(rows)-1)
	for n, row := range rows[1:] {
		if blank(row) {
			continue
		}
		num, err := strconv.Atoi(cell(row, "nomor"))
		if err != nil {
			merr = multierror.Append(merr, fmt.Errorf("row %d: nomor %q is not a number", n+2, cell(row, "nomor")))
			continue
		}
		out = append(out, exam.Question{
			ID:       cell(row, "id"),
			Number:   num,
			Text:     cell(row, "soal"),
			ImageURL: cell(row, "gambar"),
			Options: exam.Options{
				A: cell(row, "a"),
				B: cell(row, "b"),
				C: cell(row, "c"),
				D: cell(row, "d"),
			},
			CorrectAnswer: exam.OptionKey(strings.ToUpper(cell(row, "kunci"))),
			Subject:       exam.Subject(cell(row, "mapel")),
			Package:       cell(row, "paket"),
		})
	}
	return out, merr.ErrorOrNil()
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
