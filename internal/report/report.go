// Package report exports a finished interview as a spreadsheet.
package report

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/mockt/mockt/internal/store"
)

// SheetName is the worksheet holding the answers.
const SheetName = "Interview"

// Row is one question of the report.
type Row struct {
	QuestionID int
	Question   string
	Answer     string
	Score      *int
	Feedback   string
	AnsweredAt time.Time
	Attempts   int
}

// Report is the exported view of a session.
type Report struct {
	SessionID  string
	JobRole    string
	Difficulty string
	CreatedAt  time.Time
	Rows       []Row
}

// Build joins a session's questions with its answer events. The last
// successful evaluation of each question wins; failed evaluations are not
// counted as attempts.
func Build(rec *store.SessionRecord, events []store.AnswerEvent) Report {
	latest := make(map[int]store.AnswerEvent)
	attempts := make(map[int]int)
	for _, ev := range events {
		if !ev.Success {
			continue
		}
		attempts[ev.QuestionID]++
		if cur, ok := latest[ev.QuestionID]; !ok || ev.Sequence > cur.Sequence {
			latest[ev.QuestionID] = ev
		}
	}

	r := Report{
		SessionID:  rec.SessionID,
		JobRole:    rec.JobRole,
		Difficulty: rec.Difficulty,
		CreatedAt:  rec.CreatedAt,
	}
	for _, q := range rec.Questions {
		row := Row{QuestionID: q.ID, Question: q.Text, Attempts: attempts[q.ID]}
		if ev, ok := latest[q.ID]; ok {
			row.Answer = ev.AnswerText
			row.Score = ev.Score
			row.Feedback = ev.Feedback
			row.AnsweredAt = ev.Timestamp
		}
		r.Rows = append(r.Rows, row)
	}
	return r
}

// Average returns the mean score of scored rows and whether any exist.
func (r Report) Average() (float64, bool) {
	var sum, n int
	for _, row := range r.Rows {
		if row.Score != nil {
			sum += *row.Score
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return math.Round(float64(sum)/float64(n)*10) / 10, true
}

var headers = []string{"#", "Question", "Answer", "Score", "Feedback", "Answered at", "Attempts"}

// Write renders r as an xlsx workbook.
func Write(w io.Writer, r Report) error {
	f := excelize.NewFile()
	defer f.Close()
	f.SetSheetName("Sheet1", SheetName)

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}
	wrap, err := f.NewStyle(&excelize.Style{Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	meta := [][2]any{
		{"Session", r.SessionID},
		{"Role", r.JobRole},
		{"Difficulty", r.Difficulty},
		{"Created", formatTime(r.CreatedAt)},
	}
	row := 1
	for _, m := range meta {
		if err := setRow(f, row, m[0], m[1]); err != nil {
			return err
		}
		row++
	}
	row++

	header := make([]any, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := setRow(f, row, header...); err != nil {
		return err
	}
	if err := styleRow(f, row, len(headers), bold); err != nil {
		return err
	}
	row++

	first := row
	for _, q := range r.Rows {
		var score any = ""
		if q.Score != nil {
			score = *q.Score
		}
		if err := setRow(f, row, q.QuestionID, q.Question, q.Answer, score, q.Feedback, formatTime(q.AnsweredAt), q.Attempts); err != nil {
			return err
		}
		row++
	}
	if row > first {
		top, _ := excelize.CoordinatesToCellName(2, first)
		bottom, _ := excelize.CoordinatesToCellName(5, row-1)
		if err := f.SetCellStyle(SheetName, top, bottom, wrap); err != nil {
			return fmt.Errorf("style answers: %w", err)
		}
	}

	if avg, ok := r.Average(); ok {
		if err := setRow(f, row, "", "Average score", "", avg); err != nil {
			return err
		}
		if err := styleRow(f, row, 4, bold); err != nil {
			return err
		}
	}

	for col, width := range map[string]float64{"A": 6, "B": 48, "C": 60, "D": 8, "E": 60, "F": 18, "G": 9} {
		if err := f.SetColWidth(SheetName, col, col, width); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// Save writes r to path, creating parent directories.
func Save(path string, r Report) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()
	return Write(f, r)
}

func setRow(f *excelize.File, row int, values ...any) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(SheetName, cell, v); err != nil {
			return fmt.Errorf("set %s: %w", cell, err)
		}
	}
	return nil
}

func styleRow(f *excelize.File, row, cols, style int) error {
	first, _ := excelize.CoordinatesToCellName(1, row)
	last, _ := excelize.CoordinatesToCellName(cols, row)
	return f.SetCellStyle(SheetName, first, last, style)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04")
}
