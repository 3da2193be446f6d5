// Package dataset reads, appends to and generates the flat tabular quiz
// dataset used for bulk model training, independent of learner profiles.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Column names, in the order new files are written.
const (
	ColUserID        = "user_id"
	ColSubject       = "subject"
	ColDifficulty    = "difficulty"
	ColScore         = "score"
	ColTimeSpent     = "time_spent"
	ColLearningStyle = "learning_style"
	ColSkillLevel    = "skill_level"
)

// Header is the column order used when creating a dataset file.
var Header = []string{
	ColUserID, ColSubject, ColDifficulty, ColScore, ColTimeSpent, ColLearningStyle, ColSkillLevel,
}

// requiredColumns must be present for a file to be trainable. user_id is informational.
var requiredColumns = []string{
	ColSubject, ColDifficulty, ColScore, ColTimeSpent, ColLearningStyle, ColSkillLevel,
}

var (
	// ErrMissingColumn is returned when a required column is absent from the header.
	ErrMissingColumn = errors.New("dataset missing required column")
)

// Row is one observed quiz outcome.
type Row struct {
	UserID        string  `json:"user_id"`
	Subject       string  `json:"subject"        validate:"required"`
	Difficulty    string  `json:"difficulty"     validate:"required"`
	Score         float64 `json:"score"`
	TimeSpent     float64 `json:"time_spent"     validate:"gte=0"`
	LearningStyle string  `json:"learning_style" validate:"required"`
	SkillLevel    string  `json:"skill_level"    validate:"required"`
}

// ReadResult is the outcome of reading a dataset.
type ReadResult struct {
	Rows []Row
	// Skipped counts data lines dropped because a numeric cell did not parse
	// or the line had the wrong number of cells.
	Skipped int
}

// ReadFile opens path and reads it with Read.
func ReadFile(path string) (*ReadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

// Read parses a CSV dataset with a header line. Columns are located by name,
// so their order and any extra columns are irrelevant.
func Read(r io.Reader) (*ReadResult, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty file", ErrMissingColumn)
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	res := &ReadResult{}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				res.Skipped++
				continue
			}
			return nil, fmt.Errorf("read dataset: %w", err)
		}
		row, ok := parseRow(rec, idx, len(header))
		if !ok {
			res.Skipped++
			continue
		}
		res.Rows = append(res.Rows, row)
	}
	return res, nil
}

func columnIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(strings.ToLower(h))] = i
	}
	for _, c := range requiredColumns {
		if _, ok := idx[c]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, c)
		}
	}
	return idx, nil
}

func parseRow(rec []string, idx map[string]int, width int) (Row, bool) {
	if len(rec) != width {
		return Row{}, false
	}
	score, err := strconv.ParseFloat(strings.TrimSpace(rec[idx[ColScore]]), 64)
	if err != nil {
		return Row{}, false
	}
	spent, err := strconv.ParseFloat(strings.TrimSpace(rec[idx[ColTimeSpent]]), 64)
	if err != nil {
		return Row{}, false
	}
	row := Row{
		Subject:       rec[idx[ColSubject]],
		Difficulty:    rec[idx[ColDifficulty]],
		Score:         score,
		TimeSpent:     spent,
		LearningStyle: rec[idx[ColLearningStyle]],
		SkillLevel:    rec[idx[ColSkillLevel]],
	}
	if i, ok := idx[ColUserID]; ok {
		row.UserID = rec[i]
	}
	return row, true
}

// Append adds row to the dataset at path, creating it with Header if it does
// not exist. When the file exists its own header decides the cell order.
func Append(path string, row Row) error {
	header, err := existingHeader(path)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if header == nil {
		header = Header
		if err := w.Write(header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	if err := w.Write(row.cells(header)); err != nil {
		return fmt.Errorf("write row: %w", err)
	}
	w.Flush()
	return w.Error()
}

// existingHeader returns nil when path is missing or empty.
func existingHeader(path string) ([]string, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	header, err := csv.NewReader(f).Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if _, err := columnIndex(header); err != nil {
		return nil, err
	}
	return header, nil
}

func (r Row) cells(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		switch strings.TrimSpace(strings.ToLower(h)) {
		case ColUserID:
			out[i] = r.UserID
		case ColSubject:
			out[i] = r.Subject
		case ColDifficulty:
			out[i] = r.Difficulty
		case ColScore:
			out[i] = strconv.FormatFloat(r.Score, 'f', -1, 64)
		case ColTimeSpent:
			out[i] = strconv.FormatFloat(r.TimeSpent, 'f', -1, 64)
		case ColLearningStyle:
			out[i] = r.LearningStyle
		case ColSkillLevel:
			out[i] = r.SkillLevel
		}
	}
	return out
}
