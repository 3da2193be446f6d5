package dataset

import (
	"sort"
)

// Schema is the feature order produced by Encoder.
var Schema = []string{ColSubject, ColDifficulty, ColTimeSpent, ColLearningStyle, ColSkillLevel}

// UnknownCode encodes a category never seen while fitting the encoder.
const UnknownCode = -1

// Encoder maps categorical cells to their index among the sorted distinct
// values seen in the training rows.
type Encoder struct {
	Subjects       []string `json:"subjects"`
	Difficulties   []string `json:"difficulties"`
	LearningStyles []string `json:"learning_styles"`
	SkillLevels    []string `json:"skill_levels"`
}

// FitEncoder collects the sorted categories of rows.
func FitEncoder(rows []Row) *Encoder {
	var subj, diff, style, skill []string
	for _, r := range rows {
		subj = append(subj, r.Subject)
		diff = append(diff, r.Difficulty)
		style = append(style, r.LearningStyle)
		skill = append(skill, r.SkillLevel)
	}
	return &Encoder{
		Subjects:       categories(subj),
		Difficulties:   categories(diff),
		LearningStyles: categories(style),
		SkillLevels:    categories(skill),
	}
}

func categories(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0)
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func code(cats []string, v string) float64 {
	i := sort.SearchStrings(cats, v)
	if i < len(cats) && cats[i] == v {
		return float64(i)
	}
	return UnknownCode
}

// EncodeRow returns the feature vector of r in Schema order.
func (e *Encoder) EncodeRow(r Row) []float64 {
	return []float64{
		code(e.Subjects, r.Subject),
		code(e.Difficulties, r.Difficulty),
		r.TimeSpent,
		code(e.LearningStyles, r.LearningStyle),
		code(e.SkillLevels, r.SkillLevel),
	}
}

// Encode converts rows into a training matrix and score targets.
func (e *Encoder) Encode(rows []Row) ([][]float64, []float64) {
	X := make([][]float64, len(rows))
	y := make([]float64, len(rows))
	for i, r := range rows {
		X[i] = e.EncodeRow(r)
		y[i] = r.Score
	}
	return X, y
}
