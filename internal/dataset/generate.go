package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"strconv"
)

// Category pools used by Generate.
var (
	GeneratedSubjects       = []string{"Python", "Data Structures", "OOP", "Machine Learning"}
	GeneratedDifficulties   = []string{"beginner", "intermediate", "advanced"}
	GeneratedLearningStyles = []string{"visual", "auditory", "kinesthetic"}
	GeneratedSkillLevels    = []string{"beginner", "intermediate", "advanced"}
)

// Generation bounds, inclusive.
const (
	minRowsPerLearner = 3
	maxRowsPerLearner = 7
	minScore          = 40
	maxScore          = 100
	minTimeSpent      = 60
	maxTimeSpent      = 300
)

// GenerateRows produces synthetic rows for learners numbered 1..learners.
// Each learner keeps one learning style and skill level across rows.
func GenerateRows(learners int, rng *rand.Rand) []Row {
	var rows []Row
	for id := 1; id <= learners; id++ {
		style := pick(rng, GeneratedLearningStyles)
		skill := pick(rng, GeneratedSkillLevels)
		n := between(rng, minRowsPerLearner, maxRowsPerLearner)
		for i := 0; i < n; i++ {
			rows = append(rows, Row{
				UserID:        strconv.Itoa(id),
				Subject:       pick(rng, GeneratedSubjects),
				Difficulty:    pick(rng, GeneratedDifficulties),
				Score:         float64(between(rng, minScore, maxScore)),
				TimeSpent:     float64(between(rng, minTimeSpent, maxTimeSpent)),
				LearningStyle: style,
				SkillLevel:    skill,
			})
		}
	}
	return rows
}

// Generate writes a header plus GenerateRows output to w and returns the row count.
func Generate(w io.Writer, learners int, rng *rand.Rand) (int, error) {
	if learners < 1 {
		return 0, fmt.Errorf("learner count must be positive, got %d", learners)
	}
	rows := GenerateRows(learners, rng)

	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write(r.cells(Header)); err != nil {
			return 0, fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, err
	}
	return len(rows), nil
}

func pick(rng *rand.Rand, from []string) string {
	return from[rng.Intn(len(from))]
}

func between(rng *rand.Rand, lo, hi int) int {
	return lo + rng.Intn(hi-lo+1)
}
