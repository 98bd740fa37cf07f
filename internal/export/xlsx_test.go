package export_test

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/p-n-ai/pai-roadmap/internal/agent"
	"github.com/p-n-ai/pai-roadmap/internal/export"
)

func sampleCurriculum() *agent.Curriculum {
	return &agent.Curriculum{
		ID:     "3",
		UserID: "u1",
		Name:   "Todo App",
		Modules: []agent.Module{
			{
				ModuleID: "0", Title: "HTML basics", DifficultyLevel: 1, Track: agent.TrackReact, Completed: true,
				Exercises: []agent.Exercise{
					{Title: "Tags", Type: "test", Level: "basic", Theory: "HTML is...", Prompt: "Pick the tag", ExpectedAnswer: "<p>"},
					{Title: "Forms", Type: "fill code row", Level: "basic", Theory: "Forms submit data", Prompt: "Write a form", ExpectedAnswer: "<form>"},
				},
			},
			{ModuleID: "1", Title: "Tables", DifficultyLevel: 2, Track: agent.TrackSQL, Exercises: []agent.Exercise{}},
		},
	}
}

func TestCurriculumXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := export.CurriculumXLSX(sampleCurriculum(), &buf); err != nil {
		t.Fatalf("CurriculumXLSX() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Roadmap")
	if err != nil {
		t.Fatalf("GetRows(Roadmap) error = %v", err)
	}
	want := [][]string{
		{"Module", "Title", "Track", "Difficulty", "Exercises", "Completed"},
		{"0", "HTML basics", "React", "1", "2", "yes"},
		{"1", "Tables", "SQL", "2", "0", "no"},
	}
	if len(rows) != len(want) {
		t.Fatalf("Roadmap rows = %d, want %d", len(rows), len(want))
	}
	for i := range want {
		for j := range want[i] {
			if rows[i][j] != want[i][j] {
				t.Errorf("Roadmap[%d][%d] = %q, want %q", i, j, rows[i][j], want[i][j])
			}
		}
	}

	exRows, err := f.GetRows("Exercises")
	if err != nil {
		t.Fatalf("GetRows(Exercises) error = %v", err)
	}
	if len(exRows) != 3 {
		t.Fatalf("Exercises rows = %d, want 3", len(exRows))
	}
	if exRows[2][3] != "Forms" || exRows[2][8] != "<form>" {
		t.Errorf("second exercise row = %v", exRows[2])
	}
}

func TestCurriculumXLSX_NoModules(t *testing.T) {
	var buf bytes.Buffer
	c := &agent.Curriculum{ID: "0", UserID: "u1", Name: "Empty", Modules: []agent.Module{}}
	if err := export.CurriculumXLSX(c, &buf); err != nil {
		t.Fatalf("CurriculumXLSX() error = %v", err)
	}
	if buf.Len() == 0 {
		t.Error("workbook is empty")
	}
}

func TestFilename(t *testing.T) {
	if got := export.Filename(sampleCurriculum()); got != "curriculum-u1-3.xlsx" {
		t.Errorf("Filename() = %q", got)
	}
}
