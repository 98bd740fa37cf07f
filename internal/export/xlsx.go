// Package export renders curricula as spreadsheets.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/p-n-ai/pai-roadmap/internal/agent"
)

const (
	roadmapSheet   = "Roadmap"
	exercisesSheet = "Exercises"
)

var (
	roadmapHeader   = []any{"Module", "Title", "Track", "Difficulty", "Exercises", "Completed"}
	exercisesHeader = []any{"Module", "Module Title", "#", "Title", "Type", "Level", "Theory", "Prompt", "Expected Answer"}
)

// CurriculumXLSX writes c as a workbook with one row per module on the
// Roadmap sheet and one row per generated exercise on the Exercises sheet.
func CurriculumXLSX(c *agent.Curriculum, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", roadmapSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(exercisesSheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	if err := writeRow(f, roadmapSheet, 1, roadmapHeader); err != nil {
		return err
	}
	if err := writeRow(f, exercisesSheet, 1, exercisesHeader); err != nil {
		return err
	}

	exRow := 2
	for i, m := range c.Modules {
		completed := "no"
		if m.Completed {
			completed = "yes"
		}
		row := []any{string(m.ModuleID), m.Title, string(m.Track), m.DifficultyLevel, len(m.Exercises), completed}
		if err := writeRow(f, roadmapSheet, i+2, row); err != nil {
			return err
		}

		for j, ex := range m.Exercises {
			row := []any{string(m.ModuleID), m.Title, j + 1, ex.Title, ex.Type, ex.Level, ex.Theory, ex.Prompt, ex.ExpectedAnswer}
			if err := writeRow(f, exercisesSheet, exRow, row); err != nil {
				return err
			}
			exRow++
		}
	}

	if err := f.SetCellStyle(roadmapSheet, "A1", "F1", bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	if err := f.SetCellStyle(exercisesSheet, "A1", "I1", bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	if err := f.SetColWidth(roadmapSheet, "B", "B", 48); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	if err := f.SetColWidth(exercisesSheet, "D", "I", 32); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	if err := f.SetDocProps(&excelize.DocProperties{
		Title:       c.Name,
		Subject:     "Learning roadmap " + c.ID,
		Creator:     "pai-roadmap",
		Description: "Curriculum " + c.ID + " for user " + c.UserID,
	}); err != nil {
		return fmt.Errorf("set properties: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// Filename returns the download name for a curriculum export.
func Filename(c *agent.Curriculum) string {
	return "curriculum-" + c.UserID + "-" + c.ID + ".xlsx"
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}
