package app

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/gffbss/hamster-cli/db"
)

// displayLayout is the layout of times shown to the user.
const displayLayout = "2006-01-02 15:04"

// factHeaders are the columns of a facts table.
var factHeaders = []string{"Start", "End", "Activity", "Category", "Description", "Duration"}

// formatDuration shows d as hours and minutes, such as "1:05".
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	minutes := int(d.Minutes())
	return fmt.Sprintf("%d:%02d", minutes/60, minutes%60)
}

// categoryName returns the name shown for category, with unsorted standing in
// for no category.
func categoryName(category *string, unsorted string) string {
	if category == nil {
		return unsorted
	}
	return *category
}

// description joins the fact's tags and description.
func description(f db.Fact) string {
	var parts []string
	for _, t := range f.Tags {
		parts = append(parts, "#"+t)
	}
	if f.Description != "" {
		parts = append(parts, f.Description)
	}
	return strings.Join(parts, " ")
}

// factRow is the table row for a fact; an ongoing fact's end is shown as empty
// and its duration is measured to now.
func factRow(f db.Fact, unsorted string, now time.Time) []string {
	end := ""
	if f.End != nil {
		end = f.End.Format(displayLayout)
	}
	return []string{
		f.Start.Format(displayLayout),
		end,
		f.Activity,
		categoryName(f.Category, unsorted),
		description(f),
		formatDuration(f.Duration(now)),
	}
}

// factLine is a one line description of a fact.
func factLine(f db.Fact, unsorted string, now time.Time) string {
	end := "now"
	if f.End != nil {
		end = f.End.Format(displayLayout)
	}
	s := fmt.Sprintf("%s to %s %s@%s", f.Start.Format(displayLayout), end, f.Activity, categoryName(f.Category, unsorted))
	if d := description(f); d != "" {
		s += ", " + d
	}
	return fmt.Sprintf("%s (%s)", s, formatDuration(f.Duration(now)))
}

// newTable returns a table styled for w. Colours are only used when w is a
// terminal.
func newTable(w io.Writer, headers ...string) *table.Table {
	re := lipgloss.NewRenderer(w)
	headerStyle := re.NewStyle().Bold(true).Padding(0, 1)
	cellStyle := re.NewStyle().Padding(0, 1)
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(re.NewStyle().Faint(true)).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

// renderFacts writes facts as a table.
func renderFacts(w io.Writer, facts []db.Fact, unsorted string, now time.Time) error {
	t := newTable(w, factHeaders...)
	for _, f := range facts {
		t.Row(factRow(f, unsorted, now)...)
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

// renderActivities writes activities and their categories as a table.
func renderActivities(w io.Writer, activities []db.Activity, unsorted string) error {
	t := newTable(w, "Activity", "Category")
	for _, a := range activities {
		t.Row(a.Name, categoryName(a.Category(), unsorted))
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

// renderCategories writes category names as a table.
func renderCategories(w io.Writer, categories []db.Category) error {
	t := newTable(w, "Category")
	for _, c := range categories {
		t.Row(c.Name)
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

// renderDetails writes key and value pairs as a table.
func renderDetails(w io.Writer, details [][2]string) error {
	t := newTable(w, "Setting", "Value")
	for _, d := range details {
		t.Row(d[0], d[1])
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}
