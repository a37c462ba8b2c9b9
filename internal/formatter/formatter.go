// package formatter provides functions to export agendas of scheduled task instances to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"

	"github.com/desertthunder/dayplan/internal/models"
	"github.com/desertthunder/dayplan/internal/shared"
)

// Agenda is a titled window of scheduled task instances, ordered by time.
type Agenda struct {
	Title     string
	Instances []*models.TaskInstance
}

// ExportToCSV converts an Agenda to CSV format with columns: ID, Scheduled, Title, Priority, Status, Modified
func ExportToCSV(agenda *Agenda) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Scheduled", "Title", "Priority", "Status", "Modified"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, instance := range agenda.Instances {
		record := []string{
			instance.ID(),
			instance.ScheduledAt().Format("2006-01-02 15:04"),
			instance.Title(),
			string(instance.Priority()),
			string(instance.Status()),
			fmt.Sprintf("%t", instance.Modified()),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts an Agenda to a Markdown checklist grouped by day
func ExportToMarkdown(agenda *Agenda) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", agenda.Title))
	buf.WriteString(fmt.Sprintf("**Scheduled items**: %d\n\n", len(agenda.Instances)))

	var day string
	for _, instance := range agenda.Instances {
		if d := shared.FormatDate(instance.ScheduledAt()); d != day {
			day = d
			buf.WriteString(fmt.Sprintf("## %s\n\n", day))
		}

		mark := " "
		if instance.Status() == models.StatusDone {
			mark = "x"
		}

		buf.WriteString(fmt.Sprintf("- [%s] %s %s (%s)\n",
			mark, instance.ScheduledAt().Format("15:04"), instance.Title(), instance.Priority()))
	}

	return buf.Bytes(), nil
}

// ExportToText converts an Agenda to plain text format
func ExportToText(agenda *Agenda) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Agenda: %s\n", agenda.Title))
	buf.WriteString(fmt.Sprintf("Scheduled items: %d\n\n", len(agenda.Instances)))

	for i, instance := range agenda.Instances {
		buf.WriteString(fmt.Sprintf("%d. %s  %s [%s/%s]\n", i+1,
			shared.FormatDateTime(instance.ScheduledAt()), instance.Title(),
			instance.Priority(), instance.Status()))
	}

	return buf.Bytes(), nil
}

// WriteCSVExport exports an agenda to a CSV file.
//
// Defaults to "agenda.csv" as the filename.
func WriteCSVExport(agenda *Agenda, filepath string) (string, error) {
	if filepath == "" {
		filepath = "agenda.csv"
	}

	csvData, err := ExportToCSV(agenda)
	if err != nil {
		return "", fmt.Errorf("failed to generate CSV: %w", err)
	}

	if err := os.WriteFile(filepath, csvData, 0644); err != nil {
		return "", fmt.Errorf("failed to write CSV file: %w", err)
	}

	return filepath, nil
}

// WriteMarkdownExport exports an agenda to a Markdown file.
//
// Defaults to "agenda.md" as the filename.
func WriteMarkdownExport(agenda *Agenda, filepath string) (string, error) {
	if filepath == "" {
		filepath = "agenda.md"
	}

	mdData, err := ExportToMarkdown(agenda)
	if err != nil {
		return "", fmt.Errorf("failed to generate Markdown: %w", err)
	}

	if err := os.WriteFile(filepath, mdData, 0644); err != nil {
		return "", fmt.Errorf("failed to write Markdown file: %w", err)
	}

	return filepath, nil
}

// WriteTextExport exports an agenda to plain text.
//
// Defaults to "agenda.txt" as the filename.
func WriteTextExport(agenda *Agenda, filepath string) (string, error) {
	if filepath == "" {
		filepath = "agenda.txt"
	}

	textData, err := ExportToText(agenda)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(filepath, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return filepath, nil
}
