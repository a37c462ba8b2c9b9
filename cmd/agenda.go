package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/dayplan/internal/formatter"
	"github.com/desertthunder/dayplan/internal/shared"
	"github.com/urfave/cli/v3"
)

// Agenda renders the scheduled instances for the coming window, optionally
// exporting them to a file.
func (r *Runner) Agenda(ctx context.Context, cmd *cli.Command) error {
	store, cleanup, err := r.openStore()
	if err != nil {
		return err
	}
	defer cleanup()

	from := r.now()
	if value := cmd.String("from"); value != "" {
		if from, err = parseTimeFlag(value); err != nil {
			return err
		}
	} else {
		from = time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	}

	days := int(cmd.Int("days"))
	if days <= 0 {
		days = r.config.Planner.AgendaDays
	}
	to := from.AddDate(0, 0, days)

	instances, err := store.Instances.List(map[string]any{"from": from, "to": to})
	if err != nil {
		return fmt.Errorf("failed to list instances: %w", err)
	}

	agenda := &formatter.Agenda{
		Title:     fmt.Sprintf("Agenda %s to %s", shared.FormatDate(from), shared.FormatDate(to)),
		Instances: instances,
	}

	if format := cmd.String("export"); format != "" {
		var path string
		switch format {
		case "csv":
			path, err = formatter.WriteCSVExport(agenda, cmd.String("output"))
		case "markdown", "md":
			path, err = formatter.WriteMarkdownExport(agenda, cmd.String("output"))
		case "text", "txt":
			path, err = formatter.WriteTextExport(agenda, cmd.String("output"))
		default:
			return fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidFlag, format)
		}
		if err != nil {
			return err
		}
		r.logger.Info("agenda exported", "format", format, "path", path)
		return r.writePlain("✓ Exported agenda to %s\n", path)
	}

	if cmd.Bool("json") {
		return r.writeJSON(instances, cmd.Bool("pretty"))
	}

	if len(instances) == 0 {
		return r.writePlain("Nothing scheduled between %s and %s\n", shared.FormatDate(from), shared.FormatDate(to))
	}

	r.writePlainHeader(agenda.Title)
	var day string
	for _, instance := range instances {
		if d := shared.FormatDate(instance.ScheduledAt()); d != day {
			day = d
			r.writePlain("\n%s\n", day)
		}
		marker := " "
		if instance.Modified() {
			marker = "*"
		}
		r.writePlain("  %s %s  %s [%s]\n",
			marker, instance.ScheduledAt().Format("15:04"), instance.Title(), instance.Status())
	}
	return nil
}
