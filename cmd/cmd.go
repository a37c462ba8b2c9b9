// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

func jsonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print output",
		},
	}
}

// setupCommand handles setup operations for database and configuration.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent migration",
				Action: r.SetupRollback,
			},
		},
	}
}

// taskCommand handles task CRUD operations
func taskCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "task",
		Aliases: []string{"t"},
		Usage:   "Manage tasks",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Create a task",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:     "title",
						Aliases:  []string{"t"},
						Usage:    "Task title",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "description",
						Aliases: []string{"d"},
						Usage:   "Task description",
					},
					&cli.StringFlag{
						Name:  "start",
						Usage: "Start datetime (YYYY-MM-DD or YYYY-MM-DD HH:MM, defaults to now)",
					},
					&cli.StringFlag{
						Name:  "deadline",
						Usage: "Deadline datetime",
					},
					&cli.StringFlag{
						Name:  "priority",
						Usage: "Priority (low, medium, high, critical)",
					},
				}, jsonFlags()...),
				Action: r.TaskAdd,
			},
			{
				Name:  "list",
				Usage: "List tasks",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:  "status",
						Usage: "Filter by status",
					},
					&cli.StringFlag{
						Name:  "priority",
						Usage: "Filter by priority",
					},
					&cli.StringFlag{
						Name:  "search",
						Usage: "Match against title and description",
					},
					&cli.BoolFlag{
						Name:  "archived",
						Usage: "Include archived tasks",
					},
				}, jsonFlags()...),
				Action: r.TaskList,
			},
			{
				Name:      "show",
				Usage:     "Show a task with its tags and recurrence",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     jsonFlags(),
				Action:    r.TaskShow,
			},
			{
				Name:      "update",
				Usage:     "Update task fields",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "New title"},
					&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "New description"},
					&cli.StringFlag{Name: "start", Usage: "New start datetime"},
					&cli.StringFlag{Name: "deadline", Usage: "New deadline"},
					&cli.StringFlag{Name: "priority", Usage: "New priority"},
					&cli.StringFlag{Name: "status", Usage: "New status"},
				},
				Action: r.TaskUpdate,
			},
			{
				Name:      "archive",
				Usage:     "Archive a task (hidden from lists by default)",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.TaskArchive,
			},
			{
				Name:      "delete",
				Usage:     "Soft-delete a task",
				Aliases:   []string{"rm"},
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.TaskDelete,
			},
		},
	}
}

// tagCommand handles tag management and task labeling
func tagCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tag",
		Usage: "Manage tags and task labels",
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Create a tag",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "color",
						Usage: "Hex color like #33AA55",
					},
				},
				Action: r.TagAdd,
			},
			{
				Name:   "list",
				Usage:  "List tags",
				Flags:  jsonFlags(),
				Action: r.TagList,
			},
			{
				Name:      "delete",
				Usage:     "Delete a tag and its task links",
				Aliases:   []string{"rm"},
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Action:    r.TagDelete,
			},
			{
				Name:  "attach",
				Usage: "Label a task with a tag",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "task", Usage: "Task ID", Required: true},
					&cli.StringFlag{Name: "name", Usage: "Tag name", Required: true},
				},
				Action: r.TagAttach,
			},
			{
				Name:  "detach",
				Usage: "Remove a tag from a task",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "task", Usage: "Task ID", Required: true},
					&cli.StringFlag{Name: "name", Usage: "Tag name", Required: true},
				},
				Action: r.TagDetach,
			},
		},
	}
}

// recurCommand handles recurrence rule operations
func recurCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "recur",
		Usage: "Manage recurrence rules",
		Commands: []*cli.Command{
			{
				Name:  "set",
				Usage: "Create or replace a task's recurrence rule and regenerate instances",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "task",
						Usage:    "Task ID",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "freq",
						Usage:    "Frequency (daily, weekly, monthly, yearly, workdays, weekends, custom)",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "interval",
						Usage: "Step between occurrences",
						Value: 1,
					},
					&cli.StringFlag{
						Name:  "days",
						Usage: "Weekdays for weekly rules (mon,wed,fri or 1,3,5)",
					},
					&cli.IntFlag{
						Name:  "day-of-month",
						Usage: "Pinned day for monthly rules (1-31)",
					},
					&cli.StringFlag{
						Name:  "until",
						Usage: "Last date the rule applies",
					},
					&cli.IntFlag{
						Name:  "count",
						Usage: "Stop after this many occurrences",
					},
				},
				Action: r.RecurSet,
			},
			{
				Name:  "show",
				Usage: "Show a task's recurrence rule",
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "task", Usage: "Task ID", Required: true},
				}, jsonFlags()...),
				Action: r.RecurShow,
			},
			{
				Name:  "pause",
				Usage: "Deactivate a rule without touching its instances",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "task", Usage: "Task ID", Required: true},
				},
				Action: r.RecurPause,
			},
			{
				Name:  "resume",
				Usage: "Reactivate a rule and regenerate instances",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "task", Usage: "Task ID", Required: true},
				},
				Action: r.RecurResume,
			},
			{
				Name:    "remove",
				Usage:   "Delete a rule and its generated instances",
				Aliases: []string{"rm"},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "task", Usage: "Task ID", Required: true},
				},
				Action: r.RecurRemove,
			},
		},
	}
}

// instanceCommand handles scheduled instance operations
func instanceCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "instance",
		Aliases: []string{"i"},
		Usage:   "Work with scheduled task instances",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List instances",
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "task", Usage: "Filter by parent task ID"},
					&cli.StringFlag{Name: "from", Usage: "Window start"},
					&cli.StringFlag{Name: "to", Usage: "Window end"},
					&cli.StringFlag{Name: "status", Usage: "Filter by status"},
				}, jsonFlags()...),
				Action: r.InstanceList,
			},
			{
				Name:      "edit",
				Usage:     "Edit one instance without touching its siblings",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Usage: "New title"},
					&cli.StringFlag{Name: "description", Usage: "New description"},
					&cli.StringFlag{Name: "time", Usage: "New scheduled datetime"},
				},
				Action: r.InstanceEdit,
			},
			{
				Name:      "done",
				Usage:     "Mark an instance completed",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.InstanceDone,
			},
			{
				Name:      "skip",
				Usage:     "Skip an instance",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.InstanceSkip,
			},
			{
				Name:      "cancel",
				Usage:     "Cancel an instance",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.InstanceCancel,
			},
		},
	}
}

// syncCommand regenerates instances for recurring tasks
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Regenerate scheduled instances from recurrence rules",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "task",
				Usage: "Synchronize a single task (default: all active rules)",
			},
		},
		Action: r.Sync,
	}
}

// agendaCommand renders the upcoming schedule
func agendaCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "agenda",
		Usage: "Show the upcoming schedule",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:  "from",
				Usage: "Window start (defaults to today)",
			},
			&cli.IntFlag{
				Name:  "days",
				Usage: "Window length in days (defaults to config)",
			},
			&cli.StringFlag{
				Name:  "export",
				Usage: "Export format (csv, markdown, text)",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Export file path",
			},
		}, jsonFlags()...),
		Action: r.Agenda,
	}
}

// tuiCommand returns the top-level TUI command for interactive planning.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive TUI for browsing the plan",
		Action:  r.TUI,
	}
}
