package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/starford/paranote/internal"
	"github.com/starford/paranote/internal/actions"
	"github.com/starford/paranote/internal/models"
	"github.com/starford/paranote/internal/noteservice"
	"github.com/starford/paranote/internal/parser"
)

func jsonFlag() cli.Flag { return &cli.BoolFlag{Name: "json", Usage: "Print JSON instead of text"} }

func patternFlag() cli.Flag {
	return &cli.StringFlag{Name: "pattern", Aliases: []string{"p"}, Usage: "Glob matched against note file names (default: vault.pattern)"}
}

func noBackupFlag() cli.Flag {
	return &cli.BoolFlag{Name: "no-backup", Usage: "Skip the backup copy before writing"}
}

func parseCommand() *cli.Command {
	return &cli.Command{
		Name:      "parse",
		Usage:     "Parse a single note",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			jsonFlag(),
			&cli.BoolFlag{Name: "graceful", Aliases: []string{"g"}, Usage: "Recover from malformed frontmatter"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			file, err := requireArg(cmd, "FILE")
			if err != nil {
				return err
			}
			svc, rel, err := e.service(file)
			if err != nil {
				return err
			}
			mode := parser.Strict
			if cmd.Bool("graceful") {
				mode = parser.Graceful
			}
			out := svc.ParseFile(ctx, rel, mode)
			note, err := out.Result()
			if err != nil {
				return err
			}
			if out.Status != parser.StatusParsed {
				e.ui.Warning(fmt.Sprintf("%s: %s (%v)", rel, out.Status, out.Err))
			}
			if e.json {
				return writeJSON(cmd, note)
			}
			e.renderNote(note)
			return nil
		},
	}
}

func batchCommand() *cli.Command {
	return &cli.Command{
		Name:      "batch",
		Usage:     "Parse every note under a directory",
		ArgsUsage: "[DIR]",
		Flags: []cli.Flag{
			jsonFlag(),
			patternFlag(),
			&cli.BoolFlag{Name: "summary", Aliases: []string{"s"}, Usage: "Print totals only"},
			&cli.BoolFlag{Name: "strict", Usage: "Fail notes with malformed frontmatter instead of recovering"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			svc, rel, err := e.service(cmd.Args().First())
			if err != nil {
				return err
			}
			mode := parser.Graceful
			if cmd.Bool("strict") {
				mode = parser.Strict
			}
			res, err := svc.Batch(ctx, rel, e.pattern(cmd), mode)
			if err != nil {
				return err
			}
			sum := noteservice.Summarize(res)
			switch {
			case e.json && cmd.Bool("summary"):
				return writeJSON(cmd, struct {
					Summary noteservice.Summary     `json:"summary"`
					Errors  []noteservice.FileError `json:"errors"`
				}{sum, res.Errors})
			case e.json:
				return writeJSON(cmd, res)
			}
			if !cmd.Bool("summary") {
				e.renderBatch(res)
			}
			e.renderSummary(sum)
			e.reportFailures(res.Errors)
			return nil
		},
	}
}

func actionsCommand() *cli.Command {
	return &cli.Command{
		Name:      "actions",
		Usage:     "List action items across notes",
		ArgsUsage: "[DIR]",
		Flags: []cli.Flag{
			jsonFlag(),
			patternFlag(),
			&cli.StringFlag{Name: "status", Value: string(actions.StatusPending), Usage: "all, pending, completed or overdue"},
			&cli.BoolFlag{Name: "orphaned", Usage: "Only items without an assignee or due date"},
			&cli.IntFlag{Name: "stale", Usage: "Only pending items older than N days (0 disables)"},
			&cli.BoolFlag{Name: "prioritize", Usage: "Sort by priority score"},
			&cli.BoolFlag{Name: "group", Usage: "Group by PARA location"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			status, err := actions.ParseStatus(cmd.String("status"))
			if err != nil {
				return err
			}
			stale := int(cmd.Int("stale"))
			if stale < 0 {
				return fmt.Errorf("--stale must not be negative")
			}
			svc, rel, err := e.service(cmd.Args().First())
			if err != nil {
				return err
			}
			repo, failures, err := svc.Actions(ctx, rel, e.pattern(cmd))
			if err != nil {
				return err
			}
			recs := repo.Select(actions.Query{
				Status:     status,
				Orphaned:   cmd.Bool("orphaned"),
				Stale:      stale > 0,
				StaleDays:  stale,
				Prioritize: cmd.Bool("prioritize"),
			})

			if cmd.Bool("group") {
				groups := repo.GroupEntries(recs)
				if e.json {
					return writeJSON(cmd, struct {
						Groups map[string][]actions.Entry `json:"groups"`
						Errors []noteservice.FileError    `json:"errors"`
					}{groups, failures})
				}
				e.renderGroups(groups)
			} else {
				entries := repo.Entries(recs)
				if e.json {
					return writeJSON(cmd, struct {
						Items  []actions.Entry         `json:"items"`
						Errors []noteservice.FileError `json:"errors"`
					}{entries, failures})
				}
				e.renderEntries(entries)
			}
			e.reportFailures(failures)
			return nil
		},
	}
}

func updateCommand() *cli.Command {
	return &cli.Command{
		Name:      "update",
		Usage:     "Set frontmatter keys on a note",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			jsonFlag(),
			noBackupFlag(),
			&cli.StringSliceFlag{Name: "key", Aliases: []string{"set"}, Usage: "key=value, value stored as text (repeatable)"},
			&cli.StringSliceFlag{Name: "yaml", Usage: "key=value, value parsed as YAML such as 3, true or [a, b] (repeatable)"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			file, err := requireArg(cmd, "FILE")
			if err != nil {
				return err
			}
			updates, err := parseAssignments(cmd.StringSlice("key"), cmd.StringSlice("yaml"))
			if err != nil {
				return err
			}
			svc, rel, err := e.service(file)
			if err != nil {
				return err
			}
			res, err := svc.UpdateFrontmatter(ctx, rel, updates, !cmd.Bool("no-backup"))
			if err != nil {
				return err
			}
			return e.reportUpdate(cmd, res)
		},
	}
}

func linkCommand() *cli.Command {
	return &cli.Command{
		Name:      "link",
		Usage:     "Link a note to a project",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			jsonFlag(),
			noBackupFlag(),
			&cli.StringFlag{Name: "project", Required: true, Usage: "Project name"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			file, err := requireArg(cmd, "FILE")
			if err != nil {
				return err
			}
			svc, rel, err := e.service(file)
			if err != nil {
				return err
			}
			res, err := svc.LinkProject(ctx, rel, cmd.String("project"), !cmd.Bool("no-backup"))
			if err != nil {
				return err
			}
			return e.reportUpdate(cmd, res)
		},
	}
}

func categorizeCommand() *cli.Command {
	return &cli.Command{
		Name:      "categorize",
		Usage:     "Suggest PARA folders for inbox notes",
		ArgsUsage: "[DIR]",
		Flags: []cli.Flag{
			jsonFlag(),
			patternFlag(),
			&cli.BoolFlag{Name: "apply", Usage: "Move the notes"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			svc, rel, err := e.vaultService(cmd.Args().First())
			if err != nil {
				return err
			}
			moves, failures, err := svc.Categorize(ctx, rel, e.pattern(cmd), cmd.Bool("apply"))
			if err != nil {
				return err
			}
			if e.json {
				return writeJSON(cmd, struct {
					Moves  []noteservice.Move      `json:"moves"`
					Errors []noteservice.FileError `json:"errors"`
				}{moves, failures})
			}
			e.renderMoves(moves, cmd.Bool("apply"))
			e.reportFailures(failures)
			return nil
		},
	}
}

func syncCommand() *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Rebuild the search index and the project cache",
		Flags: []cli.Flag{jsonFlag(), patternFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			v, err := internal.OpenVault(e.cfg, e.logger)
			if err != nil {
				return err
			}
			defer v.Close()

			snaps, err := v.Service.SyncProjects(ctx, "", e.pattern(cmd))
			if err != nil {
				return err
			}
			if e.json {
				return writeJSON(cmd, snaps)
			}
			e.renderProjects(snaps)
			return nil
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API with live index updates",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
				return fmt.Errorf("app run error: %w", err)
			}
			return nil
		},
	}
}

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve MCP tools over stdio",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return internal.RunMCP(ctx, internal.WithConfig(cfg))
		},
	}
}

func requireArg(cmd *cli.Command, name string) (string, error) {
	if cmd.NArg() == 0 {
		return "", fmt.Errorf("%s argument is required", name)
	}
	return cmd.Args().First(), nil
}

// parseAssignments turns key=value pairs into frontmatter. Plain values are
// kept verbatim as strings; typed values are decoded as YAML. Plain keys
// come first, each group in flag order.
func parseAssignments(plain, typed []string) (*models.Frontmatter, error) {
	if len(plain)+len(typed) == 0 {
		return nil, errors.New("at least one --key or --yaml key=value is required")
	}
	fm := models.NewFrontmatter()
	for _, p := range plain {
		key, raw, err := splitAssignment(p)
		if err != nil {
			return nil, err
		}
		fm.Set(key, raw)
	}
	for _, p := range typed {
		key, raw, err := splitAssignment(p)
		if err != nil {
			return nil, err
		}
		var v any
		if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("--yaml %s: %w", key, err)
		}
		fm.Set(key, v)
	}
	return fm, nil
}

func splitAssignment(p string) (string, string, error) {
	key, raw, ok := strings.Cut(p, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return "", "", fmt.Errorf("invalid assignment %q, want key=value", p)
	}
	return key, raw, nil
}
