package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/avattoli/MyTasks/internal/app/capacity"
	boardstore "github.com/avattoli/MyTasks/internal/app/store/boards"
	sprintstore "github.com/avattoli/MyTasks/internal/app/store/sprints"
	taskstore "github.com/avattoli/MyTasks/internal/app/store/tasks"
	teamstore "github.com/avattoli/MyTasks/internal/app/store/teams"
	"github.com/avattoli/MyTasks/internal/app/system/auth"
	"github.com/avattoli/MyTasks/internal/app/system/indexes"
	"github.com/avattoli/MyTasks/internal/app/system/keylock"
	"github.com/avattoli/MyTasks/internal/app/system/timeouts"
	"github.com/avattoli/MyTasks/internal/app/system/workers"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"gopkg.in/yaml.v3"
)

func ensureIndexesCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "ensure-indexes",
		Short: "Create or reconcile the indexes on teams, boards, tasks and sprints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, db, err := g.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer disconnect(client)

			ctx, cancel := context.WithTimeout(cmd.Context(), timeouts.Long())
			defer cancel()
			if err := indexes.EnsureAll(ctx, db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "indexes ok")
			return nil
		},
	}
}

func sweepSprintsCmd(g *globalFlags) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "sweep-sprints",
		Short: "Remove ids of deleted tasks from every sprint once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, db, err := g.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer disconnect(client)

			sw := workers.NewSprintSweeper(sprintstore.New(db), taskstore.New(db), g.logger(), time.Hour, timeouts.Long())
			ctx, cancel := context.WithTimeout(cmd.Context(), timeouts.Long())
			defer cancel()
			res, err := sw.Sweep(ctx)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), format, res)
		},
	}
	cmd.Flags().StringVarP(&format, "output", "o", "json", "Output format: json or yaml")
	return cmd
}

// boardView is the printable form of a team's board and its occupancy.
type boardView struct {
	Team     string       `json:"team" yaml:"team"`
	Slug     string       `json:"slug" yaml:"slug"`
	MaxTasks int          `json:"maxTasks" yaml:"max_tasks"`
	Count    int64        `json:"count" yaml:"count"`
	Unmapped int64        `json:"unmapped" yaml:"unmapped"`
	Columns  []columnView `json:"columns" yaml:"columns"`
}

type columnView struct {
	Key      string `json:"key" yaml:"key"`
	Name     string `json:"name" yaml:"name"`
	WIPLimit *int   `json:"wipLimit,omitempty" yaml:"wip_limit,omitempty"`
	Count    int64  `json:"count" yaml:"count"`
	Over     bool   `json:"over" yaml:"over"`
}

func newBoardView(name, slug string, occ capacity.Occupancy) boardView {
	v := boardView{
		Team:     name,
		Slug:     slug,
		MaxTasks: occ.MaxTasks,
		Count:    occ.Count,
		Unmapped: occ.Unmapped,
		Columns:  make([]columnView, 0, len(occ.Columns)),
	}
	for _, c := range occ.Columns {
		v.Columns = append(v.Columns, columnView(c))
	}
	return v
}

func boardCmd(g *globalFlags) *cobra.Command {
	board := &cobra.Command{
		Use:   "board",
		Short: "Inspect team boards",
	}

	var format string
	show := &cobra.Command{
		Use:   "show <team-slug>",
		Short: "Print a team's board settings and occupancy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, db, err := g.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer disconnect(client)

			ctx, cancel := context.WithTimeout(cmd.Context(), timeouts.Medium())
			defer cancel()
			team, err := teamstore.New(db).GetBySlug(ctx, args[0])
			if err != nil {
				return fmt.Errorf("team %q: %w", args[0], err)
			}
			enf := capacity.New(boardstore.New(db), taskstore.New(db), keylock.New(), g.logger())
			occ, err := enf.Occupancy(ctx, team.ID)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), format, newBoardView(team.Name, team.Slug, occ))
		},
	}
	show.Flags().StringVarP(&format, "output", "o", "json", "Output format: json or yaml")
	board.AddCommand(show)
	return board
}

func tokenCmd() *cobra.Command {
	var (
		secret string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Issue a bearer token for a user id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				return fmt.Errorf("--jwt-secret or MYTASKS_JWT_SECRET is required")
			}
			uid, err := primitive.ObjectIDFromHex(args[0])
			if err != nil {
				return fmt.Errorf("user id must be a 24-character hex ObjectID: %w", err)
			}
			tok, err := auth.IssueToken([]byte(secret), uid, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&secret, "jwt-secret", os.Getenv("MYTASKS_JWT_SECRET"), "HMAC secret the server verifies tokens with")
	cmd.Flags().DurationVar(&ttl, "ttl", auth.DefaultTokenTTL, "Token lifetime")
	return cmd
}

// render writes v to w as indented JSON or as YAML.
func render(w io.Writer, format string, v any) error {
	switch format {
	case "json", "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(v)
	default:
		return fmt.Errorf("unknown output format %q (want json or yaml)", format)
	}
}
