// Command dawgbowl-cli drives a running draft API: admin chores, results
// entry and load runs.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	service "github.com/okian/dawgbowl/internal/app"
	"github.com/okian/dawgbowl/internal/client"
	"github.com/okian/dawgbowl/internal/domain/model"
	"github.com/okian/dawgbowl/internal/loadgen"
	"github.com/okian/dawgbowl/pkg/logger"
)

func main() {
	if err := logger.Init(logger.WithWriter(os.Stderr)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:      "dawgbowl-cli",
		Usage:     "manage a Dawg Bowl draft server",
		Writer:    out,
		ErrWriter: out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Value:   "http://localhost:9080",
				Usage:   "API base URL",
				EnvVars: []string{"DAWGBOWL_API_ADDR"},
			},
			&cli.StringFlag{
				Name:    "secret",
				Usage:   "admin shared secret",
				EnvVars: []string{"DAWGBOWL_ADMIN_SECRET"},
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Value: 30 * time.Second,
				Usage: "per-request timeout",
			},
		},
		Commands: []*cli.Command{
			contestantsCommand(),
			lineupsCommand(),
			exportCommand(),
			resultsCommand(),
			standingsCommand(),
			loadtestCommand(),
		},
	}
}

func errUsage(msg string) error {
	return errors.New("usage: " + msg)
}

func apiClient(c *cli.Context) *client.Client {
	return client.New(c.String("addr"),
		client.WithAdminSecret(c.String("secret")),
		client.WithTimeout(c.Duration("timeout")),
	)
}

func table(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func contestantsCommand() *cli.Command {
	return &cli.Command{
		Name:  "contestants",
		Usage: "list the contestant pool",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "q", Usage: "name filter"},
			&cli.StringFlag{Name: "sort", Usage: "salary_desc, salary_asc or name"},
		},
		Action: func(c *cli.Context) error {
			salaryCap, pool, err := apiClient(c).Contestants(c.Context, c.String("q"), c.String("sort"))
			if err != nil {
				return err
			}
			tw := table(c.App.Writer)
			fmt.Fprintf(tw, "salary cap $%d\n", salaryCap)
			fmt.Fprintln(tw, "ID\tNAME\tTEAM\tSALARY\tCAPTAIN")
			for _, ct := range pool {
				captain := model.Member{Contestant: ct, Slot: model.SlotCaptain}.Cost()
				fmt.Fprintf(tw, "%d\t%s\t%s\t$%d\t$%d\n", ct.ID, ct.Name, ct.Team, ct.Salary, captain)
			}
			return tw.Flush()
		},
	}
}

func lineupsCommand() *cli.Command {
	return &cli.Command{
		Name:  "lineups",
		Usage: "inspect stored lineups",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "list every stored lineup",
				Action: func(c *cli.Context) error {
					listing, err := apiClient(c).Lineups(c.Context)
					if err != nil {
						return err
					}
					tw := table(c.App.Writer)
					fmt.Fprintln(tw, "USERNAME\tCAPTAIN\tCOST\tENTERED")
					for _, l := range listing.Lineups {
						fmt.Fprintf(tw, "%s\t%s\t$%d\t%s\n", l.Username, l.CaptainName, l.TotalCost, l.EnteredAt.UTC().Format(time.RFC3339))
					}
					for _, bad := range listing.Corrupt {
						fmt.Fprintf(tw, "%s\t(corrupt)\t\t%s\n", bad.Key, bad.Err)
					}
					return tw.Flush()
				},
			},
			{
				Name:      "delete",
				Usage:     "delete a user's lineup",
				ArgsUsage: "<username>",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return errUsage("delete needs exactly one username")
					}
					if err := apiClient(c).DeleteLineup(c.Context, c.Args().First()); err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "deleted %s\n", c.Args().First())
					return nil
				},
			},
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "download all lineups as csv or xlsx",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Value: service.FormatCSV, Usage: "csv or xlsx"},
			&cli.StringFlag{Name: "dir", Value: ".", Usage: "directory to write the file to"},
		},
		Action: func(c *cli.Context) error {
			name, data, err := apiClient(c).Export(c.Context, c.String("format"))
			if err != nil {
				return err
			}
			path := filepath.Join(c.String("dir"), filepath.Base(name))
			if err := os.WriteFile(path, data, 0o600); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			fmt.Fprintf(c.App.Writer, "wrote %s (%d bytes)\n", path, len(data))
			return nil
		},
	}
}

// outcomeLine is one row of a results file.
type outcomeLine struct {
	ContestantID   model.ContestantID `yaml:"contestant_id"`
	Kind           model.OutcomeKind  `yaml:"kind"`
	FinishPosition int                `yaml:"finish_position"`
	BoxScore       *model.BoxScore    `yaml:"box_score"`
	Points         float64            `yaml:"points"`
}

// readOutcomes parses a YAML (or JSON) list of outcomes.
func readOutcomes(path string) (model.Outcomes, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read results file: %w", err)
	}
	var lines []outcomeLine
	if err := yaml.Unmarshal(raw, &lines); err != nil {
		return nil, fmt.Errorf("parse results file: %w", err)
	}
	out := make(model.Outcomes, len(lines))
	for _, l := range lines {
		if _, dup := out[l.ContestantID]; dup {
			return nil, fmt.Errorf("contestant %d listed twice", l.ContestantID)
		}
		out[l.ContestantID] = model.Outcome{
			Kind:           l.Kind,
			FinishPosition: l.FinishPosition,
			BoxScore:       l.BoxScore,
			Points:         l.Points,
		}
	}
	return out, nil
}

func printRound(w io.Writer, r service.Round) {
	fmt.Fprintf(w, "results %s (%s): queued %d, scored %d, skipped %d, failed %d\n",
		r.ResultsID, r.Source, r.Queued, r.Scored, r.Skipped, r.Failed)
	for _, f := range r.Failures {
		fmt.Fprintf(w, "  %s: %s\n", f.Key, f.Error)
	}
}

func resultsCommand() *cli.Command {
	wait := func() cli.Flag {
		return &cli.BoolFlag{Name: "wait", Usage: "block until every lineup is scored"}
	}
	return &cli.Command{
		Name:  "results",
		Usage: "enter results and follow scoring",
		Subcommands: []*cli.Command{
			{
				Name:      "post",
				Usage:     "post official outcomes from a YAML or JSON file",
				ArgsUsage: "<file>",
				Flags:     []cli.Flag{wait()},
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return errUsage("post needs exactly one results file")
					}
					outcomes, err := readOutcomes(c.Args().First())
					if err != nil {
						return err
					}
					api := apiClient(c)
					r, err := api.PostResults(c.Context, outcomes)
					if err != nil {
						return err
					}
					return finishRound(c, api, r)
				},
			},
			{
				Name:  "simulate",
				Usage: "score every lineup against simulated outcomes",
				Flags: []cli.Flag{
					&cli.Int64Flag{Name: "seed", Usage: "random seed; 0 uses the server default"},
					&cli.StringFlag{Name: "kind", Value: string(model.OutcomeFinish), Usage: "finish or boxscore"},
					wait(),
				},
				Action: func(c *cli.Context) error {
					api := apiClient(c)
					r, err := api.Simulate(c.Context, service.SimulateRequest{
						Seed: c.Int64("seed"),
						Kind: model.OutcomeKind(c.String("kind")),
					})
					if err != nil {
						return err
					}
					return finishRound(c, api, r)
				},
			},
			{
				Name:  "status",
				Usage: "show the latest round",
				Action: func(c *cli.Context) error {
					r, err := apiClient(c).Round(c.Context)
					if err != nil {
						return err
					}
					printRound(c.App.Writer, r)
					return nil
				},
			},
		},
	}
}

func finishRound(c *cli.Context, api *client.Client, r service.Round) error {
	if c.Bool("wait") {
		var err error
		if r, err = api.WaitForRound(c.Context, 250*time.Millisecond); err != nil {
			return err
		}
	}
	printRound(c.App.Writer, r)
	return nil
}

func standingsCommand() *cli.Command {
	return &cli.Command{
		Name:      "standings",
		Usage:     "show the top lineups, or one user's breakdown",
		ArgsUsage: "[username]",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Value: 10},
			&cli.BoolFlag{Name: "json", Usage: "print raw JSON"},
		},
		Action: func(c *cli.Context) error {
			api := apiClient(c)
			if c.NArg() == 1 {
				e, err := api.Standing(c.Context, c.Args().First())
				if err != nil {
					return err
				}
				if c.Bool("json") {
					return json.NewEncoder(c.App.Writer).Encode(e)
				}
				tw := table(c.App.Writer)
				fmt.Fprintf(tw, "#%d %s %.1f\n", e.Rank, e.Username, e.Total)
				fmt.Fprintln(tw, "PLAYER\tROLE\tBASE\tFINAL")
				for _, r := range e.Breakdown {
					fmt.Fprintf(tw, "%s\t%s\t%.1f\t%.1f\n", r.Name, r.Slot.Role(), r.Base, r.Final)
				}
				return tw.Flush()
			}

			top, err := api.Standings(c.Context, c.Int("limit"))
			if err != nil {
				return err
			}
			if c.Bool("json") {
				return json.NewEncoder(c.App.Writer).Encode(top)
			}
			tw := table(c.App.Writer)
			fmt.Fprintln(tw, "RANK\tUSERNAME\tTOTAL")
			for _, e := range top {
				fmt.Fprintf(tw, "%s\t%s\t%.1f\n", strconv.Itoa(e.Rank), e.Username, e.Total)
			}
			return tw.Flush()
		},
	}
}

func loadtestCommand() *cli.Command {
	return &cli.Command{
		Name:  "loadtest",
		Usage: "submit random lineups, simulate results and check the standings",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "lineups", Value: 100},
			&cli.IntFlag{Name: "workers", Usage: "concurrent submitters (default CPU cores * 2)"},
			&cli.IntFlag{Name: "top", Value: 10},
			&cli.Int64Flag{Name: "seed"},
			&cli.StringFlag{Name: "kind", Value: string(model.OutcomeFinish)},
		},
		Action: func(c *cli.Context) error {
			stats, err := loadgen.Run(c.Context, loadgen.Config{
				BaseURL:     c.String("addr"),
				AdminSecret: c.String("secret"),
				Lineups:     c.Int("lineups"),
				Workers:     c.Int("workers"),
				TopN:        c.Int("top"),
				Seed:        c.Int64("seed"),
				Kind:        model.OutcomeKind(c.String("kind")),
				Timeout:     c.Duration("timeout"),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "generated %d, submitted %d, failed %d\n", stats.Generated, stats.Submitted, stats.Failed)
			printRound(c.App.Writer, stats.Round)
			fmt.Fprintf(c.App.Writer, "standings checked: top %d in %s\n", stats.Top, stats.Duration.Round(time.Millisecond))
			return nil
		},
	}
}
