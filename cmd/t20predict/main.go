// Command t20predict runs one prediction, or lists teams and players,
// against the same artifacts the HTTP service uses.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	service "github.com/okian/t20score/internal/app"
	"github.com/okian/t20score/internal/config"
	"github.com/okian/t20score/internal/domain/model"
	"github.com/okian/t20score/pkg/logger"
	"github.com/spf13/cobra"
)

const commandTimeout = 30 * time.Second

type globalFlags struct {
	configFile  string
	statsPath   string
	historyPath string
	encoders    string
	modelPath   string
	modelURL    string
	verbose     bool
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:          "t20predict",
		Short:        "Predict the final score of a live T20 innings",
		SilenceUsage: true,
	}
	root.SetOut(out)

	pf := root.PersistentFlags()
	pf.StringVarP(&g.configFile, "config", "c", "", "YAML configuration file (overrides $"+config.EnvConfigFile+")")
	pf.StringVar(&g.statsPath, "stats", "", "player statistics CSV")
	pf.StringVar(&g.historyPath, "history", "", "match history CSV")
	pf.StringVar(&g.encoders, "encoders", "", "team encoder YAML")
	pf.StringVar(&g.modelPath, "model", "", "linear model YAML")
	pf.StringVar(&g.modelURL, "model-url", "", "model server base URL")
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "log service events to stderr")

	root.AddCommand(newPredictCmd(g), newTeamsCmd(g), newPlayersCmd(g))
	return root
}

// loadConfig layers the command-line paths on top of the usual config.
func (g *globalFlags) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if g.configFile != "" {
		if err := os.Setenv(config.EnvConfigFile, g.configFile); err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("stats") {
		cfg.StatsSource = config.StatsSourceCSV
		cfg.PlayerStatsPath = g.statsPath
	}
	if flags.Changed("history") {
		cfg.MatchHistoryPath = g.historyPath
	}
	if flags.Changed("encoders") {
		cfg.EncodersPath = g.encoders
	}
	if flags.Changed("model") {
		cfg.ModelPath = g.modelPath
		cfg.ModelURL = ""
	}
	if flags.Changed("model-url") {
		cfg.ModelURL = g.modelURL
	}
	return cfg, config.Validate(cfg)
}

// withService starts a service for the duration of fn.
func (g *globalFlags) withService(cmd *cobra.Command, fn func(ctx context.Context, svc *service.Service) error) error {
	cfg, err := g.loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := []logger.Option{logger.WithWriter(cmd.ErrOrStderr()), logger.WithFormat(cfg.LogFormat)}
	if err := logger.Init(opts...); err != nil {
		return err
	}
	level := "error"
	if g.verbose {
		level = cfg.LogLevel
	}
	if err := logger.SetLevelString(level); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	svc, err := service.FromConfig(ctx, cfg, logger.Named("t20predict"))
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()
	return fn(ctx, svc)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newPredictCmd(g *globalFlags) *cobra.Command {
	var st model.MatchState
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict the final score for one match state",
		Example: `  t20predict predict --batting India --bowling Australia \
    --striker "V Kohli" --non-striker "RG Sharma" --bowler "PJ Cummins" \
    --over 10 --ball 1 --score 80 --last30 40 --wickets 2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return g.withService(cmd, func(ctx context.Context, svc *service.Service) error {
				res, err := svc.Predict(ctx, st)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&st.BattingTeam, "batting", "", "batting team")
	f.StringVar(&st.BowlingTeam, "bowling", "", "bowling team")
	f.StringVar(&st.Striker, "striker", "", "batter on strike")
	f.StringVar(&st.NonStriker, "non-striker", "", "batter at the other end")
	f.StringVar(&st.Bowler, "bowler", "", "current bowler")
	f.IntVar(&st.OverNumber, "over", model.MinOverNumber, "over number (5-19)")
	f.IntVar(&st.BallNumber, "ball", model.MinBallNumber, "ball within the over (1-6)")
	f.IntVar(&st.CurrentScore, "score", 0, "runs scored so far")
	f.IntVar(&st.RunsLastThirtyBalls, "last30", 0, "runs in the last 30 balls")
	f.IntVar(&st.WicketsLost, "wickets", 0, "wickets lost (0-9)")
	for _, name := range []string{"batting", "bowling", "striker", "non-striker", "bowler"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newTeamsCmd(g *globalFlags) *cobra.Command {
	var batting string
	cmd := &cobra.Command{
		Use:   "teams",
		Short: "List batting teams, or bowling teams for --batting",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return g.withService(cmd, func(ctx context.Context, svc *service.Service) error {
				var (
					teams []string
					err   error
				)
				if batting != "" {
					teams, err = svc.BowlingTeams(ctx, batting)
				} else {
					teams, err = svc.Teams(ctx)
				}
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), strings.Join(teams, "\n"))
				return err
			})
		},
	}
	cmd.Flags().StringVar(&batting, "batting", "", "list opponents of this batting team")
	return cmd
}

func newPlayersCmd(g *globalFlags) *cobra.Command {
	var team, role, exclude string
	cmd := &cobra.Command{
		Use:   "players",
		Short: "List eligible batters or bowlers for a team",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := model.ParseRole(role)
			if err != nil {
				return err
			}
			if exclude != "" && r != model.RoleBatter {
				return errors.New("--exclude only applies to batters")
			}
			return g.withService(cmd, func(ctx context.Context, svc *service.Service) error {
				var players []string
				switch {
				case r == model.RoleBowler:
					players, err = svc.Bowlers(ctx, team)
				case exclude != "":
					players, err = svc.NonStrikers(ctx, team, exclude)
				default:
					players, err = svc.Batters(ctx, team)
				}
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), strings.Join(players, "\n"))
				return err
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&team, "team", "", "team name")
	f.StringVar(&role, "role", model.RoleBatter.String(), "batter or bowler")
	f.StringVar(&exclude, "exclude", "", "striker to leave out (batters only)")
	_ = cmd.MarkFlagRequired("team")
	return cmd
}
