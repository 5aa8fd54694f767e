package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/t20score/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func artifacts(t *testing.T) []string {
	t.Helper()
	dir := t.TempDir()
	write := func(name, body string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
			t.Fatal(err)
		}
		return path
	}

	var m strings.Builder
	m.WriteString("intercept: 71.9\ncoefficients:\n")
	for _, c := range model.Columns {
		w := "0.0"
		if c == "current_score" {
			w = "1.0"
		}
		m.WriteString("  " + c + ": " + w + "\n")
	}

	return []string{
		"--stats", write("player_stats.csv", "player_name,batting_avg,strike_rate,bowling_avg,economy\n"+
			"V Kohli,52.7,137.9,,\nRG Sharma,31.3,139.9,,\nPJ Cummins,9.8,119.1,28.4,8.1\n"),
		"--history", write("df_cleaned.csv", "batting_team,bowling_team,batter,bowler\n"+
			"India,Australia,V Kohli,PJ Cummins\nIndia,Australia,RG Sharma,PJ Cummins\n"),
		"--encoders", write("label_encoders.yaml", "batting_team: [India, Australia]\nbowling_team: [India, Australia]\n"),
		"--model", write("model.yaml", m.String()),
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestPredictCommand(t *testing.T) {
	convey.Convey("Given local artifacts", t, func() {
		paths := artifacts(t)

		convey.Convey("When predicting a match state", func() {
			args := append([]string{"predict"}, paths...)
			args = append(args,
				"--batting", "India", "--bowling", "Australia",
				"--striker", "V Kohli", "--non-striker", "RG Sharma", "--bowler", "PJ Cummins",
				"--over", "10", "--ball", "1", "--score", "100", "--last30", "40", "--wickets", "2")
			out, err := execute(t, args...)

			convey.Convey("Then the banded result is printed as JSON", func() {
				convey.So(err, convey.ShouldBeNil)
				var res map[string]any
				convey.So(json.Unmarshal([]byte(out), &res), convey.ShouldBeNil)
				convey.So(res["point_estimate"], convey.ShouldEqual, 171.0)
				convey.So(res["lower_bound"], convey.ShouldEqual, 159.0)
				convey.So(res["upper_bound"], convey.ShouldEqual, 183.0)
				convey.So(res["wickets_left"], convey.ShouldEqual, 8.0)
			})
		})

		convey.Convey("When the over is out of range", func() {
			args := append([]string{"predict"}, paths...)
			args = append(args,
				"--batting", "India", "--bowling", "Australia",
				"--striker", "V Kohli", "--non-striker", "RG Sharma", "--bowler", "PJ Cummins",
				"--over", "3")
			_, err := execute(t, args...)

			convey.Convey("Then the command fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "over_number")
			})
		})

		convey.Convey("When a required flag is missing", func() {
			args := append([]string{"predict"}, paths...)
			_, err := execute(t, args...)
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestCatalogCommands(t *testing.T) {
	convey.Convey("Given local artifacts", t, func() {
		paths := artifacts(t)

		convey.Convey("When listing teams", func() {
			out, err := execute(t, append([]string{"teams"}, paths...)...)
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldEqual, "Australia\nIndia\n")
		})

		convey.Convey("When listing opponents", func() {
			out, err := execute(t, append([]string{"teams", "--batting", "India"}, paths...)...)
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldEqual, "Australia\n")
		})

		convey.Convey("When listing non-strikers", func() {
			out, err := execute(t, append([]string{"players", "--team", "India", "--exclude", "V Kohli"}, paths...)...)
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldEqual, "RG Sharma\n")
		})

		convey.Convey("When listing bowlers", func() {
			out, err := execute(t, append([]string{"players", "--team", "Australia", "--role", "bowler"}, paths...)...)
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldEqual, "PJ Cummins\n")
		})

		convey.Convey("When excluding a bowler", func() {
			_, err := execute(t, append([]string{"players", "--team", "Australia", "--role", "bowler", "--exclude", "X"}, paths...)...)
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}
