package repository

import (
	"context"
	"math"
	"os"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestQueries(t *testing.T) {
	Convey("Given table names", t, func() {
		Convey("Then identifiers are quoted", func() {
			So(statsQuery("player_stats"), ShouldEqual,
				`SELECT player_name, batting_avg, strike_rate, bowling_avg, economy FROM "player_stats" WHERE player_name IS NOT NULL ORDER BY ctid`)
			So(historyQuery(`odd"name`), ShouldContainSubstring, `FROM "odd""name"`)
		})

		Convey("Then NULL statistics become NaN", func() {
			v := 41.5
			So(orNaN(&v), ShouldEqual, 41.5)
			So(math.IsNaN(orNaN(nil)), ShouldBeTrue)
		})
	})
}

func TestPostgresSource(t *testing.T) {
	dsn := os.Getenv("T20_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("T20_TEST_POSTGRES_DSN not set")
	}

	Convey("Given a PostgreSQL database with reference tables", t, func() {
		ctx := context.Background()
		src, err := NewPostgresSource(ctx, dsn, WithMaxConns(1))
		So(err, ShouldBeNil)
		defer func() { _ = src.Close() }()

		_, err = src.pool.Exec(ctx, `
CREATE TEMP TABLE player_stats (player_name text, batting_avg float8, strike_rate float8, bowling_avg float8, economy float8);
CREATE TEMP TABLE deliveries (batting_team text, bowling_team text, batter text, bowler text);
INSERT INTO player_stats VALUES ('V Kohli', 52.7, 137.9, NULL, NULL), ('JJ Bumrah', 3.2, 58, 20.2, 6.6);
INSERT INTO deliveries VALUES ('India','Australia','V Kohli','PJ Cummins'), ('India','Australia','V Kohli','PJ Cummins');`)
		So(err, ShouldBeNil)

		Convey("When loading both tables", func() {
			stats, err1 := src.PlayerStats(ctx)
			history, err2 := src.MatchHistory(ctx)

			Convey("Then nullable statistics and duplicate pairings are handled", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(len(stats), ShouldEqual, 2)
				So(math.IsNaN(stats[0].Economy), ShouldBeTrue)
				So(len(history), ShouldEqual, 1)
			})
		})
	})
}
