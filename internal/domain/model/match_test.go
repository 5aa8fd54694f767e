package model_test

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/okian/t20score/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRole(t *testing.T) {
	Convey("Given role names", t, func() {
		Convey("When parsing known roles", func() {
			batter, err := model.ParseRole("batter")
			So(err, ShouldBeNil)
			So(batter, ShouldEqual, model.RoleBatter)

			bowler, err := model.ParseRole("bowler")
			So(err, ShouldBeNil)
			So(bowler, ShouldEqual, model.RoleBowler)

			Convey("Then they round-trip through String", func() {
				So(batter.String(), ShouldEqual, "batter")
				So(bowler.String(), ShouldEqual, "bowler")
			})
		})

		Convey("When parsing an unknown role", func() {
			_, err := model.ParseRole("keeper")

			Convey("Then it fails", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestFeatureVector(t *testing.T) {
	Convey("Given a fully populated feature vector", t, func() {
		fv := model.FeatureVector{
			BattingTeam: 7, BowlingTeam: 0, OverNumber: 6, BallNumber: 2,
			CurrentScore: 50, Wickets: 1, BallsLeft: 82, CRR: 8.11,
			LastFive: 40, WicketsLeft: 9, BatterAvg: 31.2, BatterSR: 131.5,
			NonStrikerAvg: 25, NonStrikerSR: 120, BowlerAvg: 30, BowlerEco: 8,
		}

		Convey("When validated", func() {
			Convey("Then it passes", func() {
				So(fv.Validate(), ShouldBeNil)
			})
		})

		Convey("When Values is compared with the JSON encoding", func() {
			raw, err := json.Marshal(fv)
			So(err, ShouldBeNil)
			var byName map[string]float64
			So(json.Unmarshal(raw, &byName), ShouldBeNil)

			Convey("Then every value sits under its column name", func() {
				values := fv.Values()
				for i, col := range model.Columns {
					So(byName[col], ShouldEqual, values[i])
				}
			})
		})

		Convey("When a feature is not finite", func() {
			fv.CRR = math.Inf(1)
			err := fv.Validate()

			Convey("Then validation names the column", func() {
				So(errors.Is(err, model.ErrInvalidFeature), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "crr")
			})
		})

		Convey("When a player stat is missing", func() {
			fv.BowlerEco = math.NaN()

			Convey("Then validation fails", func() {
				So(errors.Is(fv.Validate(), model.ErrInvalidFeature), ShouldBeTrue)
			})
		})
	})
}
