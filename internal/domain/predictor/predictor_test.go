package predictor_test

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/t20score/internal/domain/model"
	"github.com/okian/t20score/internal/domain/predictor"
	. "github.com/smartystreets/goconvey/convey"
)

func sampleVector() model.FeatureVector {
	return model.FeatureVector{
		BattingTeam: 6, BowlingTeam: 0, OverNumber: 6, BallNumber: 2,
		CurrentScore: 50, Wickets: 1, BallsLeft: 82, CRR: 8.11, LastFive: 30,
		WicketsLeft: 9, BatterAvg: 48.5, BatterSR: 137.2, NonStrikerAvg: 31.1,
		NonStrikerSR: 139.9, BowlerAvg: 21.3, BowlerEco: 7.4,
	}
}

func allCoefficients(w float64) map[string]float64 {
	out := make(map[string]float64, len(model.Columns))
	for _, c := range model.Columns {
		out[c] = w
	}
	return out
}

func TestLinearModel(t *testing.T) {
	ctx := context.Background()

	Convey("Given a linear model over current score and balls left", t, func() {
		coef := allCoefficients(0)
		coef["current_score"] = 1
		coef["balls_left"] = 1.25
		m, err := predictor.NewLinearModel(10, coef)
		So(err, ShouldBeNil)

		Convey("Then the prediction is the linear form", func() {
			v, err := m.Predict(ctx, sampleVector())
			So(err, ShouldBeNil)
			So(v, ShouldAlmostEqual, 10+50+1.25*82)
		})

		Convey("When the weights produce a non-finite value", func() {
			fv := sampleVector()
			fv.CurrentScore = math.Inf(1)
			_, err := m.Predict(ctx, fv)
			So(errors.Is(err, predictor.ErrInvalidPrediction), ShouldBeTrue)
		})
	})

	Convey("Given coefficients that miss a column", t, func() {
		coef := allCoefficients(1)
		delete(coef, "bowler_eco")
		_, err := predictor.NewLinearModel(0, coef)
		So(errors.Is(err, predictor.ErrLoadModel), ShouldBeTrue)
		So(err.Error(), ShouldContainSubstring, "bowler_eco")
	})

	Convey("Given coefficients with an extra column", t, func() {
		coef := allCoefficients(1)
		coef["venue"] = 3
		_, err := predictor.NewLinearModel(0, coef)
		So(errors.Is(err, predictor.ErrLoadModel), ShouldBeTrue)
	})

	Convey("Given a YAML model artifact", t, func() {
		body := "intercept: 20.0\ncoefficients:\n"
		for _, c := range model.Columns {
			w := "0.0"
			if c == "current_score" {
				w = "2.0"
			}
			body += "  " + c + ": " + w + "\n"
		}
		path := filepath.Join(t.TempDir(), "model.yaml")
		So(os.WriteFile(path, []byte(body), 0o600), ShouldBeNil)

		m, err := predictor.LoadLinearModel(path)
		So(err, ShouldBeNil)
		v, err := m.Predict(ctx, sampleVector())
		So(err, ShouldBeNil)
		So(v, ShouldAlmostEqual, 120.0)
	})

	Convey("Given an artifact without an intercept", t, func() {
		path := filepath.Join(t.TempDir(), "model.yaml")
		So(os.WriteFile(path, []byte("coefficients: {}\n"), 0o600), ShouldBeNil)
		_, err := predictor.LoadLinearModel(path)
		So(errors.Is(err, predictor.ErrLoadModel), ShouldBeTrue)
	})
}

type invocation struct {
	DataframeSplit struct {
		Columns []string    `json:"columns"`
		Data    [][]float64 `json:"data"`
	} `json:"dataframe_split"`
}

func TestRemoteModel(t *testing.T) {
	ctx := context.Background()

	Convey("Given a model server", t, func() {
		var got invocation
		var path string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path = r.URL.Path
			_ = json.NewDecoder(r.Body).Decode(&got)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"predictions": [171.6]}`))
		}))
		defer srv.Close()

		m := predictor.NewRemoteModel(srv.URL + "/")

		Convey("When predicting", func() {
			v, err := m.Predict(ctx, sampleVector())

			Convey("Then one row is sent in schema order", func() {
				So(err, ShouldBeNil)
				So(v, ShouldEqual, 171.6)
				So(path, ShouldEqual, "/invocations")
				So(got.DataframeSplit.Columns, ShouldResemble, model.Columns[:])
				So(len(got.DataframeSplit.Data), ShouldEqual, 1)
				So(got.DataframeSplit.Data[0][4], ShouldEqual, 50.0)
				So(got.DataframeSplit.Data[0][7], ShouldEqual, 8.11)
			})
		})
	})

	Convey("Given a server answering with a bare list", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`[140.2]`))
		}))
		defer srv.Close()

		v, err := predictor.NewRemoteModel(srv.URL).Predict(ctx, sampleVector())
		So(err, ShouldBeNil)
		So(v, ShouldEqual, 140.2)
	})

	Convey("Given a server answering with no predictions", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"predictions": []}`))
		}))
		defer srv.Close()

		_, err := predictor.NewRemoteModel(srv.URL).Predict(ctx, sampleVector())
		So(errors.Is(err, predictor.ErrInvalidPrediction), ShouldBeTrue)
	})

	Convey("Given a failing server", t, func() {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			http.Error(w, "model not loaded", http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		m := predictor.NewRemoteModel(srv.URL, predictor.WithBreaker(2, time.Minute))

		Convey("Then each failure is reported without retrying", func() {
			_, err := m.Predict(ctx, sampleVector())
			So(errors.Is(err, predictor.ErrModelUnavailable), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "503")
			So(calls.Load(), ShouldEqual, int32(1))
		})

		Convey("Then consecutive failures open the circuit", func() {
			_, _ = m.Predict(ctx, sampleVector())
			_, _ = m.Predict(ctx, sampleVector())
			So(m.State(), ShouldEqual, "open")

			_, err := m.Predict(ctx, sampleVector())
			So(errors.Is(err, predictor.ErrCircuitOpen), ShouldBeTrue)
			So(calls.Load(), ShouldEqual, int32(2))
		})
	})

	Convey("Given a server slower than the timeout", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
			_, _ = w.Write([]byte(`{"predictions": [1]}`))
		}))
		defer srv.Close()

		m := predictor.NewRemoteModel(srv.URL, predictor.WithTimeout(30*time.Millisecond))
		start := time.Now()
		_, err := m.Predict(ctx, sampleVector())

		So(errors.Is(err, predictor.ErrModelTimeout), ShouldBeTrue)
		So(time.Since(start), ShouldBeLessThan, time.Second)
	})
}

func TestCachedPredictor(t *testing.T) {
	ctx := context.Background()

	Convey("Given a counting predictor", t, func() {
		var calls int
		next := predictor.Func(func(_ context.Context, fv model.FeatureVector) (float64, error) {
			calls++
			return fv.CurrentScore * 3, nil
		})

		Convey("When caching is enabled", func() {
			c := predictor.NewCachedPredictor(next, time.Minute)

			v1, hit1, err1 := c.Fetch(ctx, sampleVector())
			v2, hit2, err2 := c.Fetch(ctx, sampleVector())

			Convey("Then the second identical vector is served from cache", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(v1, ShouldEqual, 150.0)
				So(v2, ShouldEqual, v1)
				So(hit1, ShouldBeFalse)
				So(hit2, ShouldBeTrue)
				So(calls, ShouldEqual, 1)
				So(c.Len(), ShouldEqual, 1)
			})

			Convey("Then a different vector misses", func() {
				fv := sampleVector()
				fv.CurrentScore = 51
				_, hit, _ := c.Fetch(ctx, fv)
				So(hit, ShouldBeFalse)
				So(calls, ShouldEqual, 2)
			})
		})

		Convey("When the ttl is zero", func() {
			c := predictor.NewCachedPredictor(next, 0)
			_, _ = c.Predict(ctx, sampleVector())
			_, _ = c.Predict(ctx, sampleVector())

			Convey("Then every call reaches the model", func() {
				So(calls, ShouldEqual, 2)
				So(c.Len(), ShouldEqual, 0)
			})
		})
	})

	Convey("Given a failing predictor", t, func() {
		var calls int
		next := predictor.Func(func(context.Context, model.FeatureVector) (float64, error) {
			calls++
			return 0, predictor.ErrModelUnavailable
		})
		c := predictor.NewCachedPredictor(next, time.Minute)

		_, err := c.Predict(ctx, sampleVector())
		_, _ = c.Predict(ctx, sampleVector())

		So(errors.Is(err, predictor.ErrModelUnavailable), ShouldBeTrue)
		So(calls, ShouldEqual, 2)
	})
}
