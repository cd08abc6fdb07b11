package similarity_test

import (
	"errors"
	"math"
	"testing"

	"github.com/okian/rendezvous/internal/domain/similarity"
	. "github.com/smartystreets/goconvey/convey"
)

func TestFromDistance(t *testing.T) {
	Convey("Given pairing distances", t, func() {
		Convey("When the distance is within [0,2]", func() {
			Convey("Then similarity is one minus the distance", func() {
				for _, tc := range []struct{ d, want float64 }{
					{0, 1}, {0.1, 0.9}, {1, 0}, {2, -1},
				} {
					got, err := similarity.FromDistance(tc.d)
					So(err, ShouldBeNil)
					So(got, ShouldAlmostEqual, tc.want, 1e-12)
				}
			})
		})

		Convey("When the distance is out of range", func() {
			Convey("Then it is rejected", func() {
				for _, d := range []float64{-0.01, 2.01, math.NaN(), math.Inf(1)} {
					_, err := similarity.FromDistance(d)
					So(errors.Is(err, similarity.ErrDistanceOutOfRange), ShouldBeTrue)
				}
			})
		})
	})
}

func TestClassify(t *testing.T) {
	Convey("Given similarity values around the band edges", t, func() {
		Convey("Then lower edges are inclusive", func() {
			So(similarity.Classify(1.0), ShouldEqual, similarity.BandHigh)
			So(similarity.Classify(0.8), ShouldEqual, similarity.BandHigh)
			So(similarity.Classify(0.7999), ShouldEqual, similarity.BandMedium)
			So(similarity.Classify(0.6), ShouldEqual, similarity.BandMedium)
			So(similarity.Classify(0.5999), ShouldEqual, similarity.BandModerate)
			So(similarity.Classify(-1), ShouldEqual, similarity.BandModerate)
		})
	})
}

func TestMatchPercent(t *testing.T) {
	Convey("Given a similarity", t, func() {
		So(similarity.MatchPercent(0.9), ShouldEqual, 90.0)
		So(similarity.MatchPercent(0.12345), ShouldEqual, 12.3)
		So(similarity.MatchPercent(-0.5), ShouldEqual, -50.0)
	})
}
