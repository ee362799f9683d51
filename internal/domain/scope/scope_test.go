package scope_test

import (
	"testing"

	"github.com/verdantquest/questboard/internal/domain/scope"
	. "github.com/smartystreets/goconvey/convey"
)

func TestScope(t *testing.T) {
	Convey("Given the global scope", t, func() {
		g := scope.Global()

		Convey("Then it should report global and use the global key", func() {
			So(g.IsGlobal(), ShouldBeTrue)
			So(g.Key(), ShouldEqual, "global")
			So(g.CityName(), ShouldEqual, "")
		})
	})

	Convey("Given a city scope", t, func() {
		s, err := scope.City("Seattle")
		So(err, ShouldBeNil)

		Convey("Then it should carry the city name in its key", func() {
			So(s.IsGlobal(), ShouldBeFalse)
			So(s.Key(), ShouldEqual, "city:Seattle")
			So(s.CityName(), ShouldEqual, "Seattle")
		})

		Convey("And whitespace-only names should be rejected", func() {
			_, err := scope.City("   ")
			So(err, ShouldEqual, scope.ErrEmptyCity)
		})
	})

	Convey("Given scope keys to parse", t, func() {
		Convey("When parsing the global key", func() {
			s, err := scope.Parse("global")
			So(err, ShouldBeNil)
			So(s.IsGlobal(), ShouldBeTrue)
		})

		Convey("When parsing a city key", func() {
			s, err := scope.Parse("city:Portland")
			So(err, ShouldBeNil)
			So(s.CityName(), ShouldEqual, "Portland")
		})

		Convey("When parsing an unknown key", func() {
			_, err := scope.Parse("country:US")
			So(err, ShouldNotBeNil)
		})

		Convey("When parsing a city key with no name", func() {
			_, err := scope.Parse("city:")
			So(err, ShouldNotBeNil)
		})
	})

	Convey("Round-tripping a scope through its key should be lossless", t, func() {
		for _, key := range []string{"global", "city:Seattle", "city:São Paulo"} {
			s, err := scope.Parse(key)
			So(err, ShouldBeNil)
			So(s.Key(), ShouldEqual, key)
		}
	})
}
