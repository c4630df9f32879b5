package roles_test

import (
	"testing"
	"time"

	"github.com/okian/gully/internal/domain/roles"
	"github.com/okian/gully/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestResolver(t *testing.T) {
	Convey("Given a resolver with season and global tables", t, func() {
		r := roles.NewResolver(
			roles.WithSeasonRoles(map[roles.SeasonKey]types.Role{
				{PlayerID: "p1", Season: 2018}: types.RoleAllRounder,
				{PlayerID: "p1", Season: 2019}: types.RoleBowler,
			}),
			roles.WithGlobalRoles(map[string]types.Role{
				"p1": types.RoleBatter,
				"p2": types.RoleWicketkeeper,
			}),
		)

		date2018 := time.Date(2018, 5, 12, 0, 0, 0, 0, time.UTC)
		date2019 := time.Date(2019, 4, 2, 0, 0, 0, 0, time.UTC)
		date2021 := time.Date(2021, 9, 30, 0, 0, 0, 0, time.UTC)

		Convey("When the player has a role for the match season", func() {
			Convey("Then the season role wins", func() {
				role, src := r.ResolveDetail("p1", date2018)
				So(role, ShouldEqual, types.RoleAllRounder)
				So(src, ShouldEqual, types.RoleSourceSeason)

				So(r.Resolve("p1", date2019), ShouldEqual, types.RoleBowler)
			})
		})

		Convey("When the player has no season role", func() {
			Convey("Then it falls back to the global role", func() {
				role, src := r.ResolveDetail("p1", date2021)
				So(role, ShouldEqual, types.RoleBatter)
				So(src, ShouldEqual, types.RoleSourceGlobal)

				role, src = r.ResolveDetail("p2", date2018)
				So(role, ShouldEqual, types.RoleWicketkeeper)
				So(src, ShouldEqual, types.RoleSourceGlobal)
			})
		})

		Convey("When the player appears in neither table", func() {
			Convey("Then it defaults to BAT and reports the default source", func() {
				role, src := r.ResolveDetail("unknown", date2019)
				So(role, ShouldEqual, types.RoleBatter)
				So(src, ShouldEqual, types.RoleSourceDefault)
			})
		})
	})

	Convey("Given a resolver with empty tables", t, func() {
		r := roles.NewResolver()

		Convey("Then every lookup still returns a role", func() {
			role, src := r.ResolveDetail("anyone", time.Now())
			So(role, ShouldEqual, types.RoleBatter)
			So(src, ShouldEqual, types.RoleSourceDefault)
		})
	})

	Convey("Given tables with an invalid role value", t, func() {
		r := roles.NewResolver(
			roles.WithGlobalRoles(map[string]types.Role{"p9": types.Role("KEEPER")}),
		)

		Convey("Then the invalid entry is ignored and the default applies", func() {
			role, src := r.ResolveDetail("p9", time.Now())
			So(role, ShouldEqual, types.RoleBatter)
			So(src, ShouldEqual, types.RoleSourceDefault)
		})
	})
}
