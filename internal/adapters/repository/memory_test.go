package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/gully/internal/adapters/repository"
	"github.com/okian/gully/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func day(d int) time.Time {
	return time.Date(2024, time.March, d, 0, 0, 0, 0, time.UTC)
}

func rec(player, match string, date time.Time, fp float64) model.HistoricalRecord {
	return model.HistoricalRecord{PlayerID: player, MatchID: match, MatchDate: date, ActualFP: fp}
}

func TestMemoryStoreAppend(t *testing.T) {
	ctx := context.Background()

	Convey("Given an empty memory store", t, func() {
		store := repository.NewMemoryStore()

		Convey("When appearances are appended", func() {
			So(store.Append(ctx, rec("kohli", "m1", day(1), 45)), ShouldBeNil)
			So(store.AppendBatch(ctx, []model.HistoricalRecord{
				rec("kohli", "m2", day(3), 80),
				rec("bumrah", "m2", day(3), 60),
			}), ShouldBeNil)

			Convey("Then counts reflect distinct players and rows", func() {
				players, err := store.PlayerCount(ctx)
				So(err, ShouldBeNil)
				So(players, ShouldEqual, 2)
				rows, err := store.RowCount(ctx)
				So(err, ShouldBeNil)
				So(rows, ShouldEqual, 3)
			})
		})

		Convey("When the same appearance is appended twice", func() {
			So(store.Append(ctx, rec("kohli", "m1", day(1), 45)), ShouldBeNil)
			So(store.Append(ctx, rec("kohli", "m1", day(1), 52)), ShouldBeNil)

			Convey("Then the later row wins and no duplicate exists", func() {
				rows, err := store.RowCount(ctx)
				So(err, ShouldBeNil)
				So(rows, ShouldEqual, 1)
				hist, err := store.Before(ctx, day(2))
				So(err, ShouldBeNil)
				So(hist, ShouldHaveLength, 1)
				So(hist[0].ActualFP, ShouldEqual, 52)
			})
		})

		Convey("When a row has no player ID", func() {
			err := store.Append(ctx, rec("", "m1", day(1), 45))
			So(errors.Is(err, repository.ErrEmptyPlayerID), ShouldBeTrue)
		})

		Convey("When a row has no match ID", func() {
			err := store.Append(ctx, rec("kohli", "", day(1), 45))
			So(errors.Is(err, repository.ErrEmptyMatchID), ShouldBeTrue)
		})
	})
}

func TestMemoryStoreBefore(t *testing.T) {
	ctx := context.Background()

	Convey("Given appearances across several dates", t, func() {
		store := repository.NewMemoryStore()
		So(store.AppendBatch(ctx, []model.HistoricalRecord{
			rec("kohli", "m3", day(9), 70),
			rec("kohli", "m1", day(1), 45),
			rec("bumrah", "m2", day(5), 60),
			rec("kohli", "m4", day(12), 30),
		}), ShouldBeNil)

		Convey("When queried with a cutoff", func() {
			hist, err := store.Before(ctx, day(9))
			So(err, ShouldBeNil)

			Convey("Then only strictly earlier rows are returned, in date order", func() {
				So(hist, ShouldHaveLength, 2)
				So(hist[0].MatchID, ShouldEqual, "m1")
				So(hist[1].MatchID, ShouldEqual, "m2")
			})
		})

		Convey("When the cutoff precedes all history", func() {
			hist, err := store.Before(ctx, day(1))
			So(err, ShouldBeNil)
			So(hist, ShouldBeEmpty)
		})
	})
}

func TestMemoryStoreClose(t *testing.T) {
	ctx := context.Background()

	Convey("Given a closed store", t, func() {
		store := repository.NewMemoryStore()
		So(store.Close(), ShouldBeNil)

		Convey("Then every operation reports the closed state", func() {
			So(errors.Is(store.Append(ctx, rec("kohli", "m1", day(1), 45)), repository.ErrClosed), ShouldBeTrue)
			_, err := store.Before(ctx, day(2))
			So(errors.Is(err, repository.ErrClosed), ShouldBeTrue)
			_, err = store.RowCount(ctx)
			So(errors.Is(err, repository.ErrClosed), ShouldBeTrue)
		})
	})
}
