package logger_test

import (
	"context"
	"testing"

	"github.com/okian/gully/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLogger(t *testing.T) {
	Convey("Given an initialized global logger", t, func() {
		So(logger.Init(), ShouldBeNil)

		Convey("When fetching the global logger", func() {
			l := logger.Get()
			So(l, ShouldNotBeNil)

			Convey("Then logging at every level should not panic", func() {
				ctx := context.Background()
				So(func() {
					l.Debug(ctx, "debug", logger.String("k", "v"))
					l.Info(ctx, "info", logger.Int("n", 1))
					l.Warn(ctx, "warn", logger.Float64("f", 1.5))
					l.Error(ctx, "error", logger.Error(nil))
				}, ShouldNotPanic)
			})
		})

		Convey("When deriving a named logger", func() {
			l := logger.Named("scoring")
			So(l, ShouldNotBeNil)
			So(func() { l.Info(context.Background(), "named") }, ShouldNotPanic)
		})

		Convey("When setting levels from strings", func() {
			So(logger.SetLevelString("debug"), ShouldBeNil)
			So(logger.SetLevelString("WARN"), ShouldBeNil)
			So(logger.SetLevelString(""), ShouldBeNil)
			So(logger.SetLevelString("verbose"), ShouldNotBeNil)
		})
	})
}
