package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benjmor/tabroom-auto-summarize/internal/adapters/repository"
	service "github.com/benjmor/tabroom-auto-summarize/internal/app"
	"github.com/benjmor/tabroom-auto-summarize/internal/domain/model"
	"github.com/benjmor/tabroom-auto-summarize/internal/domain/normalize"
	"github.com/benjmor/tabroom-auto-summarize/internal/domain/types"
	"github.com/benjmor/tabroom-auto-summarize/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	goleak.VerifyTestMain(m)
}

const feed = `{
  "id": 31001, "name": "%s",
  "categories": [{"name": "Debate", "events": [
    {"name": "PF", "type": "debate", "rounds": [
      {"name": 1, "type": "prelim", "sections": [{"letter": "A", "ballots": [
        {"entry": 1, "entry_name": "A", "entry_code": "Whitefish Bay AA", "scores": [{"tag": "winloss", "value": 1}]},
        {"entry": 2, "entry_name": "B", "entry_code": "Madison West BB", "scores": [{"tag": "winloss", "value": 0}]}
      ]}]}
    ]}
  ]}]
}`

func tournament(name string) *model.Tournament {
	var t model.Tournament
	if err := json.Unmarshal([]byte(fmt.Sprintf(feed, name)), &t); err != nil {
		panic(err)
	}
	return &t
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

func newService(opts ...service.Option) *service.Service {
	var seq atomic.Int64
	base := []service.Option{
		service.WithWorkerCount(2),
		service.WithQueueSize(16),
		service.WithLogger(logger.Nop()),
		service.WithIDGenerator(func() string { return fmt.Sprintf("run-%d", seq.Add(1)) }),
	}
	return service.New(append(base, opts...)...)
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := newService()
		ctx := context.Background()

		Convey("When it is not started", func() {
			_, err := svc.Submit(ctx, tournament("Early Bird"), model.ScrapedData{})
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)

			_, err = svc.Run(ctx, "run-1")
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)

			So(svc.GetStats()["started"], ShouldBeFalse)
			svc.Stop()
		})

		Convey("When it is started twice and stopped twice", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)
			stats := svc.GetStats()
			So(stats["started"], ShouldBeTrue)
			So(stats["workerCount"], ShouldEqual, 2)
			So(stats["runs"], ShouldEqual, 0)
			svc.Stop()
			svc.Stop()
			So(svc.GetStats()["started"], ShouldBeFalse)
		})

		Convey("When the store driver is unknown", func() {
			bad := newService(service.WithStoreDriver("postgres", ""))
			err := bad.Start(ctx)
			So(errors.Is(err, repository.ErrUnknownDriver), ShouldBeTrue)
		})
	})
}

func TestService_Submit(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := newService()
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When a tournament is submitted", func() {
			accepted, err := svc.Submit(ctx, tournament("Badger Invitational"), model.ScrapedData{})
			So(err, ShouldBeNil)
			So(accepted.Status, ShouldEqual, types.StatusAccepted)
			So(accepted.Duplicate, ShouldBeFalse)

			ok := waitFor(func() bool {
				run, err := svc.Run(ctx, accepted.JobID)
				return err == nil && run.Status.Done()
			})
			So(ok, ShouldBeTrue)

			run, err := svc.Run(ctx, accepted.JobID)
			So(err, ShouldBeNil)
			So(run.Status, ShouldEqual, model.RunSucceeded)
			So(run.Tournament, ShouldEqual, "Badger Invitational")
			So(run.Outcome, ShouldNotBeNil)
			So(run.Outcome.HasDebate, ShouldBeTrue)

			Convey("Then results can be filtered", func() {
				all, err := svc.Results(ctx, accepted.JobID, types.ResultFilter{})
				So(err, ShouldBeNil)
				So(all, ShouldHaveLength, 2)

				none, err := svc.Results(ctx, accepted.JobID, types.ResultFilter{School: "Nowhere High"})
				So(err, ShouldBeNil)
				So(none, ShouldBeEmpty)
			})

			Convey("Then the run is listed", func() {
				list, err := svc.Runs(ctx, 10)
				So(err, ShouldBeNil)
				So(list.Total, ShouldEqual, 1)
				So(list.Runs, ShouldHaveLength, 1)
				So(list.Runs[0].ID, ShouldEqual, accepted.JobID)
			})

			Convey("Then resubmitting the same payload is a duplicate", func() {
				again, err := svc.Submit(ctx, tournament("Badger Invitational"), model.ScrapedData{})
				So(err, ShouldBeNil)
				So(again.Duplicate, ShouldBeTrue)
				So(again.Status, ShouldEqual, types.StatusDuplicate)
				So(again.JobID, ShouldEqual, accepted.JobID)
				So(svc.GetStats()["duplicates"], ShouldEqual, int64(1))
			})

			Convey("Then a different payload gets a new run", func() {
				other, err := svc.Submit(ctx, tournament("Cardinal Classic"), model.ScrapedData{})
				So(err, ShouldBeNil)
				So(other.JobID, ShouldNotEqual, accepted.JobID)
			})
		})

		Convey("When a nil tournament is submitted", func() {
			_, err := svc.Submit(ctx, nil, model.ScrapedData{})
			So(errors.Is(err, normalize.ErrNilTournament), ShouldBeTrue)
		})

		Convey("When an unknown run is requested", func() {
			_, err := svc.Run(ctx, "missing")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestService_NotReady(t *testing.T) {
	Convey("Given a store holding a queued run", t, func() {
		ctx := context.Background()
		st, err := repository.Open(ctx, repository.DriverMemory, "")
		So(err, ShouldBeNil)
		now := time.Unix(1_800_000_000, 0)
		So(st.Save(ctx, model.Run{ID: "pending", Status: model.RunQueued, Created: now, Updated: now}), ShouldBeNil)

		svc := newService(service.WithStore(st))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		_, err = svc.Results(ctx, "pending", types.ResultFilter{})
		So(errors.Is(err, service.ErrRunNotReady), ShouldBeTrue)
	})
}

func TestService_NormalizeNow(t *testing.T) {
	Convey("Given a service that was never started", t, func() {
		svc := newService(service.WithEngineOptions(normalize.WithSubstituteFullNames(false)))

		Convey("Then inline normalization still works", func() {
			out, err := svc.NormalizeNow(context.Background(), tournament("Walk-in"), model.ScrapedData{})
			So(err, ShouldBeNil)
			So(out.Results, ShouldHaveLength, 2)
			So(out.Stats.Events, ShouldEqual, 1)
		})

		Convey("Then short names are available", func() {
			So(svc.ShortName("Whitefish Bay High School"), ShouldEqual, "Whitefish Bay")
		})
	})
}

func TestContentKey(t *testing.T) {
	Convey("Given two payloads", t, func() {
		a, err := service.ContentKey(tournament("A"), model.ScrapedData{})
		So(err, ShouldBeNil)
		b, err := service.ContentKey(tournament("A"), model.ScrapedData{})
		So(err, ShouldBeNil)
		c, err := service.ContentKey(tournament("A"), model.ScrapedData{NameToFullName: map[string]string{"x": "y"}})
		So(err, ShouldBeNil)

		So(a, ShouldEqual, b)
		So(a, ShouldNotEqual, c)
		So(len(a), ShouldEqual, 64)
		So(strings.Trim(a, "0123456789abcdef"), ShouldBeEmpty)
	})
}
