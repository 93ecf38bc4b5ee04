package writer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	audit "audittrail/pkg/platform/audit"
	"audittrail/pkg/platform/audit/integrity"
	"audittrail/pkg/platform/audit/writer/mocks"
)

type WriterSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	store    *mocks.MockStore
	observer *mocks.MockObserver
	metrics  *Metrics
	writer   *Writer
}

func TestWriterSuite(t *testing.T) {
	suite.Run(t, new(WriterSuite))
}

func (s *WriterSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.store = mocks.NewMockStore(s.ctrl)
	s.observer = mocks.NewMockObserver(s.ctrl)
	s.metrics = NewMetrics(prometheus.NewRegistry())
	w, err := New(s.store,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMetrics(s.metrics),
		WithObserver(s.observer),
	)
	s.Require().NoError(err)
	s.writer = w
}

func (s *WriterSuite) TearDownTest() {
	s.ctrl.Finish()
}

func themeUpdate() audit.EventRecord {
	return audit.EventRecord{
		OccurredAt: time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC),
		SiteScope:  audit.DefaultSiteScope,
		Actor:      audit.Actor{UserID: 3},
		SensorID:   audit.SensorThemeUpdate,
		ObjectType: audit.ObjectTheme,
		ObjectID:   "theme-x",
		Changes:    []audit.ChangeRecord{{Key: "Version", NewValue: "1.1", PriorValue: "1.0"}},
	}
}

func (s *WriterSuite) TestNew() {
	s.Run("nil store returns error", func() {
		_, err := New(nil)
		s.Error(err)
		s.Contains(err.Error(), "store is required")
	})
}

func (s *WriterSuite) TestCommit() {
	s.Run("persists with head then announces with id", func() {
		rec := themeUpdate()
		expectedHead, err := integrity.Head(rec)
		s.Require().NoError(err)

		gomock.InOrder(
			s.store.EXPECT().Persist(gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, r audit.EventRecord) (int64, error) {
					s.Equal(int64(0), r.ID)
					s.Equal(expectedHead, r.IntegrityHead)
					s.Empty(r.IntegrityFull)
					return 42, nil
				}),
			s.observer.EXPECT().Announce(gomock.Any(), gomock.Any()).
				Do(func(_ context.Context, r audit.EventRecord) {
					s.Equal(int64(42), r.ID)
					s.Equal(expectedHead, r.IntegrityHead)
				}).Times(1),
		)

		res := s.writer.Commit(context.Background(), rec)
		s.True(res.Success)
		s.Equal(int64(42), res.ID)
		s.Equal(1.0, testutil.ToFloat64(s.metrics.Commits.WithLabelValues("30", "success")))
	})

	s.Run("store failure is reported and nothing is announced", func() {
		s.store.EXPECT().Persist(gomock.Any(), gomock.Any()).Return(int64(0), errors.New("db down"))

		res := s.writer.Commit(context.Background(), themeUpdate())
		s.False(res.Success)
		s.Zero(res.ID)
		s.Equal(1.0, testutil.ToFloat64(s.metrics.Commits.WithLabelValues("30", "failure")))
	})

	s.Run("store returning no id is a failure", func() {
		s.store.EXPECT().Persist(gomock.Any(), gomock.Any()).Return(int64(0), nil)

		res := s.writer.Commit(context.Background(), themeUpdate())
		s.False(res.Success)
	})

	s.Run("unencodable change fails before reaching the store", func() {
		rec := themeUpdate()
		rec.Changes = append(rec.Changes, audit.ChangeRecord{Key: "bad", NewValue: make(chan int)})

		res := s.writer.Commit(context.Background(), rec)
		s.False(res.Success)
	})
}

func (s *WriterSuite) TestCommit_ObserverPanicDoesNotEscape() {
	w, err := New(s.store, WithObserver(ObserverFunc(func(context.Context, audit.EventRecord) {
		panic("boom")
	})), WithObserver(s.observer))
	s.Require().NoError(err)

	s.store.EXPECT().Persist(gomock.Any(), gomock.Any()).Return(int64(1), nil)
	s.observer.EXPECT().Announce(gomock.Any(), gomock.Any()).Times(1)

	s.NotPanics(func() {
		res := w.Commit(context.Background(), themeUpdate())
		s.True(res.Success)
	})
}

func (s *WriterSuite) TestCommit_NilMetricsAreIgnored() {
	w, err := New(s.store)
	s.Require().NoError(err)
	s.store.EXPECT().Persist(gomock.Any(), gomock.Any()).Return(int64(5), nil)

	res := w.Commit(context.Background(), themeUpdate())
	s.True(res.Success)
	s.Equal(int64(5), res.ID)
}
