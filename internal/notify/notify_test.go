package notify_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jonesrussell/north-cloud/newswatch/internal/domain"
	"github.com/jonesrussell/north-cloud/newswatch/internal/logger"
	"github.com/jonesrussell/north-cloud/newswatch/internal/metrics"
	"github.com/jonesrussell/north-cloud/newswatch/internal/notify"
	"github.com/jonesrussell/north-cloud/newswatch/internal/notify/mocks"
)

var (
	articleA = domain.Article{ID: 1, Title: "Preso em flagrante", Link: "https://x.test/a", Source: "CM7"}
	articleB = domain.Article{ID: 2, Title: "Operação policial", Link: "https://x.test/b", Source: "CM7"}
)

func TestDispatcher_FailingSinkDoesNotStopOthers(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	flaky := mocks.NewMockNotifier(ctrl)
	steady := mocks.NewMockNotifier(ctrl)

	flaky.EXPECT().Name().Return("flaky").AnyTimes()
	steady.EXPECT().Name().Return("steady").AnyTimes()

	gomock.InOrder(
		flaky.EXPECT().Notify(gomock.Any(), articleA).Return(errors.New("timeout")),
		steady.EXPECT().Notify(gomock.Any(), articleA).Return(nil),
		flaky.EXPECT().Notify(gomock.Any(), articleB).Return(nil),
		steady.EXPECT().Notify(gomock.Any(), articleB).Return(nil),
	)

	d := notify.NewDispatcher(logger.NewNop(), nil, flaky, steady)

	delivered := d.Dispatch(context.Background(), []domain.Article{articleA, articleB})
	assert.Equal(t, 2, delivered)
	assert.Equal(t, []string{"flaky", "steady"}, d.Sinks())
}

type sinkCounts struct {
	metrics.Nop
	sent, failed map[string]int
}

func newSinkCounts() *sinkCounts {
	return &sinkCounts{sent: map[string]int{}, failed: map[string]int{}}
}

func (c *sinkCounts) NotificationSent(sink string)   { c.sent[sink]++ }
func (c *sinkCounts) NotificationFailed(sink string) { c.failed[sink]++ }

func TestDispatcher_PanickingSinkIsContained(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	broken := mocks.NewMockNotifier(ctrl)
	broken.EXPECT().Name().Return("broken").AnyTimes()
	broken.EXPECT().Notify(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, domain.Article) error { panic("sink exploded") }).
		Times(2)

	core, logs := observer.New(zapcore.WarnLevel)
	counts := newSinkCounts()
	d := notify.NewDispatcher(logger.NewFromZap(zap.New(core)), counts,
		broken, notify.NewLogNotifier(logger.NewNop()))

	var delivered int
	require.NotPanics(t, func() {
		delivered = d.Dispatch(context.Background(), []domain.Article{articleA, articleB})
	})

	assert.Equal(t, 2, delivered)
	assert.Equal(t, 2, counts.failed["broken"])
	assert.Equal(t, 2, counts.sent["log"])

	failures := logs.FilterMessage("Failed to deliver notification")
	require.Equal(t, 2, failures.Len())
	assert.Contains(t, failures.All()[0].ContextMap()["error"], "sink exploded")
}

func TestDispatcher_AllSinksFailing(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	sink := mocks.NewMockNotifier(ctrl)
	sink.EXPECT().Name().Return("broken").AnyTimes()
	sink.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(errors.New("down")).Times(2)

	core, logs := observer.New(zapcore.WarnLevel)
	d := notify.NewDispatcher(logger.NewFromZap(zap.New(core)), nil, sink)

	delivered := d.Dispatch(context.Background(), []domain.Article{articleA, articleB})
	assert.Equal(t, 0, delivered)
	require.Equal(t, 2, logs.FilterMessage("Failed to deliver notification").Len())

	errField := logs.All()[0].ContextMap()["error"]
	assert.Contains(t, errField, notify.ErrNotificationFailure.Error())
}

func TestDispatcher_StopsWhenCancelled(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	sink := mocks.NewMockNotifier(ctrl)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := notify.NewDispatcher(logger.NewNop(), nil, sink)
	assert.Equal(t, 0, d.Dispatch(ctx, []domain.Article{articleA}))
}

func TestLogNotifier(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	n := notify.NewLogNotifier(logger.NewFromZap(zap.New(core)))

	require.NoError(t, n.Notify(context.Background(), articleA))
	assert.Equal(t, "log", n.Name())

	entries := logs.FilterMessage(notify.NotificationTitle).All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "Preso em flagrante", fields["title"])
	assert.Equal(t, "https://x.test/a", fields["link"])
}

func TestFormatMessage(t *testing.T) {
	t.Parallel()

	assert.Equal(t,
		"📰 Nova Notícia!\nPreso em flagrante\nhttps://x.test/a",
		notify.FormatMessage(articleA),
	)
}
