package notify

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jpx_compliance/internal/alerts"
)

type published struct {
	subject string
	data    []byte
}

type fakeConn struct {
	msgs       []published
	flushes    int
	publishErr error
	closed     bool
}

func (f *fakeConn) Publish(subj string, data []byte) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.msgs = append(f.msgs, published{subject: subj, data: data})
	return nil
}

func (f *fakeConn) FlushWithContext(ctx context.Context) error {
	f.flushes++
	return nil
}

func (f *fakeConn) Close() { f.closed = true }

func sampleAlerts() []alerts.Triggered {
	return []alerts.Triggered{
		{ID: "alert-curfew-violations-a", RuleID: "curfew-violations", Priority: alerts.Warning, Timestamp: "2025-06-14T22:00:00"},
		{ID: "alert-high-species-impact-a", RuleID: "high-species-impact", Priority: alerts.Critical, Timestamp: "2025-06-14T22:00:00"},
		{ID: "alert-hourly-volume-2025-06-14-10", RuleID: "hourly-volume", Priority: alerts.Info, Acknowledged: true},
	}
}

func TestPublishAlerts(t *testing.T) {
	fc := &fakeConn{}
	p := newPublisher(fc, "")

	n, err := p.PublishAlerts(context.Background(), sampleAlerts())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, fc.flushes)

	require.Len(t, fc.msgs, 2)
	assert.Equal(t, "jpx.alerts.warning", fc.msgs[0].subject)
	assert.Equal(t, "jpx.alerts.critical", fc.msgs[1].subject)

	var got alerts.Triggered
	require.NoError(t, json.Unmarshal(fc.msgs[1].data, &got))
	assert.Equal(t, "alert-high-species-impact-a", got.ID)

	p.Close()
	assert.True(t, fc.closed)
}

func TestPublishNothing(t *testing.T) {
	fc := &fakeConn{}
	p := newPublisher(fc, "east")

	n, err := p.PublishAlerts(context.Background(), sampleAlerts()[2:])
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Zero(t, fc.flushes)
}

func TestPublishErrors(t *testing.T) {
	fc := &fakeConn{publishErr: errors.New("down")}
	p := newPublisher(fc, "east")
	_, err := p.PublishAlerts(context.Background(), sampleAlerts())
	assert.ErrorContains(t, err, "down")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = newPublisher(&fakeConn{}, "east").PublishAlerts(ctx, sampleAlerts())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSubject(t *testing.T) {
	p := newPublisher(&fakeConn{}, "ops.jpx")
	assert.Equal(t, "ops.jpx.info", p.Subject(&alerts.Triggered{Priority: alerts.Info}))
}

func TestNATSRoundTrip(t *testing.T) {
	url := os.Getenv("NATS_URL")
	if url == "" {
		url = nats.DefaultURL
	}
	p, err := Connect(url, "jpx-test")
	if err != nil {
		t.Skip("No NATS connection available")
	}
	defer p.Close()

	sub, err := nats.Connect(url)
	require.NoError(t, err)
	defer sub.Close()
	ch := make(chan *nats.Msg, 4)
	s, err := sub.ChanSubscribe("jpx-test.>", ch)
	require.NoError(t, err)
	defer s.Unsubscribe()
	require.NoError(t, sub.Flush())

	n, err := p.PublishAlerts(context.Background(), sampleAlerts())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	select {
	case msg := <-ch:
		assert.Equal(t, "jpx-test.warning", msg.Subject)
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}
}
