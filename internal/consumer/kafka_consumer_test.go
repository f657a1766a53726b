package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dva-report-service-golang/internal/cvss"
	"dva-report-service-golang/internal/events"
)

type fakeWriter struct {
	mu        sync.Mutex
	msgs      []kafka.Message
	err       error
	failFirst int
	calls     int
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return f.err
	}
	if f.calls <= f.failFirst {
		return errors.New("leader not available")
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

type fakeReader struct {
	msgs      []kafka.Message
	committed []kafka.Message
	cancel    context.CancelFunc
	closed    bool
}

func (f *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if len(f.msgs) == 0 {
		f.cancel()
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	m := f.msgs[0]
	f.msgs = f.msgs[1:]
	return m, nil
}

func (f *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	f.committed = append(f.committed, msgs...)
	return nil
}

func (f *fakeReader) Close() error {
	f.closed = true
	return nil
}

func mustJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func decodeScored(t *testing.T, m kafka.Message) (events.Envelope, FindingScoredPayload) {
	t.Helper()
	var env struct {
		events.Envelope
		Data FindingScoredPayload `json:"data"`
	}
	require.NoError(t, json.Unmarshal(m.Value, &env))
	return env.Envelope, env.Data
}

func TestHandleScoresMetrics(t *testing.T) {
	out, dlq := &fakeWriter{}, &fakeWriter{}
	w := &Worker{out: out, dlq: dlq}

	evt := FindingEvent{
		FindingID: "F-12",
		Project:   "acme-webapp",
		Title:     "SQL Injection",
		Metrics:   cvss.Selection{"AV": "N", "AC": "L", "PR": "N", "UI": "N", "S": "U", "C": "H", "I": "H", "A": "H"},
	}
	require.NoError(t, w.handle(context.Background(), kafka.Message{Value: mustJSON(t, evt)}))

	require.Len(t, out.msgs, 1)
	assert.Empty(t, dlq.msgs)
	assert.Equal(t, "F-12", string(out.msgs[0].Key))

	env, payload := decodeScored(t, out.msgs[0])
	assert.Equal(t, events.TypeFindingScored, env.Type)
	assert.Equal(t, "acme-webapp", env.ProjectName)
	assert.Equal(t, 9.8, payload.Score)
	assert.Equal(t, "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H", payload.Vector)
	assert.Equal(t, "Critical", string(payload.Severity))
	assert.Equal(t, "SQL Injection", payload.Title)
}

func TestHandlePrefersVector(t *testing.T) {
	out, dlq := &fakeWriter{}, &fakeWriter{}
	w := &Worker{out: out, dlq: dlq}

	evt := FindingEvent{
		FindingID: "F-7",
		Metrics:   cvss.Selection{"AV": "N"},
		Vector:    "CVSS:3.0/AV:N/AC:L/PR:N/UI:R/S:C/C:L/I:L/A:N",
	}
	require.NoError(t, w.handle(context.Background(), kafka.Message{Value: mustJSON(t, evt)}))
	require.Len(t, out.msgs, 1)

	_, payload := decodeScored(t, out.msgs[0])
	assert.Equal(t, 6.1, payload.Score)
	assert.Equal(t, "CVSS:3.1/AV:N/AC:L/PR:N/UI:R/S:C/C:L/I:L/A:N", payload.Vector)
}

func TestHandleRoutesBadInputToDLQ(t *testing.T) {
	cases := map[string][]byte{
		"not json":         []byte("{oops"),
		"incomplete":       mustJSON(t, FindingEvent{FindingID: "F-1", Metrics: cvss.Selection{"AV": "N", "AC": "L"}}),
		"no cvss":          mustJSON(t, FindingEvent{FindingID: "F-2"}),
		"malformed vector": mustJSON(t, FindingEvent{FindingID: "F-3", Vector: "CVSS:3.1/AV:Z"}),
	}

	for name, value := range cases {
		t.Run(name, func(t *testing.T) {
			out, dlq := &fakeWriter{}, &fakeWriter{}
			w := &Worker{out: out, dlq: dlq}

			require.NoError(t, w.handle(context.Background(), kafka.Message{Key: []byte("k"), Value: value}))
			assert.Empty(t, out.msgs)
			require.Len(t, dlq.msgs, 1)

			var env struct {
				events.Envelope
				Data FindingFailedPayload `json:"data"`
			}
			require.NoError(t, json.Unmarshal(dlq.msgs[0].Value, &env))
			assert.Equal(t, events.TypeFindingFailed, env.Type)
			assert.Equal(t, 1, env.Version)
			assert.NotEmpty(t, env.ID)
			assert.Equal(t, "k", env.Data.Key)
			assert.Equal(t, string(value), env.Data.Value)
			assert.NotEmpty(t, env.Data.Error)
		})
	}
}

func TestHandleFailsWhenNothingPublishes(t *testing.T) {
	broken := &fakeWriter{err: errors.New("broker down")}
	w := &Worker{out: broken, dlq: broken}

	err := w.handle(context.Background(), kafka.Message{Value: []byte("{oops")})
	assert.ErrorContains(t, err, "broker down")
}

func TestRunCommitsHandledMessages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	good := mustJSON(t, FindingEvent{FindingID: "F-1", Vector: "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:N/I:N/A:N"})
	reader := &fakeReader{
		msgs:   []kafka.Message{{Offset: 1, Value: good}, {Offset: 2, Value: []byte("junk")}},
		cancel: cancel,
	}
	out, dlq := &fakeWriter{}, &fakeWriter{}
	w := &Worker{reader: reader, out: out, dlq: dlq}

	require.NoError(t, w.Run(ctx))
	assert.True(t, reader.closed)
	assert.Len(t, reader.committed, 2)
	assert.Len(t, out.msgs, 1)
	assert.Len(t, dlq.msgs, 1)

	_, payload := decodeScored(t, out.msgs[0])
	assert.Equal(t, 0.0, payload.Score)
	assert.Equal(t, "None", string(payload.Severity))
}

func TestHandleDLQCarriesProject(t *testing.T) {
	out, dlq := &fakeWriter{}, &fakeWriter{}
	w := &Worker{out: out, dlq: dlq}

	evt := FindingEvent{FindingID: "F-9", Project: "acme-webapp", Metrics: cvss.Selection{"AV": "N"}}
	require.NoError(t, w.handle(context.Background(), kafka.Message{Value: mustJSON(t, evt)}))
	require.Len(t, dlq.msgs, 1)

	var env events.Envelope
	require.NoError(t, json.Unmarshal(dlq.msgs[0].Value, &env))
	assert.Equal(t, "acme-webapp", env.ProjectName)
	assert.True(t, env.OccurredAt.Equal(dlq.msgs[0].Time))
}

func withHandleBackoff(t *testing.T, d time.Duration) {
	t.Helper()
	prev := handleBackoff
	handleBackoff = d
	t.Cleanup(func() { handleBackoff = prev })
}

func TestRunRetriesFailedMessageBeforeMovingOn(t *testing.T) {
	withHandleBackoff(t, time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first := mustJSON(t, FindingEvent{FindingID: "F-1", Vector: "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H"})
	second := mustJSON(t, FindingEvent{FindingID: "F-2", Vector: "CVSS:3.1/AV:P/AC:H/PR:H/UI:R/S:U/C:L/I:N/A:N"})
	reader := &fakeReader{
		msgs:   []kafka.Message{{Offset: 1, Value: first}, {Offset: 2, Value: second}},
		cancel: cancel,
	}
	// outlasts one handle call's publish attempts
	out := &fakeWriter{failFirst: publishAttempts + 1}
	w := &Worker{reader: reader, out: out, dlq: &fakeWriter{}}

	require.NoError(t, w.Run(ctx))

	require.Len(t, reader.committed, 2)
	assert.Equal(t, int64(1), reader.committed[0].Offset)
	assert.Equal(t, int64(2), reader.committed[1].Offset)
	require.Len(t, out.msgs, 2)
	assert.Equal(t, "F-1", string(out.msgs[0].Key))
	assert.Equal(t, "F-2", string(out.msgs[1].Key))
}

func TestRunStopsWithoutCommittingUnpublished(t *testing.T) {
	withHandleBackoff(t, time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 800*time.Millisecond)
	defer cancel()

	good := mustJSON(t, FindingEvent{FindingID: "F-1", Vector: "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H"})
	reader := &fakeReader{
		msgs:   []kafka.Message{{Offset: 1, Value: good}, {Offset: 2, Value: good}},
		cancel: cancel,
	}
	broken := &fakeWriter{err: errors.New("broker down")}
	w := &Worker{reader: reader, out: broken, dlq: broken}

	require.NoError(t, w.Run(ctx))
	assert.Empty(t, reader.committed)
	assert.Len(t, reader.msgs, 1, "second message never fetched")
	assert.True(t, reader.closed)
}

func TestWorkerCloseWithoutPool(t *testing.T) {
	assert.NoError(t, (&Worker{}).Close())
}
