package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"dva-report-service-golang/internal/cache"
	"dva-report-service-golang/internal/config"
	"dva-report-service-golang/internal/cvss"
	"dva-report-service-golang/internal/events"
	kafkautil "dva-report-service-golang/internal/kafka"
	"dva-report-service-golang/internal/logging"
	"dva-report-service-golang/internal/telemetry"
)

// FindingEvent is a report finding whose CVSS needs scoring. Vector wins
// over Metrics when both are set.
type FindingEvent struct {
	FindingID string         `json:"finding_id"`
	Project   string         `json:"project_name"`
	Title     string         `json:"title"`
	Metrics   cvss.Selection `json:"metrics,omitempty"`
	Vector    string         `json:"cvss_vector,omitempty"`
}

// FindingScoredPayload is the data of a finding.scored event.
type FindingScoredPayload struct {
	FindingID string        `json:"finding_id"`
	Project   string        `json:"project_name"`
	Title     string        `json:"title"`
	Score     float64       `json:"cvss_score"`
	Vector    string        `json:"cvss_vector"`
	Severity  cvss.Severity `json:"severity"`
	ScoredAt  time.Time     `json:"scored_at"`
}

var errIncompleteMetrics = errors.New("incomplete cvss metrics")

const (
	publishAttempts = 3
	fetchBackoff    = time.Second
	maxHandleDelay  = 30 * time.Second
)

// first delay before a failed message is handled again; doubles up to
// maxHandleDelay
var handleBackoff = time.Second

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Worker turns finding events into finding.scored events.
type Worker struct {
	reader messageReader
	out    messageWriter
	dlq    messageWriter
	scores *cache.ScoreCache
	pool   *kafkautil.Pool
}

// NewWorker wires a Worker to the configured topics. The worker owns its
// writer pool; Close releases it.
func NewWorker(cfg *config.Config, scores *cache.ScoreCache) (*Worker, error) {
	pool, err := kafkautil.NewPool(cfg.Brokers(), cfg.AutoCreateTopics)
	if err != nil {
		return nil, err
	}
	out, err := pool.Writer(kafkautil.TopicFindingScored)
	if err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("scored writer: %w", err)
	}
	dlq, err := pool.Writer(cfg.DLQTopic)
	if err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("dlq writer: %w", err)
	}
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers(),
		GroupID:  cfg.ConsumerGroup,
		Topic:    cfg.FindingTopic,
		MinBytes: 1e3,
		MaxBytes: 10e6,
	})
	return &Worker{reader: r, out: out, dlq: dlq, scores: scores, pool: pool}, nil
}

// Close flushes the worker's writers. Call it after Run returns.
func (w *Worker) Close() error {
	if w.pool == nil {
		return nil
	}
	return w.pool.Close()
}

// Run consumes until ctx is cancelled, then closes the reader.
func (w *Worker) Run(ctx context.Context) error {
	defer w.reader.Close()
	logging.Logger.Info("[Consumer] finding scoring worker started")

	for {
		m, err := w.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logging.Logger.Info("[Consumer] stopping")
				return nil
			}
			logging.Logger.Warnf("[Consumer] kafka fetch error: %v", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(fetchBackoff):
			}
			continue
		}

		// Commits are cumulative per partition, so a later commit would
		// skip this message. Keep retrying it instead of moving on.
		if !w.handleUntilDone(ctx, m) {
			logging.Logger.Infof("[Consumer] stopping, offset %d not committed", m.Offset)
			return nil
		}
		if err := w.reader.CommitMessages(ctx, m); err != nil {
			logging.Logger.Warnf("[Consumer] commit error: %v", err)
		}
	}
}

// handleUntilDone retries m with capped exponential backoff. It reports
// false only when ctx ends first.
func (w *Worker) handleUntilDone(ctx context.Context, m kafka.Message) bool {
	delay := handleBackoff
	for {
		err := w.handle(ctx, m)
		if err == nil {
			return true
		}
		if ctx.Err() != nil {
			return false
		}
		logging.Logger.Errorf("[Consumer] offset %d failed, retrying in %s: %v", m.Offset, delay, err)
		select {
		case <-ctx.Done():
			return false
		case <-time.After(delay):
		}
		if delay *= 2; delay > maxHandleDelay {
			delay = maxHandleDelay
		}
	}
}

// handle returns an error only when neither the result nor the DLQ
// record could be published.
func (w *Worker) handle(ctx context.Context, m kafka.Message) error {
	start := time.Now()

	var evt FindingEvent
	if err := json.Unmarshal(m.Value, &evt); err != nil {
		logging.Logger.Warnf("[Consumer] invalid finding payload: %v", err)
		telemetry.RecordFinding(ctx, "invalid")
		return w.publishDLQ(ctx, m, "", err)
	}

	payload, err := w.scoreFinding(ctx, evt)
	telemetry.RecordScore(ctx, "kafka", err == nil)
	if err != nil {
		logging.Logger.Warnf("[Consumer] finding %s not scored: %v", evt.FindingID, err)
		telemetry.RecordFinding(ctx, "rejected")
		return w.publishDLQ(ctx, m, evt.Project, err)
	}

	data, err := json.Marshal(events.NewEnvelope(events.TypeFindingScored, evt.Project, payload))
	if err != nil {
		return err
	}
	if err := w.publish(ctx, w.out, kafka.Message{Key: findingKey(evt, m), Value: data, Time: time.Now().UTC()}); err != nil {
		telemetry.RecordFinding(ctx, "publish_failed")
		return fmt.Errorf("publish finding.scored: %w", err)
	}

	telemetry.RecordFinding(ctx, "scored")
	logging.Logger.Infof("[Consumer] finding %s scored %.1f (%s) in %s",
		evt.FindingID, payload.Score, payload.Severity, time.Since(start))
	return nil
}

func (w *Worker) scoreFinding(ctx context.Context, evt FindingEvent) (FindingScoredPayload, error) {
	sel := evt.Metrics
	if v := strings.TrimSpace(evt.Vector); v != "" {
		parsed, err := cvss.ParseVector(v)
		if err != nil {
			return FindingScoredPayload{}, err
		}
		sel = parsed
	}

	res, ok := w.scores.Score(ctx, sel)
	if !ok {
		return FindingScoredPayload{}, fmt.Errorf("%w: missing %v", errIncompleteMetrics, sel.Missing())
	}
	return FindingScoredPayload{
		FindingID: evt.FindingID,
		Project:   evt.Project,
		Title:     evt.Title,
		Score:     res.Score,
		Vector:    res.Vector,
		Severity:  res.Severity,
		ScoredAt:  time.Now().UTC(),
	}, nil
}

// FindingFailedPayload is the data of a finding.failed event: the
// original message and why it could not be scored.
type FindingFailedPayload struct {
	Key   string `json:"key"`
	Value string `json:"value"`
	Error string `json:"error"`
}

func (w *Worker) publishDLQ(ctx context.Context, m kafka.Message, project string, cause error) error {
	env := events.NewEnvelope(events.TypeFindingFailed, project, FindingFailedPayload{
		Key:   string(m.Key),
		Value: string(m.Value),
		Error: cause.Error(),
	})
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	if err := w.publish(ctx, w.dlq, kafka.Message{Key: m.Key, Value: data, Time: env.OccurredAt}); err != nil {
		return fmt.Errorf("publish to DLQ: %w", err)
	}
	return nil
}

func (w *Worker) publish(ctx context.Context, to messageWriter, msg kafka.Message) error {
	var err error
	for attempt := 1; attempt <= publishAttempts; attempt++ {
		if err = to.WriteMessages(ctx, msg); err == nil {
			return nil
		}
		logging.Logger.Warnf("[Kafka] publish attempt %d failed: %v", attempt, err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * 100 * time.Millisecond):
		}
	}
	return err
}

func findingKey(evt FindingEvent, m kafka.Message) []byte {
	if evt.FindingID != "" {
		return []byte(evt.FindingID)
	}
	return m.Key
}
