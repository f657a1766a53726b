package kafka

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	kafkago "github.com/segmentio/kafka-go"

	"dva-report-service-golang/internal/logging"
)

var (
	errNoBrokers = errors.New("kafka broker list is empty")
	errNoTopic   = errors.New("topic is required")
)

// Pool hands out one shared writer per topic. Writers belong to the pool;
// callers close the pool, never a writer.
type Pool struct {
	brokers    []string
	autoCreate bool

	mu      sync.Mutex
	writers map[string]*kafkago.Writer
	closed  bool
}

func NewPool(brokers []string, autoCreate bool) (*Pool, error) {
	var clean []string
	for _, b := range brokers {
		if b = strings.TrimSpace(b); b != "" {
			clean = append(clean, b)
		}
	}
	if len(clean) == 0 {
		return nil, errNoBrokers
	}
	return &Pool{
		brokers:    clean,
		autoCreate: autoCreate,
		writers:    make(map[string]*kafkago.Writer),
	}, nil
}

// Writer returns the pool's writer for topic, creating it (and, with
// auto-create on, the topic) on first use.
func (p *Pool) Writer(topic string) (*kafkago.Writer, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, errNoTopic
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, errors.New("writer pool closed")
	}
	if w, ok := p.writers[topic]; ok {
		return w, nil
	}

	if p.autoCreate {
		p.ensureTopic(topic, 1)
	}
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(p.brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: p.autoCreate,
	}
	p.writers[topic] = w
	return w, nil
}

// Close flushes and closes every writer. Later calls to Writer fail.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true

	var errs []error
	for topic, w := range p.writers {
		if err := w.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close writer %s: %w", topic, err))
		}
		delete(p.writers, topic)
	}
	return errors.Join(errs...)
}

// ensureTopic asks the cluster controller to create topic. Failures are
// only logged; the writer still relies on broker-side auto creation.
func (p *Pool) ensureTopic(topic string, partitions int) {
	conn, err := kafkago.Dial("tcp", p.brokers[0])
	if err != nil {
		logging.Logger.Warnf("[Kafka] auto-create skipped, dial %s failed: %v", p.brokers[0], err)
		return
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		logging.Logger.Warnf("[Kafka] controller lookup failed: %v", err)
		return
	}
	ctrl, err := kafkago.Dial("tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	if err != nil {
		logging.Logger.Warnf("[Kafka] controller dial failed: %v", err)
		return
	}
	defer ctrl.Close()

	err = ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     partitions,
		ReplicationFactor: 1,
	})
	switch {
	case err == nil:
		logging.Logger.Infof("[Kafka] ensured topic: %s", topic)
	case errors.Is(err, kafkago.TopicAlreadyExists):
	default:
		logging.Logger.Warnf("[Kafka] could not create topic %q: %v", topic, err)
	}
}
