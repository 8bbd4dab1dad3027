package batch

import (
	"crypto/rand"
	"image"
	"log/slog"
	"math/big"
	"sync"

	"taggerd/internal/gate"
	"taggerd/internal/logging"
	"taggerd/internal/tagger"
)

const queueNameAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
const queueNameLength = 8

// Item is one queued interrogation: which model to run, the decoded image
// (plus its raw bytes for content hashing), and the tag threshold applied
// to its result.
type Item struct {
	Model     string
	Raw       []byte
	Image     image.Image
	Threshold float64

	name  string
	entry *Entry
}

// Recorder receives completed interrogations, e.g. for the history store.
// Implementations must tolerate being called from the batch runner
// goroutine.
type Recorder interface {
	Record(queue, name, model string, res tagger.Result)
}

// Manager owns the named queues and their batch runners.
type Manager struct {
	registry *tagger.Registry
	gate     *gate.Gate
	store    *ResultStore
	recorder Recorder
	logger   *slog.Logger

	mu     sync.Mutex
	queues map[string]*queueState
}

type queueState struct {
	items []*Item
	// running marks the live batch runner; cleared when the runner exits.
	running bool
}

// NewManager wires a queue manager to the shared registry, inference gate,
// and result store. recorder may be nil.
func NewManager(registry *tagger.Registry, g *gate.Gate, store *ResultStore, recorder Recorder, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{
		registry: registry,
		gate:     g,
		store:    store,
		recorder: recorder,
		logger:   logger.With(logging.String("component", "batch")),
		queues:   make(map[string]*queueState),
	}
}

// Store exposes the result store backing this manager.
func (m *Manager) Store() *ResultStore { return m.store }

// Enqueue resolves the item's logical name, reserves it, and appends the
// item to the named queue, starting a batch runner if none is active. The
// returned entry resolves when the item's batch completes.
//
// When the name resolution short-circuits to an existing entry (content
// hash resubmission, or a completed plain name), the item is not enqueued
// and the existing entry is returned with enqueued == false.
func (m *Manager) Enqueue(queueName, rawName string, item Item) (entry *Entry, enqueued bool) {
	entry, existing := m.store.Resolve(queueName, rawName, item.Raw)
	if existing {
		m.logger.Debug("dedup hit",
			logging.String("queue", queueName),
			logging.String("name", entry.Name()))
		return entry, false
	}

	item.name = entry.Name()
	item.entry = entry

	m.mu.Lock()
	qs := m.queues[queueName]
	if qs == nil {
		qs = &queueState{}
		m.queues[queueName] = qs
	}
	qs.items = append(qs.items, &item)
	start := !qs.running
	if start {
		qs.running = true
	}
	m.mu.Unlock()

	if start {
		go m.runQueue(queueName)
	}
	return entry, true
}

// GenerateQueueName draws 8-character uppercase alphanumeric names until
// one not currently in use is found.
func (m *Manager) GenerateQueueName() string {
	for {
		name := randomQueueName()
		m.mu.Lock()
		_, active := m.queues[name]
		m.mu.Unlock()
		if !active && !m.store.HasQueue(name) {
			return name
		}
	}
}

// Running returns the names of queues with an active batch runner.
func (m *Manager) Running() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.queues))
	for name, qs := range m.queues {
		if qs.running {
			names = append(names, name)
		}
	}
	return names
}

func randomQueueName() string {
	buf := make([]byte, queueNameLength)
	maxIdx := big.NewInt(int64(len(queueNameAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, maxIdx)
		if err != nil {
			// crypto/rand failures are not recoverable here.
			panic(err)
		}
		buf[i] = queueNameAlphabet[n.Int64()]
	}
	return string(buf)
}
