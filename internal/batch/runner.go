package batch

import (
	"context"
	"fmt"
	"image"
	"time"

	"taggerd/internal/logging"
	"taggerd/internal/tagger"
)

// runQueue drains the named queue one snapshot at a time until no pending
// items remain, then clears the running marker and exits. Items that arrive
// while a snapshot is being processed form the next drain cycle, so every
// late arrival waits for the following batch rather than extending the one
// in flight.
func (m *Manager) runQueue(queueName string) {
	for {
		m.mu.Lock()
		qs := m.queues[queueName]
		if qs == nil || len(qs.items) == 0 {
			if qs != nil {
				qs.running = false
				delete(m.queues, queueName)
			}
			m.mu.Unlock()
			return
		}
		items := qs.items
		qs.items = nil
		m.mu.Unlock()

		m.processBatch(queueName, items)
	}
}

// processBatch evaluates one drained snapshot in FIFO order while holding
// the inference gate for the whole batch.
func (m *Manager) processBatch(queueName string, items []*Item) {
	started := time.Now()
	ctx := context.Background()

	if err := m.gate.Acquire(ctx); err != nil {
		m.failAll(items, err)
		return
	}
	defer m.gate.Release()

	if bulk, imgs, ok := m.bulkPath(items); ok {
		m.processBulk(queueName, bulk, items, imgs)
	} else {
		for _, item := range items {
			m.processOne(ctx, queueName, item)
		}
	}

	m.logger.Info("batch complete",
		logging.String("queue", queueName),
		logging.Int("items", len(items)),
		logging.Duration("elapsed", time.Since(started)))
}

// bulkPath reports whether the whole snapshot can go through the bulk
// capability: every item names the same model and that model declares
// BulkInterrogator.
func (m *Manager) bulkPath(items []*Item) (tagger.BulkInterrogator, []image.Image, bool) {
	if len(items) == 0 {
		return nil, nil, false
	}
	model := items[0].Model
	imgs := make([]image.Image, len(items))
	for i, item := range items {
		if item.Model != model {
			return nil, nil, false
		}
		imgs[i] = item.Image
	}
	in, err := m.registry.Get(model)
	if err != nil {
		return nil, nil, false
	}
	bulk, ok := in.(tagger.BulkInterrogator)
	if !ok {
		return nil, nil, false
	}
	return bulk, imgs, true
}

func (m *Manager) processBulk(queueName string, bulk tagger.BulkInterrogator, items []*Item, imgs []image.Image) {
	results, err := bulk.InterrogateBulk(context.Background(), imgs)
	if err != nil || len(results) != len(items) {
		if err == nil {
			err = fmt.Errorf("%w: bulk result count %d for %d items",
				tagger.ErrInferenceFailed, len(results), len(items))
		}
		m.failAll(items, err)
		return
	}
	for i, item := range items {
		m.finish(queueName, item, results[i])
	}
}

func (m *Manager) processOne(ctx context.Context, queueName string, item *Item) {
	in, err := m.registry.Get(item.Model)
	if err != nil {
		m.fail(queueName, item, err)
		return
	}
	res, err := in.Interrogate(ctx, item.Image)
	if err != nil {
		m.fail(queueName, item, err)
		return
	}
	m.finish(queueName, item, res)
}

func (m *Manager) finish(queueName string, item *Item, res tagger.Result) {
	res.Tags = tagger.FilterTags(res.Tags, item.Threshold)
	// Record before releasing the waiter so a client that immediately asks
	// for history sees its own entry.
	if m.recorder != nil {
		m.recorder.Record(queueName, item.name, item.Model, res)
	}
	item.entry.complete(res)
}

func (m *Manager) fail(queueName string, item *Item, err error) {
	m.logger.Warn("batch item failed",
		logging.String("queue", queueName),
		logging.String("name", item.name),
		logging.Error(err))
	item.entry.fail(err)
}

func (m *Manager) failAll(items []*Item, err error) {
	for _, item := range items {
		item.entry.fail(err)
	}
}
