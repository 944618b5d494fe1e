package worker // import "github.com/mangashelf/mangashelf/worker"

import (
	"context"

	"github.com/mangashelf/mangashelf/heal"
	"github.com/mangashelf/mangashelf/log"
	"github.com/mangashelf/mangashelf/model"
	"go.uber.org/zap"
)

// HealPool runs background workers that repair books noticed to be
// inconsistent while serving reads.
type HealPool struct {
	queue chan *model.Book
}

// NewHealPool creates a pool of background heal workers.
func NewHealPool(healer *heal.Healer, size int) *HealPool {
	pool := &HealPool{
		queue: make(chan *model.Book, 128),
	}

	for i := 0; i < size; i++ {
		worker := &HealWorker{id: i, healer: healer}
		go worker.Run(pool.queue)
	}
	return pool
}

// Push schedules a background heal. The queue is best effort: when it is
// full the book is dropped and picked up by the next sweep instead.
func (p *HealPool) Push(book *model.Book) {
	select {
	case p.queue <- book:
	default:
		log.Debug("Heal queue is full, dropping book", zap.Int("book_id", book.ID))
	}
}

type HealWorker struct {
	id     int
	healer *heal.Healer
}

func (w *HealWorker) Run(c <-chan *model.Book) {
	log.Debug("HealWorker is running", zap.Int("worker_id", w.id))

	for book := range c {
		_, fixed, err := w.healer.Book(context.Background(), book)
		if err != nil {
			log.Warn("Background heal failed",
				zap.Int("worker_id", w.id),
				zap.Int("book_id", book.ID),
				zap.Error(err))
			continue
		}
		if fixed {
			log.Info("Background heal fixed book",
				zap.Int("worker_id", w.id),
				zap.Int("book_id", book.ID))
		}
	}
}
