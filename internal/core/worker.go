package core

import (
	"context"
	"time"
)

const roomQueueSize = 128

type roomTask struct {
	client *Client
	cmd    *Command
}

// roomWorker is the single serialization point for one stream's mutations.
type roomWorker struct {
	streamID string
	queue    chan roomTask
	done     chan struct{}
	pending  int // guarded by Hub.mu
}

// enqueue hands cmd to the room's worker, starting one if needed. Blocks only
// while that room's queue is full.
func (h *Hub) enqueue(c *Client, cmd *Command) {
	h.mu.Lock()
	w := h.workers[cmd.Room]
	if w == nil {
		if h.ctx.Err() != nil {
			h.mu.Unlock()
			return
		}
		w = &roomWorker{
			streamID: cmd.Room,
			queue:    make(chan roomTask, roomQueueSize),
			done:     make(chan struct{}),
		}
		h.workers[cmd.Room] = w
		h.wg.Add(1)
		go h.runWorker(h.ctx, w)
	}
	w.pending++
	h.mu.Unlock()

	select {
	case w.queue <- roomTask{client: c, cmd: cmd}:
	case <-w.done:
	}
}

func (h *Hub) runWorker(ctx context.Context, w *roomWorker) {
	defer h.wg.Done()
	defer close(w.done)

	h.metrics.RoomStarted()
	defer h.metrics.RoomStopped()

	timer := time.NewTimer(h.idleTimeout)
	defer timer.Stop()

	for {
		select {
		case task := <-w.queue:
			h.handle(ctx, task.client, task.cmd)

			h.mu.Lock()
			w.pending--
			h.mu.Unlock()
			timer.Reset(h.idleTimeout)

		case <-timer.C:
			h.mu.Lock()
			if w.pending == 0 {
				delete(h.workers, w.streamID)
				h.mu.Unlock()
				return
			}
			h.mu.Unlock()
			timer.Reset(h.idleTimeout)

		case <-ctx.Done():
			h.mu.Lock()
			if h.workers[w.streamID] == w {
				delete(h.workers, w.streamID)
			}
			h.mu.Unlock()
			return
		}
	}
}

// activeWorkers reports how many room workers are running.
func (h *Hub) activeWorkers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.workers)
}
