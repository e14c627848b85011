package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/avelkine/edushelf/internal/appstate"
)

// PrefetchDetailTask fetches a favorited work's description in the
// background so the detail view is warm when the user opens it.
type PrefetchDetailTask struct {
	Key string `json:"key"`
}

// Config returns the queue configuration for detail prefetch tasks.
func (t PrefetchDetailTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "prefetch_detail",
		MaxAttempts: 3,
		Backoff:     30 * time.Second,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// NewPrefetchDetailQueue creates the queue; the processor settles the fetch
// into the state store so any client sees the warmed detail slice.
func NewPrefetchDetailQueue(store *appstate.Store) backlite.Queue {
	return backlite.NewQueue(func(ctx context.Context, task PrefetchDetailTask) error {
		if err := store.FetchDetailWait(ctx, task.Key); err != nil {
			return fmt.Errorf("prefetch detail %s: %w", task.Key, err)
		}
		log.Printf("[TASK] Prefetched detail for %s", task.Key)
		return nil
	})
}

// Prefetcher adapts the client to the HTTP layer's enqueue interface.
type Prefetcher struct {
	client *Client
}

func NewPrefetcher(client *Client) *Prefetcher {
	return &Prefetcher{client: client}
}

// PrefetchDetail enqueues a background description fetch.
func (p *Prefetcher) PrefetchDetail(key string) error {
	_, err := p.client.Add(PrefetchDetailTask{Key: key}).Save()
	return err
}
