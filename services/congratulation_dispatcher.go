package services

import (
	"context"
	"log"
	"sync"
	"time"

	"habitMasteryAPI/internal/congratulation"
	"habitMasteryAPI/internal/push"
)

type PushProvider interface {
	SendPush(ctx context.Context, tokens []push.DeviceToken, title, body string, data map[string]string) error
}

// CongratulationDispatcher delivers committed congratulation rows to the
// user's devices. Delivery is best-effort and happens outside the request
// transaction; the in-app row is already durable by the time a job is
// queued.
type CongratulationDispatcher struct {
	service      *CongratulationService
	pushProvider PushProvider
	workers      int
	jobQueue     chan *congratulation.Congratulation
	stopChan     chan struct{}
	wg           sync.WaitGroup
}

func NewCongratulationDispatcher(service *CongratulationService) *CongratulationDispatcher {
	dispatcher := &CongratulationDispatcher{
		service:  service,
		workers:  3,
		jobQueue: make(chan *congratulation.Congratulation, 100),
		stopChan: make(chan struct{}),
	}

	dispatcher.startWorkers()

	return dispatcher
}

func (d *CongratulationDispatcher) SetPushProvider(provider PushProvider) {
	d.pushProvider = provider
}

func (d *CongratulationDispatcher) startWorkers() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
}

func (d *CongratulationDispatcher) worker() {
	defer d.wg.Done()
	for {
		select {
		case c := <-d.jobQueue:
			d.processJob(c)
		case <-d.stopChan:
			return
		}
	}
}

func (d *CongratulationDispatcher) processJob(c *congratulation.Congratulation) {
	if d.pushProvider == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tokens, err := d.service.getDeviceTokens(ctx, c.UserID)
	if err != nil {
		log.Printf("Dispatcher: failed to load device tokens for user %s: %v", c.UserID, err)
		return
	}
	if len(tokens) == 0 {
		return
	}

	data := map[string]string{
		"congratulation_id": c.ID.String(),
		"type":              string(c.Type),
	}

	if err := d.pushProvider.SendPush(ctx, tokens, "Congratulations!", c.Message, data); err != nil {
		log.Printf("Dispatcher: push failed for user %s: %v", c.UserID, err)
	}
}

// Dispatch queues a congratulation for delivery. Drops the job when the
// queue stays full, in-app delivery already succeeded.
func (d *CongratulationDispatcher) Dispatch(c *congratulation.Congratulation) {
	select {
	case d.jobQueue <- c:
	case <-time.After(5 * time.Second):
		log.Printf("Dispatcher: failed to queue congratulation %s: queue full", c.ID)
	}
}

// Stop shuts the worker pool down.
func (d *CongratulationDispatcher) Stop() {
	close(d.stopChan)
	d.wg.Wait()
}
