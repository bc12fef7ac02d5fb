// Package actor implements the Broker Actor (C7): it owns clonable handles
// to the shared storage and downstream collaborators, receives typed
// command messages on a single channel, and dispatches each command's real
// work onto either its own task context ("local") or a background
// goroutine ("detached") per the command's LocalSpawn flag.
package actor

import (
	"context"
	"sync"

	"ichi-go/internal/applications/notifbroker/consumer"
	"ichi-go/internal/applications/notifbroker/dto"
	"ichi-go/internal/applications/notifbroker/keycache"
	"ichi-go/internal/applications/notifbroker/producer"
	"ichi-go/internal/applications/notifbroker/realtime"
	"ichi-go/internal/applications/notifbroker/store"
	brokerrabbitmq "ichi-go/internal/infra/broker/rabbitmq"
	"ichi-go/pkg/logger"
)

// command is the actor's internal mailbox envelope: a unit of work ready
// to run, already bound to whichever command struct the caller sent.
type command func()

// Actor is a process-wide singleton: init (via New) acquires pools and
// registers handlers; Shutdown tears it down gracefully.
type Actor struct {
	conn     *brokerrabbitmq.Connection
	cache    *keycache.Store
	realtime *realtime.Channel
	appender store.Appender

	mailbox chan command
	wg      sync.WaitGroup

	shutdownOnce sync.Once
	done         chan struct{}
}

// New constructs the actor and starts its local execution context — one
// goroutine draining mailbox in FIFO order. local_spawn=true commands run
// here; local_spawn=false commands are dispatched with a bare `go` call
// instead, bypassing the mailbox entirely.
func New(conn *brokerrabbitmq.Connection, cache *keycache.Store, rt *realtime.Channel, appender store.Appender, mailboxSize int) *Actor {
	a := &Actor{
		conn:     conn,
		cache:    cache,
		realtime: rt,
		appender: appender,
		mailbox:  make(chan command, mailboxSize),
		done:     make(chan struct{}),
	}

	a.wg.Add(1)
	go a.runLocal()

	return a
}

func (a *Actor) runLocal() {
	defer a.wg.Done()
	for {
		select {
		case <-a.done:
			return
		case work := <-a.mailbox:
			work()
		}
	}
}

// spawn dispatches work per the command's scheduling discipline. Under
// both disciplines the real work runs on another goroutine, not on the
// caller's. A detached dispatch returns immediately; a local dispatch
// returns once the work is queued, and waits for room while the mailbox
// is full (or until Shutdown).
func (a *Actor) spawn(localSpawn bool, work func()) {
	if localSpawn {
		select {
		case a.mailbox <- work:
		case <-a.done:
		}
		return
	}
	go work()
}

// HandleProduce dispatches a ProduceNotif command. Returns promptly; the
// actual publish runs on the chosen execution context.
func (a *Actor) HandleProduce(ctx context.Context, cmd dto.ProduceNotif) {
	path := producer.New(a.conn, a.cache)
	a.spawn(cmd.LocalSpawn, func() {
		if err := path.Produce(ctx, cmd); err != nil {
			logger.Errorf("actor: produce failed (exchange=%s routing_key=%s): %v", cmd.ExchangeName, cmd.RoutingKey, err)
		}
	})
}

// HandleConsume dispatches a ConsumeNotif command. The consumer stream
// runs for the lifetime of ctx; callers that want to stop a stream
// cancel the ctx they passed in.
func (a *Actor) HandleConsume(ctx context.Context, cmd dto.ConsumeNotif) {
	path := consumer.New(a.conn, a.cache, a.realtime, a)
	a.spawn(cmd.LocalSpawn, func() {
		if err := path.Run(ctx, cmd); err != nil {
			logger.Errorf("actor: consumer %q terminated: %v", cmd.Tag, err)
		}
	})
}

// DispatchStore implements consumer.StoreDispatcher: it always runs the
// durable write on the actor's local mailbox (local_spawn=true), so
// durable writes run one at a time in dispatch order.
func (a *Actor) DispatchStore(ctx context.Context, evt dto.StoreNotifEvent) error {
	if a.appender == nil {
		return nil
	}
	a.spawn(true, func() {
		if err := a.appender.AppendNotification(ctx, evt.Message); err != nil {
			logger.Errorf("actor: durable write failed for notif %q: %v", evt.Message.ID, err)
		}
	})
	return nil
}

// HandlePublishToChannel and HandleConsumeFromChannel are the reserved
// pub/sub command variants. No-op per spec.md §9 ("treat as future work;
// do not specify behavior").
func (a *Actor) HandlePublishToChannel(_ dto.PublishNotifToChannel) {}
func (a *Actor) HandleConsumeFromChannel(_ dto.ConsumeFromChannel)  {}

// HandlePublishToLog and HandleConsumeFromLog are the reserved
// partitioned-log command variants. No-op per spec.md §9.
func (a *Actor) HandlePublishToLog(_ dto.PublishNotifToLog) {}
func (a *Actor) HandleConsumeFromLog(_ dto.ConsumeFromLog)  {}

// Handle dispatches HealthMsg. Shutdown=true halts the actor's local
// execution context; in-flight tasks continue to completion (they are not
// tracked by this channel close).
func (a *Actor) Handle(msg dto.HealthMsg) {
	if msg.Shutdown {
		a.Shutdown()
	}
}

// Shutdown stops the actor's local command loop. Safe to call more than
// once. In-flight detached and local tasks already running continue to
// completion; it does not wait for them.
func (a *Actor) Shutdown() {
	a.shutdownOnce.Do(func() {
		close(a.done)
	})
}

// Wait blocks until the actor's local execution context has stopped.
func (a *Actor) Wait() {
	a.wg.Wait()
}
