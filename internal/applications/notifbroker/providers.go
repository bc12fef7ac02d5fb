// Package notifbroker wires the realtime notification broker domain into
// the application's dependency injector, following the same
// do.Provide/do.ProvideNamed convention as the teacher's
// internal/applications/notification/providers.go.
package notifbroker

import (
	govalidator "github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do/v2"
	"github.com/uptrace/bun"

	"ichi-go/config"
	"ichi-go/internal/applications/notifbroker/actor"
	"ichi-go/internal/applications/notifbroker/controller"
	"ichi-go/internal/applications/notifbroker/errorsidecar"
	"ichi-go/internal/applications/notifbroker/keycache"
	"ichi-go/internal/applications/notifbroker/realtime"
	"ichi-go/internal/applications/notifbroker/store"
	brokerrabbitmq "ichi-go/internal/infra/broker/rabbitmq"
)

// RegisterProviders registers every notifbroker dependency with injector.
// The canonical broker connection (*brokerrabbitmq.Connection) is provided
// once, by internal/infra.Setup — RegisterProviders only consumes it.
func RegisterProviders(injector do.Injector) {
	do.Provide(injector, ProvideKeyCache)
	do.Provide(injector, ProvideRealtimeChannel)
	do.Provide(injector, ProvideStoreRepository)
	do.Provide(injector, ProvideErrorSidecar)
	do.Provide(injector, ProvideActor)
	do.Provide(injector, ProvideValidator)
	do.Provide(injector, ProvideController)
}

func ProvideKeyCache(i do.Injector) (*keycache.Store, error) {
	client := do.MustInvoke[*redis.Client](i)
	return keycache.New(client), nil
}

func ProvideRealtimeChannel(i do.Injector) (*realtime.Channel, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return realtime.New(cfg.NotifBroker.RealtimeCapacity), nil
}

func ProvideStoreRepository(i do.Injector) (*store.Repository, error) {
	db := do.MustInvoke[*bun.DB](i)
	return store.NewRepository(db), nil
}

func ProvideErrorSidecar(i do.Injector) (errorsidecar.Sidecar, error) {
	cfg := do.MustInvoke[*config.Config](i)
	if cfg.NotifBroker.ErrorSidecar.Enabled && cfg.NotifBroker.ErrorSidecar.CollectorURL != "" {
		return errorsidecar.NewHTTPSidecar(cfg.NotifBroker.ErrorSidecar.CollectorURL), nil
	}
	return errorsidecar.NewLogSidecar(), nil
}

func ProvideActor(i do.Injector) (*actor.Actor, error) {
	conn, err := do.Invoke[*brokerrabbitmq.Connection](i)
	if err != nil {
		return nil, err
	}
	cache := do.MustInvoke[*keycache.Store](i)
	rt := do.MustInvoke[*realtime.Channel](i)
	repo := do.MustInvoke[*store.Repository](i)
	cfg := do.MustInvoke[*config.Config](i)
	return actor.New(conn, cache, rt, repo, cfg.NotifBroker.MailboxSize), nil
}

func ProvideValidator(_ do.Injector) (*govalidator.Validate, error) {
	return govalidator.New(), nil
}

func ProvideController(i do.Injector) (*controller.Controller, error) {
	a := do.MustInvoke[*actor.Actor](i)
	repo := do.MustInvoke[*store.Repository](i)
	v := do.MustInvoke[*govalidator.Validate](i)
	return controller.New(a, repo, v), nil
}
