// Package di contains dependency injection tokens for the withdrawal
// context.
package di

import (
	"github.com/skinflow/fulfillment-bot/business/withdrawal/app"
	"github.com/skinflow/fulfillment-bot/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Engine = di.NewToken[*app.Engine]("withdrawal.Engine")
)

// Private dependency tokens - internal to withdrawal module
var (
	Store      = di.NewToken[app.Store]("withdrawal:store")
	Notifier   = di.NewToken[app.Notifier]("withdrawal:notifier")
	Reconciler = di.NewToken[*app.Reconciler]("withdrawal:reconciler")
	Reporter   = di.NewToken[app.Reporter]("withdrawal:reporter")
)

// Helper functions for type-safe access
func GetEngine(c di.ServiceRegistry) *app.Engine {
	return di.GetToken(c, Engine)
}

func GetStore(c di.ServiceRegistry) app.Store {
	return di.GetToken(c, Store)
}

func GetNotifier(c di.ServiceRegistry) app.Notifier {
	return di.GetToken(c, Notifier)
}

func GetReconciler(c di.ServiceRegistry) *app.Reconciler {
	return di.GetToken(c, Reconciler)
}

func GetReporter(c di.ServiceRegistry) app.Reporter {
	return di.GetToken(c, Reporter)
}
