// Package events carries domain lifecycle events from the services to
// observers such as metrics and the audit log.
//
// Services emit an Event after a state change has been stored. Handlers run
// synchronously on the request goroutine, so they must be cheap. A failing
// handler never undoes the change that produced the event.
package events
