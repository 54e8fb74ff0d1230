// Package driving provides interfaces for application entry points
// (primary/inbound ports). The CLI adapter consumes these; an HTTP layer
// would consume the same contracts.
package driving
