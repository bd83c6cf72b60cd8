// Package registry provides the central "glue" for the module system.
//
// The Registry maps each node kind to the Go handler that does that kind's
// work. Modules populate it at startup through their Register method; the
// executor consults it when it reaches a node.
//
// After registration the registry is validated so that every supported node
// kind has exactly one handler. A kind without a handler is a startup error,
// not a runtime surprise.
package registry
