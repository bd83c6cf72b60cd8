// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the two lifecycles it supports: serving a
// chain to the UI shell over HTTP, and running a chain headless from a grid
// file. It is decoupled from any specific entrypoint like a CLI.
package app
