// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the document lifecycle every command goes
// through (open, run one engine operation, save), decoupled from any
// specific entrypoint like a CLI.
package app
