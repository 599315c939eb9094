// Package commands defines the parley CLI and wires dependencies for subcommands.
//
// Commands
//
//   - init           Create the local RSA identity
//   - fingerprint    Print the identity fingerprint
//   - chat           Connect to a relay and chat interactively
//
// # Implementation
//
// The root command builds a dependency graph (store, identity service)
// before any subcommand runs, so handlers share a single app context.
package commands
