// Package commands defines the prefctl CLI over a file-backed preference
// store.
//
// Commands
//
//   - get    Print the value stored under a key
//   - set    Store a value under a key
//   - del    Remove a key
//   - keys   List the keys in the store
//   - watch  Stream value updates for a key until interrupted
//   - clear  Remove every entry in the store
//
// # Implementation
//
// The root command opens the store named by --store under --dir before any
// subcommand runs. Typed commands take a --type flag selecting the codec
// used to parse and print values; watch rides the store's change stream, so
// edits made by other processes (or by hand to the JSON file) show up live.
package commands
