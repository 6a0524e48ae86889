// Package prefstore provides a reactive typed preference store over a
// pluggable host key-value backend.
//
// # Overview
//
// prefstore wraps a durable key-value store with typed per-key handles:
// synchronous get/set plus a multicast stream of current-value updates.
// It separates concerns between preference access (Store, Pref) and
// persistence (Driver), adding no storage engine, serialization format or
// coordination of its own beyond fanning one change listener out to
// per-key subscribers.
//
// # Architecture
//
// The package consists of three abstractions:
//
//  1. Store: a named facade that constructs typed handles and clears entries
//  2. Pref[T]: a handle bound to one key with get/set/watch/teardown
//  3. Driver: the host storage backend with a change-listener hook
//
// A Store registers at most one listener with its Driver, lazily on the
// first watch and released when the last watch detaches. Each watch filters
// the shared event stream by its own key and re-reads the value to emit it.
//
// # Quick Start
//
//	store, _ := prefstore.Open(ctx, "settings")
//
//	dark := store.Bool("dark-mode", false)
//	_ = dark.Set(ctx, true)
//	on := dark.Get(ctx) // true
//
//	updates, _ := dark.Watch(ctx)
//	for v := range updates {
//		fmt.Println("dark-mode:", v)
//	}
//
// # Backends
//
// Three drivers ship with the package: in-memory (the default), a JSON file
// per store (WithDir) that also picks up edits made outside the process,
// and Redis (WithRedis) whose change notifications cross process
// boundaries. Implement the Driver interface to supply another backend:
//
//	store, _ := prefstore.Open(ctx, "settings",
//	    prefstore.WithDriver(myDriver))
//
// # Typed Handles
//
// Built-in constructors cover bool, int, int64, float64, string and string
// set. Structured payloads go through Object with a custom Adapter, or the
// default JSON adapter:
//
//	type Profile struct{ Name string }
//
//	profile := prefstore.Object(store, "profile", Profile{}, nil)
//
// # Error Handling
//
// Reads never fail from the caller's point of view: an absent key, a host
// read error or an undecodable value all yield the handle's default. Writes
// and Clear return the host store's error unchanged. Sentinel errors:
// ErrNotFound (driver level), ErrTypeMismatch, ErrClosed.
//
// # Thread Safety
//
// All operations are thread-safe. Multiple goroutines can share a Store and
// its handles. Driver implementations must be thread-safe as well.
package prefstore
