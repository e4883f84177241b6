// Package internal contains the core implementation packages for unreact.
//
// # Package Organization
//
// The internal packages are organized by functional domain:
//
//   - build: renders routes, copies public assets and converts styles into an output directory
//   - config: configuration loading with viper, defaults and validation
//   - devscript: the live-reload client script and the built-in 404 page
//   - devserver: one development session tying every other package together
//   - errors: the structured error type with categories and codes
//   - logging: slog-backed structured logging with operation timers
//   - metrics: Prometheus collectors for rebuilds, clients and requests
//   - server: the HTTP file server and its route resolver
//   - version: build information injected with ldflags
//   - watcher: recursive file watching, debouncing and the rebuild loop
//   - websocket: the client registry, reload broadcaster and websocket hub
//
// # Inter-Package Communication
//
// A dev session wires the packages into one pipeline:
//
//   - Watcher emits file events into the rebuild loop
//   - The loop debounces them and asks build for a full rebuild
//   - After every rebuild, successful or not, the broadcaster tells each
//     registered client to reload
//   - The hub is the only writer of the registry; the file server only
//     reads the output directory
//
// For detailed documentation, see the individual package documentation.
package internal
