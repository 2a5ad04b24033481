// Package server exposes an engine over HTTP so a browser or a remote
// `sortvis watch` can drive it and follow its runs.
//
// # Endpoints
//
//   - GET /api/state - snapshot of the engine
//   - GET /api/algorithms - algorithm names in display order
//   - GET /api/datasets - data set presets
//   - POST /api/reset - load values or a generated data set
//   - POST /api/run - start a run
//   - POST /api/cancel - cancel the active run
//   - GET /api/runs, GET /api/runs/{id} - run history
//   - GET /ws - websocket stream of events; accepts command events
//   - GET / - embedded web viewer
//
// # Errors
//
// engine.ErrInvalidInput maps to 400 and engine.ErrAlreadyRunning to 409.
// Mutating endpoints are rate limited per client IP.
package server
