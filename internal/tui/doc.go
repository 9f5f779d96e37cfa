// Package tui implements the interactive live console for a bridge.
//
// The console is a bubbletea application with two phases: a spinner while
// the bridge performs its handshake and initial datapoint load, then a live
// view listing every device and heating room with its current state. Entity
// broadcasts are funneled into the bubbletea update loop through a buffered
// channel, so the view rebuilds whenever the bridge pushes an update.
//
// # Controls
//
// The cursor selects a row; enter toggles a light, +/- nudge a dimmer,
// o/c/s drive a shade. Commands run asynchronously and report failures in
// the status line without blocking the view.
//
// # Layout
//
// Every screen renders through RenderApplicationContainer, which draws the
// shared application frame (header with name and version, bordered body,
// context-sensitive footer built from the bubbles help component).
package tui
