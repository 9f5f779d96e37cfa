// Package entity implements the observable entity model for an xComfort
// bridge: devices, components and rooms, each exposing a replay-latest state
// cell that subscribers can watch.
//
// Entities are created lazily by the Registry from the first payload that
// mentions them. The payload's device type code, together with the linked
// component's type and mode, selects the concrete variant (Light, Shade,
// Rocker, RcTouch, Heater, door and window sensors), falling back to a
// generic raw-state device for unrecognized types.
//
// State updates arrive as partial fragments. Each variant decides how
// fragments combine with what it already knows: lights remember their last
// brightness across off periods, shades merge fragments so partial updates
// never erase fields, rockers fold in readings from a companion sensor
// device, and rooms accumulate a raw payload across snapshot and
// incremental updates.
//
// Outbound commands go through the Commander interface, implemented by the
// connection supervisor. Entities never touch the transport directly.
package entity
