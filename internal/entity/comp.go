package entity

import (
	"strconv"

	"github.com/muurk/xcbridge/internal/protocol"
)

// CompState is a component's last raw state payload.
type CompState struct {
	Raw map[string]any
}

// Comp is a physical xComfort component (the radio module behind one or more
// devices). Components matter to the entity model for classification: the
// component's type and mode decide which device variant the factory builds.
type Comp struct {
	compID     int
	compType   int
	name       string
	descriptor map[string]any
	state      *Cell[CompState]
}

// NewComp creates a component from its descriptor.
func NewComp(compID int, compType int, name string, descriptor map[string]any) *Comp {
	return &Comp{
		compID:     compID,
		compType:   compType,
		name:       name,
		descriptor: descriptor,
		state:      NewCell[CompState](),
	}
}

// CompID returns the bridge-assigned component id.
func (c *Comp) CompID() int { return c.compID }

// CompType returns the component's type code.
func (c *Comp) CompType() int { return c.compType }

// Name returns the user-assigned name.
func (c *Comp) Name() string { return c.name }

// Descriptor returns the component's descriptor payload.
func (c *Comp) Descriptor() map[string]any { return c.descriptor }

// Mode returns the component's mode string, empty when absent. Door/window
// sensor components use this to distinguish doors from windows.
func (c *Comp) Mode() string {
	if mode, ok := protocol.StringField(c.descriptor, "mode"); ok {
		return mode
	}
	if mode, ok := protocol.IntField(c.descriptor, "mode"); ok {
		return strconv.Itoa(mode)
	}
	return ""
}

// State returns the component's observable state cell.
func (c *Comp) State() *Cell[CompState] { return c.state }

// HandleState publishes an inbound state fragment as-is.
func (c *Comp) HandleState(payload map[string]any) {
	c.state.Publish(CompState{Raw: payload})
}
