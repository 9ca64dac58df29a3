package document

import (
	"encoding/json"
	"maps"
)

// Diagram is the persisted shape of a diagram: every node and link in
// insertion order. Re-encoding an unmodified Diagram yields the same bytes.
type Diagram struct {
	Nodes []Node `json:"nodes"`
	Links []Link `json:"links"`
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Node is one architecture component placed on the canvas. Position and
// size are in world coordinates.
type Node struct {
	ID         string         `json:"id"`
	Kind       string         `json:"kind"`
	Label      string         `json:"label,omitempty"`
	Position   Point          `json:"position"`
	Size       Size           `json:"size"`
	Color      string         `json:"color,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Link is a directed edge from SourceID to TargetID.
type Link struct {
	ID       string `json:"id"`
	SourceID string `json:"sourceId"`
	TargetID string `json:"targetId"`
	Kind     string `json:"kind,omitempty"`
	Label    string `json:"label,omitempty"`
	Animated bool   `json:"animated"`
}

type Viewport struct {
	Zoom float64 `json:"zoom"`
	Pan  Point   `json:"pan"`
}

// ComponentTemplate describes a palette entry that can be dropped onto the canvas.
type ComponentTemplate struct {
	Kind              string         `json:"kind"`
	DisplayName       string         `json:"displayName"`
	Color             string         `json:"color"`
	DefaultProperties map[string]any `json:"defaultProperties,omitempty"`
	DefaultSize       *Size          `json:"defaultSize,omitempty"`
}

// Cursor is a remote collaborator's pointer. It is display-only.
type Cursor struct {
	CollaboratorID string `json:"collaboratorId"`
	DisplayName    string `json:"displayName"`
	ScreenPosition Point  `json:"screenPosition"`
	WorldPosition  *Point `json:"worldPosition,omitempty"`
	Color          string `json:"color,omitempty"`
}

// Clone returns a copy of the node that shares no map with n.
func (n Node) Clone() Node {
	n.Properties = maps.Clone(n.Properties)
	return n
}

// Clone returns a deep copy of the diagram.
func (d Diagram) Clone() Diagram {
	out := Diagram{
		Nodes: make([]Node, len(d.Nodes)),
		Links: make([]Link, len(d.Links)),
	}
	for i, n := range d.Nodes {
		out.Nodes[i] = n.Clone()
	}
	copy(out.Links, d.Links)
	return out
}

// Marshal encodes the diagram. Nil collections are written as empty arrays.
func (d Diagram) Marshal() ([]byte, error) {
	if d.Nodes == nil {
		d.Nodes = []Node{}
	}
	if d.Links == nil {
		d.Links = []Link{}
	}
	return json.Marshal(d)
}

// ParseDiagram decodes a diagram previously produced by Marshal.
func ParseDiagram(data []byte) (*Diagram, error) {
	var d Diagram
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, err
	}
	if d.Nodes == nil {
		d.Nodes = []Node{}
	}
	if d.Links == nil {
		d.Links = []Link{}
	}
	return &d, nil
}
