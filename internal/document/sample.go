package document

import (
	"github.com/archcanvas/archcanvas/backend-go/internal/typeid"
)

// NewSampleDiagram returns a small three-tier web architecture.
func NewSampleDiagram() *Diagram {
	lbID := typeid.NewNodeID()
	app1ID := typeid.NewNodeID()
	app2ID := typeid.NewNodeID()
	cacheID := typeid.NewNodeID()
	dbID := typeid.NewNodeID()

	return &Diagram{
		Nodes: []Node{
			{
				ID:       lbID,
				Kind:     "load_balancer",
				Label:    "Load Balancer",
				Position: Point{X: 360, Y: 40},
				Size:     Size{Width: 160, Height: 80},
				Color:    "#6366f1",
				Properties: map[string]any{
					"algorithm": "round_robin",
				},
			},
			{
				ID:       app1ID,
				Kind:     "app_server",
				Label:    "API 1",
				Position: Point{X: 200, Y: 220},
				Size:     Size{Width: 160, Height: 80},
				Color:    "#10b981",
				Properties: map[string]any{
					"instances": 2.0,
				},
			},
			{
				ID:       app2ID,
				Kind:     "app_server",
				Label:    "API 2",
				Position: Point{X: 520, Y: 220},
				Size:     Size{Width: 160, Height: 80},
				Color:    "#10b981",
				Properties: map[string]any{
					"instances": 2.0,
				},
			},
			{
				ID:       cacheID,
				Kind:     "cache",
				Label:    "Redis",
				Position: Point{X: 520, Y: 400},
				Size:     Size{Width: 140, Height: 70},
				Color:    "#ef4444",
			},
			{
				ID:       dbID,
				Kind:     "database",
				Label:    "Postgres",
				Position: Point{X: 200, Y: 400},
				Size:     Size{Width: 160, Height: 90},
				Color:    "#f59e0b",
				Properties: map[string]any{
					"engine":   "postgres",
					"replicas": 1.0,
				},
			},
		},
		Links: []Link{
			{ID: typeid.NewLinkID(), SourceID: lbID, TargetID: app1ID, Kind: "http", Animated: true},
			{ID: typeid.NewLinkID(), SourceID: lbID, TargetID: app2ID, Kind: "http", Animated: true},
			{ID: typeid.NewLinkID(), SourceID: app1ID, TargetID: dbID, Kind: "sql", Label: "reads/writes", Animated: true},
			{ID: typeid.NewLinkID(), SourceID: app2ID, TargetID: cacheID, Kind: "tcp", Label: "lookups", Animated: false},
		},
	}
}
