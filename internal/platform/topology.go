package platform

import (
	"fmt"

	"github.com/aretw0/introspection"

	"github.com/aretw0/nebulaboard/pkg/adapters/fs"
	"github.com/aretw0/nebulaboard/pkg/session"
)

// Node is one box of the app topology. Status values follow the classes of
// introspection.DefaultStyles().
type Node struct {
	Name     string
	Status   string
	Metadata map[string]string
	Children []Node
}

// Topology describes the live components as a tree.
func (a *App) Topology() Node {
	store := Node{
		Name:     "Store",
		Status:   "running",
		Metadata: map[string]string{"type": "container", "dir": a.DataDir},
	}
	for _, r := range a.collections {
		st := r.State().(fs.RepositoryState)
		status := "suspended"
		if st.WatcherActive {
			status = "running"
		}
		store.Children = append(store.Children, Node{
			Name:   st.Collection,
			Status: status,
			Metadata: map[string]string{
				"type":    "process",
				"format":  st.Format,
				"records": fmt.Sprintf("%d", st.Records),
			},
		})
	}

	sess := a.Session.State().(session.SessionState)
	sessStatus := "suspended"
	switch sess.Status {
	case session.Authenticated.String():
		sessStatus = "running"
	case session.Authenticating.String():
		sessStatus = "starting"
	}

	return Node{
		Name:     a.Name,
		Status:   "running",
		Metadata: map[string]string{"type": "process", "profile": a.ProfileDir},
		Children: []Node{
			store,
			{
				Name:     "Session",
				Status:   sessStatus,
				Metadata: map[string]string{"type": "container", "status": sess.Status},
			},
			{
				Name:     "Router",
				Status:   "running",
				Metadata: map[string]string{"type": "goroutine", "current": a.Router.Current().Name},
			},
			{
				Name:     "API",
				Status:   "running",
				Metadata: map[string]string{"type": "process", "url": a.Client.BaseURL()},
			},
		},
	}
}

// Diagram renders Topology as a Mermaid diagram.
func (a *App) Diagram() string {
	config := introspection.DefaultDiagramConfig()
	config.SecondaryID = "app"
	config.SecondaryLabel = "Dashboard Topology"
	return introspection.TreeDiagram(a.Topology(), config)
}
