// Package versioning computes content checksums and version descriptors
// for exploration trees. The persistence layer uses them to skip writes
// when a save would store a byte-identical document.
package versioning

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/Anidipta/Node-Learner/domain/core/aggregates"
)

// TreeVersion describes one saved revision of an exploration tree.
type TreeVersion struct {
	TreeID    string    `json:"tree_id"`
	Version   int       `json:"version"`
	Checksum  string    `json:"checksum"`
	NodeCount int       `json:"node_count"`
	EdgeCount int       `json:"edge_count"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// nodeRecord is the canonical hashing form of a node. Identifiers and
// timestamps are left out: two trees with the same concepts, links, and
// display attributes hash the same even when they were built at different
// times.
type nodeRecord struct {
	Label   string `json:"label"`
	Kind    string `json:"kind"`
	Level   int    `json:"level"`
	Parent  string `json:"parent"`
	Summary string `json:"summary"`
	Size    int    `json:"size"`
	Color   string `json:"color"`
}

// edgeRecord is the canonical hashing form of an edge.
type edgeRecord struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Title  string `json:"title"`
	Weight int    `json:"weight"`
}

// Snapshot captures a version descriptor for the graph's current content.
// The version number comes from the caller, which knows the stored
// document's revision counter.
func Snapshot(graph *aggregates.Graph, version int) (*TreeVersion, error) {
	if graph == nil {
		return nil, fmt.Errorf("graph cannot be nil")
	}

	checksum, err := Checksum(graph)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate checksum: %w", err)
	}

	return &TreeVersion{
		TreeID:    graph.ID().String(),
		Version:   version,
		Checksum:  checksum,
		NodeCount: graph.NodeCount(),
		EdgeCount: graph.EdgeCount(),
		CreatedBy: graph.UserID(),
		CreatedAt: time.Now(),
	}, nil
}

// Checksum calculates a deterministic content hash over the graph. Nodes
// are sorted by label and edges by endpoint pair before hashing, so two
// graphs with identical content always hash identically regardless of
// insertion order.
func Checksum(graph *aggregates.Graph) (string, error) {
	if graph == nil {
		return "", fmt.Errorf("graph cannot be nil")
	}

	nodes := graph.Nodes()
	nodeRecords := make([]nodeRecord, 0, len(nodes))
	for _, node := range nodes {
		nodeRecords = append(nodeRecords, nodeRecord{
			Label:   node.Label(),
			Kind:    node.Kind().String(),
			Level:   node.Level(),
			Parent:  node.Parent(),
			Summary: node.Summary(),
			Size:    node.Size(),
			Color:   node.Color(),
		})
	}
	sort.Slice(nodeRecords, func(i, j int) bool {
		return nodeRecords[i].Label < nodeRecords[j].Label
	})

	edges := graph.Edges()
	edgeRecords := make([]edgeRecord, 0, len(edges))
	for _, edge := range edges {
		edgeRecords = append(edgeRecords, edgeRecord{
			Source: edge.Source(),
			Target: edge.Target(),
			Title:  edge.Title(),
			Weight: edge.Weight(),
		})
	}
	sort.Slice(edgeRecords, func(i, j int) bool {
		if edgeRecords[i].Source != edgeRecords[j].Source {
			return edgeRecords[i].Source < edgeRecords[j].Source
		}
		return edgeRecords[i].Target < edgeRecords[j].Target
	})

	data := struct {
		Topic string       `json:"topic"`
		Nodes []nodeRecord `json:"nodes"`
		Edges []edgeRecord `json:"edges"`
	}{
		Topic: graph.Topic(),
		Nodes: nodeRecords,
		Edges: edgeRecords,
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return "", err
	}

	hash := sha256.Sum256(jsonData)
	return hex.EncodeToString(hash[:]), nil
}

// Matches reports whether other describes identical tree content. A save
// whose snapshot matches the stored version can be skipped entirely.
func (v *TreeVersion) Matches(other *TreeVersion) bool {
	if v == nil || other == nil {
		return false
	}
	return v.Checksum != "" && v.Checksum == other.Checksum
}

// Diff summarizes growth between two revisions of the same tree. Counts
// are net: a session that added four concepts and removed one reports
// three.
type Diff struct {
	FromVersion int           `json:"from_version"`
	ToVersion   int           `json:"to_version"`
	NodesAdded  int           `json:"nodes_added"`
	EdgesAdded  int           `json:"edges_added"`
	Elapsed     time.Duration `json:"elapsed"`
}

// DiffFrom computes the change summary from prev to v.
func (v *TreeVersion) DiffFrom(prev *TreeVersion) Diff {
	if prev == nil {
		return Diff{
			ToVersion:  v.Version,
			NodesAdded: v.NodeCount,
			EdgesAdded: v.EdgeCount,
		}
	}
	return Diff{
		FromVersion: prev.Version,
		ToVersion:   v.Version,
		NodesAdded:  v.NodeCount - prev.NodeCount,
		EdgesAdded:  v.EdgeCount - prev.EdgeCount,
		Elapsed:     v.CreatedAt.Sub(prev.CreatedAt),
	}
}
