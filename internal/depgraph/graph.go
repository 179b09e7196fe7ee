// Package depgraph keeps the task dependency graph of a project acyclic.
//
// Edges point from a task to the task it depends on. The graph is checked
// incrementally: every insertion runs one reachability search from the
// prospective dependency, so a valid graph never needs a global re-scan.
package depgraph

import (
	"sort"
	"strings"

	"github.com/alexanderramin/cybertask/internal/domain"
)

// Node is the slice of a task the graph needs.
type Node struct {
	ID        string
	ProjectID string
	Status    domain.TaskStatus
}

// Graph is a directed dependency graph rooted in one project. Nodes from
// other projects may be added so that cross-project edges can be rejected
// with the right error kind.
type Graph struct {
	projectID string
	nodes     map[string]Node
	forward   map[string]map[string]struct{} // task -> depends on
	reverse   map[string]map[string]struct{} // task -> dependents
}

// New returns an empty graph for projectID.
func New(projectID string) *Graph {
	return &Graph{
		projectID: projectID,
		nodes:     make(map[string]Node),
		forward:   make(map[string]map[string]struct{}),
		reverse:   make(map[string]map[string]struct{}),
	}
}

// Build loads a project's tasks and edges. Edges whose endpoints are missing
// from tasks are skipped.
func Build(projectID string, tasks []*domain.Task, deps []domain.Dependency) *Graph {
	g := New(projectID)
	for _, t := range tasks {
		g.AddNode(NodeOf(t))
	}
	for _, d := range deps {
		if !g.Has(d.TaskID) || !g.Has(d.DependsOnID) {
			continue
		}
		g.link(d.TaskID, d.DependsOnID)
	}
	return g
}

// NodeOf projects a task onto a graph node.
func NodeOf(t *domain.Task) Node {
	return Node{ID: t.ID, ProjectID: t.ProjectID, Status: t.Status}
}

// ProjectID returns the project the graph was built for.
func (g *Graph) ProjectID() string { return g.projectID }

// AddNode inserts or refreshes a node. Existing edges are kept.
func (g *Graph) AddNode(n Node) {
	g.nodes[n.ID] = n
}

// Has reports whether id is a node of the graph.
func (g *Graph) Has(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// Check reports why the edge taskID -> dependsOnID cannot be added, or nil
// when it can. The graph is not modified.
func (g *Graph) Check(taskID, dependsOnID string) error {
	if taskID == dependsOnID {
		return cycleError(taskID, dependsOnID, []string{taskID, taskID})
	}
	from, ok := g.nodes[taskID]
	if !ok {
		return domain.NotFound("task", taskID)
	}
	to, ok := g.nodes[dependsOnID]
	if !ok {
		return domain.NotFound("task", dependsOnID)
	}
	if from.ProjectID != to.ProjectID {
		return domain.NewError(domain.ErrCrossProjectDependency,
			"tasks belong to different projects",
			"task_id", taskID, "task_project_id", from.ProjectID,
			"depends_on_id", dependsOnID, "depends_on_project_id", to.ProjectID)
	}
	if path := g.pathTo(dependsOnID, taskID); path != nil {
		// The new edge closes path back onto its start.
		return cycleError(taskID, dependsOnID, append([]string{taskID}, path...))
	}
	return nil
}

// CanAddEdge reports whether taskID -> dependsOnID keeps the graph acyclic
// and inside one project.
func (g *Graph) CanAddEdge(taskID, dependsOnID string) bool {
	return g.Check(taskID, dependsOnID) == nil
}

// AddEdge inserts taskID -> dependsOnID. On error the graph is unchanged.
// Adding an existing edge is a no-op.
func (g *Graph) AddEdge(taskID, dependsOnID string) error {
	if g.HasEdge(taskID, dependsOnID) {
		return nil
	}
	if err := g.Check(taskID, dependsOnID); err != nil {
		return err
	}
	g.link(taskID, dependsOnID)
	return nil
}

// HasEdge reports whether taskID depends directly on dependsOnID.
func (g *Graph) HasEdge(taskID, dependsOnID string) bool {
	_, ok := g.forward[taskID][dependsOnID]
	return ok
}

// RemoveEdge deletes taskID -> dependsOnID. Removing a missing edge is a no-op.
func (g *Graph) RemoveEdge(taskID, dependsOnID string) {
	if deps, ok := g.forward[taskID]; ok {
		delete(deps, dependsOnID)
		if len(deps) == 0 {
			delete(g.forward, taskID)
		}
	}
	if rev, ok := g.reverse[dependsOnID]; ok {
		delete(rev, taskID)
		if len(rev) == 0 {
			delete(g.reverse, dependsOnID)
		}
	}
}

// RemoveNode deletes id and every edge touching it, in both directions.
// It returns the removed edges.
func (g *Graph) RemoveNode(id string) []domain.Dependency {
	var removed []domain.Dependency
	for _, dep := range g.DependsOn(id) {
		g.RemoveEdge(id, dep)
		removed = append(removed, domain.Dependency{TaskID: id, DependsOnID: dep})
	}
	for _, dependent := range g.Dependents(id) {
		g.RemoveEdge(dependent, id)
		removed = append(removed, domain.Dependency{TaskID: dependent, DependsOnID: id})
	}
	delete(g.nodes, id)
	return removed
}

// DependsOn returns the sorted ids id depends on directly.
func (g *Graph) DependsOn(id string) []string {
	return sortedKeys(g.forward[id])
}

// Dependents returns the sorted ids that depend directly on id.
func (g *Graph) Dependents(id string) []string {
	return sortedKeys(g.reverse[id])
}

// Edges returns every edge ordered by task id, then dependency id.
func (g *Graph) Edges() []domain.Dependency {
	var edges []domain.Dependency
	for _, from := range sortedKeys(g.forward) {
		for _, to := range sortedKeys(g.forward[from]) {
			edges = append(edges, domain.Dependency{TaskID: from, DependsOnID: to})
		}
	}
	return edges
}

// Blockers returns the direct dependencies of id that are neither DONE nor
// CANCELLED.
func (g *Graph) Blockers(id string) []string {
	var blockers []string
	for _, dep := range g.DependsOn(id) {
		if n, ok := g.nodes[dep]; ok && !n.Status.Terminal() {
			blockers = append(blockers, dep)
		}
	}
	return blockers
}

// IsAcyclic runs a full scan. Insertions never need it; tests do.
func (g *Graph) IsAcyclic() bool {
	order, err := g.TopologicalOrder()
	return err == nil && len(order) == len(g.nodes)
}

// TopologicalOrder returns node ids so that every task appears after the
// tasks it depends on. Ties are broken by id so the order is stable.
func (g *Graph) TopologicalOrder() ([]string, error) {
	pending := make(map[string]int, len(g.nodes))
	for id := range g.nodes {
		pending[id] = len(g.forward[id])
	}

	var ready []string
	for id, n := range pending {
		if n == 0 {
			ready = append(ready, id)
		}
	}
	sort.Strings(ready)

	order := make([]string, 0, len(g.nodes))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)

		var unlocked []string
		for dependent := range g.reverse[id] {
			pending[dependent]--
			if pending[dependent] == 0 {
				unlocked = append(unlocked, dependent)
			}
		}
		if len(unlocked) > 0 {
			ready = append(ready, unlocked...)
			sort.Strings(ready)
		}
	}

	if len(order) != len(g.nodes) {
		return nil, domain.NewError(domain.ErrCycleDetected, "dependency graph contains a cycle",
			"project_id", g.projectID)
	}
	return order, nil
}

func (g *Graph) link(taskID, dependsOnID string) {
	if g.forward[taskID] == nil {
		g.forward[taskID] = make(map[string]struct{})
	}
	if g.reverse[dependsOnID] == nil {
		g.reverse[dependsOnID] = make(map[string]struct{})
	}
	g.forward[taskID][dependsOnID] = struct{}{}
	g.reverse[dependsOnID][taskID] = struct{}{}
}

// pathTo searches depth-first from start along depends-on edges and returns
// the path start..target, or nil when target is unreachable. Each node is
// visited at most once, so the search is bounded by the node count.
func (g *Graph) pathTo(start, target string) []string {
	visited := make(map[string]bool, len(g.nodes))
	parent := make(map[string]string)
	stack := []string{start}
	visited[start] = true

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id == target {
			var path []string
			for cur := target; ; cur = parent[cur] {
				path = append(path, cur)
				if cur == start {
					break
				}
			}
			for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
				path[i], path[j] = path[j], path[i]
			}
			return path
		}
		for _, next := range g.DependsOn(id) {
			if visited[next] {
				continue
			}
			visited[next] = true
			parent[next] = id
			stack = append(stack, next)
		}
	}
	return nil
}

func cycleError(taskID, dependsOnID string, path []string) *domain.DomainError {
	return domain.NewError(domain.ErrCycleDetected, "dependency would create a cycle",
		"task_id", taskID, "depends_on_id", dependsOnID, "path", strings.Join(path, " -> "))
}

func sortedKeys[V any](m map[string]V) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
