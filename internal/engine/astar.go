package engine

import "container/heap"

// manhattan returns the four-connected grid distance between two cells.
func manhattan(a, b Cell) int {
	return absInt(a.X-b.X) + absInt(a.Y-b.Y)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// astarNode is one entry in the open set's priority queue.
type astarNode struct {
	cell  Cell
	g     int
	f     int
	order int // insertion order, used to break f-score ties deterministically
}

type astarHeap []astarNode

func (h astarHeap) Len() int { return len(h) }
func (h astarHeap) Less(i, j int) bool {
	if h[i].f != h[j].f {
		return h[i].f < h[j].f
	}
	return h[i].order < h[j].order
}
func (h astarHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *astarHeap) Push(x any)        { *h = append(*h, x.(astarNode)) }
func (h *astarHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

var neighborDirs = [4]Cell{{X: 1}, {X: -1}, {Y: 1}, {Y: -1}}

// astar searches a four-connected grid with a Manhattan heuristic and unit
// step cost. It returns the full path from start through goal inclusive, or
// an empty path if goal is unreachable. If start == goal it returns a
// single-cell path; the caller treats that as "already arrived".
func astar(start, goal Cell, blocked map[Cell]struct{}, gridSize int) []Cell {
	if start == goal {
		return []Cell{start}
	}
	if _, ok := blocked[goal]; ok {
		return nil
	}

	open := &astarHeap{}
	heap.Init(open)
	var seq int
	push := func(n astarNode) {
		n.order = seq
		seq++
		heap.Push(open, n)
	}
	push(astarNode{cell: start, g: 0, f: manhattan(start, goal)})

	gScore := map[Cell]int{start: 0}
	cameFrom := map[Cell]Cell{}
	visited := map[Cell]struct{}{}

	for open.Len() > 0 {
		current := heap.Pop(open).(astarNode)
		if _, ok := visited[current.cell]; ok {
			continue
		}
		visited[current.cell] = struct{}{}

		if current.cell == goal {
			return reconstructPath(cameFrom, current.cell)
		}

		for _, d := range neighborDirs {
			neighbor := Cell{X: current.cell.X + d.X, Y: current.cell.Y + d.Y}
			if neighbor.X < 0 || neighbor.X >= gridSize || neighbor.Y < 0 || neighbor.Y >= gridSize {
				continue
			}
			if _, ok := blocked[neighbor]; ok {
				continue
			}

			tentativeG := current.g + 1
			if existing, ok := gScore[neighbor]; !ok || tentativeG < existing {
				gScore[neighbor] = tentativeG
				cameFrom[neighbor] = current.cell
				push(astarNode{cell: neighbor, g: tentativeG, f: tentativeG + manhattan(neighbor, goal)})
			}
		}
	}

	return nil
}

func reconstructPath(cameFrom map[Cell]Cell, goal Cell) []Cell {
	path := []Cell{goal}
	current := goal
	for {
		prev, ok := cameFrom[current]
		if !ok {
			break
		}
		path = append(path, prev)
		current = prev
	}
	// reverse in place
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
