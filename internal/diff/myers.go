package diff

type opKind uint8

const (
	opEqual opKind = iota
	opDelete
	opInsert
)

// op is a single-token edit. ai indexes the old sequence (equal, delete), bi the new
// sequence (equal, insert).
type op struct {
	kind   opKind
	ai, bi int
}

// align returns an edit script turning a into b. Common prefix and suffix are matched
// first; the middle is aligned by Myers' algorithm bounded by maxD. When the bound is hit
// the middle becomes a full deletion plus a full insertion and exact is false.
//
// Within every contiguous change run, deletions precede insertions.
func align(a, b []int, maxD int) (script []op, exact bool) {
	n, m := len(a), len(b)

	pre := 0
	for pre < n && pre < m && a[pre] == b[pre] {
		pre++
	}
	suf := 0
	for suf < n-pre && suf < m-pre && a[n-1-suf] == b[m-1-suf] {
		suf++
	}

	script = make([]op, 0, n+m-pre-suf)
	for i := 0; i < pre; i++ {
		script = append(script, op{kind: opEqual, ai: i, bi: i})
	}

	midA, midB := a[pre:n-suf], b[pre:m-suf]
	mid, exact := shortestEdit(midA, midB, maxD)
	if !exact {
		mid = replaceAll(len(midA), len(midB))
	}
	for _, o := range mid {
		o.ai += pre
		o.bi += pre
		script = append(script, o)
	}

	for i := 0; i < suf; i++ {
		script = append(script, op{kind: opEqual, ai: n - suf + i, bi: m - suf + i})
	}
	return orderRuns(script), exact
}

func replaceAll(n, m int) []op {
	ops := make([]op, 0, n+m)
	for i := 0; i < n; i++ {
		ops = append(ops, op{kind: opDelete, ai: i})
	}
	for j := 0; j < m; j++ {
		ops = append(ops, op{kind: opInsert, bi: j})
	}
	return ops
}

// shortestEdit runs the greedy forward Myers search and backtracks through the saved
// frontier of each round. Each round d keeps a copy of V restricted to diagonals
// [-d-1, d+1], so memory grows with D² rather than (N+M)·D.
func shortestEdit(a, b []int, maxD int) ([]op, bool) {
	n, m := len(a), len(b)
	if n == 0 && m == 0 {
		return nil, true
	}
	if n == 0 || m == 0 {
		return replaceAll(n, m), true
	}

	limit := n + m
	if maxD > 0 && maxD < limit {
		limit = maxD
	}
	offset := limit + 1
	v := make([]int, 2*limit+3)
	for i := range v {
		v[i] = -1
	}
	// Virtual start: a "down" move from diagonal 1 lands on (0, 0).
	v[offset+1] = 0

	var trace [][]int
	for d := 0; d <= limit; d++ {
		snap := make([]int, 2*d+3)
		copy(snap, v[offset-d-1:offset+d+2])
		trace = append(trace, snap)

		for k := -d; k <= d; k += 2 {
			prevK, ok := choose(v[offset+k-1], v[offset+k+1], k, n, m)
			if !ok {
				v[offset+k] = -1
				continue
			}
			x := v[offset+prevK]
			if prevK == k-1 {
				x++
			}
			y := x - k
			for x < n && y < m && a[x] == b[y] {
				x++
				y++
			}
			v[offset+k] = x
			if x == n && y == m {
				return backtrack(trace, n, m), true
			}
		}
	}
	return nil, false
}

// choose picks the diagonal the furthest-reaching path on k comes from: k+1 is a move
// down (insertion), k-1 a move right (deletion). Unreachable (-1) and off-grid
// predecessors are skipped. When both lead to the same x the deletion wins.
func choose(left, up, k, n, m int) (int, bool) {
	downOK := up >= 0 && up-k <= m
	rightOK := left >= 0 && left+1 <= n
	switch {
	case downOK && rightOK:
		if left < up {
			return k + 1, true
		}
		return k - 1, true
	case downOK:
		return k + 1, true
	case rightOK:
		return k - 1, true
	default:
		return 0, false
	}
}

func backtrack(trace [][]int, n, m int) []op {
	x, y := n, m
	rev := make([]op, 0, n+m)

	for d := len(trace) - 1; d >= 0; d-- {
		w := trace[d]
		at := func(k int) int {
			i := k + d + 1
			if i < 0 || i >= len(w) {
				return -1
			}
			return w[i]
		}

		k := x - y
		prevK, _ := choose(at(k-1), at(k+1), k, n, m)
		prevX := at(prevK)
		prevY := prevX - prevK

		// Where the single edit of this round landed; the snake follows from here.
		startX, startY := prevX, prevY+1
		if prevK == k-1 {
			startX, startY = prevX+1, prevY
		}
		for x > startX && y > startY {
			x--
			y--
			rev = append(rev, op{kind: opEqual, ai: x, bi: y})
		}
		if d > 0 {
			if prevK == k-1 {
				rev = append(rev, op{kind: opDelete, ai: prevX})
			} else {
				rev = append(rev, op{kind: opInsert, bi: prevY})
			}
		}
		x, y = prevX, prevY
	}

	for i, j := 0, len(rev)-1; i < j; i, j = i+1, j-1 {
		rev[i], rev[j] = rev[j], rev[i]
	}
	return rev
}

// swapSides turns a script from b to a into the script from a to b.
func swapSides(script []op) []op {
	out := make([]op, len(script))
	for i, o := range script {
		switch o.kind {
		case opDelete:
			out[i] = op{kind: opInsert, bi: o.ai}
		case opInsert:
			out[i] = op{kind: opDelete, ai: o.bi}
		default:
			out[i] = op{kind: opEqual, ai: o.bi, bi: o.ai}
		}
	}
	return orderRuns(out)
}

// orderRuns stably moves deletions ahead of insertions inside each run of
// non-equal ops. Both sides still reconstruct, and the script stays minimal.
func orderRuns(script []op) []op {
	out := make([]op, 0, len(script))
	var ins []op
	for _, o := range script {
		switch o.kind {
		case opInsert:
			ins = append(ins, o)
		case opDelete:
			out = append(out, o)
		default:
			out = append(out, ins...)
			ins = ins[:0]
			out = append(out, o)
		}
	}
	return append(out, ins...)
}
