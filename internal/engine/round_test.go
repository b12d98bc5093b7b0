package engine

import "testing"

func TestSelectionStateMachine(t *testing.T) {
	r := boardRound(stripeRows(6), nil)

	// Idle + select(a) -> FirstSelected(a)
	res := r.Select(1, 1)
	if !res.Accepted || res.Selected == nil || *res.Selected != (CellRef{Row: 1, Col: 1}) {
		t.Fatalf("first select: %+v", res)
	}

	// same cell -> deselect
	res = r.Select(1, 1)
	if !res.Accepted || res.Selected != nil {
		t.Fatalf("deselect: %+v", res)
	}

	// non-adjacent second select re-selects
	r.Select(1, 1)
	res = r.Select(4, 4)
	if res.Swapped || res.Selected == nil || *res.Selected != (CellRef{Row: 4, Col: 4}) {
		t.Fatalf("re-select: %+v", res)
	}

	// diagonal is not adjacent
	res = r.Select(5, 5)
	if res.Swapped || res.Selected == nil || *res.Selected != (CellRef{Row: 5, Col: 5}) {
		t.Fatalf("diagonal should re-select: %+v", res)
	}
}

func TestSelectIgnoresBlockedAndOutOfBounds(t *testing.T) {
	rows := []string{
		"RBGYRB",
		"GYRBGY",
		"YB#YRB",
		"GYBRGY",
		"RBGYRB",
		"GYRBGY",
	}
	r := boardRound(rows, nil)
	if res := r.Select(2, 2); res.Accepted {
		t.Error("select on blocked cell must be ignored")
	}
	if res := r.Select(-1, 0); res.Accepted {
		t.Error("select out of bounds must be ignored")
	}
	if res := r.Select(6, 6); res.Accepted {
		t.Error("select out of bounds must be ignored")
	}
	// pending selection survives an ignored event
	r.Select(0, 0)
	res := r.Select(2, 2)
	if res.Accepted || res.Selected == nil || *res.Selected != (CellRef{Row: 0, Col: 0}) {
		t.Errorf("pending selection lost on ignored select: %+v", res)
	}
	if s := r.Session(); s.MovesLeft != 30 {
		t.Errorf("ignored selects must not consume moves, left=%d", s.MovesLeft)
	}
}

func TestFailedSwapRevertsAndConsumesMove(t *testing.T) {
	r := boardRound(stripeRows(6), nil)
	r.session.Combo = 2.5 // pretend an earlier cascade raised it

	before := map[CellRef]string{}
	for row := 0; row < 6; row++ {
		for col := 0; col < 6; col++ {
			tl, _ := r.grid.TileAt(row, col)
			before[CellRef{Row: row, Col: col}] = tl.TypeID
		}
	}

	r.Select(0, 0)
	res := r.Select(0, 1)
	if !res.Swapped || res.HadMatches || !res.Reverted {
		t.Fatalf("no-match swap should revert: %+v", res)
	}
	for ref, id := range before {
		tl, _ := r.grid.TileAt(ref.Row, ref.Col)
		if tl.TypeID != id {
			t.Fatalf("cell %v changed after revert: %q != %q", ref, tl.TypeID, id)
		}
	}
	s := r.Session()
	if s.MovesLeft != 29 {
		t.Errorf("failed swap must still consume a move, left=%d", s.MovesLeft)
	}
	if s.Combo != 1 {
		t.Errorf("failed swap must reset combo, got %v", s.Combo)
	}
	if s.Score != 0 || s.Matches != 0 {
		t.Errorf("failed swap must not score: %+v", s)
	}
}

func TestMoveConservation(t *testing.T) {
	r := boardRound(stripeRows(6), nil)
	const n = 5
	for i := 0; i < n; i++ {
		r.Select(0, 0)
		if res := r.Select(0, 1); !res.Swapped || !res.Reverted {
			t.Fatalf("iteration %d: expected a reverted swap, got %+v", i, res)
		}
	}
	if s := r.Session(); s.MovesLeft != 30-n {
		t.Errorf("moves left = %d, want %d", s.MovesLeft, 30-n)
	}
}

func TestWinOnTargetReached(t *testing.T) {
	var rec Recorder
	r := boardRound(scenarioBoard(), scenarioRefill(), withTarget(1))
	r.hooks = rec.Hooks()

	r.Select(2, 3)
	res := r.Select(3, 3)
	if res.Outcome != OutcomeWon {
		t.Fatalf("outcome = %v, want won", res.Outcome)
	}

	var ended *Event
	for _, ev := range rec.Drain() {
		if ev.Type == "roundEnded" {
			e := ev
			ended = &e
		}
	}
	if ended == nil || ended.Success == nil || !*ended.Success {
		t.Fatalf("missing or wrong roundEnded event: %+v", ended)
	}
	if ended.FinalScore != 60 {
		t.Errorf("final score = %d, want 60", ended.FinalScore)
	}

	// terminal: further selects are ignored
	if res := r.Select(0, 0); res.Accepted {
		t.Error("selects after a win must be ignored")
	}
	if s := r.Session(); s.MovesLeft != 29 {
		t.Errorf("moves left changed after terminal state: %d", s.MovesLeft)
	}
}

func TestLoseWithConsolation(t *testing.T) {
	var rec Recorder
	r := boardRound(scenarioBoard(), scenarioRefill(), withMoves(1))
	r.hooks = rec.Hooks()

	r.Select(2, 3)
	res := r.Select(3, 3)
	if res.Outcome != OutcomeLost {
		t.Fatalf("outcome = %v, want lost", res.Outcome)
	}
	s := r.Session()
	if s.MovesLeft != 0 {
		t.Errorf("moves left = %d, want 0", s.MovesLeft)
	}
	// 60 from the resolve plus a 50% consolation for matching on the
	// final move
	if s.Score != 90 {
		t.Errorf("score = %d, want 90", s.Score)
	}

	var ended *Event
	for _, ev := range rec.Drain() {
		if ev.Type == "roundEnded" {
			e := ev
			ended = &e
		}
	}
	if ended == nil || ended.Success == nil || *ended.Success {
		t.Fatalf("missing or wrong roundEnded event: %+v", ended)
	}
	if ended.FinalScore != 90 {
		t.Errorf("final score = %d, want 90", ended.FinalScore)
	}

	if res := r.Select(1, 1); res.Accepted {
		t.Error("selects after a loss must be ignored")
	}
}

func TestLoseWithoutMatchNoConsolation(t *testing.T) {
	r := boardRound(stripeRows(6), nil, withMoves(1))
	r.Select(0, 0)
	res := r.Select(0, 1)
	if res.Outcome != OutcomeLost {
		t.Fatalf("outcome = %v, want lost", res.Outcome)
	}
	if s := r.Session(); s.Score != 0 {
		t.Errorf("score = %d, want 0 (no consolation without a match)", s.Score)
	}
}

func TestRecorderEventStream(t *testing.T) {
	var rec Recorder
	r := boardRound(scenarioBoard(), scenarioRefill())
	r.hooks = rec.Hooks()

	r.Select(2, 3)
	r.Select(3, 3)

	events := rec.Drain()
	types := map[string]int{}
	for _, ev := range events {
		types[ev.Type]++
	}
	if types["scoreDelta"] == 0 || types["movesLeftChanged"] == 0 || types["matchProgress"] == 0 {
		t.Errorf("expected score/moves/progress events, got %v", types)
	}
	if len(rec.Drain()) != 0 {
		t.Error("drain must reset the buffer")
	}
}

func TestSnapshotShape(t *testing.T) {
	rows := []string{
		"RBGYRB",
		"GYRBGY",
		"YB#YRB",
		"GYBRGY",
		"RBGYRB",
		"GYRBGY",
	}
	r := boardRound(rows, nil)
	r.Select(0, 0)
	snap := r.Snapshot()
	if snap.GridSize != 6 || len(snap.Cells) != 6 {
		t.Fatalf("bad snapshot dims: %+v", snap.GridSize)
	}
	if snap.Cells[2][2] != nil {
		t.Error("blocked cell must render as nil")
	}
	if len(snap.Blocked) != 1 || snap.Blocked[0] != (CellRef{Row: 2, Col: 2}) {
		t.Errorf("blocked list = %v", snap.Blocked)
	}
	if snap.Cells[0][0] == nil || snap.Cells[0][0].Color != "#e74c3c" {
		t.Errorf("cell (0,0) = %+v, want ruby hex color", snap.Cells[0][0])
	}
	if snap.Selected == nil || *snap.Selected != (CellRef{Row: 0, Col: 0}) {
		t.Errorf("selected = %v", snap.Selected)
	}
	if snap.State != "playing" || snap.MovesLeft != 30 {
		t.Errorf("state=%q moves=%d", snap.State, snap.MovesLeft)
	}
}
