package gamestate

import (
	"testing"
	"time"

	"github.com/scribl/scribl-client-go/pkg/scribdto"
)

func strptr(s string) *string { return &s }

func intptr(n int) *int { return &n }

func stateptr(s scribdto.GameState) *scribdto.GameState { return &s }

func seededStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(nil)
	s.SetGame(scribdto.Game{
		ID:     "g1",
		Rounds: 3,
		State:  scribdto.StateWaitingForPlayers,
	})
	s.SetPlayers([]scribdto.Player{
		{ID: "p1", Name: "ada", Score: 0, ActiveState: scribdto.ActiveStateActive, DateCreated: time.Unix(100, 0)},
		{ID: "p2", Name: "grace", Score: 0, ActiveState: scribdto.ActiveStateActive, DateCreated: time.Unix(200, 0)},
	})
	return s
}

func TestLoadedRequiresBothSnapshots(t *testing.T) {
	s := NewStore(nil)
	if s.Loaded() {
		t.Fatal("empty store reports loaded")
	}
	s.SetGame(scribdto.Game{ID: "g1"})
	if s.Loaded() {
		t.Fatal("store reports loaded with only the game half")
	}
	s.SetPlayers(nil)
	if !s.Loaded() {
		t.Fatal("store not loaded after both snapshot halves")
	}
}

func TestAddPlayerThenPatchOverlay(t *testing.T) {
	s := seededStore(t)
	s.AddPlayer(scribdto.Player{ID: "p3", Name: "alan", ActiveState: scribdto.ActiveStateCreating, DateCreated: time.Unix(300, 0)})

	active := scribdto.ActiveStateActive
	s.ApplyPlayerPatch("p3", scribdto.PlayerPatch{Score: intptr(40), ActiveState: &active})

	p, ok := s.Player("p3")
	if !ok {
		t.Fatal("added player missing")
	}
	if p.Name != "alan" || p.Score != 40 || p.ActiveState != scribdto.ActiveStateActive {
		t.Fatalf("patch overlay wrong: %+v", p)
	}
}

func TestAddDuplicatePlayerKeepsExisting(t *testing.T) {
	s := seededStore(t)
	s.AddPlayer(scribdto.Player{ID: "p1", Name: "impostor", Score: 999})

	p, _ := s.Player("p1")
	if p.Name != "ada" || p.Score != 0 {
		t.Fatalf("duplicate add overwrote player: %+v", p)
	}
	if got := len(s.Players()); got != 2 {
		t.Fatalf("roster size = %d, want 2", got)
	}
}

func TestSequentialGameUpdatesLastWriteWins(t *testing.T) {
	s := seededStore(t)

	s.ApplyGameUpdate(scribdto.GamePatch{TurnSet: true, Turn: strptr("p1")})
	s.ApplyGameUpdate(scribdto.GamePatch{Rounds: intptr(5)})
	s.ApplyGameUpdate(scribdto.GamePatch{TurnSet: true, Turn: strptr("p2")})

	g, ok := s.Game()
	if !ok {
		t.Fatal("game missing")
	}
	if g.Rounds != 5 {
		t.Fatalf("rounds = %d, want 5", g.Rounds)
	}
	if s.Turn() != "p2" {
		t.Fatalf("turn = %q, want p2", s.Turn())
	}
	// Untouched fields survive every patch.
	if g.ID != "g1" || g.State != scribdto.StateWaitingForPlayers {
		t.Fatalf("patch clobbered unrelated fields: %+v", g)
	}
}

func TestExplicitNullTurnClearsDrawer(t *testing.T) {
	s := seededStore(t)
	s.ApplyGameUpdate(scribdto.GamePatch{TurnSet: true, Turn: strptr("p1")})
	s.ApplyGameUpdate(scribdto.GamePatch{TurnSet: true, Turn: nil})
	if s.Turn() != "" {
		t.Fatalf("turn = %q after explicit clear", s.Turn())
	}
}

func TestGameUpdateBeforeSnapshotIsDropped(t *testing.T) {
	s := NewStore(nil)
	s.ApplyGameUpdate(scribdto.GamePatch{State: stateptr(scribdto.StateDrawing)})
	if _, ok := s.Game(); ok {
		t.Fatal("patch materialised a game out of nothing")
	}
}

func TestScoreUpdateAppliesPerEntry(t *testing.T) {
	s := seededStore(t)
	s.ApplyScoreUpdate(map[string]int{"p1": 120, "ghost": 50})

	p1, _ := s.Player("p1")
	if p1.Score != 120 {
		t.Fatalf("p1 score = %d, want 120", p1.Score)
	}
	p2, _ := s.Player("p2")
	if p2.Score != 0 {
		t.Fatalf("p2 score changed without an entry: %d", p2.Score)
	}
	if _, ok := s.Player("ghost"); ok {
		t.Fatal("unknown id in score map created a player")
	}
}

func TestPlayerPatchUnknownIDIsNoOp(t *testing.T) {
	s := seededStore(t)
	s.ApplyPlayerPatch("ghost", scribdto.PlayerPatch{Score: intptr(10)})
	if got := len(s.Players()); got != 2 {
		t.Fatalf("roster size = %d after unknown-id patch, want 2", got)
	}
}

func TestPlayersOrderedByJoinTime(t *testing.T) {
	s := seededStore(t)
	s.AddPlayer(scribdto.Player{ID: "p0", Name: "early", ActiveState: scribdto.ActiveStateActive, DateCreated: time.Unix(50, 0)})

	roster := s.Players()
	want := []string{"p0", "p1", "p2"}
	for i, id := range want {
		if roster[i].ID != id {
			t.Fatalf("roster[%d] = %s, want %s (full: %+v)", i, roster[i].ID, id, roster)
		}
	}
}

func TestClearResetsEverything(t *testing.T) {
	s := seededStore(t)
	s.Clear()
	if s.Loaded() {
		t.Fatal("store loaded after clear")
	}
	if _, ok := s.Game(); ok {
		t.Fatal("game survived clear")
	}
	if len(s.Players()) != 0 {
		t.Fatal("roster survived clear")
	}
}
