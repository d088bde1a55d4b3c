package guesslog

import (
	"testing"

	"github.com/scribl/scribl-client-go/pkg/scribdto"
)

func rosterOf(names map[string]string) Resolver {
	return func(id string) (string, bool) {
		name, ok := names[id]
		return name, ok
	}
}

func TestRecordResolvesAuthorName(t *testing.T) {
	l := NewLog(nil, rosterOf(map[string]string{"p1": "ada"}))

	l.Record(scribdto.GuessOccurred{PlayerID: "p1", Guess: "banana", IsCorrect: false})

	entries := l.Entries()
	if len(entries) != 1 {
		t.Fatalf("len = %d, want 1", len(entries))
	}
	if entries[0].PlayerName != "ada" || entries[0].Guess != "banana" || entries[0].IsCorrect {
		t.Fatalf("entry wrong: %+v", entries[0])
	}
}

func TestRecordDropsUnknownAuthor(t *testing.T) {
	l := NewLog(nil, rosterOf(nil))

	l.Record(scribdto.GuessOccurred{PlayerID: "ghost", Guess: "banana"})

	if l.Len() != 0 {
		t.Fatalf("unknown author produced %d entries, want 0", l.Len())
	}
}

func TestCorrectGuessOmitsText(t *testing.T) {
	l := NewLog(nil, rosterOf(map[string]string{"p1": "ada"}))

	l.Record(scribdto.GuessOccurred{PlayerID: "p1", Guess: "banana", IsCorrect: true})

	entries := l.Entries()
	if len(entries) != 1 || !entries[0].IsCorrect {
		t.Fatalf("entries wrong: %+v", entries)
	}
	if entries[0].Guess != "" {
		t.Fatalf("correct guess leaked its text: %q", entries[0].Guess)
	}
}

func TestEntriesOrderedOldestFirst(t *testing.T) {
	l := NewLog(nil, rosterOf(map[string]string{"p1": "ada", "p2": "grace"}))

	l.Record(scribdto.GuessOccurred{PlayerID: "p1", Guess: "one"})
	l.Record(scribdto.GuessOccurred{PlayerID: "p2", Guess: "two"})

	entries := l.Entries()
	if entries[0].Guess != "one" || entries[1].Guess != "two" {
		t.Fatalf("entries out of order: %+v", entries)
	}
}

func TestResetDiscardsFeed(t *testing.T) {
	l := NewLog(nil, rosterOf(map[string]string{"p1": "ada"}))
	l.Record(scribdto.GuessOccurred{PlayerID: "p1", Guess: "one"})

	l.Reset()
	if l.Len() != 0 {
		t.Fatalf("len = %d after reset", l.Len())
	}
}
