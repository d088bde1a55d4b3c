// Command scribl-check probes a scribl server: one REST snapshot fetch plus a
// short websocket observation window. Useful for verifying credentials and
// connectivity before pointing a bot at a game.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/scribl/scribl-client-go/internal/scriblfast"
	"github.com/scribl/scribl-client-go/pkg/scribdto"
)

type printBus struct{}

func (printBus) Publish(ev scribdto.Event) {
	log.Printf("event %s: %+v", ev.Type(), ev)
}

func main() {
	baseURL := os.Getenv("SCRIBL_BASE_URL")
	wsURL := os.Getenv("SCRIBL_WS_URL")
	gameID := os.Getenv("SCRIBL_GAME_ID")
	playerID := os.Getenv("SCRIBL_PLAYER_ID")
	token := os.Getenv("SCRIBL_AUTH_TOKEN")

	if baseURL == "" {
		log.Fatal("SCRIBL_BASE_URL is required")
	}
	if gameID == "" {
		log.Fatal("SCRIBL_GAME_ID is required")
	}

	headers := scriblfast.BearerHeader(token)
	client := scriblfast.NewClient(baseURL,
		scriblfast.WithHeaderProvider(headers),
		scriblfast.WithTimeout(8*time.Second),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	game, err := client.Game(ctx, gameID)
	cancel()
	if err != nil {
		log.Printf("game fetch error: %v", err)
	} else {
		log.Printf("game ok: id=%s state=%s round=%d/%d", game.ID, game.State, game.CurrentRound, game.Rounds)
	}

	ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
	players, err := client.Players(ctx, gameID)
	cancel()
	if err != nil {
		log.Printf("players fetch error: %v", err)
	} else {
		log.Printf("players ok: %d in roster", len(players))
	}

	if wsURL == "" || playerID == "" {
		log.Println("SCRIBL_WS_URL or SCRIBL_PLAYER_ID not set; skipping WS check")
		return
	}

	ws := scriblfast.NewGameSocket(wsURL, printBus{}, nil,
		scriblfast.WithSocketHeaderProvider(headers),
	)

	cctx, ccancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer ccancel()
	if err := ws.Connect(cctx, scriblfast.SessionKey{GameID: gameID, PlayerID: playerID}); err != nil {
		log.Printf("WS connect error: %v", err)
		return
	}
	log.Printf("WS state: %s", ws.State())

	// Observe for a short window
	t := time.NewTimer(10 * time.Second)
	<-t.C

	clctx, clcancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer clcancel()
	_ = ws.Close(clctx)
}
