// Command scribl-bot is a headless player for the scribl drawing game. It
// creates or joins a game, keeps the local view in sync over the persistent
// connection, and plays by itself: starting rounds, picking words, doodling
// when it holds the turn and guessing when it does not.
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	appcfg "github.com/scribl/scribl-client-go/internal/config"
	"github.com/scribl/scribl-client-go/internal/obslog"
	"github.com/scribl/scribl-client-go/internal/render"
	"github.com/scribl/scribl-client-go/internal/scriblfast"
	"github.com/scribl/scribl-client-go/internal/session"
	"github.com/scribl/scribl-client-go/internal/wordcat"
	"github.com/scribl/scribl-client-go/pkg/scribdto"
)

const canvasSize = 780

func main() {
	if err := obslog.InitFromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "logger init: %v\n", err)
		os.Exit(1)
	}

	root := &cli.Command{
		Name:  "scribl-bot",
		Usage: "headless client for the scribl drawing-and-guessing game",
		Commands: []*cli.Command{
			newCommand(),
			joinCommand(),
			playCommand(),
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := root.Run(ctx, os.Args); err != nil {
		obslog.L().Error("bot_exit", zap.Error(err))
		os.Exit(1)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "new",
		Usage: "create a game and join it",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Usage: "player display name (defaults to config)"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := appcfg.Load()
			if err != nil {
				return err
			}
			rest := scriblfast.NewClient(cfg.ServerBaseURL)

			game, err := rest.CreateGame(ctx)
			if err != nil {
				return fmt.Errorf("create game: %w", err)
			}
			name := c.String("name")
			if name == "" {
				name = cfg.PlayerName
			}
			join, err := rest.JoinGame(ctx, game.ID, name)
			if err != nil {
				return fmt.Errorf("join game: %w", err)
			}

			fmt.Printf("game:   %s\nplayer: %s\ntoken:  %s\n", game.ID, join.Player.ID, join.Token)
			return nil
		},
	}
}

func joinCommand() *cli.Command {
	return &cli.Command{
		Name:  "join",
		Usage: "join an existing game",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "game", Usage: "game id", Required: true},
			&cli.StringFlag{Name: "name", Usage: "player display name (defaults to config)"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := appcfg.Load()
			if err != nil {
				return err
			}
			rest := scriblfast.NewClient(cfg.ServerBaseURL)

			name := c.String("name")
			if name == "" {
				name = cfg.PlayerName
			}
			join, err := rest.JoinGame(ctx, c.String("game"), name)
			if err != nil {
				return fmt.Errorf("join game: %w", err)
			}

			fmt.Printf("game:   %s\nplayer: %s\ntoken:  %s\n", c.String("game"), join.Player.ID, join.Token)
			return nil
		},
	}
}

func playCommand() *cli.Command {
	return &cli.Command{
		Name:  "play",
		Usage: "run the sync loop and play autonomously",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "game", Usage: "game id", Required: true},
			&cli.StringFlag{Name: "player", Usage: "player id", Required: true},
			&cli.StringFlag{Name: "token", Usage: "bearer token (defaults to SCRIBL_AUTH_TOKEN)"},
			&cli.BoolFlag{Name: "auto-start", Usage: "start the game once a second player joins"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := appcfg.Load()
			if err != nil {
				return err
			}
			token := c.String("token")
			if token == "" {
				token = cfg.AuthToken
			}
			return play(ctx, cfg, scriblfast.SessionKey{
				GameID:   c.String("game"),
				PlayerID: c.String("player"),
			}, token, c.Bool("auto-start"))
		},
	}
}

func play(ctx context.Context, cfg *appcfg.AppConfig, key scriblfast.SessionKey, token string, autoStart bool) error {
	logger := obslog.L()

	words, err := wordcat.New(cfg.WordlistDir)
	if err != nil {
		return fmt.Errorf("word catalog: %w", err)
	}

	headers := scriblfast.BearerHeader(token)
	rest := scriblfast.NewClient(cfg.ServerBaseURL, scriblfast.WithHeaderProvider(headers))
	bus := session.NewBus(logger)
	sock := scriblfast.NewGameSocket(cfg.ServerWSURL, bus, logger,
		scriblfast.WithSocketHeaderProvider(headers),
		scriblfast.WithReconnect(cfg.ReconnectAttempts),
	)

	sess := session.New(key, rest, sock, bus, logger)
	sess.OnCanvasReset = func(strokes []scribdto.Stroke) {
		saveSnapshot(cfg.SnapshotDir, strokes, logger)
	}

	if err := sess.Start(ctx); err != nil {
		return err
	}
	active := scribdto.ActiveStateActive
	if _, err := rest.UpdatePlayer(ctx, key.PlayerID, scribdto.PlayerEdit{ActiveState: &active}); err != nil {
		logger.Warn("mark_active_failed", zap.Error(err))
	}
	defer func() {
		cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = sess.Stop(cctx)
	}()

	tick := time.NewTicker(cfg.GuessInterval)
	defer tick.Stop()

	started := false
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick.C:
		}
		if !sess.Loaded() {
			continue
		}
		game, ok := sess.Store().Game()
		if !ok {
			continue
		}

		switch game.State {
		case scribdto.StateWaitingForPlayers:
			if autoStart && !started && len(sess.Store().Players()) >= 2 {
				if err := sess.StartGame(ctx); err != nil {
					logger.Warn("start_game_failed", zap.Error(err))
					continue
				}
				started = true
			}
		case scribdto.StateSelectingWord:
			if sess.IsDrawer() {
				word := words.Random(1)[0]
				if err := sess.SelectWord(ctx, word); err != nil {
					logger.Warn("select_word_failed", zap.Error(err))
				} else {
					logger.Info("word_selected", zap.String("word", word))
				}
			}
		case scribdto.StateDrawing:
			if sess.IsDrawer() {
				doodle(sess, cfg.StrokeSize)
			} else if err := sess.Guess(ctx, words.Random(1)[0]); err != nil {
				logger.Warn("guess_failed", zap.Error(err))
			}
		case scribdto.StateEnd:
			logger.Info("game_over", zap.String("game", key.GameID))
			return nil
		}
	}
}

// doodle draws one random-walk stroke. Each appended point ships the whole
// stroke to the observers.
func doodle(sess *session.Session, size int) {
	rgb := [3]int{rand.Intn(256), rand.Intn(256), rand.Intn(256)}
	index := sess.BeginStroke(size, rgb)

	x := float32(rand.Intn(canvasSize))
	y := float32(rand.Intn(canvasSize))
	for i := 0; i < 12; i++ {
		x = clamp(x+float32(rand.Intn(81)-40), 0, canvasSize)
		y = clamp(y+float32(rand.Intn(81)-40), 0, canvasSize)
		_ = sess.Draw(index, scribdto.Point{X: x, Y: y})
	}
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func saveSnapshot(dir string, strokes []scribdto.Stroke, logger *zap.Logger) {
	data, err := render.RenderPNG(strokes, canvasSize, canvasSize)
	if err != nil {
		logger.Warn("snapshot_render_failed", zap.Error(err))
		return
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Warn("snapshot_dir_failed", zap.Error(err))
		return
	}
	name := filepath.Join(dir, "canvas-"+time.Now().Format("20060102-150405")+".png")
	if err := os.WriteFile(name, data, 0o644); err != nil {
		logger.Warn("snapshot_write_failed", zap.Error(err))
		return
	}
	logger.Info("snapshot_saved", zap.String("file", name), zap.Int("strokes", len(strokes)))
}
