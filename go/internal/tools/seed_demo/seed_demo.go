package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openpitch/scoreroom/go/internal/dbconfig"
	"github.com/openpitch/scoreroom/go/internal/room"
	"github.com/openpitch/scoreroom/go/internal/roomcode"
	"github.com/openpitch/scoreroom/go/internal/store/pgstore"
	"github.com/openpitch/scoreroom/go/internal/store/pgstore/migrations"
)

// Seeds a demo room with a few finished rounds so a fresh deployment has
// something to look at. Prints the room code on success.
func main() {
	ctx := context.Background()

	cfg := dbconfig.NewConfigFromEnv()
	dsn := cfg.DSN()

	if err := migrations.Up(dsn); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	st, err := pgstore.New(pool, dsn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open store: %v\n", err)
		os.Exit(1)
	}

	teams := []string{"Neural Nomads", "Prompt Pirates", "Tensor Titans", "Bug Hunters"}
	r, err := room.New(teams, time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "build room: %v\n", err)
		os.Exit(1)
	}

	code, err := roomcode.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "generate code: %v\n", err)
		os.Exit(1)
	}
	if err := st.CreateRoom(ctx, code, r); err != nil {
		fmt.Fprintf(os.Stderr, "create room: %v\n", err)
		os.Exit(1)
	}

	// two finished rounds plus a live one waiting for the host
	type round struct {
		round   int
		team    int
		ballots map[string]room.RatingMap
	}
	rounds := []round{
		{
			round: 0,
			team:  0,
			ballots: map[string]room.RatingMap{
				"demo-voter-1": {"problemFit": 5, "aiLeverage": 4, "creativity": 3, "execution": 5, "pitch": 2},
				"demo-voter-2": {"problemFit": 4, "aiLeverage": 4, "creativity": 4, "execution": 3, "pitch": 5},
			},
		},
		{
			round: 1,
			team:  2,
			ballots: map[string]room.RatingMap{
				"demo-voter-1": {"problemFit": 3, "aiLeverage": 5, "creativity": 5, "execution": 2, "pitch": 4},
			},
		},
	}

	for _, rd := range rounds {
		if _, err := st.UpdateRoom(ctx, code, room.SelectTeam(rd.round, rd.team)); err != nil {
			fmt.Fprintf(os.Stderr, "select team for round %d: %v\n", rd.round, err)
			os.Exit(1)
		}
		for voter, ballot := range rd.ballots {
			if err := st.PutVote(ctx, code, rd.round, voter, ballot); err != nil {
				fmt.Fprintf(os.Stderr, "write ballot for %s: %v\n", voter, err)
				os.Exit(1)
			}
		}
		if _, err := st.UpdateRoom(ctx, code, room.AdvanceRound()); err != nil {
			fmt.Fprintf(os.Stderr, "advance round %d: %v\n", rd.round, err)
			os.Exit(1)
		}
	}

	fmt.Printf("seeded demo room %s with %d teams and %d rounds\n", code, len(teams), len(rounds))
}
