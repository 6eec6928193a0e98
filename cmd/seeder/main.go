package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/mauv0809/chess-duels/internal/ledger"
	"github.com/mauv0809/chess-duels/internal/store"
	"github.com/spf13/cobra"
)

var (
	dataPath string
	users    []string
	numGames int
	reset    bool
)

var rootCmd = &cobra.Command{
	Use:   "seeder",
	Short: "Seed the duels data file with users and synthetic games",
	Long: `Writes users, Lichess links and randomly generated duel results into
the data file the server reads. Stop the server first: the file has a single writer.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return seed(cmd.Context())
	},
}

func init() {
	// Simplified config loading for the script
	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file found, reading from environment variables")
	}
	defaultPath := "data/db.json"
	if v, ok := os.LookupEnv("DATA_PATH"); ok && v != "" {
		defaultPath = v
	}

	rootCmd.Flags().StringVar(&dataPath, "data", defaultPath, "Path of the data file")
	rootCmd.Flags().StringSliceVar(&users, "user", nil, "User to seed as name[:lichess]; repeatable")
	rootCmd.Flags().IntVar(&numGames, "games", 0, "Number of synthetic games between seeded users")
	rootCmd.Flags().BoolVar(&reset, "reset", true, "Discard the existing document before seeding")
}

type seedUser struct {
	name   string
	handle string
}

func parseUsers(raw []string) ([]seedUser, error) {
	out := make([]seedUser, 0, len(raw))
	for _, r := range raw {
		name, handle, _ := strings.Cut(strings.TrimSpace(r), ":")
		if name == "" {
			return nil, fmt.Errorf("invalid --user value %q", r)
		}
		out = append(out, seedUser{name: name, handle: handle})
	}
	return out, nil
}

func seed(ctx context.Context) error {
	log.Info("Starting data seeder...", "path", dataPath)
	seedUsers, err := parseUsers(users)
	if err != nil {
		return err
	}

	st, err := store.Open(dataPath)
	if err != nil {
		return fmt.Errorf("failed to open data file: %w", err)
	}
	defer st.Close()

	startTime := time.Now()
	doc, err := st.Mutate(ctx, func(doc *store.Document) error {
		if reset {
			*doc = *store.NewDocument()
		}
		for _, su := range seedUsers {
			i, ok := doc.FindUser(su.name)
			if !ok {
				doc.Users = append(doc.Users, store.User{ID: uuid.NewString(), Username: su.name, CreatedAt: startTime.UTC()})
				i = len(doc.Users) - 1
			}
			if su.handle != "" {
				doc.Users[i].Lichess = &store.LichessLink{Username: su.handle, LinkedAt: startTime.UTC()}
			}
		}

		links := doc.LinkedAccounts()
		handles := make([]string, 0, len(links))
		for h := range links {
			handles = append(handles, h)
		}
		if numGames == 0 {
			return nil
		}
		if len(handles) < 2 {
			log.Warn("Fewer than two linked users, skipping synthetic games")
			return nil
		}

		resolve := ledger.ResolverFromLinks(links)
		winners := []ledger.Winner{ledger.WinnerWhite, ledger.WinnerBlack, ledger.WinnerNone}
		folded := 0
		for range numGames {
			perm := rand.Perm(len(handles))
			g := ledger.Game{
				ID:        uuid.NewString()[:8],
				White:     handles[perm[0]],
				Black:     handles[perm[1]],
				Winner:    winners[rand.Intn(len(winners))],
				CreatedAt: startTime.Add(-time.Duration(rand.Intn(30*24)) * time.Hour).UnixMilli(),
			}
			if doc.Duels.ApplyGame(g, resolve) {
				folded++
			}
		}
		log.Info("Generated synthetic games", "folded", folded)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to seed data file: %w", err)
	}

	log.Info("Successfully seeded data file.", "users", len(doc.Users), "pairs", len(doc.Duels.Pairs), "duration", time.Since(startTime))
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Seeding failed: %s\n", err)
		os.Exit(1)
	}
}
