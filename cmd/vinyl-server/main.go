package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tmercier/vinyl-vault/internal/applemusic"
	"github.com/tmercier/vinyl-vault/internal/auth"
	"github.com/tmercier/vinyl-vault/internal/boot"
	"github.com/tmercier/vinyl-vault/internal/discogs"
	"github.com/tmercier/vinyl-vault/internal/gemini"
	"github.com/tmercier/vinyl-vault/internal/logging"
	"github.com/tmercier/vinyl-vault/internal/review"
	"github.com/tmercier/vinyl-vault/internal/store"
	"github.com/tmercier/vinyl-vault/internal/value"
)

// CLI flags
var (
	portFlag    int
	envFileFlag string
)

var rootCmd = &cobra.Command{
	Use:   "vinyl-server",
	Short: "Backend API for the vinyl collection manager",
	Long: `Vinyl Server exposes the collection manager API: Discogs collection
browsing, Gemini-generated album critiques, estimated resale values, and
Apple Music link resolution.

Examples:
  vinyl-server
  vinyl-server --port 9090
  vinyl-server --env-file .env.local`,
	Run: runMain,
}

func init() {
	rootCmd.Flags().IntVar(&portFlag, "port", 8080, "Port to listen on")
	rootCmd.Flags().StringVar(&envFileFlag, "env-file", "", "Optional .env file to load before startup")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// discogsAPI is the slice of the Discogs client the handlers use, kept as an
// interface so tests can stand in a fake.
type discogsAPI interface {
	GetRelease(ctx context.Context, releaseID string) (*discogs.Release, error)
	CollectionReleases(ctx context.Context, username string, folderID, page, perPage int) (*discogs.CollectionPage, error)
	Folders(ctx context.Context, username string) ([]discogs.Folder, error)
}

// server bundles the request handlers' dependencies.
type server struct {
	reviews  *review.Service
	values   *value.Service
	creds    store.CredentialStore
	verifier *auth.Verifier
	apple    *applemusic.Client

	// catalogue builds a Discogs client for a user's token; swapped out
	// in tests.
	catalogue func(token string) discogsAPI

	// sleep is the retry backoff hook, replaced in tests.
	sleep func(context.Context, time.Duration) error
}

func runMain(cmd *cobra.Command, args []string) {
	initStart := time.Now()
	logging.Init()

	if envFileFlag != "" {
		if err := godotenv.Load(envFileFlag); err != nil {
			log.Fatal().Err(err).Str("file", envFileFlag).Msg("Failed to load env file")
		}
	} else {
		// Best-effort local .env, ignored when absent.
		_ = godotenv.Load()
	}

	aws := boot.InitAWS()
	dynamoStore := boot.InitStore(aws.Config)
	boot.LoadGeminiKey(aws.SSM)
	jwtSecret := boot.LoadJWTSecret(aws.SSM)

	ctx := context.Background()
	geminiClient, err := gemini.NewClient(ctx, os.Getenv("GEMINI_API_KEY"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Gemini client")
	}

	catalogue := func(token string) review.Catalogue {
		return discogs.NewClient(token)
	}

	s := &server{
		reviews:  review.NewService(dynamoStore, dynamoStore, geminiClient, catalogue),
		values:   value.NewService(dynamoStore, dynamoStore, catalogue),
		creds:    dynamoStore,
		verifier: auth.NewVerifier(jwtSecret),
		apple:    applemusic.NewClient(),
		catalogue: func(token string) discogsAPI {
			return discogs.NewClient(token)
		},
		sleep: sleepCtx,
	}

	handler := withRequestID(withLogging(withCORS(withMetrics(s.routes()))))

	addr := fmt.Sprintf(":%d", portFlag)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info().Msg("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	reviewsTable, credentialsTable := boot.TableNames()
	boot.StartupLog("vinyl-server", initStart).
		CommitHash(commitHash).
		BuildTime(buildTime).
		DynamoTable("reviews", reviewsTable).
		DynamoTable("credentials", credentialsTable).
		Feature("geminiReviews", true).
		Feature("appleMusicSearch", true).
		Config("model", gemini.GetModelName()).
		Config("port", fmt.Sprintf("%d", portFlag)).
		Log()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server failed")
	}
}

// routes wires the API surface. Handlers that need a session run behind
// s.authed, which resolves the bearer token to a user ID.
func (s *server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/apple-music/search", s.handleAppleMusicSearch)

	mux.HandleFunc("GET /api/credentials", s.authed(s.handleCredentialsGet))
	mux.HandleFunc("POST /api/credentials", s.authed(s.handleCredentialsPut))

	mux.HandleFunc("GET /api/collection", s.authed(s.handleCollection))
	mux.HandleFunc("GET /api/collection/folders", s.authed(s.handleFolders))

	mux.HandleFunc("GET /api/album/{id}", s.authed(s.handleAlbum))
	mux.HandleFunc("GET /api/album/{id}/review", s.authed(s.handleReviewGet))
	mux.HandleFunc("POST /api/album/{id}/review", s.authed(s.handleReviewCreate))
	mux.HandleFunc("DELETE /api/album/{id}/review", s.authed(s.handleReviewDelete))
	mux.HandleFunc("GET /api/album/{id}/value", s.authed(s.handleValueGet))
	mux.HandleFunc("POST /api/album/{id}/value", s.authed(s.handleValueRefresh))
	mux.HandleFunc("POST /api/values/refresh", s.authed(s.handleValuesRefreshAll))

	return mux
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
