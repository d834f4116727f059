// Package main provides the course material ingestion CLI.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/studyloop/course-rag-mcp/internal/embedding"
	ghclient "github.com/studyloop/course-rag-mcp/internal/github"
	"github.com/studyloop/course-rag-mcp/internal/ingest"
	"github.com/studyloop/course-rag-mcp/internal/markdown"
	"github.com/studyloop/course-rag-mcp/internal/metadata"
	"github.com/studyloop/course-rag-mcp/internal/storage"
)

var (
	flagUser       string
	flagCourse     string
	flagDir        string
	flagGitHub     string
	flagNoMetadata bool
)

var rootCmd = &cobra.Command{
	Use:   "course-sync",
	Short: "Course material ingestion tool",
	Long:  "CLI tool for managing per-user course material corpora in Qdrant",
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest course materials into a user's corpus",
	Long: `Chunks, embeds, and stores course materials for one (user, course) scope.

Materials come from either a local directory (--dir) or a GitHub
repository (--github owner/repo or owner/repo/path).

This command:
1. Connects to Qdrant and verifies health
2. Lists documents from the chosen source
3. Chunks each document and generates embeddings and metadata
4. Stores the chunks scoped to the given user and course

Environment variables:
  QDRANT_HOST    Qdrant hostname (default: localhost)
  QDRANT_PORT    Qdrant gRPC port (default: 6334)
  OPENAI_API_KEY OpenAI API key for embeddings (required)
  GITHUB_TOKEN   GitHub token for higher rate limits (optional)`,
	RunE: runIngest,
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all chunks for a user's course",
	RunE:  runClear,
}

func init() {
	ingestCmd.Flags().StringVar(&flagUser, "user", "", "user the corpus belongs to (required)")
	ingestCmd.Flags().StringVar(&flagCourse, "course", "", "course the materials belong to (required)")
	ingestCmd.Flags().StringVar(&flagDir, "dir", "", "local directory of course materials")
	ingestCmd.Flags().StringVar(&flagGitHub, "github", "", "GitHub source as owner/repo or owner/repo/path")
	ingestCmd.Flags().BoolVar(&flagNoMetadata, "no-metadata", false, "skip LLM metadata generation")
	ingestCmd.MarkFlagRequired("user")
	ingestCmd.MarkFlagRequired("course")

	clearCmd.Flags().StringVar(&flagUser, "user", "", "user the corpus belongs to (required)")
	clearCmd.Flags().StringVar(&flagCourse, "course", "", "course to clear (required)")
	clearCmd.MarkFlagRequired("user")
	clearCmd.MarkFlagRequired("course")

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(clearCmd)
}

func main() {
	// Load .env file if present (local development), ignore if missing (production)
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	start := time.Now()

	source, err := buildSource()
	if err != nil {
		return err
	}

	fmt.Printf("Ingesting course %q for user %q...\n", flagCourse, flagUser)
	fmt.Println()

	store, err := connectStorage(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	// Initialize embedding client
	client, err := embedding.NewClient()
	if err != nil {
		return fmt.Errorf("Failed to create embedding client: %w", err)
	}
	embedder := embedding.NewEmbedder(client, 0) // Use default batch size

	var generator *metadata.Generator
	if !flagNoMetadata {
		// Use the same OpenAI client from embeddings for metadata generation
		generator = metadata.NewGenerator(client.Client())
	}

	pipeline := ingest.NewPipeline(source, markdown.NewChunker(), embedder, generator, store, slog.Default())

	result, err := pipeline.IngestCourse(ctx, flagUser, flagCourse)
	if err != nil {
		return fmt.Errorf("Ingestion failed: %w", err)
	}

	fmt.Println()
	fmt.Println("Ingestion complete!")
	fmt.Printf("  Documents: %d/%d\n", result.SuccessfulDocs, result.TotalDocs)
	fmt.Printf("  Chunks: %d\n", result.TotalChunks)
	fmt.Printf("  Duration: %s\n", result.Duration.Round(time.Second))

	if len(result.FailedDocs) > 0 {
		fmt.Println()
		fmt.Println("Failed documents:")
		for _, failed := range result.FailedDocs {
			fmt.Printf("  - %s: %s\n", failed.Name, failed.Reason)
		}
	}

	fmt.Println()
	fmt.Printf("Total time: %s\n", time.Since(start).Round(time.Second))

	return nil
}

func runClear(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	store, err := connectStorage(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.ClearCourse(ctx, flagUser, flagCourse); err != nil {
		return fmt.Errorf("Failed to clear course: %w", err)
	}

	fmt.Printf("Cleared course %q for user %q\n", flagCourse, flagUser)
	return nil
}

// connectStorage dials Qdrant, verifies health, and ensures the collection
// exists.
func connectStorage(ctx context.Context) (*storage.QdrantStorage, error) {
	qdrantHost := getEnv("QDRANT_HOST", "localhost")
	qdrantPort := getEnvInt("QDRANT_PORT", 6334)

	fmt.Printf("Connecting to Qdrant at %s:%d...\n", qdrantHost, qdrantPort)
	store, err := storage.NewQdrantStorage(qdrantHost, qdrantPort)
	if err != nil {
		return nil, fmt.Errorf("Failed to connect to Qdrant: %w", err)
	}

	if err := store.Health(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("Qdrant health check failed: %w", err)
	}
	fmt.Println("Qdrant healthy")

	if err := store.EnsureCollection(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("Failed to ensure collection: %w", err)
	}

	return store, nil
}

// buildSource picks the document source from --dir or --github. Exactly one
// must be set.
func buildSource() (ingest.Source, error) {
	switch {
	case flagDir != "" && flagGitHub != "":
		return nil, fmt.Errorf("--dir and --github are mutually exclusive")
	case flagDir != "":
		return ingest.NewDirSource(flagDir), nil
	case flagGitHub != "":
		parts := strings.SplitN(flagGitHub, "/", 3)
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("--github must be owner/repo or owner/repo/path")
		}
		basePath := ""
		if len(parts) == 3 {
			basePath = parts[2]
		}
		client, err := ghclient.NewClient()
		if err != nil {
			return nil, fmt.Errorf("Failed to create GitHub client: %w", err)
		}
		fetcher := ghclient.NewFetcher(client, parts[0], parts[1], basePath)
		return ingest.NewGitHubSource(fetcher), nil
	default:
		return nil, fmt.Errorf("one of --dir or --github is required")
	}
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		var i int
		if _, err := fmt.Sscanf(v, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}
