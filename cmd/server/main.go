package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/lighthouse-maranatha/lyricdeck/internal/app"
	"github.com/lighthouse-maranatha/lyricdeck/pkg/googleauth"
	"github.com/lighthouse-maranatha/lyricdeck/pkg/logger"
	"github.com/lighthouse-maranatha/lyricdeck/pkg/lyricdeck/agent"
	"github.com/lighthouse-maranatha/lyricdeck/pkg/lyricdeck/render"
	"github.com/lighthouse-maranatha/lyricdeck/pkg/lyricdeck/source"
	"github.com/lighthouse-maranatha/lyricdeck/pkg/lyricdeck/storage"
)

var (
	port           int
	dbPath         string
	outputDir      string
	credentials    string
	tokenFile      string
	driveFolder    string
	slidesFolder   string
	model          string
	offline        bool
	allowedOrigins string
)

func init() {
	// .env must be loaded before the flag defaults read the environment.
	_ = godotenv.Load()

	flag.IntVar(&port, "port", 8080, "HTTP server port")
	flag.StringVar(&dbPath, "db", getEnvOrDefault("LYRICDECK_DB_PATH", storage.DefaultDBFile), "Path to SQLite database")
	flag.StringVar(&outputDir, "out", getEnvOrDefault("LYRICDECK_OUTPUT_DIR", "decks"), "Directory for offline (dry-run) decks")
	flag.StringVar(&credentials, "credentials", getEnvOrDefault("GOOGLE_CREDENTIALS_FILE", googleauth.DefaultCredentialsFile), "Google OAuth client secrets")
	flag.StringVar(&tokenFile, "token", getEnvOrDefault("GOOGLE_TOKEN_FILE", googleauth.DefaultTokenFile), "Google OAuth token cache")
	flag.StringVar(&driveFolder, "drive-folder", getEnvOrDefault("LYRICDECK_DRIVE_FOLDER", source.DefaultLyricsFolderID), "Drive folder holding lyric files")
	flag.StringVar(&slidesFolder, "slides-folder", getEnvOrDefault("LYRICDECK_SLIDES_FOLDER", render.DefaultTargetFolderID), "Drive folder for new presentations")
	flag.StringVar(&model, "model", getEnvOrDefault("LYRICDECK_MODEL", agent.DefaultModel), "Model used by the assistant")
	flag.BoolVar(&offline, "offline", false, "Do not use Google Drive or Slides")
	flag.StringVar(&allowedOrigins, "origins", "*", "Comma-separated list of allowed CORS origins (use * for all)")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// orchestrator adapts the agent package to the server's Assistant.
type orchestrator struct {
	*agent.Orchestrator
}

func (o orchestrator) StartConversation() Conversation {
	return o.NewConversation()
}

func main() {
	flag.Parse()

	// Parse allowed origins
	var origins []string
	if allowedOrigins == "*" {
		origins = []string{"*"}
	} else {
		origins = strings.Split(allowedOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
	}

	// The server cannot run the consent flow; authorize once with the CLI.
	a, err := app.Build(context.Background(), app.Config{
		DBPath:          dbPath,
		OutputDir:       outputDir,
		Offline:         offline,
		CredentialsFile: credentials,
		TokenFile:       tokenFile,
		DriveFolderID:   driveFolder,
		SlidesFolderID:  slidesFolder,
		OpenAIKey:       os.Getenv("OPENAI_API_KEY"),
		Model:           model,
		AnthropicKey:    os.Getenv("ANTHROPIC_API_KEY"),
		ClaudeModel:     os.Getenv("LYRICDECK_CLAUDE_MODEL"),
		Logger:          logger.GetLogger(),
	})
	if err != nil {
		log.Fatalf("Failed to create service: %v", err)
	}
	defer a.Close()

	var assistant Assistant
	if a.Assistant != nil {
		assistant = orchestrator{a.Assistant}
	}

	config := &ServerConfig{
		Port:           port,
		DBPath:         dbPath,
		Google:         a.Google,
		AllowedOrigins: origins,
	}

	server := NewServer(a.Service, assistant, config)
	if err := server.Start(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
