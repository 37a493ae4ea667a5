package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/lighthouse-maranatha/lyricdeck/internal/app"
	"github.com/lighthouse-maranatha/lyricdeck/pkg/googleauth"
	"github.com/lighthouse-maranatha/lyricdeck/pkg/logger"
	"github.com/lighthouse-maranatha/lyricdeck/pkg/lyricdeck"
	"github.com/lighthouse-maranatha/lyricdeck/pkg/lyricdeck/agent"
	"github.com/lighthouse-maranatha/lyricdeck/pkg/lyricdeck/render"
	"github.com/lighthouse-maranatha/lyricdeck/pkg/lyricdeck/source"
	"github.com/lighthouse-maranatha/lyricdeck/pkg/lyricdeck/storage"
	"github.com/lighthouse-maranatha/lyricdeck/pkg/models"
	"github.com/lighthouse-maranatha/lyricdeck/pkg/utils"
)

// Global flags
var (
	dbPath       string
	outputDir    string
	credentials  string
	tokenFile    string
	driveFolder  string
	slidesFolder string
	model        string
	offline      bool
)

func init() {
	// .env must be loaded before the flag defaults read the environment.
	_ = godotenv.Load()

	flag.StringVar(&dbPath, "db", getEnvOrDefault("LYRICDECK_DB_PATH", storage.DefaultDBFile), "Path to the SQLite lyric library")
	flag.StringVar(&outputDir, "out", getEnvOrDefault("LYRICDECK_OUTPUT_DIR", "decks"), "Directory for offline (dry-run) decks")
	flag.StringVar(&credentials, "credentials", getEnvOrDefault("GOOGLE_CREDENTIALS_FILE", googleauth.DefaultCredentialsFile), "Google OAuth client secrets")
	flag.StringVar(&tokenFile, "token", getEnvOrDefault("GOOGLE_TOKEN_FILE", googleauth.DefaultTokenFile), "Google OAuth token cache")
	flag.StringVar(&driveFolder, "drive-folder", getEnvOrDefault("LYRICDECK_DRIVE_FOLDER", source.DefaultLyricsFolderID), "Drive folder holding lyric files")
	flag.StringVar(&slidesFolder, "slides-folder", getEnvOrDefault("LYRICDECK_SLIDES_FOLDER", render.DefaultTargetFolderID), "Drive folder for new presentations")
	flag.StringVar(&model, "model", getEnvOrDefault("LYRICDECK_MODEL", agent.DefaultModel), "Model used by the agents")
	flag.BoolVar(&offline, "offline", false, "Do not use Google Drive or Slides")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// createApp assembles the service. Commands that only touch the library
// run offline so they never trigger the Google consent flow.
func createApp(ctx context.Context, needGoogle bool) (*app.App, error) {
	return app.Build(ctx, app.Config{
		DBPath:          dbPath,
		OutputDir:       outputDir,
		Offline:         offline || !needGoogle,
		CredentialsFile: credentials,
		TokenFile:       tokenFile,
		Prompt:          promptAuthCode,
		DriveFolderID:   driveFolder,
		SlidesFolderID:  slidesFolder,
		Chooser:         chooseDriveFile,
		OpenAIKey:       os.Getenv("OPENAI_API_KEY"),
		Model:           model,
		AnthropicKey:    os.Getenv("ANTHROPIC_API_KEY"),
		ClaudeModel:     os.Getenv("LYRICDECK_CLAUDE_MODEL"),
		Logger:          logger.GetLogger(),
	})
}

func mustCreateApp(ctx context.Context, needGoogle bool) *app.App {
	fmt.Println("\n🔧 Initializing service...")
	a, err := createApp(ctx, needGoogle)
	if err != nil {
		fmt.Printf("❌ Failed to create service: %v\n", err)
		logger.Errorf("Service initialization failed: %v", err)
		os.Exit(1)
	}
	return a
}

func main() {
	flag.Usage = printUsage
	flag.Parse()

	if flag.NArg() < 1 {
		printBanner()
		printUsage()
		os.Exit(1)
	}

	command, args := flag.Arg(0), flag.Args()[1:]
	logger.Debugf("Executing command: %s", command)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch command {
	case "build":
		handleBuild(ctx, args)
	case "add":
		handleAdd(ctx, args)
	case "list":
		handleList(ctx)
	case "delete":
		handleDelete(ctx, args)
	case "runs":
		handleRuns(ctx, args)
	case "preview":
		handlePreview(ctx, args)
	case "chat":
		handleChat(ctx)
	case "auth":
		handleAuth(ctx)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printBanner() {
	banner := `
 _               _      ____            _
| |   _   _ _ __(_) ___|  _ \  ___  ___| | __
| |  | | | | '__| |/ __| | | |/ _ \/ __| |/ /
| |__| |_| | |  | | (__| |_| |  __/ (__|   <
|_____\__, |_|  |_|\___|____/ \___|\___|_|\_\
      |___/
      Bilingual worship lyric slides
`
	fmt.Println(banner)
}

func handleBuild(ctx context.Context, args []string) {
	buildCmd := flag.NewFlagSet("build", flag.ExitOnError)
	template := buildCmd.String("template", "", "Template: sunday, friday, a weekday or auto (default: today's service)")
	lyricsDir := buildCmd.String("lyrics-dir", "", "Directory of <title>.txt lyric files that override the library")
	playlistRef := buildCmd.String("playlist", "", "Take the song titles from a YouTube playlist")
	dryRun := buildCmd.Bool("dry-run", false, "Write the deck as JSON instead of creating slides")
	buildCmd.Parse(args)

	titles := buildCmd.Args()
	if len(titles) == 0 && *playlistRef == "" {
		fmt.Println("Usage: lyricdeck build [--template friday] [--lyrics-dir dir] [--dry-run] <title>...")
		fmt.Println("   OR: lyricdeck build --playlist <url> [--template friday]")
		os.Exit(1)
	}

	var lyrics []source.UserLyrics
	if *lyricsDir != "" {
		var err error
		if lyrics, err = loadLyricsDir(*lyricsDir); err != nil {
			fmt.Printf("❌ Failed to read lyrics: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("📄 Loaded lyrics for %d song(s) from %s\n", len(lyrics), *lyricsDir)
	}

	a := mustCreateApp(ctx, !*dryRun)
	defer a.Close()

	if *playlistRef != "" {
		titles = append(titles, playlistTitles(ctx, a.Service, *playlistRef)...)
	}

	fmt.Printf("🎵 Building deck for %d song(s)...\n", len(titles))
	res, err := a.Service.BuildDeck(ctx, lyricdeck.DeckRequest{
		Titles:   titles,
		Template: *template,
		Lyrics:   lyrics,
		DryRun:   *dryRun,
	})
	printFailures(res)
	if err != nil {
		fmt.Printf("\n❌ Deck build failed: %v\n", err)
		logger.Errorf("BuildDeck failed: %v", err)
		os.Exit(1)
	}

	fmt.Println("\n✅ Deck ready!")
	fmt.Printf("   Template: %s\n", res.Template)
	fmt.Printf("   Slides:   %d\n", res.Slides)
	for _, song := range res.Songs {
		fmt.Printf("   • %s (%d slides, %s)\n", song.Title, song.Slides, song.Origin)
	}
	fmt.Printf("   🔗 %s\n", res.Locator)
}

func playlistTitles(ctx context.Context, svc lyricdeck.Service, ref string) []string {
	fmt.Println("📺 Reading playlist...")
	preview, err := svc.PreviewPlaylist(ctx, ref)
	if err != nil {
		fmt.Printf("❌ Failed to read playlist: %v\n", err)
		os.Exit(1)
	}
	titles := preview.Titles()
	for i, v := range preview.Videos {
		fmt.Printf("%d. %s\n   %s\n", i+1, v.SongTitle, v.URL)
	}
	if !confirm(fmt.Sprintf("Build the deck with these %d songs?", len(titles))) {
		fmt.Println("Cancelled.")
		os.Exit(0)
	}
	return titles
}

func printFailures(res *lyricdeck.DeckResult) {
	if res == nil || len(res.Failures) == 0 {
		return
	}
	fmt.Printf("\n⚠️  %d song(s) left out:\n", len(res.Failures))
	for _, f := range res.Failures {
		if f.Title == "" {
			fmt.Printf("   • %s\n", f.Error)
			continue
		}
		fmt.Printf("   • %s: %s\n", f.Title, f.Error)
	}
}

func handleAdd(ctx context.Context, args []string) {
	addCmd := flag.NewFlagSet("add", flag.ExitOnError)
	title := addCmd.String("title", "", "Song title (required)")
	englishFile := addCmd.String("english", "", "File with the English lyrics")
	koreanFile := addCmd.String("korean", "", "File with the Korean lyrics")
	bilingualFile := addCmd.String("file", "", "One file with both languages")
	alias := addCmd.String("alias", "", "Comma-separated other titles for the song")
	addCmd.Parse(args)

	if *title == "" || (*bilingualFile == "" && (*englishFile == "" || *koreanFile == "")) {
		fmt.Println("Usage: lyricdeck add --title <title> --english <file> --korean <file>")
		fmt.Println("   OR: lyricdeck add --title <title> --file <bilingual file>")
		os.Exit(1)
	}

	in := models.SongInput{Title: *title, Aliases: splitList(*alias)}
	var err error
	if *bilingualFile != "" {
		in.English, err = utils.ReadTextFile(*bilingualFile)
	} else {
		if in.English, err = utils.ReadTextFile(*englishFile); err == nil {
			in.Korean, err = utils.ReadTextFile(*koreanFile)
		}
	}
	if err != nil {
		fmt.Printf("❌ Failed to read lyrics: %v\n", err)
		os.Exit(1)
	}

	a := mustCreateApp(ctx, false)
	defer a.Close()

	songID, err := a.Service.AddSong(ctx, in)
	if err != nil {
		fmt.Printf("\n❌ Failed to add song: %v\n", err)
		logger.Errorf("AddSong failed: %v", err)
		os.Exit(1)
	}

	fmt.Println("\n✅ Successfully added song to the library!")
	fmt.Printf("   ID:    %s\n", songID)
	fmt.Printf("   Title: %s\n", *title)
}

func handleList(ctx context.Context) {
	a := mustCreateApp(ctx, false)
	defer a.Close()

	songs, err := a.Service.ListSongs()
	if err != nil {
		fmt.Printf("❌ Failed to list songs: %v\n", err)
		logger.Errorf("ListSongs failed: %v", err)
		os.Exit(1)
	}

	if len(songs) == 0 {
		fmt.Println("\n📭 No songs in the library")
		return
	}

	fmt.Printf("\n📚 Found %d song(s):\n\n", len(songs))
	for i, song := range songs {
		fmt.Printf("%d. \"%s\" (ID: %s)\n", i+1, song.Title, song.ID)
		fmt.Printf("   Origin: %s\n", song.Origin)
		if len(song.Aliases) > 0 {
			fmt.Printf("   Also:   %s\n", strings.Join(song.Aliases, ", "))
		}
	}
}

func handleDelete(ctx context.Context, args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: lyricdeck delete <song_id>")
		os.Exit(1)
	}
	songID := args[0]

	a := mustCreateApp(ctx, false)
	defer a.Close()

	// Get song info before deletion
	song, err := a.Service.GetSongByID(songID)
	if err != nil {
		fmt.Printf("❌ Song not found (ID: %s)\n", songID)
		logger.Warnf("Song %s not found: %v", songID, err)
		os.Exit(1)
	}

	if err := a.Service.DeleteSong(songID); err != nil {
		fmt.Printf("❌ Failed to delete song: %v\n", err)
		logger.Errorf("DeleteSong failed: %v", err)
		os.Exit(1)
	}

	fmt.Printf("\n✅ Successfully deleted song:\n")
	fmt.Printf("   ID:    %s\n", song.ID)
	fmt.Printf("   Title: %s\n", song.Title)
}

func handleRuns(ctx context.Context, args []string) {
	runsCmd := flag.NewFlagSet("runs", flag.ExitOnError)
	limit := runsCmd.Int("limit", 10, "Number of runs to show (0 for all)")
	runsCmd.Parse(args)

	a := mustCreateApp(ctx, false)
	defer a.Close()

	runs, err := a.Service.ListRuns(*limit)
	if err != nil {
		fmt.Printf("❌ Failed to list runs: %v\n", err)
		os.Exit(1)
	}
	if len(runs) == 0 {
		fmt.Println("\n📭 No decks built yet")
		return
	}

	fmt.Printf("\n🗂  Last %d run(s):\n\n", len(runs))
	for _, run := range runs {
		fmt.Printf("%s  %-9s %-6s %2d slides  %s\n",
			run.CreatedAt.Local().Format("2006-01-02 15:04"), run.Status, run.Template, run.Slides, strings.Join(run.Titles, ", "))
		if run.Locator != "" {
			fmt.Printf("   🔗 %s\n", run.Locator)
		}
		for _, f := range run.Failures {
			fmt.Printf("   ⚠️  %s %s\n", f.Title, f.Error)
		}
	}
}

func handlePreview(ctx context.Context, args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: lyricdeck preview <playlist url or id>")
		os.Exit(1)
	}

	// Google access adds caption snippets when a token is stored.
	a := mustCreateApp(ctx, true)
	defer a.Close()

	fmt.Println("📺 Reading playlist...")
	preview, err := a.Service.PreviewPlaylist(ctx, args[0])
	if err != nil {
		fmt.Printf("❌ Failed to read playlist: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\n🎶 %d video(s) in %s:\n\n", len(preview.Videos), preview.PlaylistID)
	for i, v := range preview.Videos {
		fmt.Printf("%d. %s\n", i+1, v.SongTitle)
		fmt.Printf("   %s\n   %s\n", v.Title, v.URL)
		if v.CaptionSnippet != "" {
			fmt.Printf("   💬 %s\n", v.CaptionSnippet)
		}
	}
}

func handleChat(ctx context.Context) {
	a := mustCreateApp(ctx, true)
	defer a.Close()

	if a.Assistant == nil {
		fmt.Println("❌ The assistant needs OPENAI_API_KEY")
		os.Exit(1)
	}
	fmt.Println("💬 Chat with the LyricDeck assistant. Type \"exit\" to quit.")
	if err := a.Assistant.Chat(ctx, os.Stdin, os.Stdout); err != nil {
		fmt.Printf("❌ Chat ended: %v\n", err)
		os.Exit(1)
	}
}

func handleAuth(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Minute)
	defer cancel()

	sess, err := googleauth.Open(ctx, googleauth.Config{
		CredentialsFile: credentials,
		TokenFile:       tokenFile,
		Prompt:          promptAuthCode,
	})
	if err != nil {
		fmt.Printf("❌ Authorization failed: %v\n", err)
		os.Exit(1)
	}
	defer sess.Close()
	fmt.Printf("✅ Google access authorized; token stored in %s\n", tokenFile)
}

func printUsage() {
	fmt.Println("LyricDeck - bilingual worship lyric slides")
	fmt.Println("\nGlobal Options:")
	fmt.Println("  --db <path>             Lyric library (env: LYRICDECK_DB_PATH, default: lyricdeck.sqlite3)")
	fmt.Println("  --out <dir>             Offline deck directory (env: LYRICDECK_OUTPUT_DIR, default: decks)")
	fmt.Println("  --credentials <file>    Google client secrets (env: GOOGLE_CREDENTIALS_FILE)")
	fmt.Println("  --token <file>          Google token cache (env: GOOGLE_TOKEN_FILE)")
	fmt.Println("  --drive-folder <id>     Drive lyrics folder (env: LYRICDECK_DRIVE_FOLDER)")
	fmt.Println("  --slides-folder <id>    Drive folder for presentations (env: LYRICDECK_SLIDES_FOLDER)")
	fmt.Println("  --model <name>          Agent model (env: LYRICDECK_MODEL)")
	fmt.Println("  --offline               Never contact Google")
	fmt.Println("\nUsage:")
	fmt.Println("  lyricdeck [global-options] build [--template <t>] [--lyrics-dir <dir>] [--dry-run] <title>...")
	fmt.Println("  lyricdeck [global-options] build --playlist <url> [--template <t>]")
	fmt.Println("  lyricdeck [global-options] add --title <title> --english <file> --korean <file> [--alias a,b]")
	fmt.Println("  lyricdeck [global-options] add --title <title> --file <bilingual file>")
	fmt.Println("  lyricdeck [global-options] list")
	fmt.Println("  lyricdeck [global-options] delete <song_id>")
	fmt.Println("  lyricdeck [global-options] runs [--limit n]")
	fmt.Println("  lyricdeck [global-options] preview <playlist>")
	fmt.Println("  lyricdeck [global-options] chat")
	fmt.Println("  lyricdeck [global-options] auth")
	fmt.Println("\nExamples:")
	fmt.Println("  # Sunday deck from the library and Drive")
	fmt.Println("  lyricdeck build --template sunday \"Amazing Grace\" \"Way Maker\" \"Holy Forever\"")
	fmt.Println()
	fmt.Println("  # Try a deck offline with local lyric files")
	fmt.Println("  lyricdeck --offline build --dry-run --lyrics-dir ./lyrics \"Way Maker\"")
	fmt.Println()
	fmt.Println("  # Friday deck from a playlist")
	fmt.Println("  lyricdeck build --template friday --playlist \"https://youtube.com/playlist?list=PL...\"")
}
