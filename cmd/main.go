package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"pdfchat/internal/config"
	"pdfchat/internal/db"
	"pdfchat/internal/embedding"
	"pdfchat/internal/helper"
	"pdfchat/internal/llmservice"
	"pdfchat/internal/models"
	"pdfchat/internal/session"
	"pdfchat/internal/vectordb"
)

const configFilePath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	// keys may come from a .env file instead of the config
	_ = godotenv.Load()

	configPath := flag.String("config", configFilePath, "Path to the config file")
	filePath := flag.String("file", "", "Path to the document file")
	query := flag.String("query", "", "One-shot question; omit for an interactive chat")
	verbose := flag.Bool("verbose", false, "Print source passages with each answer")
	flag.Parse()

	if *filePath == "" {
		log.Fatal().Msg("Please provide a document file using the -file flag")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}
	if cfg.Database.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}
	llm, err := llmservice.New(&cfg.ChatLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing chat model")
	}

	var opts []session.Option
	if cfg.Store == "postgres" {
		sqldb, err := db.ConnectDB(&cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("Error connecting to database")
		}
		bdb := db.NewDB(sqldb, cfg.Database.Debug)
		opts = append(opts, session.WithStoreFactory(func() (vectordb.Store, error) {
			return db.NewStore(bdb), nil
		}))
	}

	sess := session.New(cfg, embedder, llm, opts...)
	ctx := context.Background()

	data, err := os.ReadFile(*filePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error reading document file")
	}
	upload := models.DocumentUpload{
		Name: filepath.Base(*filePath),
		Data: data,
		ID:   helper.HashBytes(data),
	}
	if err := sess.Ingest(ctx, upload); err != nil {
		log.Fatal().Err(err).Msg("Error ingesting document")
	}

	if *query != "" {
		ask(ctx, sess, *query, *verbose)
		return
	}

	chat(ctx, sess, *verbose)
}

// chat runs the interactive ask loop until EOF or /exit
func chat(ctx context.Context, sess *session.Session, verbose bool) {
	fmt.Println("Document loaded. Ask me anything! (/reset clears the conversation, /exit quits)")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/exit":
			return
		case "/reset":
			sess.ResetConversation()
			fmt.Println("Conversation cleared.")
			continue
		}
		ask(ctx, sess, line, verbose)
	}
}

func ask(ctx context.Context, sess *session.Session, question string, verbose bool) {
	answer, err := sess.Ask(ctx, question)
	if err != nil {
		log.Error().Err(err).Msg("Error answering question")
		fmt.Println("Sorry, something went wrong while answering. Please try again.")
		return
	}

	fmt.Printf("%s\n\n", answer.Content)
	if verbose && len(answer.Sources) > 0 {
		fmt.Println("Sources:")
		helper.PrettyPrint(answer.Sources)
	}
}
