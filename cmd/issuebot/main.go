package main

import (
	"context"
	"fmt"
	"issuebot/cmd/issuebot/cmds"
	"issuebot/internal/backends"
	"issuebot/internal/bot"
	"issuebot/internal/flow"
	"issuebot/internal/github"
	"issuebot/internal/ports"
	"issuebot/internal/pub"
	"issuebot/internal/telegram"
	"issuebot/internal/types"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

const usage = `usage:
  issuebot                   run the bot
  issuebot import <file.yml> load users from YAML into the user backend
  issuebot export [id...]    print users as YAML, tokens masked`

func main() {
	// Load environment variables
	envFile := getenv("ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil {
		log.Info("The .env file not found.")
	}
	configureLogging()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	userStore, err := backends.UserBackendFromEnv()
	if err != nil {
		log.Fatalf("Failed to initialize user store: %v", err)
	}

	args := os.Args[1:]
	if len(args) == 0 {
		runBot(ctx, userStore)
		return
	}
	switch args[0] {
	case "import":
		if len(args) != 2 {
			log.Fatal(usage)
		}
		if err := cmds.PutUsers(ctx, userStore, args[1]); err != nil {
			log.Fatalf("Import failed: %v", err)
		}
	case "export":
		if err := cmds.GetUsers(ctx, userStore, os.Stdout, args[1:]...); err != nil {
			log.Fatalf("Export failed: %v", err)
		}
	default:
		log.Fatal(usage)
	}
}

func runBot(ctx context.Context, userStore ports.UserStore) {
	token := os.Getenv("TELEGRAM_TOKEN")
	if token == "" {
		log.Fatal("TELEGRAM_TOKEN is required")
	}

	limiter, err := backends.LimitBackendFromEnv()
	if err != nil {
		log.Fatalf("Failed to initialize rate limiter: %v", err)
	}

	topic := os.Getenv("EVENTS_TOPIC_ARN")
	publisher, err := publisherFromEnv(ctx, topic)
	if err != nil {
		log.Fatalf("Failed to initialize publisher: %v", err)
	}

	githubTimeout, err := time.ParseDuration(getenv("GITHUB_TIMEOUT", github.DefaultTimeout.String()))
	if err != nil {
		log.Fatalf("Invalid GITHUB_TIMEOUT: %v", err)
	}
	searcher := github.NewClient(
		github.WithBaseURL(getenv("GITHUB_API_URL", github.DefaultBaseURL)),
		github.WithTimeout(githubTimeout),
	)

	searchRPM, err := strconv.Atoi(getenv("SEARCH_RPM", strconv.Itoa(bot.DefaultSearchRPM)))
	if err != nil {
		log.Fatalf("Invalid SEARCH_RPM: %v", err)
	}

	var tg *telegram.Client
	if endpoint := os.Getenv("TELEGRAM_API_ENDPOINT"); endpoint != "" {
		tg, err = telegram.NewWithEndpoint(token, endpoint)
	} else {
		tg, err = telegram.New(token)
	}
	if err != nil {
		log.Fatalf("Failed to connect to telegram: %v", err)
	}

	handler := bot.NewHandler(
		tg,
		flow.NewRegistry(userStore, publisher, topic),
		searcher,
		limiter,
		bot.NewConversations(types.DefaultPromptTTL),
		searchRPM,
	)
	handler.BotName = tg.Username()

	if p := os.Getenv("HEALTH_PORT"); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			log.Fatalf("Invalid HEALTH_PORT: %v", err)
		}
		stopHealth, healthDone := bot.RunHealthServerInterruptible(port, handler)
		defer func() {
			stopHealth <- struct{}{}
			if err := <-healthDone; err != nil {
				log.WithError(err).Error("health server failed")
			}
		}()
	}

	bot.Run(ctx, tg.Updates(ctx), handler)
}

// publisherFromEnv returns an SNS publisher when topic is set and a no-op
// publisher otherwise.
func publisherFromEnv(ctx context.Context, topic string) (ports.Publisher, error) {
	if topic == "" {
		return pub.Noop{}, nil
	}
	var snsEndpoint *string
	if se := os.Getenv("SNS_ENDPOINT"); se != "" {
		snsEndpoint = aws.String(se)
	}

	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	snsClient := sns.NewFromConfig(awsCfg, func(o *sns.Options) {
		if snsEndpoint != nil {
			o.BaseEndpoint = snsEndpoint
			if o.Region == "" {
				o.Region = "us-east-1"
			}
			o.Credentials = credentials.NewStaticCredentialsProvider("test", "test", "")
		}
	})
	return pub.NewSNS(snsClient), nil
}

func configureLogging() {
	if getenv("LOG_FORMAT", "text") == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	}
	level, err := log.ParseLevel(getenv("LOG_LEVEL", "info"))
	if err != nil {
		log.WithError(err).Warn("Invalid LOG_LEVEL, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
