package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/axionhq/axion-router/gemini"
	"github.com/axionhq/axion-router/internal/api"
	"github.com/axionhq/axion-router/internal/biz"
	"github.com/axionhq/axion-router/internal/biz/usecase"
	"github.com/axionhq/axion-router/internal/conf"
	"github.com/axionhq/axion-router/internal/data"
	"github.com/axionhq/axion-router/internal/service"
	"github.com/axionhq/axion-router/twilio"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := conf.LoadFromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	db, err := data.OpenStore(cfg.Store.DBPath)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer db.Close()

	twilioClient := twilio.NewClient()
	var geminiClient *gemini.Client
	if cfg.Gemini.BaseURL != "" {
		geminiClient = gemini.NewClientWithBaseURL(cfg.Gemini.BaseURL, cfg.Gemini.Model)
	} else {
		geminiClient = gemini.NewClient(cfg.Gemini.Model)
	}

	repos := data.NewRepositories(db, twilioClient, geminiClient)

	presenceUC := usecase.NewPresenceUsecase(repos.Respondent)
	assignUC := usecase.NewAssignmentUsecase(repos.Company, repos.Respondent)
	ucs := &biz.Usecases{
		Presence:   presenceUC,
		Assignment: assignUC,
		Resolver:   usecase.NewTicketResolverUsecase(repos.Ticket, assignUC),
		Handoff:    usecase.NewHandoffUsecase(repos.Respondent, repos.Ticket, presenceUC),
		Reply: usecase.NewReplyUsecase(repos.Ticket, repos.Completion, repos.Messenger, usecase.ReplyConfig{
			DefaultPromptTemplate: cfg.Prompts.Reply.DefaultTemplate,
			AIName:                cfg.Prompts.Reply.AIName,
		}),
	}

	router := service.NewRouterService(&service.RouterRepos{
		Company:    repos.Company,
		Respondent: repos.Respondent,
		Ticket:     repos.Ticket,
	}, ucs, cfg.Prompts)

	janitor := service.NewPresenceJanitor(repos.Company, presenceUC, cfg.Presence.SweepInterval)
	janitor.Start(context.Background())

	server := api.NewServer(router, cfg.Server.Port)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\nShutting down...")
		janitor.Stop()
		if err := server.Stop(); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
		os.Exit(0)
	}()

	fmt.Println("Starting Axion Router...")
	if err := server.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
