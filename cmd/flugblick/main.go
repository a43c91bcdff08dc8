package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	kongdotenv "github.com/titusjaka/kong-dotenv-go"

	"github.com/mwalser/flugblick/internal/analyzer"
	"github.com/mwalser/flugblick/internal/api"
	"github.com/mwalser/flugblick/internal/llm"
	"github.com/mwalser/flugblick/internal/marketing"
	"github.com/mwalser/flugblick/internal/scraper"
	"github.com/mwalser/flugblick/internal/store"
	"github.com/mwalser/flugblick/internal/takeoff"
	"github.com/mwalser/flugblick/internal/weather"
)

// Karwendelblick launch site.
const (
	launchLat = 47.31
	launchLon = 11.48
)

type Globals struct {
	DataDir     string `kong:"name=data-dir,default='data',help='Directory for JSON snapshots.'"`
	LLMProvider string `kong:"name=llm-provider,default='openai',enum='openai,gemini',help='LLM provider for analysis and drafting.'"`
	LLMModel    string `kong:"name=llm-model,help='Override the provider default model.'"`
	OpenAIKey   string `kong:"name=openai-api-key,env=OPENAI_API_KEY,help='OpenAI API key.'"`
	GeminiKey   string `kong:"name=gemini-api-key,env=GEMINI_API_KEY,help='Gemini API key.'"`
	ReviewsURL  string `kong:"name=reviews-url,env=REVIEWS_URL,help='Review platform page to scrape.'"`
}

// completer returns the configured LLM client, or nil when no key is set.
func (g *Globals) completer() llm.Completer {
	key := g.OpenAIKey
	if g.LLMProvider == "gemini" {
		key = g.GeminiKey
	}
	if key == "" {
		return nil
	}
	c, err := llm.New(g.LLMProvider, key, g.LLMModel)
	if err != nil {
		log.Fatalf("configure LLM: %v", err)
	}
	return c
}

func (g *Globals) store() *store.Store {
	st, err := store.New(g.DataDir)
	if err != nil {
		log.Fatalf("open data dir %s: %v", g.DataDir, err)
	}
	return st
}

type ServeCmd struct {
	Port     string `kong:"default='8080',env=PORT,help='HTTP listen port.'"`
	Password string `kong:"env=SITE_PASSWORD,help='Shared site password.'"`
}

func (c *ServeCmd) Run(g *Globals) error {
	if c.Password == "" {
		log.Fatal("SITE_PASSWORD environment variable required")
	}

	st := g.store()
	forecasts := weather.NewClient(launchLat, launchLon, takeoff.DefaultConfig())

	var runner api.AnalysisRunner
	var gen api.Generator
	if completer := g.completer(); completer != nil {
		runner = analyzer.New(completer)
		gen = marketing.New(completer)
	} else {
		log.Println("no LLM key configured, analysis and drafting disabled")
	}

	server := api.NewServer(st, forecasts, runner, gen, c.Password, c.Port)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Printf("starting server on :%s", c.Port)
	return server.Run(ctx)
}

type ScrapeCmd struct{}

func (c *ScrapeCmd) Run(g *Globals) error {
	if g.ReviewsURL == "" {
		log.Fatal("REVIEWS_URL environment variable required")
	}
	added, err := scraper.New(g.ReviewsURL).Run(context.Background(), g.store())
	if err != nil {
		return err
	}
	log.Printf("scrape complete, %d new reviews", added)
	return nil
}

type AnalyzeCmd struct {
	All bool `kong:"help='Re-analyze every review, ignoring the cache.'"`
}

func (c *AnalyzeCmd) Run(g *Globals) error {
	completer := g.completer()
	if completer == nil {
		log.Fatal("LLM API key required for analysis")
	}
	res, err := analyzer.New(completer).Run(context.Background(), g.store(), c.All)
	if err != nil {
		return err
	}
	log.Printf("analysis complete, %d newly analyzed, %d cached total", res.NewlyAnalyzed, len(res.Cache))
	return nil
}

type TakeoffCmd struct {
	Days int `kong:"default=5,help='Number of forecast days to score.'"`
}

func (c *TakeoffCmd) Run(g *Globals) error {
	client := weather.NewClient(launchLat, launchLon, takeoff.DefaultConfig())
	days, err := client.Fetch(context.Background(), c.Days)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(days)
}

type CLI struct {
	Globals

	Serve   ServeCmd   `kong:"cmd,default=1,help='Run the web server.'"`
	Scrape  ScrapeCmd  `kong:"cmd,help='Scrape the review platform and merge new reviews.'"`
	Analyze AnalyzeCmd `kong:"cmd,help='Run LLM analysis over scraped reviews.'"`
	Takeoff TakeoffCmd `kong:"cmd,help='Print the scored takeoff forecast as JSON.'"`
}

func main() {
	cli := CLI{}
	ktx := kong.Parse(&cli,
		kong.Name("flugblick"),
		kong.Description("Takeoff conditions, review analytics and marketing copy for a tandem paragliding site."),
		kong.UsageOnError(),
		kong.Configuration(kongdotenv.ENVFileReader, ".env"),
	)
	if err := ktx.Run(&cli.Globals); err != nil {
		log.Fatal(err)
	}
}
