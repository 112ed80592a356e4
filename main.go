package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	actionx "github.com/sirawit-b/stocktalk/agent/action"
	"github.com/sirawit-b/stocktalk/agent/agents/orchestrator"
	"github.com/sirawit-b/stocktalk/agent/archive"
	contractx "github.com/sirawit-b/stocktalk/agent/contract"
	"github.com/sirawit-b/stocktalk/agent/conversation"
	"github.com/sirawit-b/stocktalk/agent/intent"
	llmx "github.com/sirawit-b/stocktalk/agent/llm"
	"github.com/sirawit-b/stocktalk/agent/prompt"
	"github.com/sirawit-b/stocktalk/agent/render"
	"github.com/sirawit-b/stocktalk/inventory"
	configx "github.com/sirawit-b/stocktalk/pkg/config"
	_ "github.com/sirawit-b/stocktalk/pkg/logger/autoload"
	openrouterx "github.com/sirawit-b/stocktalk/pkg/openrouter"
	"github.com/sirawit-b/stocktalk/seed"
	"github.com/sirawit-b/stocktalk/semantic"
)

func main() {
	llmCfg := configx.MustNew[llmx.Config]("OPENROUTER")
	storeCfg := configx.MustNew[inventory.Config]("STORE")
	memoryCfg := configx.MustNew[conversation.Config]("MEMORY")
	intentCfg := configx.MustNew[intent.Config]("INTENT")
	archiveCfg := configx.MustNew[archive.Config]("ARCHIVE")

	ctx := context.Background()

	store, err := buildStore(ctx, *storeCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("store init failed")
	}

	sessions := conversation.NewSessions(*memoryCfg)

	transcripts, err := buildArchive(ctx, *archiveCfg, sessions)
	if err != nil {
		log.Fatal().Err(err).Msg("transcript archive init failed")
	}

	agent, err := buildAgent(ctx, *llmCfg, *intentCfg, store, sessions)
	if err != nil {
		log.Fatal().Err(err).Msg("agent init failed")
	}

	runREPL(ctx, agent, sessions, transcripts)
}

func buildStore(ctx context.Context, cfg inventory.Config) (inventory.Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "memory":
		store := inventory.NewMemoryStore()
		sum, err := seed.Load(ctx, store)
		if err != nil {
			return nil, fmt.Errorf("seed demo catalog: %w", err)
		}
		log.Info().
			Int("products", sum.Products).
			Int("suppliers", sum.Suppliers).
			Int("categories", sum.Categories).
			Msg("in-memory store seeded with demo catalog")
		return store, nil
	case "postgres":
		if strings.TrimSpace(cfg.DSN) == "" {
			return nil, errors.New("postgres driver requires STORE_DSN")
		}
		db := inventory.OpenPostgres(cfg.DSN)
		store, err := inventory.NewBunStore(db, cfg)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		log.Info().Msg("postgres store ready")
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// buildArchive wires the optional Upstash transcript archive and, when a
// previous run left a transcript behind, restores it into the default session.
func buildArchive(ctx context.Context, cfg archive.Config, sessions *conversation.Sessions) (*archive.Store, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, nil
	}

	transcripts, err := archive.New(cfg)
	if err != nil {
		return nil, err
	}

	t, err := transcripts.Load(ctx, conversation.DefaultSessionID)
	switch {
	case errors.Is(err, archive.ErrTranscriptNotFound):
	case err != nil:
		log.Warn().Err(err).Msg("transcript restore failed")
	default:
		session := sessions.Get(conversation.DefaultSessionID)
		session.Lock()
		session.Memory.Restore(*t)
		session.Unlock()
		log.Info().Int("turns", len(t.Turns)).Msg("conversation restored from archive")
	}
	return transcripts, nil
}

func buildAgent(
	ctx context.Context,
	llmCfg llmx.Config,
	intentCfg intent.Config,
	store inventory.Store,
	sessions *conversation.Sessions,
) (*orchestrator.Orchestrator, error) {
	if err := llmCfg.Validate(); err != nil {
		return nil, err
	}

	prompts := prompt.LoadPromptSet()

	index := semantic.NewIndex()
	if err := index.IndexProducts(ctx, store); err != nil {
		log.Warn().Err(err).Msg("catalog hint index unavailable")
	}

	interpreterCfg := llmCfg.OpenRouterFor(contractx.AgentRoleInterpreter)
	chatModel, err := interpreterCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("build interpreter model: %w", err)
	}

	interpreter, err := intent.New(ctx, chatModel, prompts.Interpreter, intentCfg,
		intent.WithEntitySource(index))
	if err != nil {
		return nil, fmt.Errorf("build interpreter: %w", err)
	}

	executor, err := actionx.NewExecutor(store)
	if err != nil {
		return nil, fmt.Errorf("build executor: %w", err)
	}

	rendererCfg := llmCfg.OpenRouterFor(contractx.AgentRoleRenderer)
	renderer, err := render.New(openrouterx.NewClient(rendererCfg), rendererCfg, prompts.Renderer)
	if err != nil {
		return nil, fmt.Errorf("build renderer: %w", err)
	}

	return orchestrator.New(sessions, interpreter, executor, renderer)
}

func runREPL(ctx context.Context, agent *orchestrator.Orchestrator, sessions *conversation.Sessions, transcripts *archive.Store) {
	printWelcome()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("You: ")
		if !scanner.Scan() {
			fmt.Println("\nGoodbye!")
			return
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if exit := runCommand(ctx, line, sessions, transcripts); exit {
				return
			}
			continue
		}

		reply, err := agent.ProcessQuery(ctx, conversation.DefaultSessionID, line)
		if err != nil {
			fmt.Println("\nGoodbye!")
			return
		}
		fmt.Printf("Agent: %s\n\n", reply)

		persistTranscript(ctx, transcripts, sessions.Get(conversation.DefaultSessionID))
	}
}

// persistTranscript is best-effort: a failed save costs restart continuity,
// never the turn itself.
func persistTranscript(ctx context.Context, transcripts *archive.Store, session *conversation.Session) {
	if transcripts == nil {
		return
	}

	session.Lock()
	t := session.Memory.Export()
	session.Unlock()
	t.SessionID = session.ID

	if err := transcripts.Save(ctx, t); err != nil {
		log.Warn().Err(err).Msg("transcript archive save failed")
	}
}

func runCommand(ctx context.Context, cmd string, sessions *conversation.Sessions, transcripts *archive.Store) bool {
	session := sessions.Get(conversation.DefaultSessionID)

	switch strings.ToLower(cmd) {
	case "/exit", "/quit":
		fmt.Println("Goodbye!")
		return true
	case "/help":
		printHelp()
	case "/history":
		session.Lock()
		turns := session.Memory.History()
		session.Unlock()
		printHistory(turns)
	case "/stats":
		session.Lock()
		stats := session.Memory.Stats()
		session.Unlock()
		fmt.Printf("Turns in memory: %d\n", stats.Turns)
		if len(stats.Entities) > 0 {
			fmt.Printf("Tracked products: %s\n", strings.Join(stats.Entities, ", "))
		}
		if stats.LastIntent != "" {
			fmt.Printf("Last intent: %s\n", stats.LastIntent)
		}
		fmt.Println()
	case "/clear":
		session.Lock()
		session.Memory.Clear()
		session.Unlock()
		if transcripts != nil {
			if err := transcripts.Delete(ctx, session.ID); err != nil {
				log.Warn().Err(err).Msg("transcript archive delete failed")
			}
		}
		fmt.Print("Conversation context cleared.\n\n")
	default:
		fmt.Printf("Unknown command: %s\nType /help for available commands.\n\n", cmd)
	}
	return false
}

func printWelcome() {
	line := strings.Repeat("=", 60)
	fmt.Println(line)
	fmt.Println("  STOCKTALK - WHOLESALE INVENTORY AGENT")
	fmt.Println(line)
	fmt.Println()
	fmt.Println("Ask about stock, prices, suppliers, and analytics.")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  - How much stock of USB cables do we have?")
	fmt.Println("  - Show me low stock products")
	fmt.Println("  - Add 50 units to wireless mouse")
	fmt.Println("  - What's our total inventory value?")
	fmt.Println()
	fmt.Println("Type /help for commands or start asking questions.")
	fmt.Println(strings.Repeat("-", 60))
}

func printHelp() {
	fmt.Println("Available commands:")
	fmt.Println("  /help     Show this help message")
	fmt.Println("  /history  Show recent conversation turns")
	fmt.Println("  /stats    Show conversation memory stats")
	fmt.Println("  /clear    Forget the conversation context")
	fmt.Println("  /exit     Leave the agent (also /quit)")
	fmt.Println()
}

func printHistory(turns []conversation.Turn) {
	if len(turns) == 0 {
		fmt.Print("No conversation history yet.\n\n")
		return
	}

	fmt.Println("Recent turns:")
	for i, turn := range turns {
		fmt.Printf("%2d. [%s] You: %s\n", i+1, turn.At.Format("15:04:05"), turn.Query)
		fmt.Printf("    Agent: %s\n", turn.Response)
	}
	fmt.Println()
}
