// Builds and maintains the course's rolling summaries: per-student profiles,
// the whole-class rollup, the shared-video description, and the green-check
// paper summaries. Each run executes one pass over the stored Discord data.
//
// Examples:
//
//	export OPENAI_API_KEY=...
//	go run . -pass student -provider openai -model gpt-4
//
//	go run . -pass class -shuffle -repeat 1 -export class_summary.json
//
//	go run . -pass greencheck -provider anthropic -fallback-provider openai
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jonmatthis/og-classbot/pkg/course"
	"github.com/jonmatthis/og-classbot/pkg/fusion"
	"github.com/jonmatthis/og-classbot/pkg/models"
	"github.com/jonmatthis/og-classbot/pkg/report"
	"github.com/jonmatthis/og-classbot/pkg/roster"
	"github.com/jonmatthis/og-classbot/pkg/store"
)

var (
	flagPass             = flag.String("pass", "student", "Summary pass to run: student|class|video|greencheck|meta")
	flagProvider         = flag.String("provider", "openai", "LLM provider: openai|gemini|anthropic|ollama|dummy")
	flagModel            = flag.String("model", "gpt-4", "Model ID for the selected provider")
	flagFallbackProvider = flag.String("fallback-provider", "", "Provider for the retry generator (optional)")
	flagFallbackModel    = flag.String("fallback-model", "", "Model ID for the retry generator")
	flagCache            = flag.String("cache", "", "Path to the prompt cache file (disables caching if empty)")
	flagStore            = flag.String("store", "mongo", "Summary store backend: mongo|postgres|memory")
	flagMongoURI         = flag.String("mongo-uri", envOr("MONGO_URI", "mongodb://localhost:27017"), "MongoDB connection URI")
	flagMongoDB          = flag.String("mongo-db", envOr("MONGO_DATABASE", "classbot"), "MongoDB database name")
	flagThreads          = flag.String("thread-collection", "thread_backups", "Collection holding scraped thread summaries")
	flagGreenChecks      = flag.String("greencheck-collection", "green_check_messages", "Collection holding green-check messages")
	flagPostgres         = flag.String("postgres", envOr("DATABASE_URL", ""), "Postgres connection string")
	flagRoster           = flag.String("roster", envOr("PATH_TO_STUDENT_INFO_CSV", ""), "Path to the student roster CSV (optional)")
	flagSkip             = flag.String("skip", "Jon#8343,ProfJon#4002,andreabuit519#2615", "Comma-separated usernames excluded from the pass")
	flagOverwrite        = flag.Bool("overwrite", false, "Re-apply sources that are already incorporated")
	flagShuffle          = flag.Bool("shuffle", false, "Randomize entity order before the pass")
	flagRepeat           = flag.Int("repeat", 0, "Run the pass again this many extra times, reversing order each time")
	flagExport           = flag.String("export", "", "Write all records as JSON to this path after the pass")
	flagReport           = flag.String("report", "", "Write an .html or .md report to this path after the pass")
	flagTimeout          = flag.Duration("timeout", 90*time.Second, "Per-generation-call timeout")
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[Classbot] could not load .env: %v", err)
	}
	flag.Parse()

	ctx := context.Background()
	if err := run(ctx); err != nil {
		fail(err)
	}
}

func run(ctx context.Context) error {
	buildPolicy, ok := course.Policies[*flagPass]
	if !ok {
		return fmt.Errorf("unknown pass %q", *flagPass)
	}
	policy := buildPolicy()
	policy.Overwrite = *flagOverwrite

	engine, err := buildEngine(ctx)
	if err != nil {
		return err
	}

	summaries, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer summaries.Close()

	entities, lookup, err := buildSources(ctx)
	if err != nil {
		return err
	}

	skip := skipList()
	switch *flagPass {
	case "student", "video", "greencheck":
		applyRoster(entities, skip)
	}
	passID := uuid.NewString()
	log.Printf("[Classbot] pass %s (%s): %d entities, store=%s", *flagPass, passID, len(entities), *flagStore)

	orch := fusion.NewOrchestrator(engine, summaries)
	statuses := orch.RunPass(ctx, entities, lookup, policy, fusion.Options{
		Shuffle: *flagShuffle,
		Repeat:  *flagRepeat,
		Skip:    skip,
	})

	failed := 0
	for _, status := range statuses {
		if status.Failed() {
			failed++
			log.Printf("[Classbot] %s: FAILED: %v", status.EntityID, status.Err)
			continue
		}
		log.Printf("[Classbot] %s: %d sources processed", status.EntityID, len(status.Sources))
	}
	log.Printf("[Classbot] pass %s done: %d entities, %d failed", passID, len(statuses), failed)

	if *flagExport != "" {
		if err := summaries.Export(ctx, *flagExport); err != nil {
			return fmt.Errorf("export: %w", err)
		}
		log.Printf("[Classbot] exported records to %s", *flagExport)
	}
	if *flagReport != "" {
		if err := writeReport(ctx, summaries, *flagReport); err != nil {
			return fmt.Errorf("report: %w", err)
		}
		log.Printf("[Classbot] wrote report to %s", *flagReport)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d entities failed", failed, len(statuses))
	}
	return nil
}

func buildEngine(ctx context.Context) (*fusion.Engine, error) {
	primary, err := models.NewLLMProvider(ctx, *flagProvider, *flagModel)
	if err != nil {
		return nil, fmt.Errorf("primary generator: %w", err)
	}
	if *flagCache != "" {
		primary = models.NewCachedLLM(primary, 4096, 30*24*time.Hour, *flagCache)
	}

	var fallback models.Agent
	if *flagFallbackProvider != "" {
		fallback, err = models.NewLLMProvider(ctx, *flagFallbackProvider, *flagFallbackModel)
		if err != nil {
			return nil, fmt.Errorf("fallback generator: %w", err)
		}
	}

	engine := fusion.NewEngine(primary, fallback)
	engine.CallTimeout = *flagTimeout
	return engine, nil
}

func openStore(ctx context.Context) (store.SummaryStore, error) {
	switch *flagStore {
	case "mongo":
		ms, err := store.NewMongoStore(ctx, *flagMongoURI, *flagMongoDB, summariesCollection())
		if err != nil {
			return nil, fmt.Errorf("mongo store: %w", err)
		}
		if err := ms.CreateSchema(ctx); err != nil {
			ms.Close()
			return nil, fmt.Errorf("mongo schema: %w", err)
		}
		return ms, nil
	case "postgres":
		if *flagPostgres == "" {
			return nil, errors.New("-postgres (or DATABASE_URL) is required for the postgres store")
		}
		ps, err := store.NewPostgresStore(ctx, *flagPostgres)
		if err != nil {
			return nil, err
		}
		if err := ps.CreateSchema(ctx, ""); err != nil {
			ps.Close()
			return nil, err
		}
		return ps, nil
	case "memory":
		return store.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", *flagStore)
	}
}

func summariesCollection() string {
	return *flagPass + "_summaries"
}

// buildSources resolves where this pass's entities and fragments come from.
// The student, video, and greencheck passes read scraped Discord data out of
// Mongo; the class and meta passes fan in the finished records of another
// summary store.
func buildSources(ctx context.Context) ([]string, fusion.SourceLookup, error) {
	switch *flagPass {
	case "student", "video":
		threads, err := openThreadSource(ctx, *flagThreads)
		if err != nil {
			return nil, nil, err
		}
		owners, err := threads.Owners(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("list thread owners: %w", err)
		}
		return owners, threads.Lookup(), nil

	case "greencheck":
		checks, err := openGreenCheckSource(ctx, *flagGreenChecks)
		if err != nil {
			return nil, nil, err
		}
		owners, err := checks.Owners(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("list green-check students: %w", err)
		}
		return owners, checks.Lookup(), nil

	case "class", "meta":
		base, err := openBaseStore(ctx)
		if err != nil {
			return nil, nil, err
		}
		records, err := base.All(ctx)
		base.Close()
		if err != nil {
			return nil, nil, fmt.Errorf("load base summaries: %w", err)
		}
		entityID := *flagPass + "_summary"
		sources := fusion.SummariesAsSources(entityID, withoutNonStudents(records))
		lookup := func(context.Context, string) ([]fusion.FragmentSource, error) {
			return sources, nil
		}
		return []string{entityID}, lookup, nil
	}
	return nil, nil, fmt.Errorf("unknown pass %q", *flagPass)
}

// The class and meta passes fold the student pass's output, which lives in
// its own collection or table alongside this pass's.
func openBaseStore(ctx context.Context) (store.SummaryStore, error) {
	switch *flagStore {
	case "mongo":
		return store.NewMongoStore(ctx, *flagMongoURI, *flagMongoDB, "student_summaries")
	case "postgres":
		return store.NewPostgresStore(ctx, *flagPostgres)
	case "memory":
		return nil, errors.New("the class and meta passes need a persistent base store")
	}
	return nil, fmt.Errorf("unknown store backend %q", *flagStore)
}

func openThreadSource(ctx context.Context, collection string) (*course.ThreadSource, error) {
	coll, err := openMongoCollection(ctx, collection)
	if err != nil {
		return nil, err
	}
	return course.NewThreadSource(coll), nil
}

func openGreenCheckSource(ctx context.Context, collection string) (*course.GreenCheckSource, error) {
	coll, err := openMongoCollection(ctx, collection)
	if err != nil {
		return nil, err
	}
	return course.NewGreenCheckSource(coll), nil
}

func openMongoCollection(ctx context.Context, collection string) (*mongo.Collection, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(*flagMongoURI))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client.Database(*flagMongoDB).Collection(collection), nil
}

func skipList() map[string]bool {
	skip := make(map[string]bool)
	for _, name := range strings.Split(*flagSkip, ",") {
		if name = strings.TrimSpace(name); name != "" {
			skip[name] = true
		}
	}
	return skip
}

// applyRoster extends the skip set using the roster CSV: entities that do not
// resolve to an enrolled student (the professor, TAs, or stray accounts)
// stay out of the pass.
func applyRoster(entities []string, skip map[string]bool) {
	if *flagRoster == "" {
		return
	}
	nonStudents := make([]string, 0, len(skip))
	for name := range skip {
		nonStudents = append(nonStudents, name)
	}
	r, err := roster.Load(*flagRoster, nonStudents)
	if err != nil {
		log.Printf("[Classbot] could not load roster, continuing without it: %v", err)
		return
	}
	for _, entity := range entities {
		student, err := r.Resolve(entity)
		if err != nil {
			log.Printf("[Classbot] %s is not on the roster, skipping", entity)
			skip[entity] = true
			continue
		}
		if student.FullName == roster.NotAStudent {
			skip[entity] = true
		}
	}
}

func withoutNonStudents(records []fusion.SummaryRecord) []fusion.SummaryRecord {
	skip := make(map[string]bool)
	for _, name := range strings.Split(*flagSkip, ",") {
		if name = strings.TrimSpace(name); name != "" {
			skip[name] = true
		}
	}
	kept := records[:0]
	for _, rec := range records {
		if !skip[rec.EntityID] {
			kept = append(kept, rec)
		}
	}
	return kept
}

func writeReport(ctx context.Context, summaries store.SummaryStore, path string) error {
	records, err := summaries.All(ctx)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	title := strings.ToUpper((*flagPass)[:1]) + (*flagPass)[1:] + " Summaries"
	if strings.EqualFold(filepath.Ext(path), ".html") {
		return report.HTML(f, title, records)
	}
	return report.Markdown(f, title, records)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
