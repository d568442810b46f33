package course

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jonmatthis/og-classbot/pkg/fusion"
)

// Timestamps in scraped thread documents are ISO strings, written with and
// without fractional seconds and timezone over the scraper's lifetime.
var threadTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

func parseThreadTime(value string) (time.Time, error) {
	for _, layout := range threadTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

type threadDocument struct {
	ThreadOwnerName string `bson:"thread_owner_name"`
	ThreadTitle     string `bson:"thread_title"`
	Summary         struct {
		Summary   string `bson:"summary"`
		Model     string `bson:"model"`
		CreatedAt string `bson:"created_at"`
	} `bson:"summary"`
}

// ThreadSource reads scraped, pre-summarized Discord threads out of Mongo and
// presents them as fusion sources, one per thread, keyed by thread owner.
type ThreadSource struct {
	collection *mongo.Collection
}

func NewThreadSource(collection *mongo.Collection) *ThreadSource {
	return &ThreadSource{collection: collection}
}

// Owners returns every distinct thread owner in the collection.
func (ts *ThreadSource) Owners(ctx context.Context) ([]string, error) {
	values, err := ts.collection.Distinct(ctx, "thread_owner_name", bson.M{})
	if err != nil {
		return nil, err
	}
	owners := make([]string, 0, len(values))
	for _, v := range values {
		if owner, ok := v.(string); ok && owner != "" {
			owners = append(owners, owner)
		}
	}
	return owners, nil
}

// SourcesFor returns one fragment source per summarized thread the owner
// started, ordered oldest first. Threads without a summary are skipped; the
// thread summarizer has not reached them yet.
func (ts *ThreadSource) SourcesFor(ctx context.Context, owner string) ([]fusion.FragmentSource, error) {
	opts := options.Find().SetSort(bson.D{{Key: "summary.created_at", Value: 1}})
	cursor, err := ts.collection.Find(ctx, bson.M{"thread_owner_name": owner}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var sources []fusion.FragmentSource
	for cursor.Next(ctx) {
		var doc threadDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		if strings.TrimSpace(doc.Summary.Summary) == "" {
			continue
		}
		createdAt, err := parseThreadTime(doc.Summary.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("thread for %s: %w", owner, err)
		}
		sources = append(sources, fusion.FragmentSource{
			EntityID:  owner,
			Fragments: []string{doc.Summary.Summary},
			CreatedAt: createdAt,
		})
	}
	return sources, cursor.Err()
}

// Lookup adapts the thread source to the orchestrator's lookup contract.
func (ts *ThreadSource) Lookup() fusion.SourceLookup {
	return func(ctx context.Context, entityID string) ([]fusion.FragmentSource, error) {
		return ts.SourcesFor(ctx, entityID)
	}
}

type greenCheckDocument struct {
	StudentName string   `bson:"_student_name"`
	Messages    []string `bson:"green_check_messages"`
	CreatedAt   string   `bson:"created_at"`
}

// GreenCheckSource reads the messages students marked with a green check
// emoji, one document per student, and presents each student's messages as a
// single fragment source.
type GreenCheckSource struct {
	collection *mongo.Collection
}

func NewGreenCheckSource(collection *mongo.Collection) *GreenCheckSource {
	return &GreenCheckSource{collection: collection}
}

func (gs *GreenCheckSource) Owners(ctx context.Context) ([]string, error) {
	values, err := gs.collection.Distinct(ctx, "_student_name", bson.M{})
	if err != nil {
		return nil, err
	}
	owners := make([]string, 0, len(values))
	for _, v := range values {
		if owner, ok := v.(string); ok && owner != "" {
			owners = append(owners, owner)
		}
	}
	return owners, nil
}

func (gs *GreenCheckSource) SourcesFor(ctx context.Context, owner string) ([]fusion.FragmentSource, error) {
	res := gs.collection.FindOne(ctx, bson.M{"_student_name": owner})
	if err := res.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	var doc greenCheckDocument
	if err := res.Decode(&doc); err != nil {
		return nil, err
	}
	if len(doc.Messages) == 0 {
		return nil, fmt.Errorf("student %s has no green check messages", owner)
	}
	createdAt := time.Now().UTC()
	if doc.CreatedAt != "" {
		if t, err := parseThreadTime(doc.CreatedAt); err == nil {
			createdAt = t
		}
	}
	return []fusion.FragmentSource{{
		EntityID:  owner,
		Fragments: doc.Messages,
		CreatedAt: createdAt,
	}}, nil
}

func (gs *GreenCheckSource) Lookup() fusion.SourceLookup {
	return func(ctx context.Context, entityID string) ([]fusion.FragmentSource, error) {
		return gs.SourcesFor(ctx, entityID)
	}
}
