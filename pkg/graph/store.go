package graph

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"investigative-ai-be/internal/entity"
	"investigative-ai-be/internal/pkg/logger"
	"investigative-ai-be/internal/repository/contract"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// Aggregate is the merged view of every document's extraction. Entities
// with matching names are merged, conflicts are recomputed from the
// claims on every load.
type Aggregate struct {
	Documents []string
	Entities  []entity.GraphEntity
	Claims    []entity.GraphClaim
	Events    []entity.GraphEvent
	KeyFacts  []entity.GraphFact
	Conflicts []entity.GraphConflict
}

func (a *Aggregate) Empty() bool {
	return len(a.Documents) == 0
}

const aggregateCacheKey = "graph_aggregate"

// Store persists per-document extractions and serves the merged graph.
// The merge runs over every extraction, so the result is cached and
// invalidated whenever the corpus changes.
type Store struct {
	repo   contract.GraphExtractionRepository
	cache  *cache.Cache
	logger logger.ILogger
}

func NewStore(repo contract.GraphExtractionRepository, log logger.ILogger) *Store {
	return &Store{
		repo:   repo,
		cache:  cache.New(1*time.Hour, 10*time.Minute),
		logger: log,
	}
}

func (s *Store) Save(ctx context.Context, extraction *entity.GraphExtraction) error {
	if err := s.repo.Upsert(ctx, extraction); err != nil {
		return fmt.Errorf("persist graph extraction: %w", err)
	}
	s.cache.Delete(aggregateCacheKey)
	s.logger.Info("GraphStore", "Extraction saved", map[string]interface{}{
		"document": extraction.DocumentTitle,
		"entities": len(extraction.Entities),
		"claims":   len(extraction.Claims),
		"events":   len(extraction.Events),
	})
	return nil
}

func (s *Store) Remove(ctx context.Context, documentId uuid.UUID) error {
	if err := s.repo.DeleteByDocumentId(ctx, documentId); err != nil {
		return err
	}
	s.cache.Delete(aggregateCacheKey)
	return nil
}

// Aggregate loads all extractions and merges them into one graph.
func (s *Store) Aggregate(ctx context.Context) (*Aggregate, error) {
	if cached, found := s.cache.Get(aggregateCacheKey); found {
		return cached.(*Aggregate), nil
	}

	extractions, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load graph extractions: %w", err)
	}

	agg := &Aggregate{}
	for _, ex := range extractions {
		agg.Documents = append(agg.Documents, ex.DocumentTitle)
		for _, e := range ex.Entities {
			mergeEntity(agg, e)
		}
		agg.Claims = append(agg.Claims, ex.Claims...)
		agg.Events = append(agg.Events, ex.Events...)
		agg.KeyFacts = append(agg.KeyFacts, ex.KeyFacts...)
	}
	sort.Strings(agg.Documents)
	agg.Conflicts = detectConflicts(agg.Claims)
	s.cache.Set(aggregateCacheKey, agg, cache.DefaultExpiration)
	return agg, nil
}

// mergeEntity folds a new mention of an entity into the aggregate. Two
// entities merge when one name's words are a subset of the other's, e.g.
// "Sarah" and "Sarah Chen". The longer name and description win.
func mergeEntity(agg *Aggregate, incoming entity.GraphEntity) {
	incNorm := normalizeForMatching(incoming.Name)
	incWords := wordSet(incNorm)

	for i := range agg.Entities {
		existing := &agg.Entities[i]
		exNorm := normalizeForMatching(existing.Name)
		exWords := wordSet(exNorm)

		sameName := incNorm == exNorm
		subset := isSubset(incWords, exWords) || isSubset(exWords, incWords)
		if !sameName && !subset {
			continue
		}
		if existing.Type != incoming.Type && existing.Type != "" && incoming.Type != "" && !sameName {
			continue
		}

		if len(incoming.Name) > len(existing.Name) {
			existing.Name = incoming.Name
		}
		if len(incoming.Description) > len(existing.Description) {
			existing.Description = incoming.Description
		}
		existing.Mentions = appendUnique(existing.Mentions, incoming.Mentions...)
		if incoming.Source != "" && !strings.Contains(existing.Source, incoming.Source) {
			if existing.Source == "" {
				existing.Source = incoming.Source
			} else {
				existing.Source = existing.Source + "; " + incoming.Source
			}
		}
		return
	}

	agg.Entities = append(agg.Entities, incoming)
}

// detectConflicts groups claims by normalized subject and flags subjects
// with more than one distinct claim text across sources. Cheap and
// recall-oriented: the answerer's model pass separates real
// contradictions from complementary statements.
func detectConflicts(claims []entity.GraphClaim) []entity.GraphConflict {
	bySubject := make(map[string][]entity.GraphClaim)
	var order []string
	for _, c := range claims {
		subject := normalizeForMatching(c.Subject)
		if subject == "" {
			continue
		}
		if _, seen := bySubject[subject]; !seen {
			order = append(order, subject)
		}
		bySubject[subject] = append(bySubject[subject], c)
	}

	var conflicts []entity.GraphConflict
	for _, subject := range order {
		group := bySubject[subject]
		if len(group) < 2 {
			continue
		}

		distinct := make(map[string]struct{})
		sources := make(map[string]struct{})
		for _, c := range group {
			distinct[normalizeForMatching(c.Claim)] = struct{}{}
			if c.Source != "" {
				sources[c.Source] = struct{}{}
			}
		}
		if len(distinct) < 2 {
			continue
		}

		var sourceList []string
		for src := range sources {
			sourceList = append(sourceList, src)
		}
		sort.Strings(sourceList)

		conflicts = append(conflicts, entity.GraphConflict{
			Subject: group[0].Subject,
			Type:    "differing_claims",
			Claims:  group,
			Sources: sourceList,
			Description: fmt.Sprintf("%d differing statements about %s across %d source(s)",
				len(distinct), group[0].Subject, len(sourceList)),
		})
	}
	return conflicts
}

func appendUnique(dst []string, items ...string) []string {
	seen := make(map[string]struct{}, len(dst))
	for _, s := range dst {
		seen[strings.ToLower(s)] = struct{}{}
	}
	for _, s := range items {
		key := strings.ToLower(s)
		if _, dup := seen[key]; dup || s == "" {
			continue
		}
		seen[key] = struct{}{}
		dst = append(dst, s)
	}
	return dst
}
