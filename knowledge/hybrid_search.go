package knowledge

import (
	"context"
	"slices"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/go-api-boot/odm"
	"github.com/SaiNageswarS/go-collection-boot/async"
	"github.com/SaiNageswarS/go-collection-boot/ds"
	"github.com/SaiNageswarS/go-collection-boot/linq"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"
)

const (
	rrfK                 = 60 // dampening constant from the RRF paper
	textSearchWeight     = 1.0
	vectorSearchWeight   = 1.0
	DefaultTextK         = 20
	DefaultVectorK       = 20
	DefaultNumCandidates = 100
)

// HybridSearcher fuses Atlas term search and vector search with
// reciprocal-rank fusion.
type HybridSearcher struct {
	embedder         Embedder
	chunkRepository  odm.OdmCollectionInterface[ChunkModel]
	vectorRepository odm.OdmCollectionInterface[ChunkAnnModel]

	textK         int
	vecK          int
	numCandidates int
}

type SearchOption func(*HybridSearcher)

// WithCandidateLimits sets how many hits each leg contributes before fusion
// and the ANN candidate pool. Non-positive values keep the defaults.
func WithCandidateLimits(textK, vecK, numCandidates int) SearchOption {
	return func(s *HybridSearcher) {
		if textK > 0 {
			s.textK = textK
		}
		if vecK > 0 {
			s.vecK = vecK
		}
		if numCandidates > 0 {
			s.numCandidates = numCandidates
		}
	}
}

func NewHybridSearcher(chunkRepository odm.OdmCollectionInterface[ChunkModel], vectorRepository odm.OdmCollectionInterface[ChunkAnnModel], embedder Embedder, opts ...SearchOption) *HybridSearcher {
	s := &HybridSearcher{
		embedder:         embedder,
		chunkRepository:  chunkRepository,
		vectorRepository: vectorRepository,
		textK:            DefaultTextK,
		vecK:             DefaultVectorK,
		numCandidates:    DefaultNumCandidates,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *HybridSearcher) Search(ctx context.Context, query string, k int) ([]string, error) {
	if query == "" || k <= 0 {
		return nil, nil
	}

	textTask := s.chunkRepository.TermSearch(ctx, query, odm.TermSearchParams{
		IndexName: TextSearchIndexName,
		Path:      TextSearchPaths,
		Limit:     s.textK,
	})

	// A failed embedding degrades to term search only.
	var vecRanks map[string]int
	emb, err := s.embedder.Embed(ctx, query)
	if err != nil {
		logger.Error("Failed to embed query", zap.String("query", query), zap.Error(err))
	} else {
		vecTask := s.vectorRepository.VectorSearch(ctx, emb, odm.VectorSearchParams{
			IndexName:     VectorIndexName,
			Path:          VectorPath,
			K:             s.vecK,
			NumCandidates: s.numCandidates,
		})
		vecRanks, err = collectVectorSearchRanks(vecTask)
		if err != nil {
			logger.Error("vector search failed", zap.Error(err))
		}
	}

	textRanks, cache, err := collectTextSearchRanks(textTask)
	if err != nil {
		logger.Error("text search failed", zap.Error(err))
		if len(vecRanks) == 0 {
			return nil, err
		}
	}

	ids := fuseRanks(textRanks, vecRanks, k)
	chunks := s.fetchChunksByIds(ctx, cache, ids)

	return passages(ctx, chunks)
}

// passages renders chunks in fused order.
func passages(ctx context.Context, chunks []*ChunkModel) ([]string, error) {
	return linq.Pipe2(
		linq.FromSlice(ctx, chunks),
		linq.Select(func(c *ChunkModel) string { return c.Passage() }),
		linq.ToSlice[string](),
	)
}

// fuseRanks scores each id as Σ weight/(rrfK+rank) and returns the best n,
// highest first. Equal scores order by id.
func fuseRanks(textRanks, vecRanks map[string]int, n int) []string {
	combined := make(map[string]float64, len(textRanks)+len(vecRanks))
	for id, r := range textRanks {
		combined[id] = textSearchWeight / float64(rrfK+r)
	}
	for id, r := range vecRanks {
		combined[id] += vectorSearchWeight / float64(rrfK+r)
	}

	type pair struct {
		id    string
		score float64
	}

	// the heap root is the weakest entry kept so far
	h := ds.NewMinHeap(func(a, b pair) bool {
		if a.score != b.score {
			return a.score < b.score
		}
		return a.id > b.id
	})
	for id, sc := range combined {
		h.Push(pair{id, sc})
		if h.Len() > n {
			h.Pop()
		}
	}

	kept := h.ToSortedSlice()
	slices.Reverse(kept)

	ids := make([]string, 0, len(kept))
	for _, p := range kept {
		ids = append(ids, p.id)
	}
	return ids
}

func collectTextSearchRanks(
	task <-chan async.Result[[]odm.SearchHit[ChunkModel]],
) (map[string]int, map[string]*ChunkModel, error) {

	ranks := make(map[string]int)
	cache := make(map[string]*ChunkModel)

	hits, err := async.Await(task)
	if err != nil {
		return ranks, cache, err
	}

	for i, h := range hits {
		id := h.Doc.Id()
		if _, seen := ranks[id]; !seen {
			ranks[id] = i + 1
			doc := h.Doc
			cache[id] = &doc
		}
	}
	return ranks, cache, nil
}

func collectVectorSearchRanks(
	task <-chan async.Result[[]odm.SearchHit[ChunkAnnModel]],
) (map[string]int, error) {

	ranks := make(map[string]int)

	hits, err := async.Await(task)
	if err != nil {
		return ranks, err
	}

	for i, h := range hits {
		id := h.Doc.Id()
		if _, seen := ranks[id]; !seen {
			ranks[id] = i + 1
		}
	}
	return ranks, nil
}

func (s *HybridSearcher) fetchChunksByIds(ctx context.Context, cache map[string]*ChunkModel, rankedIds []string) []*ChunkModel {
	if len(rankedIds) == 0 {
		return nil
	}

	chunkByID := make(map[string]*ChunkModel, len(rankedIds))
	var missing []string

	for _, id := range rankedIds {
		if c, ok := cache[id]; ok {
			chunkByID[id] = c
		} else {
			missing = append(missing, id)
		}
	}

	if len(missing) > 0 {
		dbChunks, err := async.Await(
			s.chunkRepository.Find(ctx, bson.M{"_id": bson.M{"$in": missing}}, nil, 0, 0),
		)
		if err != nil {
			// keep whatever the term search already returned
			logger.Error("Failed to fetch chunks from database", zap.Error(err))
		}
		for i := range dbChunks {
			chunkByID[dbChunks[i].ChunkID] = &dbChunks[i]
		}
	}

	ordered := make([]*ChunkModel, 0, len(rankedIds))
	for _, id := range rankedIds {
		if ch, ok := chunkByID[id]; ok {
			ordered = append(ordered, ch)
		} else {
			logger.Info("chunk id missing after lookup", zap.String("id", id))
		}
	}
	return ordered
}
