package knowledge

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/go-api-boot/odm"
	"github.com/SaiNageswarS/go-collection-boot/async"
	"github.com/sourcegraph/conc/pool"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"
)

const defaultIngestConcurrency = 4

// ChunkStore persists a chunk together with its embedding.
type ChunkStore interface {
	SaveChunk(ctx context.Context, chunk ChunkModel, embedding []float32) error
}

type MongoChunkStore struct {
	chunks  odm.OdmCollectionInterface[ChunkModel]
	vectors odm.OdmCollectionInterface[ChunkAnnModel]
}

func NewMongoChunkStore(chunks odm.OdmCollectionInterface[ChunkModel], vectors odm.OdmCollectionInterface[ChunkAnnModel]) *MongoChunkStore {
	return &MongoChunkStore{chunks: chunks, vectors: vectors}
}

func (s *MongoChunkStore) SaveChunk(ctx context.Context, chunk ChunkModel, embedding []float32) error {
	if _, err := async.Await(s.chunks.Save(ctx, chunk)); err != nil {
		return fmt.Errorf("failed to save chunk %s: %w", chunk.ChunkID, err)
	}

	ann := ChunkAnnModel{ChunkID: chunk.ChunkID, Embedding: bson.NewVector(embedding)}
	if _, err := async.Await(s.vectors.Save(ctx, ann)); err != nil {
		return fmt.Errorf("failed to save embedding for %s: %w", chunk.ChunkID, err)
	}
	return nil
}

// Ingester embeds chunks with bounded parallelism and stores them.
type Ingester struct {
	embedder    Embedder
	store       ChunkStore
	concurrency int
	batchDelay  time.Duration
}

func NewIngester(embedder Embedder, store ChunkStore, concurrency int) *Ingester {
	if concurrency <= 0 {
		concurrency = defaultIngestConcurrency
	}
	return &Ingester{
		embedder:    embedder,
		store:       store,
		concurrency: concurrency,
		batchDelay:  2 * time.Second,
	}
}

// IngestChunks stops at the first failure and returns it.
func (in *Ingester) IngestChunks(ctx context.Context, chunks []ChunkModel) error {
	p := pool.New().WithContext(ctx).WithCancelOnError().WithFirstError().WithMaxGoroutines(in.concurrency)

	for _, chunk := range chunks {
		p.Go(func(ctx context.Context) error {
			emb, err := in.embedder.Embed(ctx, chunk.EmbeddingText())
			if err != nil {
				return fmt.Errorf("failed to embed chunk %s: %w", chunk.ChunkID, err)
			}
			return in.store.SaveChunk(ctx, chunk, emb)
		})
	}

	return p.Wait()
}

// IngestMarkdownDir chunks every .md file under dir. It returns the number of chunks stored.
func (in *Ingester) IngestMarkdownDir(ctx context.Context, dir string, tags []string) (int, error) {
	var chunks []ChunkModel
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".md") {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = path
		}
		fileChunks := ChunkMarkdown(filepath.ToSlash(rel), data, tags)
		logger.Info("Chunked markdown document", zap.String("file", rel), zap.Int("chunks", len(fileChunks)))
		chunks = append(chunks, fileChunks...)
		return nil
	})
	if err != nil {
		return 0, err
	}

	if err := in.IngestChunks(ctx, chunks); err != nil {
		return 0, err
	}
	return len(chunks), nil
}

// IngestKCC pulls up to maxBatches pages of batchSize records. A short page
// ends the run. Failed batches are logged and skipped.
func (in *Ingester) IngestKCC(ctx context.Context, client *KCCClient, batchSize, maxBatches int) (int, error) {
	total := 0
	var failed []int

	for batch := 0; maxBatches <= 0 || batch < maxBatches; batch++ {
		records, err := client.FetchBatch(ctx, batchSize, batch*batchSize)
		if err != nil {
			return total, err
		}
		if len(records) == 0 {
			break
		}

		chunks := make([]ChunkModel, len(records))
		for i, r := range records {
			chunks[i] = r.Chunk()
		}

		if err := in.IngestChunks(ctx, chunks); err != nil {
			logger.Error("KCC batch failed", zap.Int("batch", batch+1), zap.Error(err))
			failed = append(failed, batch+1)
		} else {
			total += len(records)
			logger.Info("KCC batch ingested", zap.Int("batch", batch+1), zap.Int("records", len(records)), zap.Int("total", total))
		}

		if len(records) < batchSize {
			break
		}

		select {
		case <-ctx.Done():
			return total, ctx.Err()
		case <-time.After(in.batchDelay):
		}
	}

	if len(failed) > 0 {
		logger.Error("KCC ingestion finished with failed batches", zap.Ints("batches", failed))
	}
	return total, nil
}
