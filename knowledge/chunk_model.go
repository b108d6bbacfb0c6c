package knowledge

import (
	"github.com/SaiNageswarS/go-api-boot/odm"
	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	TextSearchIndexName = "chunkIndex"
	VectorIndexName     = "chunkEmbeddingIndex"
	VectorPath          = "embedding"
)

var TextSearchPaths = []string{"body", "sectionPath", "tags", "title"}

type ChunkModel struct {
	ChunkID     string   `json:"chunkId" bson:"_id"`
	Title       string   `json:"title" bson:"title"`
	SectionPath string   `json:"sectionPath" bson:"sectionPath"`
	SourceURI   string   `json:"sourceUri" bson:"sourceUri"` // file path or "kcc"
	Tags        []string `json:"tags" bson:"tags"`
	Body        string   `json:"body" bson:"body"`
	PrevChunkID string   `json:"prevChunkId" bson:"prevChunkId"`
	NextChunkID string   `json:"nextChunkId" bson:"nextChunkId"`
	SectionID   string   `json:"sectionId" bson:"sectionId"`     // shared by all windows of a section
	WindowIndex int      `json:"windowIndex" bson:"windowIndex"` // 0-based order within the section
}

func (m ChunkModel) Id() string { return m.ChunkID }

func (m ChunkModel) CollectionName() string { return "chunks" }

func (m ChunkModel) TermSearchIndexSpecs() []odm.TermSearchIndexSpec {
	return []odm.TermSearchIndexSpec{
		{
			Name:  TextSearchIndexName,
			Paths: TextSearchPaths,
		},
	}
}

// Passage is the text handed to the agent as a research finding.
func (m ChunkModel) Passage() string {
	if m.SectionPath == "" {
		return m.Body
	}
	return m.SectionPath + "\n" + m.Body
}

// EmbeddingText is what gets embedded for vector search.
func (m ChunkModel) EmbeddingText() string {
	return m.Title + "\n" + m.SectionPath + "\n" + m.Body
}

type ChunkAnnModel struct {
	ChunkID   string      `json:"chunkId" bson:"_id"`
	Embedding bson.Vector `json:"-" bson:"embedding"`
}

func (m ChunkAnnModel) Id() string { return m.ChunkID }

func (m ChunkAnnModel) CollectionName() string { return "chunk_ann_index" }

func (m ChunkAnnModel) VectorIndexSpecs() []odm.VectorIndexSpec {
	return []odm.VectorIndexSpec{
		{
			Name:          VectorIndexName,
			Path:          VectorPath,
			Type:          "vector",
			NumDimensions: EmbeddingDimensions,
			Similarity:    "cosine",
			Quantization:  "scalar",
		},
	}
}
