package knowledge

import (
	"context"

	"github.com/SaiNageswarS/go-api-boot/odm"
)

// InitKnowledgeDB creates the search indexes for the tenant's knowledge base.
func InitKnowledgeDB(ctx context.Context, mongo odm.MongoClient, tenant string) error {
	if err := odm.EnsureIndexes[ChunkModel](ctx, mongo, tenant); err != nil {
		return err
	}

	return odm.EnsureIndexes[ChunkAnnModel](ctx, mongo, tenant)
}
