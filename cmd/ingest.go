package cmd

import (
	"errors"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/go-api-boot/odm"
	"github.com/SaiNageswarS/krishi-boot/knowledge"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	errNoMongo   = errors.New("mongo_uri must be configured to ingest knowledge")
	errNoKCCURL  = errors.New("kcc_data_url must be configured to ingest KCC records")
	ingestTags   []string
	kccBatchSize int
	kccBatches   int
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load documents into the crop advisory knowledge base",
}

var ingestDocsCmd = &cobra.Command{
	Use:   "docs <dir>",
	Short: "Chunk, embed and store every markdown file under dir",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := getCancellableContext()
		a := bootstrap(ctx, false)
		ingester, err := newIngester(a)
		if err != nil {
			return err
		}

		n, err := ingester.IngestMarkdownDir(ctx, args[0], ingestTags)
		if err != nil {
			return err
		}
		logger.Info("Ingested markdown documents", zap.String("dir", args[0]), zap.Int("chunks", n))
		return nil
	},
}

var ingestKCCCmd = &cobra.Command{
	Use:   "kcc",
	Short: "Fetch Kisan Call Centre records from data.gov.in and store them",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := getCancellableContext()
		a := bootstrap(ctx, false)
		if a.cfg.KCCDataURL == "" {
			return errNoKCCURL
		}
		ingester, err := newIngester(a)
		if err != nil {
			return err
		}

		n, err := ingester.IngestKCC(ctx, knowledge.NewKCCClient(a.cfg.KCCDataURL, nil), kccBatchSize, kccBatches)
		if err != nil {
			return err
		}
		logger.Info("Ingested KCC records", zap.Int("records", n))
		return nil
	},
}

func newIngester(a *app) (*knowledge.Ingester, error) {
	if a.mongo == nil {
		return nil, errNoMongo
	}
	store := knowledge.NewMongoChunkStore(
		odm.CollectionOf[knowledge.ChunkModel](a.mongo, a.cfg.Tenant),
		odm.CollectionOf[knowledge.ChunkAnnModel](a.mongo, a.cfg.Tenant),
	)
	return knowledge.NewIngester(a.embedder, store, a.cfg.IngestConcurrency), nil
}

func init() {
	ingestDocsCmd.Flags().StringSliceVar(&ingestTags, "tags", nil, "tags stored with every chunk")
	ingestKCCCmd.Flags().IntVar(&kccBatchSize, "batch-size", 100, "records fetched per request")
	ingestKCCCmd.Flags().IntVar(&kccBatches, "batches", 10, "maximum number of batches to fetch")

	ingestCmd.AddCommand(ingestDocsCmd, ingestKCCCmd)
}
