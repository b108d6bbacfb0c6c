package cmd

import (
	"context"
	"testing"

	"github.com/SaiNageswarS/krishi-boot/appconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandTree(t *testing.T) {
	names := make([]string, 0)
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"serve", "mcp", "ingest", "ask"})

	docs, _, err := rootCmd.Find([]string{"ingest", "docs"})
	require.NoError(t, err)
	assert.Equal(t, "docs", docs.Name())
	assert.NotNil(t, docs.Flags().Lookup("tags"))

	kcc, _, err := rootCmd.Find([]string{"ingest", "kcc"})
	require.NoError(t, err)
	assert.Equal(t, "100", kcc.Flags().Lookup("batch-size").DefValue)
	assert.Equal(t, "10", kcc.Flags().Lookup("batches").DefValue)
}

func TestAskDefaultsToAutoDetection(t *testing.T) {
	flag := askCmd.Flags().Lookup("language")
	require.NotNil(t, flag)
	assert.Equal(t, "auto", flag.DefValue)
	assert.Equal(t, "l", flag.Shorthand)
}

func TestStreamingOptimizations(t *testing.T) {
	assert.Len(t, getStreamingOptimizations(), 4)
}

func TestConnectMongoDisabledWithoutURI(t *testing.T) {
	t.Setenv("MONGO_URI", "")

	assert.Nil(t, connectMongo(context.Background(), &appconfig.AppConfig{Tenant: "krishi"}))
}
