package knowledge

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKCCRecordFormat(t *testing.T) {
	r := KCCRecord{StateName: "Punjab", Crop: "Wheat", QueryText: "Yellow leaves on wheat", KccAns: "Apply urea 25 kg per acre"}

	assert.Equal(t, "Farmer Query from Punjab:\nYellow leaves on wheat\n\nExpert Answer:\nApply urea 25 kg per acre\n\nCrop: Wheat\nSource: Kisan Call Centre", r.Format())
	assert.Equal(t, "Farmer Query from Unknown:\nNo query\n\nExpert Answer:\nNo answer\n\nCrop: General\nSource: Kisan Call Centre", KCCRecord{}.Format())

	chunk := r.Chunk()
	assert.Equal(t, r.Format(), chunk.Body)
	assert.Equal(t, []string{"KCC", "Punjab", "Wheat"}, chunk.Tags)
	assert.Equal(t, "kcc", chunk.SourceURI)
	assert.Equal(t, chunk.ChunkID, r.Chunk().ChunkID)
}

func TestKCCFetchBatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "gov-key", r.URL.Query().Get("api-key"))
		assert.Equal(t, "2", r.URL.Query().Get("limit"))
		if r.URL.Query().Get("offset") != "0" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"records":[{"StateName":"Bihar","Crop":"Maize","QueryText":"q1","KccAns":"a1"},{"StateName":"Assam","QueryText":"q2","KccAns":"a2"}]}`))
	}))
	defer server.Close()

	t.Setenv("GOV_IN_API_KEY", "gov-key")
	c := NewKCCClient(server.URL, nil)

	records, err := c.FetchBatch(context.Background(), 2, 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Maize", records[0].Crop)
	assert.Equal(t, "", records[1].Crop)

	_, err = c.FetchBatch(context.Background(), 2, 2)
	assert.ErrorContains(t, err, "status 500")
}
