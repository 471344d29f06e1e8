package knowledge_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aescanero/dago-chat-gateway/internal/knowledge"
	"github.com/m-mizutani/gt"
	"go.uber.org/zap"
)

func TestSearchClientSendsEncodedQuery(t *testing.T) {
	var (
		gotPath   string
		gotKey    string
		gotSearch string
		gotTop    int
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path + "?" + r.URL.RawQuery
		gotKey = r.Header.Get("api-key")

		body, _ := io.ReadAll(r.Body)
		var req struct {
			Search string `json:"search"`
			Top    int    `json:"top"`
		}
		_ = json.Unmarshal(body, &req)
		gotSearch = req.Search
		gotTop = req.Top

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"value":[{"@search.score":0.9,"id":"X","elo_transport":"MTIzNDU2Nzg","count":3,"note":null}]}`))
	}))
	defer srv.Close()

	client := knowledge.NewSearchClient(srv.URL+"/", "transports", "secret", zap.NewNop())
	records, err := client.Search(context.Background(), "12345678")
	gt.NoError(t, err)

	gt.Equal(t, gotPath, "/indexes/transports/docs/search?api-version=2024-07-01")
	gt.Equal(t, gotKey, "secret")
	gt.Equal(t, gotSearch, "MTIzNDU2Nzg")
	gt.Equal(t, gotTop, 1)

	gt.A(t, records).Length(1)
	rec := records[0]
	gt.A(t, rec.Fields).Length(5)
	gt.Equal(t, rec.Fields[0].Name, "@search.score")
	gt.Equal(t, rec.Fields[1].Name, "id")
	gt.Equal(t, rec.Fields[4].Value, nil)
	gt.Equal(t, rec.Summary(), "id: X, elo_transport: 12345678, count: 3")
}

func TestSearchClientStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := knowledge.NewSearchClient(srv.URL, "transports", "bad", zap.NewNop(), knowledge.WithAPIVersion("2023-11-01"))
	_, err := client.Search(context.Background(), "12345678")
	gt.Error(t, err)
}

func TestSearchClientUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := knowledge.NewSearchClient(url, "transports", "key", zap.NewNop())
	_, err := client.Search(context.Background(), "12345678")
	gt.Error(t, err)
}

func TestParseRecords(t *testing.T) {
	t.Run("empty result", func(t *testing.T) {
		records, err := knowledge.ParseRecords([]byte(`{"value":[]}`))
		gt.NoError(t, err)
		gt.A(t, records).Length(0)
	})

	t.Run("keeps ranking order", func(t *testing.T) {
		records, err := knowledge.ParseRecords([]byte(`{"value":[{"id":"first"},{"id":"second"}]}`))
		gt.NoError(t, err)
		gt.A(t, records).Length(2)
		gt.Equal(t, records[0].Fields[0].Value, any("first"))
		gt.Equal(t, records[1].Fields[0].Value, any("second"))
	})

	t.Run("booleans", func(t *testing.T) {
		records, err := knowledge.ParseRecords([]byte(`{"value":[{"hazard":true}]}`))
		gt.NoError(t, err)
		gt.Equal(t, records[0].Summary(), "hazard: true")
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := knowledge.ParseRecords([]byte(`{"value":[`))
		gt.Error(t, err)
	})

	t.Run("missing value", func(t *testing.T) {
		_, err := knowledge.ParseRecords([]byte(`{"error":{"message":"nope"}}`))
		gt.Error(t, err)
	})
}
