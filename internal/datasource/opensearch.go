package datasource

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/telhawk-systems/telhawk-analyzer/internal/models"
)

const maxFetchSize = 10000

// OpenSearchConfig holds connection settings for the uploaded-data store.
type OpenSearchConfig struct {
	URL           string
	Username      string
	Password      string
	TLSSkipVerify bool
	IndexPrefix   string
}

// OpenSearchSource fetches uploaded audit batches from OpenSearch.
type OpenSearchSource struct {
	client *opensearch.Client
	index  string
}

// NewOpenSearchSource creates a client against the uploaded-data store.
func NewOpenSearchSource(cfg OpenSearchConfig) (*OpenSearchSource, error) {
	httpTransport := &http.Transport{
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.TLSSkipVerify,
		},
	}

	client, err := opensearch.NewClient(opensearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: httpTransport,
	})
	if err != nil {
		return nil, fmt.Errorf("create opensearch client: %w", err)
	}

	index := cfg.IndexPrefix
	if index == "" {
		index = "analyzer-uploads"
	}

	return &OpenSearchSource{client: client, index: index}, nil
}

// Fetch queries the uploaded-data index for all records belonging to the
// extraction, ordered by event time.
func (s *OpenSearchSource) Fetch(ctx context.Context, extractionID string) ([]models.RawRecord, error) {
	query := fmt.Sprintf(`{
		"size": %d,
		"query": {"term": {"extraction_id": %q}},
		"sort": [{"timestamp": {"order": "asc", "unmapped_type": "date"}}]
	}`, maxFetchSize, extractionID)

	req := opensearchapi.SearchRequest{
		Index: []string{s.index + "-*"},
		Body:  strings.NewReader(query),
	}

	res, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, fmt.Errorf("search uploaded data: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, ErrNoData
	}
	if res.IsError() {
		return nil, fmt.Errorf("opensearch returned %s", res.Status())
	}

	var body struct {
		Hits struct {
			Hits []struct {
				Source models.RawRecord `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	if len(body.Hits.Hits) == 0 {
		return nil, ErrNoData
	}

	records := make([]models.RawRecord, 0, len(body.Hits.Hits))
	for _, hit := range body.Hits.Hits {
		records = append(records, hit.Source)
	}
	return records, nil
}
