// internal/store/elasticsearch.go
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	commonerrors "eligibility-workers/internal/common/errors"
	"eligibility-workers/internal/common/logger"
	"eligibility-workers/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// DecisionIndexer projects decision records into Elasticsearch for the
// review dashboard. The document id is the application id, so re-running
// a batch overwrites instead of duplicating.
type DecisionIndexer struct {
	es     *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewDecisionIndexer(es *elasticsearch.Client, index string, log logger.Logger) *DecisionIndexer {
	return &DecisionIndexer{
		es:     es,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"component": "decision-indexer", "index": index}),
	}
}

// Index writes one decision document.
func (i *DecisionIndexer) Index(ctx context.Context, record models.DecisionRecord) error {
	body, err := json.Marshal(record)
	if err != nil {
		return commonerrors.NewIndexWriteFailedError(i.index, fmt.Errorf("marshal decision: %w", err))
	}

	req := esapi.IndexRequest{
		Index:      i.index,
		DocumentID: record.ApplicationID,
		Body:       bytes.NewReader(body),
	}

	res, err := req.Do(ctx, i.es)
	if err != nil {
		return commonerrors.NewIndexWriteFailedError(i.index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return commonerrors.NewIndexWriteFailedError(i.index, fmt.Errorf("index response: %s", res.Status()))
	}

	i.logger.Debug("decision indexed", map[string]interface{}{
		"applicationId": record.ApplicationID,
	})

	return nil
}

// SearchByDecision returns application ids that received the given outcome.
func (i *DecisionIndexer) SearchByDecision(ctx context.Context, decision string, size int) ([]string, error) {
	queryBody := map[string]interface{}{
		"query": map[string]interface{}{
			"term": map[string]interface{}{
				"final_decision": decision,
			},
		},
		"size":    size,
		"_source": []string{"application_id"},
	}

	body, err := json.Marshal(queryBody)
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	req := esapi.SearchRequest{
		Index: []string{i.index},
		Body:  bytes.NewReader(body),
	}

	res, err := req.Do(ctx, i.es)
	if err != nil {
		return nil, commonerrors.NewElasticsearchConnectionFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search failed: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Hits []struct {
				Source struct {
					ApplicationID string `json:"application_id"`
				} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	ids := make([]string, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		ids = append(ids, hit.Source.ApplicationID)
	}

	return ids, nil
}
