// internal/audit/indexer.go

// Package audit indexes evaluation records into Elasticsearch.
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "award-engine/internal/common/errors"
	"award-engine/internal/common/logger"
	"award-engine/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const DefaultIndex = "bid-evaluations"

const indexMapping = `{
  "mappings": {
    "properties": {
      "id":              {"type": "keyword"},
      "jobId":           {"type": "keyword"},
      "trigger":         {"type": "keyword"},
      "outcome":         {"type": "keyword"},
      "winningBidId":    {"type": "keyword"},
      "winningScore":    {"type": "float"},
      "minWinningScore": {"type": "float"},
      "reason":          {"type": "text"},
      "durationMs":      {"type": "long"},
      "evaluatedAt":     {"type": "date"},
      "ranking": {
        "type": "nested",
        "properties": {
          "rank":           {"type": "integer"},
          "bidId":          {"type": "keyword"},
          "professionalId": {"type": "keyword"},
          "amount":         {"type": "float"},
          "timelineWeeks":  {"type": "integer"},
          "matchTier":      {"type": "keyword"},
          "score": {
            "properties": {
              "capability":  {"type": "float"},
              "reputation":  {"type": "float"},
              "trackRecord": {"type": "float"},
              "location":    {"type": "float"},
              "total":       {"type": "float"}
            }
          }
        }
      }
    }
  }
}`

type Indexer struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewIndexer(client *elasticsearch.Client, index string, log logger.Logger) *Indexer {
	if index == "" {
		index = DefaultIndex
	}
	return &Indexer{
		client: client,
		index:  index,
		logger: logger.Component(log, "audit"),
	}
}

// EnsureIndex creates the index with its mapping when it does not exist.
func (i *Indexer) EnsureIndex(ctx context.Context) error {
	res, err := i.client.Indices.Exists([]string{i.index}, i.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return apperrors.NewAuditIndexFailedError(i.index, err)
	}
	drain(res)
	if res.StatusCode == http.StatusOK {
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		return apperrors.NewAuditIndexFailedError(i.index, fmt.Errorf("exists: %s", res.Status()))
	}

	res, err = i.client.Indices.Create(i.index,
		i.client.Indices.Create.WithContext(ctx),
		i.client.Indices.Create.WithBody(strings.NewReader(indexMapping)),
	)
	if err != nil {
		return apperrors.NewAuditIndexFailedError(i.index, err)
	}
	defer drain(res)
	// a concurrent replica may have created it first
	if res.IsError() && res.StatusCode != http.StatusBadRequest {
		return apperrors.NewAuditIndexFailedError(i.index, fmt.Errorf("create: %s", res.Status()))
	}
	i.logger.Info("audit index ready", map[string]interface{}{"index": i.index})
	return nil
}

// Index stores record under its ID, so re-indexing the same evaluation
// overwrites it.
func (i *Indexer) Index(ctx context.Context, record models.EvaluationRecord) error {
	body, err := json.Marshal(record)
	if err != nil {
		return apperrors.NewAuditIndexFailedError(i.index, err)
	}
	res, err := i.client.Index(i.index, bytes.NewReader(body),
		i.client.Index.WithContext(ctx),
		i.client.Index.WithDocumentID(record.ID),
	)
	if err != nil {
		return apperrors.NewAuditIndexFailedError(i.index, err)
	}
	defer drain(res)
	if res.IsError() {
		return apperrors.NewAuditIndexFailedError(i.index, fmt.Errorf("index: %s", res.Status()))
	}
	return nil
}

// ObserveEvaluation indexes record and logs failures.
func (i *Indexer) ObserveEvaluation(ctx context.Context, record models.EvaluationRecord) {
	if err := i.Index(ctx, record); err != nil {
		i.logger.Warn("audit index failed", map[string]interface{}{
			"jobId":        record.JobID,
			"evaluationId": record.ID,
			"error":        err,
		})
	}
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source models.EvaluationRecord `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Recent returns up to size evaluations of jobID, newest first.
func (i *Indexer) Recent(ctx context.Context, jobID string, size int) ([]models.EvaluationRecord, error) {
	query := map[string]interface{}{
		"size":  size,
		"query": map[string]interface{}{"term": map[string]interface{}{"jobId": jobID}},
		"sort":  []interface{}{map[string]interface{}{"evaluatedAt": map[string]string{"order": "desc"}}},
	}
	body, err := json.Marshal(query)
	if err != nil {
		return nil, apperrors.NewAuditIndexFailedError(i.index, err)
	}

	res, err := i.client.Search(
		i.client.Search.WithContext(ctx),
		i.client.Search.WithIndex(i.index),
		i.client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, apperrors.NewAuditIndexFailedError(i.index, err)
	}
	defer drain(res)
	if res.IsError() {
		return nil, apperrors.NewAuditIndexFailedError(i.index, fmt.Errorf("search: %s", res.Status()))
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, apperrors.NewAuditIndexFailedError(i.index, err)
	}
	out := make([]models.EvaluationRecord, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}

func drain(res *esapi.Response) {
	if res == nil || res.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, res.Body)
	_ = res.Body.Close()
}
