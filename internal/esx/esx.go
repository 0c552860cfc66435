// Package esx indexes gateway audit events into Elasticsearch.
package esx

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	es8 "github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/goccy/go-json"
	"github.com/samber/lo"

	"github.com/romangarms/WhereHaveIBeen/internal/config"
)

type Client = es8.Client

// Open builds a client when ES_ADDRS is set; otherwise the client is nil.
func Open(cfg *config.Config) (*Client, func(), error) {
	if strings.TrimSpace(cfg.ES.Addrs) == "" {
		return nil, func() {}, nil
	}
	addrs := lo.FilterMap(strings.Split(cfg.ES.Addrs, ","), func(s string, _ int) (string, bool) {
		t := strings.TrimSpace(s)
		return t, t != ""
	})
	es, err := es8.NewClient(es8.Config{Addresses: addrs, Username: cfg.ES.Username, Password: cfg.ES.Password})
	if err != nil {
		return nil, func() {}, err
	}
	return es, func() {}, nil
}

// Indexer stores one document per event.
type Indexer struct {
	es    *Client
	index string
}

func NewIndexer(es *Client, index string) *Indexer {
	return &Indexer{es: es, index: lo.Ternary(index != "", index, "whib-audit")}
}

// IndexEvent stores doc under id. It is a no-op without a client.
func (ix *Indexer) IndexEvent(ctx context.Context, id string, doc any) error {
	if ix == nil || ix.es == nil {
		return nil
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	res, err := ix.es.Index(ix.index, bytes.NewReader(b),
		ix.es.Index.WithContext(ctx),
		ix.es.Index.WithDocumentID(id))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= http.StatusBadRequest {
		return fmtError(res)
	}
	return nil
}

func fmtError(res *esapi.Response) error { return fmt.Errorf("es error: %s", res.String()) }
