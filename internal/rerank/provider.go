package rerank

import (
	"fmt"

	"github.com/Harshitk-cp/groundwork/internal/domain"
)

const (
	ProviderHTTP = "http"
	ProviderMock = "mock"
	ProviderNone = "none"
)

// NewClient creates a reranker based on the provider name. ProviderNone
// returns nil, nil: the gate still decides but nothing is reranked.
func NewClient(provider, url, apiKey, model string) (domain.Reranker, error) {
	switch provider {
	case ProviderHTTP:
		if url == "" {
			return nil, fmt.Errorf("RERANK_URL is required for the http rerank provider")
		}
		return NewHTTPClient(url, apiKey, model), nil

	case ProviderMock:
		return NewMockReranker(), nil

	case ProviderNone, "":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown rerank provider: %s (valid options: http, mock, none)", provider)
	}
}
