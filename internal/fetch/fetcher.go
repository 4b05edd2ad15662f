package fetch

import (
	"context"
	"crypto/sha1"
	"encoding/hex"

	"github.com/xxxsen/filingchat/internal/model"
)

// Fetcher is the document collaborator contract: it hands the core sanitized
// documents with stable per-element indices plus the exhibit list of a filing.
type Fetcher interface {
	FetchDocument(ctx context.Context, url string) (*model.Document, error)
	ListExhibits(ctx context.Context, filingURL string) ([]model.Exhibit, error)
}

// FilingID derives the stable filing identifier from its source URL.
func FilingID(url string) string {
	hash := sha1.Sum([]byte(url))
	return hex.EncodeToString(hash[:])[:12]
}
