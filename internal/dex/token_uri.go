package dex

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

const tokenURIPrefix = "data:application/json;base64,"

// TokenMetadata is the self-describing JSON document behind the position
// manager's tokenURI, with the rendered position image embedded as a data URL.
type TokenMetadata struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

// DecodeTokenURI parses a base64-encoded tokenURI data URL into its metadata
// document.
func DecodeTokenURI(uri string) (TokenMetadata, error) {
	if !strings.HasPrefix(uri, tokenURIPrefix) {
		return TokenMetadata{}, fmt.Errorf("unexpected token uri scheme: %.40q", uri)
	}

	encoded := strings.TrimPrefix(uri, tokenURIPrefix)
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		// Some renderers emit URL-safe base64.
		raw, err = base64.URLEncoding.DecodeString(encoded)
		if err != nil {
			return TokenMetadata{}, fmt.Errorf("decode token uri: %w", err)
		}
	}

	var meta TokenMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return TokenMetadata{}, fmt.Errorf("parse token metadata: %w", err)
	}
	if meta.Image == "" {
		return TokenMetadata{}, fmt.Errorf("token metadata has no image")
	}

	return meta, nil
}
