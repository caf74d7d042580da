// Package taxonomy manages taxonomy node embeddings behind a
// content-addressed cache, so re-scoring only pays for nodes whose
// definition actually changed.
package taxonomy

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Node is one taxonomy entry: a label with the text that defines it.
type Node struct {
	Label       string   `json:"label"`
	Description string   `json:"description"`
	Exemplars   []string `json:"exemplars"`
}

// ContentHash returns a stable hash of everything that feeds the node's
// embedding. A cache entry is valid iff its stored hash matches this.
func (n Node) ContentHash() string {
	h := sha256.New()
	h.Write([]byte(n.Label))
	h.Write([]byte{0x1f})
	h.Write([]byte(n.Description))
	for _, exemplar := range n.Exemplars {
		h.Write([]byte{0x1e})
		h.Write([]byte(exemplar))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// EmbeddingText is the text actually embedded for the node.
func (n Node) EmbeddingText() string {
	parts := make([]string, 0, 2+len(n.Exemplars))
	parts = append(parts, n.Label)
	if n.Description != "" {
		parts = append(parts, n.Description)
	}
	parts = append(parts, n.Exemplars...)
	return strings.Join(parts, "\n")
}
