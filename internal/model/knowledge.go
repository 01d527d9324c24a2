package model

import (
	"encoding/json"
	"time"
)

// KnowledgeDocument is a titled block of source text ingested for retrieval.
// EmbeddingStatus flips true once chunking completes; chunk vectors are
// computed at query time, not persisted.
type KnowledgeDocument struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Title           string    `gorm:"size:256;not null" json:"title"`
	Content         string    `gorm:"type:text;not null" json:"content"`
	Metadata        string    `gorm:"type:text" json:"-"` // JSON object
	EmbeddingStatus bool      `gorm:"not null;default:false" json:"embedding_status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// MetadataMap returns the parsed metadata; nil on parse error.
func (d *KnowledgeDocument) MetadataMap() map[string]any {
	if d.Metadata == "" {
		return nil
	}
	var m map[string]any
	_ = json.Unmarshal([]byte(d.Metadata), &m)
	return m
}

// SetMetadata stores the metadata as JSON.
func (d *KnowledgeDocument) SetMetadata(m map[string]any) {
	if len(m) == 0 {
		d.Metadata = ""
		return
	}
	b, _ := json.Marshal(m)
	d.Metadata = string(b)
}

// DocumentChunk is a bounded sub-span of a document's text, the unit of
// retrieval. Source and ChunkIndex carry provenance.
type DocumentChunk struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	DocumentID uint      `gorm:"not null;index" json:"document_id"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	Source     string    `gorm:"size:256" json:"source"`
	ChunkIndex int       `gorm:"not null" json:"chunk_index"`
	CreatedAt  time.Time `json:"created_at"`
}
