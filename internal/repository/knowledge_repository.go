package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mmotors/backoffice/internal/model"
)

type KnowledgeRepository struct {
	db *gorm.DB
}

func NewKnowledgeRepository(db *gorm.DB) *KnowledgeRepository {
	return &KnowledgeRepository{db: db}
}

// CreateDocumentWithChunks persists a document and its chunks atomically and
// flips the document's embedding status. A failure at any point rolls the
// whole ingestion back.
func (r *KnowledgeRepository) CreateDocumentWithChunks(doc *model.KnowledgeDocument, chunks []model.DocumentChunk) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(doc).Error; err != nil {
			return fmt.Errorf("create knowledge document failed: %w", err)
		}
		for i := range chunks {
			chunks[i].DocumentID = doc.ID
		}
		if len(chunks) > 0 {
			if err := tx.Create(&chunks).Error; err != nil {
				return fmt.Errorf("create document chunks failed: %w", err)
			}
		}
		doc.EmbeddingStatus = true
		if err := tx.Model(doc).Update("embedding_status", true).Error; err != nil {
			return fmt.Errorf("mark document embedded failed: %w", err)
		}
		return nil
	})
	if err != nil {
		doc.EmbeddingStatus = false
		return err
	}
	return nil
}

func (r *KnowledgeRepository) GetDocumentByID(id uint) (*model.KnowledgeDocument, error) {
	var doc model.KnowledgeDocument
	if err := r.db.First(&doc, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query knowledge document failed: %w", err)
	}
	return &doc, nil
}

func (r *KnowledgeRepository) ListDocuments() ([]model.KnowledgeDocument, error) {
	var docs []model.KnowledgeDocument
	if err := r.db.Order("created_at DESC").Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("list knowledge documents failed: %w", err)
	}
	return docs, nil
}

// ListChunksByDocumentID returns a document's chunks in ingestion order.
func (r *KnowledgeRepository) ListChunksByDocumentID(documentID uint) ([]model.DocumentChunk, error) {
	var chunks []model.DocumentChunk
	if err := r.db.Where("document_id = ?", documentID).
		Order("chunk_index ASC").Find(&chunks).Error; err != nil {
		return nil, fmt.Errorf("list document chunks failed: %w", err)
	}
	return chunks, nil
}

// ListAllChunks returns every chunk in the store, the retrieval corpus.
func (r *KnowledgeRepository) ListAllChunks() ([]model.DocumentChunk, error) {
	var chunks []model.DocumentChunk
	if err := r.db.Order("document_id ASC, chunk_index ASC").Find(&chunks).Error; err != nil {
		return nil, fmt.Errorf("list all chunks failed: %w", err)
	}
	return chunks, nil
}

// DeleteDocument removes a document and its chunks atomically.
func (r *KnowledgeRepository) DeleteDocument(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", id).Delete(&model.DocumentChunk{}).Error; err != nil {
			return fmt.Errorf("delete document chunks failed: %w", err)
		}
		if err := tx.Delete(&model.KnowledgeDocument{}, id).Error; err != nil {
			return fmt.Errorf("delete knowledge document failed: %w", err)
		}
		return nil
	})
}
