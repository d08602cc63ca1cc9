package domain

import (
	"context"
	"encoding/base64"
)

// Image is an inline image payload sent alongside a prompt.
type Image struct {
	MIMEType string
	Data     []byte
}

// Base64 returns the standard base64 encoding of the image bytes.
func (i *Image) Base64() string {
	return base64.StdEncoding.EncodeToString(i.Data)
}

// GenerationConfig carries the model identifier and generation parameters.
type GenerationConfig struct {
	Model            string
	Temperature      float64
	TopK             int
	TopP             float64
	MaxOutputTokens  int
	ResponseMIMEType string
	ResponseSchema   map[string]any
	EnableSearch     bool
}

// GenerationRequest is a single prompt sent to the AI service.
type GenerationRequest struct {
	SystemInstruction string
	Content           string
	Image             *Image
	Config            GenerationConfig
}

// ModelInvoker defines the interface for calling the generative AI service
type ModelInvoker interface {
	Generate(ctx context.Context, req GenerationRequest) (string, error)
}

// InventoryRepository defines the key-based persistence used by the pipeline
type InventoryRepository interface {
	CreateList(ctx context.Context, list *InventoryList) (*InventoryList, error)
	GetList(ctx context.Context, id int64) (*InventoryList, error)
	ListLists(ctx context.Context) ([]InventoryList, error)
	AddItems(ctx context.Context, listID int64, items []InventoryItem) ([]InventoryItem, error)
	SaveShoppingEntries(ctx context.Context, entries []ShoppingListEntry) error
	ListShoppingEntries(ctx context.Context, listID int64) ([]ShoppingListEntry, error)
}

// ImageArchive stores uploaded images and returns where they can be found
type ImageArchive interface {
	Store(ctx context.Context, name string, img *Image) (string, error)
}
