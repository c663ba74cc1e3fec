package dto

import (
	"time"

	"github.com/broce-labs/partsline/internal/entity"
)

// PartResponse represents a catalogue part.
type PartResponse struct {
	ID          int64     `json:"id"`
	Number      string    `json:"number"`
	Description string    `json:"description,omitempty"`
	Cost        float64   `json:"cost,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FromPart maps a part entity.
func FromPart(part *entity.Part) PartResponse {
	return PartResponse{
		ID:          part.ID,
		Number:      part.Number,
		Description: part.Description,
		Cost:        part.Cost,
		ImageURL:    part.ImageURL,
		CreatedAt:   part.CreatedAt,
		UpdatedAt:   part.UpdatedAt,
	}
}

// FromParts maps a slice of parts.
func FromParts(parts []*entity.Part) []PartResponse {
	out := make([]PartResponse, 0, len(parts))
	for _, part := range parts {
		out = append(out, FromPart(part))
	}
	return out
}
