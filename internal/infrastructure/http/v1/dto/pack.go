package dto

import (
	"github.com/jczaplew/gl-js-offline/internal/usecase"
)

type Source struct {
	Type     string   `json:"type" validate:"required"`
	URL      string   `json:"url,omitempty"`
	Tiles    []string `json:"tiles,omitempty"`
	TileSize int      `json:"tileSize,omitempty"`
}

type CreatePackRequest struct {
	Name    string            `json:"name"`
	Sources map[string]Source `json:"sources" validate:"required,min=1,dive"`
	Bounds  []float64         `json:"bounds" validate:"required,len=4"`
	MinZoom *int              `json:"minZoom" validate:"required"`
	MaxZoom int               `json:"maxZoom" validate:"required"`
}

func (r CreatePackRequest) ToParams() usecase.CreateParams {
	return usecase.CreateParams{
		Name:    r.Name,
		Sources: toSpecs(r.Sources),
		Bounds:  r.Bounds,
		MinZoom: r.MinZoom,
		MaxZoom: r.MaxZoom,
	}
}

type EstimateRequest struct {
	Sources map[string]Source `json:"sources" validate:"required,min=1,dive"`
	Bounds  []float64         `json:"bounds" validate:"required,min=2,max=4"`
	MinZoom int               `json:"minZoom"`
	MaxZoom int               `json:"maxZoom" validate:"required"`
}

func (r EstimateRequest) ToParams() usecase.EstimateParams {
	return usecase.EstimateParams{
		Sources: toSpecs(r.Sources),
		Bounds:  r.Bounds,
		MinZoom: r.MinZoom,
		MaxZoom: r.MaxZoom,
	}
}

func toSpecs(sources map[string]Source) map[string]usecase.SourceSpec {
	specs := make(map[string]usecase.SourceSpec, len(sources))
	for name, src := range sources {
		specs[name] = usecase.SourceSpec{
			Type:     src.Type,
			URL:      src.URL,
			Tiles:    src.Tiles,
			TileSize: src.TileSize,
		}
	}
	return specs
}

type EstimateResponse struct {
	Bytes int64 `json:"bytes"`
}

type CreatePackResponse struct {
	Name string `json:"name"`
}
