package service

import (
	"car-price/internal/domain"
)

// PowerRange is the observed engine power range
type PowerRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// UniqueValues lists the static choices for the non-brand fields
type UniqueValues struct {
	BodyTypes  []string   `json:"bodyTypes"`
	Colors     []string   `json:"colors"`
	FuelTypes  []string   `json:"fuelTypes"`
	Years      []int      `json:"years"`
	PowerRange PowerRange `json:"power_range"`
}

// ReferenceService serves the static reference data produced by preprocessing
type ReferenceService interface {
	Brands() []string
	Models(brand string) ([]string, error)
	UniqueValues() UniqueValues
	Metrics() domain.ModelMetrics
}

type referenceService struct {
	values domain.ReferenceValues
	info   domain.FeatureInfo
}

// NewReferenceService creates a new instance of ReferenceService
func NewReferenceService(values domain.ReferenceValues, info domain.FeatureInfo) ReferenceService {
	return &referenceService{values: values, info: info}
}

func (s *referenceService) Brands() []string {
	return nonNil(s.values.Brands)
}

// Models returns the models known for brand
func (s *referenceService) Models(brand string) ([]string, error) {
	models, ok := s.values.Models[brand]
	if !ok {
		return nil, ErrBrandNotFound
	}
	return nonNil(models), nil
}

func (s *referenceService) UniqueValues() UniqueValues {
	years := s.values.Years
	if years == nil {
		years = []int{}
	}
	return UniqueValues{
		BodyTypes: nonNil(s.values.BodyTypes),
		Colors:    nonNil(s.values.Colors),
		FuelTypes: nonNil(s.values.FuelTypes),
		Years:     years,
		PowerRange: PowerRange{
			Min: s.values.MinPower,
			Max: s.values.MaxPower,
		},
	}
}

func (s *referenceService) Metrics() domain.ModelMetrics {
	return s.info.Metrics
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
