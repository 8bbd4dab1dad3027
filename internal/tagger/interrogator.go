package tagger

import (
	"context"
	"image"
)

// CharacterCategory is the tag category id reserved for character tags.
const CharacterCategory = 4

// RatingCategory is the tag category id reserved for rating tags.
const RatingCategory = 9

// Result holds one interrogation outcome: confidence per rating label and
// per tag label. Ratings are always reported in full; tags are filtered
// against a caller threshold downstream.
type Result struct {
	Ratings map[string]float64
	Tags    map[string]float64
}

// Categorized splits a Result's tags into character tags (category 4) and
// everything else.
type Categorized struct {
	Ratings    map[string]float64
	Characters map[string]float64
	Tags       map[string]float64
}

// Interrogator evaluates a single image. Implementations are not required
// to be safe for concurrent invocation; callers serialize through the
// inference gate.
type Interrogator interface {
	// Name returns the model identifier.
	Name() string
	// Interrogate returns the full, unfiltered rating and tag scores.
	Interrogate(ctx context.Context, img image.Image) (Result, error)
	// Categories maps tag labels to their category id. Unknown tags are
	// treated as category -1 by callers.
	Categories() map[string]int
	// Unload releases model resources, reporting whether anything was
	// released. Implementations whose runtime cannot release report false.
	Unload() bool
}

// BulkInterrogator is the optional capability of evaluating several images
// in one pass. The batch runner selects this path when available.
type BulkInterrogator interface {
	Interrogator
	InterrogateBulk(ctx context.Context, imgs []image.Image) ([]Result, error)
}

// FilterTags returns the tags whose confidence strictly exceeds threshold.
// A score exactly equal to the threshold is excluded.
func FilterTags(tags map[string]float64, threshold float64) map[string]float64 {
	kept := make(map[string]float64, len(tags))
	for name, score := range tags {
		if score > threshold {
			kept[name] = score
		}
	}
	return kept
}

// Categorize applies the threshold filter and splits tags by category:
// category 4 goes to Characters, anything else (including tags absent from
// the category map) stays in Tags.
func Categorize(res Result, categories map[string]int, threshold float64) Categorized {
	out := Categorized{
		Ratings:    res.Ratings,
		Characters: map[string]float64{},
		Tags:       map[string]float64{},
	}
	for name, score := range FilterTags(res.Tags, threshold) {
		category, ok := categories[name]
		if !ok {
			category = -1
		}
		if category == CharacterCategory {
			out.Characters[name] = score
		} else {
			out.Tags[name] = score
		}
	}
	return out
}
