package tagger

import (
	"math"
	"testing"
)

func TestFilterTagsStrictThreshold(t *testing.T) {
	tags := map[string]float64{
		"above":   0.5000001,
		"exact":   0.5,
		"below":   0.4999999,
		"certain": 1.0,
	}

	kept := FilterTags(tags, 0.5)
	if _, ok := kept["above"]; !ok {
		t.Fatal("expected score above threshold to be kept")
	}
	if _, ok := kept["certain"]; !ok {
		t.Fatal("expected 1.0 to be kept")
	}
	if _, ok := kept["exact"]; ok {
		t.Fatal("score equal to threshold must be excluded")
	}
	if _, ok := kept["below"]; ok {
		t.Fatal("score below threshold must be excluded")
	}
}

func TestFilterTagsZeroThresholdKeepsPositiveScores(t *testing.T) {
	kept := FilterTags(map[string]float64{"a": 0.01, "b": 0.0}, 0.0)
	if len(kept) != 1 {
		t.Fatalf("expected only the positive score, got %v", kept)
	}
}

func TestCategorizeSplitsCharacters(t *testing.T) {
	res := Result{
		Ratings: map[string]float64{"general": 0.9},
		Tags: map[string]float64{
			"hatsune_miku": 0.95,
			"long_hair":    0.8,
			"unknown_tag":  0.7,
			"filtered":     0.1,
		},
	}
	categories := map[string]int{
		"hatsune_miku": CharacterCategory,
		"long_hair":    0,
		"filtered":     0,
	}

	got := Categorize(res, categories, 0.5)
	if _, ok := got.Characters["hatsune_miku"]; !ok {
		t.Fatalf("expected character tag, got %#v", got)
	}
	if _, ok := got.Tags["long_hair"]; !ok {
		t.Fatal("expected general tag in Tags")
	}
	if _, ok := got.Tags["unknown_tag"]; !ok {
		t.Fatal("tags absent from the category map belong in Tags")
	}
	if _, ok := got.Tags["filtered"]; ok {
		t.Fatal("threshold filter must apply before categorization")
	}
	if got.Ratings["general"] != 0.9 {
		t.Fatal("ratings pass through unfiltered")
	}
}

func TestSigmoid(t *testing.T) {
	if got := Sigmoid(0); math.Abs(float64(got)-0.5) > 1e-6 {
		t.Fatalf("Sigmoid(0) = %v, want 0.5", got)
	}
	if got := Sigmoid(100); got <= 0.999 {
		t.Fatalf("Sigmoid(100) = %v, want near 1", got)
	}
	if got := Sigmoid(-100); got >= 0.001 {
		t.Fatalf("Sigmoid(-100) = %v, want near 0", got)
	}
}
