// Package tagger defines the interrogator contract: model-backed image
// tagging that maps an image to rating and tag confidence scores.
//
// The Registry owns the set of available interrogators, discovered from the
// configured model directory. Interrogators load their ONNX sessions lazily
// on first use and can release them again via Unload. An interrogator that
// additionally implements BulkInterrogator advertises one-pass evaluation of
// several images; callers select that path by type assertion.
package tagger
