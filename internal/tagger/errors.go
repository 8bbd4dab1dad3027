package tagger

import "errors"

var (
	// ErrModelNotFound reports an unknown model identifier.
	ErrModelNotFound = errors.New("model not found")
	// ErrNoModels reports that the registry holds no interrogators at all.
	ErrNoModels = errors.New("no models registered")
	// ErrImageMissing reports a request without an image payload.
	ErrImageMissing = errors.New("image not found")
	// ErrImageDecode reports an undecodable image payload.
	ErrImageDecode = errors.New("invalid encoded image")
	// ErrNoImages reports a batch request with an empty image list.
	ErrNoImages = errors.New("no images provided")
	// ErrInferenceFailed wraps failures raised by the underlying model runtime.
	ErrInferenceFailed = errors.New("inference failed")
	// ErrUnauthorized reports failed or missing credentials.
	ErrUnauthorized = errors.New("unauthorized")
)
