package tagger

import (
	"fmt"
	"runtime"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

var (
	runtimeOnce sync.Once
	runtimeErr  error
)

// initRuntime initializes the process-wide ONNX runtime environment on first
// use. library overrides the shared library location; when empty a platform
// default is tried and otherwise the binding's own lookup applies.
func initRuntime(library string) error {
	runtimeOnce.Do(func() {
		if library == "" {
			library = defaultLibraryPath()
		}
		if library != "" {
			ort.SetSharedLibraryPath(library)
		}
		if !ort.IsInitialized() {
			if err := ort.InitializeEnvironment(); err != nil {
				runtimeErr = fmt.Errorf("initialize onnx runtime: %w", err)
			}
		}
	})
	return runtimeErr
}

func defaultLibraryPath() string {
	switch runtime.GOOS {
	case "darwin":
		return "/usr/local/lib/libonnxruntime.dylib"
	default:
		return ""
	}
}
