package tagger

import (
	"context"
	"encoding/csv"
	"fmt"
	"image"
	"os"
	"strconv"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// WDInterrogator runs a WaifuDiffusion-style ONNX tagger model. The tag
// metadata (selected_tags.csv: tag_id,name,category) is parsed eagerly so
// Categories works before the first inference; the ONNX session itself is
// created lazily on first use.
type WDInterrogator struct {
	name      string
	modelPath string
	library   string

	tagNames   []string
	tagCats    []int
	categories map[string]int

	mu      sync.Mutex
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
}

// NewWDInterrogator parses the tag metadata and returns an interrogator
// ready to lazily load its model session. library optionally points at the
// onnxruntime shared library.
func NewWDInterrogator(name, modelPath, tagsPath, library string) (*WDInterrogator, error) {
	names, cats, err := readTagMetadata(tagsPath)
	if err != nil {
		return nil, fmt.Errorf("read tags for %s: %w", name, err)
	}

	categories := make(map[string]int, len(names))
	for i, tag := range names {
		categories[tag] = cats[i]
	}

	return &WDInterrogator{
		name:       name,
		modelPath:  modelPath,
		library:    library,
		tagNames:   names,
		tagCats:    cats,
		categories: categories,
	}, nil
}

func (w *WDInterrogator) Name() string { return w.name }

func (w *WDInterrogator) Categories() map[string]int { return w.categories }

// Interrogate evaluates one image and returns the full score maps. The
// session lock also guards the shared input/output tensors.
func (w *WDInterrogator) Interrogate(ctx context.Context, img image.Image) (Result, error) {
	inputData := Preprocess(img)

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if err := w.loadLocked(); err != nil {
		return Result{}, err
	}

	copy(w.input.GetData(), inputData)
	if err := w.session.Run(); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInferenceFailed, err)
	}

	logits := w.output.GetData()
	res := Result{
		Ratings: make(map[string]float64, 4),
		Tags:    make(map[string]float64, len(logits)),
	}
	for i, v := range logits {
		if i >= len(w.tagNames) {
			break
		}
		score := float64(Sigmoid(v))
		if w.tagCats[i] == RatingCategory {
			res.Ratings[w.tagNames[i]] = score
		} else {
			res.Tags[w.tagNames[i]] = score
		}
	}
	return res, nil
}

// Unload destroys the ONNX session, reporting whether one was loaded.
func (w *WDInterrogator) Unload() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.session == nil {
		return false
	}
	_ = w.session.Destroy()
	_ = w.input.Destroy()
	_ = w.output.Destroy()
	w.session = nil
	w.input = nil
	w.output = nil
	return true
}

func (w *WDInterrogator) loadLocked() error {
	if w.session != nil {
		return nil
	}
	if err := initRuntime(w.library); err != nil {
		return err
	}

	inputs, outputs, err := ort.GetInputOutputInfo(w.modelPath)
	if err != nil {
		return fmt.Errorf("model input/output info: %w", err)
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return fmt.Errorf("model %s declares no inputs or outputs", w.name)
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return fmt.Errorf("create session options: %w", err)
	}
	defer opts.Destroy()

	input, err := ort.NewTensor(ort.NewShape(1, 3, ImageSize, ImageSize),
		make([]float32, 3*ImageSize*ImageSize))
	if err != nil {
		return fmt.Errorf("create input tensor: %w", err)
	}
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(len(w.tagNames))))
	if err != nil {
		input.Destroy()
		return fmt.Errorf("create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(
		w.modelPath,
		[]string{inputs[0].Name},
		[]string{outputs[0].Name},
		[]ort.Value{input},
		[]ort.Value{output},
		opts,
	)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return fmt.Errorf("create session: %w", err)
	}

	w.session = session
	w.input = input
	w.output = output
	return nil
}

func readTagMetadata(path string) ([]string, []int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("parse csv: %w", err)
	}

	var names []string
	var cats []int
	for i, record := range records {
		if len(record) < 3 {
			continue
		}
		// Skip the header row (tag_id,name,category).
		if i == 0 {
			if _, err := strconv.Atoi(record[0]); err != nil {
				continue
			}
		}
		category, err := strconv.Atoi(record[2])
		if err != nil {
			category = -1
		}
		names = append(names, record[1])
		cats = append(cats, category)
	}
	if len(names) == 0 {
		return nil, nil, fmt.Errorf("no tags in %s", path)
	}
	return names, cats, nil
}
