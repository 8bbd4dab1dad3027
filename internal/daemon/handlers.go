package daemon

import (
	"encoding/json"
	"fmt"
	"image"
	"net/http"
	"strconv"
	"time"

	"taggerd/internal/api"
	"taggerd/internal/batch"
	"taggerd/internal/logging"
	"taggerd/internal/tagger"
)

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *apiServer) handleInterrogate(w http.ResponseWriter, r *http.Request) {
	var req api.InterrogateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, api.ErrorResponse{Detail: "malformed request body"})
		return
	}
	if req.Image == "" {
		writeError(w, tagger.ErrImageMissing)
		return
	}

	model := s.modelOrDefault(req.Model)
	if _, err := s.daemon.registry.Get(model); err != nil {
		writeError(w, err)
		return
	}
	threshold := s.thresholdOrDefault(req.Threshold)

	raw, img, err := tagger.DecodeBase64Image(req.Image)
	if err != nil {
		writeError(w, err)
		return
	}

	// Both parameters empty means the caller wants a one-shot synchronous
	// interrogation; anything else goes through the named-queue path.
	if req.Queue == "" && req.NameInQueue == "" {
		res, err := s.interrogateSync(r, model, img)
		if err != nil {
			writeError(w, err)
			return
		}
		res.Tags = tagger.FilterTags(res.Tags, threshold)
		writeJSON(w, http.StatusOK, api.InterrogateResponse{Caption: captionOf(res)})
		return
	}

	queue := req.Queue
	if queue == "" {
		queue = s.daemon.manager.GenerateQueueName()
		s.log().Info("generated queue name", logging.String("queue", queue))
	}

	entry, enqueued := s.daemon.manager.Enqueue(queue, req.NameInQueue, batch.Item{
		Model:     model,
		Raw:       raw,
		Image:     img,
		Threshold: threshold,
	})
	if !enqueued {
		s.log().Debug("duplicate submission satisfied from result store",
			logging.String("queue", queue),
			logging.String("name", entry.Name()))
	}

	res, err := entry.Wait(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.InterrogateResponse{Caption: captionOf(res)})
}

func (s *apiServer) handleInterrogateCategorized(w http.ResponseWriter, r *http.Request) {
	var req api.CategorizedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, api.ErrorResponse{Detail: "malformed request body"})
		return
	}
	if req.Image == "" {
		writeError(w, tagger.ErrImageMissing)
		return
	}

	model := s.modelOrDefault(req.Model)
	in, err := s.daemon.registry.Get(model)
	if err != nil {
		writeError(w, err)
		return
	}
	threshold := s.thresholdOrDefault(req.Threshold)

	_, img, err := tagger.DecodeBase64Image(req.Image)
	if err != nil {
		writeError(w, err)
		return
	}

	res, err := s.interrogateSync(r, model, img)
	if err != nil {
		writeError(w, err)
		return
	}
	categorized := tagger.Categorize(res, in.Categories(), threshold)
	writeJSON(w, http.StatusOK, api.CategorizedResponse{
		Ratings:    categorized.Ratings,
		Characters: categorized.Characters,
		Tags:       categorized.Tags,
	})
}

func (s *apiServer) handleInterrogateBatch(w http.ResponseWriter, r *http.Request) {
	var req api.BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, api.ErrorResponse{Detail: "malformed request body"})
		return
	}
	if len(req.Images) == 0 {
		writeError(w, tagger.ErrNoImages)
		return
	}

	model := s.modelOrDefault(req.Model)
	in, err := s.daemon.registry.Get(model)
	if err != nil {
		writeError(w, err)
		return
	}
	threshold := s.thresholdOrDefault(req.Threshold)

	imgs := make([]image.Image, 0, len(req.Images))
	for i, encoded := range req.Images {
		_, img, err := tagger.DecodeBase64Image(encoded)
		if err != nil {
			writeError(w, fmt.Errorf("image %d: %w", i, err))
			return
		}
		imgs = append(imgs, img)
	}

	// All images share one gate acquisition so no other caller interleaves
	// with the batch.
	if err := s.daemon.gate.Acquire(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	defer s.daemon.gate.Release()

	categories := in.Categories()
	captions := make([]api.CategorizedResponse, 0, len(imgs))
	for _, img := range imgs {
		res, err := in.Interrogate(r.Context(), img)
		if err != nil {
			writeError(w, err)
			return
		}
		categorized := tagger.Categorize(res, categories, threshold)
		captions = append(captions, api.CategorizedResponse{
			Ratings:    categorized.Ratings,
			Characters: categorized.Characters,
			Tags:       categorized.Tags,
		})
	}
	writeJSON(w, http.StatusOK, api.BatchResponse{Captions: captions})
}

func (s *apiServer) handleInterrogators(w http.ResponseWriter, r *http.Request) {
	names, err := s.daemon.registry.Refresh()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.InterrogatorsResponse{Models: names})
}

func (s *apiServer) handleUnloadInterrogators(w http.ResponseWriter, r *http.Request) {
	unloaded := s.daemon.registry.UnloadAll()
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "Successfully unloaded %d model(s)", unloaded)
}

func (s *apiServer) handleHistory(w http.ResponseWriter, r *http.Request) {
	resp := api.HistoryResponse{Entries: []api.HistoryEntry{}}
	store := s.daemon.history
	if store == nil {
		writeJSON(w, http.StatusOK, resp)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := store.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, api.HistoryEntry{
			ID:        e.ID,
			Queue:     e.Queue,
			Name:      e.Name,
			Model:     e.Model,
			TagCount:  e.TagCount,
			TopTag:    e.TopTag,
			TopScore:  e.TopScore,
			CreatedAt: e.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// interrogateSync runs one inference under the gate and returns the raw,
// unfiltered result.
func (s *apiServer) interrogateSync(r *http.Request, model string, img image.Image) (tagger.Result, error) {
	in, err := s.daemon.registry.Get(model)
	if err != nil {
		return tagger.Result{}, err
	}
	if err := s.daemon.gate.Acquire(r.Context()); err != nil {
		return tagger.Result{}, err
	}
	defer s.daemon.gate.Release()

	return in.Interrogate(r.Context(), img)
}

func (s *apiServer) modelOrDefault(model string) string {
	if model != "" {
		return model
	}
	return s.daemon.cfg.Tagger.DefaultModel
}

func (s *apiServer) thresholdOrDefault(threshold *float64) float64 {
	if threshold != nil {
		return *threshold
	}
	return s.daemon.cfg.Tagger.DefaultThreshold
}

func captionOf(res tagger.Result) map[string]map[string]float64 {
	return map[string]map[string]float64{
		"rating": res.Ratings,
		"tag":    res.Tags,
	}
}
