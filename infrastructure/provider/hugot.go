package provider

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
)

const hugotBatchMax = 16

// ErrModelNotFound indicates no usable local model directory.
var ErrModelNotFound = errors.New("local embedding model not found")

// ortSingleton holds the process-wide inference session and pipeline.
// ONNX Runtime allows one active session per process, so every
// HugotEmbedding shares it. The mutex serialises initialisation and
// inference.
var ortSingleton struct {
	session   *hugot.Session
	pipeline  *pipelines.FeatureExtractionPipeline
	modelPath string
	mu        sync.Mutex
	ready     bool
}

// HugotEmbedding generates sentence embeddings in-process from an exported
// sentence-transformer model (tokenizer.json plus ONNX weights).
//
// modelDir is either the model directory itself or a directory with one
// model subdirectory.
type HugotEmbedding struct {
	modelDir string
}

// NewHugotEmbedding creates a HugotEmbedding reading its model from modelDir.
func NewHugotEmbedding(modelDir string) *HugotEmbedding {
	return &HugotEmbedding{modelDir: modelDir}
}

// Available reports whether a usable model exists on disk.
func (h *HugotEmbedding) Available() bool {
	_, err := h.modelPath()
	return err == nil
}

// Model returns an identifier naming the local model, used to detect stale
// index snapshots.
func (h *HugotEmbedding) Model() string {
	path, err := h.modelPath()
	if err != nil {
		return "hugot:" + filepath.Base(h.modelDir)
	}
	return "hugot:" + filepath.Base(path)
}

func (h *HugotEmbedding) initialize() error {
	ortSingleton.mu.Lock()
	defer ortSingleton.mu.Unlock()

	modelPath, err := h.modelPath()
	if err != nil {
		return err
	}
	if ortSingleton.ready {
		if ortSingleton.modelPath != modelPath {
			return fmt.Errorf("hugot session already serves %s, cannot load %s", ortSingleton.modelPath, modelPath)
		}
		return nil
	}

	session, err := newHugotSession(modelPath)
	if err != nil {
		return fmt.Errorf("create hugot session: %w", err)
	}

	config := hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "tafsir-embeddings",
		Options: []hugot.FeatureExtractionOption{
			pipelines.WithNormalization(),
		},
	}
	pipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		_ = session.Destroy()
		return fmt.Errorf("create feature extraction pipeline: %w", err)
	}

	ortSingleton.session = session
	ortSingleton.pipeline = pipeline
	ortSingleton.modelPath = modelPath
	ortSingleton.ready = true
	return nil
}

// modelPath returns modelDir when it holds tokenizer.json, else the first
// subdirectory that does.
func (h *HugotEmbedding) modelPath() (string, error) {
	if h.modelDir == "" {
		return "", fmt.Errorf("%w: no model directory configured", ErrModelNotFound)
	}
	if hasTokenizer(h.modelDir) {
		return h.modelDir, nil
	}
	entries, err := os.ReadDir(h.modelDir)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrModelNotFound, err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		candidate := filepath.Join(h.modelDir, entry.Name())
		if hasTokenizer(candidate) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: no tokenizer.json under %s", ErrModelNotFound, h.modelDir)
}

func hasTokenizer(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, "tokenizer.json"))
	return err == nil
}

// Capacity returns the maximum number of texts per Embed call.
func (h *HugotEmbedding) Capacity() int { return hugotBatchMax }

// Embed generates embeddings for the given texts using the local model.
// The number of texts must not exceed Capacity().
func (h *HugotEmbedding) Embed(ctx context.Context, req EmbeddingRequest) (EmbeddingResponse, error) {
	texts := req.Texts()
	if len(texts) == 0 {
		return NewEmbeddingResponse([][]float64{}, NewUsage(0, 0, 0)), nil
	}
	if len(texts) > hugotBatchMax {
		return EmbeddingResponse{}, fmt.Errorf("embed: %d texts exceeds capacity %d", len(texts), hugotBatchMax)
	}
	if err := ctx.Err(); err != nil {
		return EmbeddingResponse{}, err
	}

	if err := h.initialize(); err != nil {
		return EmbeddingResponse{}, NewProviderError("embedding", 0, "initialize hugot", err)
	}

	ortSingleton.mu.Lock()
	defer ortSingleton.mu.Unlock()

	result, err := ortSingleton.pipeline.RunPipeline(texts)
	if err != nil {
		return EmbeddingResponse{}, NewProviderError("embedding", 0, "run embedding pipeline", err)
	}

	embeddings := make([][]float64, len(result.Embeddings))
	for i, vec32 := range result.Embeddings {
		vec64 := make([]float64, len(vec32))
		for j, v := range vec32 {
			vec64[j] = float64(v)
		}
		embeddings[i] = vec64
	}

	return NewEmbeddingResponse(embeddings, NewUsage(0, 0, 0)), nil
}

// Close is a no-op. The session is process-global and released at exit.
func (h *HugotEmbedding) Close() error {
	return nil
}

var _ Embedder = (*HugotEmbedding)(nil)
