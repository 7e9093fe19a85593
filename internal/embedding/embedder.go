// Package embedding turns note and query text into 384-dimensional
// unit vectors using a local ONNX Runtime session, with no network
// calls and no dependency on an external embedding provider.
package embedding

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/daulet/tokenizers"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/salvadalba/sunder/internal/sundererr"
)

const (
	// MaxTokens is the window size fed to the model in one inference
	// call. Longer texts are split into overlapping windows.
	MaxTokens = 512
	// OverlapTokens is how far consecutive windows overlap, so a
	// concept split across a window boundary still appears whole in
	// at least one window.
	OverlapTokens = 256
)

// Embedder wraps a single ONNX session and HuggingFace tokenizer.
// Inference is not thread-safe at the ORT level, so every call to
// embedTokens is serialized through mu — concurrent callers queue
// rather than racing on the session.
type Embedder struct {
	session   *ort.DynamicAdvancedSession
	tokenizer *tokenizers.Tokenizer
	mu        sync.Mutex
}

// New loads model_quantized.onnx and tokenizer.json from resourceDir
// and initializes an ONNX Runtime session with intraOpThreads of
// intra-op parallelism (inter-op is pinned to 1 to avoid thread
// contention on top of intra-op).
func New(resourceDir string, intraOpThreads int) (*Embedder, error) {
	modelPath := filepath.Join(resourceDir, "model_quantized.onnx")
	tokenizerPath := filepath.Join(resourceDir, "tokenizer.json")

	if _, err := os.Stat(modelPath); err != nil {
		return nil, sundererr.EmbeddingError(fmt.Errorf("ONNX model not found: %s", modelPath))
	}
	if _, err := os.Stat(tokenizerPath); err != nil {
		return nil, sundererr.EmbeddingError(fmt.Errorf("tokenizer not found: %s", tokenizerPath))
	}

	if err := ort.InitializeEnvironment(); err != nil {
		return nil, sundererr.EmbeddingError(fmt.Errorf("init onnxruntime: %w", err))
	}

	if intraOpThreads <= 0 {
		intraOpThreads = 2
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, sundererr.EmbeddingError(fmt.Errorf("session options: %w", err))
	}
	defer opts.Destroy()

	if err := opts.SetIntraOpNumThreads(intraOpThreads); err != nil {
		return nil, sundererr.EmbeddingError(fmt.Errorf("set intra-op threads: %w", err))
	}
	if err := opts.SetInterOpNumThreads(1); err != nil {
		return nil, sundererr.EmbeddingError(fmt.Errorf("set inter-op threads: %w", err))
	}

	inputNames := []string{"input_ids", "attention_mask", "token_type_ids"}
	outputNames := []string{"last_hidden_state"}

	session, err := ort.NewDynamicAdvancedSession(modelPath, inputNames, outputNames, opts)
	if err != nil {
		return nil, sundererr.EmbeddingError(fmt.Errorf("create session: %w", err))
	}

	tk, err := tokenizers.FromFile(tokenizerPath)
	if err != nil {
		session.Destroy()
		return nil, sundererr.EmbeddingError(fmt.Errorf("load tokenizer: %w", err))
	}

	return &Embedder{session: session, tokenizer: tk}, nil
}

// Close releases the ONNX session and tokenizer.
func (e *Embedder) Close() {
	if e.session != nil {
		e.session.Destroy()
	}
	if e.tokenizer != nil {
		e.tokenizer.Close()
	}
}

// EmbedText embeds a text string into a 384-dimensional unit vector.
// Texts tokenizing to more than MaxTokens are split into overlapping
// windows, embedded independently, and averaged elementwise before a
// final re-normalization.
func (e *Embedder) EmbedText(text string) ([]float32, error) {
	enc := e.tokenizer.EncodeWithOptions(text, true, tokenizers.WithReturnAttentionMask())
	ids := enc.IDs
	mask := enc.AttentionMask

	if len(ids) <= MaxTokens {
		return e.embedTokens(ids, mask)
	}

	var chunkVecs [][]float32
	start := 0
	for start < len(ids) {
		end := start + MaxTokens
		if end > len(ids) {
			end = len(ids)
		}

		vec, err := e.embedTokens(ids[start:end], mask[start:end])
		if err != nil {
			return nil, err
		}
		chunkVecs = append(chunkVecs, vec)

		if end >= len(ids) {
			break
		}
		start += MaxTokens - OverlapTokens
	}

	avg := make([]float32, Dim)
	for _, vec := range chunkVecs {
		for d, v := range vec {
			avg[d] += v
		}
	}
	n := float32(len(chunkVecs))
	for d := range avg {
		avg[d] /= n
	}
	l2Normalize(avg)
	return avg, nil
}

// embedTokens runs one ONNX inference call over a single token window
// (at most MaxTokens long), mean-pools the last hidden state weighted
// by the attention mask, and L2-normalizes the result.
func (e *Embedder) embedTokens(ids, mask []uint32) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	seqLen := len(ids)
	idsI64 := make([]int64, seqLen)
	maskI64 := make([]int64, seqLen)
	typeI64 := make([]int64, seqLen) // single-segment input: all zeros
	for i := range ids {
		idsI64[i] = int64(ids[i])
		maskI64[i] = int64(mask[i])
	}

	shape := ort.NewShape(1, int64(seqLen))

	inputIDs, err := ort.NewTensor(shape, idsI64)
	if err != nil {
		return nil, sundererr.EmbeddingError(fmt.Errorf("input_ids tensor: %w", err))
	}
	defer inputIDs.Destroy()

	attnMask, err := ort.NewTensor(shape, maskI64)
	if err != nil {
		return nil, sundererr.EmbeddingError(fmt.Errorf("attention_mask tensor: %w", err))
	}
	defer attnMask.Destroy()

	typeIDs, err := ort.NewTensor(shape, typeI64)
	if err != nil {
		return nil, sundererr.EmbeddingError(fmt.Errorf("token_type_ids tensor: %w", err))
	}
	defer typeIDs.Destroy()

	inputs := []ort.Value{inputIDs, attnMask, typeIDs}
	outputs := []ort.Value{nil}
	if err := e.session.Run(inputs, outputs); err != nil {
		return nil, sundererr.EmbeddingError(fmt.Errorf("inference: %w", err))
	}
	defer func() {
		if outputs[0] != nil {
			outputs[0].Destroy()
		}
	}()

	hiddenTensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, sundererr.EmbeddingError(fmt.Errorf("unexpected output type, want *Tensor[float32]"))
	}
	hidden := hiddenTensor.GetData()
	outShape := hiddenTensor.GetShape()
	hiddenDim := Dim
	if len(outShape) == 3 {
		hiddenDim = int(outShape[2])
	}

	pooled := make([]float32, hiddenDim)
	var totalWeight float32
	for t := 0; t < seqLen; t++ {
		w := float32(mask[t])
		totalWeight += w
		offset := t * hiddenDim
		for d := 0; d < hiddenDim; d++ {
			pooled[d] += hidden[offset+d] * w
		}
	}
	if totalWeight > 0 {
		for d := range pooled {
			pooled[d] /= totalWeight
		}
	}

	l2Normalize(pooled)
	return pooled, nil
}

func l2Normalize(v []float32) {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	norm := float32(math.Sqrt(sumSq))
	if norm > 0 {
		for i := range v {
			v[i] /= norm
		}
	}
}
