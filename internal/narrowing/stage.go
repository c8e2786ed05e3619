package narrowing

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"
)

// ChunkCaller issues one narrowing request for a single chunk of text.
// Declared locally so internal/narrowing never imports internal/llm.
type ChunkCaller interface {
	Call(ctx context.Context, callerTask, system, user string) (*string, error)
}

// Stage is one narrowing pass (spec §4.7: "broadest -> narrowest"): a fixed
// extraction prompt applied to every chunk, plus a validity predicate
// deciding which responses survive to be merged.
type Stage struct {
	Name       string
	Prompt     string // a fixed instruction prefixed to each chunk's text
	IsValid    func(response string) bool
	MergeNGram int // the n passed to MergeOverlappingTexts for this stage
}

// Run fans out one LLM call per chunk, keeps only the responses IsValid
// accepts, and merges survivors with MergeOverlappingTexts — the body of
// one narrowing stage (spec §4.7). Chunks run concurrently; their replies
// are merged back in original chunk order regardless of completion order.
func (s Stage) Run(ctx context.Context, caller ChunkCaller, callerTask string, chunks []string) (string, error) {
	responses := make([]string, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	for i, chunk := range chunks {
		i, chunk := i, chunk
		g.Go(func() error {
			reply, err := caller.Call(gctx, callerTask, s.Prompt, chunk)
			if err != nil {
				return err
			}
			if reply != nil {
				responses[i] = *reply
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	var survivors []string
	for _, r := range responses {
		if s.IsValid(r) {
			survivors = append(survivors, r)
		}
	}

	return MergeOverlappingTexts(survivors, s.mergeN()), nil
}

func (s Stage) mergeN() int {
	if s.MergeNGram > 0 {
		return s.MergeNGram
	}
	return 40
}

// DefaultIsValid is the per-stage validity predicate spec §4.7 gives as an
// example: non-empty and not a "no relevant text" refusal.
func DefaultIsValid(response string) bool {
	trimmed := strings.TrimSpace(response)
	if trimmed == "" {
		return false
	}
	return !strings.Contains(strings.ToLower(trimmed), "no relevant text")
}
