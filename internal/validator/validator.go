// Package validator implements the Chunked-Text Validator (C5): a look-back
// memory over a sequence of text chunks, answering yes/no questions about a
// chunk while letting the question "the answer may be in an earlier chunk"
// be resolved without redundant LLM calls (spec §4.5).
package validator

import (
	"context"
	"fmt"
	"strings"
)

// Caller is the subset of llm.Caller the validator drives: a one-shot
// system+user call returning nil only on budget exhaustion. Declared
// locally so internal/validator never imports internal/llm.
type Caller interface {
	Call(ctx context.Context, callerTask, system, user string) (*string, error)
}

// Memory answers bounded-look-back questions about a fixed sequence of text
// chunks, memoizing each (chunk index, question key) verdict so repeated
// questions about the same chunk never re-call the LLM. Invariant: once a
// verdict is stored it is never mutated (spec §3).
type Memory struct {
	chunks   []string
	lookBack int
	caller   Caller

	cache map[cacheKey]bool
	seen  map[int]bool // chunk indices whose memory slot was read by ParseFromInd
}

type cacheKey struct {
	index int
	key   string
}

// New builds a Memory over chunks, looking back at most lookBack-1 prior
// chunks (N = lookBack total indices, per spec §4.5: "i, i-1, ..., i-(N-1)")
// when answering a question about chunk i.
func New(caller Caller, chunks []string, lookBack int) *Memory {
	if lookBack < 1 {
		lookBack = 1
	}
	return &Memory{
		chunks:   chunks,
		lookBack: lookBack,
		caller:   caller,
		cache:    make(map[cacheKey]bool),
		seen:     make(map[int]bool),
	}
}

// Len returns the number of chunks under management.
func (m *Memory) Len() int { return len(m.chunks) }

// ParseFromInd walks indices i, i-1, ..., i-(lookBack-1) (clamped at 0),
// returning true on the first index whose memoized-or-freshly-queried
// verdict for key is true, and false only once the whole look-back is
// exhausted without a hit (spec §4.5). promptTemplate is formatted with
// key and used as the system message; the chunk's own text is the user
// content — so a question phrased once can be asked, verbatim, of every
// chunk in the walk.
func (m *Memory) ParseFromInd(ctx context.Context, callerTask string, i int, promptTemplate, key string) (bool, error) {
	if i < 0 || i >= len(m.chunks) {
		return false, fmt.Errorf("validator: chunk index %d out of range [0,%d)", i, len(m.chunks))
	}

	floor := i - m.lookBack + 1
	if floor < 0 {
		floor = 0
	}

	system := strings.ReplaceAll(promptTemplate, "{{key}}", key)

	for idx := i; idx >= floor; idx-- {
		m.seen[idx] = true
		ck := cacheKey{index: idx, key: key}
		if v, ok := m.cache[ck]; ok {
			if v {
				return true, nil
			}
			continue
		}

		reply, err := m.caller.Call(ctx, callerTask, system, m.chunks[idx])
		if err != nil {
			return false, err
		}
		verdict := reply != nil && strings.HasPrefix(strings.ToLower(strings.TrimSpace(*reply)), "yes")
		m.cache[ck] = verdict
		if verdict {
			return true, nil
		}
	}

	return false, nil
}

// CollectedIndices returns, in ascending order, every chunk index any
// ParseFromInd call has read — including look-back neighbors that never
// produced a true verdict. Nothing else in this module calls it; the
// narrowing stage does not use a Memory.
func (m *Memory) CollectedIndices() []int {
	out := make([]int, 0, len(m.seen))
	for idx := range m.seen {
		out = append(out, idx)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

// Reset drops every memoized verdict, forcing the next ParseFromInd call
// for any (index, key) pair to re-query the caller.
func (m *Memory) Reset() {
	m.cache = make(map[cacheKey]bool)
	m.seen = make(map[int]bool)
}
