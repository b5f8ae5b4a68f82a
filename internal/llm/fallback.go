package llm

import (
	"context"
	"strings"
	"time"
)

// FallbackResult reports the outcome of a ranked-fallback completion.
type FallbackResult struct {
	OK           bool
	Text         string
	Model        string        // model that produced Text, empty when all failed
	FallbackUsed bool          // true when the answer did not come from the first model
	Elapsed      time.Duration // time spent in the winning call
	Attempted    []string      // models tried, in order
	Err          string        // last error message when OK is false
}

// RankModels builds the ordered candidate list from a primary model and its
// backups, dropping blanks and duplicates while preserving order.
func RankModels(primary string, backups []string) []string {
	var out []string
	seen := map[string]bool{}
	for _, m := range append([]string{primary}, backups...) {
		m = strings.TrimSpace(m)
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}

// CompleteWithFallback tries each model in order until one answers. A fixed
// sleep separates attempts so a rate-limited backend gets room to recover.
// The attempted order is always recorded, including for failures.
func CompleteWithFallback(ctx context.Context, p Provider, prompt string, opts CompletionOpts, models []string, retrySleep time.Duration) FallbackResult {
	res := FallbackResult{}
	if len(models) == 0 {
		models = []string{""}
	}
	lastErr := ""
	for i, model := range models {
		res.Attempted = append(res.Attempted, model)
		callOpts := opts
		callOpts.Model = model
		start := time.Now()
		text, err := p.Complete(ctx, prompt, callOpts)
		if err == nil {
			res.OK = true
			res.Text = strings.TrimSpace(text)
			res.Model = model
			res.FallbackUsed = i > 0
			res.Elapsed = time.Since(start)
			return res
		}
		lastErr = err.Error()
		if i < len(models)-1 && retrySleep > 0 {
			select {
			case <-ctx.Done():
				res.FallbackUsed = len(models) > 1
				res.Err = ctx.Err().Error()
				return res
			case <-time.After(retrySleep):
			}
		}
	}
	res.FallbackUsed = len(models) > 1
	res.Err = lastErr
	return res
}
