package llm

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"
)

// debugPreset defines the simulated latency of the debug provider.
type debugPreset struct {
	Delay time.Duration
}

// presets maps variant names to their latency.
var presets = map[string]debugPreset{
	"fast":   {Delay: 20 * time.Millisecond},
	"normal": {Delay: 250 * time.Millisecond},
	"slow":   {Delay: 3 * time.Second},
}

// debugResponses are the kinds of output real models send back for inline
// completions: highlighter markup, fences, smart punctuation, prose.
var debugResponses = []string{
	`<span class="hljs-keyword">return</span> <span class="hljs-literal">nil</span>`,
	"Here is the completion:\n```go\nfmt.Println(“hello”)\n```",
	"if (a &lt; b &amp;&amp; c &gt; d) {\n    swap(a, b);\n}",
	"\x1b[32mfor i := 0; i < n; i++ {\x1b[0m\n\ttotal += i\n}",
	"<code>std::cout << value << std::endl;</code>",
}

// DebugProvider returns canned completions without any network access.
type DebugProvider struct {
	variant string
	preset  debugPreset
	next    atomic.Uint64
}

// NewDebugProvider creates a debug provider. Unknown variants use "normal".
func NewDebugProvider(variant string) *DebugProvider {
	preset, ok := presets[variant]
	if !ok {
		variant = "normal"
		preset = presets[variant]
	}
	return &DebugProvider{variant: variant, preset: preset}
}

func (p *DebugProvider) Name() string {
	return fmt.Sprintf("debug (%s)", p.variant)
}

func (p *DebugProvider) Complete(ctx context.Context, contextText, modelID string) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(p.preset.Delay):
	}

	// A context ending in a directive keyword gets a matching completion so
	// the repair pass has something to do.
	if strings.HasSuffix(strings.TrimSpace(contextText), "include") {
		return "&lt;iostream&gt;", nil
	}

	i := p.next.Add(1) - 1
	return debugResponses[i%uint64(len(debugResponses))], nil
}
