package capture

import (
	"runtime"

	"github.com/leonardotrapani/opentranscribe/internal/deps"
	"go.uber.org/zap"
)

// DetectOptions controls backend detection. Zero values fall back to the
// running OS, exec.LookPath and a no-op logger.
type DetectOptions struct {
	GOOS     string
	Driver   Driver // nil when no native binding is compiled in
	LookPath deps.LookPathFunc
	Logger   *zap.Logger
}

// nativeTrusted reports whether the native binding is selected without a
// smoke test. Only windows has no external fallback to switch to.
func nativeTrusted(goos string) bool {
	return goos == "windows"
}

// Detect picks the capture backend for this host. It runs synchronously and
// is meant to be called once.
func Detect(opts DetectOptions) Backend {
	goos := opts.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if opts.Driver != nil {
		if nativeTrusted(goos) {
			logger.Info("Using native audio binding", zap.String("os", goos))
			return Backend{Kind: NativeStream}
		}
		if err := smokeTest(opts.Driver); err != nil {
			logger.Warn("Native audio binding failed smoke test, probing external tools",
				zap.Error(err))
		} else {
			logger.Info("Native audio binding passed smoke test", zap.String("os", goos))
			return Backend{Kind: NativeStream}
		}
	}

	// The original Windows build never shelled out to recorders.
	if goos == "windows" {
		logger.Warn("No native audio binding on windows")
		return Backend{Kind: Unavailable}
	}

	prober := deps.Prober{LookPath: opts.LookPath}
	names := make([]string, len(ProbeOrder))
	for i, tool := range ProbeOrder {
		names[i] = tool.Command()
	}

	if st, ok := prober.First(names...); ok {
		b := Backend{Kind: ExternalProcess, Tool: Tool(st.Name), Path: st.Path}
		logger.Info("Using external recorder", zap.String("backend", b.String()), zap.String("path", st.Path))
		return b
	}

	logger.Warn("No audio recording method available")
	return Backend{Kind: Unavailable}
}
