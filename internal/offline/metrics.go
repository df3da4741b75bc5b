package offline

// Miss reasons passed to Metrics.Miss.
const (
	MissAbsent  = "absent"
	MissDecode  = "decode"
	MissVersion = "version"
	MissExpired = "expired"
)

// Metrics receives cache events. Implementations must be cheap; they run
// on every read and write.
type Metrics interface {
	Hit()
	Miss(reason string)
	Write()
	WriteError()
	Cleanup()
	Cleared(n int)
}

type NoopMetrics struct{}

func (NoopMetrics) Hit()        {}
func (NoopMetrics) Miss(string) {}
func (NoopMetrics) Write()      {}
func (NoopMetrics) WriteError() {}
func (NoopMetrics) Cleanup()    {}
func (NoopMetrics) Cleared(int) {}
