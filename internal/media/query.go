package media

// QueryType identifies a synchronous request between neighbouring stages.
type QueryType int

const (
	QueryDuration QueryType = iota
	QueryPosition
	QueryCaps
	QueryLatency
	QueryCustom
)

func (t QueryType) String() string {
	switch t {
	case QueryDuration:
		return "duration"
	case QueryPosition:
		return "position"
	case QueryCaps:
		return "caps"
	case QueryLatency:
		return "latency"
	case QueryCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// Query is answered in place: the stage that handles it fills the result
// fields and returns true.
type Query struct {
	Type   QueryType
	Format string

	// Results, set by the answering stage.
	Value  int64
	Caps   *Caps
	Fields map[string]string
}

// NewDurationQuery asks for the stream duration in the given format.
func NewDurationQuery(format string) *Query {
	return &Query{Type: QueryDuration, Format: format}
}

// NewCapsQuery asks which caps the peer can handle.
func NewCapsQuery() *Query { return &Query{Type: QueryCaps} }
