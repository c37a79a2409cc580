// internal/models/types.go
package models

// Chunk represents a piece of streaming response
type Chunk struct {
	Text      string
	Done      bool
	Error     error
	IsTimeout bool // Distinguishes timeout from other errors
}

// ModelStatus represents the current state of a model
type ModelStatus int

const (
	StatusIdle ModelStatus = iota
	StatusResponding
	StatusError
	StatusTimeout
)

func (s ModelStatus) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusResponding:
		return "responding"
	case StatusError:
		return "error"
	case StatusTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// ModelInfo contains display information for a model
type ModelInfo struct {
	ID    string // name the backend knows the model by, e.g. qwen3
	Name  string // Display name
	Color string // Hex color for UI
}

// palette colors models in registration order
var palette = []string{
	"#FF8C00", // Orange
	"#4169E1", // Blue
	"#00C853", // Green
	"#E040FB", // Magenta
	"#00BCD4", // Cyan
	"#FFD600", // Yellow
}

// ColorFor returns the palette color for the i-th model
func ColorFor(i int) string {
	return palette[i%len(palette)]
}
