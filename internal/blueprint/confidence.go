package blueprint

import "fmt"

// Confidence of a blueprint entry, ordered high > medium > low > unsupported.
type Confidence string

const (
	High        Confidence = "high"
	Medium      Confidence = "medium"
	Low         Confidence = "low"
	Unsupported Confidence = "unsupported"
)

func (c Confidence) rank() int {
	switch c {
	case High:
		return 3
	case Medium:
		return 2
	case Low:
		return 1
	case Unsupported:
		return 0
	}
	panic(fmt.Sprintf("blueprint: unknown confidence %q", string(c)))
}

// Min returns the weaker of a and b.
func Min(a, b Confidence) Confidence {
	if b.rank() < a.rank() {
		return b
	}
	return a
}

// Mapped reports whether the confidence counts towards coverage.
func (c Confidence) Mapped() bool {
	return c != Unsupported
}
