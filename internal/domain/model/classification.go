package model

// Classification identifies one of the address deny-list categories
// maintained by the registry.
type Classification string

const (
	ClassificationSanctioned Classification = "sanctioned"
	ClassificationMixer      Classification = "mixer"
	ClassificationDarknet    Classification = "darknet"
)

// Classifications lists every known classification kind, in the order the
// flagged-address union is assembled.
var Classifications = []Classification{
	ClassificationSanctioned,
	ClassificationMixer,
	ClassificationDarknet,
}

func (c Classification) String() string {
	return string(c)
}

// ParseClassification maps a request path segment or config value to a
// Classification. The second return is false for unknown kinds.
func ParseClassification(s string) (Classification, bool) {
	switch Classification(s) {
	case ClassificationSanctioned, ClassificationMixer, ClassificationDarknet:
		return Classification(s), true
	}
	return "", false
}
