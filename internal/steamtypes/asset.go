// Package steamtypes holds the core data model shared by the matching
// directory client and the active-matching engine: assets, the matchable
// type enumeration, set keys, and the tabular inventory state the greedy
// matcher operates on.
package steamtypes

// AssetType is a closed enumeration of Steam inventory item categories.
// Unknown values decode to AssetTypeOther so the directory client never
// has to reject an entry just because Steam introduced a new item type.
type AssetType int

const (
	AssetTypeOther AssetType = iota
	AssetTypeTradingCard
	AssetTypeFoilTradingCard
	AssetTypeEmoticon
	AssetTypeProfileBackground
)

// String returns a human-readable name, used in logging.
func (t AssetType) String() string {
	switch t {
	case AssetTypeTradingCard:
		return "TradingCard"
	case AssetTypeFoilTradingCard:
		return "FoilTradingCard"
	case AssetTypeEmoticon:
		return "Emoticon"
	case AssetTypeProfileBackground:
		return "ProfileBackground"
	default:
		return "Other"
	}
}

// MatchableTypes is the fixed subset of asset types the directory
// accepts. Every other AssetType is excluded at every boundary (§3).
var MatchableTypes = []AssetType{
	AssetTypeTradingCard,
	AssetTypeFoilTradingCard,
	AssetTypeEmoticon,
	AssetTypeProfileBackground,
}

// IsMatchable reports whether t belongs to the accepted set.
func IsMatchable(t AssetType) bool {
	switch t {
	case AssetTypeTradingCard, AssetTypeFoilTradingCard, AssetTypeEmoticon, AssetTypeProfileBackground:
		return true
	default:
		return false
	}
}

// TypeSet is a small set of AssetType, used for a bot's configured
// matchable categories and for a listed user's advertised categories.
type TypeSet map[AssetType]struct{}

// NewTypeSet builds a TypeSet from the given types, dropping non-matchable
// ones silently (callers that need to report the drop do so themselves).
func NewTypeSet(types ...AssetType) TypeSet {
	s := make(TypeSet, len(types))
	for _, t := range types {
		if IsMatchable(t) {
			s[t] = struct{}{}
		}
	}
	return s
}

// Intersect returns the set of types present in both a and b.
func (a TypeSet) Intersect(b TypeSet) TypeSet {
	out := make(TypeSet)
	small, big := a, b
	if len(b) < len(a) {
		small, big = b, a
	}
	for t := range small {
		if _, ok := big[t]; ok {
			out[t] = struct{}{}
		}
	}
	return out
}

// Contains reports whether t is a member of the set.
func (a TypeSet) Contains(t AssetType) bool {
	_, ok := a[t]
	return ok
}

// Slice returns the set's members in ascending numeric order, for
// deterministic JSON encoding.
func (a TypeSet) Slice() []int {
	out := make([]int, 0, len(a))
	for t := range a {
		out = append(out, int(t))
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

// SetKey identifies one collectable "set": all assets sharing an app id
// and an asset type belong to the same set and can be matched against
// each other.
type SetKey struct {
	RealAppID uint32
	Type      AssetType
}

// Asset is an immutable view of one inventory item. Fields beyond those
// needed for matching (inspect links, icon URLs, market hash names, ...)
// are the concern of the trade-offer collaborator and are not modeled
// here — see internal/collaborators.
type Asset struct {
	ClassID   uint64
	RealAppID uint32
	Type      AssetType
	Amount    uint32
	Tradable  bool
}

// SetKey returns the set key this asset belongs to.
func (a Asset) SetKey() SetKey {
	return SetKey{RealAppID: a.RealAppID, Type: a.Type}
}
