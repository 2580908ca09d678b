package models

// Bucket names a recommended remediation.
type Bucket string

const (
	BucketClose   Bucket = "close"
	BucketArchive Bucket = "archive"
	BucketSuspend Bucket = "suspend"
	BucketKeep    Bucket = "keep"
	// BucketNone marks a tab that matched no row of the decision table.
	BucketNone Bucket = ""
)

// SuggestionBuckets partitions scored tabs by recommended action.
// Unbucketed holds tabs no rule claimed; it is informational, not an action.
type SuggestionBuckets struct {
	Close      []ScoredTab `json:"close"`
	Archive    []ScoredTab `json:"archive"`
	Suspend    []ScoredTab `json:"suspend"`
	Keep       []ScoredTab `json:"keep"`
	Unbucketed []ScoredTab `json:"unbucketed"`
}

// NewSuggestionBuckets returns buckets with non-nil empty slices.
func NewSuggestionBuckets() SuggestionBuckets {
	return SuggestionBuckets{
		Close:      []ScoredTab{},
		Archive:    []ScoredTab{},
		Suspend:    []ScoredTab{},
		Keep:       []ScoredTab{},
		Unbucketed: []ScoredTab{},
	}
}

// Add appends tab to the named bucket.
func (b *SuggestionBuckets) Add(bucket Bucket, tab ScoredTab) {
	switch bucket {
	case BucketClose:
		b.Close = append(b.Close, tab)
	case BucketArchive:
		b.Archive = append(b.Archive, tab)
	case BucketSuspend:
		b.Suspend = append(b.Suspend, tab)
	case BucketKeep:
		b.Keep = append(b.Keep, tab)
	default:
		b.Unbucketed = append(b.Unbucketed, tab)
	}
}

// Actionable returns the number of tabs placed in one of the four action buckets.
func (b SuggestionBuckets) Actionable() int {
	return len(b.Close) + len(b.Archive) + len(b.Suspend) + len(b.Keep)
}
