package model

// BatchItem is one input of a batch. Output is assigned only when the item
// runs, because it depends on the filesystem at that moment.
type BatchItem struct {
	Input  string
	Index  int
	Output string
}

// ItemFailure records why one input failed.
type ItemFailure struct {
	Input  string
	Reason string
}

// BatchOutcome is the aggregate result of a run.
type BatchOutcome struct {
	Succeeded int
	Failed    int
	Failures  []ItemFailure
}

// Total is the number of items attempted.
func (o BatchOutcome) Total() int {
	return o.Succeeded + o.Failed
}
