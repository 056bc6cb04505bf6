package domain

// Change source names, in the order the resolver tries them.
const (
	SourceRemoteCompare = "remote-compare"
	SourceLocalHistory  = "local-history"
	SourceFullListing   = "full-listing"
	SourceNone          = "none" // every source failed
)

// Resolution is the changed-file list together with the source that produced it.
type Resolution struct {
	Source string
	Files  []string
}

// Result is the outcome of a run, handed to the output channel.
type Result struct {
	Dirs      []string // sorted, unique
	Source    string
	FileCount int
	BaseDir   string
}
