package domain

import (
	"fmt"
	"strings"
)

// EventKind classifies the event that started the run.
type EventKind int

const (
	EventUnknown     EventKind = iota // Anything other than a PR or push
	EventPullRequest                  // pull_request / pull_request_target
	EventPush                         // push
)

// String returns the GitHub event name for the kind.
func (k EventKind) String() string {
	if k < 0 || int(k) >= len(eventKindNames) {
		return "unknown"
	}
	return eventKindNames[k]
}

var eventKindNames = [...]string{
	EventUnknown:     "unknown",
	EventPullRequest: "pull_request",
	EventPush:        "push",
}

// zeroSHA is what GitHub reports as "before" when a push creates a branch.
const zeroSHA = "0000000000000000000000000000000000000000"

// RevisionPair bounds a comparison. Both ends must be set to be usable.
type RevisionPair struct {
	Base string
	Head string
}

// Valid reports whether both revisions are present.
func (p RevisionPair) Valid() bool {
	return isRevision(p.Base) && isRevision(p.Head)
}

// String renders the pair as "base...head".
func (p RevisionPair) String() string {
	return p.Base + "..." + p.Head
}

func isRevision(rev string) bool {
	rev = strings.TrimSpace(rev)
	return rev != "" && rev != zeroSHA
}

// Repository identifies a repository on the hosting service.
type Repository struct {
	Owner string
	Name  string
}

// ParseRepository parses "owner/name" as found in GITHUB_REPOSITORY.
func ParseRepository(s string) (Repository, error) {
	owner, name, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return Repository{}, fmt.Errorf("invalid repository %q, expected owner/name", s)
	}
	return Repository{Owner: owner, Name: name}, nil
}

// Valid reports whether both owner and name are set.
func (r Repository) Valid() bool {
	return r.Owner != "" && r.Name != ""
}

// String returns "owner/name", or "" when the repository is not known.
func (r Repository) String() string {
	if !r.Valid() {
		return ""
	}
	return r.Owner + "/" + r.Name
}

// Trigger describes how the change window of a run is determined.
type Trigger struct {
	Kind      EventKind
	Name      string // raw event name as reported by the platform
	Revisions RevisionPair
	Repo      Repository
	Ref       string // commit the run is positioned at, used to derive history
}

// NewPullRequestTrigger builds a trigger comparing a PR head against its base.
func NewPullRequestTrigger(repo Repository, baseSHA, headSHA string) Trigger {
	return Trigger{
		Kind:      EventPullRequest,
		Name:      EventPullRequest.String(),
		Revisions: RevisionPair{Base: baseSHA, Head: headSHA},
		Repo:      repo,
		Ref:       headSHA,
	}
}

// NewPushTrigger builds a trigger comparing the before and after commits of a push.
func NewPushTrigger(repo Repository, before, after string) Trigger {
	return Trigger{
		Kind:      EventPush,
		Name:      EventPush.String(),
		Revisions: RevisionPair{Base: before, Head: after},
		Repo:      repo,
		Ref:       after,
	}
}

// NewUnknownTrigger builds a trigger for an event kind that carries no revision pair.
func NewUnknownTrigger(repo Repository, name, ref string) Trigger {
	return Trigger{
		Kind: EventUnknown,
		Name: name,
		Repo: repo,
		Ref:  ref,
	}
}

// RevisionPair returns the comparison bounds carried by the trigger.
// Unknown kinds yield ErrUnsupportedEvent; a PR or push missing either end
// yields ErrMissingRevision.
func (t Trigger) RevisionPair() (RevisionPair, error) {
	switch t.Kind {
	case EventPullRequest, EventPush:
		if !t.Revisions.Valid() {
			return RevisionPair{}, fmt.Errorf("%w: %s event has base=%q head=%q",
				ErrMissingRevision, t.Kind, t.Revisions.Base, t.Revisions.Head)
		}
		return t.Revisions, nil
	default:
		return RevisionPair{}, fmt.Errorf("%w: %q", ErrUnsupportedEvent, t.Name)
	}
}
