package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testRepo = Repository{Owner: "acme", Name: "mono"}

func TestTrigger_RevisionPair(t *testing.T) {
	tests := []struct {
		name    string
		trigger Trigger
		want    RevisionPair
		wantErr error
	}{
		{
			name:    "pull request",
			trigger: NewPullRequestTrigger(testRepo, "base1", "head1"),
			want:    RevisionPair{Base: "base1", Head: "head1"},
		},
		{
			name:    "push",
			trigger: NewPushTrigger(testRepo, "before1", "after1"),
			want:    RevisionPair{Base: "before1", Head: "after1"},
		},
		{
			name:    "pull request missing head",
			trigger: NewPullRequestTrigger(testRepo, "base1", ""),
			wantErr: ErrMissingRevision,
		},
		{
			name:    "push missing before",
			trigger: NewPushTrigger(testRepo, "", "after1"),
			wantErr: ErrMissingRevision,
		},
		{
			name:    "push creating a branch",
			trigger: NewPushTrigger(testRepo, zeroSHA, "after1"),
			wantErr: ErrMissingRevision,
		},
		{
			name:    "unknown event",
			trigger: NewUnknownTrigger(testRepo, "workflow_dispatch", "sha1"),
			wantErr: ErrUnsupportedEvent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.trigger.RevisionPair()
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.True(t, IsRecoverable(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEventKind_String(t *testing.T) {
	assert.Equal(t, "pull_request", EventPullRequest.String())
	assert.Equal(t, "push", EventPush.String())
	assert.Equal(t, "unknown", EventUnknown.String())
	assert.Equal(t, "unknown", EventKind(42).String())
}

func TestParseRepository(t *testing.T) {
	repo, err := ParseRepository("acme/mono")
	require.NoError(t, err)
	assert.Equal(t, testRepo, repo)
	assert.Equal(t, "acme/mono", repo.String())
	assert.True(t, repo.Valid())

	for _, bad := range []string{"", "acme", "/mono", "acme/", "a/b/c"} {
		_, err := ParseRepository(bad)
		assert.Error(t, err, "input %q", bad)
	}
	assert.False(t, Repository{}.Valid())
}

func TestRepositoryString_Unknown(t *testing.T) {
	assert.Equal(t, "", Repository{}.String())
	assert.Equal(t, "", Repository{Owner: "acme"}.String())
	assert.Equal(t, "", NewUnknownTrigger(Repository{}, "schedule", "").Repo.String())
}

func TestSourceError(t *testing.T) {
	err := NewSourceError(SourceLocalHistory, fmt.Errorf("diffing: %w", ErrInsufficientHistory))

	assert.Equal(t, "local-history: diffing: insufficient history", err.Error())
	assert.ErrorIs(t, err, ErrInsufficientHistory)

	var srcErr *SourceError
	require.True(t, errors.As(fmt.Errorf("wrapped: %w", err), &srcErr))
	assert.Equal(t, SourceLocalHistory, srcErr.Source)
	assert.False(t, IsRecoverable(errors.New("boom")))
}
