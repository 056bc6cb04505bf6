package githubevent

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathantilsley/changed-dirs/internal/changes/domain"
	"github.com/nathantilsley/changed-dirs/internal/platform/logger"
)

const (
	pullRequestPayload = `{
  "action": "synchronize",
  "number": 7,
  "pull_request": {
    "base": {"ref": "main", "sha": "base111"},
    "head": {"ref": "feature", "sha": "head222"}
  },
  "repository": {"full_name": "payload/repo"}
}`
	pushPayload = `{
  "ref": "refs/heads/main",
  "before": "before333",
  "after": "after444",
  "repository": {"full_name": "payload/repo"}
}`
	branchCreatePayload = `{
  "ref": "refs/heads/new",
  "before": "0000000000000000000000000000000000000000",
  "after": "after555"
}`
)

func writePayload(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "event.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newReader() *Reader {
	return New(logger.New("error"))
}

func TestRead(t *testing.T) {
	acme := domain.Repository{Owner: "acme", Name: "mono"}

	tests := []struct {
		name    string
		event   string
		payload string
		repo    string
		want    domain.Trigger
	}{
		{
			name:    "pull request",
			event:   "pull_request",
			payload: pullRequestPayload,
			repo:    "acme/mono",
			want:    domain.NewPullRequestTrigger(acme, "base111", "head222"),
		},
		{
			name:    "pull request target",
			event:   "pull_request_target",
			payload: pullRequestPayload,
			repo:    "acme/mono",
			want:    domain.NewPullRequestTrigger(acme, "base111", "head222"),
		},
		{
			name:    "push",
			event:   "push",
			payload: pushPayload,
			repo:    "acme/mono",
			want:    domain.NewPushTrigger(acme, "before333", "after444"),
		},
		{
			name:    "repository from payload when env unset",
			event:   "push",
			payload: pushPayload,
			want:    domain.NewPushTrigger(domain.Repository{Owner: "payload", Name: "repo"}, "before333", "after444"),
		},
		{
			name:    "workflow dispatch is unknown",
			event:   "workflow_dispatch",
			payload: `{"ref": "refs/heads/main"}`,
			repo:    "acme/mono",
			want:    domain.NewUnknownTrigger(acme, "workflow_dispatch", "sha999"),
		},
		{
			name:    "unparsable payload is unknown",
			event:   "push",
			payload: `{not json`,
			repo:    "acme/mono",
			want:    domain.NewUnknownTrigger(acme, "push", "sha999"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := newReader().Read(Env{
				Name:       tt.event,
				Path:       writePayload(t, tt.payload),
				Repository: tt.repo,
				SHA:        "sha999",
			})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRead_BranchCreationHasMissingRevision(t *testing.T) {
	trigger := newReader().Read(Env{
		Name:       "push",
		Path:       writePayload(t, branchCreatePayload),
		Repository: "acme/mono",
	})

	assert.Equal(t, domain.EventPush, trigger.Kind)
	_, err := trigger.RevisionPair()
	assert.ErrorIs(t, err, domain.ErrMissingRevision)
}

func TestRead_MissingPayload(t *testing.T) {
	r := newReader()

	got := r.Read(Env{Name: "push", Repository: "acme/mono", SHA: "abc"})
	assert.Equal(t, domain.EventUnknown, got.Kind)
	assert.Equal(t, "abc", got.Ref)

	got = r.Read(Env{Name: "push", Path: filepath.Join(t.TempDir(), "missing.json"), Repository: "acme/mono"})
	assert.Equal(t, domain.EventUnknown, got.Kind)
	assert.Equal(t, domain.Repository{Owner: "acme", Name: "mono"}, got.Repo)
}

func TestRead_MalformedRepository(t *testing.T) {
	got := newReader().Read(Env{Name: "push", Path: writePayload(t, branchCreatePayload), Repository: "not-a-repo"})

	assert.False(t, got.Repo.Valid())
}
