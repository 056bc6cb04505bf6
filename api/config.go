package api

// RepoConfig is the schema of the optional .changed-dirs.yaml file kept at
// the root of the repository being inspected. Values set through action
// inputs or environment variables take precedence.
type RepoConfig struct {
	BaseDirectory string   `yaml:"baseDirectory"`
	ExcludeDirs   []string `yaml:"excludeDirs"`
	CaseSensitive *bool    `yaml:"caseSensitive"`
}
