package providers

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rustyhorde/vergen-sub001/internal/emit"
	"github.com/rustyhorde/vergen-sub001/internal/hostenv"
	"github.com/rustyhorde/vergen-sub001/internal/keys"
)

// Git emits the VERGEN_GIT_* facts by shelling out to the git client, and
// registers the repository's HEAD (plus the resolved ref file, when HEAD is
// symbolic) as rebuild triggers so commits regenerate the constants.
type Git struct {
	Branch            bool
	CommitAuthorEmail bool
	CommitAuthorName  bool
	CommitCount       bool
	CommitDate        bool
	CommitMessage     bool
	CommitTimestamp   bool
	Describe          bool
	Sha               bool
	Dirty             bool

	// DescribeTags and DescribeDirty map to `git describe --tags` and
	// `--dirty`; DescribeMatch limits describe to matching tag patterns.
	DescribeTags  bool
	DescribeDirty bool
	DescribeMatch string
	// ShaShort emits the abbreviated commit SHA.
	ShaShort bool
	// DirtyIncludeUntracked counts untracked files as dirt.
	DirtyIncludeUntracked bool

	// RepoPath points at the repository to inspect; empty means the
	// current working directory.
	RepoPath string
	// Runner overrides subprocess execution. Injectable for tests.
	Runner CmdRunner
}

// AllGit returns a Git provider with every fact enabled.
func AllGit() *Git {
	return &Git{
		Branch:            true,
		CommitAuthorEmail: true,
		CommitAuthorName:  true,
		CommitCount:       true,
		CommitDate:        true,
		CommitMessage:     true,
		CommitTimestamp:   true,
		Describe:          true,
		Sha:               true,
		Dirty:             true,
	}
}

func (g *Git) any() bool {
	return g.Branch || g.CommitAuthorEmail || g.CommitAuthorName || g.CommitCount ||
		g.CommitDate || g.CommitMessage || g.CommitTimestamp || g.Describe ||
		g.Sha || g.Dirty
}

func (g *Git) enabledKeys() []keys.Key {
	var ks []keys.Key
	add := func(on bool, k keys.Key) {
		if on {
			ks = append(ks, k)
		}
	}
	add(g.Branch, keys.GitBranch)
	add(g.CommitAuthorEmail, keys.GitCommitAuthorEmail)
	add(g.CommitAuthorName, keys.GitCommitAuthorName)
	add(g.CommitCount, keys.GitCommitCount)
	add(g.CommitDate, keys.GitCommitDate)
	add(g.CommitMessage, keys.GitCommitMessage)
	add(g.CommitTimestamp, keys.GitCommitTimestamp)
	add(g.Describe, keys.GitDescribe)
	add(g.Sha, keys.GitSha)
	add(g.Dirty, keys.GitDirty)
	return ks
}

func (g *Git) runner() CmdRunner {
	if g.Runner != nil {
		return g.Runner
	}
	return execRunner(g.RepoPath)
}

// TryPopulate implements emit.Provider.
func (g *Git) TryPopulate(env hostenv.Env, pol emit.RunPolicy, sink *emit.Sink) error {
	if !g.any() {
		return nil
	}
	run := g.runner()

	// Commit date and timestamp share one parsed commit time; memoize it.
	var commitTime time.Time
	haveCommitTime := false
	loadCommitTime := func() (time.Time, error) {
		if haveCommitTime {
			return commitTime, nil
		}
		raw, err := run("git", "log", "-1", "--pretty=format:%cI")
		if err != nil {
			return time.Time{}, err
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, emit.NewError(emit.KindParse, "malformed commit timestamp "+raw, err)
		}
		// Reproducible builds clamp the commit time to the epoch when the
		// epoch is earlier.
		if epoch, present, err := emit.SourceDateEpoch(env); err != nil {
			return time.Time{}, err
		} else if present && epoch.Before(t) {
			t = epoch.UTC()
		}
		commitTime = t
		haveCommitTime = true
		return commitTime, nil
	}

	type fact struct {
		on   bool
		key  keys.Key
		live func() (string, error)
	}
	facts := []fact{
		{g.Branch, keys.GitBranch, func() (string, error) {
			return run("git", "rev-parse", "--abbrev-ref", "HEAD")
		}},
		{g.CommitAuthorEmail, keys.GitCommitAuthorEmail, func() (string, error) {
			return run("git", "log", "-1", "--pretty=format:%ae")
		}},
		{g.CommitAuthorName, keys.GitCommitAuthorName, func() (string, error) {
			return run("git", "log", "-1", "--pretty=format:%an")
		}},
		{g.CommitCount, keys.GitCommitCount, func() (string, error) {
			return run("git", "rev-list", "--count", "HEAD")
		}},
		{g.CommitDate, keys.GitCommitDate, func() (string, error) {
			t, err := loadCommitTime()
			if err != nil {
				return "", err
			}
			return t.Format(dateLayout), nil
		}},
		{g.CommitMessage, keys.GitCommitMessage, func() (string, error) {
			return run("git", "log", "-1", "--pretty=format:%s")
		}},
		{g.CommitTimestamp, keys.GitCommitTimestamp, func() (string, error) {
			t, err := loadCommitTime()
			if err != nil {
				return "", err
			}
			return t.Format(timestampLayout), nil
		}},
		{g.Describe, keys.GitDescribe, func() (string, error) {
			args := []string{"describe", "--always"}
			if g.DescribeTags {
				args = append(args, "--tags")
			}
			if g.DescribeDirty {
				args = append(args, "--dirty")
			}
			if g.DescribeMatch != "" {
				args = append(args, "--match", g.DescribeMatch)
			}
			return run("git", args...)
		}},
		{g.Sha, keys.GitSha, func() (string, error) {
			if g.ShaShort {
				return run("git", "rev-parse", "--short", "HEAD")
			}
			return run("git", "rev-parse", "HEAD")
		}},
		{g.Dirty, keys.GitDirty, func() (string, error) {
			args := []string{"status", "--porcelain"}
			if !g.DirtyIncludeUntracked {
				args = append(args, "--untracked-files=no")
			}
			out, err := run("git", args...)
			if err != nil {
				return "", err
			}
			if strings.TrimSpace(out) == "" {
				return "false", nil
			}
			return "true", nil
		}},
	}

	// Commit date/timestamp become deterministic when the epoch pins them.
	_, epochPresent, err := emit.SourceDateEpoch(env)
	if err != nil {
		return err
	}

	for _, f := range facts {
		if !f.on {
			continue
		}
		deterministic := epochPresent &&
			(f.key == keys.GitCommitDate || f.key == keys.GitCommitTimestamp)
		if err := emit.Resolve(env, pol, f.key, deterministic, f.live, sink); err != nil {
			return err
		}
	}

	// Idempotent output must not depend on repository state, so triggers
	// are only registered when live values were in play.
	if !pol.Idempotent {
		g.addRebuildTriggers(run, sink)
	}
	return nil
}

// addRebuildTriggers records .git/HEAD and, for a symbolic HEAD, the
// resolved ref file. Malformed reference state only suppresses trigger
// emission; it never fails the run.
func (g *Git) addRebuildTriggers(run CmdRunner, sink *emit.Sink) {
	gitDir, err := run("git", "rev-parse", "--git-dir")
	if err != nil {
		return
	}
	if !filepath.IsAbs(gitDir) {
		gitDir = filepath.Join(g.RepoPath, gitDir)
	}

	headPath := filepath.Join(gitDir, "HEAD")
	head, err := os.ReadFile(headPath)
	if err != nil {
		return
	}
	sink.AddRebuildTrigger(headPath)

	ref, ok := strings.CutPrefix(strings.TrimSpace(string(head)), "ref: ")
	if !ok {
		return // detached HEAD
	}
	refPath := filepath.Join(gitDir, filepath.FromSlash(ref))
	if _, err := os.Stat(refPath); err == nil {
		sink.AddRebuildTrigger(refPath)
	}
}

// ApplyDefaults implements emit.Provider.
func (g *Git) ApplyDefaults(cfg emit.DefaultConfig, env hostenv.Env, sink *emit.Sink) error {
	if cfg.FailOnError {
		return cfg.Err
	}
	for _, k := range g.enabledKeys() {
		emit.AddDefault(env, k, sink)
	}
	return nil
}
