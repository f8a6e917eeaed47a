// Package pathmap derives the local staging and remote commit locations for a
// recording listed on the remote store.
package pathmap

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"tstomkv/internal/services"
)

// Mapping holds every location a work item touches. It is immutable once built.
type Mapping struct {
	RemotePath       string
	SourceRoot       string
	Relative         string
	LocalStagedPath  string
	LocalOutputPath  string
	LocalSinkPath    string
	RemoteCommitPath string
}

// Mapper maps remote paths under one of several source roots into a local staging tree.
type Mapper struct {
	SourceRoots []string
	StagingRoot string
	OutputExt   string
}

// New builds a Mapper. Roots are matched in the order given.
func New(sourceRoots []string, stagingRoot, outputExt string) *Mapper {
	return &Mapper{SourceRoots: sourceRoots, StagingRoot: stagingRoot, OutputExt: outputExt}
}

// Map resolves remotePath against the first matching source root and creates
// the staging directory for it. Paths under no root fail with
// services.ErrNotUnderRoot and leave the filesystem untouched.
func (m *Mapper) Map(remotePath string) (Mapping, error) {
	remotePath = strings.TrimSpace(remotePath)
	if remotePath == "" {
		return Mapping{}, services.Wrap(services.ErrValidation, "map", "", "empty remote path", nil)
	}

	root, rel, ok := m.match(remotePath)
	if !ok {
		return Mapping{}, services.Wrap(services.ErrNotUnderRoot, "map", "", remotePath, nil)
	}

	staged := filepath.Join(m.StagingRoot, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(staged), 0o755); err != nil {
		return Mapping{}, services.Wrap(services.ErrValidation, "map", "create staging directory", filepath.Dir(staged), err)
	}

	output := replaceExt(staged, m.OutputExt)
	return Mapping{
		RemotePath:       remotePath,
		SourceRoot:       root,
		Relative:         rel,
		LocalStagedPath:  staged,
		LocalOutputPath:  output,
		LocalSinkPath:    SinkPath(staged),
		RemoteCommitPath: path.Join(root, replaceExt(rel, m.OutputExt)),
	}, nil
}

// Match reports the root remotePath falls under without touching the filesystem.
func (m *Mapper) Match(remotePath string) (root string, ok bool) {
	root, _, ok = m.match(strings.TrimSpace(remotePath))
	return root, ok
}

func (m *Mapper) match(remotePath string) (string, string, bool) {
	cleaned := path.Clean(remotePath)
	for _, root := range m.SourceRoots {
		root = strings.TrimSpace(root)
		if root == "" {
			continue
		}
		root = path.Clean(root)
		prefix := root
		if !strings.HasSuffix(prefix, "/") {
			prefix += "/"
		}
		if !strings.HasPrefix(cleaned, prefix) {
			continue
		}
		rel := strings.TrimPrefix(cleaned, prefix)
		if rel == "" || rel == "." {
			continue
		}
		return root, rel, true
	}
	return "", "", false
}

// SinkPath names the ffmpeg progress file written next to a staged input.
func SinkPath(staged string) string {
	return strings.TrimSuffix(staged, filepath.Ext(staged)) + "-transcode.stats"
}

func replaceExt(p, ext string) string {
	return strings.TrimSuffix(p, path.Ext(p)) + ext
}

func (m Mapping) String() string {
	return fmt.Sprintf("%s -> %s", m.RemotePath, m.RemoteCommitPath)
}
