package predictors

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	domsvc "NextClose/internal/domain/service"
)

// Artifact kinds.
const (
	KindLinear   = "linear"
	KindLogistic = "logistic"
	KindTree     = "tree"
	KindRemote   = "remote"
)

// RemoteSpec points at a model server hosting the fitted pipeline.
type RemoteSpec struct {
	BaseURL   string `yaml:"base_url" json:"base_url"`
	Model     string `yaml:"model" json:"model"`
	TimeoutMs int    `yaml:"timeout_ms" json:"timeout_ms"`
	Attempts  int    `yaml:"attempts" json:"attempts"`
}

// Artifact is the on-disk description of one fitted predictor.
type Artifact struct {
	Name     string        `yaml:"name" json:"name"`
	Kind     string        `yaml:"kind" json:"kind"`
	Linear   *LinearSpec   `yaml:"linear" json:"linear,omitempty"`
	Logistic *LogisticSpec `yaml:"logistic" json:"logistic,omitempty"`
	Tree     *TreeNode     `yaml:"tree" json:"tree,omitempty"`
	Remote   *RemoteSpec   `yaml:"remote" json:"remote,omitempty"`
}

// Build turns the artifact into a ready predictor.
func (a Artifact) Build() (domsvc.Predictor, error) {
	switch a.Kind {
	case KindLinear:
		if a.Linear == nil {
			return nil, fmt.Errorf("artifact %q: missing linear section", a.Name)
		}
		return NewLinearPredictor(*a.Linear), nil
	case KindLogistic:
		if a.Logistic == nil {
			return nil, fmt.Errorf("artifact %q: missing logistic section", a.Name)
		}
		return NewLogisticPredictor(*a.Logistic), nil
	case KindTree:
		p, err := NewTreePredictor(a.Tree)
		if err != nil {
			return nil, fmt.Errorf("artifact %q: %w", a.Name, err)
		}
		return p, nil
	case KindRemote:
		if a.Remote == nil || a.Remote.BaseURL == "" {
			return nil, fmt.Errorf("artifact %q: remote requires base_url", a.Name)
		}
		model := a.Remote.Model
		if model == "" {
			model = a.Name
		}
		timeout := time.Duration(a.Remote.TimeoutMs) * time.Millisecond
		return NewRemotePredictor(a.Remote.BaseURL, model, timeout, a.Remote.Attempts), nil
	default:
		return nil, fmt.Errorf("artifact %q: unknown kind %q", a.Name, a.Kind)
	}
}

// LoadFile decodes one artifact. The name defaults to the file name without extension.
func LoadFile(path string) (Artifact, error) {
	var a Artifact
	data, err := os.ReadFile(path)
	if err != nil {
		return a, fmt.Errorf("read artifact: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &a)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &a)
	default:
		return a, fmt.Errorf("artifact %s: unsupported extension", path)
	}
	if err != nil {
		return a, fmt.Errorf("decode artifact %s: %w", path, err)
	}
	if a.Name == "" {
		base := filepath.Base(path)
		a.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return a, nil
}

// LoadDir builds a registry from every artifact file in dir, in file name order.
func LoadDir(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read model dir: %w", err)
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".json", ".yaml", ".yml":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)

	regs := make([]Entry, 0, len(files))
	for _, f := range files {
		a, err := LoadFile(f)
		if err != nil {
			return nil, err
		}
		p, err := a.Build()
		if err != nil {
			return nil, err
		}
		regs = append(regs, Entry{Name: a.Name, Predictor: p})
	}
	return NewRegistry(regs...)
}
