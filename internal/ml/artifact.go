package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/Alias1177/StockSignal/models"
)

// Artifact file names inside the artifact directory
const (
	ScalerFile = "scaler.json"
	ModelFile  = "model.json"
)

// Artifact is a fitted scaler and classifier that agree on feature order
type Artifact struct {
	Scaler    *StandardScaler
	Model     *LogisticRegression
	TrainedAt time.Time
}

type modelFile struct {
	*LogisticRegression
	TrainedAt time.Time `json:"trained_at"`
}

// Features returns the ordered feature names the artifact was trained on
func (a *Artifact) Features() []string {
	return append([]string(nil), a.Scaler.Features...)
}

// Validate checks that both parts are present and consistent
func (a *Artifact) Validate() error {
	if a == nil || a.Scaler == nil || a.Model == nil {
		return fmt.Errorf("%w: incomplete artifact", models.ErrModelUnavailable)
	}
	if err := a.Scaler.validate(); err != nil {
		return fmt.Errorf("%w: %v", models.ErrModelUnavailable, err)
	}
	if err := a.Model.validate(); err != nil {
		return fmt.Errorf("%w: %v", models.ErrModelUnavailable, err)
	}
	if !slices.Equal(a.Scaler.Features, a.Model.Features) {
		return fmt.Errorf("%w: scaler features %v differ from model features %v",
			models.ErrModelUnavailable, a.Scaler.Features, a.Model.Features)
	}
	return nil
}

// Predict scales a raw feature vector and classifies it
func (a *Artifact) Predict(x []float64) (int, error) {
	scaled, err := a.Scaler.Transform(x)
	if err != nil {
		return 0, err
	}
	return a.Model.Predict(scaled)
}

// SaveArtifact writes both files into dir. Each file is replaced atomically.
func SaveArtifact(dir string, a *Artifact) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	if err := writeJSON(filepath.Join(dir, ScalerFile), a.Scaler); err != nil {
		return err
	}
	return writeJSON(filepath.Join(dir, ModelFile), modelFile{LogisticRegression: a.Model, TrainedAt: a.TrainedAt})
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

// LoadArtifact reads and validates the artifact in dir. Any failure wraps
// models.ErrModelUnavailable.
func LoadArtifact(dir string) (*Artifact, error) {
	var scaler StandardScaler
	if err := readJSON(filepath.Join(dir, ScalerFile), &scaler); err != nil {
		return nil, err
	}
	var model modelFile
	model.LogisticRegression = &LogisticRegression{}
	if err := readJSON(filepath.Join(dir, ModelFile), &model); err != nil {
		return nil, err
	}

	a := &Artifact{Scaler: &scaler, Model: model.LogisticRegression, TrainedAt: model.TrainedAt}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s not found", models.ErrModelUnavailable, path)
		}
		return fmt.Errorf("%w: %v", models.ErrModelUnavailable, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: corrupt %s: %v", models.ErrModelUnavailable, filepath.Base(path), err)
	}
	return nil
}
