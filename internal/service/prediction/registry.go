package prediction

import (
	"sync/atomic"
	"time"

	"github.com/phrazzld/adaptiq/internal/dataset"
	"github.com/phrazzld/adaptiq/internal/domain/model"
)

// DatasetModel is a model set trained on the flat dataset together with the
// category encoder needed to turn a dataset row into its feature vector.
type DatasetModel struct {
	Set     *model.Set
	Encoder *dataset.Encoder
}

// Registry owns the fitted model sets shared by every request. Readers load
// a pointer and use that set for the whole request; training publishes a new
// set with a single swap, so a request never mixes two sets.
type Registry struct {
	learner atomic.Pointer[model.Set]
	dataset atomic.Pointer[DatasetModel]
}

// NewRegistry returns an empty registry. Until a set is published every
// prediction takes the default path.
func NewRegistry() *Registry {
	return &Registry{}
}

// Learner returns the set trained on learner feature vectors, or nil.
func (r *Registry) Learner() *model.Set {
	return r.learner.Load()
}

// SwapLearner publishes s and returns the set it replaced.
func (r *Registry) SwapLearner(s *model.Set) *model.Set {
	return r.learner.Swap(s)
}

// Dataset returns the model trained on the flat dataset, or nil.
func (r *Registry) Dataset() *DatasetModel {
	return r.dataset.Load()
}

// SwapDataset publishes d and returns the model it replaced.
func (r *Registry) SwapDataset(d *DatasetModel) *DatasetModel {
	return r.dataset.Swap(d)
}

// ModelInfo describes a published model set.
type ModelInfo struct {
	Schema    []string  `json:"schema"`
	Samples   int       `json:"samples"`
	TrainedAt time.Time `json:"trained_at"`
}

// Status reports which model sets are published.
type Status struct {
	Learner *ModelInfo `json:"learner_model"`
	Dataset *ModelInfo `json:"dataset_model"`
}

// Status returns a snapshot of the published sets.
func (r *Registry) Status() Status {
	var st Status
	if s := r.Learner(); s != nil {
		st.Learner = info(s)
	}
	if d := r.Dataset(); d != nil {
		st.Dataset = info(d.Set)
	}
	return st
}

func info(s *model.Set) *ModelInfo {
	return &ModelInfo{Schema: s.Schema(), Samples: s.Samples(), TrainedAt: s.TrainedAt()}
}
