package checkpoint

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/graingraph/graingraph/pkg/errors"
	"github.com/graingraph/graingraph/pkg/lattice"
)

// runKey holds the run metadata.
const runKey = "/Run"

// Run describes the generation run that produced an archive.
type Run struct {
	ID        string       `msgpack:"id" json:"id"`
	Created   time.Time    `msgpack:"created" json:"created"`
	Volume    lattice.Dims `msgpack:"volume" json:"volume"`
	Grains    lattice.Dims `msgpack:"grains" json:"grains"`
	SelfLoops bool         `msgpack:"self_loops" json:"self_loops"`
	Steps     []int        `msgpack:"steps" json:"steps"`
	Version   string       `msgpack:"version,omitempty" json:"version,omitempty"`
}

// NewRun returns run metadata with a fresh random id.
func NewRun(cfg lattice.Config, selfLoops bool, steps []int) Run {
	return Run{
		ID:        uuid.NewString(),
		Created:   time.Now().UTC(),
		Volume:    cfg.Volume,
		Grains:    cfg.Grains,
		SelfLoops: selfLoops,
		Steps:     steps,
	}
}

// WriteRun stores run metadata, replacing any previous run.
func (a *Archive) WriteRun(ctx context.Context, r Run) error {
	if _, err := uuid.Parse(r.ID); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "run id %q", r.ID)
	}
	data, err := msgpack.Marshal(&r)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode run")
	}
	if err := a.backend.Set(ctx, runKey, data); err != nil {
		return err
	}
	a.logger.Debug("wrote run metadata", "run", r.ID)
	return nil
}

// ReadRun loads run metadata. Archives written by the simulation itself have
// none; that is a NotFoundError.
func (a *Archive) ReadRun(ctx context.Context) (Run, error) {
	data, ok, err := a.backend.Get(ctx, runKey)
	if err != nil {
		return Run{}, err
	}
	if !ok {
		return Run{}, &errors.NotFoundError{Dataset: "Run"}
	}
	var r Run
	if err := msgpack.Unmarshal(data, &r); err != nil {
		return Run{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode run")
	}
	return r, nil
}
