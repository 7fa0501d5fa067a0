package checkpoint

import (
	"context"
	"slices"
	"strconv"
	"strings"

	"github.com/graingraph/graingraph/pkg/errors"
)

// TimeSteps returns the steps stored in dataset, sorted ascending. An absent
// or empty namespace is a NotFoundError.
func (a *Archive) TimeSteps(ctx context.Context, dataset string) ([]int, error) {
	found, err := a.scan(ctx, dataset)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, &errors.NotFoundError{Dataset: dataset}
	}
	return sortedSteps(found), nil
}

// Latest returns the highest step stored in dataset.
func (a *Archive) Latest(ctx context.Context, dataset string) (int, error) {
	steps, err := a.TimeSteps(ctx, dataset)
	if err != nil {
		return 0, err
	}
	return steps[len(steps)-1], nil
}

// resolve finds the stored key segment for step in dataset.
func (a *Archive) resolve(ctx context.Context, dataset string, step int) (string, error) {
	found, err := a.scan(ctx, dataset)
	if err != nil {
		return "", err
	}
	if len(found) == 0 {
		return "", &errors.NotFoundError{Dataset: dataset}
	}
	seg, ok := found[step]
	if !ok {
		return "", &errors.NotFoundError{
			Dataset:   dataset,
			Key:       stepKey(step),
			Available: sortedSteps(found),
		}
	}
	return seg, nil
}

// scan maps each step in dataset to the key segment it is stored under.
// Segments that do not parse as a step are skipped. When a step is stored
// under several spellings the plain decimal one wins.
func (a *Archive) scan(ctx context.Context, dataset string) (map[int]string, error) {
	if err := errors.ValidateDatasetName(dataset); err != nil {
		return nil, err
	}
	prefix := "/" + dataset + "/"
	keys, err := a.backend.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	found := make(map[int]string)
	for _, k := range keys {
		seg, _, _ := strings.Cut(strings.TrimPrefix(k, prefix), "/")
		step, ok := ParseStep(seg)
		if !ok {
			a.logger.Debug("skipping unrecognized key", "dataset", dataset, "key", k)
			continue
		}
		if prev, dup := found[step]; dup && prev == stepKey(step) {
			continue
		}
		found[step] = seg
	}
	return found, nil
}

// ParseStep reads a step key written as "<n>", "t_<n>" or "t<n>". Only
// non-negative decimal steps are accepted, matching what can be written.
func ParseStep(seg string) (int, bool) {
	s := seg
	switch {
	case strings.HasPrefix(s, "t_"):
		s = s[2:]
	case strings.HasPrefix(s, "t"):
		s = s[1:]
	}
	if s == "" || strings.ContainsFunc(s, func(r rune) bool { return r < '0' || r > '9' }) {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

func sortedSteps(found map[int]string) []int {
	steps := make([]int, 0, len(found))
	for s := range found {
		steps = append(steps, s)
	}
	slices.Sort(steps)
	return steps
}
