package reconciler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mvachon/purefa/internal/config"
	"github.com/mvachon/purefa/internal/model"
	purefaerrors "github.com/mvachon/purefa/pkg/errors"
)

type stubReconciler struct {
	name string
}

func (s *stubReconciler) Metadata() Metadata {
	return Metadata{Name: s.name, Version: "1.0.0", MinRESTVersion: "2.0"}
}

func (s *stubReconciler) Schema() any { return struct{}{} }

func (s *stubReconciler) Evaluate(ctx context.Context, task *config.Task) (*model.EvaluationResult, error) {
	return &model.EvaluationResult{TaskID: task.ID, CurrentState: model.StatusSatisfied}, nil
}

func (s *stubReconciler) Apply(ctx context.Context, evaluation *model.EvaluationResult, task *config.Task) (*model.TaskResult, error) {
	return &model.TaskResult{TaskID: task.ID, Status: model.StatusSuccess}, nil
}

func TestRegistryRegisterAndGet(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	require.NoError(t, reg.Register(&stubReconciler{name: "volume"}))

	rec, err := reg.Get("volume")
	require.NoError(t, err)
	require.Equal(t, "volume", rec.Metadata().Name)
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	require.NoError(t, reg.Register(&stubReconciler{name: "host"}))
	require.Error(t, reg.Register(&stubReconciler{name: "host"}))
}

func TestRegistryRejectsInvalid(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	require.Error(t, reg.Register(nil))
	require.Error(t, reg.Register(&stubReconciler{name: ""}))
}

func TestRegistryGetUnknown(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	_, err := reg.Get("tape-drive")
	require.Error(t, err)
}

func TestRegistryListSorted(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	require.NoError(t, reg.Register(&stubReconciler{name: "volume"}))
	require.NoError(t, reg.Register(&stubReconciler{name: "host"}))
	require.NoError(t, reg.Register(&stubReconciler{name: "pod"}))

	metas := reg.List()
	require.Len(t, metas, 3)
	require.Equal(t, []string{"host", "pod", "volume"}, []string{metas[0].Name, metas[1].Name, metas[2].Name})
}

type fixedVersion string

func (v fixedVersion) RESTVersion() string { return string(v) }

func TestRequireVersion(t *testing.T) {
	t.Parallel()

	require.NoError(t, RequireVersion(fixedVersion("2.38"), "pod quotas", "2.23"))

	err := RequireVersion(fixedVersion("2.30"), "fleet membership", "2.38")
	var uve *purefaerrors.UnsupportedVersionError
	require.ErrorAs(t, err, &uve)
	require.Equal(t, "2.38", uve.Needs)
	require.Equal(t, "2.30", uve.Have)
}
