package pod

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mvachon/purefa/internal/config"
	"github.com/mvachon/purefa/internal/flasharray"
	"github.com/mvachon/purefa/internal/model"
	purefaerrors "github.com/mvachon/purefa/pkg/errors"
)

type fakeArray struct {
	restVersion string
	pods        map[string]*flasharray.Pod
	calls       []string
}

func newFakeArray(pods ...*flasharray.Pod) *fakeArray {
	f := &fakeArray{restVersion: "2.36", pods: make(map[string]*flasharray.Pod)}
	for _, p := range pods {
		f.pods[p.Name] = p
	}
	return f
}

func (f *fakeArray) RESTVersion() string { return f.restVersion }

func (f *fakeArray) GetPod(ctx context.Context, name string) (*flasharray.Pod, error) {
	f.calls = append(f.calls, "get "+name)
	return f.pods[name], nil
}

func (f *fakeArray) CreatePod(ctx context.Context, name string, body flasharray.PodPost) (*flasharray.Pod, error) {
	f.calls = append(f.calls, "create "+name)
	p := &flasharray.Pod{
		Name:                name,
		Arrays:              []flasharray.PodArrayMember{{Name: "local"}},
		FailoverPreferences: body.FailoverPreferences,
		QuotaLimit:          body.QuotaLimit,
	}
	f.pods[name] = p
	return p, nil
}

func (f *fakeArray) PatchPod(ctx context.Context, name string, patch flasharray.PodPatch) (*flasharray.Pod, error) {
	f.calls = append(f.calls, "patch "+name)
	p := f.pods[name]
	if patch.Destroyed != nil {
		p.Destroyed = *patch.Destroyed
	}
	if patch.QuotaLimit != nil {
		p.QuotaLimit = *patch.QuotaLimit
	}
	if patch.FailoverPreferences != nil {
		p.FailoverPreferences = *patch.FailoverPreferences
	}
	return p, nil
}

func (f *fakeArray) StretchPod(ctx context.Context, pod, array string) error {
	f.calls = append(f.calls, "stretch "+pod+" "+array)
	p := f.pods[pod]
	p.Arrays = append(p.Arrays, flasharray.PodArrayMember{Name: array})
	return nil
}

func (f *fakeArray) UnstretchPod(ctx context.Context, pod, array string) error {
	f.calls = append(f.calls, "unstretch "+pod+" "+array)
	p := f.pods[pod]
	kept := p.Arrays[:0]
	for _, member := range p.Arrays {
		if member.Name != array {
			kept = append(kept, member)
		}
	}
	p.Arrays = kept
	return nil
}

func (f *fakeArray) DestroyPod(ctx context.Context, name string) error {
	f.calls = append(f.calls, "destroy "+name)
	f.pods[name].Destroyed = true
	return nil
}

func (f *fakeArray) EradicatePod(ctx context.Context, name string) error {
	f.calls = append(f.calls, "eradicate "+name)
	delete(f.pods, name)
	return nil
}

func podTask(state string, cfg config.PodTask) *config.Task {
	return &config.Task{ID: "pod_test", Type: "pod", State: state, Enabled: true, Pod: &cfg}
}

func converge(t *testing.T, fake *fakeArray, task *config.Task) *model.TaskResult {
	t.Helper()
	rec := New(fake)
	eval, err := rec.Evaluate(context.Background(), task)
	require.NoError(t, err)
	if !eval.RequiresAction {
		return &model.TaskResult{TaskID: task.ID, Status: model.StatusUnchanged}
	}
	res, err := rec.Apply(context.Background(), eval, task)
	require.NoError(t, err)
	return res
}

func TestCreateAndStretch(t *testing.T) {
	t.Parallel()

	fake := newFakeArray()
	res := converge(t, fake, podTask(config.StatePresent, config.PodTask{
		Name: "ac-pod", StretchTo: "array-b",
	}))

	require.True(t, res.Changed)
	require.Equal(t, []string{"get ac-pod", "create ac-pod", "stretch ac-pod array-b"}, fake.calls)
}

func TestPodIdempotentWhenStretched(t *testing.T) {
	t.Parallel()

	fake := newFakeArray(&flasharray.Pod{
		Name:   "ac-pod",
		Arrays: []flasharray.PodArrayMember{{Name: "local"}, {Name: "array-b"}},
	})

	res := converge(t, fake, podTask(config.StatePresent, config.PodTask{
		Name: "ac-pod", StretchTo: "array-b",
	}))
	require.Equal(t, model.StatusUnchanged, res.Status)
}

func TestQuotaDrift(t *testing.T) {
	t.Parallel()

	fake := newFakeArray(&flasharray.Pod{Name: "ac-pod", QuotaLimit: 1 << 30})
	res := converge(t, fake, podTask(config.StatePresent, config.PodTask{
		Name: "ac-pod", Quota: "10T",
	}))

	require.True(t, res.Changed)
	require.Equal(t, int64(10)<<40, fake.pods["ac-pod"].QuotaLimit)
}

func TestQuotaGatedOnVersion(t *testing.T) {
	t.Parallel()

	fake := newFakeArray()
	fake.restVersion = "2.20"

	_, err := New(fake).Evaluate(context.Background(), podTask(config.StatePresent, config.PodTask{
		Name: "ac-pod", Quota: "10T",
	}))

	var uve *purefaerrors.UnsupportedVersionError
	require.ErrorAs(t, err, &uve)
	require.Empty(t, fake.calls)
}

func TestFailoverPreferencesDrift(t *testing.T) {
	t.Parallel()

	fake := newFakeArray(&flasharray.Pod{
		Name:                "ac-pod",
		FailoverPreferences: []flasharray.Ref{{Name: "array-a"}},
	})

	res := converge(t, fake, podTask(config.StatePresent, config.PodTask{
		Name: "ac-pod", FailoverPreferences: []string{"array-b"},
	}))

	require.True(t, res.Changed)
	require.Equal(t, []flasharray.Ref{{Name: "array-b"}}, fake.pods["ac-pod"].FailoverPreferences)
}

func TestInvalidQuotaRejected(t *testing.T) {
	t.Parallel()

	fake := newFakeArray()
	_, err := New(fake).Evaluate(context.Background(), podTask(config.StatePresent, config.PodTask{
		Name: "ac-pod", Quota: "10",
	}))

	var ve *purefaerrors.ValidationError
	require.ErrorAs(t, err, &ve)
	require.Empty(t, fake.calls)
}

func TestUnstretchFromPeer(t *testing.T) {
	t.Parallel()

	fake := newFakeArray(&flasharray.Pod{
		Name:   "ac-pod",
		Arrays: []flasharray.PodArrayMember{{Name: "local"}, {Name: "array-b"}},
	})
	res := converge(t, fake, podTask(config.StatePresent, config.PodTask{
		Name: "ac-pod", UnstretchFrom: "array-b",
	}))

	require.True(t, res.Changed)
	require.Equal(t, []string{"get ac-pod", "unstretch ac-pod array-b"}, fake.calls)
	require.Len(t, fake.pods["ac-pod"].Arrays, 1)
}

func TestUnstretchAlreadyDone(t *testing.T) {
	t.Parallel()

	fake := newFakeArray(&flasharray.Pod{
		Name:   "ac-pod",
		Arrays: []flasharray.PodArrayMember{{Name: "local"}},
	})
	res := converge(t, fake, podTask(config.StatePresent, config.PodTask{
		Name: "ac-pod", UnstretchFrom: "array-b",
	}))

	require.Equal(t, model.StatusUnchanged, res.Status)
	require.Equal(t, []string{"get ac-pod"}, fake.calls)
}

func TestStretchAndUnstretchSameArrayRejected(t *testing.T) {
	t.Parallel()

	fake := newFakeArray()
	rec := New(fake)
	_, err := rec.Evaluate(context.Background(), podTask(config.StatePresent, config.PodTask{
		Name: "ac-pod", StretchTo: "array-b", UnstretchFrom: "array-b",
	}))

	var verr *purefaerrors.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Empty(t, fake.calls)
}

func TestStretchedPodRefusesRemoval(t *testing.T) {
	t.Parallel()

	fake := newFakeArray(&flasharray.Pod{
		Name:   "ac-pod",
		Arrays: []flasharray.PodArrayMember{{Name: "local"}, {Name: "array-b"}},
	})

	_, err := New(fake).Evaluate(context.Background(), podTask(config.StateAbsent, config.PodTask{Name: "ac-pod"}))

	var ve *purefaerrors.ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestDestroyAndEradicatePod(t *testing.T) {
	t.Parallel()

	fake := newFakeArray(&flasharray.Pod{
		Name:   "scratch",
		Arrays: []flasharray.PodArrayMember{{Name: "local"}},
	})

	res := converge(t, fake, podTask(config.StateAbsent, config.PodTask{Name: "scratch", Eradicate: true}))

	require.True(t, res.Changed)
	require.Equal(t, []string{"get scratch", "destroy scratch", "eradicate scratch"}, fake.calls)
}

func TestAbsentPodAlreadyGone(t *testing.T) {
	t.Parallel()

	fake := newFakeArray()
	res := converge(t, fake, podTask(config.StateAbsent, config.PodTask{Name: "ghost"}))
	require.Equal(t, model.StatusUnchanged, res.Status)
}
