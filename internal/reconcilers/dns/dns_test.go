package dns

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mvachon/purefa/internal/config"
	"github.com/mvachon/purefa/internal/flasharray"
	"github.com/mvachon/purefa/internal/model"
)

type fakeArray struct {
	dns   flasharray.DNS
	calls []string
}

func (f *fakeArray) RESTVersion() string { return "2.36" }

func (f *fakeArray) GetDNS(ctx context.Context) (*flasharray.DNS, error) {
	f.calls = append(f.calls, "get")
	cfg := f.dns
	return &cfg, nil
}

func (f *fakeArray) PatchDNS(ctx context.Context, cfg flasharray.DNS) (*flasharray.DNS, error) {
	f.calls = append(f.calls, "patch")
	f.dns = cfg
	return &f.dns, nil
}

func dnsTask(cfg config.DNSTask) *config.Task {
	return &config.Task{ID: "dns_test", Type: "dns", State: config.StatePresent, Enabled: true, DNS: &cfg}
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

func TestSetDomainAndNameservers(t *testing.T) {
	t.Parallel()

	fake := &fakeArray{}
	res := converge(t, fake, dnsTask(config.DNSTask{
		Domain:      "corp.example.com",
		Nameservers: []string{"10.0.0.2", "10.0.0.3"},
	}))

	require.True(t, res.Changed)
	require.Equal(t, "corp.example.com", fake.dns.Domain)
	require.Equal(t, []string{"10.0.0.2", "10.0.0.3"}, fake.dns.Nameservers)
}

func TestDomainComparesCaseInsensitively(t *testing.T) {
	t.Parallel()

	fake := &fakeArray{dns: flasharray.DNS{Domain: "CORP.Example.COM"}}
	res := converge(t, fake, dnsTask(config.DNSTask{Domain: "corp.example.com"}))
	require.Equal(t, model.StatusUnchanged, res.Status)
}

func TestNameserverListTruncated(t *testing.T) {
	t.Parallel()

	fake := &fakeArray{}
	res := converge(t, fake, dnsTask(config.DNSTask{
		Nameservers: []string{"10.0.0.2", "10.0.0.3", "10.0.0.4", "10.0.0.5"},
	}))

	require.True(t, res.Changed)
	require.Equal(t, []string{"10.0.0.2", "10.0.0.3", "10.0.0.4"}, fake.dns.Nameservers)
}

func TestNameserverOrderMatters(t *testing.T) {
	t.Parallel()

	fake := &fakeArray{dns: flasharray.DNS{Nameservers: []string{"10.0.0.3", "10.0.0.2"}}}
	res := converge(t, fake, dnsTask(config.DNSTask{
		Nameservers: []string{"10.0.0.2", "10.0.0.3"},
	}))

	require.True(t, res.Changed)
	require.Equal(t, []string{"10.0.0.2", "10.0.0.3"}, fake.dns.Nameservers)
}

func TestUnsetFieldsPreserved(t *testing.T) {
	t.Parallel()

	fake := &fakeArray{dns: flasharray.DNS{Domain: "corp.example.com", Nameservers: []string{"10.0.0.2"}}}
	res := converge(t, fake, dnsTask(config.DNSTask{
		Nameservers: []string{"10.0.0.9"},
	}))

	require.True(t, res.Changed)
	require.Equal(t, "corp.example.com", fake.dns.Domain, "domain survives a nameserver-only update")
}

func TestAbsentClearsConfiguration(t *testing.T) {
	t.Parallel()

	fake := &fakeArray{dns: flasharray.DNS{Domain: "example.com", Nameservers: []string{"10.0.0.53"}}}
	task := dnsTask(config.DNSTask{})
	task.State = config.StateAbsent

	rec := New(fake)
	eval, err := rec.Evaluate(context.Background(), task)
	require.NoError(t, err)
	require.True(t, eval.RequiresAction)
	require.Equal(t, model.ActionDelete, eval.Action)

	res, err := rec.Apply(context.Background(), eval, task)
	require.NoError(t, err)
	require.True(t, res.Changed)
	require.Empty(t, fake.dns.Domain)
	require.Empty(t, fake.dns.Nameservers)
}

func TestAbsentAlreadyUnconfigured(t *testing.T) {
	t.Parallel()

	fake := &fakeArray{}
	task := dnsTask(config.DNSTask{})
	task.State = config.StateAbsent

	res := converge(t, fake, task)
	require.Equal(t, model.StatusUnchanged, res.Status)
	require.Equal(t, []string{"get"}, fake.calls)
}

func TestDNSIdempotent(t *testing.T) {
	t.Parallel()

	fake := &fakeArray{dns: flasharray.DNS{Domain: "corp.example.com", Nameservers: []string{"10.0.0.2"}}}
	res := converge(t, fake, dnsTask(config.DNSTask{
		Domain:      "corp.example.com",
		Nameservers: []string{"10.0.0.2"},
	}))

	require.Equal(t, model.StatusUnchanged, res.Status)
	require.Equal(t, []string{"get"}, fake.calls)
}
