package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	purefaerrors "github.com/mvachon/purefa/pkg/errors"
)

func writePlan(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const validPlan = `
version: "1.0"
name: prod-array-baseline
connection:
  endpoint: array1.example.com
  api_token: secret-token
tasks:
  - id: vol_db01
    type: volume
    name: oracle/db01
    size: 1T
    bandwidth_limit: 512M
    iops_limit: 100K
  - id: host_esx01
    type: host
    name: esx01
    personality: esxi
    iqns:
      - iqn.1998-01.com.vmware:esx01
    volumes:
      - name: oracle/db01
        lun: 12
  - id: old_volume
    type: volume
    state: absent
    name: scratch
    eradicate: true
`

func TestParsePlanValid(t *testing.T) {
	t.Parallel()

	plan, err := ParsePlan(writePlan(t, validPlan))
	require.NoError(t, err)

	require.Equal(t, "prod-array-baseline", plan.Name)
	require.Len(t, plan.Tasks, 3)

	vol := plan.Tasks[0]
	require.Equal(t, "volume", vol.Type)
	require.Equal(t, StatePresent, vol.State, "state defaults to present")
	require.True(t, vol.Enabled, "tasks default to enabled")
	require.NotNil(t, vol.Volume)
	require.Equal(t, "oracle/db01", vol.Volume.Name)
	require.Equal(t, "1T", vol.Volume.Size)

	host := plan.Tasks[1]
	require.NotNil(t, host.Host)
	require.Len(t, host.Host.Volumes, 1)
	require.Equal(t, 12, host.Host.Volumes[0].Lun)

	absent := plan.Tasks[2]
	require.Equal(t, StateAbsent, absent.State)
	require.True(t, absent.Volume.Eradicate)
}

func TestParsePlanTokenFromEnvironment(t *testing.T) {
	plan := `
version: "1.0"
name: env-token
connection:
  endpoint: array1.example.com
  api_token_env: PUREFA_TEST_TOKEN
tasks:
  - id: dns_main
    type: dns
    domain: example.com
    nameservers: ["10.0.0.2"]
`
	t.Setenv("PUREFA_TEST_TOKEN", "from-env")

	parsed, err := ParsePlan(writePlan(t, plan))
	require.NoError(t, err)
	require.Equal(t, "from-env", parsed.Connection.APIToken)
}

func TestParsePlanTokenEnvUnset(t *testing.T) {
	plan := `
version: "1.0"
name: env-token
connection:
  endpoint: array1.example.com
  api_token_env: PUREFA_UNSET_TOKEN
tasks:
  - id: dns_main
    type: dns
    domain: example.com
`
	t.Setenv("PUREFA_UNSET_TOKEN", "")

	_, err := ParsePlan(writePlan(t, plan))
	var ve *purefaerrors.ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestParsePlanRejectsMalformedYAML(t *testing.T) {
	t.Parallel()

	_, err := ParsePlan(writePlan(t, "version: [unclosed"))
	var pe *purefaerrors.ParseError
	require.ErrorAs(t, err, &pe)
}

func TestParsePlanMissingFile(t *testing.T) {
	t.Parallel()

	_, err := ParsePlan(filepath.Join(t.TempDir(), "nope.yaml"))
	var pe *purefaerrors.ParseError
	require.ErrorAs(t, err, &pe)
}

func TestValidateTaskRules(t *testing.T) {
	t.Parallel()

	base := `
version: "1.0"
name: rules
connection:
  endpoint: array1.example.com
  api_token: tok
tasks:
`

	tests := []struct {
		name    string
		task    string
		wantErr string
	}{
		{
			"unknown type",
			"  - id: t1\n    type: widget\n    name: x\n",
			"unknown task type",
		},
		{
			"duplicate ids",
			"  - id: t1\n    type: dns\n    domain: a.com\n  - id: t1\n    type: dns\n    domain: b.com\n",
			"duplicate task id",
		},
		{
			"volume without size",
			"  - id: t1\n    type: volume\n    name: v1\n",
			"require a size",
		},
		{
			"volume rename without target",
			"  - id: t1\n    type: volume\n    state: rename\n    name: v1\n    size: 1G\n",
			"rename requires",
		},
		{
			"rename invalid for host",
			"  - id: t1\n    type: host\n    state: rename\n    name: h1\n",
			"not valid for type",
		},
		{
			"snmp v2c with user",
			"  - id: t1\n    type: snmp\n    name: mgr1\n    host: 10.0.0.9\n    community: public\n    user: bob\n",
			"only valid with version v3",
		},
		{
			"snmp v3 without user",
			"  - id: t1\n    type: snmp\n    name: mgr1\n    host: 10.0.0.9\n    version: v3\n",
			"requires a user",
		},
		{
			"snmp v3 auth protocol without passphrase",
			"  - id: t1\n    type: snmp\n    name: mgr1\n    host: 10.0.0.9\n    version: v3\n    user: bob\n    auth_protocol: SHA\n",
			"must be set together",
		},
		{
			"subnet without prefix",
			"  - id: t1\n    type: subnet\n    name: repl1\n",
			"require a prefix",
		},
		{
			"user without password",
			"  - id: t1\n    type: user\n    name: ops1\n    role: ops_admin\n",
			"require a password",
		},
		{
			"ntp without servers",
			"  - id: t1\n    type: ntp\n",
			"at least one server",
		},
		{
			"bad size unit",
			"  - id: t1\n    type: volume\n    name: v1\n    size: 10Q\n",
			"size_string",
		},
		{
			"bad resource name",
			"  - id: t1\n    type: host\n    name: -bad-\n",
			"resource_name",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParsePlan(writePlan(t, base+tt.task))
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestVolumeNameValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"plain", "db01", true},
		{"with group prefix", "oracle/db01", true},
		{"interior punctuation", "db_01.snap", true},
		{"leading dash", "-db01", false},
		{"trailing underscore", "db01_", false},
		{"double slash", "a/b/c", false},
		{"too long", string(make([]byte, 70)), false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, isVolumeName(tt.input))
		})
	}
}
