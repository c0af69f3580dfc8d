package config

import (
	"gopkg.in/yaml.v3"
)

// Plan represents the full declarative plan document for one array.
type Plan struct {
	Version     string     `yaml:"version" validate:"required,semver"`
	Name        string     `yaml:"name" validate:"required,min=1,max=100"`
	Description string     `yaml:"description,omitempty"`
	Connection  Connection `yaml:"connection" validate:"required"`
	Settings    Settings   `yaml:"settings,omitempty"`
	Tasks       []Task     `yaml:"tasks" validate:"required,min=1,dive"`
}

// Connection identifies the target array and credentials.
type Connection struct {
	Endpoint    string `yaml:"endpoint" validate:"required"`
	APIToken    string `yaml:"api_token,omitempty"`
	APITokenEnv string `yaml:"api_token_env,omitempty"`
	VerifyTLS   bool   `yaml:"verify_tls,omitempty"`
	TimeoutSecs int    `yaml:"timeout,omitempty" validate:"omitempty,min=1,max=600"`
}

// Settings holds global execution parameters.
type Settings struct {
	DryRun          bool `yaml:"dry_run,omitempty"`
	ContinueOnError bool `yaml:"continue_on_error,omitempty"`
	Verbose         bool `yaml:"verbose,omitempty"`
}

// Task states recognised across resource types. Individual types accept a
// subset; see ValidateTask.
const (
	StatePresent = "present"
	StateAbsent  = "absent"
	StateRename  = "rename"
)

// Task describes one declared resource.
type Task struct {
	ID      string `yaml:"id" validate:"required,task_id"`
	Type    string `yaml:"type" validate:"required"`
	State   string `yaml:"state,omitempty"`
	Enabled bool   `yaml:"enabled,omitempty"`

	Volume      *VolumeTask      `yaml:"-"`
	Host        *HostTask        `yaml:"-"`
	HostGroup   *HostGroupTask   `yaml:"-"`
	VolumeGroup *VolumeGroupTask `yaml:"-"`
	Pod         *PodTask         `yaml:"-"`
	PgSnap      *PgSnapTask      `yaml:"-"`
	Subnet      *SubnetTask      `yaml:"-"`
	User        *UserTask        `yaml:"-"`
	DNS         *DNSTask         `yaml:"-"`
	Syslog      *SyslogTask      `yaml:"-"`
	Snmp        *SnmpTask        `yaml:"-"`
	Ntp         *NtpTask         `yaml:"-"`
}

// UnmarshalYAML customises task decoding to populate the type-specific
// structure without conflicts between the shared and per-type fields.
func (t *Task) UnmarshalYAML(value *yaml.Node) error {
	type baseTask struct {
		ID      string `yaml:"id"`
		Type    string `yaml:"type"`
		State   string `yaml:"state"`
		Enabled *bool  `yaml:"enabled"`
	}

	var base baseTask
	if err := value.Decode(&base); err != nil {
		return err
	}

	t.ID = base.ID
	t.Type = base.Type
	t.State = base.State
	if t.State == "" {
		t.State = StatePresent
	}
	if base.Enabled != nil {
		t.Enabled = *base.Enabled
	} else {
		t.Enabled = true
	}

	t.Volume = nil
	t.Host = nil
	t.HostGroup = nil
	t.VolumeGroup = nil
	t.Pod = nil
	t.PgSnap = nil
	t.Subnet = nil
	t.User = nil
	t.DNS = nil
	t.Syslog = nil
	t.Snmp = nil
	t.Ntp = nil

	switch base.Type {
	case "volume":
		var body VolumeTask
		if err := value.Decode(&body); err != nil {
			return err
		}
		t.Volume = &body
	case "host":
		var body HostTask
		if err := value.Decode(&body); err != nil {
			return err
		}
		t.Host = &body
	case "hostgroup":
		var body HostGroupTask
		if err := value.Decode(&body); err != nil {
			return err
		}
		t.HostGroup = &body
	case "volumegroup":
		var body VolumeGroupTask
		if err := value.Decode(&body); err != nil {
			return err
		}
		t.VolumeGroup = &body
	case "pod":
		var body PodTask
		if err := value.Decode(&body); err != nil {
			return err
		}
		t.Pod = &body
	case "pgsnap":
		var body PgSnapTask
		if err := value.Decode(&body); err != nil {
			return err
		}
		t.PgSnap = &body
	case "subnet":
		var body SubnetTask
		if err := value.Decode(&body); err != nil {
			return err
		}
		t.Subnet = &body
	case "user":
		var body UserTask
		if err := value.Decode(&body); err != nil {
			return err
		}
		t.User = &body
	case "dns":
		var body DNSTask
		if err := value.Decode(&body); err != nil {
			return err
		}
		t.DNS = &body
	case "syslog":
		var body SyslogTask
		if err := value.Decode(&body); err != nil {
			return err
		}
		t.Syslog = &body
	case "snmp":
		var body SnmpTask
		if err := value.Decode(&body); err != nil {
			return err
		}
		t.Snmp = &body
	case "ntp":
		var body NtpTask
		if err := value.Decode(&body); err != nil {
			return err
		}
		t.Ntp = &body
	}

	return nil
}

// VolumeTask declares a block volume.
type VolumeTask struct {
	Name           string `yaml:"name" validate:"required,volume_name"`
	Size           string `yaml:"size,omitempty" validate:"omitempty,size_string"`
	BandwidthLimit string `yaml:"bandwidth_limit,omitempty" validate:"omitempty,size_string"`
	IopsLimit      string `yaml:"iops_limit,omitempty" validate:"omitempty,count_string"`
	VolumeGroup    string `yaml:"volume_group,omitempty" validate:"omitempty,resource_name"`
	RenameTo       string `yaml:"rename,omitempty" validate:"omitempty,volume_name"`
	// Truncate permits a shrinking resize; without it a smaller declared
	// size is refused.
	Truncate  bool `yaml:"truncate,omitempty"`
	Eradicate bool `yaml:"eradicate,omitempty"`
}

// HostVolume declares one volume connection of a host.
type HostVolume struct {
	Name string `yaml:"name" validate:"required,volume_name"`
	Lun  int    `yaml:"lun,omitempty" validate:"omitempty,min=1,max=4095"`
}

// HostTask declares a host and its initiators.
type HostTask struct {
	Name        string       `yaml:"name" validate:"required,resource_name"`
	Personality string       `yaml:"personality,omitempty" validate:"omitempty,oneof=aix esxi hitachi-vsp hpux oracle-vm-server solaris vms"`
	Iqns        []string     `yaml:"iqns,omitempty"`
	Wwns        []string     `yaml:"wwns,omitempty"`
	Nqns        []string     `yaml:"nqns,omitempty"`
	HostUser    string       `yaml:"host_user,omitempty"`
	HostPass    string       `yaml:"host_password,omitempty"`
	TargetUser  string       `yaml:"target_user,omitempty"`
	TargetPass  string       `yaml:"target_password,omitempty"`
	Volumes     []HostVolume `yaml:"volumes,omitempty" validate:"omitempty,dive"`
}

// HostGroupTask declares a host group, its membership, and its shared
// volume connections.
type HostGroupTask struct {
	Name    string   `yaml:"name" validate:"required,resource_name"`
	Hosts   []string `yaml:"hosts,omitempty" validate:"omitempty,dive,resource_name"`
	Volumes []string `yaml:"volumes,omitempty" validate:"omitempty,dive,volume_name"`
	// Exclusive removes unmanaged members and connections instead of
	// leaving them in place.
	Exclusive bool `yaml:"exclusive,omitempty"`
}

// VolumeGroupTask declares a volume group.
type VolumeGroupTask struct {
	Name             string `yaml:"name" validate:"required,resource_name"`
	BandwidthLimit   string `yaml:"bandwidth_limit,omitempty" validate:"omitempty,size_string"`
	IopsLimit        string `yaml:"iops_limit,omitempty" validate:"omitempty,count_string"`
	PriorityOperator string `yaml:"priority_operator,omitempty" validate:"omitempty,oneof=+ - ="`
	PriorityValue    int    `yaml:"priority_value,omitempty" validate:"omitempty,oneof=0 10"`
	Eradicate        bool   `yaml:"eradicate,omitempty"`
}

// PodTask declares an ActiveCluster pod.
type PodTask struct {
	Name                string   `yaml:"name" validate:"required,resource_name"`
	StretchTo           string   `yaml:"stretch_to,omitempty" validate:"omitempty,resource_name"`
	UnstretchFrom       string   `yaml:"unstretch_from,omitempty" validate:"omitempty,resource_name"`
	FailoverPreferences []string `yaml:"failover_preferences,omitempty" validate:"omitempty,dive,resource_name"`
	Quota               string   `yaml:"quota,omitempty" validate:"omitempty,size_string"`
	Eradicate           bool     `yaml:"eradicate,omitempty"`
}

// PgSnapTask declares a protection-group snapshot.
type PgSnapTask struct {
	Group          string `yaml:"group" validate:"required,resource_name"`
	Suffix         string `yaml:"suffix" validate:"required,resource_name"`
	ApplyRetention bool   `yaml:"apply_retention,omitempty"`
	Eradicate      bool   `yaml:"eradicate,omitempty"`
}

// SubnetTask declares a network subnet.
type SubnetTask struct {
	Name     string   `yaml:"name" validate:"required,resource_name"`
	Prefix   string   `yaml:"prefix,omitempty" validate:"omitempty,cidr"`
	Vlan     int      `yaml:"vlan,omitempty" validate:"omitempty,min=1,max=4094"`
	Gateway  string   `yaml:"gateway,omitempty" validate:"omitempty,ip"`
	Mtu      int      `yaml:"mtu,omitempty" validate:"omitempty,min=568,max=9000"`
	Services []string `yaml:"services,omitempty" validate:"omitempty,dive,oneof=data management replication iscsi nvme-tcp nvme-roce file"`
	Enabled  *bool    `yaml:"enabled,omitempty"`
}

// UserTask declares a local array user.
type UserTask struct {
	Name     string `yaml:"name" validate:"required,resource_name"`
	Role     string `yaml:"role,omitempty" validate:"omitempty,oneof=readonly ops_admin storage_admin array_admin"`
	Password string `yaml:"password,omitempty" validate:"omitempty,min=1,max=100"`
	// SetPassword forces a password update on an existing user; passwords
	// are write-only and can never be diffed.
	SetPassword bool `yaml:"set_password,omitempty"`
	// CreateApiToken issues a fresh API token on create or when forced.
	CreateApiToken bool `yaml:"create_api_token,omitempty"`
	// DeleteApiToken revokes the user's API token.
	DeleteApiToken bool `yaml:"delete_api_token,omitempty"`
}

// DNSTask declares the array-global DNS configuration.
type DNSTask struct {
	Domain      string   `yaml:"domain,omitempty" validate:"omitempty,fqdn"`
	Nameservers []string `yaml:"nameservers,omitempty" validate:"omitempty,dive,ip"`
}

// SyslogTask declares a remote syslog destination.
type SyslogTask struct {
	Name     string   `yaml:"name" validate:"required,resource_name"`
	Address  string   `yaml:"address" validate:"required"`
	Port     int      `yaml:"port,omitempty" validate:"omitempty,min=1,max=65535"`
	Protocol string   `yaml:"protocol,omitempty" validate:"omitempty,oneof=tcp udp tls"`
	Services []string `yaml:"services,omitempty" validate:"omitempty,dive,oneof=management data_audit"`
}

// SnmpTask declares an SNMP notification manager.
type SnmpTask struct {
	Name         string `yaml:"name" validate:"required,resource_name"`
	Host         string `yaml:"host" validate:"required"`
	Version      string `yaml:"version,omitempty" validate:"omitempty,oneof=v2c v3"`
	Community    string `yaml:"community,omitempty"`
	User         string `yaml:"user,omitempty"`
	AuthProtocol string `yaml:"auth_protocol,omitempty" validate:"omitempty,oneof=MD5 SHA"`
	AuthPass     string `yaml:"auth_passphrase,omitempty"`
	PrivProtocol string `yaml:"privacy_protocol,omitempty" validate:"omitempty,oneof=AES DES"`
	PrivPass     string `yaml:"privacy_passphrase,omitempty"`
	Notification string `yaml:"notification,omitempty" validate:"omitempty,oneof=trap inform"`
	// UpdateSecrets re-applies community strings and passphrases to an
	// existing manager; secrets are write-only and can never be diffed.
	UpdateSecrets bool `yaml:"update_secrets,omitempty"`
}

// NtpTask declares the array NTP configuration.
type NtpTask struct {
	Servers      []string `yaml:"servers,omitempty"`
	SymmetricKey string   `yaml:"symmetric_key,omitempty"`
}
