package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	purefaerrors "github.com/mvachon/purefa/pkg/errors"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate

	semverPattern = regexp.MustCompile(`^\d+\.\d+(?:\.\d+)?$`)
	taskIDPattern = regexp.MustCompile(`^[a-z0-9_]+$`)

	// Array object names: alphanumeric start and end, dashes inside, at
	// most 63 characters.
	resourceNamePattern = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]*[a-zA-Z0-9])?$`)

	// Volume names additionally allow underscore and dot inside, and an
	// optional volume-group prefix separated by a slash.
	volumeNamePattern = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-_.]*[a-zA-Z0-9])?$`)

	sizePattern  = regexp.MustCompile(`^\d+[KMGTPkmgtp]$`)
	countPattern = regexp.MustCompile(`^\d+[KMkm]$`)
)

var taskTypes = map[string]struct{}{
	"volume": {}, "host": {}, "hostgroup": {}, "volumegroup": {},
	"pod": {}, "pgsnap": {}, "subnet": {}, "user": {},
	"dns": {}, "syslog": {}, "snmp": {}, "ntp": {},
}

func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		_ = v.RegisterValidation("semver", func(fl validator.FieldLevel) bool {
			return semverPattern.MatchString(fl.Field().String())
		})

		_ = v.RegisterValidation("task_id", func(fl validator.FieldLevel) bool {
			return taskIDPattern.MatchString(fl.Field().String())
		})

		_ = v.RegisterValidation("resource_name", func(fl validator.FieldLevel) bool {
			return isResourceName(fl.Field().String())
		})

		_ = v.RegisterValidation("volume_name", func(fl validator.FieldLevel) bool {
			return isVolumeName(fl.Field().String())
		})

		_ = v.RegisterValidation("size_string", func(fl validator.FieldLevel) bool {
			return sizePattern.MatchString(fl.Field().String())
		})

		_ = v.RegisterValidation("count_string", func(fl validator.FieldLevel) bool {
			return countPattern.MatchString(fl.Field().String())
		})

		validateInst = v
	})

	return validateInst
}

func isResourceName(name string) bool {
	return len(name) <= 63 && resourceNamePattern.MatchString(name)
}

func isVolumeName(name string) bool {
	group, vol, found := strings.Cut(name, "/")
	if found {
		return isResourceName(group) && len(vol) <= 63 && volumeNamePattern.MatchString(vol)
	}
	return len(name) <= 63 && volumeNamePattern.MatchString(name)
}

// ValidatePlan performs schema and cross-field validation on the plan.
func ValidatePlan(plan *Plan) error {
	if plan == nil {
		return purefaerrors.NewValidationError("plan", "plan is nil", nil)
	}

	v := validatorInstance()
	if err := v.Struct(plan); err != nil {
		return convertValidationError(err)
	}

	if plan.Connection.APIToken == "" && plan.Connection.APITokenEnv == "" {
		return purefaerrors.NewValidationError("connection", "one of api_token or api_token_env is required", nil)
	}

	taskIndex := make(map[string]int, len(plan.Tasks))
	for i, task := range plan.Tasks {
		if _, exists := taskIndex[task.ID]; exists {
			return purefaerrors.NewValidationError(fieldForTask(i, "id"), fmt.Sprintf("duplicate task id %q", task.ID), nil)
		}
		taskIndex[task.ID] = i

		if err := ValidateTask(i, task); err != nil {
			return err
		}
	}

	return nil
}

// ValidateTask checks the per-type constraints of one task.
func ValidateTask(index int, task Task) error {
	if _, ok := taskTypes[task.Type]; !ok {
		return purefaerrors.NewValidationError(fieldForTask(index, "type"), fmt.Sprintf("unknown task type %q", task.Type), nil)
	}

	states := map[string]struct{}{StatePresent: {}, StateAbsent: {}}
	if task.Type == "volume" {
		states[StateRename] = struct{}{}
	}
	if _, ok := states[task.State]; !ok {
		return purefaerrors.NewValidationError(fieldForTask(index, "state"), fmt.Sprintf("state %q is not valid for type %q", task.State, task.Type), nil)
	}

	switch task.Type {
	case "volume":
		if task.Volume == nil {
			return missingBody(index, task.Type)
		}
		if task.State == StateRename && task.Volume.RenameTo == "" {
			return purefaerrors.NewValidationError(fieldForTask(index, "rename"), "state rename requires a rename target", nil)
		}
		if task.State == StatePresent && task.Volume.Size == "" {
			return purefaerrors.NewValidationError(fieldForTask(index, "size"), "present volumes require a size", nil)
		}
	case "host":
		if task.Host == nil {
			return missingBody(index, task.Type)
		}
		chapFields := []string{task.Host.HostUser, task.Host.HostPass, task.Host.TargetUser, task.Host.TargetPass}
		set := 0
		for _, f := range chapFields {
			if f != "" {
				set++
			}
		}
		if set != 0 && (task.Host.HostUser == "") != (task.Host.HostPass == "") {
			return purefaerrors.NewValidationError(fieldForTask(index, "host_user"), "host_user and host_password must be set together", nil)
		}
		if set != 0 && (task.Host.TargetUser == "") != (task.Host.TargetPass == "") {
			return purefaerrors.NewValidationError(fieldForTask(index, "target_user"), "target_user and target_password must be set together", nil)
		}
	case "hostgroup":
		if task.HostGroup == nil {
			return missingBody(index, task.Type)
		}
	case "volumegroup":
		if task.VolumeGroup == nil {
			return missingBody(index, task.Type)
		}
		if task.VolumeGroup.PriorityOperator == "" && task.VolumeGroup.PriorityValue != 0 {
			return purefaerrors.NewValidationError(fieldForTask(index, "priority_value"), "priority_value requires priority_operator", nil)
		}
	case "pod":
		if task.Pod == nil {
			return missingBody(index, task.Type)
		}
	case "pgsnap":
		if task.PgSnap == nil {
			return missingBody(index, task.Type)
		}
	case "subnet":
		if task.Subnet == nil {
			return missingBody(index, task.Type)
		}
		if task.State == StatePresent && task.Subnet.Prefix == "" {
			return purefaerrors.NewValidationError(fieldForTask(index, "prefix"), "present subnets require a prefix", nil)
		}
	case "user":
		if task.User == nil {
			return missingBody(index, task.Type)
		}
		if task.State == StatePresent && task.User.Password == "" {
			return purefaerrors.NewValidationError(fieldForTask(index, "password"), "present users require a password for creation", nil)
		}
	case "dns":
		if task.DNS == nil {
			return missingBody(index, task.Type)
		}
	case "syslog":
		if task.Syslog == nil {
			return missingBody(index, task.Type)
		}
	case "snmp":
		if task.Snmp == nil {
			return missingBody(index, task.Type)
		}
		switch task.Snmp.Version {
		case "", "v2c":
			if task.State == StatePresent && task.Snmp.Community == "" {
				return purefaerrors.NewValidationError(fieldForTask(index, "community"), "snmp v2c requires a community", nil)
			}
			if task.Snmp.User != "" {
				return purefaerrors.NewValidationError(fieldForTask(index, "user"), "user is only valid with version v3", nil)
			}
		case "v3":
			if task.State == StatePresent && task.Snmp.User == "" {
				return purefaerrors.NewValidationError(fieldForTask(index, "user"), "snmp v3 requires a user", nil)
			}
			if task.Snmp.Community != "" {
				return purefaerrors.NewValidationError(fieldForTask(index, "community"), "community is only valid with version v2c", nil)
			}
			if (task.Snmp.AuthProtocol == "") != (task.Snmp.AuthPass == "") {
				return purefaerrors.NewValidationError(fieldForTask(index, "auth_protocol"), "auth_protocol and auth_passphrase must be set together", nil)
			}
			if (task.Snmp.PrivProtocol == "") != (task.Snmp.PrivPass == "") {
				return purefaerrors.NewValidationError(fieldForTask(index, "privacy_protocol"), "privacy_protocol and privacy_passphrase must be set together", nil)
			}
		}
	case "ntp":
		if task.Ntp == nil {
			return missingBody(index, task.Type)
		}
		if task.State == StatePresent && len(task.Ntp.Servers) == 0 {
			return purefaerrors.NewValidationError(fieldForTask(index, "servers"), "present ntp configuration requires at least one server", nil)
		}
	}

	return nil
}

func missingBody(index int, taskType string) error {
	return purefaerrors.NewValidationError(fieldForTask(index, taskType), fmt.Sprintf("task body for type %q is missing", taskType), nil)
}

func fieldForTask(index int, field string) string {
	return fmt.Sprintf("tasks[%d].%s", index, field)
}

func convertValidationError(err error) error {
	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		return purefaerrors.NewValidationError("plan", "plan could not be validated", err)
	}

	var errs validator.ValidationErrors
	if errors.As(err, &errs) && len(errs) > 0 {
		first := errs[0]
		field := strings.TrimPrefix(first.Namespace(), "Plan.")
		message := fmt.Sprintf("failed %q validation", first.Tag())
		return purefaerrors.NewValidationError(field, message, err)
	}

	return purefaerrors.NewValidationError("plan", err.Error(), err)
}
