package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	purefaerrors "github.com/mvachon/purefa/pkg/errors"
)

var yamlLineRegex = regexp.MustCompile(`line (\d+)`)

// ParsePlan loads a plan file from disk, validates it, and resolves the
// API token from the environment when api_token_env is used.
func ParsePlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, purefaerrors.NewParseError(path, 0, err)
	}

	var plan Plan
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, purefaerrors.NewParseError(path, extractLine(err), err)
	}

	if err := ValidatePlan(&plan); err != nil {
		return nil, err
	}

	if plan.Connection.APIToken == "" {
		token := os.Getenv(plan.Connection.APITokenEnv)
		if token == "" {
			return nil, purefaerrors.NewValidationError("connection.api_token_env",
				fmt.Sprintf("environment variable %q is not set", plan.Connection.APITokenEnv), nil)
		}
		plan.Connection.APIToken = token
	}

	return &plan, nil
}

func extractLine(err error) int {
	if err == nil {
		return 0
	}

	matches := yamlLineRegex.FindStringSubmatch(err.Error())
	if len(matches) != 2 {
		return 0
	}

	var line int
	if _, scanErr := fmt.Sscanf(matches[1], "%d", &line); scanErr != nil {
		return 0
	}
	return line
}
