package reconciler

import (
	"github.com/mvachon/purefa/internal/apiversion"
	purefaerrors "github.com/mvachon/purefa/pkg/errors"
)

// VersionReporter is the slice of the array client every version gate
// needs: the REST version negotiated at login.
type VersionReporter interface {
	RESTVersion() string
}

// RequireVersion gates a feature on a minimum REST version. Called before
// any mutating request is issued for the gated feature.
func RequireVersion(client VersionReporter, feature, needs string) error {
	have := client.RESTVersion()
	if !apiversion.AtLeast(have, needs) {
		return purefaerrors.NewUnsupportedVersionError(feature, needs, have)
	}
	return nil
}
