package version

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
)

// CheckConfigCompatibility checks whether a session config written for configVersion
// can be run by an engine at engineVersion.
//
// Rules:
//   - "main" on either side (development build) skips the check
//   - an empty config version is accepted and means "current"
//   - major versions must match
//   - the config minor version must not be newer than the engine's
//   - patch versions are ignored
//
// Examples:
//   - Engine 0.3.0, config 0.3.0 -> OK
//   - Engine 0.3.2, config 0.2.0 -> OK (older config)
//   - Engine 0.3.0, config 0.4.0 -> ERROR (config newer than engine)
//   - Engine 1.0.0, config 0.3.0 -> ERROR (major differs)
func CheckConfigCompatibility(engineVersion, configVersion string) error {
	engineVersion = strings.TrimPrefix(engineVersion, "v")
	configVersion = strings.TrimPrefix(configVersion, "v")

	if engineVersion == "main" || configVersion == "main" || configVersion == "" {
		return nil
	}

	engineSemver, err := semver.NewVersion(engineVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidVersion, err, "invalid engine version '%s'", engineVersion)
	}

	configSemver, err := semver.NewVersion(configVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidVersion, err, "invalid config version '%s'", configVersion)
	}

	if engineSemver.Major() != configSemver.Major() {
		return errors.Newf(errors.ErrCodeInvalidVersion, "major version mismatch: engine is %d.x.x but config requires %d.x.x",
			engineSemver.Major(), configSemver.Major())
	}

	constraint, err := semver.NewConstraint(fmt.Sprintf("<= %d.%d.x", engineSemver.Major(), engineSemver.Minor()))
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidVersion, "failed to build version constraint", err)
	}

	if !constraint.Check(configSemver) {
		return errors.Newf(errors.ErrCodeInvalidVersion, "config version %s is newer than engine %d.%d.x",
			configSemver.String(), engineSemver.Major(), engineSemver.Minor())
	}

	return nil
}
