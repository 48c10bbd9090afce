package util

import (
	"os"
	"strconv"
)

// dockerMarker is created by the Docker runtime in every container
var dockerMarker = "/.dockerenv"

// IsRunningInDocker decides which default hosts the config should point at.
// RUNNING_IN_DOCKER overrides the check for compose setups with other runtimes.
func IsRunningInDocker() bool {
	if env, ok := os.LookupEnv("RUNNING_IN_DOCKER"); ok {
		in, err := strconv.ParseBool(env)
		return err == nil && in
	}

	_, err := os.Stat(dockerMarker)
	return err == nil
}
