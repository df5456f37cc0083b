package pipeline

type runConfig struct {
	forceAll bool
	force    map[string]struct{}
}

func (rc *runConfig) forced(name string) bool {
	if rc.forceAll {
		return true
	}
	_, ok := rc.force[name]

	return ok
}

type RunOption func(rc *runConfig)

// Force marks tasks as stale even if their outputs exist.
func Force(names ...string) RunOption {
	return func(rc *runConfig) {
		for _, name := range names {
			rc.force[name] = struct{}{}
		}
	}
}

// ForceAll marks every task reachable from the target as stale.
func ForceAll() RunOption {
	return func(rc *runConfig) {
		rc.forceAll = true
	}
}
