package compiler

// describeUpdate words an update commit from the ports whose bindings
// were added and removed. Port names repeat once per affected binding.
func describeUpdate(added, removed []string) string {
	switch {
	case len(removed) == 0:
		if port, ok := samePort(added); ok {
			if len(added) == 1 {
				return "Added parameter to " + port
			}
			return "Added parameters to " + port
		}
		return "Added parameters"

	case len(added) == 0:
		if port, ok := samePort(removed); ok {
			if len(removed) == 1 {
				return "Removed parameter from " + port
			}
			return "Removed parameters from " + port
		}
		return "Removed parameters"

	default:
		all := append(append([]string(nil), added...), removed...)
		if port, ok := samePort(all); ok {
			if len(added) == 1 && len(removed) == 1 {
				return "Changed parameter on " + port
			}
			return "Changed parameters on " + port
		}
		return "Changed parameters"
	}
}

// samePort reports whether every entry names one port, and which.
func samePort(ports []string) (string, bool) {
	if len(ports) == 0 {
		return "", false
	}
	for _, p := range ports[1:] {
		if p != ports[0] {
			return "", false
		}
	}
	return ports[0], true
}
