package components

// String returns the display name for a Status.
func (s Status) String() string {
	names := StatusNames()
	if int(s) < len(names) {
		return names[s]
	}
	return "Unknown"
}

// StatusNames returns the display names for all statuses.
// The order matches the Status constants.
func StatusNames() []string {
	return []string{"Idle", "MoveToMine", "Mining", "MoveToDropoff", "EndGame", "CreateDropoff"}
}

// ParseStatus is the inverse of Status.String.
func ParseStatus(name string) (Status, bool) {
	for i, n := range StatusNames() {
		if n == name {
			return Status(i), true
		}
	}
	return Idle, false
}
