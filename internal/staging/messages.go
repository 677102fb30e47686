package staging

// Messages are the user-facing texts set on failure. A server-supplied
// message takes precedence over these.
type Messages struct {
	Upload           string
	Commit           string
	CommitDuplicates string
	Load             string
}

func DefaultMessages() Messages {
	return Messages{
		Upload:           "error staging files",
		Commit:           "error saving files",
		CommitDuplicates: "error saving duplicate files",
		Load:             "error loading files",
	}
}

// withDefaults fills empty entries from DefaultMessages
func (m Messages) withDefaults() Messages {
	d := DefaultMessages()
	if m.Upload == "" {
		m.Upload = d.Upload
	}
	if m.Commit == "" {
		m.Commit = d.Commit
	}
	if m.CommitDuplicates == "" {
		m.CommitDuplicates = d.CommitDuplicates
	}
	if m.Load == "" {
		m.Load = d.Load
	}
	return m
}
