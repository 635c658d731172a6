package model

// SettingsPhase tags the lifecycle of the settings record during startup.
type SettingsPhase int

const (
	SettingsLoading SettingsPhase = iota
	SettingsReady
	SettingsUnavailable
)

// SettingsState is the tagged settings variant. Consumers check the phase
// before touching the record, so "not yet loaded" can never be mistaken for
// a zero balance.
type SettingsState struct {
	Phase    SettingsPhase
	Settings Settings
	Err      error
}

// LoadingSettings is the state before the initialization protocol finishes.
func LoadingSettings() SettingsState {
	return SettingsState{Phase: SettingsLoading}
}

// ReadySettings wraps a loaded record.
func ReadySettings(s Settings) SettingsState {
	return SettingsState{Phase: SettingsReady, Settings: s}
}

// UnavailableSettings records a fatal load failure.
func UnavailableSettings(err error) SettingsState {
	return SettingsState{Phase: SettingsUnavailable, Err: err}
}

// Ready returns the record when the phase is SettingsReady.
func (st SettingsState) Ready() (Settings, bool) {
	if st.Phase != SettingsReady {
		return Settings{}, false
	}
	return st.Settings, true
}
