package params

const (
	// ParamsKeyPauses stores the module pause configuration as a JSON object
	// keyed by module name.
	ParamsKeyPauses = "system/pauses"
)
