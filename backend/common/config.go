package common

// GetServerAddress gets server address
func GetServerAddress() string {
	return OptionMap["ServerAddress"]
}

// GetSystemName gets system name
func GetSystemName() string {
	return OptionMap["SystemName"]
}

// GetRegisterEnabled gets whether registration is enabled
func GetRegisterEnabled() bool {
	return OptionMap["RegisterEnabled"] == "true"
}

// GetEnableGzip checks if gzip compression should be enabled.
// Defaults to true if the option is not explicitly set to "false".
func GetEnableGzip() bool {
	// We treat any value other than "false" as true for safety.
	return OptionMap["EnableGzip"] != "false"
}
