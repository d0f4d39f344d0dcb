package app

import "os"

const testModeEnv = "ROLEBOARD_TEST_MODE"

// InTestMode reports whether the application should skip runtime side effects.
func InTestMode() bool {
	return os.Getenv(testModeEnv) == "1"
}
