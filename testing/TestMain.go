package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("ENTITYADMIN_TEST_MODE", "1")
		if os.Getenv("SQLAPI_BASE_URL") == "" {
			_ = os.Setenv("SQLAPI_BASE_URL", "http://127.0.0.1:0")
		}
		if os.Getenv("SQLAPI_DATABASE_ID") == "" {
			_ = os.Setenv("SQLAPI_DATABASE_ID", "test")
		}
	})
}

func init() {
	ensureTestMode()
}

func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}
