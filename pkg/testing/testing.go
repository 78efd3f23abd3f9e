package testing

import (
	"os"
	"path"
	"runtime"
)

func init() {
	// tests run from the project root so that ./logs and relative db paths land in one place
	//
	//   import (
	//     _ "firewatch.xyz/alert-dispatch-service/pkg/testing"
	//   )

	_, filename, _, _ := runtime.Caller(0)
	dir := path.Join(path.Dir(filename), "..", "..")
	if err := os.Chdir(dir); err != nil {
		panic(err)
	}
}
