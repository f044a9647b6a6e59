package log

import (
	"log"
	"os"
)

func Example() {
	log.SetOutput(os.Stdout)
	log.SetFlags(0)
	SetLevel(WarningLevel)

	Debug("some debug number: %d", 10)
	Info("some info number: %d", 20)
	Warning("some warning number: %d", 30)
	Error("some error number: %d", 40)

	// Output:
	// [WARN] some warning number: 30
	// [ERRO] some error number: 40
}
