// akb builds Android kernels with optional root-solution integration and
// packages them as flashable AnyKernel3 archives.
package main

import (
	"github.com/bitswalk/akb/src/akb/core"
)

func main() {
	core.Execute()
}
