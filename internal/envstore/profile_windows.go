//go:build windows

package envstore

import (
	"fmt"
	"os/exec"
)

// persistDurable writes each variable to the per-user persistent environment
// via setx. Values land in the registry and reach new processes only.
func persistDurable(v Values) error {
	for _, key := range Keys {
		cmd := exec.Command("setx", key, v.pairs()[key])
		if out, err := cmd.CombinedOutput(); err != nil {
			return fmt.Errorf("%w: setx %s: %v: %s", ErrPersist, key, err, out)
		}
	}
	return nil
}
