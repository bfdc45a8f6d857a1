// Package rtadapt implements the external, host-facing edges of the
// runtime: locating a user configuration file, loading namespace source
// from a filesystem or a client-supplied virtual filesystem, and
// installing the built-in primitive and compiler definitions a
// configuration's namespace expects to find already bound. Grounded on
// spec.md §6 and on original_source/c/api/glas.h's commented-out
// glas_apply_user_config and original_source/c/src/main.c's --run/GLAS_CONF
// documentation (the CLI action enum itself is out of scope, per
// spec.md §1).
package rtadapt

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
)

// DiscoverConfigPath resolves the configuration file path per spec.md §6's
// precedence: $GLAS_CONF if set, else a platform default
// ($HOME/.config/glas/conf.glas on Unix, %AppData%\glas\conf.glas on
// Windows). It does not check that the file exists; callers combine this
// with their own I/O (or a Loader, for virtualized paths).
func DiscoverConfigPath() (string, error) {
	if p := os.Getenv("GLAS_CONF"); p != "" {
		return p, nil
	}
	if runtime.GOOS == "windows" {
		appData := os.Getenv("AppData")
		if appData == "" {
			return "", errors.New("rtadapt: AppData is not set and GLAS_CONF is unset")
		}
		return filepath.Join(appData, "glas", "conf.glas"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "glas", "conf.glas"), nil
}
