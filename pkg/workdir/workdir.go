// Package workdir scopes changes of the process working directory.
package workdir

import (
	"os"

	"github.com/arthur-debert/bonsetup/pkg/errors"
	"github.com/arthur-debert/bonsetup/pkg/logging"
)

// Enter changes into dir and returns a func that changes back. The returned
// func is meant for defer and is safe to call more than once.
func Enter(dir string) (func(), error) {
	logger := logging.GetLogger("workdir")

	prev, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrDirChange, "failed to read the current directory")
	}
	if err := os.Chdir(dir); err != nil {
		return nil, errors.Wrapf(err, errors.ErrDirChange, "failed to enter %s", dir)
	}
	logger.Debug().Str("dir", dir).Msg("Entered directory")

	restored := false
	return func() {
		if restored {
			return
		}
		restored = true
		if err := os.Chdir(prev); err != nil {
			logger.Error().Err(err).Str("dir", prev).Msg("Failed to restore working directory")
			return
		}
		logger.Debug().Str("dir", prev).Msg("Restored directory")
	}, nil
}
