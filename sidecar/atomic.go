package sidecar

import (
	"fmt"
	"os"

	"github.com/archivekeep/bitrepair"
)

// WriteAtomic calls write with a freshly created temp file in the same
// directory as path (named with a random suffix so concurrent runs never
// collide), then renames it into place on success. A crash mid-write
// leaves the temp file behind but never corrupts the previous good
// sidecar at path.
func WriteAtomic(path string, write func(f *os.File) error) (err error) {
	tmp := fmt.Sprintf("%s.tmp-%s", path, bitrepair.NewTempSuffix())
	f, err := os.Create(tmp)
	if err != nil {
		return bitrepair.Error{Code: bitrepair.IOError, Err: err, UserData: path}
	}
	defer func() {
		// Close is safe to call again after an explicit Close below; it
		// just returns an error we ignore on the already-closed case.
		f.Close()
		if err != nil {
			os.Remove(tmp)
		}
	}()

	if err = write(f); err != nil {
		return err
	}
	if err = f.Sync(); err != nil {
		return bitrepair.Error{Code: bitrepair.IOError, Err: err, UserData: path}
	}
	if err = f.Close(); err != nil {
		return bitrepair.Error{Code: bitrepair.IOError, Err: err, UserData: path}
	}

	if err = os.Rename(tmp, path); err != nil {
		return bitrepair.Error{Code: bitrepair.IOError, Err: err, UserData: path}
	}
	return nil
}
