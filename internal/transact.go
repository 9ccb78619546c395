// varcomp: a tool for comparing, reconciling, and filtering variant call
// sets produced by multiple callers, technologies, or pipeline runs.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License along with this program. If not, see
// <https://github.com/varcomp/varcomp/blob/master/LICENSE.txt>.

package internal

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// NeedsRun returns true if any of the given output files is missing
// or empty. Callers use it to skip work whose outputs are already in
// place from an earlier run.
func NeedsRun(paths ...string) bool {
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil || info.Size() == 0 {
			return true
		}
	}
	return false
}

// SafeWrite runs write against a staging file in the same directory
// as the final name, and atomically renames the staging file to the
// final name when write succeeds. A partially written output is never
// visible under its final name; on failure the staging file is
// removed on a best-effort basis.
//
// The staging file lives in the target directory so that the rename
// never crosses a filesystem boundary.
func SafeWrite(final string, write func(staging string) error) (err error) {
	dir := filepath.Dir(final)
	MkdirAll(dir, 0700)
	staging := filepath.Join(dir, "tx-"+uuid.New().String()+"-"+filepath.Base(final))
	defer func() {
		if err != nil {
			_ = os.Remove(staging)
		}
	}()
	if err = write(staging); err != nil {
		return err
	}
	return os.Rename(staging, final)
}
