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
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
)

func TestNeedsRun(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "missing.vcf")
	if !NeedsRun(missing) {
		t.Error("NeedsRun for a missing file failed")
	}
	empty := filepath.Join(dir, "empty.vcf")
	if err := os.WriteFile(empty, nil, 0600); err != nil {
		t.Fatal(err)
	}
	if !NeedsRun(empty) {
		t.Error("NeedsRun for an empty file failed")
	}
	full := filepath.Join(dir, "full.vcf")
	if err := os.WriteFile(full, []byte("##fileformat=VCFv4.3\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if NeedsRun(full) {
		t.Error("NeedsRun for an existing file failed")
	}
	if !NeedsRun(full, missing) {
		t.Error("NeedsRun for a partial output set failed")
	}
}

func TestSafeWrite(t *testing.T) {
	dir := t.TempDir()
	final := filepath.Join(dir, "out.txt")
	err := SafeWrite(final, func(staging string) error {
		if staging == final {
			t.Error("staging name separation failed")
		}
		return os.WriteFile(staging, []byte("done"), 0600)
	})
	if err != nil {
		t.Fatal("SafeWrite failed: ", err)
	}
	contents, err := ioutil.ReadFile(final)
	if err != nil || string(contents) != "done" {
		t.Error("SafeWrite contents failed")
	}
}

func TestSafeWriteFailure(t *testing.T) {
	dir := t.TempDir()
	final := filepath.Join(dir, "out.txt")
	werr := errors.New("write failed")
	if err := SafeWrite(final, func(staging string) error {
		if err := os.WriteFile(staging, []byte("partial"), 0600); err != nil {
			t.Fatal(err)
		}
		return werr
	}); err != werr {
		t.Fatal("SafeWrite error propagation failed: ", err)
	}
	if _, err := os.Stat(final); !os.IsNotExist(err) {
		t.Error("SafeWrite exposed a partial output")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Error("SafeWrite staging cleanup failed")
	}
}

func TestRandDeterminism(t *testing.T) {
	first := NewRand(42)
	second := NewRand(42)
	for i := 0; i < 100; i++ {
		if first.Int31n(1000) != second.Int31n(1000) {
			t.Fatal("seeded random determinism failed")
		}
	}
	for i := 0; i < 100; i++ {
		if v := first.Int31n(8); v < 0 || v >= 8 {
			t.Error("power-of-two bound failed: ", v)
		}
		if v := first.Int31n(7); v < 0 || v >= 7 {
			t.Error("general bound failed: ", v)
		}
	}
}
