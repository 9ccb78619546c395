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

package utils

// SmallMapEntry is an entry in a SmallMap.
type SmallMapEntry struct {
	Key   Symbol
	Value interface{}
}

// A SmallMap maps keys to values, similar to Go's built-in maps. A
// SmallMap can be more efficient in terms of memory and runtime
// performance than a native map if it has only few entries. SmallMap
// keys are always symbols.
//
// SmallMap is the representation of INFO and per-sample FORMAT
// attribute maps on variant records.
type SmallMap []SmallMapEntry

// Get returns the first entry in the SmallMap that has the same key
// as the given key.
//
// It returns the found value and true if the key was found, otherwise
// nil and false.
func (m SmallMap) Get(key Symbol) (interface{}, bool) {
	for _, entry := range m {
		if entry.Key == key {
			return entry.Value, true
		}
	}
	return nil, false
}

// GetFloat returns the entry for the given key coerced to a float64.
//
// Integer values are widened. It returns 0 and false if the key is
// absent, the stored value is nil, or the value is not numeric.
func (m SmallMap) GetFloat(key Symbol) (float64, bool) {
	value, found := m.Get(key)
	if !found {
		return 0, false
	}
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

// GetInt returns the entry for the given key as an int. It returns 0
// and false if the key is absent or the value is not an int.
func (m SmallMap) GetInt(key Symbol) (int, bool) {
	value, found := m.Get(key)
	if !found {
		return 0, false
	}
	v, ok := value.(int)
	return v, ok
}

// GetString returns the entry for the given key as a string. It
// returns "" and false if the key is absent or the value is not a
// string.
func (m SmallMap) GetString(key Symbol) (string, bool) {
	value, found := m.Get(key)
	if !found {
		return "", false
	}
	v, ok := value.(string)
	return v, ok
}

// Set associates the given value with the given key.
//
// It does so by either setting the value of the first entry that has
// the same key as the given key, or else by appending a new key/value
// pair to the end of the SmallMap if no entry already has that key.
func (m *SmallMap) Set(key Symbol, value interface{}) {
	for index := range *m {
		if (*m)[index].Key == key {
			(*m)[index].Value = value
			return
		}
	}
	*m = append(*m, SmallMapEntry{key, value})
}

// Delete returns a SmallMap from which the first entry has been
// removed that has the same key as the given key.
//
// It also returns true if an entry was removed, and false if no entry
// was removed because there was no entry for the given key.
func (m SmallMap) Delete(key Symbol) (SmallMap, bool) {
	for index, entry := range m {
		if entry.Key == key {
			return append(m[:index], m[index+1:]...), true
		}
	}
	return m, false
}

// Dup returns a copy of the SmallMap that shares no entry storage
// with the original, so that rebuilt variant records never mutate
// attribute maps shared with other consumers.
func (m SmallMap) Dup() SmallMap {
	return append(SmallMap(nil), m...)
}
