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

// Package sites implements an index of annotated genomic intervals,
// for attaching positional annotations such as mappability scores to
// variant records by position lookup.
package sites

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/exascience/pargo/pipeline"
	psort "github.com/exascience/pargo/sort"
)

// Site is a genomic interval carrying an annotation value. Values are
// int, float64, or string.
type Site struct {
	Start, End int32
	Value      interface{}
}

// Index maps annotation names to per-chromosome slices of annotated
// sites. An Index must be Built before Lookup can be used.
type Index struct {
	sites    map[string]map[string][]Site
	defaults map[string]interface{}
	built    bool
}

// NewIndex creates an empty instance.
func NewIndex() *Index {
	return &Index{
		sites:    make(map[string]map[string][]Site),
		defaults: make(map[string]interface{}),
	}
}

// Has reports whether the index carries any sites or a default value
// for the given annotation name.
func (index *Index) Has(attr string) bool {
	if index == nil {
		return false
	}
	if _, ok := index.sites[attr]; ok {
		return true
	}
	_, ok := index.defaults[attr]
	return ok
}

// SetDefault registers the value that Lookup returns for positions
// not covered by any site of the given annotation.
func (index *Index) SetDefault(attr string, value interface{}) {
	index.defaults[attr] = value
}

// Add records an annotated site. Add invalidates a previous Build.
func (index *Index) Add(attr, chrom string, start, end int32, value interface{}) {
	chroms := index.sites[attr]
	if chroms == nil {
		chroms = make(map[string][]Site)
		index.sites[attr] = chroms
	}
	chroms[chrom] = append(chroms[chrom], Site{Start: start, End: end, Value: value})
	index.built = false
}

type stableSiteSorter []Site

func (s stableSiteSorter) SequentialSort(i, j int) {
	sites := s[i:j]
	sort.SliceStable(sites, func(i, j int) bool {
		return sites[i].Start < sites[j].Start
	})
}

func (s stableSiteSorter) NewTemp() psort.StableSorter {
	return stableSiteSorter(make([]Site, len(s)))
}

func (s stableSiteSorter) Len() int {
	return len(s)
}

func (s stableSiteSorter) Less(i, j int) bool {
	return s[i].Start < s[j].Start
}

func (s stableSiteSorter) Assign(source psort.StableSorter) func(i, j, len int) {
	dst, src := s, source.(stableSiteSorter)
	return func(i, j, len int) {
		copy(dst[i:i+len], src[j:j+len])
	}
}

// Build sorts all site slices by start position using a parallel
// stable sort, so that Lookup can use binary search.
func (index *Index) Build() {
	for _, chroms := range index.sites {
		for _, sites := range chroms {
			psort.StableSort(stableSiteSorter(sites))
		}
	}
	index.built = true
}

// Lookup returns the annotation value of the first site of the given
// annotation that contains the position, or the registered default
// value if no site contains it. The second return value is false if
// neither applies. Build must have been called after the last Add.
func (index *Index) Lookup(attr, chrom string, pos int32) (interface{}, bool) {
	if index == nil {
		return nil, false
	}
	if !index.built {
		panic(fmt.Sprintf("lookup of %v in an unbuilt site index", attr))
	}
	if sites := index.sites[attr][chrom]; len(sites) > 0 {
		n := sort.Search(len(sites), func(i int) bool {
			return sites[i].Start > pos
		})
		for i := n - 1; i >= 0; i-- {
			if sites[i].End >= pos {
				return sites[i].Value, true
			}
		}
	}
	value, ok := index.defaults[attr]
	return value, ok
}

// FileHeader is the header line that every sites file starts with.
const FileHeader = "# varcomp sites format version 1.0\n"

func formatSiteValue(buf []byte, value interface{}) []byte {
	switch v := value.(type) {
	case int:
		return strconv.AppendInt(buf, int64(v), 10)
	case float64:
		return strconv.AppendFloat(buf, v, 'f', -1, 64)
	default:
		return append(buf, fmt.Sprint(v)...)
	}
}

func parseSiteValue(s string) interface{} {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return int(i)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

// ToFile stores the index in a tab-separated sites file. Default
// values are stored as lines with an empty chromosome column.
func (index *Index) ToFile(filename string) (err error) {
	pathname, err := filepath.Abs(filename)
	if err != nil {
		return err
	}
	output, err := os.Create(pathname)
	if err != nil {
		return err
	}
	defer func() {
		if nerr := output.Close(); nerr != nil {
			if err == nil {
				err = nerr
			}
		}
	}()
	if _, err = output.WriteString(FileHeader); err != nil {
		return err
	}
	var buf []byte
	for attr, value := range index.defaults {
		buf = append(buf[:0], attr...)
		buf = append(buf, "\t\t0\t0\t"...)
		buf = formatSiteValue(buf, value)
		buf = append(buf, '\n')
		if _, err = output.Write(buf); err != nil {
			return err
		}
	}
	for attr, chroms := range index.sites {
		for chrom, sites := range chroms {
			buf = buf[:0]
			for _, site := range sites {
				buf = append(buf, attr...)
				buf = append(buf, '\t')
				buf = append(buf, chrom...)
				buf = append(buf, '\t')
				buf = strconv.AppendInt(buf, int64(site.Start), 10)
				buf = append(buf, '\t')
				buf = strconv.AppendInt(buf, int64(site.End), 10)
				buf = append(buf, '\t')
				buf = formatSiteValue(buf, site.Value)
				buf = append(buf, '\n')
			}
			if _, err = output.Write(buf); err != nil {
				return err
			}
		}
	}
	return nil
}

func splitSiteLine(str string) (fields [5]string, ok bool) {
	field, start := 0, 0
	for i := 0; i < len(str); i++ {
		if str[i] == '\t' {
			if field == 4 {
				return fields, false
			}
			fields[field] = str[start:i]
			field++
			start = i + 1
		}
	}
	if field != 4 {
		return fields, false
	}
	fields[4] = str[start:]
	return fields, true
}

// FromFile loads an index from a tab-separated sites file and builds
// it.
func FromFile(filename string) (index *Index, err error) {
	pathname, err := filepath.Abs(filename)
	if err != nil {
		return nil, err
	}
	in, err := os.Open(pathname)
	if err != nil {
		return nil, err
	}
	defer func() {
		if nerr := in.Close(); nerr != nil {
			if err == nil {
				index = nil
				err = nerr
			}
		}
	}()
	input := bufio.NewReader(in)
	header, err := input.ReadString('\n')
	if err != nil {
		return nil, err
	}
	if header != FileHeader {
		return nil, fmt.Errorf("%v is not a varcomp sites file - invalid header", filename)
	}
	index = NewIndex()
	var p pipeline.Pipeline
	p.Source(pipeline.NewScanner(input))
	p.Add(pipeline.LimitedPar(0, pipeline.Receive(func(_ int, data interface{}) interface{} {
		strs := data.([]string)
		partial := NewIndex()
		for _, str := range strs {
			fields, ok := splitSiteLine(str)
			if !ok {
				p.SetErr(fmt.Errorf("invalid sites line %v in %v", str, filename))
				return partial
			}
			if fields[1] == "" {
				partial.SetDefault(fields[0], parseSiteValue(fields[4]))
				continue
			}
			start, err := strconv.ParseInt(fields[2], 10, 32)
			if err != nil {
				p.SetErr(err)
				return partial
			}
			end, err := strconv.ParseInt(fields[3], 10, 32)
			if err != nil {
				p.SetErr(err)
				return partial
			}
			partial.Add(fields[0], fields[1], int32(start), int32(end), parseSiteValue(fields[4]))
		}
		return partial
	})))
	p.Add(pipeline.Ord(pipeline.Receive(func(_ int, data interface{}) interface{} {
		partial := data.(*Index)
		for attr, value := range partial.defaults {
			index.SetDefault(attr, value)
		}
		for attr, chroms := range partial.sites {
			for chrom, sites := range chroms {
				target := index.sites[attr]
				if target == nil {
					target = make(map[string][]Site)
					index.sites[attr] = target
				}
				target[chrom] = append(target[chrom], sites...)
			}
		}
		return data
	})))
	p.Run()
	if err = p.Err(); err != nil {
		return nil, err
	}
	index.Build()
	return index, nil
}
