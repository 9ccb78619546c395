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

package vcf

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/varcomp/varcomp/utils"
)

func getLine(reader *bufio.Reader) (line string, err error) {
	line, err = reader.ReadString('\n')
	switch {
	case err == nil:
		line = strings.TrimSuffix(line[:len(line)-1], "\r")
	case err == io.EOF && line != "":
		err = nil
	}
	return
}

// ParseHeader parses a VCF header. Meta-information lines are kept
// verbatim.
func ParseHeader(reader *bufio.Reader) (hdr *Header, lines int, err error) {
	line, err := getLine(reader)
	if err != nil {
		return nil, 0, err
	}
	lines++
	if !strings.HasPrefix(line, fileFormatVersionLinePrefix) {
		return nil, 0, errors.New("invalid first line in a VCF file")
	}
	hdr = NewHeader()
	hdr.FileFormat = line
	hdr.Columns = nil
	for {
		data, e := reader.Peek(2)
		if e != nil || data[0] != '#' {
			return nil, 0, errors.New("unexpected end of VCF header")
		}
		line, err = getLine(reader)
		if err != nil {
			return nil, 0, err
		}
		lines++
		if data[1] == '#' {
			if strings.HasPrefix(line, fileFormatVersionLinePrefix) {
				return nil, 0, errors.New("multiple file format meta-information lines in a VCF file")
			}
			hdr.Meta = append(hdr.Meta, line)
			continue
		}
		var sc StringScanner
		sc.Reset(line[1:])
		for sc.Len() > 0 {
			column, _ := sc.readUntilByte('\t')
			hdr.Columns = append(hdr.Columns, column)
		}
		return hdr, lines, nil
	}
}

var (
	idSeparator     = []byte{';', '\t'}
	altSeparator    = []byte{',', '\t'}
	filterSeparator = []byte{';', '\t'}
	endOfInfoKey    = []byte{'=', ';', '\t'}
	endOfInfoEntry  = []byte{',', ';', '\t'}
	endOfDataEntry  = []byte{',', ':', '\t'}
	passList        = []utils.Symbol{PASS}
)

func (sc *StringScanner) missingEntry() bool {
	if (sc.err != nil) || (sc.index >= len(sc.data)) {
		return true
	}
	if sc.data[sc.index] == '.' {
		next := sc.index + 1
		if (next >= len(sc.data)) || (sc.data[next] == '\t') {
			sc.index = next + 1
			return true
		}
	}
	return false
}

func (sc *StringScanner) scanChar(ch byte) {
	if sc.err != nil {
		return
	}
	if (sc.index >= len(sc.data)) || (sc.data[sc.index] != ch) {
		sc.err = errors.New("missing tabulator in VCF data line")
	}
	sc.index++
}

func (sc *StringScanner) doString() string {
	if sc.missingEntry() {
		return "."
	}
	value, ok := sc.readUntilByte('\t')
	if !ok {
		if sc.err == nil {
			sc.err = errors.New("missing tabulator in VCF data line")
		}
		return ""
	}
	return value
}

func (sc *StringScanner) doInt32() int32 {
	if sc.missingEntry() {
		return -1
	}
	value, ok := sc.readUntilByte('\t')
	if !ok {
		if sc.err == nil {
			sc.err = errors.New("missing tabulator in VCF data line")
		}
		return -1
	}
	i, err := strconv.ParseInt(value, 10, 32)
	if (err != nil) && (sc.err == nil) {
		sc.err = err
	}
	return int32(i)
}

func (sc *StringScanner) doFloat() interface{} {
	if sc.missingEntry() {
		return nil
	}
	value, ok := sc.readUntilByte('\t')
	if !ok {
		if sc.err == nil {
			sc.err = errors.New("missing tabulator in VCF data line")
		}
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if (err != nil) && (sc.err == nil) {
		sc.err = err
	}
	return f
}

func (sc *StringScanner) doStringList(separator []byte) (result []string) {
	if sc.missingEntry() {
		return nil
	}
	for sc.err == nil {
		result = append(result, sc.readUntilBytes(separator))
		if (sc.index >= len(sc.data)) || (sc.data[sc.index] != separator[0]) {
			break
		}
		sc.index++
	}
	sc.scanChar('\t')
	return result
}

func (sc *StringScanner) doFilter() []utils.Symbol {
	if sc.missingEntry() {
		return nil
	}
	str := sc.readUntilBytes(filterSeparator)
	if str == "PASS" {
		sc.scanChar('\t')
		return passList
	}
	result := []utils.Symbol{utils.Intern(str)}
	for (sc.err == nil) && (sc.index < len(sc.data)) && (sc.data[sc.index] == ';') {
		sc.index++
		result = append(result, utils.Intern(sc.readUntilBytes(filterSeparator)))
	}
	sc.scanChar('\t')
	return result
}

// parseDatum parses a single INFO or FORMAT value generically:
// integers and floats become numbers, "." becomes nil, everything
// else stays a string (categorical attribute).
func parseDatum(s string) interface{} {
	if s == "." {
		return nil
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return int(i)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

func (sc *StringScanner) doValue(separator []byte) interface{} {
	first := parseDatum(sc.readUntilBytes(separator))
	if (sc.index >= len(sc.data)) || (sc.data[sc.index] != ',') {
		return first
	}
	result := []interface{}{first}
	for (sc.err == nil) && (sc.index < len(sc.data)) && (sc.data[sc.index] == ',') {
		sc.index++
		result = append(result, parseDatum(sc.readUntilBytes(separator)))
	}
	return result
}

func (sc *StringScanner) doInfo() (result utils.SmallMap) {
	if sc.missingEntry() {
		return nil
	}
	for sc.err == nil {
		key := utils.Intern(sc.readUntilBytes(endOfInfoKey))
		if (sc.index < len(sc.data)) && (sc.data[sc.index] == '=') {
			sc.index++
			result = append(result, utils.SmallMapEntry{Key: key, Value: sc.doValue(endOfInfoEntry)})
		} else {
			result = append(result, utils.SmallMapEntry{Key: key, Value: true})
		}
		if (sc.index >= len(sc.data)) || (sc.data[sc.index] != ';') {
			break
		}
		sc.index++
	}
	if sc.index < len(sc.data) {
		sc.scanChar('\t')
	}
	return result
}

func (sc *StringScanner) doSymbolList() (result []utils.Symbol) {
	for sc.err == nil {
		result = append(result, utils.Intern(sc.readUntilBytes(endOfDataEntry)))
		if (sc.index >= len(sc.data)) || (sc.data[sc.index] != ':') {
			return result
		}
		sc.index++
	}
	return nil
}

func parseGT(s string) (gt []int32, phased bool) {
	phased = strings.ContainsRune(s, '|')
	for _, allele := range strings.FieldsFunc(s, func(r rune) bool { return r == '/' || r == '|' }) {
		if allele == "." {
			gt = append(gt, -1)
			continue
		}
		i, err := strconv.ParseInt(allele, 10, 32)
		if err != nil {
			gt = append(gt, -1)
			continue
		}
		gt = append(gt, int32(i))
	}
	return gt, phased
}

func (sc *StringScanner) doGenotype(format []utils.Symbol) Genotype {
	var genotype Genotype
	for j := 0; j < len(format); j++ {
		if format[j] == GT {
			raw := sc.readUntilBytes(endOfDataEntry)
			genotype.GT, genotype.Phased = parseGT(raw)
		} else {
			genotype.Data = append(genotype.Data, utils.SmallMapEntry{Key: format[j], Value: sc.doValue(endOfDataEntry)})
		}
		if (sc.index >= len(sc.data)) || (sc.data[sc.index] != ':') {
			break
		}
		sc.index++
	}
	return genotype
}

// ParseVariant parses a VCF variant line with up to nSamples sample
// columns.
func (sc *StringScanner) ParseVariant(nSamples int) *Variant {
	var variant Variant
	variant.Chrom = sc.doString()
	variant.Pos = sc.doInt32()
	variant.ID = sc.doStringList(idSeparator)
	variant.Ref = sc.doString()
	variant.Alt = sc.doStringList(altSeparator)
	variant.Qual = sc.doFloat()
	variant.Filter = sc.doFilter()
	variant.Info = sc.doInfo()
	if nSamples > 0 && sc.index < len(sc.data) {
		variant.GenotypeFormat = sc.doSymbolList()
		for i := 0; i < nSamples && sc.index < len(sc.data); i++ {
			sc.scanChar('\t')
			variant.GenotypeData = append(variant.GenotypeData, sc.doGenotype(variant.GenotypeFormat))
		}
	}
	if sc.err != nil {
		return nil
	}
	return &variant
}

func formatStringList(out []byte, list []string, separator byte) []byte {
	if len(list) == 0 {
		return append(out, '.')
	}
	out = append(out, list[0]...)
	for _, entry := range list[1:] {
		out = append(out, separator)
		out = append(out, entry...)
	}
	return out
}

func formatSymbolList(out []byte, list []utils.Symbol, separator byte) []byte {
	if len(list) == 0 {
		return append(out, '.')
	}
	out = append(out, (*list[0])...)
	for _, sym := range list[1:] {
		out = append(out, separator)
		out = append(out, (*sym)...)
	}
	return out
}

func formatValue(out []byte, value interface{}) []byte {
	switch v := value.(type) {
	case nil:
		return append(out, '.')
	case int:
		return strconv.AppendInt(out, int64(v), 10)
	case float64:
		return strconv.AppendFloat(out, v, 'f', -1, 64)
	case string:
		return append(out, v...)
	case []interface{}:
		if len(v) == 0 {
			return append(out, '.')
		}
		out = formatValue(out, v[0])
		for _, entry := range v[1:] {
			out = append(out, ',')
			out = formatValue(out, entry)
		}
		return out
	default:
		return append(out, fmt.Sprint(v)...)
	}
}

func formatInfo(out []byte, info utils.SmallMap) []byte {
	if len(info) == 0 {
		return append(out, '.')
	}
	for i, entry := range info {
		if i > 0 {
			out = append(out, ';')
		}
		out = append(out, (*entry.Key)...)
		if flag, ok := entry.Value.(bool); ok && flag {
			continue
		}
		out = append(out, '=')
		out = formatValue(out, entry.Value)
	}
	return out
}

func formatGT(out []byte, genotype Genotype) []byte {
	if len(genotype.GT) == 0 {
		return append(out, '.')
	}
	separator := byte('/')
	if genotype.Phased {
		separator = '|'
	}
	for i, allele := range genotype.GT {
		if i > 0 {
			out = append(out, separator)
		}
		if allele < 0 {
			out = append(out, '.')
		} else {
			out = strconv.AppendInt(out, int64(allele), 10)
		}
	}
	return out
}

func formatGenotype(out []byte, format []utils.Symbol, genotype Genotype) []byte {
	for i, f := range format {
		if i > 0 {
			out = append(out, ':')
		}
		if f == GT {
			out = formatGT(out, genotype)
			continue
		}
		value, _ := genotype.Data.Get(f)
		out = formatValue(out, value)
	}
	return out
}

// Format outputs a VCF variant line.
func (v *Variant) Format(out []byte) []byte {
	out = append(append(out, v.Chrom...), '\t')
	if v.Pos < 0 {
		out = append(out, '.', '\t')
	} else {
		out = append(strconv.AppendInt(out, int64(v.Pos), 10), '\t')
	}
	out = append(formatStringList(out, v.ID, ';'), '\t')
	out = append(append(out, v.Ref...), '\t')
	out = append(formatStringList(out, v.Alt, ','), '\t')
	if value, ok := v.Qual.(float64); ok {
		out = append(strconv.AppendFloat(out, value, 'f', -1, 64), '\t')
	} else {
		out = append(out, '.', '\t')
	}
	out = append(formatSymbolList(out, v.Filter, ';'), '\t')
	out = formatInfo(out, v.Info)
	if len(v.GenotypeFormat) > 0 {
		out = append(out, '\t')
		out = formatSymbolList(out, v.GenotypeFormat, ':')
		for _, genotype := range v.GenotypeData {
			out = append(out, '\t')
			out = formatGenotype(out, v.GenotypeFormat, genotype)
		}
	}
	return append(out, '\n')
}

// Format outputs a VCF header.
func (header *Header) Format(out *bufio.Writer) error {
	_, _ = out.WriteString(header.FileFormat)
	_ = out.WriteByte('\n')
	for _, meta := range header.Meta {
		_, _ = out.WriteString(meta)
		_ = out.WriteByte('\n')
	}
	_ = out.WriteByte('#')
	if len(header.Columns) > 0 {
		_, _ = out.WriteString(header.Columns[0])
		for _, col := range header.Columns[1:] {
			_ = out.WriteByte('\t')
			_, _ = out.WriteString(col)
		}
	}
	return out.WriteByte('\n')
}

// The possible file extensions for VCF or BCF files, or gz-compressed
// VCF files.
const (
	VcfExt = ".vcf"
	BcfExt = ".bcf"
	GzExt  = ".gz"
)

// InputFile represents a VCF or BCF file for input.
type InputFile struct {
	rc io.ReadCloser
	*bufio.Reader
	*exec.Cmd
}

// OutputFile represents a VCF or BCF file for output.
type OutputFile struct {
	wc io.WriteCloser
	*bufio.Writer
	*exec.Cmd
}

// Open a VCF file for input.
//
// If the filename extension is .bcf or .gz, use bcftools view for
// input. bcftools must be visible in the directories named by the
// PATH environment variable in that case. If the filename extension
// is not .bcf or .gz, then .vcf is always assumed.
func Open(name string) (*InputFile, error) {
	switch filepath.Ext(name) {
	case BcfExt, GzExt:
		if _, err := os.Stat(name); err != nil {
			return nil, err
		}
		args := []string{"view", "--threads", strconv.FormatInt(int64(runtime.GOMAXPROCS(0)), 10), name}
		cmd := exec.Command("bcftools", args...)
		outPipe, err := cmd.StdoutPipe()
		if err != nil {
			return nil, err
		}
		if err = cmd.Start(); err != nil {
			return nil, err
		}
		return &InputFile{outPipe, bufio.NewReader(outPipe), cmd}, nil
	default:
		if name == "/dev/stdin" {
			return &InputFile{os.Stdin, bufio.NewReader(os.Stdin), nil}, nil
		}
		file, err := os.Open(name)
		if err != nil {
			return nil, err
		}
		return &InputFile{file, bufio.NewReader(file), nil}, nil
	}
}

// Create a VCF file for output.
//
// If the filename extension is .bcf or .gz, use bcftools view for
// output. bcftools must be visible in the directories named by the
// PATH environment variable in that case.
func Create(name string) (*OutputFile, error) {
	switch ext := filepath.Ext(name); ext {
	case BcfExt, GzExt:
		args := []string{"view"}
		if ext == BcfExt {
			args = append(args, "-Ob")
		} else {
			args = append(args, "-Oz")
		}
		args = append(args, "--threads", strconv.FormatInt(int64(runtime.GOMAXPROCS(0)), 10), "-o", name, "-")
		cmd := exec.Command("bcftools", args...)
		inPipe, err := cmd.StdinPipe()
		if err != nil {
			return nil, err
		}
		if err = cmd.Start(); err != nil {
			return nil, err
		}
		return &OutputFile{inPipe, bufio.NewWriter(inPipe), cmd}, nil
	default:
		if name == "/dev/stdout" {
			return &OutputFile{os.Stdout, bufio.NewWriter(os.Stdout), nil}, nil
		}
		file, err := os.Create(name)
		if err != nil {
			return nil, err
		}
		return &OutputFile{file, bufio.NewWriter(file), nil}, nil
	}
}

// Close the VCF input file. If bcftools view is used for input, wait
// for its process to finish.
func (input *InputFile) Close() error {
	if input.rc != os.Stdin {
		if err := input.rc.Close(); err != nil {
			return err
		}
	}
	if input.Cmd != nil {
		return input.Wait()
	}
	return nil
}

// Close the VCF output file. If bcftools view is used for output,
// wait for its process to finish.
func (output *OutputFile) Close() error {
	if err := output.Flush(); err != nil {
		return err
	}
	if output.wc != os.Stdout {
		if err := output.wc.Close(); err != nil {
			return err
		}
	}
	if output.Cmd != nil {
		return output.Wait()
	}
	return nil
}

// A VariantReader streams the variant lines of a VCF file one at a
// time, front to back. It also implements the pargo pipeline.Source
// interface for parallel batch processing of the same stream.
type VariantReader struct {
	input    *InputFile
	Filename string
	Header   *Header
	NSamples int
	err      error
	data     []string
	lines    int
}

// OpenVariantReader opens a VCF file and parses its header.
func OpenVariantReader(name string) (*VariantReader, error) {
	input, err := Open(name)
	if err != nil {
		return nil, err
	}
	header, lines, err := ParseHeader(input.Reader)
	if err != nil {
		_ = input.Close()
		return nil, fmt.Errorf("%v, while parsing the header of %v", err, name)
	}
	return &VariantReader{
		input:    input,
		Filename: name,
		Header:   header,
		NSamples: header.NSamples(),
		lines:    lines,
	}, nil
}

// Read parses and returns the next variant record, or io.EOF when the
// stream is exhausted.
func (r *VariantReader) Read() (*Variant, error) {
	line, err := getLine(r.input.Reader)
	if err != nil {
		return nil, err
	}
	r.lines++
	var sc StringScanner
	sc.Reset(line)
	variant := sc.ParseVariant(r.NSamples)
	if variant == nil {
		return nil, fmt.Errorf("%v, while parsing line %v of %v", sc.Err(), r.lines, r.Filename)
	}
	return variant, nil
}

// Close closes the underlying input file.
func (r *VariantReader) Close() error {
	return r.input.Close()
}

// Err implements the method of the pipeline.Source interface.
func (r *VariantReader) Err() error {
	if r.err == io.EOF {
		return nil
	}
	return r.err
}

// Prepare implements the method of the pipeline.Source interface.
func (r *VariantReader) Prepare(_ context.Context) int {
	return -1
}

// Fetch implements the method of the pipeline.Source interface.
func (r *VariantReader) Fetch(size int) int {
	batch := make([]string, 0, size)
	for len(batch) < size {
		line, err := getLine(r.input.Reader)
		if err != nil {
			r.err = err
			break
		}
		r.lines++
		batch = append(batch, line)
	}
	r.data = batch
	return len(batch)
}

// Data implements the method of the pipeline.Source interface.
func (r *VariantReader) Data() interface{} {
	return r.data
}

// A VariantWriter writes variant records to a VCF file.
type VariantWriter struct {
	output   *OutputFile
	Filename string
	buf      []byte
}

// NewVariantWriter creates a VCF file without writing a header yet.
// It is used as a pipeline output, where the header is written by
// AddNodes after all filters had a chance to modify it.
func NewVariantWriter(name string) (*VariantWriter, error) {
	output, err := Create(name)
	if err != nil {
		return nil, err
	}
	return &VariantWriter{output: output, Filename: name}, nil
}

// CreateVariantWriter creates a VCF file and writes the given header
// to it.
func CreateVariantWriter(name string, header *Header) (*VariantWriter, error) {
	w, err := NewVariantWriter(name)
	if err != nil {
		return nil, err
	}
	if err := header.Format(w.output.Writer); err != nil {
		_ = w.output.Close()
		return nil, err
	}
	return w, nil
}

// Write formats and writes one variant record.
func (w *VariantWriter) Write(v *Variant) error {
	w.buf = v.Format(w.buf[:0])
	_, err := w.output.Write(w.buf)
	return err
}

// Close flushes and closes the underlying output file.
func (w *VariantWriter) Close() error {
	return w.output.Close()
}
