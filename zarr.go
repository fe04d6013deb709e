package xarray

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// ZarrFormat is the version of the zarr storage specification this package
// reads and writes
const ZarrFormat = 2

type PersistenceMode string

const (
	// ‘r’ means read only (must exist)
	ModeRead PersistenceMode = "r"
	// ‘r+’ means read/write (must exist)
	ModeReadWrite PersistenceMode = "r+"
	// ‘a’ means read/write (create if doesn’t exist)
	ModeReadWriteCreate PersistenceMode = "a"
	// ‘w’ means create (overwrite if exists)
	ModeWrite PersistenceMode = "w"
	// ‘w-’ means create (fail if exists)
	ModeWriteFail PersistenceMode = "w-"
)

// ChunkedArray is a lazily evaluated array stored as chunks in a Store.
// Opening an array reads only its metadata; chunk data is read by Compute
type ChunkedArray struct {
	path  Path
	store Store
	mode  PersistenceMode
	meta  *ArrayMeta
	attrs Attributes
}

// OpenArray opens the array at path, reading its ".zarray" metadata and
// optional ".zattrs" attributes
func OpenArray(store Store, path string, mode PersistenceMode) (*ChunkedArray, error) {
	switch mode {
	case ModeRead, ModeReadWrite, ModeReadWriteCreate:
	default:
		return nil, fmt.Errorf("%w: cannot open an existing array with mode %q, use CreateArray", ErrInvalidArgument, mode)
	}
	p, err := NewPath(path)
	if err != nil {
		return nil, err
	}

	a := &ChunkedArray{
		path:  p,
		store: store,
		mode:  mode,
		meta:  &ArrayMeta{},
		attrs: Attributes{},
	}
	if err := a.readJSON(string(MTArray), a.meta); err != nil {
		return nil, err
	}
	if err := a.meta.Validate(); err != nil {
		return nil, fmt.Errorf("array %q: %w", p, err)
	}
	if err := a.readJSON(string(MTAttributes), &a.attrs); err != nil && !errors.Is(err, ErrNotfound) {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"path":  p.String(),
		"store": store.Type(),
		"shape": a.meta.Shape,
	}).Debug("opened array")
	return a, nil
}

// CreateArray writes metadata and data for a new array at path. Chunks are
// stored uncompressed. ModeWrite overwrites an existing array, ModeWriteFail
// refuses to
func CreateArray(store Store, path string, mode PersistenceMode, meta ArrayMeta, data *NDArray) (*ChunkedArray, error) {
	p, err := NewPath(path)
	if err != nil {
		return nil, err
	}
	a := &ChunkedArray{path: p, store: store, mode: ModeReadWrite, meta: &meta, attrs: Attributes{}}

	switch mode {
	case ModeWrite:
	case ModeWriteFail:
		err := a.readJSON(string(MTArray), &ArrayMeta{})
		if err == nil {
			return nil, fmt.Errorf("%w: array already exists at %q", ErrInvalidArgument, p)
		}
		if !errors.Is(err, ErrNotfound) {
			return nil, fmt.Errorf("checking for an existing array at %q: %w", p, err)
		}
	default:
		return nil, fmt.Errorf("%w: cannot create an array with mode %q", ErrInvalidArgument, mode)
	}

	if meta.ZarrFormat == 0 {
		a.meta.ZarrFormat = ZarrFormat
	}
	if meta.Order == "" {
		a.meta.Order = "C"
	}
	if a.meta.Compressor != nil {
		return nil, fmt.Errorf("%w: writing compressed chunks", ErrUnsupported)
	}
	if err := a.meta.Validate(); err != nil {
		return nil, err
	}
	if !sameShape(a.meta.Shape, data.Shape) {
		return nil, fmt.Errorf("%w: data shape %v does not match array shape %v", ErrInvalidArgument, data.Shape, a.meta.Shape)
	}

	buf, err := json.Marshal(a.meta)
	if err != nil {
		return nil, err
	}
	if err := store.Put(a.key(string(MTArray)), bytes.NewReader(buf)); err != nil {
		return nil, err
	}

	var werr error
	forEachIndex(chunkGrid(a.meta.Shape, a.meta.Chunks), func(coords []int) {
		if werr == nil {
			werr = a.writeChunk(coords, data)
		}
	})
	if werr != nil {
		return nil, werr
	}
	return a, nil
}

func (a *ChunkedArray) key(name string) string {
	return a.path.Join(name).String()
}

func (a *ChunkedArray) readJSON(name string, v interface{}) error {
	f, err := a.store.Get(a.key(name))
	if err != nil {
		return err
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(v); err != nil {
		return fmt.Errorf("reading %s: %w", a.key(name), err)
	}
	return nil
}

func (a *ChunkedArray) Info() string {
	return fmt.Sprintf("<xarray.ChunkedArray %s shape=%v chunks=%v dtype=%s>", a.path, a.meta.Shape, a.meta.Chunks, a.meta.Dtype.Dtype)
}

func (a *ChunkedArray) Path() string { return a.path.String() }

func (a *ChunkedArray) Mode() PersistenceMode { return a.mode }

// Shape is read from metadata
func (a *ChunkedArray) Shape() []int { return append([]int(nil), a.meta.Shape...) }

// Ndim is read from metadata
func (a *ChunkedArray) Ndim() int { return len(a.meta.Shape) }

func (a *ChunkedArray) Dtype() Dtype { return a.meta.Dtype.Dtype }

// Attrs is a read-only view of the array's user attributes
func (a *ChunkedArray) Attrs() Frozen { return NewFrozen(a.attrs) }

// Compute reads every chunk and assembles the array in memory. Missing
// chunks hold the fill value
func (a *ChunkedArray) Compute() (*NDArray, error) {
	dt := a.meta.Dtype.Dtype
	fill, err := fillValue(a.meta.FillValue, dt)
	if err != nil {
		return nil, err
	}
	out := &NDArray{
		Dtype:  dt,
		Shape:  a.Shape(),
		Values: make([]interface{}, product(a.meta.Shape)),
	}
	for i := range out.Values {
		out.Values[i] = fill
	}

	var rerr error
	forEachIndex(chunkGrid(a.meta.Shape, a.meta.Chunks), func(coords []int) {
		if rerr != nil {
			return
		}
		proj := projectChunk(a.meta.Shape, a.meta.Chunks, coords)
		values, err := a.readChunk(proj.ChunkCoords)
		if errors.Is(err, ErrNotfound) {
			return
		}
		if err != nil {
			rerr = err
			return
		}
		for i, cs := range proj.ChunkSelection {
			out.Values[proj.OutSelection[i]] = values[cs]
		}
	})
	if rerr != nil {
		return nil, rerr
	}
	return out, nil
}

func (a *ChunkedArray) chunkKey(coords []int) string {
	parts := make([]string, len(coords))
	for i, c := range coords {
		parts[i] = strconv.Itoa(c)
	}
	name := strings.Join(parts, a.meta.separator())
	if len(coords) == 0 {
		name = "0"
	}
	return a.key(name)
}

func (a *ChunkedArray) readChunk(coords []int) ([]interface{}, error) {
	f, err := a.store.Get(a.chunkKey(coords))
	if err != nil {
		return nil, err
	}
	r, err := a.meta.Compressor.Decompressor(f)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	order, buf, err := newChunkBuffer(a.meta.Dtype.Dtype, product(a.meta.Chunks))
	if err != nil {
		return nil, err
	}
	if err := binary.Read(r, order, buf); err != nil {
		return nil, fmt.Errorf("reading chunk %s: %w", a.chunkKey(coords), err)
	}

	rv := reflect.ValueOf(buf)
	values := make([]interface{}, rv.Len())
	for i := range values {
		values[i] = rv.Index(i).Interface()
	}
	return values, nil
}

func (a *ChunkedArray) writeChunk(coords []int, data *NDArray) error {
	dt := a.meta.Dtype.Dtype
	order, buf, err := newChunkBuffer(dt, product(a.meta.Chunks))
	if err != nil {
		return err
	}
	fill, err := fillValue(a.meta.FillValue, dt)
	if err != nil {
		return err
	}

	rv := reflect.ValueOf(buf)
	for i := 0; i < rv.Len(); i++ {
		if err := setElem(rv.Index(i), fill); err != nil {
			return err
		}
	}
	proj := projectChunk(a.meta.Shape, a.meta.Chunks, coords)
	for i, cs := range proj.ChunkSelection {
		if err := setElem(rv.Index(cs), data.Values[proj.OutSelection[i]]); err != nil {
			return err
		}
	}

	w := &bytes.Buffer{}
	if err := binary.Write(w, order, buf); err != nil {
		return err
	}
	return a.store.Put(a.chunkKey(coords), w)
}

func setElem(el reflect.Value, v interface{}) error {
	if el.Kind() == reflect.Bool {
		f, ok := toFloat(v)
		if !ok {
			return fmt.Errorf("cannot store %T in a %s chunk", v, el.Type())
		}
		el.SetBool(f != 0)
		return nil
	}
	f, ok := toFloat(v)
	if !ok {
		return fmt.Errorf("cannot store %T in a %s chunk", v, el.Type())
	}
	el.Set(reflect.ValueOf(f).Convert(el.Type()))
	return nil
}

// newChunkBuffer allocates a typed slice that binary.Read can decode a chunk
// of dt into
func newChunkBuffer(dt Dtype, size int) (binary.ByteOrder, interface{}, error) {
	var order binary.ByteOrder = binary.LittleEndian
	if dt.ByteOrder == BOBigEndian {
		order = binary.BigEndian
	}

	unsupported := fmt.Errorf("%w: chunk dtype %s", ErrUnsupported, dt)
	switch dt.BasicType {
	case BTBoolean:
		return order, make([]bool, size), nil
	case BTInteger:
		switch dt.ByteSize {
		case 1:
			return order, make([]int8, size), nil
		case 2:
			return order, make([]int16, size), nil
		case 4:
			return order, make([]int32, size), nil
		case 8:
			return order, make([]int64, size), nil
		}
	case BTUnsigned:
		switch dt.ByteSize {
		case 1:
			return order, make([]uint8, size), nil
		case 2:
			return order, make([]uint16, size), nil
		case 4:
			return order, make([]uint32, size), nil
		case 8:
			return order, make([]uint64, size), nil
		}
	case BTFloatingPoint:
		switch dt.ByteSize {
		case 4:
			return order, make([]float32, size), nil
		case 8:
			return order, make([]float64, size), nil
		}
	}
	return nil, nil, unsupported
}

// fillValue converts a JSON fill_value into a value of the Go type backing
// dt. A null fill value is the zero value
func fillValue(v interface{}, dt Dtype) (interface{}, error) {
	switch v {
	case nil:
		v = 0.0
	case FillValueNaN:
		v = math.NaN()
	case FillValueInfinity:
		v = math.Inf(1)
	case FillValueNegativeInfinity:
		v = math.Inf(-1)
	}
	_, buf, err := newChunkBuffer(dt, 1)
	if err != nil {
		return nil, err
	}
	el := reflect.ValueOf(buf).Index(0)
	if err := setElem(el, v); err != nil {
		return nil, fmt.Errorf("fill value: %w", err)
	}
	return el.Interface(), nil
}

// Path is a normalized logical path of an array or group within a store
type Path []string

// NewPath normalizes a logical path: backslashes become forward slashes,
// leading and trailing slashes are stripped and runs of slashes collapse
// into one. "." and ".." segments are not allowed. The empty string is the
// root path
func NewPath(posix string) (Path, error) {
	posix = strings.ReplaceAll(posix, "\\", "/")
	var p Path
	for _, seg := range strings.Split(posix, "/") {
		switch seg {
		case "":
			continue
		case ".", "..":
			return nil, fmt.Errorf("%w: path %q contains a relative segment", ErrInvalidArgument, posix)
		}
		p = append(p, seg)
	}
	return p, nil
}

func (p Path) String() string {
	return strings.Join(p, "/")
}

func (p Path) Shift() (head string, ch Path) {
	switch len(p) {
	case 0:
		return "", nil
	case 1:
		return p[0], nil
	default:
		return p[0], p[1:]
	}
}

// Join returns a new path with elems appended. p is never modified
func (p Path) Join(elems ...string) Path {
	out := make(Path, 0, len(p)+len(elems))
	out = append(out, p...)
	return append(out, elems...)
}
