package xarray

import "strings"

// Engine names the backend able to open a data source
type Engine string

const (
	EngineNetCDF4 Engine = "netcdf4"
	EngineScipy   Engine = "scipy"
	EnginePydap   Engine = "pydap"
	EngineCfgrib  Engine = "cfgrib"
	EngineZarr    Engine = "zarr"
)

// GuessEngine picks a backend for path from its form alone. It never
// touches the file system or network
func GuessEngine(path string) Engine {
	switch {
	case IsRemoteURI(path):
		return EnginePydap
	case IsGribPath(path):
		return EngineCfgrib
	case strings.HasSuffix(strings.TrimRight(path, "/"), ".zarr"):
		return EngineZarr
	case fileExt(path) == ".gz":
		return EngineScipy
	}
	return EngineNetCDF4
}
