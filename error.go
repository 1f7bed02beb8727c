package shorelib

import "errors"

var (
	ErrGdalDriverOpen     = errors.New("gdal driver open err")
	ErrGdalWrongGeoType   = errors.New("gdal wrong geo type")
	ErrGdalWrongGeoJSON   = errors.New("gdal wrong GeoJSON")
	ErrInvalidWKT         = errors.New("invalid WKT")
	ErrVoidSrid           = errors.New("void srid")
	ErrInvalidTif         = errors.New("invalid tif")
	ErrWrongTif           = errors.New("wrong tif")
	ErrTifReadFailed      = errors.New("tif read failed")
	ErrEmptyTif           = errors.New("empty tif")
	ErrEmptyAoi           = errors.New("aoi is empty")
	ErrCrsUndetermined    = errors.New("scene crs undetermined")
	ErrInvalidAoiGeometry = errors.New("invalid aoi geometry")
	ErrThresholdFailure   = errors.New("water threshold failure")
	ErrNoShoreline        = errors.New("no shoreline found")
	ErrNoContourMatch     = errors.New("no contour match")
	ErrNoCandidates       = errors.New("no coverage candidates")
	ErrNoSamplePoints     = errors.New("no sample points in aoi")
	ErrBadCostWeights     = errors.New("cost weights must sum to 1")
	ErrSolverTimeout      = errors.New("solver timeout")
	ErrSolverInfeasible   = errors.New("solver infeasible")
)
