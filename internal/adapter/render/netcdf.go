// Package render writes finished rasters as NetCDF files for plotting tools.
package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fhs/go-netcdf/netcdf"

	"go.ngs.io/seaice-api/internal/domain"
)

const (
	valueVarName = "value"
	stateVarName = "state"

	// FillValue marks cells without a value in the value variable.
	FillValue = -999.0
)

// NetCDFRenderer writes <outputDir>/<id>.nc with the raster values, the cell
// states and the title as a global attribute.
type NetCDFRenderer struct {
	outputDir string
	units     string
}

// NewNetCDFRenderer creates a renderer writing below outputDir.
func NewNetCDFRenderer(outputDir string) *NetCDFRenderer {
	return &NetCDFRenderer{outputDir: outputDir, units: "m"}
}

// Path returns the file an id is rendered to.
func (r *NetCDFRenderer) Path(id string) string {
	return filepath.Join(r.outputDir, id+".nc")
}

// Exists reports whether id has been rendered before.
func (r *NetCDFRenderer) Exists(id string) bool {
	_, err := os.Stat(r.Path(id))
	return err == nil
}

// Render writes the raster. Land keeps its value, no-data and pending cells
// are written as FillValue.
func (r *NetCDFRenderer) Render(ctx context.Context, raster *domain.Raster, title, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(r.outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	path := r.Path(id)
	ds, err := netcdf.CreateFile(path, netcdf.CLOBBER)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := writeRaster(ds, raster, title, id, r.units); err != nil {
		_ = ds.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := ds.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}

func writeRaster(ds netcdf.Dataset, raster *domain.Raster, title, id, units string) error {
	yDim, err := ds.AddDim("y", uint64(raster.Size))
	if err != nil {
		return err
	}
	xDim, err := ds.AddDim("x", uint64(raster.Size))
	if err != nil {
		return err
	}
	dims := []netcdf.Dim{yDim, xDim}

	valueVar, err := ds.AddVar(valueVarName, netcdf.DOUBLE, dims)
	if err != nil {
		return err
	}
	if err := valueVar.Attr("_FillValue").WriteFloat64s([]float64{FillValue}); err != nil {
		return err
	}
	if err := valueVar.Attr("units").WriteBytes([]byte(units)); err != nil {
		return err
	}

	stateVar, err := ds.AddVar(stateVarName, netcdf.BYTE, dims)
	if err != nil {
		return err
	}
	if err := stateVar.Attr("flag_meanings").WriteBytes([]byte("land pending valid no_data")); err != nil {
		return err
	}

	if err := ds.Attr("title").WriteBytes([]byte(title)); err != nil {
		return err
	}
	if err := ds.Attr("id").WriteBytes([]byte(id)); err != nil {
		return err
	}

	if err := ds.EndDef(); err != nil {
		return err
	}

	values := make([]float64, len(raster.Values))
	states := make([]int8, len(raster.States))
	for i, s := range raster.States {
		states[i] = int8(s)
		switch s {
		case domain.CellValid, domain.CellLand:
			values[i] = raster.Values[i]
		default:
			values[i] = FillValue
		}
	}
	if err := valueVar.WriteFloat64s(values); err != nil {
		return err
	}
	return stateVar.WriteInt8s(states)
}
