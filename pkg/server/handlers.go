package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/xrdlab/sputtercal/pkg/calibration"
	"github.com/xrdlab/sputtercal/pkg/library"
	"github.com/xrdlab/sputtercal/pkg/powerselect"
	"github.com/xrdlab/sputtercal/pkg/version"
)

type targetSummary struct {
	Name        string `json:"name"`
	Element     string `json:"element"`
	Date        string `json:"date,omitempty"`
	TableMotion string `json:"tableMotion,omitempty"`
	Rows        int    `json:"rows"`
}

type targetDetail struct {
	targetSummary
	Header  calibration.Header                `json:"header"`
	Sources map[string]calibration.Resolution `json:"sources"`
	Data    []calibration.Row                 `json:"data"`
}

type rotatingResponse struct {
	Name string `json:"name"`
	*calibration.RotatingEstimate
}

type fitResponse struct {
	Name string `json:"name"`
	*calibration.Fit
}

func summarize(t library.Target) targetSummary {
	hdr := t.Table.Header()
	return targetSummary{
		Name:        t.Name,
		Element:     hdr.Element,
		Date:        hdr.Date,
		TableMotion: hdr.TableMotion,
		Rows:        t.Table.Len(),
	}
}

func (s *server) lookup(c *gin.Context) (library.Target, bool) {
	name := c.Param("name")
	t, ok := s.lib.Get(name)
	if !ok {
		abort(c, http.StatusNotFound, fmt.Errorf("%w: %s", library.ErrNotFound, name))
		return library.Target{}, false
	}
	if bad := t.Table.NonFiniteRows(); len(bad) > 0 {
		abort(c, http.StatusUnprocessableEntity, fmt.Errorf("target %s has non-finite derived values in rows %v", name, bad))
		return library.Target{}, false
	}
	return t, true
}

func (s *server) listTargets(c *gin.Context) {
	targets := s.lib.Targets()
	out := make([]targetSummary, 0, len(targets))
	for _, t := range targets {
		out = append(out, summarize(t))
	}
	c.IndentedJSON(http.StatusOK, out)
}

func (s *server) getTarget(c *gin.Context) {
	t, ok := s.lookup(c)
	if !ok {
		return
	}
	c.IndentedJSON(http.StatusOK, targetDetail{
		targetSummary: summarize(t),
		Header:        t.Table.Header(),
		Sources:       t.Table.Resolutions(),
		Data:          t.Table.Rows(),
	})
}

func (s *server) getRotatingEstimate(c *gin.Context) {
	t, ok := s.lookup(c)
	if !ok {
		return
	}
	est, err := t.Table.EstimateRotatingMask()
	if err != nil {
		var w *calibration.MissingCalibrationWarning
		if errors.As(err, &w) {
			c.IndentedJSON(http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Guidance: w.Guidance})
			c.Abort()
			return
		}
		abort(c, http.StatusInternalServerError, err)
		return
	}
	c.IndentedJSON(http.StatusOK, rotatingResponse{Name: t.Name, RotatingEstimate: est})
}

func (s *server) getFit(c *gin.Context) {
	t, ok := s.lookup(c)
	if !ok {
		return
	}
	fit, err := t.Table.Fit()
	if err != nil {
		abort(c, http.StatusUnprocessableEntity, err)
		return
	}
	c.IndentedJSON(http.StatusOK, fitResponse{Name: t.Name, Fit: fit})
}

func (s *server) getPowerSelection(c *gin.Context) {
	power, err := strconv.ParseFloat(c.Query("power"), 64)
	if err != nil {
		abort(c, http.StatusBadRequest, fmt.Errorf("invalid power %q: %w", c.Query("power"), err))
		return
	}

	var candidates [3]powerselect.Candidate
	for i, key := range []string{"x", "y", "z"} {
		ref := c.Query(key)
		if ref == "" {
			abort(c, http.StatusBadRequest, fmt.Errorf("missing query parameter %s", key))
			return
		}
		t, err := s.lib.Resolve(ref)
		if err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, library.ErrNotFound) {
				status = http.StatusNotFound
			}
			abort(c, status, err)
			return
		}
		candidates[i] = powerselect.Candidate{Name: t.Name, Table: t.Table}
	}

	sel, err := powerselect.Select(powerselect.Request{
		X:         candidates[0],
		Y:         candidates[1],
		Z:         candidates[2],
		Power:     power,
		MaxPower:  s.conf.MaxPower(),
		MaskScale: s.conf.MaskScale(),
	})
	if err != nil {
		status := http.StatusUnprocessableEntity
		if errors.Is(err, powerselect.ErrPowerOutOfRange) {
			status = http.StatusBadRequest
		}
		abort(c, status, err)
		return
	}
	c.IndentedJSON(http.StatusOK, sel)
}

func getVersion(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, gin.H{
		"version": version.Version,
		"commit":  version.GitCommit,
	})
}
