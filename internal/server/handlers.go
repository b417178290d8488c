package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/dcshock/sewer/logger"
	"github.com/dcshock/sewer/pipeline"
)

// SystemInfo describes a served system.
type SystemInfo struct {
	Name   string   `json:"name"`
	Stages []string `json:"stages"`
}

// PumpResponse is the final Result of a pump.
type PumpResponse struct {
	RunID     string `json:"run_id"`
	System    string `json:"system"`
	Kind      string `json:"kind"`
	Stage     string `json:"stage"`
	Value     any    `json:"value,omitempty"`
	Discarded any    `json:"discarded,omitempty"`
	Error     string `json:"error,omitempty"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": s.service,
		"systems": len(s.systems),
	})
}

func (s *Server) listSystems(c *gin.Context) {
	out := make([]SystemInfo, 0, len(s.systems))
	for _, name := range s.names() {
		out = append(out, SystemInfo{Name: name, Stages: s.systems[name].Stages()})
	}
	respondOK(c, out)
}

func (s *Server) getSystem(c *gin.Context) {
	sys, ok := s.lookup(c)
	if !ok {
		return
	}
	respondOK(c, SystemInfo{Name: c.Param("name"), Stages: sys.Stages()})
}

func (s *Server) lookup(c *gin.Context) (*pipeline.System[any, any], bool) {
	name := c.Param("name")
	sys, ok := s.systems[name]
	if !ok {
		respondError(c, http.StatusNotFound, ErrorBody{
			Code:    CodeNotFound,
			Message: "system " + name + " not found",
		})
	}
	return sys, ok
}

// pump decodes the request body as the system input (an empty body pumps
// nil) and waits for the final Result. The optional timeout query parameter
// bounds the wait only; the pump itself keeps running.
func (s *Server) pump(c *gin.Context) {
	sys, ok := s.lookup(c)
	if !ok {
		return
	}
	var in any
	raw, err := c.GetRawData()
	if err != nil {
		respondError(c, http.StatusBadRequest, ErrorBody{Code: CodeBadRequest, Message: err.Error()})
		return
	}
	if len(strings.TrimSpace(string(raw))) > 0 {
		if err := json.Unmarshal(raw, &in); err != nil {
			respondError(c, http.StatusBadRequest, ErrorBody{
				Code:    CodeBadRequest,
				Message: errors.Wrap(err, "decode input").Error(),
			})
			return
		}
	}

	ctx := c.Request.Context()
	if t := c.Query("timeout"); t != "" {
		d, err := time.ParseDuration(t)
		if err != nil || d <= 0 {
			respondError(c, http.StatusBadRequest, ErrorBody{Code: CodeBadRequest, Message: "invalid timeout " + t})
			return
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	runID := c.GetString(keyRequestID)
	res, err := sys.PumpWithOptions(ctx, in, &pipeline.PumpOptions{RunID: runID}).Await(ctx)
	if err != nil {
		s.pumpFailed(c, runID, err)
		return
	}

	out := PumpResponse{
		RunID:  runID,
		System: sys.Name(),
		Kind:   res.Kind().String(),
		Stage:  res.Name(),
	}
	switch {
	case res.Succeeded():
		out.Value = res.Value()
	case res.IsFilteredAfter():
		out.Discarded = res.Discarded()
	case res.IsFailed():
		out.Error = res.Err().Error()
	}
	respondOK(c, out)
}

func (s *Server) pumpFailed(c *gin.Context, runID string, err error) {
	if se, ok := pipeline.AsStageError(err); ok {
		respondError(c, http.StatusUnprocessableEntity, ErrorBody{
			Code:    CodeStageFailed,
			Message: se.Err.Error(),
			Stage:   se.Stage,
			RunID:   runID,
		})
		return
	}
	if errors.Is(err, context.DeadlineExceeded) {
		respondError(c, http.StatusGatewayTimeout, ErrorBody{Code: CodeTimeout, Message: err.Error(), RunID: runID})
		return
	}
	s.log.Error("pump failed", logger.Fields(logger.FieldRunID, runID, logger.FieldError, err.Error()))
	respondError(c, http.StatusInternalServerError, ErrorBody{Code: CodeInternal, Message: err.Error(), RunID: runID})
}

func (s *Server) listRuns(c *gin.Context) {
	if s.recorder == nil {
		respondError(c, http.StatusNotFound, ErrorBody{Code: CodeNotFound, Message: "run recording is disabled"})
		return
	}
	runs := s.recorder.Runs()
	if system := c.Query("system"); system != "" {
		kept := runs[:0]
		for _, r := range runs {
			if r.System == system {
				kept = append(kept, r)
			}
		}
		runs = kept
	}
	respondOK(c, runs)
}

func (s *Server) getRun(c *gin.Context) {
	if s.recorder == nil {
		respondError(c, http.StatusNotFound, ErrorBody{Code: CodeNotFound, Message: "run recording is disabled"})
		return
	}
	run, ok := s.recorder.Run(c.Param("id"))
	if !ok {
		respondError(c, http.StatusNotFound, ErrorBody{Code: CodeNotFound, Message: "run " + c.Param("id") + " not found"})
		return
	}
	respondOK(c, run)
}
