package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vsinha/replenish/pkg/application/dto"
	"github.com/vsinha/replenish/pkg/application/services/planning"
	"github.com/vsinha/replenish/pkg/application/services/report"
	"github.com/vsinha/replenish/pkg/domain/entities"
	"github.com/vsinha/replenish/pkg/infrastructure/config"
	"github.com/vsinha/replenish/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/replenish/pkg/infrastructure/repositories/memory"
)

const (
	formatJSON = "json"
	formatCSV  = "csv"
)

// planRestock handles POST /api/v1/plans/restock
func (s *Server) planRestock(c *gin.Context) {
	service, repo, format, ok := s.prepare(c)
	if !ok {
		return
	}

	result, err := service.PlanRestock(c.Request.Context(), repo)
	if err != nil {
		s.fail(c, statusFor(err), err)
		return
	}

	c.Header(RunHeader, result.RunID)
	if format == formatCSV {
		s.writeTable(c, report.RestockTable(result.Rows))
		return
	}
	c.JSON(http.StatusOK, result)
}

// planTransfers handles POST /api/v1/plans/transfers
func (s *Server) planTransfers(c *gin.Context) {
	service, repo, format, ok := s.prepare(c)
	if !ok {
		return
	}

	result, err := service.PlanTransfers(c.Request.Context(), repo)
	if err != nil {
		s.fail(c, statusFor(err), err)
		return
	}

	c.Header(RunHeader, result.RunID)
	if format == formatCSV {
		s.writeTable(c, report.ManifestTable(result.Lines))
		return
	}
	c.JSON(http.StatusOK, result)
}

// prepare resolves the request configuration and loads the history table in the body.
// It writes the error response itself and reports false when the request cannot be planned.
func (s *Server) prepare(c *gin.Context) (*planning.Service, *memory.HistoryRepository, string, bool) {
	format := strings.ToLower(c.DefaultQuery("format", formatJSON))
	if format != formatJSON && format != formatCSV {
		s.fail(c, http.StatusUnprocessableEntity,
			fmt.Errorf("%w: unsupported format %q (expected: json or csv)", entities.ErrInvalidConfiguration, format))
		return nil, nil, "", false
	}

	settings := s.settings
	if err := settings.ApplyEnv(queryLookup(c)); err != nil {
		s.fail(c, statusFor(err), err)
		return nil, nil, "", false
	}
	planningConfig, err := settings.Planning()
	if err != nil {
		s.fail(c, statusFor(err), err)
		return nil, nil, "", false
	}

	records, err := s.loader.ReadHistory(c.Request.Body)
	if err != nil {
		s.fail(c, statusFor(err), err)
		return nil, nil, "", false
	}
	repo := memory.NewHistoryRepository()
	if err := repo.LoadRecords(records); err != nil {
		s.fail(c, statusFor(err), err)
		return nil, nil, "", false
	}

	opts := append([]planning.Option{}, s.options...)
	if s.eventStore != nil {
		opts = append(opts, planning.WithEventStore(s.eventStore))
	}
	service, err := planning.NewService(planningConfig, s.logger, opts...)
	if err != nil {
		s.fail(c, statusFor(err), err)
		return nil, nil, "", false
	}

	return service, repo, format, true
}

func (s *Server) writeTable(c *gin.Context, table dto.Table) {
	var buf bytes.Buffer
	if err := csv.WriteTable(&buf, table); err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (s *Server) fail(c *gin.Context, status int, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error":   err.Error(),
	})
}

// queryLookup maps configuration keys onto query parameters, so that
// REPLENISH_HORIZON_DAYS is read from ?horizon_days=
func queryLookup(c *gin.Context) func(string) (string, bool) {
	return func(key string) (string, bool) {
		name := strings.ToLower(strings.TrimPrefix(key, config.EnvPrefix))
		return c.GetQuery(name)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, entities.ErrInvalidConfiguration):
		return http.StatusUnprocessableEntity
	case errors.Is(err, csv.ErrMalformedHistory), errors.Is(err, entities.ErrInvalidEntity):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
