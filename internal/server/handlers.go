package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"diet-planner/internal/dietplan"
	"diet-planner/internal/metrics"
	"diet-planner/internal/planner"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const generationFailedMsg = "Error generating diet plan"

type errorResponse struct {
	Error string `json:"error"`
}

type daysResponse struct {
	Days []dietplan.DaySection `json:"days"`
}

type overviewResponse struct {
	Overview string `json:"overview"`
}

type healthResponse struct {
	metrics.SysHealth
	SegmentPolicy string               `json:"segment_policy"`
	Usage         []metrics.DailyUsage `json:"usage,omitempty"`
}

func (s *Server) readyHandler(c echo.Context) error {
	return c.String(http.StatusOK, "App ready!")
}

func (s *Server) healthHandler(c echo.Context) error {
	resp := healthResponse{
		SysHealth:     metrics.GetSysHealth(),
		SegmentPolicy: s.gen.Policy().String(),
	}
	if s.usage != nil {
		resp.Usage = s.usage.GetDailyUsage()
	}
	return c.JSON(http.StatusOK, resp)
}

// generateDietHandler handles POST /generate-diet.
func (s *Server) generateDietHandler(c echo.Context) error {
	opts, errs := s.bindOptions(c)
	if errs != nil {
		return c.JSON(http.StatusUnprocessableEntity, validationErrorResponse{Errors: errs})
	}

	ctx := c.Request().Context()
	days, err := s.gen.Days(ctx, opts)
	if err != nil {
		return s.generationFailed(c, err)
	}

	s.notifyInBackground(ctx, opts.User, days)

	return c.JSON(http.StatusOK, daysResponse{Days: days})
}

// overviewHandler handles GET /getOverview.
func (s *Server) overviewHandler(c echo.Context) error {
	opts, errs := s.bindOptions(c)
	if errs != nil {
		return c.JSON(http.StatusUnprocessableEntity, validationErrorResponse{Errors: errs})
	}

	plan, err := s.gen.Generate(c.Request().Context(), opts)
	if err != nil {
		return s.generationFailed(c, err)
	}

	return c.JSON(http.StatusOK, overviewResponse{Overview: plan.Text})
}

// dayHandler handles GET /getDay/:dayNumber.
func (s *Server) dayHandler(c echo.Context) error {
	var errs []FieldError

	dayNumber, convErr := strconv.Atoi(c.Param("dayNumber"))
	if convErr != nil || dayNumber < 1 {
		errs = append(errs, FieldError{Field: "dayNumber", Msg: typeMessages["dayNumber"], Location: "params"})
	}

	opts, optErrs := s.bindOptions(c)
	errs = append(errs, optErrs...)
	if len(errs) > 0 {
		return c.JSON(http.StatusUnprocessableEntity, validationErrorResponse{Errors: errs})
	}

	day, err := s.gen.Day(c.Request().Context(), opts, dayNumber)
	if errors.Is(err, planner.ErrDayNotFound) {
		return c.JSON(http.StatusNotFound, errorResponse{Error: fmt.Sprintf("Day %d not found in diet plan", dayNumber)})
	}
	if err != nil {
		return s.generationFailed(c, err)
	}

	return c.JSON(http.StatusOK, day)
}

// generationFailed logs the cause and answers with a generic 500.
func (s *Server) generationFailed(c echo.Context, err error) error {
	zerolog.Ctx(c.Request().Context()).Error().Err(err).Msg("Diet plan generation failed")
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: generationFailedMsg})
}

// notifyInBackground delivers days without delaying the response. Failures are logged only.
func (s *Server) notifyInBackground(ctx context.Context, user string, days []dietplan.DaySection) {
	if s.notifier == nil || len(days) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)

	s.background.Add(1)
	go func() {
		defer s.background.Done()
		defer cancel()

		if err := s.notifier.NotifyDays(ctx, user, days); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("user", user).Msg("Failed to deliver day notifications")
			return
		}
		zerolog.Ctx(ctx).Info().Int("days", len(days)).Msg("Day notifications delivered")
	}()
}
