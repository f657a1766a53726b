package v1

import (
	"strings"

	fiber "github.com/gofiber/fiber/v2"

	"dva-report-service-golang/internal/cache"
	"dva-report-service-golang/internal/cvss"
	"dva-report-service-golang/internal/telemetry"
)

const maxBatchVectors = 500

// ScoreRequest is the metric selection posted by the report editor, e.g.
// {"AV":"N","AC":"L","PR":"N","UI":"N","S":"U","C":"H","I":"H","A":"H"}.
type ScoreRequest map[string]string

type IncompleteResponse struct {
	Error   string        `json:"error"`
	Missing []cvss.Metric `json:"missing"`
}

type BatchRequest struct {
	Vectors []string `json:"vectors"`
}

type BatchItem struct {
	Input  string       `json:"input"`
	Result *cvss.Result `json:"result,omitempty"`
	Error  string       `json:"error,omitempty"`
}

type BatchResponse struct {
	Results []BatchItem `json:"results"`
}

type scoreHandler struct {
	scores *cache.ScoreCache
}

// RegisterScoreRoutes mounts the CVSS endpoints. scores may be nil, in
// which case every request is computed directly.
func RegisterScoreRoutes(r fiber.Router, scores *cache.ScoreCache) {
	h := &scoreHandler{scores: scores}
	r.Get("/health", HealthCheck)
	r.Get("/metrics", listMetrics)
	r.Post("/score", h.scoreSelection)
	r.Get("/score", h.scoreVector)
	r.Post("/score/batch", h.scoreBatch)
}

// @Summary Health check
// @Description Check if the CVSS service is alive
// @Tags health
// @Produce plain
// @Success 200 {string} string "ok"
// @Router /health [get]
func HealthCheck(c *fiber.Ctx) error { return c.SendString("ok") }

// @Summary CVSS metric catalog
// @Description Labels and options of the eight CVSS v3.1 base metrics, in vector order
// @Tags cvss
// @Produce json
// @Success 200 {array} cvss.MetricInfo
// @Router /metrics [get]
func listMetrics(c *fiber.Ctx) error {
	return c.JSON(cvss.Metrics())
}

// @Summary Score a metric selection
// @Description Computes the CVSS v3.1 base score, vector and severity of a complete selection
// @Tags cvss
// @Accept json
// @Produce json
// @Param request body ScoreRequest true "Metric code to option code"
// @Success 200 {object} cvss.Result
// @Failure 400 {object} map[string]interface{}
// @Failure 422 {object} IncompleteResponse
// @Router /score [post]
func (h *scoreHandler) scoreSelection(c *fiber.Ctx) error {
	var req ScoreRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}

	sel := make(cvss.Selection, len(req))
	for k, v := range req {
		sel[cvss.Metric(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}

	res, ok := h.scores.Score(c.UserContext(), sel)
	telemetry.RecordScore(c.UserContext(), "http", ok)
	if !ok {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(IncompleteResponse{
			Error:   "incomplete cvss selection",
			Missing: sel.Missing(),
		})
	}
	return c.JSON(res)
}

// @Summary Score a vector string
// @Description Parses a CVSS:3.0 or CVSS:3.1 base vector and scores it
// @Tags cvss
// @Produce json
// @Param vector query string true "CVSS vector, e.g. CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H"
// @Success 200 {object} cvss.Result
// @Failure 400 {object} map[string]interface{}
// @Router /score [get]
func (h *scoreHandler) scoreVector(c *fiber.Ctx) error {
	raw := strings.TrimSpace(c.Query("vector"))
	if raw == "" {
		return fiber.NewError(fiber.StatusBadRequest, "vector query parameter required")
	}
	res, err := h.score(c, raw)
	telemetry.RecordScore(c.UserContext(), "http", err == nil)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return c.JSON(res)
}

// @Summary Score many vectors
// @Description Scores up to 500 vectors; each item carries either a result or an error
// @Tags cvss
// @Accept json
// @Produce json
// @Param request body BatchRequest true "Vectors to score"
// @Success 200 {object} BatchResponse
// @Failure 400 {object} map[string]interface{}
// @Router /score/batch [post]
func (h *scoreHandler) scoreBatch(c *fiber.Ctx) error {
	var req BatchRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	if len(req.Vectors) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "vectors required")
	}
	if len(req.Vectors) > maxBatchVectors {
		return fiber.NewError(fiber.StatusBadRequest, "too many vectors")
	}

	out := BatchResponse{Results: make([]BatchItem, 0, len(req.Vectors))}
	for _, raw := range req.Vectors {
		item := BatchItem{Input: raw}
		res, err := h.score(c, raw)
		telemetry.RecordScore(c.UserContext(), "http", err == nil)
		if err != nil {
			item.Error = err.Error()
		} else {
			item.Result = &res
		}
		out.Results = append(out.Results, item)
	}
	return c.JSON(out)
}

func (h *scoreHandler) score(c *fiber.Ctx, raw string) (cvss.Result, error) {
	sel, err := cvss.ParseVector(raw)
	if err != nil {
		return cvss.Result{}, err
	}
	res, _ := h.scores.Score(c.UserContext(), sel)
	return res, nil
}
