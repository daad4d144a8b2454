package server

import (
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/life-stream-dev/apm-demo/internal/calculator"
	"github.com/life-stream-dev/apm-demo/internal/counter"
	"github.com/life-stream-dev/apm-demo/internal/random"
	"github.com/life-stream-dev/apm-demo/internal/session"
)

var endpoints = []string{
	"GET /health - Health check",
	"GET /quote - Random inspirational quote",
	"GET /counter - Visit counter summary",
	"GET /user/{name} - Personalized greeting",
	"POST /calculate - Simple calculator",
	"GET /random - Random data",
	"GET /session/info - Session details",
	"POST /session/set - Store a session attribute",
	"GET /session/get/{key} - Read a session attribute",
	"GET /session/all - List session attributes",
	"DELETE /session/remove/{key} - Remove a session attribute",
	"DELETE /session/invalidate - Invalidate the session",
}

type handlers struct {
	counter   counter.Counter
	sessions  *session.Manager
	random    *random.Generator
	startedAt time.Time
	stores    map[string]string
}

func (h *handlers) register(e *echo.Echo) {
	e.GET("/", h.root)
	e.GET("/health", h.health)
	e.GET("/quote", h.quote)
	e.GET("/counter", h.counterSummary)
	e.GET("/user/:name", h.greet)
	e.POST("/calculate", h.calculate)
	e.GET("/random", h.randomData)

	g := e.Group("/session")
	g.GET("/info", h.sessionInfo)
	g.POST("/set", h.sessionSet)
	g.GET("/get/:key", h.sessionGet)
	g.GET("/all", h.sessionAll)
	g.DELETE("/remove/:key", h.sessionRemove)
	g.DELETE("/invalidate", h.sessionInvalidate)
}

type RootResponse struct {
	Message   string    `json:"message"`
	Version   string    `json:"version"`
	Endpoints []string  `json:"endpoints"`
	Timestamp time.Time `json:"timestamp"`
}

func (h *handlers) root(c echo.Context) error {
	return c.JSON(http.StatusOK, RootResponse{
		Message:   "🚀 Welcome to the Enhanced APM Demo!",
		Version:   Version,
		Endpoints: endpoints,
		Timestamp: time.Now(),
	})
}

func (h *handlers) health(c echo.Context) error {
	return c.JSON(http.StatusOK, healthSnapshot(h.startedAt, h.stores))
}

type QuoteResponse struct {
	Quote     string    `json:"quote"`
	Timestamp time.Time `json:"timestamp"`
}

func (h *handlers) quote(c echo.Context) error {
	return c.JSON(http.StatusOK, QuoteResponse{Quote: h.random.Quote(), Timestamp: time.Now()})
}

type CounterResponse struct {
	counter.Summary
	Timestamp time.Time `json:"timestamp"`
}

func (h *handlers) counterSummary(c echo.Context) error {
	snapshot, err := h.counter.Snapshot(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, CounterResponse{Summary: counter.Summarize(snapshot), Timestamp: time.Now()})
}

type GreetingResponse struct {
	Greeting   string    `json:"greeting"`
	VisitCount int64     `json:"visitCount"`
	Timestamp  time.Time `json:"timestamp"`
}

func (h *handlers) greet(c echo.Context) error {
	name, err := pathParam(c, "name")
	if err != nil {
		return err
	}
	count, err := h.counter.Increment(c.Request().Context(), name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, GreetingResponse{
		Greeting:   counter.Greeting(name),
		VisitCount: count,
		Timestamp:  time.Now(),
	})
}

type calculateRequest struct {
	Num1      any `json:"num1"`
	Num2      any `json:"num2"`
	Operation any `json:"operation"`
}

type CalculateResponse struct {
	Num1      float64   `json:"num1"`
	Num2      float64   `json:"num2"`
	Operation string    `json:"operation"`
	Result    float64   `json:"result"`
	Timestamp time.Time `json:"timestamp"`
}

func (h *handlers) calculate(c echo.Context) error {
	var req calculateRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}

	num1, err := calculator.ParseOperand("num1", req.Num1)
	if err != nil {
		return err
	}
	num2, err := calculator.ParseOperand("num2", req.Num2)
	if err != nil {
		return err
	}
	operation, err := calculator.ParseOperation(req.Operation)
	if err != nil {
		return err
	}
	result, err := calculator.Calculate(num1, num2, operation)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, CalculateResponse{
		Num1:      num1,
		Num2:      num2,
		Operation: operation,
		Result:    result,
		Timestamp: time.Now(),
	})
}

type RandomResponse struct {
	random.Data
	Timestamp time.Time `json:"timestamp"`
}

func (h *handlers) randomData(c echo.Context) error {
	return c.JSON(http.StatusOK, RandomResponse{Data: h.random.Data(), Timestamp: time.Now()})
}

// pathParam returns the decoded path parameter. echo matches against
// URL.RawPath when the request carries one, so the value may still be escaped.
func pathParam(c echo.Context, name string) (string, error) {
	value := c.Param(name)
	if c.Request().URL.RawPath == "" {
		return value, nil
	}
	decoded, err := url.PathUnescape(value)
	if err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, "Invalid input: malformed path parameter "+name).SetInternal(err)
	}
	return decoded, nil
}

// decodeBody reads the JSON body regardless of Content-Type.
func decodeBody(c echo.Context, v any) error {
	if c.Request().ContentLength == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid input: request body is required")
	}
	return c.Echo().JSONSerializer.Deserialize(c, v)
}
