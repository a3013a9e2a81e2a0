// @title           SPIMEX Trading Results API
// @version         1.0
// @description     Read API over daily oil-products trading results

// @host      localhost:8000
// @BasePath  /api/v1

package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	apptrading "github.com/annaputilovskaya/TradingResults/internal/application/service/trading"
	domain "github.com/annaputilovskaya/TradingResults/internal/domain/entity/trading"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	resultsBasePath = "/api/v1/results"

	cacheKeyPrefix = "cache:"

	queryDateLayout = "2006-01-02"
)

var errNoResults = errors.New("trading results for given parameters not found")

type Handler struct {
	router   *gin.Engine
	results  *apptrading.Service
	cache    *redis.Client
	cacheTTL time.Duration
}

func NewHandler(results *apptrading.Service, cache *redis.Client, cacheTTL time.Duration) *Handler {
	router := gin.New()
	router.Use(gin.Recovery())

	h := &Handler{
		router:   router,
		results:  results,
		cache:    cache,
		cacheTTL: cacheTTL,
	}
	h.registerRoutes()
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	results := h.router.Group(resultsBasePath)
	if h.cache != nil {
		results.Use(h.cacheMiddleware())
	}
	{
		results.GET("/dates", h.getLastDates)
		results.GET("", h.getDynamics)
		results.GET("/last", h.getLastResults)
	}
}

// getLastDates returns the dates of the last trading days
// @Summary      Last trading dates
// @Produce      json
// @Param        days  query     int  true  "Number of trading days"
// @Success      200   {array}   string
// @Failure      400   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /results/dates [get]
func (h *Handler) getLastDates(c *gin.Context) {
	days, err := parseIntQuery(c, "days")
	if err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}
	dates, err := h.results.GetLastDates(c.Request.Context(), days)
	if err != nil {
		if errors.Is(err, apptrading.ErrInvalidDays) {
			writeError(c, http.StatusBadRequest, err)
			return
		}
		writeError(c, http.StatusInternalServerError, err)
		return
	}
	if dates == nil {
		dates = []string{}
	}
	c.JSON(http.StatusOK, dates)
}

// getDynamics returns trading results matching the filters over a period
// @Summary      Trading results dynamics
// @Produce      json
// @Param        oil_id             query     string  false  "Oil id"
// @Param        delivery_type_id   query     string  false  "Delivery type id"
// @Param        delivery_basis_id  query     string  false  "Delivery basis id"
// @Param        start_date         query     string  false  "Start date (YYYY-MM-DD)"
// @Param        end_date           query     string  false  "End date (YYYY-MM-DD)"
// @Success      200  {array}   trading.Result
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /results [get]
func (h *Handler) getDynamics(c *gin.Context) {
	start, err := parseDateQuery(c, "start_date")
	if err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}
	end, err := parseDateQuery(c, "end_date")
	if err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}

	results, err := h.results.GetDynamics(c.Request.Context(), filterFromQuery(c), start, end)
	if err != nil {
		if errors.Is(err, apptrading.ErrInvalidInterval) {
			writeError(c, http.StatusBadRequest, err)
			return
		}
		writeError(c, http.StatusInternalServerError, err)
		return
	}
	if len(results) == 0 {
		writeError(c, http.StatusNotFound, errNoResults)
		return
	}
	c.JSON(http.StatusOK, results)
}

// getLastResults returns trading results for the latest stored date
// @Summary      Latest trading results
// @Produce      json
// @Param        oil_id             query     string  false  "Oil id"
// @Param        delivery_type_id   query     string  false  "Delivery type id"
// @Param        delivery_basis_id  query     string  false  "Delivery basis id"
// @Success      200  {array}   trading.Result
// @Failure      500  {object}  map[string]string
// @Router       /results/last [get]
func (h *Handler) getLastResults(c *gin.Context) {
	results, err := h.results.GetLastResults(c.Request.Context(), filterFromQuery(c))
	if err != nil {
		writeError(c, http.StatusInternalServerError, err)
		return
	}
	if results == nil {
		results = []domain.Result{}
	}
	c.JSON(http.StatusOK, results)
}

// FlushCache removes every cached response. The scheduled cache-clear job
// calls it after fresh results land.
func (h *Handler) FlushCache(ctx context.Context) error {
	if h.cache == nil {
		return nil
	}
	iter := h.cache.Scan(ctx, 0, cacheKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := h.cache.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

func (h *Handler) cacheMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := h.cacheKey(c)
		ctx := c.Request.Context()

		if cached, err := h.cache.Get(ctx, key).Result(); err == nil {
			c.Data(http.StatusOK, "application/json", []byte(cached))
			c.Abort()
			return
		}

		recorder := &responseRecorder{
			ResponseWriter: c.Writer,
			status:         http.StatusOK,
			body:           &bytes.Buffer{},
		}
		c.Writer = recorder

		c.Next()

		if recorder.status >= 200 && recorder.status < 300 && recorder.body.Len() > 0 {
			_ = h.cache.Set(ctx, key, recorder.body.Bytes(), h.cacheTTL).Err()
		}
	}
}

type responseRecorder struct {
	gin.ResponseWriter
	body   *bytes.Buffer
	status int
}

func (r *responseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(data []byte) (int, error) {
	if len(data) > 0 {
		r.body.Write(data)
	}
	return r.ResponseWriter.Write(data)
}

func (h *Handler) cacheKey(c *gin.Context) string {
	return fmt.Sprintf("%s%s:%s?%s", cacheKeyPrefix, c.Request.Method, c.FullPath(), c.Request.URL.RawQuery)
}

func filterFromQuery(c *gin.Context) domain.Filter {
	return domain.Filter{
		OilID:           c.Query("oil_id"),
		DeliveryTypeID:  c.Query("delivery_type_id"),
		DeliveryBasisID: c.Query("delivery_basis_id"),
	}
}

func parseIntQuery(c *gin.Context, key string) (int, error) {
	value := c.Query(key)
	if value == "" {
		return 0, fmt.Errorf("%s query param required", key)
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return parsed, nil
}

func parseDateQuery(c *gin.Context, key string) (*time.Time, error) {
	value := c.Query(key)
	if value == "" {
		return nil, nil
	}
	parsed, err := time.Parse(queryDateLayout, value)
	if err != nil {
		return nil, fmt.Errorf("%s must be a date in YYYY-MM-DD form", key)
	}
	return &parsed, nil
}

func writeError(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"error": err.Error()})
}
