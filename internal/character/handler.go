package character

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	Repo    *Repo
	Timeout time.Duration
	Log     *zap.Logger
}

func NewHandler(repo *Repo, timeout time.Duration, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{Repo: repo, Timeout: timeout, Log: log}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/:name", h.get) // GET /characters/:name
}

func (h *Handler) get(c *gin.Context) {
	q, err := parseQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}

	data, err := h.Repo.GetCharacterData(ctx, q)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, data)
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "character not found"})
	case errors.Is(err, ErrInvalidArgument):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		h.Log.Error("character lookup timed out", zap.String("name", q.Name), zap.Error(err))
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "lookup timed out"})
	default:
		h.Log.Error("character lookup failed", zap.String("name", q.Name), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
	}
}

func parseQuery(c *gin.Context) (Query, error) {
	q := Query{Name: strings.TrimSpace(c.Param("name"))}
	if q.Name == "" {
		return q, errors.New("name required")
	}

	var err error
	if q.IncludeRelatedCharacters, err = parseBool(c.Query("includeRelatedCharacter")); err != nil {
		return q, errors.New("includeRelatedCharacter must be a boolean")
	}
	if q.IncludeRelatedPoems, err = parseBool(c.Query("includeRelatedPoem")); err != nil {
		return q, errors.New("includeRelatedPoem must be a boolean")
	}
	if q.CharacterLimit, err = parseLimit(c.Query("characterLimit")); err != nil {
		return q, errors.New("characterLimit must be an integer >= 1")
	}
	if q.PoemLimit, err = parseLimit(c.Query("poemLimit")); err != nil {
		return q, errors.New("poemLimit must be an integer >= 1")
	}
	return q, nil
}

func parseBool(s string) (bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return false, nil
	}
	return strconv.ParseBool(s)
}

func parseLimit(s string) (*int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, err
	}
	if n < 1 {
		return nil, strconv.ErrRange
	}
	return &n, nil
}
