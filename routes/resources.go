package routes

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"vet1stop-platform/internal/filter"
	"vet1stop-platform/internal/resources"
	"vet1stop-platform/models"
	"vet1stop-platform/utils"
)

// SetupResourceRoutes registers the read-only resource API
func SetupResourceRoutes(router *gin.Engine, svc *resources.Service) {
	api := router.Group("/api/resources")

	api.GET("", handleListResources(svc))
	api.GET("/counts", handleResourceCounts(svc))
	api.GET("/:id", handleGetResource(svc))
}

// handleListResources filters resources from query parameters
func handleListResources(svc *resources.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		opts, err := filter.ParseValues(c.Request.URL.Query())
		if err != nil {
			utils.RespondWithServiceError(c, err)
			return
		}

		ctx, cancel := utils.WithTimeout(c.Request.Context())
		defer cancel()

		out, err := svc.GetResources(ctx, opts)
		if err != nil {
			_ = c.Error(err)
			utils.RespondWithServiceError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"resources": out,
			"count":     len(out),
		})
	}
}

func handleResourceCounts(svc *resources.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := utils.WithTimeout(c.Request.Context())
		defer cancel()

		counts, err := svc.GetResourceCounts(ctx)
		if err != nil {
			_ = c.Error(err)
			utils.RespondWithServiceError(c, err)
			return
		}

		// every category is listed, empty ones as zero
		out := make(map[models.Category]int64, len(models.AllCategories()))
		var total int64
		for _, cat := range models.AllCategories() {
			out[cat] = counts[cat]
			total += counts[cat]
		}

		c.JSON(http.StatusOK, gin.H{
			"counts": out,
			"total":  total,
		})
	}
}

// handleGetResource returns one resource and, on request, its related resources
func handleGetResource(svc *resources.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")

		includeRelated := false
		if raw := c.Query("includeRelated"); raw != "" {
			v, err := strconv.ParseBool(raw)
			if err != nil {
				utils.RespondWithServiceError(c, &filter.InvalidFilterError{Field: "includeRelated", Reason: "must be true or false"})
				return
			}
			includeRelated = v
		}

		relatedLimit := resources.DefaultRelatedLimit
		if raw := c.Query("relatedLimit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				utils.RespondWithServiceError(c, &filter.InvalidFilterError{Field: "relatedLimit", Reason: "must be a positive integer"})
				return
			}
			relatedLimit = n
		}

		ctx, cancel := utils.WithTimeout(c.Request.Context())
		defer cancel()

		res, err := svc.GetResourceByID(ctx, id)
		if err != nil {
			_ = c.Error(err)
			utils.RespondWithServiceError(c, err)
			return
		}

		body := gin.H{"resource": res}
		if includeRelated {
			related, err := svc.GetRelatedResources(ctx, id, relatedLimit)
			if err != nil {
				_ = c.Error(err)
				utils.RespondWithServiceError(c, err)
				return
			}
			body["related"] = related
		}

		c.JSON(http.StatusOK, body)
	}
}
