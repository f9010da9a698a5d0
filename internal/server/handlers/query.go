package handlers

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mamadbah2/canebill/internal/domain/models"
)

const dateOnlyLen = len("2006-01-02")

// dateRange parses the from/to query pair. A date-only "to" covers the whole day.
func dateRange(c *gin.Context) (time.Time, time.Time, error) {
	var from, to time.Time
	if raw := strings.TrimSpace(c.Query("from")); raw != "" {
		t, err := models.ParseDate(raw)
		if err != nil {
			return from, to, err
		}
		from = t
	}
	if raw := strings.TrimSpace(c.Query("to")); raw != "" {
		t, err := models.ParseDate(raw)
		if err != nil {
			return from, to, err
		}
		if len(raw) == dateOnlyLen {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		to = t
	}
	return from, to, nil
}

func billFilter(c *gin.Context) (models.BillFilter, error) {
	from, to, err := dateRange(c)
	if err != nil {
		return models.BillFilter{}, err
	}
	return models.BillFilter{
		OwnerName: strings.TrimSpace(c.Query("owner")),
		From:      from,
		To:        to,
	}, nil
}

func activityFilter(c *gin.Context) (models.ActivityFilter, error) {
	from, to, err := dateRange(c)
	if err != nil {
		return models.ActivityFilter{}, err
	}
	return models.ActivityFilter{
		Search: strings.TrimSpace(c.Query("search")),
		Role:   models.Role(strings.TrimSpace(c.Query("role"))),
		From:   from,
		To:     to,
	}, nil
}
