package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"tinyhouse/internal/app/dto"
	userapp "tinyhouse/internal/app/handlers/users"
	"tinyhouse/internal/app/queries"
)

type UserHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

func (h UserHandler) Get(c *gin.Context) {
	query := userapp.GetUserQuery{
		UserID:        c.Param("id"),
		ViewerID:      viewerID(c),
		BookingsLimit: parseInt(c.Query("bookings_limit")),
		BookingsPage:  parseInt(c.Query("bookings_page")),
		ListingsLimit: parseInt(c.Query("listings_limit")),
		ListingsPage:  parseInt(c.Query("listings_page")),
	}
	result, err := queries.Ask[userapp.GetUserQuery, dto.UserProfile](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ UserHTTP = UserHandler{}
