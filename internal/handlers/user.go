package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskflow/internal/dto"
	"github.com/yukikurage/taskflow/internal/middleware"
	"github.com/yukikurage/taskflow/internal/services"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// SearchUsers returns users whose username or email contains q. An empty query
// returns an empty list.
func (h *UserHandler) SearchUsers(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		c.JSON(http.StatusOK, []dto.UserDTO{})
		return
	}

	users, _ := h.userService.Search(c.Request.Context(), middleware.CurrentActor(c), q)
	c.JSON(http.StatusOK, dto.ToUserDTOs(users))
}
