package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"platform-service/internal/menu"
	"platform-service/internal/middleware"
)

var menuSynthesizer *menu.Synthesizer

// InitMenuHandler wires the menu synthesizer.
func InitMenuHandler(s *menu.Synthesizer) {
	menuSynthesizer = s
}

// GetMenus returns the caller's merged navigation forest.
func GetMenus(c echo.Context) error {
	forest, err := menuSynthesizer.Navigation(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	if forest == nil {
		forest = []*menu.NavNode{}
	}
	return c.JSON(http.StatusOK, echo.Map{"menus": forest})
}
