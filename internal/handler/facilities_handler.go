package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"platform-service/internal/model"
)

// Handlers for factory structure and other coded catalogs backed by the
// master data registry.

func queryUint(c echo.Context, name string) uint {
	v, _ := strconv.ParseUint(c.QueryParam(name), 10, 64)
	return uint(v)
}

func ListBOMs(c echo.Context) error {
	rows, err := mdRegistry.ListBOMs(c.Request().Context(), queryUint(c, "material_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"boms": rows})
}

func ListBatches(c echo.Context) error {
	rows, err := mdRegistry.ListBatches(c.Request().Context(), queryUint(c, "material_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"batches": rows})
}

func ListSerials(c echo.Context) error {
	rows, err := mdRegistry.ListSerials(c.Request().Context(), queryUint(c, "material_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"serials": rows})
}

// --- storage locations ---

func CreateStorageLocation(c echo.Context) error {
	var l model.StorageLocation
	if err := c.Bind(&l); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if l.Name == "" || l.WarehouseID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and warehouse_id are required"})
	}
	l.IsActive = true
	if err := mdRegistry.CreateStorageLocation(c.Request().Context(), &l); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"storage_location": l})
}

func ListStorageLocations(c echo.Context) error {
	rows, err := mdRegistry.ListStorageLocations(c.Request().Context(), queryUint(c, "warehouse_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"storage_locations": rows})
}

// --- operations ---

func CreateOperation(c echo.Context) error {
	var op model.Operation
	if err := c.Bind(&op); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if op.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	op.IsActive = true
	if err := mdRegistry.CreateOperation(c.Request().Context(), &op); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"operation": op})
}

func ListOperations(c echo.Context) error {
	rows, err := mdRegistry.ListOperations(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"operations": rows})
}

// --- defect types ---

func CreateDefectType(c echo.Context) error {
	var d model.DefectType
	if err := c.Bind(&d); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if d.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	d.IsActive = true
	if err := mdRegistry.CreateDefectType(c.Request().Context(), &d); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"defect_type": d})
}

func ListDefectTypes(c echo.Context) error {
	rows, err := mdRegistry.ListDefectTypes(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"defect_types": rows})
}

// --- factory structure nodes ---

func CreatePlant(c echo.Context) error {
	var p model.Plant
	if err := c.Bind(&p); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if p.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	p.IsActive = true
	if err := mdRegistry.CreatePlant(c.Request().Context(), &p); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"plant": p})
}

func CreateWorkshop(c echo.Context) error {
	var w model.Workshop
	if err := c.Bind(&w); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if w.Name == "" || w.PlantID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and plant_id are required"})
	}
	w.IsActive = true
	if err := mdRegistry.CreateWorkshop(c.Request().Context(), &w); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"workshop": w})
}

func CreateProductionLine(c echo.Context) error {
	var l model.ProductionLine
	if err := c.Bind(&l); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if l.Name == "" || l.WorkshopID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and workshop_id are required"})
	}
	l.IsActive = true
	if err := mdRegistry.CreateProductionLine(c.Request().Context(), &l); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"production_line": l})
}

func CreateWorkstation(c echo.Context) error {
	var w model.Workstation
	if err := c.Bind(&w); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if w.Name == "" || w.LineID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and line_id are required"})
	}
	w.IsActive = true
	if err := mdRegistry.CreateWorkstation(c.Request().Context(), &w); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"workstation": w})
}
