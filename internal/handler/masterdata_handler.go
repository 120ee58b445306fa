package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"platform-service/internal/masterdata"
	"platform-service/internal/model"
)

var mdRegistry *masterdata.Registry

// InitMasterDataHandler wires the master data registry.
func InitMasterDataHandler(registry *masterdata.Registry) {
	mdRegistry = registry
}

func listOptions(c echo.Context) masterdata.ListOptions {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("page_size"))
	return masterdata.ListOptions{
		Page:       page,
		PageSize:   size,
		Keyword:    c.QueryParam("q"),
		OnlyActive: c.QueryParam("active") == "true",
	}
}

// --- materials ---

func CreateMaterial(c echo.Context) error {
	var m model.Material
	if err := c.Bind(&m); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if m.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	m.IsActive = true
	if err := mdRegistry.CreateMaterial(c.Request().Context(), &m); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"material": m})
}

func GetMaterial(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid material ID"})
	}
	m, err := mdRegistry.GetMaterial(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"material": m})
}

func ListMaterials(c echo.Context) error {
	rows, total, err := mdRegistry.ListMaterials(c.Request().Context(), listOptions(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"materials": rows, "total": total})
}

func UpdateMaterial(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid material ID"})
	}
	var changes model.Material
	if err := c.Bind(&changes); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	m, err := mdRegistry.UpdateMaterial(c.Request().Context(), id, &changes)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"material": m})
}

func DeleteMaterial(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid material ID"})
	}
	if err := mdRegistry.DeleteMaterial(c.Request().Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "material deleted"})
}

// --- customers ---

func CreateCustomer(c echo.Context) error {
	var m model.Customer
	if err := c.Bind(&m); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if m.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	m.IsActive = true
	if err := mdRegistry.CreateCustomer(c.Request().Context(), &m); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"customer": m})
}

func GetCustomer(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid customer ID"})
	}
	m, err := mdRegistry.GetCustomer(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"customer": m})
}

func ListCustomers(c echo.Context) error {
	rows, total, err := mdRegistry.ListCustomers(c.Request().Context(), listOptions(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"customers": rows, "total": total})
}

func UpdateCustomer(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid customer ID"})
	}
	var changes model.Customer
	if err := c.Bind(&changes); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	m, err := mdRegistry.UpdateCustomer(c.Request().Context(), id, &changes)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"customer": m})
}

func DeleteCustomer(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid customer ID"})
	}
	if err := mdRegistry.DeleteCustomer(c.Request().Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "customer deleted"})
}

// --- suppliers ---

func CreateSupplier(c echo.Context) error {
	var m model.Supplier
	if err := c.Bind(&m); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if m.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	m.IsActive = true
	if err := mdRegistry.CreateSupplier(c.Request().Context(), &m); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"supplier": m})
}

func GetSupplier(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid supplier ID"})
	}
	m, err := mdRegistry.GetSupplier(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"supplier": m})
}

func ListSuppliers(c echo.Context) error {
	rows, total, err := mdRegistry.ListSuppliers(c.Request().Context(), listOptions(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"suppliers": rows, "total": total})
}

func UpdateSupplier(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid supplier ID"})
	}
	var changes model.Supplier
	if err := c.Bind(&changes); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	m, err := mdRegistry.UpdateSupplier(c.Request().Context(), id, &changes)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"supplier": m})
}

func DeleteSupplier(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid supplier ID"})
	}
	if err := mdRegistry.DeleteSupplier(c.Request().Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "supplier deleted"})
}

// --- warehouses ---

func CreateWarehouse(c echo.Context) error {
	var m model.Warehouse
	if err := c.Bind(&m); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if m.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	m.IsActive = true
	if err := mdRegistry.CreateWarehouse(c.Request().Context(), &m); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"warehouse": m})
}

func GetWarehouse(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid warehouse ID"})
	}
	m, err := mdRegistry.GetWarehouse(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"warehouse": m})
}

func ListWarehouses(c echo.Context) error {
	rows, total, err := mdRegistry.ListWarehouses(c.Request().Context(), listOptions(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"warehouses": rows, "total": total})
}

func UpdateWarehouse(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid warehouse ID"})
	}
	var changes model.Warehouse
	if err := c.Bind(&changes); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	m, err := mdRegistry.UpdateWarehouse(c.Request().Context(), id, &changes)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"warehouse": m})
}

func DeleteWarehouse(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid warehouse ID"})
	}
	if err := mdRegistry.DeleteWarehouse(c.Request().Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "warehouse deleted"})
}

// --- bills of materials ---

func CreateBOM(c echo.Context) error {
	var req struct {
		Code           string                    `json:"code"`
		MaterialID     uint                      `json:"material_id"`
		Version        string                    `json:"version"`
		PercentageMode bool                      `json:"percentage_mode"`
		Items          []masterdata.BOMItemInput `json:"items"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.MaterialID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "material_id is required"})
	}

	bom := model.BOM{
		Code:           req.Code,
		MaterialID:     req.MaterialID,
		Version:        req.Version,
		PercentageMode: req.PercentageMode,
		IsActive:       true,
	}
	detail, err := mdRegistry.CreateBOM(c.Request().Context(), &bom, req.Items)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, detail)
}

func GetBOM(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid BOM ID"})
	}
	detail, err := mdRegistry.GetBOM(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, detail)
}

// --- batches and serials ---

func CreateBatch(c echo.Context) error {
	var b model.Batch
	if err := c.Bind(&b); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if b.MaterialID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "material_id is required"})
	}
	if err := mdRegistry.CreateBatch(c.Request().Context(), &b); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"batch": b})
}

func TransitionBatch(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid batch ID"})
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil || req.Status == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status is required"})
	}
	b, err := mdRegistry.TransitionBatch(c.Request().Context(), id, req.Status)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"batch": b})
}

func CreateSerial(c echo.Context) error {
	var s model.Serial
	if err := c.Bind(&s); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if s.MaterialID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "material_id is required"})
	}
	if err := mdRegistry.CreateSerial(c.Request().Context(), &s); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"serial": s})
}

func TransitionSerial(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid serial ID"})
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil || req.Status == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status is required"})
	}
	s, err := mdRegistry.TransitionSerial(c.Request().Context(), id, req.Status)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"serial": s})
}

// FactoryStructure returns the plant tree.
func FactoryStructure(c echo.Context) error {
	tree, err := mdRegistry.FactoryStructure(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"plants": tree})
}
