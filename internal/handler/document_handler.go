package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"platform-service/internal/docgraph"
	"platform-service/internal/middleware"
	"platform-service/internal/model"
	"platform-service/prometheus"
)

var (
	docGraph     *docgraph.Graph
	stateMachine *docgraph.StateMachine
)

// InitDocumentHandler wires the document graph and state machine.
func InitDocumentHandler(graph *docgraph.Graph, machine *docgraph.StateMachine) {
	docGraph = graph
	stateMachine = machine
}

func pathNode(c echo.Context) (docgraph.Node, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 || c.Param("type") == "" {
		return docgraph.Node{}, false
	}
	return docgraph.Node{Type: c.Param("type"), ID: uint(id)}, true
}

// GetDocumentRelations returns a document's edges in both directions, plus
// an optional trace when ?trace=up or ?trace=down is given.
func GetDocumentRelations(c echo.Context) error {
	node, ok := pathNode(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid document reference"})
	}
	ctx := c.Request().Context()

	upstream, err := docGraph.Upstream(ctx, node)
	if err != nil {
		return respondError(c, err)
	}
	downstream, err := docGraph.Downstream(ctx, node)
	if err != nil {
		return respondError(c, err)
	}

	resp := echo.Map{"upstream": upstream, "downstream": downstream}
	if dir := c.QueryParam("trace"); dir == "up" || dir == "down" {
		depth, _ := strconv.Atoi(c.QueryParam("depth"))
		nodes, err := docGraph.Trace(ctx, node, dir == "down", depth)
		if err != nil {
			return respondError(c, err)
		}
		resp["trace"] = nodes
	}
	return c.JSON(http.StatusOK, resp)
}

// CreateDocumentRelation links two documents.
func CreateDocumentRelation(c echo.Context) error {
	var req struct {
		Source   docgraph.Node `json:"source"`
		Target   docgraph.Node `json:"target"`
		Kind     string        `json:"kind"`
		Mode     string        `json:"mode"`
		DemandID *uint         `json:"demand_id"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Mode == "" {
		req.Mode = model.RelationModeManual
	}

	err := docGraph.Link(c.Request().Context(), req.Source, req.Target, req.Kind, req.Mode,
		req.DemandID, middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "relation recorded"})
}

// TransitionDocument requests a state change on a document.
func TransitionDocument(c echo.Context) error {
	node, ok := pathNode(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid document reference"})
	}

	var req struct {
		To     string `json:"to"`
		Reason string `json:"reason"`
	}
	if err := c.Bind(&req); err != nil || req.To == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "target state is required"})
	}

	err := stateMachine.Transition(c.Request().Context(), node.Type, node.ID, req.To,
		middleware.UserID(c), req.Reason)
	if err != nil {
		return respondError(c, err)
	}
	prometheus.StateTransitionCounter.WithLabelValues(node.Type).Inc()
	return c.JSON(http.StatusOK, echo.Map{"message": "transition applied", "state": req.To})
}

// DocumentHistory returns the transition log of a document, oldest first.
func DocumentHistory(c echo.Context) error {
	node, ok := pathNode(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid document reference"})
	}
	logs, err := stateMachine.History(c.Request().Context(), node.Type, node.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"history": logs})
}
