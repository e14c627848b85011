package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/avelkine/edushelf/internal/appstate"
	"github.com/avelkine/edushelf/internal/assignments"
)

// deadlineFormat is the unambiguous absolute-date representation assignments
// are submitted with.
const deadlineFormat = "2006-01-02"

// AssignmentsController manages the study-task list.
type AssignmentsController struct {
	store *appstate.Store
}

func NewAssignmentsController(store *appstate.Store) *AssignmentsController {
	return &AssignmentsController{store: store}
}

// List returns all assignments in creation order.
// GET /api/assignments
func (ac *AssignmentsController) List(c *gin.Context) {
	snapshot := ac.store.Snapshot()
	c.JSON(http.StatusOK, gin.H{"assignments": snapshot.Assignments})
}

type createAssignmentRequest struct {
	Title       string `json:"title"`
	Subject     string `json:"subject"`
	Description string `json:"description"`
	Deadline    string `json:"deadline"` // YYYY-MM-DD
}

// Create adds a study task. Past deadlines are accepted; the client decides
// whether to discourage them.
// POST /api/assignments
func (ac *AssignmentsController) Create(c *gin.Context) {
	var req createAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	deadline, err := time.Parse(deadlineFormat, req.Deadline)
	if err != nil {
		respondBadRequest(c, "deadline must be a YYYY-MM-DD date")
		return
	}

	assignment, err := ac.store.CreateAssignment(req.Title, req.Subject, req.Description, deadline)
	if err != nil {
		if errors.Is(err, assignments.ErrTitleRequired) {
			respondBadRequest(c, err.Error())
			return
		}
		respondInternalError(c, err, "create assignment")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"assignment": assignment})
}
