package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanarios/sistema-kiosco/internal/worker"
)

// JobHandler exposes the receipt dead-letter queue for operator recovery.
type JobHandler struct {
	dispatcher *worker.Dispatcher
}

func NewJobHandler(dispatcher *worker.Dispatcher) *JobHandler {
	return &JobHandler{dispatcher: dispatcher}
}

// DeadJobs lists receipt jobs that exhausted their retries.
func (h *JobHandler) DeadJobs(c *gin.Context) {
	if h.dispatcher == nil {
		c.JSON(http.StatusOK, gin.H{"data": []worker.ReceiptJob{}})
		return
	}
	jobs, err := h.dispatcher.DeadJobs(c.Request.Context(), 100)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": jobs})
}

// RetryDeadJobs requeues every dead job with a fresh attempt counter.
func (h *JobHandler) RetryDeadJobs(c *gin.Context) {
	if h.dispatcher == nil {
		c.JSON(http.StatusOK, gin.H{"requeued": 0})
		return
	}
	moved, err := h.dispatcher.RetryDeadJobs(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requeued": moved})
}
