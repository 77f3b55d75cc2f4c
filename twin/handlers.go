package twin

import (
	"errors"
	"net/http"

	"ciet/network"

	"github.com/gin-gonic/gin"
)

// valueRequest 数值写入请求
type valueRequest struct {
	Value *float64 `json:"value" binding:"required"`
}

// valveRequest 阀门写入请求
type valveRequest struct {
	Open *bool `json:"open" binding:"required"`
}

// solveResponse 按需求解结果
type solveResponse struct {
	RunID    string             `json:"run_id"`
	Pressure float64            `json:"pressure"`
	Flows    map[string]float64 `json:"flows"`
	Iter     int                `json:"iter"`
	Elapsed  float64            `json:"calculation_time_ms"`
}

func abort(c *gin.Context, status int, err error) {
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func (host *Host) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "id": host.ID})
}

func (host *Host) variables(c *gin.Context) {
	c.JSON(http.StatusOK, host.Vars.Snapshot())
}

func (host *Host) setPumpPressure(c *gin.Context) {
	var req valueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	if err := host.Vars.SetPumpPressure(*req.Value); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	c.JSON(http.StatusOK, host.Vars.Snapshot().Inputs)
}

func (host *Host) setTemperature(c *gin.Context) {
	var req valueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	if err := host.Vars.SetTemperature(*req.Value); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	c.JSON(http.StatusOK, host.Vars.Snapshot().Inputs)
}

func (host *Host) setValve(c *gin.Context) {
	var req valveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	if err := host.Vars.SetValve(c.Param("branch"), *req.Open); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, ErrBranch) {
			status = http.StatusNotFound
		}
		abort(c, status, err)
		return
	}
	c.JSON(http.StatusOK, host.Vars.Snapshot().Inputs)
}

func (host *Host) solve(c *gin.Context) {
	if !host.limiter.Allow() {
		host.Metrics.Limited.Inc()
		abort(c, http.StatusTooManyRequests, errors.New("求解请求过于频繁"))
		return
	}
	runID, res, err := host.step(c.Request.Context(), triggerDemand)
	if err != nil {
		status := http.StatusUnprocessableEntity
		if errors.Is(err, network.ErrInput) {
			status = http.StatusBadRequest
		}
		abort(c, status, err)
		return
	}
	out := solveResponse{
		RunID:    runID,
		Pressure: res.Pressure,
		Flows:    make(map[string]float64, len(res.Names)),
		Iter:     res.Iter,
		Elapsed:  float64(res.Elapsed.Microseconds()) / 1000,
	}
	for i, name := range res.Names {
		out.Flows[name] = res.Flows[i]
	}
	c.JSON(http.StatusOK, out)
}
