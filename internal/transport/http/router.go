package pyramidhttp

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"pyramid/internal/calendar"
	"pyramid/internal/config"
	"pyramid/internal/executor"
	"pyramid/internal/ledger"
	"pyramid/internal/logger"
	"pyramid/internal/market"
	"pyramid/internal/pending"
	"pyramid/internal/pkg/stock"
	"pyramid/internal/strategy"

	"github.com/gin-gonic/gin"
)

// Router 聚合全部请求处理依赖。所有成员在进程启动时构造一次，
// 按引用注入，不存在任何全局状态。
type Router struct {
	Market   market.Source
	Cal      calendar.Calendar
	Ledger   *ledger.Store
	Trader   *executor.Trader
	Sched    *pending.Scheduler
	Strategy config.StrategyConfig
}

// Register 把路由挂载到 /api 分组下。
func (r *Router) Register(group *gin.RouterGroup) {
	if group == nil {
		return
	}
	group.GET("/health", r.handleHealth)
	group.POST("/analyze", r.handleAnalyze)
	group.POST("/execute", r.handleExecute)
	group.GET("/history", r.handleHistory)
	group.GET("/statistics", r.handleStatistics)
	group.GET("/order/:id", r.handleGetOrder)
	group.DELETE("/order/:id", r.handleDeleteOrder)
	group.POST("/scheduler/check", r.handleSchedulerCheck)
	group.POST("/scheduler/reload", r.handleSchedulerReload)
}

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"success": false, "message": msg})
}

func (r *Router) handleHealth(c *gin.Context) {
	ok(c, gin.H{
		"executor":               r.Trader.State(),
		"calendar_authoritative": r.Cal.Authoritative(),
		"trading_day":            r.Cal.IsTradingDay(time.Now()),
	})
}

type analyzeRequest struct {
	Stock       string  `json:"stock_code" binding:"required"`
	TotalAmount float64 `json:"total_amount" binding:"required"`
}

// analyzeResponse 在计划之上平铺台账记录号。
type analyzeResponse struct {
	strategy.OrderPlan
	OrderID string `json:"order_id"`
}

// handleAnalyze 生成建仓计划并记入台账。只计算，不下单。
func (r *Router) handleAnalyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "参数非法: "+err.Error())
		return
	}
	code, err := stock.Normalize(req.Stock)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	logger.Infof("http: 分析 %s 总金额 %.2f", code, req.TotalAmount)

	win, err := strategy.FindSpikeWindow(c.Request.Context(), r.Market, code,
		r.Strategy.LookbackDays, r.Strategy.SpikeThreshold)
	if err != nil {
		if errors.Is(err, strategy.ErrNoSpike) {
			fail(c, http.StatusNotFound, "回看窗口内未找到涨停日")
		} else {
			fail(c, http.StatusBadGateway, err.Error())
		}
		return
	}
	levels := strategy.ComputeLevels(win.High, win.Low)
	plan, err := strategy.BuildPlan(code, req.TotalAmount, win, levels, r.Strategy.Stages)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	recordID, err := r.Ledger.Save(c.Request.Context(), plan)
	if err != nil {
		logger.Errorf("http: 保存台账失败: %v", err)
		fail(c, http.StatusInternalServerError, "保存订单记录失败: "+err.Error())
		return
	}
	ok(c, analyzeResponse{OrderPlan: plan, OrderID: recordID})
}

type executeRequest struct {
	Stock  string `json:"stock_code" binding:"required"`
	Orders []struct {
		Price  float64 `json:"price"`
		Amount float64 `json:"amount"`
	} `json:"orders" binding:"required"`
}

// handleExecute 对调用方确认后的订单列表逐笔下单。
func (r *Router) handleExecute(c *gin.Context) {
	var req executeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "参数非法: "+err.Error())
		return
	}
	code, err := stock.Normalize(req.Stock)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Orders) == 0 {
		fail(c, http.StatusBadRequest, "没有有效的订单")
		return
	}
	logger.Infof("http: 执行订单 %s 共 %d 笔", code, len(req.Orders))

	batch := make([]executor.BatchOrder, 0, len(req.Orders))
	for _, o := range req.Orders {
		batch = append(batch, executor.BatchOrder{Stock: code, Price: o.Price, Amount: o.Amount})
	}
	results := r.Trader.BatchPlaceOrders(c.Request.Context(), batch)
	succeeded := 0
	for _, res := range results {
		if res.Success {
			succeeded++
		}
	}
	ok(c, gin.H{
		"total":   len(results),
		"success": succeeded,
		"failed":  len(results) - succeeded,
		"results": results,
	})
}

func (r *Router) handleHistory(c *gin.Context) {
	ctx := c.Request.Context()
	if code := c.Query("stock_code"); code != "" {
		normalized, err := stock.Normalize(code)
		if err != nil {
			fail(c, http.StatusBadRequest, err.Error())
			return
		}
		records, err := r.Ledger.GetByStock(ctx, normalized)
		if err != nil {
			fail(c, http.StatusInternalServerError, err.Error())
			return
		}
		ok(c, records)
		return
	}
	limit := 10
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			fail(c, http.StatusBadRequest, "limit 非法: "+raw)
			return
		}
		limit = n
	}
	records, err := r.Ledger.GetRecent(ctx, limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	ok(c, records)
}

func (r *Router) handleStatistics(c *gin.Context) {
	stats, err := r.Ledger.GetStatistics(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	ok(c, stats)
}

func (r *Router) handleGetOrder(c *gin.Context) {
	rec, err := r.Ledger.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			fail(c, http.StatusNotFound, "记录不存在")
			return
		}
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	ok(c, rec)
}

func (r *Router) handleDeleteOrder(c *gin.Context) {
	if err := r.Ledger.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			fail(c, http.StatusNotFound, "记录不存在")
			return
		}
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	ok(c, gin.H{"deleted": c.Param("id")})
}

// handleSchedulerCheck 手工触发一次未成交抓取。
func (r *Router) handleSchedulerCheck(c *gin.Context) {
	n, err := r.Sched.CheckNow(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	ok(c, gin.H{"captured": n})
}

// handleSchedulerReload 手工触发一次重报。
func (r *Router) handleSchedulerReload(c *gin.Context) {
	n, err := r.Sched.ReloadNow(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	ok(c, gin.H{"resubmitted": n})
}
