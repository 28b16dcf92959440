package position

import (
	"tradeflow/internal/consts"
	"tradeflow/internal/dao"
	"tradeflow/internal/model"
	"tradeflow/internal/position"
	"tradeflow/pkg/errors"
	"tradeflow/pkg/errors/ecode"
	"tradeflow/pkg/response"
	"tradeflow/pkg/validator"

	"github.com/gin-gonic/gin"
)

// 仓位的查询和手动操作接口

type Handler struct {
	svc       *position.Service
	positions *dao.PositionDao
	orders    *dao.OrderDao
}

func NewHandler(svc *position.Service, positions *dao.PositionDao, orders *dao.OrderDao) *Handler {
	return &Handler{svc: svc, positions: positions, orders: orders}
}

type openReq struct {
	PortfolioID int64   `json:"portfolio_id" binding:"required"`
	Symbol      string  `json:"symbol" binding:"required"`
	Side        string  `json:"side" binding:"required,oneof=buy sell"`
	OrderType   string  `json:"order_type" binding:"omitempty,oneof=market limit"`
	Quantity    float64 `json:"quantity"`
	Price       float64 `json:"price"`
	QuoteAmount float64 `json:"quote_amount"`
	TpPrice     float64 `json:"tp_price"`
	SlPrice     float64 `json:"sl_price"`
}

// Open 手动开仓，响应里带校验阶段的全部调整说明
func (h *Handler) Open() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req openReq
		if err := c.ShouldBindJSON(&req); err != nil {
			response.JSON(c, errors.WithCode(ecode.ValidateErr, validator.Translate(err)), nil)
			return
		}
		orderType := model.OrderType(req.OrderType)
		if orderType == "" {
			orderType = model.Market
		}
		intent := &model.OrderIntent{
			Symbol:      req.Symbol,
			Side:        model.OrderSide(req.Side),
			OrderType:   orderType,
			Quantity:    req.Quantity,
			Price:       req.Price,
			QuoteAmount: req.QuoteAmount,
			TPPrice:     req.TpPrice,
			SLPrice:     req.SlPrice,
			Source:      model.SourceManual,
		}
		pos, adj, err := h.svc.Open(c.Request.Context(), req.PortfolioID, intent)
		if err != nil {
			response.JSON(c, err, gin.H{"adjustments": adj})
			return
		}
		response.JSON(c, nil, gin.H{
			"position":    pos,
			"adjustments": adj,
		})
	}
}

type closeReq struct {
	PositionID int64 `json:"position_id" binding:"required"`
}

// Close 手动平仓，重复请求幂等
func (h *Handler) Close() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req closeReq
		if err := c.ShouldBindJSON(&req); err != nil {
			response.JSON(c, errors.WithCode(ecode.ValidateErr, validator.Translate(err)), nil)
			return
		}
		pos, err := h.svc.Close(c.Request.Context(), req.PositionID, consts.CloseReasonManual)
		if err != nil {
			response.JSON(c, err, nil)
			return
		}
		response.JSON(c, nil, pos)
	}
}

type listReq struct {
	PortfolioID int64 `form:"portfolio_id" binding:"required"`
	Limit       int   `form:"limit"`
	OnlyOpen    bool  `form:"only_open"`
}

// List 仓位列表，only_open=true时只看持仓中的
func (h *Handler) List() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req listReq
		if err := c.ShouldBindQuery(&req); err != nil {
			response.JSON(c, errors.WithCode(ecode.ValidateErr, validator.Translate(err)), nil)
			return
		}
		var (
			list []model.Position
			err  error
		)
		if req.OnlyOpen {
			list, err = h.positions.PositionsGetOpenByPortfolio(c.Request.Context(), req.PortfolioID)
		} else {
			list, err = h.positions.PositionsGetByPortfolio(c.Request.Context(), req.PortfolioID, req.Limit)
		}
		if err != nil {
			response.JSON(c, errors.Wrap(err, ecode.Unknown, "load positions"), nil)
			return
		}
		response.JSON(c, nil, list)
	}
}

// Orders 一个仓位下的委托记录（开仓单/平仓单）
func (h *Handler) Orders() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			PositionID int64 `form:"position_id" binding:"required"`
		}
		if err := c.ShouldBindQuery(&req); err != nil {
			response.JSON(c, errors.WithCode(ecode.ValidateErr, validator.Translate(err)), nil)
			return
		}
		list, err := h.orders.OrdersGetByPosition(c.Request.Context(), req.PositionID)
		if err != nil {
			response.JSON(c, errors.Wrap(err, ecode.Unknown, "load orders"), nil)
			return
		}
		response.JSON(c, nil, list)
	}
}
