package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"ammcore/internal/amm"
)

// Amounts cross the wire as decimal strings of 10^18-scaled base units.

type createPoolRequest struct {
	AssetA   string `json:"asset_a" binding:"required"`
	AssetB   string `json:"asset_b" binding:"required"`
	ReserveA string `json:"reserve_a" binding:"required"`
	ReserveB string `json:"reserve_b" binding:"required"`
	FeeBps   uint16 `json:"fee_bps"`
	Creator  string `json:"creator" binding:"required"`
}

type createPoolResponse struct {
	Pair          string `json:"pair"`
	GenesisShares string `json:"genesis_shares"`
}

func (s *Server) handleCreatePool(c *gin.Context) {
	var req createPoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	reserveA, err := amm.ParseAmount(req.ReserveA)
	if err != nil {
		s.fail(c, err)
		return
	}
	reserveB, err := amm.ParseAmount(req.ReserveB)
	if err != nil {
		s.fail(c, err)
		return
	}

	resp, err := s.engine.CreatePool(amm.CreatePoolRequest{
		AssetA:          amm.AssetSymbol(req.AssetA),
		AssetB:          amm.AssetSymbol(req.AssetB),
		InitialReserveA: reserveA,
		InitialReserveB: reserveB,
		FeeBps:          req.FeeBps,
		Creator:         req.Creator,
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, createPoolResponse{
		Pair:          resp.Pair.String(),
		GenesisShares: resp.GenesisShares.String(),
	})
}

type poolSummaryResponse struct {
	Pair           string `json:"pair"`
	ReserveBase    string `json:"reserve_base"`
	ReserveQuote   string `json:"reserve_quote"`
	FeeBps         uint16 `json:"fee_bps"`
	TotalShares    string `json:"total_shares"`
	SpotPrice      string `json:"spot_price"`
	VolumeBase24h  string `json:"volume_base_24h"`
	VolumeQuote24h string `json:"volume_quote_24h"`
	Status         string `json:"status"`
}

func (s *Server) handleListPools(c *gin.Context) {
	summaries := s.engine.ListPools()
	out := make([]poolSummaryResponse, 0, len(summaries))
	for _, sum := range summaries {
		out = append(out, poolSummaryResponse{
			Pair:           sum.Pair.String(),
			ReserveBase:    sum.ReserveBase.String(),
			ReserveQuote:   sum.ReserveQuote.String(),
			FeeBps:         sum.FeeBps,
			TotalShares:    sum.TotalShares.String(),
			SpotPrice:      sum.SpotPrice.String(),
			VolumeBase24h:  sum.VolumeBase24h.String(),
			VolumeQuote24h: sum.VolumeQuote24h.String(),
			Status:         string(sum.Status),
		})
	}
	c.JSON(http.StatusOK, gin.H{"pools": out})
}

type quoteResponse struct {
	AmountOut      string `json:"amount_out"`
	FeePaid        string `json:"fee_paid"`
	PriceImpactBps int64  `json:"price_impact_bps"`
	FeeBps         uint16 `json:"fee_bps"`
}

func (s *Server) handleGetQuote(c *gin.Context) {
	pair, err := amm.ParsePairID(c.Param("pair"))
	if err != nil {
		s.fail(c, err)
		return
	}
	side, err := amm.ParseSide(c.Query("direction"))
	if err != nil {
		s.fail(c, err)
		return
	}
	amountIn, err := amm.ParseAmount(c.Query("amount_in"))
	if err != nil {
		s.fail(c, err)
		return
	}

	resp, err := s.engine.GetQuote(amm.GetQuoteRequest{Pair: pair, Side: side, AmountIn: amountIn})
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, quoteResponse{
		AmountOut:      resp.AmountOut.String(),
		FeePaid:        resp.FeePaid.String(),
		PriceImpactBps: resp.PriceImpactBps,
		FeeBps:         resp.FeeBps,
	})
}

type executeTradeRequest struct {
	Direction    string `json:"direction" binding:"required"`
	AmountIn     string `json:"amount_in" binding:"required"`
	MinAmountOut string `json:"min_amount_out"`
	Trader       string `json:"trader" binding:"required"`
}

type executeTradeResponse struct {
	TradeID        uint64 `json:"trade_id"`
	AmountOut      string `json:"amount_out"`
	FeePaid        string `json:"fee_paid"`
	PriceImpactBps int64  `json:"price_impact_bps"`
	NewSpotPrice   string `json:"new_spot_price"`
}

func (s *Server) handleExecuteTrade(c *gin.Context) {
	pair, err := amm.ParsePairID(c.Param("pair"))
	if err != nil {
		s.fail(c, err)
		return
	}

	var req executeTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	side, err := amm.ParseSide(req.Direction)
	if err != nil {
		s.fail(c, err)
		return
	}
	amountIn, err := amm.ParseAmount(req.AmountIn)
	if err != nil {
		s.fail(c, err)
		return
	}
	minOut := amm.ZeroAmount()
	if req.MinAmountOut != "" {
		if minOut, err = amm.ParseAmount(req.MinAmountOut); err != nil {
			s.fail(c, err)
			return
		}
	}

	resp, err := s.engine.ExecuteTrade(c.Request.Context(), amm.ExecuteTradeRequest{
		Pair:         pair,
		Side:         side,
		AmountIn:     amountIn,
		MinAmountOut: minOut,
		Trader:       req.Trader,
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, executeTradeResponse{
		TradeID:        resp.Trade.TradeID,
		AmountOut:      resp.Trade.AmountOut.String(),
		FeePaid:        resp.Trade.FeePaid.String(),
		PriceImpactBps: resp.Trade.PriceImpactBps,
		NewSpotPrice:   resp.NewSpotPrice.String(),
	})
}

type addLiquidityRequest struct {
	AmountBase  string `json:"amount_base" binding:"required"`
	AmountQuote string `json:"amount_quote" binding:"required"`
	Provider    string `json:"provider" binding:"required"`
}

type addLiquidityResponse struct {
	SharesMinted string `json:"shares_minted"`
	RefundBase   string `json:"refund_base"`
	RefundQuote  string `json:"refund_quote"`
}

func (s *Server) handleAddLiquidity(c *gin.Context) {
	pair, err := amm.ParsePairID(c.Param("pair"))
	if err != nil {
		s.fail(c, err)
		return
	}

	var req addLiquidityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	amountBase, err := amm.ParseAmount(req.AmountBase)
	if err != nil {
		s.fail(c, err)
		return
	}
	amountQuote, err := amm.ParseAmount(req.AmountQuote)
	if err != nil {
		s.fail(c, err)
		return
	}

	resp, err := s.engine.AddLiquidity(c.Request.Context(), amm.AddLiquidityRequest{
		Pair:        pair,
		AmountBase:  amountBase,
		AmountQuote: amountQuote,
		Provider:    req.Provider,
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, addLiquidityResponse{
		SharesMinted: resp.SharesMinted.String(),
		RefundBase:   resp.RefundBase.String(),
		RefundQuote:  resp.RefundQuote.String(),
	})
}

type removeLiquidityRequest struct {
	Shares   string `json:"shares" binding:"required"`
	Provider string `json:"provider" binding:"required"`
}

type removeLiquidityResponse struct {
	AmountBase  string `json:"amount_base"`
	AmountQuote string `json:"amount_quote"`
}

func (s *Server) handleRemoveLiquidity(c *gin.Context) {
	pair, err := amm.ParsePairID(c.Param("pair"))
	if err != nil {
		s.fail(c, err)
		return
	}

	var req removeLiquidityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	shares, err := amm.ParseAmount(req.Shares)
	if err != nil {
		s.fail(c, err)
		return
	}

	resp, err := s.engine.RemoveLiquidity(c.Request.Context(), amm.RemoveLiquidityRequest{
		Pair:     pair,
		Shares:   shares,
		Provider: req.Provider,
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, removeLiquidityResponse{
		AmountBase:  resp.AmountBase.String(),
		AmountQuote: resp.AmountQuote.String(),
	})
}

func (s *Server) handlePause(c *gin.Context) {
	s.handleTransition(c, s.engine.PausePool)
}

func (s *Server) handleResume(c *gin.Context) {
	s.handleTransition(c, s.engine.ResumePool)
}

func (s *Server) handleRetire(c *gin.Context) {
	s.handleTransition(c, s.engine.RetirePool)
}

func (s *Server) handleTransition(c *gin.Context, op func(ctx context.Context, pair amm.PairID) error) {
	pair, err := amm.ParsePairID(c.Param("pair"))
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := op(c.Request.Context(), pair); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pair": pair.String(), "status": "ok"})
}

type tradeResponse struct {
	TradeID        uint64 `json:"trade_id"`
	Pair           string `json:"pair"`
	Side           string `json:"side"`
	AmountIn       string `json:"amount_in"`
	AmountOut      string `json:"amount_out"`
	FeePaid        string `json:"fee_paid"`
	PriceImpactBps int64  `json:"price_impact_bps"`
	Trader         string `json:"trader"`
	Timestamp      int64  `json:"timestamp"`
}

func (s *Server) handleTradeHistory(c *gin.Context) {
	req := amm.TradeHistoryRequest{Trader: c.Query("trader")}

	if raw := c.Query("pair"); raw != "" {
		pair, err := amm.ParsePairID(raw)
		if err != nil {
			s.fail(c, err)
			return
		}
		req.Pair = &pair
	}
	if raw := c.Query("since"); raw != "" {
		unix, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "since must be unix seconds"})
			return
		}
		req.Since = time.Unix(unix, 0).UTC()
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit must be a non-negative integer"})
			return
		}
		req.Limit = limit
	}

	trades, err := s.engine.GetTradeHistory(req)
	if err != nil {
		s.fail(c, err)
		return
	}

	out := make([]tradeResponse, 0, len(trades))
	for _, rec := range trades {
		out = append(out, tradeResponse{
			TradeID:        rec.TradeID,
			Pair:           rec.Pair.String(),
			Side:           string(rec.Side),
			AmountIn:       rec.AmountIn.String(),
			AmountOut:      rec.AmountOut.String(),
			FeePaid:        rec.FeePaid.String(),
			PriceImpactBps: rec.PriceImpactBps,
			Trader:         rec.Trader,
			Timestamp:      rec.Timestamp.Unix(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"trades": out})
}
