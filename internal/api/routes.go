package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"maker/internal/common"
	"maker/internal/hash"
	"maker/internal/hashlock"
	"maker/internal/manager"
	"maker/internal/order"
	"maker/internal/signer"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"go.uber.org/zap"
)

func (s *APIServer) RegisterRoutes() http.Handler {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	router.GET("/quoter/v1.0/quote/receive", s.GetQuote)
	router.POST("/relayer/v1.0/submit", s.SubmitOrder)
	router.POST("/relayer/v1.0/submit/secret", s.SubmitSecret)
	router.GET("/orders/v1.0/order/active", s.GetActiveOrders)
	router.GET("/orders/v1.0/order/ready-to-accept-secret-fills/:orderHash", s.GetReadyToAcceptSecretFills)
	router.GET("/orders/v1.0/order/status/:orderHash", s.GetOrderStatus)
	// Wrap the router with CORS middleware
	return s.corsMiddleware(router)
}

func (s *APIServer) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-CSRF-Token")
		w.Header().Set("Access-Control-Allow-Credentials", "false")

		// Handle preflight OPTIONS requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *APIServer) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

func (s *APIServer) reject(c *gin.Context, status int, msg string, err error) {
	fields := []zap.Field{zap.String("path", c.FullPath()), zap.Int("status", status)}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	s.logger.Warn(msg, fields...)
	c.JSON(status, gin.H{"error": msg})
}

func (s *APIServer) GetQuote(c *gin.Context) {
	var params common.QuoteRequestParams
	if err := s.decoder.Decode(&params, c.Request.URL.Query()); err != nil {
		s.reject(c, http.StatusBadRequest, "Invalid query parameters", err)
		return
	}
	if params.Amount == "" || params.SrcChain == params.DstChain {
		s.reject(c, http.StatusBadRequest, "No route for the requested pair", nil)
		return
	}

	var quoteResponse common.Quote
	if s.upstream != nil {
		quote, err := s.upstream.GetQuote(c.Request.Context(), params)
		if err != nil {
			status := http.StatusBadGateway
			switch {
			case errors.Is(err, common.ErrQuoteUnavailable):
				status = http.StatusBadRequest
			case errors.Is(err, common.ErrRateLimited):
				status = http.StatusTooManyRequests
			}
			s.reject(c, status, "Failed to fetch quote", err)
			return
		}
		quoteResponse = *quote
	} else {
		quoteResponse = devQuote(s.defaultQuote, params)
		quoteResponse.QuoteID = uuid.New()
	}

	if err := s.manager.SetQuote(manager.QuoteEntry{
		QuoteID:      quoteResponse.QuoteID,
		QuoteRequest: &params,
		Quote:        &quoteResponse,
	}); err != nil {
		s.reject(c, http.StatusInternalServerError, "Failed to store quote", err)
		return
	}

	c.JSON(http.StatusOK, quoteResponse)
}

// presetFor picks the preset an order with n secrets was built from,
// preferring the recommended one.
func presetFor(quote *common.Quote, n int) (common.PresetData, bool) {
	if p, ok := quote.Presets[quote.RecommendedPreset]; ok && p.SecretsCount == n {
		return p, true
	}
	for _, p := range quote.Presets {
		if p.SecretsCount == n {
			return p, true
		}
	}
	return common.PresetData{}, false
}

func parseSecretHashes(raw []string) ([]ethcommon.Hash, error) {
	hashes := make([]ethcommon.Hash, len(raw))
	for i, h := range raw {
		b, err := hexutil.Decode(h)
		if err != nil || len(b) != ethcommon.HashLength {
			return nil, errors.New("secret hash is not 32 bytes of hex")
		}
		hashes[i] = ethcommon.BytesToHash(b)
	}
	return hashes, nil
}

// verifyExtension checks that the extension bound to the signed order by its
// salt carries the advertised hash-lock.
func verifyExtension(req *common.SubmitOrderRequest, lock ethcommon.Hash) error {
	ext, err := hexutil.Decode(req.Extension)
	if err != nil {
		return fmt.Errorf("invalid extension hex: %w", err)
	}
	salt, err := uint256.FromDecimal(req.LimitOrder.Salt)
	if err != nil {
		return fmt.Errorf("invalid salt: %w", err)
	}
	if !order.SaltCommitsTo(salt, ext) {
		return errors.New("salt does not commit to the extension")
	}
	extLock, err := order.ExtensionHashLock(ext)
	if err != nil {
		return err
	}
	if extLock != lock {
		return fmt.Errorf("extension hash lock %s, advertised %s", extLock.Hex(), lock.Hex())
	}
	return nil
}

func verifySignature(req *common.SubmitOrderRequest, payload hash.SigningPayload) error {
	if !req.SrcChainID.IsEVM() {
		return nil
	}
	sig, err := hexutil.Decode(req.Signature)
	if err != nil {
		return err
	}
	signerAddr, err := signer.Recover(payload.RawData, sig)
	if err != nil {
		return err
	}
	if signerAddr != ethcommon.HexToAddress(req.LimitOrder.Maker) {
		return errors.New("order not signed by maker")
	}
	return nil
}

func (s *APIServer) SubmitOrder(c *gin.Context) {
	req := common.SubmitOrderRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		s.reject(c, http.StatusBadRequest, "Invalid order data", err)
		return
	}

	quote, err := s.manager.GetQuote(req.QuoteID.String())
	if err != nil {
		s.reject(c, http.StatusBadRequest, "Unknown or expired quote", err)
		return
	}

	preset, ok := presetFor(quote.Quote, len(req.SecretHashes))
	if !ok {
		s.reject(c, http.StatusBadRequest, "Secret hash count does not match the quote", nil)
		return
	}

	hashes, err := parseSecretHashes(req.SecretHashes)
	if err != nil {
		s.reject(c, http.StatusBadRequest, "Invalid secret hashes", err)
		return
	}
	lock, err := hashlock.Build(hashes)
	if err != nil || !strings.EqualFold(lock.Value().Hex(), req.HashLock) {
		s.reject(c, http.StatusBadRequest, "Hash lock does not commit to the secret hashes", err)
		return
	}
	if err := verifyExtension(&req, lock.Value()); err != nil {
		s.reject(c, http.StatusBadRequest, "Extension does not carry the hash lock", err)
		return
	}

	payload, err := hash.GetSigningPayload(req.SrcChainID, req.LimitOrder)
	if err != nil {
		s.reject(c, http.StatusBadRequest, "Failed to compute order hash", err)
		return
	}
	if err := verifySignature(&req, payload); err != nil {
		s.reject(c, http.StatusBadRequest, "Invalid signature", err)
		return
	}

	if _, err := s.manager.ConsumeQuote(req.QuoteID.String()); err != nil {
		s.reject(c, http.StatusBadRequest, "Quote already used", err)
		return
	}

	orderHash := payload.Hash.Hex()
	now := time.Now()
	auctionStart := now.Add(time.Duration(preset.StartAuctionIn) * time.Second)

	entry := manager.NewOrderEntry(orderHash, &req, &common.OrderStatus{
		OrderHash:           orderHash,
		Status:              common.OrderStatusPending,
		Order:               &req.LimitOrder,
		Extension:           req.Extension,
		Points:              preset.Points,
		CreatedAt:           now.Format(time.RFC3339),
		AuctionStartDate:    auctionStart.Unix(),
		AuctionDuration:     preset.AuctionDuration,
		InitialRateBump:     preset.InitialRateBump,
		FromTokenToUsdPrice: quote.Quote.Prices.USD.SrcToken,
		ToTokenToUsdPrice:   quote.Quote.Prices.USD.DstToken,
	})
	entry.QuoteRequest = quote.QuoteRequest
	entry.Deadline = auctionStart.Add(time.Duration(preset.AuctionDuration) * time.Second)

	if err := s.manager.SetOrder(entry, quote.Quote); err != nil {
		s.reject(c, http.StatusConflict, "Order already submitted", err)
		return
	}

	if err := s.manager.HandleOrderEvent(entry); err != nil {
		s.logger.Error("failed to broadcast order", zap.String("order_hash", orderHash), zap.Error(err))
	}

	s.logger.Info("order accepted",
		zap.String("order_hash", orderHash),
		zap.String("quote_id", req.QuoteID.String()),
		zap.Int("secrets_count", len(req.SecretHashes)),
	)
	c.JSON(http.StatusCreated, gin.H{"orderHash": orderHash})
}

func (s *APIServer) SubmitSecret(c *gin.Context) {
	secret := common.SecretSubmission{}
	if err := c.ShouldBindJSON(&secret); err != nil {
		s.reject(c, http.StatusBadRequest, "Invalid secret submission", err)
		return
	}

	idx, err := s.manager.HandleSecretEvent(secret)
	switch {
	case errors.Is(err, manager.ErrOrderNotFound):
		s.reject(c, http.StatusNotFound, "Order not found", err)
		return
	case err != nil:
		s.reject(c, http.StatusBadRequest, "Secret not accepted", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"orderHash": secret.OrderHash, "idx": idx})
}

func (s *APIServer) GetActiveOrders(c *gin.Context) {
	var params common.ActiveOrdersParams
	if err := s.decoder.Decode(&params, c.Request.URL.Query()); err != nil {
		s.reject(c, http.StatusBadRequest, "Invalid query parameters", err)
		return
	}
	if params.Page < 0 || params.Limit < 0 {
		s.reject(c, http.StatusBadRequest, "Page and limit must be positive", nil)
		return
	}
	if params.Page == 0 {
		params.Page = 1
	}
	if params.Limit == 0 {
		params.Limit = 2
	}

	c.JSON(http.StatusOK, s.manager.ActiveOrders(params.Page, params.Limit))
}

func (s *APIServer) GetOrderStatus(c *gin.Context) {
	orderEntry, err := s.manager.GetOrder(c.Param("orderHash"))
	if err != nil {
		s.reject(c, http.StatusNotFound, "Order not found", err)
		return
	}

	c.JSON(http.StatusOK, orderEntry.Status())
}

func (s *APIServer) GetReadyToAcceptSecretFills(c *gin.Context) {
	orderEntry, err := s.manager.GetOrder(c.Param("orderHash"))
	if err != nil {
		s.reject(c, http.StatusNotFound, "Order not found", err)
		return
	}

	c.JSON(http.StatusOK, common.ReadyToAcceptSecretFills{
		Fills: orderEntry.ReadyFills(),
	})
}
