package api

import (
	"math/big"
	"net/http"
	"strconv"

	"github.com/Tokocrypto/tko-nft-smart-contract/internal/entity"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/event"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/failure"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type orderRequest struct {
	Order     entity.SignedOrder `json:"order" validate:"required"`
	Signature string             `json:"signature" validate:"required,hexadecimal"`
	Value     *big.Int           `json:"value"`
}

type orderResponse struct {
	UniqId string    `json:"uniqId"`
	Events event.Log `json:"events"`
}

type orderStatus struct {
	UniqId   string     `json:"uniqId"`
	Consumed bool       `json:"consumed"`
	Outcome  event.Type `json:"outcome,omitempty"`
}

type blindBoxSet struct {
	Address common.Address        `json:"address"`
	Creator common.Address        `json:"creator"`
	Name    string                `json:"name"`
	Symbol  string                `json:"symbol"`
	Detail  entity.BlindBoxDetail `json:"detail"`
}

func (s Server) handleDefaultFee(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.fees.GetDefaultFee())
}

func (s Server) handleFeeFor(w http.ResponseWriter, r *http.Request) {
	contract, err := s.address(r, "contract")
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, s.fees.GetFeeFor(contract))
}

func (s Server) handleAsks(w http.ResponseWriter, r *http.Request) {
	page, err := queryUint(r, "page", 1)
	if err != nil {
		writeError(w, err)
		return
	}
	size, err := queryUint(r, "size", 20)
	if err != nil {
		writeError(w, err)
		return
	}

	var listings []entity.Listing
	switch r.URL.Query().Get("order") {
	case "", "asc":
		listings, err = s.asks.GetAsksByPage(page, size)
	case "desc":
		listings, err = s.asks.GetAsksByPageDesc(page, size)
	default:
		err = failure.New(failure.InvalidArgument, "order must be asc or desc")
	}
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, listings)
}

func (s Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	listing, err := s.asks.GetAsk(pathUint(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, listing)
}

func (s Server) handlePrice(w http.ResponseWriter, r *http.Request) {
	quote, err := s.asks.GetThePrice(pathUint(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, quote)
}

func (s Server) handleRoyalty(w http.ResponseWriter, r *http.Request) {
	contract, err := s.address(r, "contract")
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, s.orders.CustomRoyaltyFee(contract))
}

func (s Server) handleOrder(w http.ResponseWriter, r *http.Request) {
	uniqId := mux.Vars(r)["uniqId"]
	outcome, consumed := s.orders.Outcome(uniqId)

	writeJSON(w, http.StatusOK, orderStatus{UniqId: uniqId, Consumed: consumed, Outcome: outcome})
}

func (s Server) handleExecuteOrder(w http.ResponseWriter, r *http.Request) {
	caller, req, sig, err := s.orderRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	value := req.Value
	if value == nil {
		value = new(big.Int)
	}

	log, err := s.orders.ExecuteOrderMatch(r.Context(), caller, value, sig, req.Order)
	if err != nil {
		writeError(w, err)
		return
	}

	zap.L().With(zap.String("uniqId", req.Order.UniqId), zap.String("buyer", caller.Hex())).Info("Api: Order executed")
	writeJSON(w, http.StatusOK, orderResponse{UniqId: req.Order.UniqId, Events: log})
}

func (s Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	caller, req, sig, err := s.orderRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	log, err := s.orders.CancelMatch(r.Context(), caller, sig, req.Order)
	if err != nil {
		writeError(w, err)
		return
	}

	zap.L().With(zap.String("uniqId", req.Order.UniqId), zap.String("seller", caller.Hex())).Info("Api: Order cancelled")
	writeJSON(w, http.StatusOK, orderResponse{UniqId: req.Order.UniqId, Events: log})
}

func (s Server) handleBlindBoxSet(w http.ResponseWriter, r *http.Request) {
	address, err := s.address(r, "set")
	if err != nil {
		writeError(w, err)
		return
	}

	set, err := s.boxes.Set(address)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, blindBoxSet{
		Address: set.Address(),
		Creator: set.Creator(),
		Name:    set.Name(),
		Symbol:  set.Symbol(),
		Detail:  set.GetDetail(),
	})
}

func (s Server) handleBox(w http.ResponseWriter, r *http.Request) {
	address, err := s.address(r, "set")
	if err != nil {
		writeError(w, err)
		return
	}

	set, err := s.boxes.Set(address)
	if err != nil {
		writeError(w, err)
		return
	}

	box, err := set.Box(pathUint(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, box)
}

// orderRequest decodes and validates an order body along with the gateway supplied caller.
func (s Server) orderRequest(r *http.Request) (common.Address, orderRequest, entity.Signature, error) {
	var req orderRequest

	caller, err := s.caller(r)
	if err != nil {
		return common.Address{}, req, entity.Signature{}, err
	}
	if err := s.decode(r, &req); err != nil {
		return common.Address{}, req, entity.Signature{}, err
	}

	raw, err := hexutil.Decode(req.Signature)
	if err != nil {
		return common.Address{}, req, entity.Signature{}, failure.New(failure.InvalidArgument, "invalid signature: %s", err)
	}
	sig, ok := entity.SignatureFromBytes(raw)
	if !ok {
		return common.Address{}, req, entity.Signature{}, failure.New(failure.InvalidArgument, "signature must be 65 bytes")
	}

	return caller, req, sig, nil
}

func (s Server) address(r *http.Request, name string) (common.Address, error) {
	value := mux.Vars(r)[name]
	if err := s.validator.Var(value, "eth_addr"); err != nil {
		return common.Address{}, failure.New(failure.InvalidArgument, "%s is not an address", name)
	}
	return common.HexToAddress(value), nil
}

// pathUint reads an id already constrained to digits by the route.
func pathUint(r *http.Request, name string) uint64 {
	id, _ := strconv.ParseUint(mux.Vars(r)[name], 10, 64)
	return id
}

func queryUint(r *http.Request, name string, defaultValue uint64) (uint64, error) {
	value := r.URL.Query().Get(name)
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, failure.New(failure.InvalidArgument, "%s must be a positive integer", name)
	}
	return parsed, nil
}
