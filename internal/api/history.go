package api

import (
	"net/http"

	"github.com/Tokocrypto/tko-nft-smart-contract/internal/event"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/failure"
	"github.com/ethereum/go-ethereum/common"
)

const maxPageSize = 100

func (s Server) handleSellerAsks(w http.ResponseWriter, r *http.Request) {
	seller, err := s.address(r, "seller")
	if err != nil {
		writeError(w, err)
		return
	}
	size, err := pageSize(r)
	if err != nil {
		writeError(w, err)
		return
	}

	listings, err := s.listings.GetListingsBySeller(r.Context(), seller, r.URL.Query().Get("active") == "true", size)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, listings)
}

func (s Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	var emitter common.Address
	if value := r.URL.Query().Get("emitter"); value != "" {
		if err := s.validator.Var(value, "eth_addr"); err != nil {
			writeError(w, failure.New(failure.InvalidArgument, "emitter is not an address"))
			return
		}
		emitter = common.HexToAddress(value)
	}

	from, err := queryUint(r, "from", 0)
	if err != nil {
		writeError(w, err)
		return
	}
	size, err := pageSize(r)
	if err != nil {
		writeError(w, err)
		return
	}

	events, err := s.events.GetEvents(r.Context(), event.Type(r.URL.Query().Get("type")), emitter, int(from), size)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, events)
}

func pageSize(r *http.Request) (int, error) {
	size, err := queryUint(r, "size", 20)
	if err != nil {
		return 0, err
	}
	if size == 0 || size > maxPageSize {
		return 0, failure.New(failure.InvalidArgument, "size must be between 1 and %d", maxPageSize)
	}
	return int(size), nil
}
