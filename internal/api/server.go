package api

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"

	"github.com/Tokocrypto/tko-nft-smart-contract/internal/access"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/blindbox"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/entity"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/event"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/repository"
	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

// CallerHeader carries the authenticated account set by the gateway in front of the API.
const CallerHeader = "X-Caller-Address"

type Fees interface {
	GetDefaultFee() entity.FeeConfig
	GetFeeFor(contract common.Address) entity.FeeConfig
	SetDefaultFee(ctx context.Context, caller common.Address, fee entity.FeeConfig) (event.Log, error)
	SetFeeFor(ctx context.Context, caller, contract common.Address, marketplaceBps, ownerBps, merchantBps uint64) (event.Log, error)
	RemoveFeeFor(ctx context.Context, caller, contract common.Address) (event.Log, error)
}

type Asks interface {
	GetAsk(id uint64) (entity.Listing, error)
	GetAsksByPage(page, size uint64) ([]entity.Listing, error)
	GetAsksByPageDesc(page, size uint64) ([]entity.Listing, error)
	GetThePrice(id uint64) (entity.Quote, error)

	SellNFTBatch(ctx context.Context, caller, contract common.Address, tokenIds []*big.Int, price *big.Int) ([]uint64, event.Log, error)
	SetCurrentPrice(ctx context.Context, caller common.Address, id uint64, price *big.Int) (event.Log, error)
	CancelSellNFT(ctx context.Context, caller common.Address, id uint64) (event.Log, error)
	BuyNFT(ctx context.Context, caller common.Address, id uint64) (event.Log, error)
	SuspendNFT(ctx context.Context, caller common.Address, id uint64) (event.Log, error)
	UnsuspendNFT(ctx context.Context, caller common.Address, id uint64) (event.Log, error)
	SuspendCollector(ctx context.Context, caller, collector common.Address) (event.Log, error)
	UnsuspendCollector(ctx context.Context, caller, collector common.Address) (event.Log, error)

	AddContractNFT(ctx context.Context, caller, contract common.Address) (event.Log, error)
	RemoveContractNFT(ctx context.Context, caller, contract common.Address) (event.Log, error)
	Pause(ctx context.Context, caller common.Address) (event.Log, error)
	Unpause(ctx context.Context, caller common.Address) (event.Log, error)
	GrantRole(ctx context.Context, caller common.Address, role access.Role, account common.Address) (event.Log, error)
	RevokeRole(ctx context.Context, caller common.Address, role access.Role, account common.Address) (event.Log, error)
}

type Orders interface {
	ExecuteOrderMatch(ctx context.Context, caller common.Address, value *big.Int, sig entity.Signature, order entity.SignedOrder) (event.Log, error)
	CancelMatch(ctx context.Context, caller common.Address, sig entity.Signature, order entity.SignedOrder) (event.Log, error)
	Outcome(uniqId string) (event.Type, bool)
	CustomRoyaltyFee(contractNFT common.Address) entity.RoyaltyFee
	SetRoyaltyFee(ctx context.Context, caller, contractNFT, receiver common.Address, bps uint64) (event.Log, error)
	AddToken(ctx context.Context, caller, token common.Address) (event.Log, error)
	RemoveToken(ctx context.Context, caller, token common.Address) (event.Log, error)
}

type BlindBoxes interface {
	Set(address common.Address) (*blindbox.Set, error)
	CreateBlindBoxSet(ctx context.Context, caller common.Address, name, symbol string, maxAssetPerBox uint64) (common.Address, event.Log, error)
}

type Collections interface {
	CreateNft(ctx context.Context, caller common.Address, name, symbol string) (common.Address, event.Log, error)
	GetNfts() []common.Address
	GetNftsByUser(user common.Address) []common.Address
}

type PriceFeed interface {
	UpdatePrice(ctx context.Context, caller common.Address, answer *big.Int) (event.Log, error)
	LatestRoundData() (entity.PriceRound, error)
}

type Server struct {
	fees      Fees
	asks      Asks
	orders    Orders
	boxes     BlindBoxes
	nfts      Collections
	feed      PriceFeed
	listings  repository.ListingRepository
	events    repository.EventRepository
	validator *validator.Validate
}

func NewServer(fees Fees, asks Asks, orders Orders, boxes BlindBoxes) Server {
	return Server{fees: fees, asks: asks, orders: orders, boxes: boxes, validator: validator.New()}
}

// WithHistory enables the routes served from the search index.
func (s Server) WithHistory(listings repository.ListingRepository, events repository.EventRepository) Server {
	s.listings = listings
	s.events = events
	return s
}

// WithCollections enables the NFT factory routes.
func (s Server) WithCollections(nfts Collections) Server {
	s.nfts = nfts
	return s
}

// WithPriceFeed enables the price feed routes.
func (s Server) WithPriceFeed(feed PriceFeed) Server {
	s.feed = feed
	return s
}

func (s Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods("GET")

	r.HandleFunc("/fees/default", s.handleDefaultFee).Methods("GET")
	r.HandleFunc("/fees/default", s.handleSetDefaultFee).Methods("PUT")
	r.HandleFunc("/fees/{contract}", s.handleFeeFor).Methods("GET")
	r.HandleFunc("/fees/{contract}", s.handleSetFeeFor).Methods("PUT")
	r.HandleFunc("/fees/{contract}", s.handleRemoveFeeFor).Methods("DELETE")

	r.HandleFunc("/contracts/{contract}", s.handleContractNFT(true)).Methods("PUT")
	r.HandleFunc("/contracts/{contract}", s.handleContractNFT(false)).Methods("DELETE")
	r.HandleFunc("/marketplace/pause", s.handlePause(true)).Methods("POST")
	r.HandleFunc("/marketplace/unpause", s.handlePause(false)).Methods("POST")
	r.HandleFunc("/roles/{role}/{account}", s.handleRole(true)).Methods("PUT")
	r.HandleFunc("/roles/{role}/{account}", s.handleRole(false)).Methods("DELETE")

	r.HandleFunc("/asks", s.handleAsks).Methods("GET")
	r.HandleFunc("/asks", s.handleSell).Methods("POST")
	r.HandleFunc("/asks/{id:[0-9]+}", s.handleAsk).Methods("GET")
	r.HandleFunc("/asks/{id:[0-9]+}", s.handleCancelSell).Methods("DELETE")
	r.HandleFunc("/asks/{id:[0-9]+}/price", s.handlePrice).Methods("GET")
	r.HandleFunc("/asks/{id:[0-9]+}/price", s.handleSetPrice).Methods("PUT")
	r.HandleFunc("/asks/{id:[0-9]+}/buy", s.handleBuy).Methods("POST")
	r.HandleFunc("/asks/{id:[0-9]+}/suspension", s.handleSuspendNFT(true)).Methods("PUT")
	r.HandleFunc("/asks/{id:[0-9]+}/suspension", s.handleSuspendNFT(false)).Methods("DELETE")
	r.HandleFunc("/collectors/{collector}/suspension", s.handleSuspendCollector(true)).Methods("PUT")
	r.HandleFunc("/collectors/{collector}/suspension", s.handleSuspendCollector(false)).Methods("DELETE")

	r.HandleFunc("/tokens/{token}", s.handleToken(true)).Methods("PUT")
	r.HandleFunc("/tokens/{token}", s.handleToken(false)).Methods("DELETE")
	r.HandleFunc("/royalties/{contract}", s.handleRoyalty).Methods("GET")
	r.HandleFunc("/royalties/{contract}", s.handleSetRoyalty).Methods("PUT")
	r.HandleFunc("/orders/execute", s.handleExecuteOrder).Methods("POST")
	r.HandleFunc("/orders/cancel", s.handleCancelOrder).Methods("POST")
	r.HandleFunc("/orders/{uniqId}", s.handleOrder).Methods("GET")

	r.HandleFunc("/blindboxes", s.handleCreateBlindBoxSet).Methods("POST")
	r.HandleFunc("/blindboxes/{set}", s.handleBlindBoxSet).Methods("GET")
	r.HandleFunc("/blindboxes/{set}/boxes/{id:[0-9]+}", s.handleBox).Methods("GET")
	r.HandleFunc("/blindboxes/{set}/mint", s.handleMintBoxes).Methods("POST")
	r.HandleFunc("/blindboxes/{set}/burn", s.handleBurnBoxes).Methods("POST")
	r.HandleFunc("/blindboxes/{set}/open", s.handleOpenBoxes).Methods("POST")
	r.HandleFunc("/blindboxes/{set}/transfer", s.handleTransferBoxes).Methods("POST")
	r.HandleFunc("/blindboxes/{set}/approvals", s.handleBoxApproval).Methods("PUT")

	if s.nfts != nil {
		r.HandleFunc("/nfts", s.handleNfts).Methods("GET")
		r.HandleFunc("/nfts", s.handleCreateNft).Methods("POST")
	}
	if s.feed != nil {
		r.HandleFunc("/prices/latest", s.handleLatestPrice).Methods("GET")
		r.HandleFunc("/prices", s.handleUpdatePrice).Methods("POST")
	}

	if s.listings != nil && s.events != nil {
		r.HandleFunc("/sellers/{seller}/asks", s.handleSellerAsks).Methods("GET")
		r.HandleFunc("/events", s.handleEvents).Methods("GET")
	}

	r.NotFoundHandler = notFoundHandler()

	return r
}

func (s Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprint(w, "ok")
}

func notFoundHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Page not found"})
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
