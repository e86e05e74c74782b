package api

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"

	"github.com/Tokocrypto/tko-nft-smart-contract/internal/access"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/entity"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/event"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/failure"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type commandResponse struct {
	Ids     []uint64        `json:"ids,omitempty"`
	Address *common.Address `json:"address,omitempty"`
	Events  event.Log       `json:"events"`
}

type customFeeRequest struct {
	Marketplace uint64 `json:"marketplace"`
	Owner       uint64 `json:"owner"`
	Merchant    uint64 `json:"merchant"`
}

type sellRequest struct {
	Contract common.Address `json:"contract"`
	TokenIds []*big.Int     `json:"tokenIds" validate:"required,min=1,dive,required"`
	Price    *big.Int       `json:"price" validate:"required"`
}

type priceRequest struct {
	Price *big.Int `json:"price" validate:"required"`
}

type royaltyRequest struct {
	Receiver common.Address `json:"receiver"`
	Bps      uint64         `json:"bps"`
}

type createSetRequest struct {
	Name           string `json:"name" validate:"required"`
	Symbol         string `json:"symbol" validate:"required"`
	MaxAssetPerBox uint64 `json:"maxAssetPerBox" validate:"required"`
}

type assetRequest struct {
	Contract common.Address `json:"contract"`
	TokenId  *big.Int       `json:"tokenId" validate:"required"`
}

type mintRequest struct {
	To     common.Address `json:"to"`
	Assets []assetRequest `json:"assets" validate:"required,min=1,dive"`
}

type burnRequest struct {
	BoxIds []uint64       `json:"boxIds" validate:"required,min=1"`
	Assets []assetRequest `json:"assets" validate:"required,min=1,dive"`
}

type openRequest struct {
	BoxIds []uint64 `json:"boxIds" validate:"required,min=1"`
}

type transferRequest struct {
	From common.Address   `json:"from"`
	Tos  []common.Address `json:"tos" validate:"required,min=1"`
	Ids  []uint64         `json:"ids" validate:"required,min=1"`
}

type approvalRequest struct {
	Operator common.Address `json:"operator"`
	Approved bool           `json:"approved"`
}

type collectionRequest struct {
	Name   string `json:"name" validate:"required"`
	Symbol string `json:"symbol" validate:"required"`
}

type answerRequest struct {
	Answer *big.Int `json:"answer" validate:"required"`
}

// command runs a state changing handler for the gateway supplied caller. body, when
// set, is decoded and validated first.
func (s Server) command(w http.ResponseWriter, r *http.Request, body interface{}, run func(ctx context.Context, caller common.Address) (commandResponse, error)) {
	caller, err := s.caller(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if body != nil {
		if err := s.decode(r, body); err != nil {
			writeError(w, err)
			return
		}
	}

	resp, err := run(r.Context(), caller)
	if err != nil {
		writeError(w, err)
		return
	}

	zap.L().With(
		zap.String("route", r.Method+" "+r.URL.Path),
		zap.String("caller", caller.Hex()),
		zap.Int("events", len(resp.Events)),
	).Info("Api: Command executed")

	writeJSON(w, http.StatusOK, resp)
}

func (s Server) caller(r *http.Request) (common.Address, error) {
	caller := r.Header.Get(CallerHeader)
	if err := s.validator.Var(caller, "required,eth_addr"); err != nil {
		return common.Address{}, failure.New(failure.Unauthorized, "missing or invalid %s header", CallerHeader)
	}
	return common.HexToAddress(caller), nil
}

func (s Server) decode(r *http.Request, body interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(body); err != nil {
		return failure.New(failure.InvalidArgument, "invalid body: %s", err)
	}
	if err := s.validator.Struct(body); err != nil {
		return failure.New(failure.InvalidArgument, "invalid body: %s", err)
	}
	return nil
}

func logged(log event.Log, err error) (commandResponse, error) {
	if err != nil {
		return commandResponse{}, err
	}
	return commandResponse{Events: log}, nil
}

func splitAssets(assets []assetRequest) ([]common.Address, []*big.Int) {
	contracts := make([]common.Address, len(assets))
	tokenIds := make([]*big.Int, len(assets))
	for i, asset := range assets {
		contracts[i] = asset.Contract
		tokenIds[i] = asset.TokenId
	}
	return contracts, tokenIds
}

func (s Server) handleSetDefaultFee(w http.ResponseWriter, r *http.Request) {
	var req entity.FeeConfig
	s.command(w, r, &req, func(ctx context.Context, caller common.Address) (commandResponse, error) {
		return logged(s.fees.SetDefaultFee(ctx, caller, req))
	})
}

func (s Server) handleSetFeeFor(w http.ResponseWriter, r *http.Request) {
	var req customFeeRequest
	s.command(w, r, &req, func(ctx context.Context, caller common.Address) (commandResponse, error) {
		contract, err := s.address(r, "contract")
		if err != nil {
			return commandResponse{}, err
		}
		return logged(s.fees.SetFeeFor(ctx, caller, contract, req.Marketplace, req.Owner, req.Merchant))
	})
}

func (s Server) handleRemoveFeeFor(w http.ResponseWriter, r *http.Request) {
	s.command(w, r, nil, func(ctx context.Context, caller common.Address) (commandResponse, error) {
		contract, err := s.address(r, "contract")
		if err != nil {
			return commandResponse{}, err
		}
		return logged(s.fees.RemoveFeeFor(ctx, caller, contract))
	})
}

func (s Server) handleContractNFT(add bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.command(w, r, nil, func(ctx context.Context, caller common.Address) (commandResponse, error) {
			contract, err := s.address(r, "contract")
			if err != nil {
				return commandResponse{}, err
			}
			if add {
				return logged(s.asks.AddContractNFT(ctx, caller, contract))
			}
			return logged(s.asks.RemoveContractNFT(ctx, caller, contract))
		})
	}
}

func (s Server) handlePause(pause bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.command(w, r, nil, func(ctx context.Context, caller common.Address) (commandResponse, error) {
			if pause {
				return logged(s.asks.Pause(ctx, caller))
			}
			return logged(s.asks.Unpause(ctx, caller))
		})
	}
}

// handleRole grants or revokes a role on the marketplace registry.
func (s Server) handleRole(grant bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.command(w, r, nil, func(ctx context.Context, caller common.Address) (commandResponse, error) {
			role := access.Role(mux.Vars(r)["role"])
			if !role.Valid() {
				return commandResponse{}, failure.New(failure.InvalidArgument, "unknown role %q", role)
			}
			account, err := s.address(r, "account")
			if err != nil {
				return commandResponse{}, err
			}
			if grant {
				return logged(s.asks.GrantRole(ctx, caller, role, account))
			}
			return logged(s.asks.RevokeRole(ctx, caller, role, account))
		})
	}
}

func (s Server) handleSell(w http.ResponseWriter, r *http.Request) {
	var req sellRequest
	s.command(w, r, &req, func(ctx context.Context, caller common.Address) (commandResponse, error) {
		ids, log, err := s.asks.SellNFTBatch(ctx, caller, req.Contract, req.TokenIds, req.Price)
		if err != nil {
			return commandResponse{}, err
		}
		return commandResponse{Ids: ids, Events: log}, nil
	})
}

func (s Server) handleSetPrice(w http.ResponseWriter, r *http.Request) {
	var req priceRequest
	s.command(w, r, &req, func(ctx context.Context, caller common.Address) (commandResponse, error) {
		return logged(s.asks.SetCurrentPrice(ctx, caller, pathUint(r, "id"), req.Price))
	})
}

func (s Server) handleCancelSell(w http.ResponseWriter, r *http.Request) {
	s.command(w, r, nil, func(ctx context.Context, caller common.Address) (commandResponse, error) {
		return logged(s.asks.CancelSellNFT(ctx, caller, pathUint(r, "id")))
	})
}

func (s Server) handleBuy(w http.ResponseWriter, r *http.Request) {
	s.command(w, r, nil, func(ctx context.Context, caller common.Address) (commandResponse, error) {
		return logged(s.asks.BuyNFT(ctx, caller, pathUint(r, "id")))
	})
}

func (s Server) handleSuspendNFT(suspend bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.command(w, r, nil, func(ctx context.Context, caller common.Address) (commandResponse, error) {
			if suspend {
				return logged(s.asks.SuspendNFT(ctx, caller, pathUint(r, "id")))
			}
			return logged(s.asks.UnsuspendNFT(ctx, caller, pathUint(r, "id")))
		})
	}
}

func (s Server) handleSuspendCollector(suspend bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.command(w, r, nil, func(ctx context.Context, caller common.Address) (commandResponse, error) {
			collector, err := s.address(r, "collector")
			if err != nil {
				return commandResponse{}, err
			}
			if suspend {
				return logged(s.asks.SuspendCollector(ctx, caller, collector))
			}
			return logged(s.asks.UnsuspendCollector(ctx, caller, collector))
		})
	}
}

func (s Server) handleToken(add bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.command(w, r, nil, func(ctx context.Context, caller common.Address) (commandResponse, error) {
			token, err := s.address(r, "token")
			if err != nil {
				return commandResponse{}, err
			}
			if add {
				return logged(s.orders.AddToken(ctx, caller, token))
			}
			return logged(s.orders.RemoveToken(ctx, caller, token))
		})
	}
}

func (s Server) handleSetRoyalty(w http.ResponseWriter, r *http.Request) {
	var req royaltyRequest
	s.command(w, r, &req, func(ctx context.Context, caller common.Address) (commandResponse, error) {
		contract, err := s.address(r, "contract")
		if err != nil {
			return commandResponse{}, err
		}
		return logged(s.orders.SetRoyaltyFee(ctx, caller, contract, req.Receiver, req.Bps))
	})
}

func (s Server) handleCreateBlindBoxSet(w http.ResponseWriter, r *http.Request) {
	var req createSetRequest
	s.command(w, r, &req, func(ctx context.Context, caller common.Address) (commandResponse, error) {
		address, log, err := s.boxes.CreateBlindBoxSet(ctx, caller, req.Name, req.Symbol, req.MaxAssetPerBox)
		if err != nil {
			return commandResponse{}, err
		}
		return commandResponse{Address: &address, Events: log}, nil
	})
}

func (s Server) handleMintBoxes(w http.ResponseWriter, r *http.Request) {
	var req mintRequest
	s.command(w, r, &req, func(ctx context.Context, caller common.Address) (commandResponse, error) {
		address, err := s.address(r, "set")
		if err != nil {
			return commandResponse{}, err
		}
		set, err := s.boxes.Set(address)
		if err != nil {
			return commandResponse{}, err
		}

		contracts, tokenIds := splitAssets(req.Assets)
		ids, log, err := set.SafeMintBatch(ctx, caller, req.To, contracts, tokenIds)
		if err != nil {
			return commandResponse{}, err
		}
		return commandResponse{Ids: ids, Events: log}, nil
	})
}

func (s Server) handleBurnBoxes(w http.ResponseWriter, r *http.Request) {
	var req burnRequest
	s.command(w, r, &req, func(ctx context.Context, caller common.Address) (commandResponse, error) {
		address, err := s.address(r, "set")
		if err != nil {
			return commandResponse{}, err
		}
		set, err := s.boxes.Set(address)
		if err != nil {
			return commandResponse{}, err
		}

		contracts, tokenIds := splitAssets(req.Assets)
		return logged(set.BurnBatch(ctx, caller, req.BoxIds, contracts, tokenIds))
	})
}

func (s Server) handleOpenBoxes(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	s.command(w, r, &req, func(ctx context.Context, caller common.Address) (commandResponse, error) {
		address, err := s.address(r, "set")
		if err != nil {
			return commandResponse{}, err
		}
		set, err := s.boxes.Set(address)
		if err != nil {
			return commandResponse{}, err
		}
		return logged(set.OpenBoxBatch(ctx, caller, req.BoxIds))
	})
}

func (s Server) handleTransferBoxes(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	s.command(w, r, &req, func(ctx context.Context, caller common.Address) (commandResponse, error) {
		address, err := s.address(r, "set")
		if err != nil {
			return commandResponse{}, err
		}
		set, err := s.boxes.Set(address)
		if err != nil {
			return commandResponse{}, err
		}
		return logged(set.SafeTransferFromBatch(ctx, caller, req.From, req.Tos, req.Ids, nil))
	})
}

func (s Server) handleBoxApproval(w http.ResponseWriter, r *http.Request) {
	var req approvalRequest
	s.command(w, r, &req, func(ctx context.Context, caller common.Address) (commandResponse, error) {
		address, err := s.address(r, "set")
		if err != nil {
			return commandResponse{}, err
		}
		set, err := s.boxes.Set(address)
		if err != nil {
			return commandResponse{}, err
		}
		return logged(set.SetApprovalForAll(ctx, caller, req.Operator, req.Approved))
	})
}

func (s Server) handleCreateNft(w http.ResponseWriter, r *http.Request) {
	var req collectionRequest
	s.command(w, r, &req, func(ctx context.Context, caller common.Address) (commandResponse, error) {
		address, log, err := s.nfts.CreateNft(ctx, caller, req.Name, req.Symbol)
		if err != nil {
			return commandResponse{}, err
		}
		return commandResponse{Address: &address, Events: log}, nil
	})
}

func (s Server) handleNfts(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	if owner == "" {
		writeJSON(w, http.StatusOK, s.nfts.GetNfts())
		return
	}

	if err := s.validator.Var(owner, "eth_addr"); err != nil {
		writeError(w, failure.New(failure.InvalidArgument, "owner is not an address"))
		return
	}
	writeJSON(w, http.StatusOK, s.nfts.GetNftsByUser(common.HexToAddress(owner)))
}

func (s Server) handleUpdatePrice(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	s.command(w, r, &req, func(ctx context.Context, caller common.Address) (commandResponse, error) {
		return logged(s.feed.UpdatePrice(ctx, caller, req.Answer))
	})
}

func (s Server) handleLatestPrice(w http.ResponseWriter, _ *http.Request) {
	round, err := s.feed.LatestRoundData()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, round)
}
