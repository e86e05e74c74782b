package event

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

type FeeArgs struct {
	Contract    common.Address `json:"contract,omitempty"`
	Marketplace uint64         `json:"feeMarketplace"`
	Owner       uint64         `json:"feeOwner"`
	Merchant    uint64         `json:"feeMerchant"`
	Collector   uint64         `json:"feeCollector"`
}

type RemoveCustomFeeArgs struct {
	Contract common.Address `json:"contract"`
}

type AskArgs struct {
	ListingId uint64         `json:"listingId"`
	Seller    common.Address `json:"seller"`
	Contract  common.Address `json:"contract"`
	TokenId   *big.Int       `json:"tokenId"`
	Price     *big.Int       `json:"price"`
}

type CancelSellArgs struct {
	ListingId uint64         `json:"listingId"`
	Seller    common.Address `json:"seller"`
	Contract  common.Address `json:"contract"`
	TokenId   *big.Int       `json:"tokenId"`
}

type TradeArgs struct {
	ListingId   uint64         `json:"listingId"`
	Seller      common.Address `json:"seller"`
	Buyer       common.Address `json:"buyer"`
	Contract    common.Address `json:"contract"`
	TokenId     *big.Int       `json:"tokenId"`
	Price       *big.Int       `json:"price"`
	Amount      *big.Int       `json:"amount"`
	Marketplace *big.Int       `json:"feeMarketplace"`
	Merchant    *big.Int       `json:"feeMerchant"`
	Collector   *big.Int       `json:"feeCollector"`
	Owner       *big.Int       `json:"feeOwner"`
	SellerTake  *big.Int       `json:"sellerTake"`
}

type LogBuyArgs struct {
	ListingId uint64         `json:"listingId"`
	Buyer     common.Address `json:"buyer"`
	Amount    *big.Int       `json:"amount"`
}

type SuspendNFTArgs struct {
	ListingId uint64 `json:"listingId"`
	Suspended bool   `json:"suspended"`
}

type SuspendCollectorArgs struct {
	Collector common.Address `json:"collector"`
	Suspended bool           `json:"suspended"`
}

type ContractNFTArgs struct {
	Contract common.Address `json:"contract"`
	Enabled  bool           `json:"enabled"`
}

type AddressArgs struct {
	Address common.Address `json:"address"`
}

type ExpiredTimesArgs struct {
	Minutes uint64 `json:"minutes"`
}

type TransferArgs struct {
	From    common.Address `json:"from"`
	To      common.Address `json:"to"`
	TokenId uint64         `json:"tokenId"`
}

type ApprovalForAllArgs struct {
	Owner    common.Address `json:"owner"`
	Operator common.Address `json:"operator"`
	Approved bool           `json:"approved"`
}

type BoxAssetArgs struct {
	BoxId    uint64         `json:"boxId"`
	Owner    common.Address `json:"owner"`
	Contract common.Address `json:"contract"`
	TokenId  *big.Int       `json:"tokenId"`
}

type BlindBoxSetArgs struct {
	Owner          common.Address `json:"owner"`
	Set            common.Address `json:"set"`
	Name           string         `json:"name"`
	Symbol         string         `json:"symbol"`
	MaxAssetPerBox uint64         `json:"maxAssetPerBox"`
}

type CancelMatchArgs struct {
	UniqId string         `json:"uniqId"`
	Seller common.Address `json:"seller"`
}

type OrderMatchArgs struct {
	UniqId        string         `json:"uniqId"`
	Seller        common.Address `json:"seller"`
	Buyer         common.Address `json:"buyer"`
	ContractNFT   common.Address `json:"contractNFT"`
	TokenId       *big.Int       `json:"tokenId"`
	ContractToken common.Address `json:"contractToken"`
	Price         *big.Int       `json:"price"`
	Royalty       *big.Int       `json:"royalty"`
	PlatformFee   *big.Int       `json:"platformFee"`
	SellerTake    *big.Int       `json:"sellerTake"`
}

type RoyaltyFeeArgs struct {
	Contract common.Address `json:"contract"`
	Receiver common.Address `json:"receiver"`
	Bps      uint64         `json:"bps"`
}

type NftCreatedArgs struct {
	Owner  common.Address `json:"owner"`
	Nft    common.Address `json:"nft"`
	Name   string         `json:"name"`
	Symbol string         `json:"symbol"`
}

type PriceUpdatedArgs struct {
	RoundId uint64   `json:"roundId"`
	Answer  *big.Int `json:"answer"`
}

type RoleArgs struct {
	Role    string         `json:"role"`
	Account common.Address `json:"account"`
	Sender  common.Address `json:"sender"`
}

type UpgradedArgs struct {
	Version string `json:"version"`
}
